package intake

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
)

type fakeMedia struct {
	mu    sync.Mutex
	refs  map[string][]byte
	seq   int
	fail  bool
	calls []MediaKind
}

func newFakeMedia() *fakeMedia {
	return &fakeMedia{refs: map[string][]byte{}}
}

func (m *fakeMedia) Store(_ context.Context, chatID int64, r io.Reader, kind MediaKind) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail {
		return "", errors.New("disk full")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.seq++
	ref := fmt.Sprintf("%d_%d.%s", chatID, m.seq, kind)
	m.refs[ref] = data
	m.calls = append(m.calls, kind)
	return ref, nil
}

func (m *fakeMedia) Resolve(ref string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.refs[ref]
	if !ok {
		return nil, errors.New("not found")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

type sentItem struct {
	recipient int64
	kind      string
	text      string
}

type fakeGateway struct {
	mu      sync.Mutex
	sent    []sentItem
	failFor map[int64]error
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{failFor: map[int64]error{}}
}

func (g *fakeGateway) record(recipient int64, kind, text string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.failFor[recipient]; err != nil {
		return err
	}
	g.sent = append(g.sent, sentItem{recipient: recipient, kind: kind, text: text})
	return nil
}

func (g *fakeGateway) SendMessage(_ context.Context, recipient int64, text string) error {
	return g.record(recipient, "message", text)
}

func (g *fakeGateway) SendPhoto(_ context.Context, recipient int64, _ io.Reader, caption string) error {
	return g.record(recipient, "photo", caption)
}

func (g *fakeGateway) SendVideo(_ context.Context, recipient int64, _ io.Reader, caption string) error {
	return g.record(recipient, "video", caption)
}

func (g *fakeGateway) items() []sentItem {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]sentItem, len(g.sent))
	copy(out, g.sent)
	return out
}

func newTestManager(admins ...int64) (*Manager, *fakeMedia, *fakeGateway) {
	media := newFakeMedia()
	gw := newFakeGateway()
	store := NewStore(DefaultMaxSessions)
	mgr := NewManager(store, media, NewNotifier(gw, media, admins), DefaultMaxVideoSeconds)
	return mgr, media, gw
}

// sendText, sendPhoto and sendVideo drive the manager and fail the test on
// anything but a clean advance.

func sendText(t *testing.T, mgr *Manager, chat int64, text string) string {
	t.Helper()
	reply, err := mgr.HandleText(context.Background(), chat, text)
	if err != nil {
		t.Fatalf("HandleText(%q): %v", text, err)
	}
	return reply
}

func sendPhoto(t *testing.T, mgr *Manager, chat int64, content string) string {
	t.Helper()
	reply, err := mgr.HandlePhoto(context.Background(), chat, strings.NewReader(content))
	if err != nil {
		t.Fatalf("HandlePhoto: %v", err)
	}
	return reply
}

func sendVideo(t *testing.T, mgr *Manager, chat int64, content string, seconds int) string {
	t.Helper()
	reply, err := mgr.HandleVideo(context.Background(), chat, strings.NewReader(content), seconds)
	if err != nil {
		t.Fatalf("HandleVideo(%ds): %v", seconds, err)
	}
	return reply
}

func TestManagerFullFlow(t *testing.T) {
	ctx := context.Background()
	mgr, _, gw := newTestManager(100, 200)
	const chat = int64(1)

	reply, err := mgr.Begin(ctx, chat)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if !strings.Contains(reply, "Шаг 1 из 8") {
		t.Fatalf("Begin reply = %q, want first prompt", reply)
	}

	if reply = sendText(t, mgr, chat, "Маша"); !strings.Contains(reply, "Шаг 2 из 8") {
		t.Fatalf("after name: %q, want photo prompt", reply)
	}
	if reply = sendPhoto(t, mgr, chat, "jpeg"); !strings.Contains(reply, "Шаг 3 из 8") {
		t.Fatalf("after photo: %q, want video prompt", reply)
	}
	if reply = sendVideo(t, mgr, chat, "mp4", 45); !strings.Contains(reply, "Шаг 4 из 8") {
		t.Fatalf("after video: %q, want foot size prompt", reply)
	}

	sendText(t, mgr, chat, "22,5")
	sendText(t, mgr, chat, "110")
	sendText(t, mgr, chat, "Анна")
	sendText(t, mgr, chat, "+7 (912) 345-67-89")

	if reply = sendText(t, mgr, chat, "@anna"); reply != textDone {
		t.Fatalf("final reply = %q, want success text", reply)
	}
	if mgr.InProgress(chat) {
		t.Fatal("session survived finalize")
	}
	if got := mgr.ActiveSessions(); got != 0 {
		t.Fatalf("ActiveSessions = %d, want 0", got)
	}

	items := gw.items()
	// each admin gets the summary riding on the photo plus a separate video
	if len(items) != 4 {
		t.Fatalf("sent %d items, want 4: %+v", len(items), items)
	}
	perRecipient := map[int64][]string{}
	for _, it := range items {
		perRecipient[it.recipient] = append(perRecipient[it.recipient], it.kind)
	}
	for _, admin := range []int64{100, 200} {
		kinds := perRecipient[admin]
		if len(kinds) != 2 || kinds[0] != "photo" || kinds[1] != "video" {
			t.Fatalf("recipient %d got %v, want [photo video]", admin, kinds)
		}
	}
	summary := items[0].text
	for _, want := range []string{"Новая заявка", "Маша", "22,5", "110", "79123456789", "@anna"} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestManagerValidationKeepsStep(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(100)
	const chat = int64(2)

	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	reply, err := mgr.HandleText(ctx, chat, "Я")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.Step != StepChildName {
		t.Fatalf("rejected step = %s, want %s", verr.Step, StepChildName)
	}
	if !strings.Contains(reply, "введите имя ребенка") {
		t.Fatalf("reply = %q, want retry text", reply)
	}
	// the step did not move; a valid answer still lands on child_name
	if reply = sendText(t, mgr, chat, "Маша"); !strings.Contains(reply, "Шаг 2 из 8") {
		t.Fatalf("after retry: %q, want photo prompt", reply)
	}
}

func TestManagerNumericRejectTexts(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(100)
	const chat = int64(9)

	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	sendText(t, mgr, chat, "Маша")
	sendPhoto(t, mgr, chat, "jpeg")
	sendVideo(t, mgr, chat, "mp4", 30)

	// non-numeric input asks for a number, out-of-range asks for a correct value
	reply, err := mgr.HandleText(ctx, chat, "сорок")
	if err == nil || reply != "❌ Пожалуйста, введите число для размера ноги" {
		t.Fatalf("non-numeric foot size: reply = %q, err = %v", reply, err)
	}
	reply, err = mgr.HandleText(ctx, chat, "31")
	if err == nil || reply != "❌ Пожалуйста, введите корректный размер ноги (0-30 см)" {
		t.Fatalf("out-of-range foot size: reply = %q, err = %v", reply, err)
	}

	sendText(t, mgr, chat, "22")
	reply, err = mgr.HandleText(ctx, chat, "высокий")
	if err == nil || reply != "❌ Пожалуйста, введите число для роста" {
		t.Fatalf("non-numeric height: reply = %q, err = %v", reply, err)
	}
	reply, err = mgr.HandleText(ctx, chat, "201")
	if err == nil || reply != "❌ Пожалуйста, введите корректный рост (0-200 см)" {
		t.Fatalf("out-of-range height: reply = %q, err = %v", reply, err)
	}
	if reply = sendText(t, mgr, chat, "110"); !strings.Contains(reply, "Шаг 6 из 8") {
		t.Fatalf("after height retry: %q, want parent name prompt", reply)
	}
}

func TestManagerNoSession(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(100)

	reply, err := mgr.HandleText(ctx, 3, "привет")
	if !errors.Is(err, ErrNoSession) {
		t.Fatalf("HandleText: err = %v, want ErrNoSession", err)
	}
	if reply != TextNoSession {
		t.Fatalf("reply = %q, want start hint", reply)
	}
	if _, err := mgr.HandlePhoto(ctx, 3, strings.NewReader("jpeg")); !errors.Is(err, ErrNoSession) {
		t.Fatalf("HandlePhoto: err = %v, want ErrNoSession", err)
	}
	if _, err := mgr.HandleVideo(ctx, 3, strings.NewReader("mp4"), 10); !errors.Is(err, ErrNoSession) {
		t.Fatalf("HandleVideo: err = %v, want ErrNoSession", err)
	}
}

func TestManagerTextDuringMediaStepIgnored(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(100)
	const chat = int64(4)

	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	sendText(t, mgr, chat, "Маша")

	if reply := sendText(t, mgr, chat, "вот текст вместо фото"); reply != "" {
		t.Fatalf("text on photo step: reply = %q, want silence", reply)
	}
	if reply := sendPhoto(t, mgr, chat, "jpeg"); !strings.Contains(reply, "Шаг 3 из 8") {
		t.Fatalf("photo after stray text: %q", reply)
	}
}

func TestManagerVideoOutOfOrderIgnored(t *testing.T) {
	ctx := context.Background()
	mgr, media, _ := newTestManager(100)
	const chat = int64(555)

	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	sendText(t, mgr, chat, "Маша")

	// video while the photo step is pending: dropped, nothing stored
	if reply := sendVideo(t, mgr, chat, "mp4", 10); reply != "" {
		t.Fatalf("video on photo step: reply = %q, want silence", reply)
	}
	if len(media.calls) != 0 {
		t.Fatalf("media stored %v, want nothing", media.calls)
	}
	if step, _ := mgr.store.Step(chat); step != StepPhoto {
		t.Fatalf("step = %s, want %s", step, StepPhoto)
	}
}

func TestManagerVideoTooLong(t *testing.T) {
	ctx := context.Background()
	mgr, media, _ := newTestManager(100)
	const chat = int64(5)

	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	sendText(t, mgr, chat, "Маша")
	sendPhoto(t, mgr, chat, "jpeg")

	reply, err := mgr.HandleVideo(ctx, chat, strings.NewReader("mp4"), 61)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if reply != TextVideoTooLong {
		t.Fatalf("reply = %q, want too-long text", reply)
	}
	if len(media.calls) != 1 { // only the photo
		t.Fatalf("media stored %v, want photo only", media.calls)
	}
	if step, _ := mgr.store.Step(chat); step != StepVideo {
		t.Fatalf("step = %s, want unchanged %s", step, StepVideo)
	}
	// exactly at the limit is fine
	sendVideo(t, mgr, chat, "mp4", 60)
	if step, _ := mgr.store.Step(chat); step != StepFootSize {
		t.Fatalf("step = %s, want %s", step, StepFootSize)
	}
}

func TestManagerMediaStoreFailureKeepsStep(t *testing.T) {
	ctx := context.Background()
	mgr, media, _ := newTestManager(100)
	const chat = int64(6)

	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	sendText(t, mgr, chat, "Маша")

	media.fail = true
	reply, err := mgr.HandlePhoto(ctx, chat, strings.NewReader("jpeg"))
	if err == nil {
		t.Fatal("HandlePhoto: want error on store failure")
	}
	if reply != TextPhotoFailed {
		t.Fatalf("reply = %q, want retry text", reply)
	}
	if step, _ := mgr.store.Step(chat); step != StepPhoto {
		t.Fatalf("step = %s, want unchanged %s", step, StepPhoto)
	}
	media.fail = false
	sendPhoto(t, mgr, chat, "jpeg")
	if step, _ := mgr.store.Step(chat); step != StepVideo {
		t.Fatalf("step after retry = %s, want %s", step, StepVideo)
	}
}

func TestManagerNotifierFailureStillCompletes(t *testing.T) {
	ctx := context.Background()
	mgr, _, gw := newTestManager(100, 200)
	const chat = int64(777)
	gw.failFor[100] = errors.New("blocked by user")

	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	sendText(t, mgr, chat, "Маша")
	sendPhoto(t, mgr, chat, "jpeg")
	sendVideo(t, mgr, chat, "mp4", 30)
	sendText(t, mgr, chat, "22")
	sendText(t, mgr, chat, "110")
	sendText(t, mgr, chat, "Анна")
	sendText(t, mgr, chat, "9123456789")

	if reply := sendText(t, mgr, chat, "@anna"); reply != textDone {
		t.Fatalf("final reply = %q, want success despite partial delivery", reply)
	}
	if mgr.InProgress(chat) {
		t.Fatal("session survived finalize with a failed recipient")
	}
	// the healthy recipient still got both messages
	got := 0
	for _, it := range gw.items() {
		if it.recipient == 200 {
			got++
		}
	}
	if got != 2 {
		t.Fatalf("recipient 200 received %d items, want 2", got)
	}
}

func TestManagerCancel(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(100)
	const chat = int64(8)

	if reply := mgr.Cancel(ctx, chat); reply != textCancelled {
		t.Fatalf("Cancel without session: %q", reply)
	}
	if _, err := mgr.Begin(ctx, chat); err != nil {
		t.Fatal(err)
	}
	if reply := mgr.Cancel(ctx, chat); reply != textCancelled {
		t.Fatalf("Cancel: %q", reply)
	}
	if mgr.InProgress(chat) {
		t.Fatal("session survived Cancel")
	}
}

func TestManagerBeginAtCapacity(t *testing.T) {
	ctx := context.Background()
	mgr, _, _ := newTestManager(100)
	for i := int64(1); i <= DefaultMaxSessions; i++ {
		if _, err := mgr.Begin(ctx, i); err != nil {
			t.Fatalf("Begin(%d): %v", i, err)
		}
	}
	reply, err := mgr.Begin(ctx, 999)
	if !errors.Is(err, ErrCapacity) {
		t.Fatalf("err = %v, want ErrCapacity", err)
	}
	if reply != textBusy {
		t.Fatalf("reply = %q, want busy text", reply)
	}
}
