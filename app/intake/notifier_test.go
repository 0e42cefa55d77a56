package intake

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testRecord(media *fakeMedia) SubmissionRecord {
	ctx := context.Background()
	photoRef, _ := media.Store(ctx, 1, strings.NewReader("jpeg"), MediaPhoto)
	videoRef, _ := media.Store(ctx, 1, strings.NewReader("mp4"), MediaVideo)
	return SubmissionRecord{
		ChatID:         1,
		Timestamp:      time.Date(2026, 3, 14, 15, 9, 0, 0, time.UTC),
		ChildName:      "Маша",
		PhotoRef:       photoRef,
		VideoRef:       videoRef,
		FootSize:       "22,5",
		Height:         "110",
		ParentName:     "Анна",
		ParentPhone:    "79123456789",
		ParentTelegram: "@anna",
	}
}

func TestNotifierPerRecipientIsolation(t *testing.T) {
	media := newFakeMedia()
	gw := newFakeGateway()
	gw.failFor[200] = errors.New("bot was blocked")
	n := NewNotifier(gw, media, []int64{100, 200, 300})

	results := n.Notify(context.Background(), testRecord(media))
	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	for i, want := range []int64{100, 200, 300} {
		if results[i].Recipient != want {
			t.Fatalf("results[%d].Recipient = %d, want %d", i, results[i].Recipient, want)
		}
	}
	if results[0].Err != nil || results[2].Err != nil {
		t.Fatalf("healthy recipients failed: %v / %v", results[0].Err, results[2].Err)
	}
	if results[1].Err == nil {
		t.Fatal("failed recipient reported success")
	}
	for _, it := range gw.items() {
		if it.recipient == 200 {
			t.Fatalf("failed recipient still received %q", it.kind)
		}
	}
}

func TestNotifierSummaryFormat(t *testing.T) {
	media := newFakeMedia()
	gw := newFakeGateway()
	n := NewNotifier(gw, media, []int64{100})

	n.Notify(context.Background(), testRecord(media))
	items := gw.items()
	if len(items) != 2 {
		t.Fatalf("sent %d items, want photo+video", len(items))
	}
	if items[0].kind != "photo" {
		t.Fatalf("first item = %s, want photo carrying the summary caption", items[0].kind)
	}
	summary := items[0].text
	for _, want := range []string{
		"📦 *Новая заявка:*",
		"👶 *Ребенок:* Маша",
		"👣 *Размер ноги:* 22,5 см",
		"📏 *Рост:* 110 см",
		"👤 *Родитель:* Анна",
		"📱 *Телефон:* 79123456789",
		"✈️ *Telegram:* @anna",
		"🕒 *Время:* 14.03.2026 15:09",
	} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
	if items[1].kind != "video" || !strings.Contains(items[1].text, "Маша") {
		t.Fatalf("second item = %s %q, want video with child name caption", items[1].kind, items[1].text)
	}
}

func TestNotifierMissingPhotoFallsBackToText(t *testing.T) {
	media := newFakeMedia()
	gw := newFakeGateway()
	n := NewNotifier(gw, media, []int64{100})

	rec := testRecord(media)
	rec.PhotoRef = "gone.jpg"
	rec.VideoRef = ""
	results := n.Notify(context.Background(), rec)
	if results[0].Err != nil {
		t.Fatalf("unresolvable photo must not fail the recipient: %v", results[0].Err)
	}
	items := gw.items()
	if len(items) != 1 || items[0].kind != "message" {
		t.Fatalf("items = %+v, want a single plain message", items)
	}
	if !strings.Contains(items[0].text, "Новая заявка") {
		t.Fatalf("fallback message lost the summary: %q", items[0].text)
	}
}

func TestNotifierEscapesUserValues(t *testing.T) {
	media := newFakeMedia()
	gw := newFakeGateway()
	n := NewNotifier(gw, media, []int64{100})

	rec := testRecord(media)
	rec.PhotoRef = ""
	rec.VideoRef = ""
	rec.ChildName = "Маша_*"
	n.Notify(context.Background(), rec)
	items := gw.items()
	if len(items) != 1 {
		t.Fatalf("sent %d items, want 1", len(items))
	}
	if !strings.Contains(items[0].text, `Маша\_\*`) {
		t.Fatalf("markdown metacharacters not escaped: %q", items[0].text)
	}
}
