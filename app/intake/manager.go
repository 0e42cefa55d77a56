package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/m3rciful/anketabot/core/logger"
)

// DefaultMaxVideoSeconds bounds the duration of an accepted video upload.
const DefaultMaxVideoSeconds = 60

// Manager drives the questionnaire: it owns the session store and applies
// the step table to inbound events. Every operation converts its outcome
// into a user-facing reply; an empty reply means the event is ignored.
type Manager struct {
	store           *Store
	media           MediaStore
	notifier        *Notifier
	maxVideoSeconds int
}

// NewManager wires the session manager with its collaborators.
func NewManager(store *Store, media MediaStore, notifier *Notifier, maxVideoSeconds int) *Manager {
	if maxVideoSeconds <= 0 {
		maxVideoSeconds = DefaultMaxVideoSeconds
	}
	return &Manager{
		store:           store,
		media:           media,
		notifier:        notifier,
		maxVideoSeconds: maxVideoSeconds,
	}
}

// Begin starts a fresh questionnaire for the chat, replacing any partial
// one. At capacity it returns ErrCapacity and the "busy" reply.
func (m *Manager) Begin(ctx context.Context, chatID int64) (string, error) {
	if err := m.store.Begin(chatID); err != nil {
		logger.Warn(ctx, "intake", "session.reject",
			slog.Int64("chat_id", chatID),
			slog.Int("sessions", m.store.Len()),
			slog.String("cause", "capacity"),
		)
		return textBusy, err
	}
	logger.Info(ctx, "intake", "session.begin",
		slog.Int64("chat_id", chatID),
		slog.Int("sessions", m.store.Len()),
	)
	return textWelcome, nil
}

// Cancel drops the chat's session if present. Cancelling without a session
// is not an error; the acknowledgment is sent either way.
func (m *Manager) Cancel(ctx context.Context, chatID int64) string {
	if m.store.Remove(chatID) {
		logger.Info(ctx, "intake", "session.cancel",
			slog.Int64("chat_id", chatID),
			slog.Int("sessions", m.store.Len()),
		)
	}
	return textCancelled
}

// HandleText applies the current step's validator to the answer. Text that
// arrives while a media step is expected is ignored without a reply.
func (m *Manager) HandleText(ctx context.Context, chatID int64, text string) (string, error) {
	var (
		reply string
		verr  *ValidationError
		final bool
	)
	found := m.store.Update(chatID, func(s *Session) {
		st, ok := textSteps[s.Step]
		if !ok {
			// photo or video expected; silent no-op
			return
		}
		value, err := st.validate(strings.TrimSpace(text))
		if err != nil {
			verr = &ValidationError{Step: s.Step, Reply: rejectText(s.Step, err)}
			return
		}
		st.assign(s, value)
		if st.final {
			final = true
			return
		}
		done := s.Step
		s.Step = st.next
		reply = advanceReply(done, st.next)
	})
	if !found {
		return TextNoSession, ErrNoSession
	}
	if verr != nil {
		logger.Debug(ctx, "intake", "step.reject",
			slog.Int64("chat_id", chatID),
			slog.String("step", string(verr.Step)),
		)
		return verr.Reply, verr
	}
	if final {
		return m.finalize(ctx, chatID), nil
	}
	return reply, nil
}

// HandlePhoto persists the uploaded photo and advances the session.
// It is a no-op unless the chat is currently on the photo step; a storage
// failure leaves the step unchanged so the user may retry.
func (m *Manager) HandlePhoto(ctx context.Context, chatID int64, r io.Reader) (string, error) {
	step, ok := m.store.Step(chatID)
	if !ok {
		return TextNoSession, ErrNoSession
	}
	if step != StepPhoto {
		return "", nil
	}

	ref, err := m.media.Store(ctx, chatID, r, MediaPhoto)
	if err != nil {
		logger.Error(ctx, "intake", "media.store.fail",
			slog.Int64("chat_id", chatID),
			slog.String("media", string(MediaPhoto)),
			slog.String("err", err.Error()),
		)
		return TextPhotoFailed, fmt.Errorf("store photo: %w", err)
	}

	advanced := false
	m.store.Update(chatID, func(s *Session) {
		if s.Step != StepPhoto {
			// session restarted or cancelled while the upload was in flight
			return
		}
		s.PhotoRef = ref
		s.Step = StepVideo
		advanced = true
	})
	if !advanced {
		return "", nil
	}
	return advanceReply(StepPhoto, StepVideo), nil
}

// HandleVideo persists the uploaded video and advances the session. Videos
// longer than the configured limit are rejected without a state change.
func (m *Manager) HandleVideo(ctx context.Context, chatID int64, r io.Reader, durationSeconds int) (string, error) {
	step, ok := m.store.Step(chatID)
	if !ok {
		return TextNoSession, ErrNoSession
	}
	if step != StepVideo {
		return "", nil
	}
	if durationSeconds > m.maxVideoSeconds {
		verr := &ValidationError{Step: StepVideo, Reply: TextVideoTooLong}
		logger.Debug(ctx, "intake", "step.reject",
			slog.Int64("chat_id", chatID),
			slog.String("step", string(StepVideo)),
			slog.Int("video_seconds", durationSeconds),
		)
		return verr.Reply, verr
	}

	ref, err := m.media.Store(ctx, chatID, r, MediaVideo)
	if err != nil {
		logger.Error(ctx, "intake", "media.store.fail",
			slog.Int64("chat_id", chatID),
			slog.String("media", string(MediaVideo)),
			slog.String("err", err.Error()),
		)
		return TextVideoFailed, fmt.Errorf("store video: %w", err)
	}

	advanced := false
	m.store.Update(chatID, func(s *Session) {
		if s.Step != StepVideo {
			return
		}
		s.VideoRef = ref
		s.Step = StepFootSize
		advanced = true
	})
	if !advanced {
		return "", nil
	}
	return advanceReply(StepVideo, StepFootSize), nil
}

// finalize projects the completed session into a SubmissionRecord, removes
// the session, and fans the record out to the admins. The session is gone
// before any notification I/O starts, so a failed or cancelled fan-out can
// never leave it stuck; delivery failures are logged, never surfaced.
func (m *Manager) finalize(ctx context.Context, chatID int64) string {
	sess, ok := m.store.Take(chatID)
	if !ok {
		return TextNoSession
	}
	rec := sess.record(time.Now())

	results := m.notifier.Notify(ctx, rec)
	delivered, failed := 0, 0
	for _, res := range results {
		if res.Err != nil {
			failed++
		} else {
			delivered++
		}
	}
	logger.Info(ctx, "intake", "session.finalize",
		slog.Int64("chat_id", chatID),
		slog.Int("recipients_ok", delivered),
		slog.Int("recipients_failed", failed),
		slog.Int("sessions", m.store.Len()),
	)
	return textDone
}

// ActiveSessions reports how many questionnaires are currently in progress.
func (m *Manager) ActiveSessions() int {
	return m.store.Len()
}

// CurrentStep returns the chat's pending step. The telegram layer uses it
// to skip downloading media the questionnaire would ignore anyway.
func (m *Manager) CurrentStep(chatID int64) (Step, bool) {
	return m.store.Step(chatID)
}

// InProgress reports whether the chat has an active session.
func (m *Manager) InProgress(chatID int64) bool {
	_, ok := m.store.Step(chatID)
	return ok
}
