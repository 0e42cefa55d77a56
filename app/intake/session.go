package intake

import (
	"context"
	"io"
	"time"
)

// Session tracks one chat's progress through the questionnaire.
// All access goes through the Store; fields are never mutated outside its lock.
type Session struct {
	ChatID int64
	Step   Step

	ChildName      string
	PhotoRef       string
	VideoRef       string
	FootSize       string
	Height         string
	ParentName     string
	ParentPhone    string
	ParentTelegram string

	StartedAt time.Time
}

// SubmissionRecord is the read-only projection of a completed session used
// to compose the admin notification. It is never persisted.
type SubmissionRecord struct {
	ChatID         int64
	Timestamp      time.Time
	ChildName      string
	PhotoRef       string
	VideoRef       string
	FootSize       string
	Height         string
	ParentName     string
	ParentPhone    string
	ParentTelegram string
}

// record projects the session into a SubmissionRecord with a server timestamp.
func (s *Session) record(now time.Time) SubmissionRecord {
	return SubmissionRecord{
		ChatID:         s.ChatID,
		Timestamp:      now,
		ChildName:      s.ChildName,
		PhotoRef:       s.PhotoRef,
		VideoRef:       s.VideoRef,
		FootSize:       s.FootSize,
		Height:         s.Height,
		ParentName:     s.ParentName,
		ParentPhone:    s.ParentPhone,
		ParentTelegram: s.ParentTelegram,
	}
}

// MediaKind selects the type of uploaded content for the media store.
type MediaKind string

const (
	// MediaPhoto marks photo uploads.
	MediaPhoto MediaKind = "photo"
	// MediaVideo marks video uploads.
	MediaVideo MediaKind = "video"
)

// MediaStore persists uploaded media and resolves stored references back to
// their content. Implementations must be safe for concurrent use.
type MediaStore interface {
	Store(ctx context.Context, chatID int64, r io.Reader, kind MediaKind) (string, error)
	Resolve(ref string) (io.ReadCloser, error)
}
