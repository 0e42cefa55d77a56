package intake

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/m3rciful/anketabot/core/logger"
	"github.com/m3rciful/anketabot/core/telegram/format"
)

// AdminGateway sends composed notifications to a single recipient. The
// telegram adapter implements it; tests substitute a fake.
type AdminGateway interface {
	SendMessage(ctx context.Context, recipient int64, text string) error
	SendPhoto(ctx context.Context, recipient int64, photo io.Reader, caption string) error
	SendVideo(ctx context.Context, recipient int64, video io.Reader, caption string) error
}

// RecipientResult reports the delivery outcome for one admin.
type RecipientResult struct {
	Recipient int64
	Err       error
}

// Notifier fans a completed submission out to the configured admins.
// Recipients are independent: a failure for one never aborts the others.
type Notifier struct {
	gateway    AdminGateway
	media      MediaStore
	recipients []int64
}

// NewNotifier builds a notifier for the given admin list.
func NewNotifier(gateway AdminGateway, media MediaStore, recipients []int64) *Notifier {
	return &Notifier{gateway: gateway, media: media, recipients: recipients}
}

// Notify delivers the submission to every recipient in order and returns
// one result per recipient. The summary rides on the photo as its caption
// when the photo resolves; the video follows as a separate message.
func (n *Notifier) Notify(ctx context.Context, rec SubmissionRecord) []RecipientResult {
	summary := composeSummary(rec)
	videoCaption := "🎥 Видео: " + format.EscapeV1(rec.ChildName)

	results := make([]RecipientResult, 0, len(n.recipients))
	for _, recipient := range n.recipients {
		err := n.notifyOne(ctx, recipient, rec, summary, videoCaption)
		if err != nil {
			logger.Warn(ctx, "notify", "deliver.fail",
				slog.Int64("recipient", recipient),
				slog.Int64("chat_id", rec.ChatID),
				slog.String("err", logger.Sanitize(err.Error())),
			)
		} else {
			logger.Debug(ctx, "notify", "deliver.ok",
				slog.Int64("recipient", recipient),
				slog.Int64("chat_id", rec.ChatID),
			)
		}
		results = append(results, RecipientResult{Recipient: recipient, Err: err})
	}
	return results
}

// notifyOne sends the summary and the video to a single admin. A missing or
// unreadable photo degrades to a plain text summary rather than failing the
// recipient.
func (n *Notifier) notifyOne(ctx context.Context, recipient int64, rec SubmissionRecord, summary, videoCaption string) error {
	sent := false
	if rec.PhotoRef != "" {
		photo, err := n.media.Resolve(rec.PhotoRef)
		if err == nil {
			err = n.gateway.SendPhoto(ctx, recipient, photo, summary)
			photo.Close()
			if err != nil {
				return fmt.Errorf("send photo: %w", err)
			}
			sent = true
		} else {
			logger.Warn(ctx, "notify", "media.resolve.fail",
				slog.Int64("recipient", recipient),
				slog.String("file", rec.PhotoRef),
				slog.String("err", err.Error()),
			)
		}
	}
	if !sent {
		if err := n.gateway.SendMessage(ctx, recipient, summary); err != nil {
			return fmt.Errorf("send summary: %w", err)
		}
	}

	if rec.VideoRef == "" {
		return nil
	}
	video, err := n.media.Resolve(rec.VideoRef)
	if err != nil {
		logger.Warn(ctx, "notify", "media.resolve.fail",
			slog.Int64("recipient", recipient),
			slog.String("file", rec.VideoRef),
			slog.String("err", err.Error()),
		)
		return nil
	}
	defer video.Close()
	if err := n.gateway.SendVideo(ctx, recipient, video, videoCaption); err != nil {
		return fmt.Errorf("send video: %w", err)
	}
	return nil
}

// composeSummary renders the admin-facing submission card. User-supplied
// values are escaped so stray markdown cannot break the formatting.
func composeSummary(rec SubmissionRecord) string {
	var b strings.Builder
	b.WriteString("📦 *Новая заявка:*\n\n")
	fmt.Fprintf(&b, "👶 *Ребенок:* %s\n", format.EscapeV1(rec.ChildName))
	fmt.Fprintf(&b, "👣 *Размер ноги:* %s см\n", format.EscapeV1(rec.FootSize))
	fmt.Fprintf(&b, "📏 *Рост:* %s см\n", format.EscapeV1(rec.Height))
	fmt.Fprintf(&b, "👤 *Родитель:* %s\n", format.EscapeV1(rec.ParentName))
	fmt.Fprintf(&b, "📱 *Телефон:* %s\n", format.EscapeV1(rec.ParentPhone))
	fmt.Fprintf(&b, "✈️ *Telegram:* %s\n", format.EscapeV1(rec.ParentTelegram))
	fmt.Fprintf(&b, "🕒 *Время:* %s", rec.Timestamp.Format("02.01.2006 15:04"))
	return b.String()
}
