package router

import (
	"time"

	tg "github.com/m3rciful/anketabot/core/telegram"

	tele "gopkg.in/telebot.v4"
)

// FSM defines the minimal interface for a conversation state manager.
type FSM interface {
	InProgress(chatID int64) bool
	ManagerHandler(c tele.Context) error
}

// TextOptions controls fallback behaviour for plain text updates.
type TextOptions struct {
	UnknownText tele.HandlerFunc
}

// MediaOptions declares the handlers invoked for photo and video updates.
type MediaOptions struct {
	Photo tele.HandlerFunc
	Video tele.HandlerFunc
}

func withSummaryHandler(name string, h tele.HandlerFunc) tele.HandlerFunc {
	return func(c tele.Context) error {
		start := time.Now()
		return handleWithSummary(c, name, start, "", "", func() error {
			return h(c)
		})
	}
}

// TextRoutes builds the handler for plain text routing.
// Text goes to the conversation manager when a session is in progress,
// then to registered text commands, then to the fallback.
func TextRoutes(fsmMgr FSM, reg *tg.Registry, opts TextOptions) []tg.Route {
	handler := func(c tele.Context) error {
		start := time.Now()
		text := c.Text()

		if fsmMgr != nil && fsmMgr.InProgress(c.Chat().ID) {
			return handleWithSummary(c, "fsm", start, "", "", func() error {
				return fsmMgr.ManagerHandler(c)
			})
		}

		if reg != nil {
			if key, cmd, ok := reg.LookupCommand(text); ok && cmd.Handler != nil {
				name := normalizeHandlerName(key)
				return handleWithSummary(c, name, start, "", "", func() error {
					return cmd.Handler(c)
				})
			}
		}

		if reg != nil {
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, "", "", func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, "", "", func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, "skip", "ok", nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  handler,
		},
	}
}

// MediaRoutes builds handlers for photo and video updates.
func MediaRoutes(opts MediaOptions) []tg.Route {
	var routes []tg.Route
	if opts.Photo != nil {
		routes = append(routes, tg.Route{
			Endpoint: tele.OnPhoto,
			Handler:  withSummaryHandler("photo", opts.Photo),
		})
	}
	if opts.Video != nil {
		routes = append(routes, tg.Route{
			Endpoint: tele.OnVideo,
			Handler:  withSummaryHandler("video", opts.Video),
		})
	}
	return routes
}
