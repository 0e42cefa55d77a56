package app

import (
	"context"
	"errors"
	"io"
	"sync/atomic"

	tele "gopkg.in/telebot.v4"
)

// errBotNotReady is returned when a send is attempted before the bot runtime
// is captured by the OnStart hook.
var errBotNotReady = errors.New("app: bot not started")

// botGateway adapts the running telebot instance to the notifier. All sends
// use Markdown parse mode; captions and texts are pre-escaped upstream.
// Sends stay synchronous so the notifier gets a real per-recipient outcome.
type botGateway struct {
	bot atomic.Pointer[tele.Bot]
}

func (g *botGateway) setBot(b *tele.Bot) {
	g.bot.Store(b)
}

func (g *botGateway) current() (*tele.Bot, error) {
	b := g.bot.Load()
	if b == nil {
		return nil, errBotNotReady
	}
	return b, nil
}

func (g *botGateway) SendMessage(_ context.Context, recipient int64, text string) error {
	b, err := g.current()
	if err != nil {
		return err
	}
	_, err = b.Send(&tele.User{ID: recipient}, text, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}

func (g *botGateway) SendPhoto(_ context.Context, recipient int64, photo io.Reader, caption string) error {
	b, err := g.current()
	if err != nil {
		return err
	}
	p := &tele.Photo{File: tele.FromReader(photo), Caption: caption}
	_, err = b.Send(&tele.User{ID: recipient}, p, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}

func (g *botGateway) SendVideo(_ context.Context, recipient int64, video io.Reader, caption string) error {
	b, err := g.current()
	if err != nil {
		return err
	}
	v := &tele.Video{File: tele.FromReader(video), Caption: caption}
	_, err = b.Send(&tele.User{ID: recipient}, v, &tele.SendOptions{ParseMode: tele.ModeMarkdown})
	return err
}
