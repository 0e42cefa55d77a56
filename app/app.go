package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	tele "gopkg.in/telebot.v4"

	"github.com/m3rciful/anketabot/app/intake"
	"github.com/m3rciful/anketabot/app/media"
	"github.com/m3rciful/anketabot/core/logger"
	coretelegram "github.com/m3rciful/anketabot/core/telegram"
	"github.com/m3rciful/anketabot/core/telegram/commands"
	tghelpers "github.com/m3rciful/anketabot/core/telegram/helpers"
	"github.com/m3rciful/anketabot/core/telegram/router"
)

// App assembles the questionnaire bot: session manager, media storage,
// admin notifier, and the telegram routing around them.
type App struct {
	cfg     *Config
	gateway *botGateway
	manager *intake.Manager
}

// New initializes logging and builds the application graph.
func New(cfg *Config) (*App, error) {
	if cfg == nil {
		return nil, errors.New("app: nil config")
	}
	if err := logger.InitLogger(&cfg.Core); err != nil {
		return nil, fmt.Errorf("app: init logger: %w", err)
	}
	if len(cfg.Core.Telegram.AdminIDs) == 0 {
		logger.L.Warn("no admins configured, submissions go nowhere",
			slog.String("event", "config"),
		)
	}

	store, err := media.NewDiskStore(cfg.Intake.MediaDir)
	if err != nil {
		return nil, err
	}

	gw := &botGateway{}
	notifier := intake.NewNotifier(gw, store, cfg.Core.Telegram.AdminIDs)
	manager := intake.NewManager(
		intake.NewStore(cfg.Intake.MaxSessions),
		store,
		notifier,
		cfg.Intake.MaxVideoSeconds,
	)

	return &App{cfg: cfg, gateway: gw, manager: manager}, nil
}

// TelegramRunOptions wires commands, text and media routes, and the shared
// middleware chain into the bot runtime.
func (a *App) TelegramRunOptions() (coretelegram.RunOptions, error) {
	reg := coretelegram.NewRegistry()
	reg.RegisterCommand("/start", commands.Command{
		Handler:     a.handleStart,
		Description: "Начать заполнение анкеты",
	})
	reg.RegisterCommand("/cancel", commands.Command{
		Handler:     a.handleCancel,
		Description: "Отменить заявку",
	})
	reg.RegisterCommand("/stats", commands.Command{
		Handler:     a.handleStats,
		Description: "Статистика активных сессий",
		AdminOnly:   true,
	})
	// text from chats without a session falls through to the same entry
	// point and earns the /start hint
	reg.SetTextFallback(a.ManagerHandler)

	routes := router.CommandRoutes(reg, router.CommandRouteOptions{
		IsAdmin: a.cfg.Core.Telegram.IsAdmin,
		OnAdminReject: func(c tele.Context) error {
			return tghelpers.SendText(c, intake.TextStatsDenied)
		},
	})
	routes = append(routes, router.TextRoutes(a, reg, router.TextOptions{})...)
	routes = append(routes, router.MediaRoutes(router.MediaOptions{
		Photo: a.handlePhoto,
		Video: a.handleVideo,
	})...)

	return coretelegram.RunOptions{
		Config:      &a.cfg.Core,
		Registry:    reg,
		Middlewares: coretelegram.DefaultMiddlewares(&a.cfg.Core, nil),
		Routes:      routes,
		OnStart: func(ctx context.Context, rt coretelegram.Runtime) error {
			a.gateway.setBot(rt.Bot)
			return nil
		},
	}, nil
}

// InProgress reports whether the chat has an active questionnaire; it makes
// the app satisfy the text router's conversation interface.
func (a *App) InProgress(chatID int64) bool {
	return a.manager.InProgress(chatID)
}

// ManagerHandler feeds plain text into the questionnaire.
func (a *App) ManagerHandler(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.manager.HandleText(ctx, c.Chat().ID, c.Text())
	if err != nil && !expectedFlowErr(err) {
		return err
	}
	return a.reply(c, reply)
}

func (a *App) handleStart(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	reply, err := a.manager.Begin(ctx, c.Chat().ID)
	if err != nil && !errors.Is(err, intake.ErrCapacity) {
		return err
	}
	return a.reply(c, reply)
}

func (a *App) handleCancel(c tele.Context) error {
	ctx := tghelpers.BuildContext(c)
	return a.reply(c, a.manager.Cancel(ctx, c.Chat().ID))
}

func (a *App) handleStats(c tele.Context) error {
	text := fmt.Sprintf("📊 *Статистика:*\n• Активных сессий: %d", a.manager.ActiveSessions())
	return tghelpers.SendMD(c, text)
}

func (a *App) handlePhoto(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Photo == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	chatID := c.Chat().ID

	// downloading only matters when the photo step is pending
	step, ok := a.manager.CurrentStep(chatID)
	if !ok {
		return a.reply(c, intake.TextNoSession)
	}
	if step != intake.StepPhoto {
		return nil
	}

	rc, err := a.download(&msg.Photo.File)
	if err != nil {
		logger.Error(ctx, "tg", "file.download.fail",
			slog.Int64("chat_id", chatID),
			slog.String("media", "photo"),
			slog.String("err", err.Error()),
		)
		return a.reply(c, intake.TextPhotoFailed)
	}
	defer rc.Close()

	reply, err := a.manager.HandlePhoto(ctx, chatID, rc)
	if err != nil && !expectedFlowErr(err) {
		if rerr := a.reply(c, reply); rerr != nil {
			return rerr
		}
		return err
	}
	return a.reply(c, reply)
}

func (a *App) handleVideo(c tele.Context) error {
	msg := c.Message()
	if msg == nil || msg.Video == nil {
		return nil
	}
	ctx := tghelpers.BuildContext(c)
	chatID := c.Chat().ID

	step, ok := a.manager.CurrentStep(chatID)
	if !ok {
		return a.reply(c, intake.TextNoSession)
	}
	if step != intake.StepVideo {
		return nil
	}
	// duration is known before downloading; skip the transfer for videos
	// the questionnaire will reject anyway
	if msg.Video.Duration > a.cfg.Intake.MaxVideoSeconds {
		return a.reply(c, intake.TextVideoTooLong)
	}

	rc, err := a.download(&msg.Video.File)
	if err != nil {
		logger.Error(ctx, "tg", "file.download.fail",
			slog.Int64("chat_id", chatID),
			slog.String("media", "video"),
			slog.String("err", err.Error()),
		)
		return a.reply(c, intake.TextVideoFailed)
	}
	defer rc.Close()

	reply, err := a.manager.HandleVideo(ctx, chatID, rc, msg.Video.Duration)
	if err != nil && !expectedFlowErr(err) {
		if rerr := a.reply(c, reply); rerr != nil {
			return rerr
		}
		return err
	}
	return a.reply(c, reply)
}

func (a *App) reply(c tele.Context, text string) error {
	if text == "" {
		return nil
	}
	return tghelpers.SendMD(c, text)
}

func (a *App) download(f *tele.File) (io.ReadCloser, error) {
	b, err := a.gateway.current()
	if err != nil {
		return nil, err
	}
	return b.File(f)
}

// expectedFlowErr filters the questionnaire's ordinary outcomes from real
// failures; the former already produced a user-facing reply.
func expectedFlowErr(err error) bool {
	var verr *intake.ValidationError
	return errors.Is(err, intake.ErrNoSession) ||
		errors.Is(err, intake.ErrCapacity) ||
		errors.As(err, &verr)
}
