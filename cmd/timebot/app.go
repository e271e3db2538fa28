package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/gotd/td/telegram"
	"github.com/gotd/td/tg"
	"github.com/urfave/cli/v2"
	"github.com/urfave/cli/v2/altsrc"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/xerrors"

	"github.com/tdakkota/timeprobe/bot"
	"github.com/tdakkota/timeprobe/client"
	"github.com/tdakkota/timeprobe/model"
	"github.com/tdakkota/timeprobe/probe"
	"github.com/tdakkota/timeprobe/timemodel"
)

type App struct {
	logger *zap.Logger
	out    io.Writer
	bot    *bot.Bot
}

func NewApp() *App {
	logger, _ := zap.NewDevelopment(zap.IncreaseLevel(zapcore.DebugLevel))
	return &App{
		logger: logger,
		out:    os.Stdout,
	}
}

// loadModel creates remote model if model.endpoint is set and time model
// otherwise.
func (app *App) loadModel(c *cli.Context) (model.Model, error) {
	if c.IsSet("model.endpoint") {
		return model.NewHTTPModel(
			c.String("model.id"),
			model.WithEndpoint(c.String("model.endpoint")),
			model.WithClient(&http.Client{Timeout: c.Duration("model.timeout")}),
		), nil
	}

	loc := time.Local
	if c.IsSet("location") {
		l, err := time.LoadLocation(c.String("location"))
		if err != nil {
			return nil, xerrors.Errorf("failed to load location: %w", err)
		}
		loc = l
	}

	return timemodel.New(
		timemodel.WithDefaultLocation(loc),
		timemodel.WithLogger(app.logger.Named("timemodel")),
	), nil
}

// openProbe starts embedded probe and opens session to it.
// Returned close function must be called to release both.
func (app *App) openProbe(c *cli.Context) (*client.Client, func(), error) {
	m, err := app.loadModel(c)
	if err != nil {
		return nil, nil, err
	}

	probe.Default = probe.New(
		probe.WithLogger(app.logger.Named("probe")),
		probe.WithMaxLength(c.Int("max_length")),
	)
	if err := probe.Start(m); err != nil {
		return nil, nil, xerrors.Errorf("failed to start probe: %w", err)
	}

	session := client.New(probe.Default, client.WithLogger(app.logger.Named("client")))
	closeAll := func() {
		if err := session.Close(); err != nil {
			app.logger.Warn("Failed to close session", zap.Error(err))
		}
		if err := probe.Stop(); err != nil {
			app.logger.Warn("Failed to stop probe", zap.Error(err))
		}
	}

	if err := session.Open(c.Context, m.ID()); err != nil {
		closeAll()
		return nil, nil, xerrors.Errorf("failed to open session: %w", err)
	}

	return session, closeAll, nil
}

func (app *App) createTelegram(c *cli.Context, dispatcher tg.UpdateDispatcher) (*telegram.Client, error) {
	logger := app.logger

	sessionDir := ""
	if c.IsSet("tg.session_dir") {
		sessionDir = c.String("tg.session_dir")
	} else {
		home, err := os.UserHomeDir()
		if err != nil {
			sessionDir = "./.td"
		} else {
			sessionDir = filepath.Join(home, ".td")
		}
	}
	if err := os.MkdirAll(sessionDir, 0700); err != nil {
		return nil, xerrors.Errorf("failed to create session dir: %w", err)
	}

	tgClient := telegram.NewClient(c.Int("tg.app_id"), c.String("tg.app_hash"), telegram.Options{
		Logger: logger,
		SessionStorage: &telegram.FileSessionStorage{
			Path: filepath.Join(sessionDir, "session.json"),
		},
		UpdateHandler: dispatcher.Handle,
	})

	err := tgClient.Connect(c.Context)
	if err != nil {
		return nil, xerrors.Errorf("failed to connect: %w", err)
	}
	fail := func(err error) (*telegram.Client, error) {
		if cerr := tgClient.Close(); cerr != nil {
			logger.Warn("Failed to close client", zap.Error(cerr))
		}
		return nil, err
	}

	auth, err := tgClient.AuthStatus(c.Context)
	if err != nil {
		return fail(xerrors.Errorf("failed to get auth status: %w", err))
	}

	logger.With(zap.Bool("authorized", auth.Authorized)).Info("Auth status")
	if !auth.Authorized {
		if err := tgClient.AuthBot(c.Context, c.String("tg.bot_token")); err != nil {
			return fail(xerrors.Errorf("failed to perform bot login: %w", err))
		}
		logger.Info("Bot login ok")
	}

	u, err := tgClient.Self(c.Context)
	if err != nil {
		return fail(xerrors.Errorf("failed to ping: %w", err))
	}

	logger.With(zap.String("user", u.Username), zap.Bool("is_bot", u.Bot)).
		Info("Logged in")

	return tgClient, nil
}

func (app *App) run(c *cli.Context) error {
	session, closeProbe, err := app.openProbe(c)
	if err != nil {
		return err
	}
	defer closeProbe()

	dispatcher := tg.NewUpdateDispatcher()
	tgClient, err := app.createTelegram(c, dispatcher)
	if err != nil {
		return err
	}

	app.bot = bot.NewBot(
		session,
		tg.NewClient(tgClient),
		app.logger.Named("bot"),
	)
	dispatcher.OnBotInlineQuery(app.bot.Handler())

	// Reading updates until SIGTERM.
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	<-sig
	app.logger.Info("Shutting down")
	if err := tgClient.Close(); err != nil {
		return err
	}
	app.logger.Info("Graceful shutdown completed")
	return nil
}

func (app *App) ask(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")

	session, closeProbe, err := app.openProbe(c)
	if err != nil {
		return err
	}
	defer closeProbe()

	r, err := session.Ask(c.Context, text)
	if err != nil {
		return err
	}
	if r.IsFailed() {
		return xerrors.Errorf("query failed: %s", r.Failure())
	}

	_, err = fmt.Fprintln(c.App.Writer, r.Body())
	return err
}

func (app *App) getEnvNames(names ...string) []string {
	return names
}

func (app *App) probeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "config.file",
			Value:   "timebot.yml",
			Usage:   "path to config file",
			EnvVars: app.getEnvNames("CONFIG_FILE", "CONFIG"),
		},
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "location",
			Usage:   "IANA time zone used when query names no city",
			Aliases: []string{"tz"},
			EnvVars: app.getEnvNames("LOCATION"),
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "model.endpoint",
			Usage:   "URL of remote model, time model is used if empty",
			EnvVars: app.getEnvNames("MODEL_ENDPOINT"),
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:    "model.id",
			Value:   "remote.ex",
			Usage:   "ID of remote model",
			EnvVars: app.getEnvNames("MODEL_ID"),
		}),
		altsrc.NewDurationFlag(&cli.DurationFlag{
			Name:    "model.timeout",
			Value:   10 * time.Second,
			Usage:   "remote model request timeout",
			EnvVars: app.getEnvNames("MODEL_TIMEOUT"),
		}),
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:    "max_length",
			Value:   probe.DefaultMaxLength,
			Usage:   "maximum query length in runes",
			EnvVars: app.getEnvNames("MAX_LENGTH"),
		}),
	}
}

func (app *App) flags() []cli.Flag {
	flags := []cli.Flag{
		// tg
		altsrc.NewIntFlag(&cli.IntFlag{
			Name:     "tg.app_id",
			Required: true,
			Usage:    "Telegram app ID",
			Aliases:  []string{"app_id"},
			EnvVars:  app.getEnvNames("APP_ID"),
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:     "tg.app_hash",
			Required: true,
			Usage:    "Telegram app hash",
			Aliases:  []string{"app_hash"},
			EnvVars:  app.getEnvNames("APP_HASH"),
		}),
		altsrc.NewStringFlag(&cli.StringFlag{
			Name:     "tg.bot_token",
			Required: true,
			Usage:    "Telegram bot token",
			Aliases:  []string{"token"},
			EnvVars:  app.getEnvNames("BOT_TOKEN"),
		}),
		altsrc.NewPathFlag(&cli.PathFlag{
			Name:    "tg.session_dir",
			Usage:   "Telegram session dir",
			Aliases: []string{"session_dir"},
			EnvVars: app.getEnvNames("SESSION_DIR"),
		}),
	}

	return append(app.probeFlags(), flags...)
}

func (app *App) commands() []*cli.Command {
	commands := []*cli.Command{
		{
			Name:        "run",
			Description: "runs bot",
			Flags:       app.flags(),
			Action:      app.run,
		},
		{
			Name:        "ask",
			Description: "asks time model once and prints answer",
			ArgsUsage:   "TEXT...",
			Flags:       app.probeFlags(),
			Action:      app.ask,
		},
	}

	for _, command := range commands {
		app.addFileConfig("config.file", command)
	}
	return commands
}

func (app *App) addFileConfig(flagName string, command *cli.Command) {
	prev := command.Before

	command.Before = func(context *cli.Context) error {
		if prev != nil {
			err := prev(context)
			if err != nil {
				return err
			}
		}

		path := context.String(flagName)
		fileContext, err := altsrc.NewYamlSourceFromFile(path)
		if err != nil {
			app.logger.Info("failed to load config from", zap.String("path", path))
			return nil
		}

		return altsrc.ApplyInputSourceValues(context, fileContext, command.Flags)
	}
}

func (app *App) cli() *cli.App {
	cliApp := &cli.App{
		Name:     "timebot",
		Usage:    "Telegram bot answering questions with embedded model",
		Commands: app.commands(),
		Writer:   app.out,
	}

	return cliApp
}

func (app *App) Run(args []string) error {
	return app.cli().Run(args)
}

func main() {
	if err := NewApp().Run(os.Args); err != nil {
		_, _ = os.Stdout.WriteString(err.Error() + "\n")
		os.Exit(1)
	}
}
