// mpbot — webhook bot engine for WeChat official accounts.
//
// Usage:
//
//	mpbot -config mpbot.yaml            # serve the webhook
//	mpbot -config mpbot.yaml -console   # local console instead of HTTP
//	mpbot -demo                         # register the built-in demo handlers
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sipeed/mpbot/pkg/api"
	"github.com/sipeed/mpbot/pkg/bus"
	"github.com/sipeed/mpbot/pkg/config"
	"github.com/sipeed/mpbot/pkg/console"
	"github.com/sipeed/mpbot/pkg/cron"
	"github.com/sipeed/mpbot/pkg/logger"
	"github.com/sipeed/mpbot/pkg/message"
	"github.com/sipeed/mpbot/pkg/robot"
	"github.com/sipeed/mpbot/pkg/session"
)

func main() {
	configPath := flag.String("config", "mpbot.yaml", "path to config file")
	consoleMode := flag.Bool("console", false, "run the local console instead of the HTTP server")
	demo := flag.Bool("demo", false, "register built-in demo handlers")
	flag.Parse()

	if err := run(*configPath, *consoleMode, *demo); err != nil {
		fmt.Fprintln(os.Stderr, "mpbot:", err)
		os.Exit(1)
	}
}

func run(configPath string, consoleMode, demo bool) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	log := logger.Default()
	log.SetLevel(logger.ParseLevel(cfg.LogLevel))

	store, err := buildStore(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	b := bus.New()
	defer b.Close()

	rb := robot.New(
		robot.WithToken(cfg.Token),
		robot.WithSessionStore(store),
		robot.WithLogger(log),
		robot.WithBus(b),
	)

	if demo {
		if err := registerDemoHandlers(rb); err != nil {
			return err
		}
		log.InfoC("main", "Demo handlers registered")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Session.TTL > 0 {
		sweeper, err := cron.NewSweeper(store, cfg.Session.SweepSchedule, cfg.Session.TTL.Std(), log)
		if err != nil {
			return err
		}
		go sweeper.Run(ctx)
	}

	if consoleMode {
		return console.New(rb, "console").Run(ctx)
	}

	return api.NewServer(cfg, rb, b, log).Start(ctx)
}

func buildStore(cfg *config.Config) (session.Store, error) {
	switch cfg.Session.Backend {
	case "memory":
		return session.NewMemoryStore(), nil
	case "file":
		return session.NewFileStore(cfg.Session.Dir)
	case "sqlite":
		return session.NewSQLiteStore(cfg.Session.DBPath)
	default:
		return nil, fmt.Errorf("unknown session backend %q", cfg.Session.Backend)
	}
}

// registerDemoHandlers wires a tiny handler set that shows each
// registration surface: a content filter, a keyed click, an event handler
// and a session-backed counter.
func registerDemoHandlers(rb *robot.Robot) error {
	if err := rb.Filter(robot.ReplyFunc(func() string {
		return "pong"
	}), "ping"); err != nil {
		return err
	}

	if err := rb.Subscribe(robot.ReplyFunc(func() string {
		return "Welcome!"
	})); err != nil {
		return err
	}

	if err := rb.KeyClick("MENU_HELP", robot.ReplyFunc(func() string {
		return "Send \"ping\" or \"count\"."
	})); err != nil {
		return err
	}

	return rb.Filter(robot.SessionFunc(func(msg *message.Message, sess session.Session) string {
		n, _ := sess["count"].(float64)
		n++
		sess["count"] = n
		return fmt.Sprintf("count: %.0f", n)
	}), "count")
}
