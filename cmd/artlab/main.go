package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dovuchcha/artlab-client/internal/client/artlab"
	"github.com/dovuchcha/artlab-client/internal/config"
	logctx "github.com/dovuchcha/artlab-client/internal/pkg/log"
	"github.com/dovuchcha/artlab-client/internal/service/comments"
	"github.com/dovuchcha/artlab-client/internal/service/gallery"
	"github.com/dovuchcha/artlab-client/internal/session"
	"github.com/dovuchcha/artlab-client/internal/session/store"
)

// Константы окружения.
const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

const usage = `usage: artlab [--config path] <command>

commands:
  login                              sign in via the accounts page
  logout                             drop the current session
  whoami                             show the current identity
  art [query]                        list art pieces (optionally filtered)
  show <art_id>                      art piece details with its comment thread
  artists                            list artists
  comment <art_id> <text>            post a top-level comment
  reply <art_id> <parent_id> <text>  reply to a comment
  contribute-artist [flags]          contribute a new artist record
  contribute-art [flags]             contribute a new art piece
`

// app — собранные зависимости команд.
type app struct {
	cfg      *config.Config
	log      *slog.Logger
	session  *session.Manager
	comments *comments.Service
	gallery  *gallery.Service
}

func main() {
	var configPath string
	flag.StringVar(&configPath, "config", "", "path to config file (overrides CONFIG_PATH env)")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg := config.MustLoad(configPath)

	log := setupLogger(cfg.Env)
	slog.SetDefault(log)
	log.Debug("starting artlab client", "env", cfg.Env)

	rootCtx, rootCancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer rootCancel()

	ctx := logctx.Into(rootCtx, log)

	credsPath, err := cfg.Store.Path()
	if err != nil {
		log.Error("credentials_path_failed", slog.String("err", err.Error()))
		os.Exit(1)
	}

	credStore := store.New(credsPath)

	// Клиент берёт access-токен у менеджера сессии на каждый запрос;
	// менеджер, в свою очередь, обменивает токены через клиент.
	var mgr *session.Manager
	api := artlab.New(*cfg, func() string {
		if mgr == nil {
			return ""
		}
		return mgr.AccessToken()
	})
	mgr = session.New(credStore, api, cfg.Auth)
	defer mgr.Close()

	// Потребители не читают сессию до завершения Initialize.
	mgr.Initialize(ctx, "")

	a := &app{
		cfg:      cfg,
		log:      log,
		session:  mgr,
		comments: comments.New(api, mgr, cfg.Auth),
		gallery:  gallery.New(api, mgr),
	}

	if err := a.run(ctx, flag.Args()); err != nil {
		if ctx.Err() == nil {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		os.Exit(1)
	}
}

func (a *app) run(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]

	switch cmd {
	case "login":
		return a.runLogin(ctx)
	case "logout":
		a.session.Logout(ctx)
		fmt.Println("Signed out.")
		return nil
	case "whoami":
		return a.runWhoami()
	case "art":
		return a.runArt(ctx, rest)
	case "show":
		return a.runShow(ctx, rest)
	case "artists":
		return a.runArtists(ctx)
	case "comment":
		return a.runComment(ctx, rest)
	case "reply":
		return a.runReply(ctx, rest)
	case "contribute-artist":
		return a.runContributeArtist(ctx, rest)
	case "contribute-art":
		return a.runContributeArt(ctx, rest)
	default:
		flag.Usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	}

	return log
}
