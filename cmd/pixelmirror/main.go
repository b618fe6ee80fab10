package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/afero"
	flag "github.com/spf13/pflag"
	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"
	"go.uber.org/zap"

	"pixelmirror/pkg/bot"
	"pixelmirror/pkg/config"
	"pixelmirror/pkg/discord"
	"pixelmirror/pkg/ingest"
	"pixelmirror/pkg/mirror"
	"pixelmirror/pkg/mirror/virtual"
	"pixelmirror/pkg/state"
)

const version = "2.2.0"

var showVersion = flag.Bool("version", false, "print version")

func main() {
	config.RegisterFlags(flag.CommandLine)
	flag.Parse()

	if *showVersion {
		fmt.Println(version)
		return
	}

	afs := afero.NewOsFs()

	cfg, err := config.Load(afs, flag.CommandLine)
	if err != nil {
		log.Fatal(err)
	}

	logger, err := newLogger(cfg.Debug)
	if err != nil {
		log.Fatal(err)
	}
	defer func() { _ = logger.Sync() }()

	fx.New(
		fx.Supply(cfg),
		fx.WithLogger(func() fxevent.Logger {
			return &fxevent.ZapLogger{Logger: logger}
		}),
		fx.Provide(
			func() (*zap.Logger, afero.Fs, *http.Server) {
				return logger, afs, &http.Server{Addr: cfg.Listen}
			},
			newClient,
			newTransport,
			newPublisher,
			newStore,
			newKeeper,
			newHandler,
			newGateway,
			bot.NewDiscordSender,
			bot.New,
		),
		fx.Invoke(
			ingest.Serve,
			startBot,
		),
	).Run()
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func newClient(cfg *config.Config, logger *zap.Logger) *discord.Client {
	return discord.New(cfg.Token, logger,
		discord.WithBaseURL(cfg.APIBase),
		discord.WithTimeout(cfg.Timeout),
	)
}

func newTransport(cfg *config.Config, c *discord.Client, logger *zap.Logger) mirror.Transport {
	if cfg.DryRun {
		return virtual.Mock(logger)
	}
	return mirror.NewDiscordTransport(c)
}

func newPublisher(cfg *config.Config, t mirror.Transport, logger *zap.Logger) *mirror.Publisher {
	return mirror.NewPublisher(t, cfg.Canvas, logger, mirror.WithScale(cfg.Scale))
}

func newStore(cfg *config.Config, afs afero.Fs) mirror.IdentityStore {
	return state.NewStore(afs, cfg.StateFile)
}

func newKeeper(cfg *config.Config, pub *mirror.Publisher, store mirror.IdentityStore, logger *zap.Logger) (*mirror.Keeper, error) {
	return mirror.NewKeeper(pub, store, cfg.Mirror, logger)
}

func newHandler(cfg *config.Config, k *mirror.Keeper, logger *zap.Logger) http.Handler {
	return ingest.NewHandler(k, cfg.Canvas, logger)
}

func newGateway(cfg *config.Config, c *discord.Client, logger *zap.Logger) *discord.Gateway {
	return discord.NewGateway(cfg.Token, c, logger)
}

// startBot resolves the owners and keeps the gateway session running while
// the application is up. Dry runs only serve the ingest API.
func startBot(lc fx.Lifecycle, cfg *config.Config, b *bot.Bot, c *discord.Client, gw *discord.Gateway, logger *zap.Logger) {
	if cfg.DryRun {
		logger.Info("dry run, gateway disabled")
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	exited := make(chan struct{})

	lc.Append(fx.Hook{
		OnStart: func(startCtx context.Context) error {
			authorize, owners, err := bot.ResolveOwners(startCtx, c, cfg.OwnerID)
			if err != nil {
				return fmt.Errorf("resolve owners failed: %w", err)
			}
			logger.With(zap.Uint64s("owners", owners)).Info("owners resolved")

			if err := b.Attach(gw, cfg.Prefix, authorize); err != nil {
				return err
			}

			go func() {
				defer close(exited)
				if err := gw.Run(ctx); err != nil && err != context.Canceled {
					logger.With(zap.Error(err)).Error("gateway stopped")
				}
			}()
			return nil
		},
		OnStop: func(stopCtx context.Context) error {
			cancel()
			select {
			case <-exited:
			case <-stopCtx.Done():
				return stopCtx.Err()
			}
			logger.Info("gateway closed")
			return nil
		},
	})
}
