package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"storefront/account"
	"storefront/cart"
	"storefront/catalog"
	"storefront/config"
	"storefront/database"
	"storefront/events"
	"storefront/loader"
	"storefront/logging"
	"storefront/purchase"
	"storefront/render"
	"storefront/session"

	"github.com/go-rod/rod/lib/launcher"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

//go:embed static
var embedded embed.FS

func main() {
	cfg, cfgErr := config.LoadConfig()

	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		log = zap.Must(zap.NewDevelopment())
		log.Warn("falling back to default log level", zap.Error(err))
	}
	defer log.Sync()

	if cfgErr != nil {
		log.Warn("failed to load config file, using defaults", zap.Error(cfgErr))
	}

	log.Info("connecting to database", zap.String("driver", cfg.DatabaseDriver))
	db, err := database.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("database open failed", zap.Error(err))
	}
	defer db.Close()

	if err := loader.InitDatabase(db, cfg.SeedPath, cfg.CatalogEncoding, log); err != nil {
		log.Fatal("database initialization failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cat, err := catalog.Load(ctx, db, log)
	if err != nil {
		log.Fatal("catalog load failed", zap.Error(err))
	}
	users, err := account.Load(db, log, 0)
	if err != nil {
		log.Fatal("user load failed", zap.Error(err))
	}

	var publisher events.Publisher = events.Nop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafkaPublisher(cfg.KafkaBrokers)
		log.Info("publishing purchase events", zap.Strings("brokers", cfg.KafkaBrokers))
	}
	defer publisher.Close()

	secret := cfg.SessionSecret
	if secret == "" {
		secret = uuid.NewString()
		log.Warn("no session secret configured, sessions end with this process")
	}

	app := &App{
		DB:        db,
		Catalog:   cat,
		Users:     users,
		Carts:     cart.NewRegistry(),
		Workflow:  purchase.NewWorkflow(cat, users, publisher, log),
		Issuer:    session.NewIssuer(secret, time.Duration(cfg.SessionTTLHours)*time.Hour),
		Formatter: render.NewFormatter(cfg.Locale, cfg.CurrencySymbol),
		Log:       log,
	}

	staticFS, err := fs.Sub(embedded, "static")
	if err != nil {
		log.Fatal("static files missing", zap.Error(err))
	}

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           NewHandler(app, staticFS),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting server", zap.String("url", localURL(cfg.ListenAddr)))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	if cfg.OpenBrowser {
		openBrowser(localURL(cfg.ListenAddr), log)
	}

	if err := g.Wait(); err != nil {
		log.Error("server stopped", zap.Error(err))
	}
}

// localURL turns a listen address such as ":8080" into a browsable URL.
func localURL(addr string) string {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return "http://" + addr
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "localhost"
	}
	return "http://" + net.JoinHostPort(host, port)
}

func openBrowser(url string, log *zap.Logger) {
	if _, has := launcher.LookPath(); !has {
		log.Warn("no browser found, open the storefront manually", zap.String("url", url))
		return
	}
	launcher.Open(url)
}
