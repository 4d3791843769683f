package main

//	@title						Startpage API
//	@version					0.1.0
//	@description				Theme, workspace and background API for the browser start page.
//	@BasePath					/api/v1
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
//	@description				Device token. Format: "Bearer {token}"

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	_ "github.com/HerbHall/startpage/api/swagger"
	"github.com/HerbHall/startpage/internal/auth"
	"github.com/HerbHall/startpage/internal/background"
	"github.com/HerbHall/startpage/internal/config"
	"github.com/HerbHall/startpage/internal/event"
	"github.com/HerbHall/startpage/internal/page"
	"github.com/HerbHall/startpage/internal/registry"
	"github.com/HerbHall/startpage/internal/server"
	"github.com/HerbHall/startpage/internal/settings"
	"github.com/HerbHall/startpage/internal/store"
	"github.com/HerbHall/startpage/internal/theme"
	"github.com/HerbHall/startpage/internal/version"
	"github.com/HerbHall/startpage/internal/webhook"
	"github.com/HerbHall/startpage/internal/workspace"
	"github.com/HerbHall/startpage/internal/ws"
	"github.com/HerbHall/startpage/pkg/plugin"
)

const defaultShutdown = 10 * time.Second

func main() {
	// Subcommand dispatch (before flag.Parse).
	if len(os.Args) > 1 {
		switch os.Args[1] {
		case "backup":
			os.Exit(runBackup(os.Args[2:]))
		case "restore":
			os.Exit(runRestore(os.Args[2:]))
		case "version":
			fmt.Println(version.Info())
			return
		case "token":
			os.Exit(runToken(os.Args[2:]))
		case "preview":
			os.Exit(runPreview(os.Args[2:]))
		case "seed":
			os.Exit(runSeed(os.Args[2:]))
		}
	}

	configPath := flag.String("config", "", "path to configuration file")
	showVersion := flag.Bool("version", false, "print version information and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	if err := serve(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "startpage: %v\n", err)
		os.Exit(1)
	}
}

// app is the composed plugin graph shared by serve and preview.
type app struct {
	viper  *viper.Viper
	logger *zap.Logger
	db     *store.SQLiteStore
	bus    *event.Bus
	reg    *registry.Registry
	theme  *theme.Module
}

func (a *app) Close() {
	_ = a.db.Close()
	_ = a.logger.Sync()
}

type setupOptions struct {
	// full registers the backgrounds and webhook plugins too.
	full bool
	// quiet raises the log level to warn for interactive commands.
	quiet bool
}

// setup loads configuration, opens the database and initializes every
// plugin the command needs.
func setup(ctx context.Context, configPath string, opts setupOptions) (*app, zap.AtomicLevel, error) {
	// Load configuration (before logger, so log level/format can be configured).
	v, err := server.LoadConfig(configPath)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("load configuration: %w", err)
	}
	if opts.quiet {
		v.Set("logging.level", "warn")
		v.Set("logging.format", "console")
	}
	cfg := config.New(v)

	logger, level, err := config.NewLogger(v)
	if err != nil {
		return nil, zap.AtomicLevel{}, fmt.Errorf("initialize logger: %w", err)
	}

	if f := v.ConfigFileUsed(); f != "" {
		logger.Info("configuration loaded",
			zap.String("component", "config"),
			zap.String("source", f),
		)
	} else {
		logger.Warn("no configuration file found, using defaults",
			zap.String("component", "config"),
		)
	}

	dbPath := v.GetString("database.path")
	if dbPath == "" {
		dbPath = "startpage.db"
	}
	db, err := store.New(ctx, dbPath)
	if err != nil {
		return nil, level, fmt.Errorf("open database: %w", err)
	}
	if err := db.CheckVersion(ctx, version.Short()); err != nil {
		_ = db.Close()
		return nil, level, err
	}
	logger.Info("database initialized",
		zap.String("component", "database"),
		zap.String("path", dbPath),
	)

	bus := event.NewBus(logger.Named("event"))
	reg := registry.New(logger.Named("registry"))

	themeMod := theme.New()
	// Register all plugins (compile-time composition)
	modules := []plugin.Plugin{settings.New(), workspace.New(), themeMod}
	if opts.full {
		modules = append(modules, background.New(), webhook.New())
	}
	for _, m := range modules {
		if err := reg.Register(m); err != nil {
			_ = db.Close()
			return nil, level, fmt.Errorf("register plugin: %w", err)
		}
	}

	// Validate dependency graph and API versions
	if err := reg.Validate(); err != nil {
		_ = db.Close()
		return nil, level, fmt.Errorf("plugin validation: %w", err)
	}

	if err := reg.InitAll(ctx, func(name string) plugin.Dependencies {
		return plugin.Dependencies{
			Config:  cfg.Sub(name),
			Logger:  logger.Named(name),
			Store:   db,
			Bus:     bus,
			Plugins: reg,
		}
	}); err != nil {
		_ = db.Close()
		return nil, level, fmt.Errorf("initialize plugins: %w", err)
	}

	return &app{
		viper:  v,
		logger: logger,
		db:     db,
		bus:    bus,
		reg:    reg,
		theme:  themeMod,
	}, level, nil
}

func serve(configPath string) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, level, err := setup(ctx, configPath, setupOptions{full: true})
	if err != nil {
		return err
	}
	defer a.Close()
	logger := a.logger

	config.WatchLogLevel(a.viper, level, logger)
	logger.Info("startpage server starting", zap.String("version", version.Short()))

	srvCfg, err := server.ServerConfig(a.viper)
	if err != nil {
		return err
	}

	if err := a.reg.StartAll(ctx); err != nil {
		return fmt.Errorf("start plugins: %w", err)
	}

	// Device tokens are optional. Without a secret the API is open, which
	// suits the default loopback listener.
	var tokens *auth.TokenService
	var authMW server.Middleware
	if secret := a.viper.GetString("auth.secret"); secret != "" {
		tokens, err = auth.NewTokenService([]byte(secret), a.viper.GetDuration("auth.token_ttl"))
		if err != nil {
			return err
		}
		authMW = auth.AuthMiddleware(tokens)
		logger.Info("device token auth enabled",
			zap.String("component", "auth"),
			zap.Duration("token_ttl", tokens.TTL()),
		)
	} else {
		logger.Warn("auth.secret not set, API is unauthenticated",
			zap.String("component", "auth"),
		)
	}

	wsHandler := ws.NewHandler(tokens, a.bus, logger.Named("ws"))
	defer wsHandler.Close()

	static, err := page.Handler(srvCfg.StaticDir)
	if err != nil {
		return fmt.Errorf("start page: %w", err)
	}
	if srvCfg.StaticDir != "" {
		logger.Info("serving start page from directory", zap.String("dir", srvCfg.StaticDir))
	}

	srv := server.New(a.reg, logger, server.Options{
		Config: srvCfg,
		Ready: func(ctx context.Context) error {
			return a.db.Ping(ctx)
		},
		Auth:        authMW,
		Static:      static,
		ExtraRoutes: []server.SimpleRouteRegistrar{wsHandler},
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	logger.Info("startpage server ready", zap.String("addr", srvCfg.Addr()))
	fmt.Fprintf(os.Stderr, "\n  Startpage %s is ready!\n  Open http://%s in your browser.\n\n", version.Short(), srvCfg.Addr())

	// Wait for shutdown signal
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigCh:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	timeout := srvCfg.Shutdown
	if timeout <= 0 {
		timeout = defaultShutdown
	}
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
	defer shutdownCancel()

	var shutdownErr error
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
		shutdownErr = err
	}
	a.reg.StopAll(shutdownCtx)

	logger.Info("startpage server stopped")
	return shutdownErr
}
