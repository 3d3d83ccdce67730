package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/leadrail/leadrail/internal/config"
	"github.com/leadrail/leadrail/internal/mail"
	"github.com/leadrail/leadrail/internal/server"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

const banner = `
 _    ___   _   ___  ___   _   ___ _
| |  | __| /_\ |   \| _ \ /_\ |_ _| |
| |__| _| / _ \| |) |   // _ \ | || |__
|____|___/_/ \_\___/|_|_\_/ \_\___|____|
`

func newServeCmd() *cobra.Command {
	var (
		port    int
		host    string
		dataDir string
		dev     bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the leadrail API server",
		Long:  "Start the HTTP server that exposes the lead intake and admin APIs.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(dataDir, dev)
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 8080, "HTTP listen port")
	cmd.Flags().StringVar(&host, "host", "0.0.0.0", "HTTP listen host")
	cmd.Flags().StringVar(&dataDir, "data-dir", "", "SQLite data directory (overrides config)")
	cmd.Flags().BoolVar(&dev, "dev", false, "Enable development mode (verbose logging, CORS *)")

	viper.BindPFlag("server.port", cmd.Flags().Lookup("port"))
	viper.BindPFlag("server.host", cmd.Flags().Lookup("host"))

	return cmd
}

func runServe(dataDir string, dev bool) error {
	fmt.Print(banner)
	fmt.Println()

	cfg := loadConfig()
	if dataDir != "" {
		cfg.Store.Driver = store.DriverSQLite
		cfg.Store.DSN = dataDir
	}

	// Flag > env > config file for the listen address.
	host := viper.GetString("server.host")
	port := viper.GetInt("server.port")

	logger := newLogger(cfg.Logging, dev)

	// 1. Open the store and run migrations. No store, no server.
	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	logger.Info("store opened", "driver", cfg.Store.Driver)

	// 2. Seed the default permission grids before any request can hit a
	// policy check.
	if err := st.SeedDefaultGrants(context.Background()); err != nil {
		st.Close()
		return fmt.Errorf("seed permission grants: %w", err)
	}

	// 3. Wire services.
	jwtSecret := viper.GetString("auth.jwt_secret")
	if jwtSecret == "" {
		jwtSecret = cfg.Auth.JWTSecret
	}
	if jwtSecret == "" {
		if !dev {
			st.Close()
			return fmt.Errorf("auth.jwt_secret is required (set LEADRAIL_AUTH_JWT_SECRET or the config file)")
		}
		jwtSecret = "leadrail-dev-secret-change-me"
		logger.Warn("using development JWT secret")
	}

	recorder := service.NewRecorder(st, logger)
	authSvc := service.NewAuthService(st, recorder, jwtSecret)
	policy := service.NewPolicy(st)
	mailer := mail.New(mail.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)

	// 4. First-run hint.
	hasAdmin, err := st.HasAnyAdmin(context.Background())
	if err != nil {
		logger.Warn("failed to check for admin", "error", err)
	}
	if !hasAdmin {
		logger.Warn("no admin account found - run: leadrail admin create")
	}

	// 5. Build and start the HTTP server.
	shutdownTimeout, err := time.ParseDuration(cfg.Server.ShutdownTimeout)
	if err != nil || shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	origins := cfg.Server.CORS.Origins
	if dev {
		origins = []string{"*"}
	}

	srvCfg := server.Config{
		Host:            host,
		Port:            port,
		ShutdownTimeout: shutdownTimeout,
		CORSOrigins:     origins,
		SubmitRateLimit: cfg.Server.SubmitRateLimit,
		LoginRateLimit:  cfg.Server.LoginRateLimit,
		NotifyAddr:      cfg.Mail.NotifyAddr,
	}

	srv := server.New(srvCfg, st, authSvc, policy, recorder, mailer, logger)

	fmt.Printf("→ Listening on http://%s:%d\n", host, port)
	fmt.Printf("→ Health:  http://%s:%d/healthz\n", host, port)
	fmt.Printf("→ Metrics: http://%s:%d/metrics\n", host, port)
	fmt.Println()

	return srv.ListenAndServe()
}

// loadConfig reads the YAML config file viper located, falling back to
// defaults when there is none.
func loadConfig() *config.Config {
	path := viper.ConfigFileUsed()
	if path == "" {
		return config.Default()
	}
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: %v, using defaults\n", err)
		return config.Default()
	}
	return cfg
}

func newLogger(cfg config.LoggingConfig, dev bool) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if dev {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{Level: level}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
