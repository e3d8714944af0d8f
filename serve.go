package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"
	_ "time/tzdata"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/go-monolith/mono"
	fsjetstream "github.com/go-monolith/mono/plugin/fs-jetstream"
	"github.com/spf13/cobra"

	"github.com/fillip1984/inveniam/config"
	"github.com/fillip1984/inveniam/mail"
	"github.com/fillip1984/inveniam/modules/admin"
	"github.com/fillip1984/inveniam/modules/api"
	"github.com/fillip1984/inveniam/modules/attachments"
	"github.com/fillip1984/inveniam/modules/auth"
	"github.com/fillip1984/inveniam/modules/boards"
	"github.com/fillip1984/inveniam/modules/live"
	"github.com/fillip1984/inveniam/modules/ratelimit"
	"github.com/fillip1984/inveniam/modules/scheduler"
	"github.com/fillip1984/inveniam/modules/tags"
	"github.com/fillip1984/inveniam/modules/tasks"
	"github.com/fillip1984/inveniam/store"
)

func serveCmd(load func() (config.Config, error)) *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, websocket feed and report scheduler",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := load()
			if err != nil {
				return err
			}
			return serve(cfg, quiet)
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	return cmd
}

func serve(cfg config.Config, quiet bool) error {
	logLevel := mono.LogLevelInfo
	if quiet {
		logLevel = mono.LogLevelError
	}
	shutdownTimeout := cfg.App.ShutdownTimeout.Duration
	loc, err := time.LoadLocation(cfg.App.DefaultTimezone)
	if err != nil {
		return fmt.Errorf("invalid default timezone: %w", err)
	}

	log.Println("=== Inveniam ===")
	log.Printf("HTTP Addr: %s", cfg.HTTP.Addr)
	log.Printf("Database: %s", cfg.Database.Path)
	log.Printf("Storage Path: %s", cfg.Storage.Dir)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return err
	}

	app, err := mono.NewMonoApplication(
		mono.WithShutdownTimeout(shutdownTimeout),
		mono.WithLogLevel(logLevel),
		mono.WithLogFormat(mono.LogFormatText),
		mono.WithJetStreamStorageDir(cfg.Storage.Dir),
	)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to create mono application: %w", err)
	}

	storagePlugin, err := fsjetstream.New(fsjetstream.Config{
		Buckets: []fsjetstream.BucketConfig{
			{
				Name:        cfg.Storage.Bucket,
				Description: "Task attachments",
				MaxBytes:    cfg.Storage.MaxBytes,
				Storage:     fsjetstream.FileStorage,
				Compression: true,
			},
		},
	})
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to create storage plugin: %w", err)
	}
	if err := app.RegisterPlugin(storagePlugin, "storage"); err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to register storage plugin: %w", err)
	}

	logger := app.Logger()
	mailer := mail.New(cfg.Mail, logger)

	attachmentsModule := attachments.NewModule(cfg.Storage, cfg.App.BaseURL, logger)
	liveModule := live.NewModule(logger)
	rateLimitModule := ratelimit.NewModule(cfg.Redis, cfg.RateLimit, logger)

	app.Register(auth.NewModule(st, cfg.JWT, logger))
	app.Register(boards.NewModule(st, loc, logger))
	app.Register(tasks.NewModule(st, cfg, mailer, logger))
	app.Register(tags.NewModule(st, logger))
	app.Register(admin.NewModule(st, logger))
	app.Register(attachmentsModule)
	app.Register(liveModule)
	app.Register(rateLimitModule)
	app.Register(api.NewModule(cfg.HTTP, attachmentsModule, liveModule, rateLimitModule, logger))
	app.Register(scheduler.NewModule(cfg.Report, logger))

	if err := app.Start(context.Background()); err != nil {
		_ = st.Close()
		return fmt.Errorf("failed to start app: %w", err)
	}

	log.Println("=== Application Started ===")
	log.Printf("API available at %s", cfg.App.BaseURL)
	log.Println("Endpoints:")
	log.Println("  POST   /api/v1/auth/{register,login,refresh}")
	log.Println("  GET    /api/v1/profile")
	log.Println("  GET    /api/rpc/<namespace>.<procedure>?input=")
	log.Println("  POST   /api/rpc/<namespace>.<procedure>")
	log.Println("  PUT    /uploads/:bucket/:key?token=")
	log.Println("  GET    /ws/boards/:id?token=")
	log.Println("Press Ctrl+C to shutdown")

	// mono-app stops before the database closes.
	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		shutdownTimeout,
		map[string]gfshutdown.Operation{
			"mono-app": func(ctx context.Context) error {
				log.Println("Graceful shutdown initiated...")
				err := app.Stop(ctx)
				if closeErr := st.Close(); closeErr != nil && err == nil {
					err = closeErr
				}
				return err
			},
		},
	)

	exitCode := <-wait
	log.Printf("Application exited with code: %d", exitCode)
	os.Exit(exitCode)
	return nil
}
