package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/deppfellow/maintenance-ledger/internal/config"
	"github.com/deppfellow/maintenance-ledger/internal/database"
	"github.com/deppfellow/maintenance-ledger/internal/handler"
	"github.com/deppfellow/maintenance-ledger/internal/lib/email"
	"github.com/deppfellow/maintenance-ledger/internal/logger"
	"github.com/deppfellow/maintenance-ledger/internal/repository"
	"github.com/deppfellow/maintenance-ledger/internal/router"
	"github.com/deppfellow/maintenance-ledger/internal/server"
	"github.com/deppfellow/maintenance-ledger/internal/service"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "ledger",
		Short:         "Maintenance ledger for industrial machinery",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.AddCommand(newServeCommand())
	cmd.AddCommand(newMigrateCommand())
	cmd.AddCommand(newEmailPreviewCommand())
	return cmd
}

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}
			return serve(cfg)
		},
	}
}

func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply the ledger schema to the configured database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadConfig()
			if err != nil {
				return err
			}

			log := logger.NewLogger(cfg.Observability)

			// The SQLite schema is applied every time the file is opened.
			if cfg.Database.Driver == config.DriverSQLite {
				db, err := database.OpenSQLite(cfg.Database.Path, &log)
				if err != nil {
					return err
				}
				return db.Close()
			}

			return database.Migrate(cmd.Context(), &log, database.PostgresDSN(cfg.Database))
		},
	}
}

func newEmailPreviewCommand() *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "email-preview",
		Short: "Render a notification template with sample data to stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			template := email.Template(name)
			data, ok := email.PreviewData[template]
			if !ok {
				return fmt.Errorf("unknown template %q", name)
			}

			body, err := email.Render(template, data)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintln(cmd.OutOrStdout(), body)
			return err
		},
	}

	cmd.Flags().StringVar(&name, "template", string(email.TemplateMaintenanceReminder), "Template to render")
	return cmd
}

func serve(cfg *config.Config) error {
	loggerService := logger.NewLoggerService(cfg.Observability)
	defer loggerService.Shutdown()

	log := logger.NewLoggerWithService(cfg.Observability, loggerService)

	if cfg.Database.Driver == config.DriverPostgres {
		if err := database.Migrate(context.Background(), &log, database.PostgresDSN(cfg.Database)); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	srv, err := server.New(cfg, &log, loggerService)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize server")
	}

	repos, err := repository.NewRepositories(srv)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create repositories")
	}

	services, err := service.NewService(srv, repos)
	if err != nil {
		log.Fatal().Err(err).Msg("could not create services")
	}

	handlers := handler.NewHandlers(srv, services)
	r := router.NewRouter(srv, handlers)

	srv.SetupHTTPServer(r)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
	return nil
}
