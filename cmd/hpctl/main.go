// Command hpctl runs maintenance tasks against the hiddenplaces database and
// the outgoing mail queue.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/spf13/cobra"

	"hiddenplaces/internal/config"
	"hiddenplaces/internal/domain"
	"hiddenplaces/internal/email"
	"hiddenplaces/internal/service"
	"hiddenplaces/internal/store/postgres"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

type env struct {
	cfg    config.Config
	logger *slog.Logger
}

func newRootCmd() *cobra.Command {
	e := &env{}
	root := &cobra.Command{
		Use:          "hpctl",
		Short:        "Maintenance commands for hiddenplaces",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			e.cfg = cfg
			e.logger = config.NewLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	root.AddCommand(newMigrateCmd(e), newUserCmd(e), newMailerCmd(e))
	return root
}

func (e *env) openDB(ctx context.Context) (*pgxpool.Pool, error) {
	if e.cfg.DBDSN == "" {
		return nil, errors.New("APP_DB_DSN is not set")
	}
	return postgres.Open(ctx, e.cfg.DBDSN, postgres.PoolOptions{MaxConns: 2})
}

func newMigrateCmd(e *env) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			pool, err := e.openDB(cmd.Context())
			if err != nil {
				return err
			}
			defer pool.Close()

			applied, err := postgres.Migrate(cmd.Context(), pool)
			if err != nil {
				return err
			}
			if len(applied) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "database is up to date")
				return nil
			}
			for _, name := range applied {
				fmt.Fprintln(cmd.OutOrStdout(), "applied", name)
			}
			return nil
		},
	}
}

func newUserCmd(e *env) *cobra.Command {
	user := &cobra.Command{
		Use:   "user",
		Short: "Manage the root account",
	}

	user.AddCommand(&cobra.Command{
		Use:   "add-root EMAIL FIRST_NAME LAST_NAME",
		Short: "Create the root account and print its password",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			return e.withUsers(cmd.Context(), func(svc *service.UserService) error {
				u, password, err := svc.CreateRoot(cmd.Context(), args[0], args[1], args[2])
				if err != nil {
					var ve *domain.ValidationError
					if errors.As(err, &ve) {
						for field, msg := range ve.Fields {
							fmt.Fprintf(cmd.ErrOrStderr(), "%s: %s\n", field, msg)
						}
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s <%s>\npassword: %s\n", u.FullName(), u.Email, password)
				return nil
			})
		},
	})

	user.AddCommand(&cobra.Command{
		Use:   "reset-root-pwd",
		Short: "Generate a new root password and reactivate the account",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return e.withUsers(cmd.Context(), func(svc *service.UserService) error {
				u, password, err := svc.ResetRootPassword(cmd.Context())
				if err != nil {
					if errors.Is(err, domain.ErrNotFound) {
						return errors.New("there is no root account, run user add-root first")
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "new password for %s: %s\n", u.Email, password)
				return nil
			})
		},
	})
	return user
}

func (e *env) withUsers(ctx context.Context, fn func(*service.UserService) error) error {
	pool, err := e.openDB(ctx)
	if err != nil {
		return err
	}
	defer pool.Close()
	return fn(&service.UserService{
		Users:    postgres.NewUsersStore(pool),
		Sessions: postgres.NewSessionsStore(pool),
		Logger:   e.logger,
	})
}

func newMailerCmd(e *env) *cobra.Command {
	var prefetch int
	cmd := &cobra.Command{
		Use:   "mailer",
		Short: "Deliver queued mail over SMTP until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if e.cfg.AMQPURL == "" {
				return errors.New("APP_AMQP_URL is not set")
			}
			if !e.cfg.SMTP.Enabled() {
				return errors.New("APP_SMTP_HOST is not set")
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			consumer := &email.QueueConsumer{
				URL: e.cfg.AMQPURL,
				Sender: email.NewSMTPSender(email.SMTPSettings{
					Host:     e.cfg.SMTP.Host,
					Port:     e.cfg.SMTP.Port,
					Username: e.cfg.SMTP.Username,
					Password: e.cfg.SMTP.Password,
					TLSMode:  e.cfg.SMTP.TLSMode,
					From:     e.cfg.MailFrom,
				}),
				Logger:   e.logger,
				Prefetch: prefetch,
			}
			e.logger.Info("mailer started", "smtp_host", e.cfg.SMTP.Host)
			return consumer.Run(ctx)
		},
	}
	cmd.Flags().IntVar(&prefetch, "prefetch", 10, "messages fetched from the queue ahead of delivery")
	return cmd
}
