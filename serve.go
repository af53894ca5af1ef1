package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"secret-notes/auth"
	"secret-notes/config"
	"secret-notes/db"
	"secret-notes/handlers"
	"secret-notes/notes"
	"secret-notes/passwords"
)

const shutdownTimeout = 10 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP server",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func newHasher(c *config.Config) (*passwords.Hasher, error) {
	return passwords.New(passwords.Scheme(c.PasswordScheme))
}

func newAuthenticator(c *config.Config, store db.UserStore, hasher *passwords.Hasher) (auth.Authenticator, error) {
	if c.AuthMode == config.AuthModeSingle {
		return auth.NewFixedAuthenticator(c.AuthorUsername, c.AuthorPassword, hasher)
	}
	return auth.NewUserStoreAuthenticator(store, hasher), nil
}

// newServer wires the store into the full HTTP stack.
func newServer(c *config.Config, store db.Store) (http.Handler, error) {
	if c.SessionSecret == "" {
		return nil, errors.New("session_secret is required (set NOTES_SESSION_SECRET)")
	}

	hasher, err := newHasher(c)
	if err != nil {
		return nil, err
	}
	authenticator, err := newAuthenticator(c, store, hasher)
	if err != nil {
		return nil, err
	}
	sessions, err := auth.NewSessions(c.SessionSecret, c.SessionTTL)
	if err != nil {
		return nil, err
	}

	h := handlers.New(authenticator, sessions, notes.NewService(store, hasher),
		handlers.WithSecureCookies(c.SecureCookies),
	)
	return handlers.NewRouter(h, c.CORSOrigins), nil
}

func runServe(cmd *cobra.Command, args []string) error {
	store, err := db.Open(cfg.StoreOptions())
	if err != nil {
		return fmt.Errorf("failed to open %s store: %w", cfg.Storage, err)
	}
	defer store.Close()

	router, err := newServer(cfg, store)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", cfg.Addr, "storage", cfg.Storage, "auth_mode", cfg.AuthMode)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
