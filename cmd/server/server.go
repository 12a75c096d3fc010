package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
)

const (
	readHeaderTimeout = 10 * time.Second
	idleTimeout       = 120 * time.Second
)

// serve runs the HTTP server until SIGINT or SIGTERM, or until the listener
// fails, then stops accepting requests and releases the database and Redis
// connections. It returns the process exit code.
func (app *application) serve() int {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: readHeaderTimeout,
		IdleTimeout:       idleTimeout,
	}

	// A listen failure cancels serveCtx, which runs the shutdown operations
	// without waiting for a signal.
	serveCtx, cancelServe := context.WithCancel(context.Background())
	defer cancelServe()
	listenFailed := make(chan struct{})

	go func() {
		app.logger.Info("starting server",
			"port", app.config.Server.Port,
			"environment", app.config.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.logger.Error("server failed", "error", err)
			close(listenFailed)
			cancelServe()
		}
	}()

	timeout := time.Duration(app.config.Server.ShutdownTimeoutSeconds) * time.Second
	wait := gfshutdown.GracefulShutdown(
		serveCtx,
		timeout,
		map[string]gfshutdown.Operation{
			"taskmanager-api": func(ctx context.Context) error {
				app.logger.Info("shutting down server")
				err := srv.Shutdown(ctx)
				if err != nil {
					app.logger.Error("server shutdown failed", "error", err)
				}
				app.close(ctx)
				return err
			},
		},
	)

	exitCode := <-wait
	select {
	case <-listenFailed:
		exitCode = 1
	default:
	}
	app.logger.Info("server stopped", "exit_code", exitCode)
	return exitCode
}
