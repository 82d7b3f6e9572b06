package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/klauspost/compress/gzhttp"
	log "github.com/sirupsen/logrus"

	"tokend/internal/pub"
	"tokend/internal/token"
)

// RunServer runs the HTTP server exposing the token API, shutting down
// gracefully on SIGINT/SIGTERM. This is a blocking call.
func RunServer(port int, svc *token.Service, events *pub.Events) {
	stop, done := RunServerInterruptible(port, svc, events)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		log.Infof("received %s, shutting down", sig)
		stop <- struct{}{}
		if err := <-done; err != nil {
			log.Fatal(err)
		}
	case err := <-done:
		if err != nil {
			log.Fatal(err)
		}
	}
}

// RunServerInterruptible runs the server in the background in a Go routine and immediately returns a chan to
// the caller. The caller can then send a signal to the chan to gracefully shutdown the server.
// It's up to the caller to wait for in the main Go routine to keep the server running.
func RunServerInterruptible(port int, svc *token.Service, events *pub.Events) (stop chan<- struct{}, done <-chan error) {
	srv := newServer(port, svc, events)

	// one-shot channels for control & completion
	stopCh := make(chan struct{})
	doneCh := make(chan error, 1) // buffered so goroutines can finish without blocking

	// server goroutine
	go func() {
		log.Printf("tokend listening on %s\n", srv.Addr)
		err := srv.ListenAndServe()
		// http.ErrServerClosed is returned on Shutdown; treat that as clean exit
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			doneCh <- err
			return
		}
		doneCh <- nil
	}()

	go func() {
		<-stopCh
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx) // graceful; in-flight requests get time to finish
	}()
	return stopCh, doneCh
}

func newServer(port int, svc *token.Service, events *pub.Events) *http.Server {
	h := NewHandler(svc, events)
	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           gzhttp.GzipHandler(h.Router()),
		ReadHeaderTimeout: 10 * time.Second,
	}
}
