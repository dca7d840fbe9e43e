package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"
)

type HTTPServer struct {
	srv  *http.Server
	done chan struct{}
}

// StartHTTP serves h on addr until ctx is done, then shuts down gracefully.
func StartHTTP(ctx context.Context, addr string, h http.Handler, log *zap.Logger) *HTTPServer {
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}
	s := &HTTPServer{srv: srv, done: make(chan struct{})}

	go func() {
		log.Info("http listening", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", zap.Error(err))
		}
	}()

	go func() {
		defer close(s.done)
		<-ctx.Done()
		shCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := srv.Shutdown(shCtx); err != nil {
			log.Warn("http shutdown", zap.Error(err))
		}
	}()

	return s
}

// Done is closed once the server has shut down.
func (s *HTTPServer) Done() <-chan struct{} { return s.done }
