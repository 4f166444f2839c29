package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/woodway-ua/photoindex/pkg/logger"
)

// StartServer serves the Prometheus scrape endpoint on its own port and
// returns the server's Shutdown function.
func StartServer(port int) func(context.Context) error {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler())

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	log := logger.WithComponent("metrics-server")
	go func() {
		log.Info("metrics endpoint listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", "error", err)
		}
	}()
	return srv.Shutdown
}
