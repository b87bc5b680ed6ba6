package metrics

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var registry = prometheus.NewRegistry()

var (
	Queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ddg_queries_total",
		Help: "Queries seen by the plugin, by validator action.",
	}, []string{"action"})

	Results = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ddg_results_total",
		Help: "Result records emitted, by kind.",
	}, []string{"kind"})

	FetchFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "ddg_fetch_failures_total",
		Help: "Instant answer fetches that produced no result, by reason.",
	}, []string{"reason"})

	FetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "ddg_fetch_duration_seconds",
		Help:    "Latency of instant answer API round trips.",
		Buckets: prometheus.DefBuckets,
	})
)

func init() {
	registry.MustRegister(Queries, Results, FetchFailures, FetchDuration)
}

func GetRegistry() *prometheus.Registry {
	return registry
}

// Handler exposes the registry in the prometheus text format
func Handler() http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// Serve blocks serving /metrics on addr until ctx is done
func Serve(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
