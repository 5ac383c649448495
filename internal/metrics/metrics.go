package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "doli_watcher"

// Recorder holds the watcher's prometheus collectors.
type Recorder struct {
	checked         *prometheus.CounterVec
	published       *prometheus.CounterVec
	publishFailures *prometheus.CounterVec
	fetchFailures   *prometheus.CounterVec
	passDuration    prometheus.Histogram
}

// New registers the watcher collectors on reg. A nil reg uses the default
// prometheus registerer.
func New(reg prometheus.Registerer) *Recorder {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Recorder{
		checked: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_checked_total",
			Help:      "Dolibarr records fetched and fingerprinted.",
		}, []string{"resource"}),
		published: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "changes_published_total",
			Help:      "Change events accepted by every publisher they were routed to.",
		}, []string{"resource"}),
		publishFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publish_failures_total",
			Help:      "Change events rejected by at least one publisher.",
		}, []string{"resource"}),
		fetchFailures: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fetch_failures_total",
			Help:      "Dolibarr reads that returned an error.",
		}, []string{"resource"}),
		passDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pass_duration_seconds",
			Help:      "Wall time of a full watcher pass.",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 12),
		}),
	}
}

func (r *Recorder) Checked(resource string)       { r.checked.WithLabelValues(resource).Inc() }
func (r *Recorder) Published(resource string)     { r.published.WithLabelValues(resource).Inc() }
func (r *Recorder) PublishFailed(resource string) { r.publishFailures.WithLabelValues(resource).Inc() }
func (r *Recorder) FetchFailed(resource string)   { r.fetchFailures.WithLabelValues(resource).Inc() }

// ObservePass records the duration of one watcher pass.
func (r *Recorder) ObservePass(d time.Duration) { r.passDuration.Observe(d.Seconds()) }

// Serve exposes g on addr under /metrics until ctx is cancelled.
func Serve(ctx context.Context, addr string, g prometheus.Gatherer) error {
	if g == nil {
		g = prometheus.DefaultGatherer
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics listener: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("metrics shutdown: %w", err)
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("metrics listener: %w", err)
		}
		return nil
	}
}
