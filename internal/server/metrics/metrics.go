// Package metrics exposes the Prometheus registry on its own listener
// so operational scrape traffic never hits the WebDAV port.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

var (
	Requests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "davd",
		Name:      "http_requests_total",
		Help:      "Handled requests by method and status class.",
	}, []string{"method", "class"})

	AuthFailures = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "davd",
		Name:      "auth_failures_total",
		Help:      "Rejected authentication attempts.",
	})

	NoncesIssued = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "davd",
		Name:      "digest_nonces_issued_total",
		Help:      "Digest nonces handed out in challenges.",
	})
)

// ObserveRequest records one handled request.
func ObserveRequest(method string, status int) {
	Requests.WithLabelValues(method, strconv.Itoa(status/100)+"xx").Inc()
}

// RegisterLockGauge exports the live lock count.
func RegisterLockGauge(count func() int) {
	promauto.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: "davd",
		Name:      "active_locks",
		Help:      "Currently held WebDAV locks.",
	}, func() float64 { return float64(count()) })
}

// Serve blocks on the metrics listener.
func Serve(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	log.Info().Str("Address", addr).Msg("Metrics listener starting")
	return http.ListenAndServe(addr, mux)
}
