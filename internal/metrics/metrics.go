package metrics

import (
	"bufio"
	"errors"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyroom",
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests received",
	}, []string{"method", "path", "status"})

	httpLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "studyroom",
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	wsEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyroom",
		Name:      "ws_events_total",
		Help:      "Inbound WebSocket events by type",
	}, []string{"type"})

	signalsRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyroom",
		Name:      "signals_relayed_total",
		Help:      "WebRTC signaling messages delivered to their target",
	}, []string{"kind"})

	signalsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "studyroom",
		Name:      "signals_dropped_total",
		Help:      "WebRTC signaling messages dropped by target validation",
	}, []string{"kind"})

	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "studyroom",
		Name:      "connections_active",
		Help:      "Currently registered WebSocket connections",
	})

	mainRoomsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "studyroom",
		Name:      "main_rooms_active",
		Help:      "Currently live main rooms",
	})

	privateSessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "studyroom",
		Name:      "private_sessions_active",
		Help:      "Currently live private breakout sessions",
	})

	studyMinutes = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "studyroom",
		Name:      "study_minutes_recorded_total",
		Help:      "Study minutes written to the ledger on disconnect",
	})
)

func EventReceived(eventType string) { wsEvents.WithLabelValues(eventType).Inc() }

func SignalRelayed(kind string) { signalsRelayed.WithLabelValues(kind).Inc() }

func SignalDropped(kind string) { signalsDropped.WithLabelValues(kind).Inc() }

// RelayedSignals exposes the per-kind delivered counter for
// assertions.
func RelayedSignals(kind string) prometheus.Counter {
	return signalsRelayed.WithLabelValues(kind)
}

// DroppedSignals exposes the per-kind dropped counter for assertions.
func DroppedSignals(kind string) prometheus.Counter {
	return signalsDropped.WithLabelValues(kind)
}

func SetConnections(n int) { connectionsActive.Set(float64(n)) }

func SetMainRooms(n int) { mainRoomsActive.Set(float64(n)) }

func SetPrivateSessions(n int) { privateSessionsActive.Set(float64(n)) }

func StudyMinutesRecorded(minutes int64) { studyMinutes.Add(float64(minutes)) }

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (r *responseRecorder) Flush() {
	if f, ok := r.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Hijack keeps WebSocket upgrades working through the middleware.
func (r *responseRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	if h, ok := r.ResponseWriter.(http.Hijacker); ok {
		return h.Hijack()
	}
	return nil, nil, errors.New("metrics: underlying ResponseWriter does not support hijacking")
}

// Middleware records request counts and latency per route.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(rec, r)

		labels := prometheus.Labels{
			"method": r.Method,
			"path":   r.URL.Path,
			"status": strconv.Itoa(rec.status),
		}
		httpRequests.With(labels).Inc()
		httpLatency.With(labels).Observe(time.Since(start).Seconds())
	})
}

// Handler exposes the Prometheus scrape endpoint.
func Handler() http.Handler {
	return promhttp.Handler()
}
