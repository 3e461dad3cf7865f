package metrics

import (
	"bufio"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "beready"

type HTTPServerMetrics struct {
	registry *prometheus.Registry
	breaker  *breakerMetrics

	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	requestInFlight prometheus.Gauge
	rejectedTotal   *prometheus.CounterVec

	answersTotal       *prometheus.CounterVec
	answerDuration     *prometheus.HistogramVec
	modelCalls         *prometheus.HistogramVec
	retrievalTotal     *prometheus.CounterVec
	retrievedChunks    *prometheus.HistogramVec
	qaPersistMissTotal *prometheus.CounterVec
	feedbackTotal      *prometheus.CounterVec
}

func NewHTTPServerMetrics(service string) *HTTPServerMetrics {
	registry := prometheus.NewRegistry()

	requestTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total HTTP requests processed.",
		},
		[]string{"service", "method", "path", "status"},
	)
	requestDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "method", "path"},
	)
	requestInFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Number of in-flight HTTP requests.",
			ConstLabels: prometheus.Labels{
				"service": service,
			},
		},
	)
	rejectedTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "rejected_total",
			Help:      "Requests rejected before reaching a handler, by reason.",
		},
		[]string{"service", "reason"},
	)
	answersTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "requests_total",
			Help:      "Answer requests by outcome code (ok or an error code).",
		},
		[]string{"service", "surface", "outcome"},
	)
	answerDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "duration_seconds",
			Help:      "Answer pipeline duration in seconds.",
			Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"service", "surface"},
	)
	modelCalls := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "model_calls",
			Help:      "Chat model calls per successful answer (1 plus repairs).",
			Buckets:   []float64{1, 2, 3},
		},
		[]string{"service", "surface"},
	)
	retrievalTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "retrieval_total",
			Help:      "Successful answers by retrieval source (vector, keyword, none, degraded).",
		},
		[]string{"service", "source", "intent"},
	)
	retrievedChunks := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "rag",
			Name:      "retrieved_chunks",
			Help:      "Distribution of retrieved chunks per successful answer.",
			Buckets:   []float64{0, 1, 2, 3, 4, 5},
		},
		[]string{"service"},
	)
	qaPersistMissTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "answer",
			Name:      "qa_event_missing_total",
			Help:      "Answers for an identified user returned without a QA event id.",
		},
		[]string{"service"},
	)
	feedbackTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "feedback",
			Name:      "submissions_total",
			Help:      "Feedback submissions by rating and status.",
		},
		[]string{"service", "rating", "status"},
	)
	breaker := newBreakerMetrics()

	registry.MustRegister(
		requestTotal,
		requestDuration,
		requestInFlight,
		rejectedTotal,
		answersTotal,
		answerDuration,
		modelCalls,
		retrievalTotal,
		retrievedChunks,
		qaPersistMissTotal,
		feedbackTotal,
		breaker.state,
		breaker.transitions,
	)

	return &HTTPServerMetrics{
		registry:           registry,
		breaker:            breaker,
		requestTotal:       requestTotal,
		requestDuration:    requestDuration,
		requestInFlight:    requestInFlight,
		rejectedTotal:      rejectedTotal,
		answersTotal:       answersTotal,
		answerDuration:     answerDuration,
		modelCalls:         modelCalls,
		retrievalTotal:     retrievalTotal,
		retrievedChunks:    retrievedChunks,
		qaPersistMissTotal: qaPersistMissTotal,
		feedbackTotal:      feedbackTotal,
	}
}

func (m *HTTPServerMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *HTTPServerMetrics) Middleware(service string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := &statusRecorder{
			ResponseWriter: w,
			statusCode:     http.StatusOK,
		}

		m.requestInFlight.Inc()
		defer m.requestInFlight.Dec()

		next.ServeHTTP(recorder, r)

		path := r.URL.Path
		if recorder.statusCode == http.StatusNotFound {
			path = "unmatched"
		}
		m.requestTotal.WithLabelValues(
			service,
			r.Method,
			path,
			strconv.Itoa(recorder.statusCode),
		).Inc()
		m.requestDuration.WithLabelValues(service, r.Method, path).Observe(time.Since(start).Seconds())
	})
}

func (m *HTTPServerMetrics) RecordRejected(service, reason string) {
	m.rejectedTotal.WithLabelValues(service, reason).Inc()
}

// AnswerObservation is what a surface knows once an answer request finishes.
type AnswerObservation struct {
	Surface         string
	Outcome         string
	Intent          string
	Retrieval       string
	ChunksRetrieved int
	ModelCalls      int
	Identified      bool
	Persisted       bool
	Duration        time.Duration
}

func (m *HTTPServerMetrics) RecordAnswer(service string, obs AnswerObservation) {
	if obs.Outcome == "" {
		obs.Outcome = "unknown"
	}
	m.answersTotal.WithLabelValues(service, obs.Surface, obs.Outcome).Inc()
	m.answerDuration.WithLabelValues(service, obs.Surface).Observe(obs.Duration.Seconds())
	if obs.Outcome != "ok" {
		return
	}

	m.modelCalls.WithLabelValues(service, obs.Surface).Observe(float64(obs.ModelCalls))
	m.retrievalTotal.WithLabelValues(service, obs.Retrieval, obs.Intent).Inc()
	m.retrievedChunks.WithLabelValues(service).Observe(float64(obs.ChunksRetrieved))
	if obs.Identified && !obs.Persisted {
		m.qaPersistMissTotal.WithLabelValues(service).Inc()
	}
}

func (m *HTTPServerMetrics) RecordFeedback(service, rating, status string) {
	if rating == "" {
		rating = "unknown"
	}
	m.feedbackTotal.WithLabelValues(service, rating, status).Inc()
}

// BreakerHook returns a callback for resilience.Config.OnStateChange.
func (m *HTTPServerMetrics) BreakerHook(service string) func(operation, from, to string) {
	return m.breaker.hook(service)
}

type statusRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (w *statusRecorder) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}

func (w *statusRecorder) Flush() {
	flusher, ok := w.ResponseWriter.(http.Flusher)
	if ok {
		flusher.Flush()
	}
}

func (w *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	hijacker, ok := w.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, fmt.Errorf("response writer does not implement http.Hijacker")
	}
	return hijacker.Hijack()
}
