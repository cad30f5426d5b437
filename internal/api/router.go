package api

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "donorcrm_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "donorcrm_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})
)

// NewRouter wires every route onto a fresh mux.Router.
func NewRouter(h *Handler) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/health", h.HealthCheckHandler).Methods("GET")

	v1 := r.PathPrefix("/api/v1").Subrouter()
	v1.Use(instrument)

	v1.HandleFunc("/pledges", h.CreatePledgeHandler).Methods("POST")
	v1.HandleFunc("/pledges/late", h.ListLatePledgesHandler).Methods("GET")
	v1.HandleFunc("/pledges/summary", h.PledgeSummaryHandler).Methods("GET")
	v1.HandleFunc("/pledges/{id}", h.GetPledgeHandler).Methods("GET")
	v1.HandleFunc("/pledges/{id}/{action:pause|resume|cancel}", h.PledgeActionHandler).Methods("POST")
	v1.HandleFunc("/donations", h.CreateDonationHandler).Methods("POST")

	v1.HandleFunc("/journals", h.CreateJournalHandler).Methods("POST")
	v1.HandleFunc("/journal-contacts", h.AddJournalContactHandler).Methods("POST")
	v1.HandleFunc("/journal-contacts/{id}/stage-events", h.ListStageEventsHandler).Methods("GET")
	v1.HandleFunc("/stage-events", h.CreateStageEventHandler).Methods("POST")
	v1.HandleFunc("/decisions", h.CreateDecisionHandler).Methods("POST")
	v1.HandleFunc("/decisions/{id}", h.GetDecisionHandler).Methods("GET")
	v1.HandleFunc("/decisions/{id}", h.UpdateDecisionHandler).Methods("PATCH")
	v1.HandleFunc("/decisions/{id}/history", h.DecisionHistoryHandler).Methods("GET")

	v1.HandleFunc("/jobs/late-pledges", h.RunLateSweepHandler).Methods("POST")
	return r
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

// instrument records request counts and latency under the route template,
// so ids do not explode label cardinality.
func instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		endpoint := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				endpoint = tpl
			}
		}

		timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues(r.Method, endpoint))
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		timer.ObserveDuration()

		httpRequestsTotal.WithLabelValues(r.Method, endpoint, strconv.Itoa(rec.status)).Inc()
	})
}
