// Package httpapi exposes the analytics and record APIs over HTTP and the
// health service over gRPC.
package httpapi

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"intelhub.dev/internal/auth"
	"intelhub.dev/internal/dossier"
	"intelhub.dev/internal/obs"
	"intelhub.dev/internal/stream"
)

const serviceName = "intelhub-api"

type readinessChecker interface {
	Check(ctx context.Context) error
}

// ReadyProbe pings the database when one is configured.
type ReadyProbe struct {
	DB *sql.DB
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.DB == nil {
		return nil
	}
	return rp.DB.PingContext(ctx)
}

// Options configures API.
type Options struct {
	Version      string
	Store        dossier.Service
	Stream       *stream.Stream
	Ready        readinessChecker
	Tokens       *auth.Tokens // nil disables bearer auth
	TokenTTL     time.Duration
	RateBurst    int
	RatePerSec   float64
	MaxBodyBytes int64
	CORSOrigins  []string
	Now          func() time.Time
}

// API is the HTTP layer.
type API struct {
	mux          *http.ServeMux
	store        dossier.Service
	stream       *stream.Stream
	ready        readinessChecker
	tokens       *auth.Tokens
	tokenTTL     time.Duration
	version      string
	rateBurst    int
	ratePerSec   float64
	maxBodyBytes int64
	corsOrigins  []string
	now          func() time.Time
}

func New(opts Options) *API {
	a := &API{
		mux:          http.NewServeMux(),
		store:        opts.Store,
		stream:       opts.Stream,
		ready:        opts.Ready,
		tokens:       opts.Tokens,
		tokenTTL:     opts.TokenTTL,
		version:      opts.Version,
		rateBurst:    opts.RateBurst,
		ratePerSec:   opts.RatePerSec,
		maxBodyBytes: opts.MaxBodyBytes,
		corsOrigins:  opts.CORSOrigins,
		now:          opts.Now,
	}
	if a.store == nil {
		a.store = dossier.NewInMemory()
	}
	if a.stream == nil {
		a.stream = stream.New()
	}
	if a.ready == nil {
		a.ready = ReadyProbe{}
	}
	if a.tokenTTL <= 0 {
		a.tokenTTL = 15 * time.Minute
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 50
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 20
	}
	if a.maxBodyBytes <= 0 {
		a.maxBodyBytes = 1 << 20
	}
	if a.now == nil {
		a.now = func() time.Time { return time.Now().UTC() }
	}
	a.routes()
	return a
}

func (a *API) routes() {
	a.mux.HandleFunc("GET /healthz", a.Healthz)
	a.mux.HandleFunc("GET /readyz", a.Ready)
	a.mux.HandleFunc("GET /v1/info", a.Info)
	a.mux.Handle("GET /metrics", obs.Handler())
	a.mux.HandleFunc("POST /v1/auth/token", a.handleAuthToken)

	a.mux.HandleFunc("POST /v1/analysis/trips", a.guard(auth.PermAnalyze, a.analyzeTrips))
	a.mux.HandleFunc("POST /v1/analysis/aggregate", a.guard(auth.PermAnalyze, a.aggregate))

	a.mux.HandleFunc("POST /v1/subjects/{id}/crossings", a.guard(auth.PermIngest, a.addCrossing))
	a.mux.HandleFunc("GET /v1/subjects/{id}/crossings", a.guard(auth.PermRead, a.listCrossings))
	a.mux.HandleFunc("GET /v1/subjects/{id}/trips", a.guard(auth.PermRead, a.subjectTrips))
	a.mux.HandleFunc("POST /v1/subjects/{id}/hotel-stays", a.guard(auth.PermIngest, a.addHotelStay))
	a.mux.HandleFunc("GET /v1/subjects/{id}/hotel-stays", a.guard(auth.PermRead, a.listHotelStays))
	a.mux.HandleFunc("GET /v1/subjects/{id}/hotel-stays/summary", a.guard(auth.PermRead, a.hotelSummary))
	a.mux.HandleFunc("POST /v1/subjects/{id}/transactions", a.guard(auth.PermIngest, a.addTransaction))
	a.mux.HandleFunc("GET /v1/subjects/{id}/transactions", a.guard(auth.PermRead, a.listTransactions))
	a.mux.HandleFunc("GET /v1/subjects/{id}/transactions/summary", a.guard(auth.PermRead, a.transactionSummary))

	a.mux.HandleFunc("POST /v1/tasks", a.guard(auth.PermTasks, a.addTask))
	a.mux.HandleFunc("GET /v1/tasks", a.guard(auth.PermRead, a.listTasks))
	a.mux.HandleFunc("GET /v1/tasks/summary", a.guard(auth.PermRead, a.taskSummary))
	a.mux.HandleFunc("PATCH /v1/tasks/{id}", a.guard(auth.PermTasks, a.updateTask))

	a.mux.HandleFunc("GET /v1/stream", a.guard(auth.PermStream, a.Stream))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})
}

// Handler returns the mux wrapped in the full middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = a.withAuth(h)
	h = MaxBodyBytes(h, a.maxBodyBytes)
	h = RateLimit(h, a.rateBurst, a.ratePerSec)
	h = CORS(h, a.corsOrigins)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.ready.Check(r.Context()); err != nil {
		obs.SetReady(false)
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
			"error":  err.Error(),
		})
		return
	}
	obs.SetReady(true)
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"name":         serviceName,
		"time":         a.now().Format(time.RFC3339),
		"version":      a.version,
		"auth_enabled": a.tokens != nil,
	})
}
