// Package devserver serves a gateway.Backend over the same REST surface the
// real API exposes, for local front-end work and gateway tests.
package devserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"expensync/internal/core"
	"expensync/internal/gateway"
	"expensync/internal/gateway/memory"
	"expensync/internal/log"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Options configures the router.
type Options struct {
	// AllowedOrigins for CORS; the web client runs on localhost:5173 by default.
	AllowedOrigins []string
	Logger         *log.Logger
	// RequestsPerMinute caps requests per client address; zero disables it.
	RequestsPerMinute int
}

type handler struct {
	backend gateway.Backend
	logger  *log.Logger
}

// NewRouter returns the /api routes backed by b.
func NewRouter(b gateway.Backend, opts Options) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDevServer)
	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:5173"}
	}

	h := &handler{backend: b, logger: logger}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(log.Middleware(logger))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
		MaxAge:         300,
	}))
	if opts.RequestsPerMinute > 0 {
		r.Use(newLimiter(opts.RequestsPerMinute).middleware)
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		api.Route("/expenses", func(er chi.Router) {
			er.Get("/", h.listExpenses)
			er.Post("/", h.createExpense)
			er.Put("/{id}", h.updateExpense)
			er.Delete("/{id}", h.deleteExpense)
		})
		api.Route("/bills", func(br chi.Router) {
			br.Get("/", h.listBills)
			br.Post("/", h.createBill)
			br.Put("/{id}/pay", h.markBillPaid)
		})
		api.Get("/user", h.getUser)
		api.Put("/user", h.updateUser)
		api.Post("/auth/signup", h.signup)
		api.Post("/auth/login", h.login)
	})
	return r
}

// NewServer wraps the router in an http.Server with the same limits the
// application server uses.
func NewServer(addr string, b gateway.Backend, opts Options) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           NewRouter(b, opts),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 16,
	}
}

func (h *handler) listExpenses(w http.ResponseWriter, r *http.Request) {
	items, err := h.backend.ListExpenses(r.Context(), r.URL.Query().Get("userId"))
	h.respond(w, r, items, err)
}

func (h *handler) createExpense(w http.ResponseWriter, r *http.Request) {
	var in core.NewExpense
	if !h.decode(w, r, &in) {
		return
	}
	e, err := h.backend.CreateExpense(r.Context(), in)
	h.respond(w, r, e, err)
}

func (h *handler) updateExpense(w http.ResponseWriter, r *http.Request) {
	var patch core.ExpensePatch
	if !h.decode(w, r, &patch) {
		return
	}
	e, err := h.backend.UpdateExpense(r.Context(), chi.URLParam(r, "id"), patch)
	h.respond(w, r, e, err)
}

func (h *handler) deleteExpense(w http.ResponseWriter, r *http.Request) {
	if err := h.backend.DeleteExpense(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *handler) listBills(w http.ResponseWriter, r *http.Request) {
	items, err := h.backend.ListBills(r.Context(), r.URL.Query().Get("userId"))
	h.respond(w, r, items, err)
}

func (h *handler) createBill(w http.ResponseWriter, r *http.Request) {
	var in core.NewBill
	if !h.decode(w, r, &in) {
		return
	}
	b, err := h.backend.CreateBill(r.Context(), in)
	h.respond(w, r, b, err)
}

func (h *handler) markBillPaid(w http.ResponseWriter, r *http.Request) {
	b, err := h.backend.MarkBillPaid(r.Context(), chi.URLParam(r, "id"))
	h.respond(w, r, b, err)
}

func (h *handler) getUser(w http.ResponseWriter, r *http.Request) {
	u, err := h.backend.GetUser(r.Context())
	h.respond(w, r, u, err)
}

func (h *handler) updateUser(w http.ResponseWriter, r *http.Request) {
	var u core.User
	if !h.decode(w, r, &u) {
		return
	}
	saved, err := h.backend.UpdateUser(r.Context(), u)
	h.respond(w, r, saved, err)
}

func (h *handler) signup(w http.ResponseWriter, r *http.Request) {
	var p core.Profile
	if !h.decode(w, r, &p) {
		return
	}
	u, err := h.backend.Signup(r.Context(), p)
	h.respond(w, r, u, err)
}

func (h *handler) login(w http.ResponseWriter, r *http.Request) {
	var c core.Credentials
	if !h.decode(w, r, &c) {
		return
	}
	u, err := h.backend.Login(r.Context(), c)
	h.respond(w, r, u, err)
}

func (h *handler) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20)).Decode(dst); err != nil {
		http.Error(w, "Invalid request payload", http.StatusBadRequest)
		return false
	}
	return true
}

func (h *handler) respond(w http.ResponseWriter, r *http.Request, body any, err error) {
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to encode response", log.FieldError, err)
	}
}

// fail writes the error message as plain text, mirroring the backend's
// badRequest().body(message) responses.
func (h *handler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusBadRequest
	switch {
	case errors.Is(err, memory.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, memory.ErrInvalidCredentials):
		status = http.StatusUnauthorized
	}
	h.logger.WarnContext(r.Context(), "Request rejected", log.FieldPath, r.URL.Path, log.FieldError, err)
	http.Error(w, err.Error(), status)
}
