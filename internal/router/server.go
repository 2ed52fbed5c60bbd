package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wellywell/stickershop/internal/auth"
	"github.com/wellywell/stickershop/internal/compress"
	"github.com/wellywell/stickershop/internal/config"
	"github.com/wellywell/stickershop/internal/handlers"
)

const (
	compressLevel     = 5
	readHeaderTimeout = 10 * time.Second
)

type Middleware interface {
	Handle(h http.Handler) http.Handler
}

type Router struct {
	address string
	router  *chi.Mux
}

func NewRouter(conf *config.ServerConfig, h *handlers.HandlerSet, middlewares ...Middleware) *Router {

	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	r.Use(Instrument)
	for _, m := range middlewares {
		r.Use(m.Handle)
	}
	r.Use(compress.RequestUngzipper{}.Handle)
	r.Use(middleware.Compress(compressLevel))

	r.Get("/healthz", h.HandleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/webhooks/coinbase", h.HandleCoinbaseWebhook)

	r.Route("/api", func(r chi.Router) {
		r.Get("/packs", h.HandleGetPacks)
		r.Get("/evm/config", h.HandleEVMConfig)

		r.Post("/orders", h.HandlePostOrder)
		r.Get("/orders/{id}", h.HandleGetOrder)
		r.Get("/orders/{id}/pay", h.HandlePayOrder)
		r.Post("/orders/{id}/evm/verify", h.HandleVerifyTx)

		if !conf.AdminEnabled() {
			r.HandleFunc("/admin/*", h.HandleAdminUnavailable)
			return
		}

		r.Post("/admin/login", h.HandleAdminLogin)

		authMiddleware := &auth.AuthenticateMiddleware{Secret: conf.Secret()}

		r.Group(func(r chi.Router) {

			r.Use(authMiddleware.Handle)
			r.Post("/admin/orders/{id}/status", h.HandleAdminSetStatus)
			r.Post("/admin/telegram/test", h.HandleAdminTelegramTest)
		})
	})

	return &Router{router: r, address: conf.RunAddress}
}

func (r *Router) Handler() http.Handler {
	return r.router
}

// Server builds the HTTP server so the caller can shut it down gracefully.
func (r *Router) Server() *http.Server {
	return &http.Server{
		Addr:              r.address,
		Handler:           r.router,
		ReadHeaderTimeout: readHeaderTimeout,
	}
}

func (r *Router) ListenAndServe() error {
	err := r.Server().ListenAndServe()
	return err
}
