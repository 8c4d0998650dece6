package main

import (
	"context"
	"net/http"
	"time"

	"bookstore/internal/apispec"
	"bookstore/internal/book"
	"bookstore/internal/config"
	"bookstore/internal/httpx"
	"bookstore/internal/ingest"
)

// deps are the storage and collaborators the router is built from.
type deps struct {
	books   book.Repository
	runs    ingest.Repository
	source  ingest.Source
	version string
	// ready reports whether backing stores answer; nil means always ready.
	ready func(ctx context.Context) error
}

func newRouter(d deps) (*http.ServeMux, error) {
	doc, err := apispec.Load(d.version)
	if err != nil {
		return nil, err
	}

	bookHandler := book.NewHTTPHandler(book.NewService(d.books))
	importHandler := ingest.NewHTTPHandler(ingest.NewService(d.source, d.books, d.runs))
	specHandler := apispec.NewHTTPHandler(doc)

	router := http.NewServeMux()

	router.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.HandleFunc("GET /readyz", func(w http.ResponseWriter, r *http.Request) {
		if d.ready != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 500*time.Millisecond)
			defer cancel()
			if err := d.ready(ctx); err != nil {
				http.Error(w, "not ready", http.StatusServiceUnavailable)
				return
			}
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})

	router.Handle("GET /{$}", http.RedirectHandler("/books/", http.StatusFound))

	// Each route answers with and without the trailing slash.
	handle := func(method, path string, h http.HandlerFunc) {
		router.HandleFunc(method+" "+path, h)
		router.HandleFunc(method+" "+path+"/{$}", h)
	}

	handle(http.MethodGet, "/api_spec", specHandler.Get)

	handle(http.MethodGet, "/books", bookHandler.List)
	handle(http.MethodPost, "/books", bookHandler.Create)
	handle(http.MethodGet, "/books/{id}", bookHandler.Get)
	handle(http.MethodPatch, "/books/{id}", bookHandler.Update)
	handle(http.MethodDelete, "/books/{id}", bookHandler.Delete)

	handle(http.MethodGet, "/authors", bookHandler.ListAuthors)
	handle(http.MethodPost, "/import", importHandler.Import)
	handle(http.MethodGet, "/import/runs/{id}", importHandler.GetRun)

	return router, nil
}

// withMiddleware wraps the router in the standard middleware stack.
func withMiddleware(ctx context.Context, cfg config.HTTPConfig, enableHSTS bool, h http.Handler) http.Handler {
	rateLimiter := httpx.NewRateLimitMiddleware(ctx, cfg.RateLimitRPS, cfg.RateLimitBurst)
	rateLimiter.TrustForwardedFor = cfg.TrustProxy
	return httpx.Chain(h,
		httpx.RequestIDMiddleware,
		httpx.AccessLogMiddleware,
		httpx.RecoveryMiddleware,
		httpx.SecurityHeadersMiddleware(enableHSTS),
		httpx.CORSMiddleware(cfg.CORSOrigins),
		rateLimiter.Middleware,
		httpx.RequestSizeLimitMiddleware(cfg.MaxBodyBytes),
	)
}
