// Package api provides the HTTP API for the payment service: the Stripe
// webhook receiver, the credit endpoints, the checkout initiator and the
// static package catalog.
package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/zkerkeb-class/payment-services-MalicknND/errors"
	"github.com/zkerkeb-class/payment-services-MalicknND/ledger"
	"github.com/zkerkeb-class/payment-services-MalicknND/stripe"
)

const (
	serviceName    = "payment-service"
	serviceVersion = "1.0.0"

	requestTimeout = 30 * time.Second
)

// Config holds the dependencies and the listen address of the API server.
type Config struct {
	Host   string
	Port   int
	Ledger ledger.Store
	Stripe *stripe.Service
}

// API type represents the API HTTP server.
type API struct {
	host   string
	port   int
	ledger ledger.Store
	stripe *stripe.Service
}

// New creates a new API HTTP server. It does not start the server. Use Start() for that.
func New(conf *Config) *API {
	if conf == nil {
		return nil
	}
	return &API{
		host:   conf.Host,
		port:   conf.Port,
		ledger: conf.Ledger,
		stripe: conf.Stripe,
	}
}

// Start starts the API HTTP server (non blocking).
func (a *API) Start() {
	go func() {
		if err := http.ListenAndServe(fmt.Sprintf("%s:%d", a.host, a.port), a.Router()); err != nil {
			zap.L().Fatal("failed to start the API server", zap.Error(err))
		}
	}()
}

// Router creates the router with all the routes and middleware.
func (a *API) Router() http.Handler {
	// Create the router with a basic middleware stack
	r := chi.NewRouter()
	r.Use(cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Stripe-Signature"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}).Handler)
	r.Use(middleware.Logger)
	r.Use(a.recoverer)
	r.Use(middleware.Throttle(100))
	r.Use(middleware.Timeout(requestTimeout))

	// uniform envelopes instead of the framework defaults
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		errors.ErrRouteNotFound.Write(w)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		errors.ErrMethodNotAllowed.Write(w)
	})

	// handle stripe webhook; the handler reads the raw body itself, no
	// body-parsing middleware may run ahead of it
	zap.L().Info("new route", zap.String("method", "POST"), zap.String("path", webhookEndpoint))
	r.Post(webhookEndpoint, a.handleWebhook)
	// get user credit balance
	zap.L().Info("new route", zap.String("method", "GET"), zap.String("path", creditsUserEndpoint))
	r.Get(creditsUserEndpoint, a.getCreditsHandler)
	// spend user credits
	zap.L().Info("new route", zap.String("method", "POST"), zap.String("path", creditsUseEndpoint))
	r.Post(creditsUseEndpoint, a.useCreditsHandler)
	// create a stripe checkout session
	zap.L().Info("new route", zap.String("method", "POST"), zap.String("path", paymentCreateSessionEndpoint))
	r.Post(paymentCreateSessionEndpoint, a.createSessionHandler)
	// get stripe checkout session status
	zap.L().Info("new route", zap.String("method", "GET"), zap.String("path", paymentSessionEndpoint))
	r.Get(paymentSessionEndpoint, a.sessionStatusHandler)
	// credit package catalog
	zap.L().Info("new route", zap.String("method", "GET"), zap.String("path", packagesEndpoint))
	r.Get(packagesEndpoint, a.listPackagesHandler)
	zap.L().Info("new route", zap.String("method", "GET"), zap.String("path", packageInfoEndpoint))
	r.Get(packageInfoEndpoint, a.packageInfoHandler)
	// liveness
	zap.L().Info("new route", zap.String("method", "GET"), zap.String("path", healthEndpoint))
	r.Get(healthEndpoint, a.healthHandler)

	return r
}

// recoverer is the single fallback for panicking handlers. It never leaks
// internals to the client and always answers with the uniform envelope.
func (a *API) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				zap.L().Error("panic in HTTP handler",
					zap.Any("panic", rec),
					zap.String("path", r.URL.Path))
				errors.ErrGenericInternalServerError.Write(w)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// healthHandler returns the liveness/metadata payload.
func (a *API) healthHandler(w http.ResponseWriter, _ *http.Request) {
	httpWriteRaw(w, &HealthInfo{
		Status:  "ok",
		Service: serviceName,
		Version: serviceVersion,
		Time:    time.Now().UTC(),
	})
}
