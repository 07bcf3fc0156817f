package web

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"subscription-ledger/internal/infra/logging"
	red "subscription-ledger/internal/infra/redis"
	"subscription-ledger/internal/usecase"
)

// Server is the HTTP host surface of the ledger. It translates validated
// JSON requests plus a verified caller identity into ledger operations and
// maps every domain error back to its wire kind. No business rule lives
// here.
type Server struct {
	registryUC *usecase.RegistryUseCase
	planUC     *usecase.PlanUseCase
	intentUC   *usecase.IntentUseCase
	subUC      *usecase.SubscriptionUseCase

	auth       *AuthManager
	limiter    *red.RateLimiter
	rateLimit  int
	rateWindow time.Duration
	log        *zerolog.Logger
}

func NewServer(
	registryUC *usecase.RegistryUseCase,
	planUC *usecase.PlanUseCase,
	intentUC *usecase.IntentUseCase,
	subUC *usecase.SubscriptionUseCase,
	auth *AuthManager,
	limiter *red.RateLimiter,
	rateLimit int,
	rateWindow time.Duration,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "web").Logger()
	return &Server{
		registryUC: registryUC,
		planUC:     planUC,
		intentUC:   intentUC,
		subUC:      subUC,
		auth:       auth,
		limiter:    limiter,
		rateLimit:  rateLimit,
		rateWindow: rateWindow,
		log:        &l,
	}
}

// Router builds the chi routing tree. /healthz and /metrics are open;
// everything under /api/v1 requires a verified identity.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(s.traceID, s.requestLog, s.recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(s.authenticate, s.rateLimited)

		r.Route("/registry", func(r chi.Router) {
			r.Post("/init", s.handleRegistryInit)
			r.Post("/pause", s.handleSetPaused)
			r.Get("/", s.handleRegistryGet)
		})

		r.Route("/plans", func(r chi.Router) {
			r.Post("/", s.handlePlanCreate)
			r.Get("/", s.handlePlanList)
			r.Get("/{planID}", s.handlePlanGet)
			r.Patch("/{planID}", s.handlePlanUpdate)
		})

		r.Route("/intents", func(r chi.Router) {
			r.Post("/", s.handleIntentCreate)
			r.Get("/{intentID}", s.handleIntentGet)
			r.Post("/{intentID}/fulfill", s.handleIntentFulfill)
			r.Post("/{intentID}/cancel", s.handleIntentCancel)
		})

		r.Route("/subscriptions", func(r chi.Router) {
			r.Post("/", s.handleSubscriptionCreate)
			r.Get("/", s.handleSubscriptionList)
			r.Get("/{subscriptionID}", s.handleSubscriptionGet)
			r.Delete("/{subscriptionID}", s.handleSubscriptionCancel)
			r.Post("/{subscriptionID}/payments", s.handleProcessPayment)
		})

		r.Get("/payments", s.handlePaymentList)
	})

	return r
}

// ---- middleware ----

func (s *Server) traceID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.WithTraceID(r.Context(), uuid.NewString())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) requestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		l := logging.With(r.Context(), s.log)
		start := time.Now()
		ww := &respWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(ww, r)
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.status).
			Dur("duration", time.Since(start)).
			Msg("http_request")
	})
}

func (s *Server) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				s.log.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("handler panic")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := s.auth.ParseFromRequest(r)
		if err != nil {
			writeError(w, "Unauthenticated", http.StatusUnauthorized, "missing or invalid token")
			return
		}
		ctx := logging.WithCaller(r.Context(), identity)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) rateLimited(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.limiter == nil || s.rateLimit <= 0 {
			next.ServeHTTP(w, r)
			return
		}
		caller := logging.Caller(r.Context())
		ok, err := s.limiter.Allow(r.Context(), red.CallerKey(caller, "api"), s.rateLimit, s.rateWindow)
		if err != nil {
			// Redis trouble must not take the API down.
			s.log.Warn().Err(err).Msg("rate limiter unavailable")
			next.ServeHTTP(w, r)
			return
		}
		if !ok {
			writeError(w, "RateLimited", http.StatusTooManyRequests, "too many requests")
			return
		}
		next.ServeHTTP(w, r)
	})
}

type respWriter struct {
	http.ResponseWriter
	status int
}

func (w *respWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
