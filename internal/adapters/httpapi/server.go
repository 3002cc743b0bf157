package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/bnema/lumiere-ledger/internal/adapters/identity"
	"github.com/bnema/lumiere-ledger/internal/application"
	"github.com/bnema/lumiere-ledger/internal/domain"
	"github.com/bnema/lumiere-ledger/internal/ports"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	logging "github.com/ipfs/go-log/v2"
)

var log = logging.Logger("lm-http")

const (
	HeaderActor  = "X-Actor-ID"
	HeaderTenant = "X-Tenant-ID"
	HeaderRole   = "X-Actor-Role"
)

type Services struct {
	Market    *application.MarketplaceService
	Feedback  *application.TrainingFeedbackAggregator
	Identity  ports.IdentityResolver
	MessageID func() string
	Version   string
}

// Server maps the marketplace operations onto a JSON API. Requests run one at a time:
// the application layer assumes a single writer.
type Server struct {
	svc     Services
	router  chi.Router
	mu      sync.Mutex
	started time.Time
}

type identityKey struct{}

func New(svc Services) *Server {
	s := &Server{svc: svc, started: time.Now()}
	s.routes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		r.Group(func(r chi.Router) {
			r.Use(s.serialize)
			r.Use(s.identify)

			r.Route("/tokens", func(r chi.Router) {
				r.Post("/mint", s.handleMint)
				r.Post("/list", s.handleList)
				r.Post("/buy", s.handleBuy)
				r.Post("/rent", s.handleRent)
				r.Post("/train", s.handleTrain)
			})
			r.Get("/marketplace", s.handleMarketplace)
			r.Get("/state", s.handleState)
			r.Get("/chain/verify", s.handleVerify)
			r.Post("/interactions", s.handleInteraction)
			r.Post("/ratings", s.handleRating)
		})
	})

	s.router = r
}

func (s *Server) serialize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

func (s *Server) identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		who, err := s.svc.Identity.Resolve(r.Context(), map[string]string{
			identity.KeyActor:  r.Header.Get(HeaderActor),
			identity.KeyTenant: r.Header.Get(HeaderTenant),
			identity.KeyRole:   r.Header.Get(HeaderRole),
		})
		if err != nil {
			writeError(w, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), identityKey{}, who)))
	})
}

func identityFrom(ctx context.Context) domain.Identity {
	who, _ := ctx.Value(identityKey{}).(domain.Identity)
	return who
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.svc.Version,
		"uptime":  time.Since(s.started).Seconds(),
		"network": domain.Network,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warnw("encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Errorw("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{
		"error": err.Error(),
		"kind":  string(domain.KindOf(err)),
	})
}

func statusFor(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindConflict:
		return http.StatusConflict
	case domain.KindAuthorization:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
