package httpserver

import (
	"encoding/json"
	"log/slog"
	"net/http"

	deedservice "covenant/contexts/agreements-core/deed-service"
	fulfillmentservice "covenant/contexts/agreements-core/fulfillment-service"
	campaignservice "covenant/contexts/campaign-lifecycle/campaign-service"
	offerservice "covenant/contexts/campaign-lifecycle/offer-service"
	authorizationservice "covenant/contexts/identity-access/authorization-service"
	disputeservice "covenant/contexts/moderation-safety/dispute-service"
	_ "covenant/internal/platform/httpserver/docs"
	"covenant/internal/platform/identity"
	"covenant/internal/platform/ratelimit"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux           *http.ServeMux
	logger        *slog.Logger
	addr          string
	identity      identity.Resolver
	limiter       ratelimit.Limiter
	campaigns     campaignservice.Module
	offers        offerservice.Module
	deeds         deedservice.Module
	fulfillment   fulfillmentservice.Module
	disputes      disputeservice.Module
	authorization authorizationservice.Module
}

func New(
	campaigns campaignservice.Module,
	offers offerservice.Module,
	deeds deedservice.Module,
	fulfillment fulfillmentservice.Module,
	disputes disputeservice.Module,
	authorizationModule authorizationservice.Module,
	identityResolver identity.Resolver,
	limiter ratelimit.Limiter,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}
	if limiter == nil {
		limiter = ratelimit.NewMemoryLimiter(0, 0)
	}

	s := &Server{
		mux:           http.NewServeMux(),
		logger:        logger,
		addr:          addr,
		identity:      identityResolver,
		limiter:       limiter,
		campaigns:     campaigns,
		offers:        offers,
		deeds:         deeds,
		fulfillment:   fulfillment,
		disputes:      disputes,
		authorization: authorizationModule,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /campaigns", s.limited(s.handleCreateCampaign))
	s.mux.HandleFunc("GET /campaigns", s.handleListCampaigns)
	s.mux.HandleFunc("GET /campaigns/{campaign_id}", s.handleGetCampaign)
	s.mux.HandleFunc("POST /campaigns/{campaign_id}/submit", s.limited(s.handleSubmitCampaign))
	s.mux.HandleFunc("POST /campaigns/{campaign_id}/publish", s.limited(s.handlePublishCampaign))
	s.mux.HandleFunc("POST /campaigns/{campaign_id}/transition", s.limited(s.handleTransitionCampaign))
	s.mux.HandleFunc("POST /campaigns/{campaign_id}/pledges", s.limited(s.handleSubmitPledge))
	s.mux.HandleFunc("GET /campaigns/{campaign_id}/threshold", s.handleThresholdStatus)
	s.mux.HandleFunc("POST /campaigns/{campaign_id}/select-supplier", s.limited(s.handleSelectOffer))
	s.mux.HandleFunc("GET /campaigns/{campaign_id}/offers", s.handleListOffers)

	s.mux.HandleFunc("POST /supplier-offers", s.limited(s.handleSubmitOffer))
	s.mux.HandleFunc("GET /supplier-offers/{offer_id}", s.handleGetOffer)
	s.mux.HandleFunc("POST /supplier-offers/{offer_id}/sign", s.limited(s.handleSignOffer))

	s.mux.HandleFunc("POST /deeds", s.limited(s.handleCreateDeed))
	s.mux.HandleFunc("GET /deeds/{deed_id}", s.handleGetDeed)
	s.mux.HandleFunc("GET /deeds/{deed_id}/history", s.handleDeedHistory)
	s.mux.HandleFunc("POST /deeds/{deed_id}/open", s.limited(s.handleOpenDeed))
	s.mux.HandleFunc("POST /deeds/{deed_id}/sign", s.limited(s.handleSignDeed))
	s.mux.HandleFunc("POST /deeds/{deed_id}/amend", s.limited(s.handleAmendDeed))
	s.mux.HandleFunc("POST /deeds/{deed_id}/void", s.limited(s.handleVoidDeed))

	s.mux.HandleFunc("GET /assignments/{assignment_id}", s.handleGetAssignment)
	s.mux.HandleFunc("GET /assignments/{assignment_id}/events", s.handleListFulfillmentEvents)
	s.mux.HandleFunc("POST /assignments/{assignment_id}/milestones", s.limited(s.handleCreateMilestone))
	s.mux.HandleFunc("POST /milestones/{milestone_id}/update", s.limited(s.handleUpdateMilestone))
	s.mux.HandleFunc("POST /milestones/{milestone_id}/confirm", s.limited(s.handleConfirmMilestone))

	s.mux.HandleFunc("POST /disputes", s.limited(s.handleOpenDispute))
	s.mux.HandleFunc("GET /disputes/{dispute_id}", s.handleGetDispute)

	s.mux.HandleFunc("POST /admin/campaigns/{campaign_id}/moderate", s.limited(s.handleModerateCampaign))
	s.mux.HandleFunc("POST /admin/disputes/{dispute_id}/resolve", s.limited(s.handleResolveDispute))

	s.mux.HandleFunc("POST /api/authz/v1/check", s.handleAuthzCheck)
	s.mux.HandleFunc("GET /api/authz/v1/users/{user_id}/roles", s.handleAuthzListUserRoles)
	s.mux.HandleFunc("POST /api/authz/v1/users/{user_id}/roles/grant", s.limited(s.handleAuthzGrantRole))
	s.mux.HandleFunc("POST /api/authz/v1/users/{user_id}/roles/revoke", s.limited(s.handleAuthzRevokeRole))
}

// limited applies the shared rate limit to mutating routes, keyed by the
// caller identity when present and the client address otherwise.
func (s *Server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		key := resolveClientIP(r)
		if user, ok := s.identity.Resolve(r); ok {
			key = user.ID
		}
		allowed, err := s.limiter.Allow(r.Context(), key)
		if err != nil {
			// The limiter backend being down must not take writes down
			// with it.
			s.logger.Warn("rate limiter unavailable",
				"event", "rate_limiter_unavailable",
				"module", "internal/platform/httpserver",
				"layer", "platform",
				"error", err,
			)
			allowed = true
		}
		if !allowed {
			writePlatformError(w, http.StatusTooManyRequests, "rate_limited", "too many requests")
			return
		}
		next(w, r)
	}
}

func (s *Server) requireUser(w http.ResponseWriter, r *http.Request) (identity.User, bool) {
	user, ok := s.identity.Resolve(r)
	if !ok {
		writePlatformError(w, http.StatusUnauthorized, "missing_user", "a bearer token or X-User-Id header is required")
		return identity.User{}, false
	}
	return user, true
}

type platformErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writePlatformError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, platformErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		return forwarded
	}
	return r.RemoteAddr
}
