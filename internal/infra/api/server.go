package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"circles-platform/internal/config"
	"circles-platform/internal/domain/model"
	"circles-platform/internal/infra/logging"
	"circles-platform/internal/infra/preview"
	red "circles-platform/internal/infra/redis"
	"circles-platform/internal/usecase"
)

// Server exposes the billing bridge and circle endpoints. Every endpoint is
// a POST accepting JSON with a bearer token, answering 200 with a JSON body
// or 500 with {"error": ...}; responses carry permissive CORS headers.
type Server struct {
	cfg        *config.Config
	billingUC  *usecase.BillingUseCase
	transferUC *usecase.TransferUseCase
	dirUC      *usecase.DirectoryUseCase
	capUC      *usecase.CapacityUseCase
	fetcher    *preview.Fetcher
	limiter    *red.RateLimiter
	log        *zerolog.Logger
}

func NewServer(
	cfg *config.Config,
	billingUC *usecase.BillingUseCase,
	transferUC *usecase.TransferUseCase,
	dirUC *usecase.DirectoryUseCase,
	capUC *usecase.CapacityUseCase,
	fetcher *preview.Fetcher,
	limiter *red.RateLimiter,
	logger *zerolog.Logger,
) *Server {
	l := logger.With().Str("component", "APIServer").Logger()
	return &Server{
		cfg:        cfg,
		billingUC:  billingUC,
		transferUC: transferUC,
		dirUC:      dirUC,
		capUC:      capUC,
		fetcher:    fetcher,
		limiter:    limiter,
		log:        &l,
	}
}

// Router assembles the chi router with the middleware stack.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()

	common := []Middleware{
		CORS(),
		TraceID(),
		RequestLog(s.log),
		Recover(s.log),
		Timeout(s.cfg.Server.RequestTimeout),
		BearerAuth(s.cfg.Auth.JWTSecret),
		RateLimit(s.limiter, s.cfg.RateLimit.Requests, s.cfg.RateLimit.Window, s.log),
	}
	wrap := func(h http.HandlerFunc) http.Handler { return Chain(h, common...) }

	r.Method(http.MethodPost, "/verify-checkout", wrap(s.handleVerifyCheckout))
	r.Method(http.MethodPost, "/downgrade-subscription", wrap(s.handleDowngrade))
	r.Method(http.MethodPost, "/cancel-downgrade", wrap(s.handleCancelDowngrade))
	r.Method(http.MethodPost, "/reactivate-subscription", wrap(s.handleReactivate))
	r.Method(http.MethodPost, "/preview-upgrade", wrap(s.handlePreviewUpgrade))
	r.Method(http.MethodPost, "/cleanup-rescue-offers", wrap(s.handleCleanup))
	r.Method(http.MethodPost, "/fetch-link-preview", wrap(s.handleLinkPreview))

	r.Method(http.MethodGet, "/circles", wrap(s.handleListCircles))
	r.Method(http.MethodPost, "/circles/{circleID}/claim", wrap(s.handleClaim))
	r.Method(http.MethodPost, "/circles/{circleID}/select", wrap(s.handleSelect))
	r.Method(http.MethodGet, "/notifications", wrap(s.handleNotifications))

	// Preflight for every route.
	r.MethodFunc(http.MethodOptions, "/*", func(w http.ResponseWriter, req *http.Request) {
		CORS()(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {})).ServeHTTP(w, req)
	})

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError follows the bridge contract: HTTP 500 with {"error": msg}.
func writeError(w http.ResponseWriter, msg string) {
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": msg})
}

func (s *Server) handleVerifyCheckout(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	var body struct {
		SessionID string `json:"sessionId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "invalid request body")
		return
	}
	res, err := s.billingUC.VerifyCheckout(r.Context(), caller, body.SessionID)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleDowngrade(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	res, err := s.billingUC.Downgrade(r.Context(), caller)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"pending_plan":       res.PendingPlan,
		"current_period_end": res.CurrentPeriodEnd,
	})
}

func (s *Server) handleCancelDowngrade(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	res, err := s.billingUC.CancelDowngrade(r.Context(), caller)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"plan":               res.Plan,
		"current_period_end": res.CurrentPeriodEnd,
	})
}

func (s *Server) handleReactivate(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	end, err := s.billingUC.Reactivate(r.Context(), caller)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":            true,
		"current_period_end": end,
	})
}

func (s *Server) handlePreviewUpgrade(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	var body struct {
		PriceID string `json:"priceId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "invalid request body")
		return
	}
	res, err := s.billingUC.PreviewUpgrade(r.Context(), caller, body.PriceID)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleCleanup(w http.ResponseWriter, r *http.Request) {
	n, err := s.transferUC.ExpireSweep(r.Context())
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}

func (s *Server) handleLinkPreview(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, "invalid request body")
		return
	}
	p, err := s.fetcher.Fetch(r.Context(), body.URL)
	if err != nil {
		// A malformed URL is the caller's mistake; network trouble already
		// degraded to an empty preview inside the fetcher.
		writeError(w, err.Error())
		return
	}
	if p.IsZero() {
		writeJSON(w, http.StatusOK, struct{}{})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type circleView struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	OwnerID       string               `json:"owner_id"`
	State         model.CircleState    `json:"state"`
	Capacity      model.CapacityStatus `json:"capacity"`
	Banners       []model.Banner       `json:"banners,omitempty"`
	TransferBlock bool                 `json:"transfer_block"`
}

func (s *Server) handleListCircles(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	circles, err := s.dirUC.LoadForUser(r.Context(), caller)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	selected, err := s.dirUC.Selected(r.Context(), caller)
	if err != nil {
		logging.With(r.Context(), s.log).Warn().Err(err).Msg("selected circle lookup failed")
	}

	views := make([]circleView, 0, len(circles))
	for _, c := range circles {
		status, err := s.capUC.EvaluateForCircle(r.Context(), c.ID)
		if err != nil {
			writeError(w, err.Error())
			return
		}
		readOnly, err := s.transferUC.ReadOnly(r.Context(), c)
		if err != nil {
			writeError(w, err.Error())
			return
		}
		state, err := s.transferUC.StateFor(r.Context(), c, readOnly)
		if err != nil {
			writeError(w, err.Error())
			return
		}
		views = append(views, circleView{
			ID:            c.ID,
			Name:          c.Name,
			OwnerID:       c.OwnerID,
			State:         state,
			Capacity:      status,
			Banners:       usecase.BannersFor(c, caller, readOnly),
			TransferBlock: c.TransferBlock,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"circles":  views,
		"selected": selected,
	})
}

func (s *Server) handleClaim(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	circleID := chi.URLParam(r, "circleID")
	circle, err := s.transferUC.Claim(r.Context(), caller, circleID)
	if err != nil {
		// domain.ErrCircleLimitReached passes its sentinel token through for
		// clients to map to an upgrade prompt; everything else is verbatim.
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"circle":   circle.ID,
		"owner_id": circle.OwnerID,
	})
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	circleID := chi.URLParam(r, "circleID")
	if err := s.dirUC.Select(r.Context(), caller, circleID); err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	caller, _ := CallerID(r.Context())
	list, err := s.transferUC.Notifications(r.Context(), caller, 50)
	if err != nil {
		writeError(w, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": list})
}
