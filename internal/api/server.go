package api

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/avenir/tender-board/internal/approval"
	"github.com/avenir/tender-board/internal/auth"
	"github.com/avenir/tender-board/internal/db"
	"github.com/avenir/tender-board/internal/ingest"
	"github.com/avenir/tender-board/internal/models"
	"github.com/avenir/tender-board/internal/source"
)

// Options carries everything the server needs, injected explicitly so tests
// can swap pieces and nothing reads the environment at request time.
type Options struct {
	Store         *db.Store
	AuthService   *auth.Service
	Approvals     *approval.Service
	Pipeline      *ingest.Pipeline
	SourceFactory *source.Factory
	AdminSecret   string
	CORSOrigins   []string
}

type Server struct {
	Echo *echo.Echo

	store       *db.Store
	authService *auth.Service
	approvals   *approval.Service
	pipeline    *ingest.Pipeline
	sources     *source.Factory
}

func NewServer(opts Options) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	origins := opts.CORSOrigins
	if len(origins) == 0 {
		origins = []string{"http://localhost:4200"}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: origins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	s := &Server{
		Echo:        e,
		store:       opts.Store,
		authService: opts.AuthService,
		approvals:   opts.Approvals,
		pipeline:    opts.Pipeline,
		sources:     opts.SourceFactory,
	}

	s.routes(opts.AdminSecret)
	return s
}

func (s *Server) routes(adminSecret string) {
	s.Echo.GET("/health", s.handleHealth)

	api := s.Echo.Group("/api/v1")
	api.GET("/opportunities", s.handleListOpportunities)
	api.GET("/opportunities/:id", s.handleGetOpportunity)
	api.GET("/stats", s.handleGetStats)
	api.GET("/aggregations", s.handleGetAggregations)

	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Approval state is readable by any signed-in user; transitions require
	// an approval-capable role.
	approvals := api.Group("/approvals")
	approvals.Use(s.authService.Middleware)
	approvals.GET("", s.handleApprovalSnapshot)
	approvals.GET("/:refNo", s.handleApprovalStatus)
	approvals.GET("/:refNo/logs", s.handleApprovalLogs)

	transitions := api.Group("/approvals")
	transitions.Use(s.authService.RequireRole(models.RoleSVP, models.RoleProposalHead, models.RoleAdmin))
	transitions.POST("/:refNo/approve", s.handleApprove)
	transitions.POST("/:refNo/revert", s.handleRevert)

	admin := api.Group("/admin")
	admin.Use(auth.AdminSecretMiddleware(adminSecret))
	admin.POST("/sync", s.handleTriggerSync)
	admin.GET("/sync/config", s.handleGetSyncConfig)
	admin.PUT("/sync/config", s.handleSaveSyncConfig)
	admin.GET("/sync/runs", s.handleListSyncRuns)
	admin.DELETE("/approvals", s.handleClearApprovals)
	admin.GET("/notification-rules", s.handleListRules)
	admin.POST("/notification-rules", s.handleCreateRule)
	admin.PATCH("/notification-rules/:id", s.handleSetRuleActive)
	admin.DELETE("/notification-rules/:id", s.handleDeleteRule)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and a password of at least 8 characters are required"})
	}

	resp, err := s.authService.Signup(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrUserExists) {
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, resp)
}

func (s *Server) handleLogin(c echo.Context) error {
	var req auth.LoginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	resp, err := s.authService.Login(c.Request().Context(), req)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCreds) {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, resp)
}

func (s *Server) handleListOpportunities(c echo.Context) error {
	params := db.ListParams{
		Query:   c.QueryParam("q"),
		Stage:   c.QueryParam("stage"),
		Group:   c.QueryParam("group"),
		Country: c.QueryParam("country"),
		Status:  c.QueryParam("status"),
		Lead:    c.QueryParam("lead"),
		SortBy:  c.QueryParam("sort"),
	}
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 {
		params.Limit = l
	}
	if o, err := strconv.Atoi(c.QueryParam("offset")); err == nil && o >= 0 {
		params.Offset = o
	}
	if v, err := strconv.ParseFloat(c.QueryParam("min_value"), 64); err == nil && v > 0 {
		params.MinValue = v
	}
	if v, err := strconv.ParseFloat(c.QueryParam("max_value"), 64); err == nil && v > 0 {
		params.MaxValue = v
	}
	if raw := c.QueryParam("imputed"); raw != "" {
		val := raw == "true"
		params.Imputed = &val
	}

	result, err := s.store.ListOpportunities(c.Request().Context(), params)
	if err != nil {
		c.Logger().Errorf("Failed to list opportunities: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	// An empty dataset usually means the sync source was never set up; say
	// so instead of leaving the dashboard silently blank.
	if result.Total == 0 {
		if cfg, cfgErr := s.store.GetSyncConfig(c.Request().Context()); cfgErr == nil && !source.Configured(cfg) {
			return c.JSON(http.StatusOK, map[string]any{
				"opportunities": result.Opportunities,
				"total":         0,
				"limit":         result.Limit,
				"offset":        result.Offset,
				"hint":          "No sync source is configured yet. Set one up under /api/v1/admin/sync/config.",
			})
		}
	}

	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetOpportunity(c echo.Context) error {
	id := c.Param("id")

	var opp *models.Opportunity
	var err error
	if _, parseErr := uuid.Parse(id); parseErr == nil {
		opp, err = s.store.GetOpportunity(c.Request().Context(), id)
	} else {
		opp, err = s.store.GetOpportunityByRefNo(c.Request().Context(), id)
	}
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Not found"})
	}
	return c.JSON(http.StatusOK, opp)
}

func (s *Server) handleGetStats(c echo.Context) error {
	stats, err := s.store.GetStats(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, stats)
}

func (s *Server) handleGetAggregations(c echo.Context) error {
	aggs, err := s.store.GetAggregations(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, aggs)
}

// Approvals

func (s *Server) handleApprovalSnapshot(c echo.Context) error {
	snap, err := s.approvals.Snapshot(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleApprovalStatus(c echo.Context) error {
	a, err := s.approvals.Status(c.Request().Context(), c.Param("refNo"))
	if err != nil {
		if errors.Is(err, approval.ErrInvalidRefNo) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, a)
}

func (s *Server) handleApprovalLogs(c echo.Context) error {
	limit := 100
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 {
		limit = l
	}
	logs, err := s.approvals.Logs(c.Request().Context(), c.Param("refNo"), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if logs == nil {
		logs = []models.ApprovalLog{}
	}
	return c.JSON(http.StatusOK, logs)
}

func (s *Server) actorFromContext(c echo.Context) (approval.Actor, error) {
	claims, err := auth.CallerFromContext(c)
	if err != nil {
		return approval.Actor{}, err
	}
	name := c.QueryParam("as")
	if name == "" {
		name = claims.UserID.String()
	}
	return approval.Actor{Name: name, Role: claims.Role, Group: claims.Group}, nil
}

func (s *Server) handleApprove(c echo.Context) error {
	actor, err := s.actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	// The service hands back the full approvals map plus log list so the
	// dashboard refreshes in one round trip.
	snap, err := s.approvals.Approve(c.Request().Context(), c.Param("refNo"), actor)
	if err != nil {
		if errors.Is(err, approval.ErrInvalidRefNo) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, snap)
}

func (s *Server) handleRevert(c echo.Context) error {
	actor, err := s.actorFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	snap, err := s.approvals.Revert(c.Request().Context(), c.Param("refNo"), actor)
	if err != nil {
		if errors.Is(err, approval.ErrInvalidRefNo) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, snap)
}

// Admin: sync

func (s *Server) handleTriggerSync(c echo.Context) error {
	ctx := c.Request().Context()

	cfg, err := s.store.GetSyncConfig(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	src, err := s.sources.FromConfig(ctx, cfg)
	if err != nil {
		if errors.Is(err, ingest.ErrNotConfigured) {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	result, err := s.pipeline.Sync(ctx, cfg, src)
	if err != nil {
		switch {
		case errors.Is(err, ingest.ErrSyncInFlight):
			return c.JSON(http.StatusConflict, map[string]string{"error": err.Error()})
		case errors.Is(err, ingest.ErrNotConfigured):
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		default:
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
	}
	return c.JSON(http.StatusOK, result)
}

func (s *Server) handleGetSyncConfig(c echo.Context) error {
	cfg, err := s.store.GetSyncConfig(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, cfg)
}

func (s *Server) handleSaveSyncConfig(c echo.Context) error {
	var cfg models.SyncConfig
	if err := c.Bind(&cfg); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	switch cfg.SourceKind {
	case models.SourceSheets, models.SourceGraph, models.SourceWorkbook, "":
	default:
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Unknown source kind"})
	}
	if cfg.HeaderOffset < 0 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Header offset must not be negative"})
	}

	if err := s.store.SaveSyncConfig(c.Request().Context(), cfg); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	saved, err := s.store.GetSyncConfig(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, saved)
}

func (s *Server) handleListSyncRuns(c echo.Context) error {
	limit := 50
	if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 {
		limit = l
	}
	runs, err := s.store.ListSyncRuns(c.Request().Context(), limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if runs == nil {
		runs = []models.SyncRun{}
	}
	return c.JSON(http.StatusOK, runs)
}

func (s *Server) handleClearApprovals(c echo.Context) error {
	if err := s.store.ClearApprovals(c.Request().Context()); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, map[string]string{"message": "All approvals cleared"})
}

// Admin: notification rules

func (s *Server) handleListRules(c echo.Context) error {
	rules, err := s.store.ListRules(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if rules == nil {
		rules = []models.NotificationRule{}
	}
	return c.JSON(http.StatusOK, rules)
}

func (s *Server) handleCreateRule(c echo.Context) error {
	var rule models.NotificationRule
	if err := c.Bind(&rule); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if rule.Trigger == "" || rule.RecipientRole == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Trigger and recipient role are required"})
	}

	created, err := s.store.CreateRule(c.Request().Context(), rule)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusCreated, created)
}

func (s *Server) handleSetRuleActive(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid rule ID"})
	}

	var req struct {
		Active bool `json:"active"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	if err := s.store.SetRuleActive(c.Request().Context(), id, req.Active); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) handleDeleteRule(c echo.Context) error {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid rule ID"})
	}
	if err := s.store.DeleteRule(c.Request().Context(), id); err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	return c.NoContent(http.StatusNoContent)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}
