package api

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/priyansh/tender-match/internal/ai"
	"github.com/priyansh/tender-match/internal/auth"
	"github.com/priyansh/tender-match/internal/config"
	"github.com/priyansh/tender-match/internal/db"
	"github.com/priyansh/tender-match/internal/extract"
	"github.com/priyansh/tender-match/internal/ingest"
	"github.com/priyansh/tender-match/internal/match"
	"github.com/priyansh/tender-match/internal/models"
)

type Server struct {
	Store       *db.Store
	AuthService *auth.Service
	Echo        *echo.Echo
	DB          *pgxpool.Pool
	AI          *ai.OllamaClient

	oracle    *ai.Oracle
	extractor *extract.DocumentExtractor
	ingestor  *ingest.Ingestor
	registry  *ingest.Registry
	workers   int
}

var (
	adminSecretOnce    sync.Once
	adminSecretRuntime string
	adminSecretErr     error
)

func NewServer(pool *pgxpool.Pool, cfg config.Config) *Server {
	e := echo.New()
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept, echo.HeaderAuthorization, "X-Admin-Secret"},
	}))

	store := db.NewStore(pool)
	aiClient := ai.NewOllamaClient(cfg.Ollama.Host, cfg.Ollama.EmbedModel, cfg.Ollama.GenModel)

	registry, err := ingest.LoadRegistry("")
	if err != nil {
		log.Printf("source registry unavailable: %v", err)
	}

	s := &Server{
		DB:          pool,
		Store:       store,
		AuthService: auth.NewService(pool),
		Echo:        e,
		AI:          aiClient,
		oracle:      ai.NewOracle(aiClient),
		extractor:   extract.NewDocumentExtractor(),
		ingestor:    ingest.NewIngestor(store, aiClient),
		registry:    registry,
		workers:     cfg.Match.Workers,
	}

	s.routes()
	return s
}

func (s *Server) routes() {
	s.Echo.GET("/health", s.handleHealth)
	api := s.Echo.Group("/api/v1")

	// Auth
	api.POST("/auth/signup", s.handleSignup)
	api.POST("/auth/login", s.handleLogin)

	// Companies
	api.POST("/companies", s.handleRegisterCompany)
	api.GET("/companies", s.handleListCompanies)
	api.GET("/companies/:id", s.handleGetCompany)

	// Tenders
	api.POST("/tenders", s.handleUpsertTender)
	api.GET("/tenders", s.handleListTenders)
	api.GET("/tenders/:id", s.handleGetTender)

	// Matching
	api.GET("/match/summary", s.handleMatchSummary)
	api.POST("/match/run", s.handleMatchRun)
	api.POST("/match/tender", s.handleMatchTender)

	// Admin (scraping)
	admin := api.Group("")
	admin.Use(s.adminMiddleware)
	admin.POST("/ingest/source/:id", s.handleScrapeSource)

	// Protected (saved tenders)
	saved := api.Group("/saved")
	saved.Use(auth.Middleware)
	saved.POST("/:id", s.handleSaveTender)
	saved.DELETE("/:id", s.handleUnsaveTender)
	saved.GET("", s.handleGetSavedTenders)
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

// Auth handlers

func (s *Server) handleSignup(c echo.Context) error {
	var req auth.SignupRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(req.Email) == "" || len(req.Password) < 8 {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Email and a password of at least 8 characters are required"})
	}

	resp, err := s.AuthService.Signup(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrUserExists {
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

	resp, err := s.AuthService.Login(c.Request().Context(), req)
	if err != nil {
		if err == auth.ErrInvalidCreds {
			return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Invalid credentials"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, resp)
}

// Company handlers

func (s *Server) handleRegisterCompany(c echo.Context) error {
	var company models.Company
	if err := c.Bind(&company); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}
	if strings.TrimSpace(company.Name) == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Company name is required"})
	}

	id, err := s.Store.CreateCompany(c.Request().Context(), &company)
	if err != nil {
		c.Logger().Errorf("Failed to register company: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusCreated, map[string]string{"id": id.String()})
}

func (s *Server) handleListCompanies(c echo.Context) error {
	companies, err := s.Store.ListCompanies(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if companies == nil {
		companies = []db.CompanySummary{}
	}
	return c.JSON(http.StatusOK, companies)
}

func (s *Server) handleGetCompany(c echo.Context) error {
	company, err := s.Store.GetCompany(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, match.ErrCompanyNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Company not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, company)
}

// Tender handlers

func (s *Server) handleUpsertTender(c echo.Context) error {
	var raw ingest.RawTender
	if err := c.Bind(&raw); err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid request"})
	}

	id, err := s.ingestor.Ingest(c.Request().Context(), raw)
	if err != nil {
		if strings.Contains(err.Error(), "form_url") {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		c.Logger().Errorf("Failed to upsert tender: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}

	return c.JSON(http.StatusOK, map[string]string{"id": id.String()})
}

func (s *Server) handleListTenders(c echo.Context) error {
	ctx := c.Request().Context()

	// Semantic search takes over when q is present.
	if q := c.QueryParam("q"); q != "" {
		limit := 20
		if l, err := strconv.Atoi(c.QueryParam("limit")); err == nil && l > 0 && l <= 100 {
			limit = l
		}

		vec, err := s.AI.GenerateEmbedding(ctx, q)
		if err != nil {
			c.Logger().Errorf("Failed to generate query embedding: %v", err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Semantic search unavailable"})
		}

		tenders, err := s.Store.SearchTenders(ctx, vec, limit)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		if tenders == nil {
			tenders = []models.Tender{}
		}
		return c.JSON(http.StatusOK, tenders)
	}

	tenders, err := s.Store.FindTenders(ctx, parseTenderFilters(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	if tenders == nil {
		tenders = []models.Tender{}
	}
	return c.JSON(http.StatusOK, tenders)
}

func (s *Server) handleGetTender(c echo.Context) error {
	tender, err := s.Store.GetTender(c.Request().Context(), c.Param("id"))
	if err != nil {
		if errors.Is(err, match.ErrTenderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Tender not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
	return c.JSON(http.StatusOK, tender)
}

// parseTenderFilters reads the corpus filter query parameters shared by the
// tender list and the matching endpoints.
func parseTenderFilters(c echo.Context) match.TenderFilters {
	filters := match.TenderFilters{
		Location:  c.QueryParam("location"),
		Category:  c.QueryParam("category"),
		Institute: c.QueryParam("institute"),
	}
	if raw := c.QueryParam("deadline_before"); raw != "" {
		for _, format := range []string{time.RFC3339, "2006-01-02"} {
			if t, err := time.Parse(format, raw); err == nil {
				filters.BeforeDeadline = &t
				break
			}
		}
	}
	return filters
}

// Matching handlers

func (s *Server) handleMatchSummary(c echo.Context) error {
	ctx := c.Request().Context()
	companyID := c.QueryParam("company_id")
	if companyID == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "company_id is required"})
	}

	company, err := s.Store.GetCompany(ctx, companyID)
	if err != nil {
		return s.matchError(c, err)
	}

	total, err := s.Store.CountTenders(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	tenders, err := s.Store.FindTenders(ctx, parseTenderFilters(c))
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	candidates, err := match.FilterByCategory(ctx, s.oracle, company, tenders)
	if err != nil {
		return s.matchError(c, err)
	}
	if candidates == nil {
		candidates = []models.Tender{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"company_id":            companyID,
		"total_tenders":         total,
		"after_category_filter": len(candidates),
		"tenders":               candidates,
	})
}

func (s *Server) handleMatchRun(c echo.Context) error {
	ctx := c.Request().Context()
	companyID := c.QueryParam("company_id")

	orch := match.NewOrchestrator(s.Store, s.oracle, s.extractor, s.AI, s.workers)
	results, err := orch.Run(ctx, companyID, parseTenderFilters(c))
	if err != nil {
		return s.matchError(c, err)
	}
	if results == nil {
		results = []models.MatchResult{}
	}

	// Cache results for later single-tender lookups; failures only log.
	for _, r := range results {
		if err := s.Store.SaveMatchResult(ctx, companyID, r); err != nil {
			c.Logger().Errorf("Failed to cache match result for tender %s: %v", r.TenderID, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"company_id": companyID,
		"matches":    len(results),
		"results":    results,
	})
}

func (s *Server) handleMatchTender(c echo.Context) error {
	ctx := c.Request().Context()
	companyID := c.QueryParam("company_id")
	formURL := c.QueryParam("form_url")
	if companyID == "" || formURL == "" {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "company_id and form_url are required"})
	}
	force := strings.EqualFold(c.QueryParam("force"), "true")

	company, err := s.Store.GetCompany(ctx, companyID)
	if err != nil {
		return s.matchError(c, err)
	}

	tender, err := s.Store.GetTenderByFormURL(ctx, formURL)
	if err != nil {
		if errors.Is(err, match.ErrTenderNotFound) {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "Tender not found"})
		}
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	if !force {
		cached, err := s.Store.GetMatchResult(ctx, companyID, tender.ID.String())
		if err != nil {
			c.Logger().Errorf("Failed to read cached match result: %v", err)
		} else if cached != nil {
			return c.JSON(http.StatusOK, map[string]interface{}{"cached": true, "result": cached})
		}
	}

	resolver := match.NewResolver(s.Store, s.extractor, s.AI)
	ok, err := resolver.Resolve(ctx, tender)
	if err != nil {
		return s.matchError(c, err)
	}
	if !ok {
		return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "No eligibility criteria could be extracted for this tender"})
	}

	result, err := match.Score(ctx, s.oracle, tender.StructuredEligibility, company)
	if err != nil {
		return s.matchError(c, err)
	}
	result.TenderID = tender.ID.String()
	result.TenderTitle = tender.Title
	result.ReferenceNumber = tender.ReferenceNumber
	result.FormURL = tender.FormURL

	if err := s.Store.SaveMatchResult(ctx, companyID, result); err != nil {
		c.Logger().Errorf("Failed to cache match result: %v", err)
	}

	return c.JSON(http.StatusOK, map[string]interface{}{"cached": false, "result": result})
}

// matchError maps matching pipeline errors onto HTTP statuses.
func (s *Server) matchError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, match.ErrCompanyNotFound):
		return c.JSON(http.StatusNotFound, map[string]string{"error": "Company not found"})
	case errors.Is(err, match.ErrInvalidInput):
		return c.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, ai.ErrUnavailable):
		return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "Similarity backend unavailable"})
	default:
		c.Logger().Errorf("Matching failed: %v", err)
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Internal Server Error"})
	}
}

// Admin handlers

func (s *Server) handleScrapeSource(c echo.Context) error {
	if s.registry == nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Source registry unavailable"})
	}

	source, err := s.registry.Find(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusNotFound, map[string]string{"error": err.Error()})
	}
	cfg := *source

	// Optional listing URL override, validated against internal addresses.
	if override := c.QueryParam("url"); override != "" {
		if err := validatePublicURL(override); err != nil {
			return c.JSON(http.StatusForbidden, map[string]string{"error": err.Error()})
		}
		cfg.BaseURL = override
	}

	stats, err := s.ingestor.ScrapeSource(c.Request().Context(), cfg)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"message": fmt.Sprintf("%s scrape complete", cfg.ID),
		"stats":   stats,
	})
}

func validatePublicURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return fmt.Errorf("invalid URL scheme")
	}
	host := strings.ToLower(u.Hostname())
	if host == "" {
		return fmt.Errorf("URL host is required")
	}
	if host == "localhost" || host == "127.0.0.1" || host == "::1" || strings.HasSuffix(host, ".local") {
		return fmt.Errorf("internal network access forbidden")
	}

	ips, err := net.LookupIP(host)
	if err != nil || len(ips) == 0 {
		return fmt.Errorf("unable to resolve URL host")
	}
	for _, ip := range ips {
		if isPrivateOrSpecialIP(ip) {
			return fmt.Errorf("internal network access forbidden")
		}
	}
	return nil
}

func isPrivateOrSpecialIP(ip net.IP) bool {
	if ip == nil {
		return true
	}
	if ip.IsLoopback() || ip.IsPrivate() || ip.IsUnspecified() || ip.IsMulticast() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() {
		return true
	}

	if ip4 := ip.To4(); ip4 != nil {
		if ip4[0] == 100 && ip4[1]&0xC0 == 64 {
			return true
		}
		if ip4[0] == 169 && ip4[1] == 254 {
			return true
		}
	}

	return false
}

// Protected handlers

func (s *Server) handleSaveTender(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid tender ID"})
	}

	if err := s.AuthService.SaveTender(ctx, userID, tenderID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to save tender"})
	}

	return c.NoContent(http.StatusOK)
}

func (s *Server) handleUnsaveTender(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	tenderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return c.JSON(http.StatusBadRequest, map[string]string{"error": "Invalid tender ID"})
	}

	if err := s.AuthService.UnsaveTender(ctx, userID, tenderID); err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to unsave tender"})
	}

	return c.JSON(http.StatusOK, map[string]string{"status": "unsaved"})
}

func (s *Server) handleGetSavedTenders(c echo.Context) error {
	ctx := c.Request().Context()
	userID, err := auth.GetUserIDFromContext(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
	}

	ids, err := s.AuthService.ListSavedTenderIDs(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch saved tenders"})
	}

	tenders := []models.Tender{}
	for _, id := range ids {
		tender, err := s.Store.GetTender(ctx, id.String())
		if err != nil {
			if errors.Is(err, match.ErrTenderNotFound) {
				continue
			}
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Failed to fetch saved tenders"})
		}
		tenders = append(tenders, *tender)
	}

	return c.JSON(http.StatusOK, tenders)
}

func (s *Server) Start(port string) error {
	return s.Echo.Start(":" + port)
}

func (s *Server) adminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		secret, err := adminSecret()
		if err != nil {
			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "Server admin configuration error"})
		}

		// Check X-Admin-Secret header or Bearer token
		authHeader := c.Request().Header.Get("Authorization")
		adminHeader := c.Request().Header.Get("X-Admin-Secret")

		if adminHeader == secret {
			return next(c)
		}
		if len(authHeader) > 7 && strings.EqualFold(authHeader[:7], "Bearer ") {
			if authHeader[7:] == secret {
				return next(c)
			}
		}

		return c.JSON(http.StatusUnauthorized, map[string]string{"error": "Unauthorized admin access"})
	}
}

func adminSecret() (string, error) {
	adminSecretOnce.Do(func() {
		secret := strings.TrimSpace(os.Getenv("ADMIN_SECRET"))
		if secret != "" {
			adminSecretRuntime = secret
			return
		}

		buf := make([]byte, 48)
		if _, err := rand.Read(buf); err != nil {
			adminSecretErr = fmt.Errorf("failed to generate ADMIN_SECRET fallback: %w", err)
			return
		}

		adminSecretRuntime = base64.RawURLEncoding.EncodeToString(buf)
		log.Print("ADMIN_SECRET is not set; using ephemeral in-memory fallback secret")
	})

	if adminSecretErr != nil {
		return "", adminSecretErr
	}
	if adminSecretRuntime == "" {
		return "", fmt.Errorf("admin secret unavailable")
	}

	return adminSecretRuntime, nil
}
