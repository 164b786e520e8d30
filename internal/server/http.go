package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/joseph-ayodele/claims-tracker/constants"
	"github.com/joseph-ayodele/claims-tracker/internal/claim"
	"github.com/joseph-ayodele/claims-tracker/internal/common"
	"github.com/joseph-ayodele/claims-tracker/internal/entity"
	"github.com/joseph-ayodele/claims-tracker/internal/pipeline"
	"github.com/joseph-ayodele/claims-tracker/internal/repository"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HTTPConfig tunes the HTTP transport.
type HTTPConfig struct {
	RatePerSec     float64
	RateBurst      int
	MaxUploadMB    int
	RequestTimeout time.Duration
}

type HTTPServer struct {
	e      *echo.Echo
	deps   Deps
	cfg    HTTPConfig
	logger *slog.Logger
}

// UploadResponse is the body of a successful upload or classify call.
type UploadResponse struct {
	Status        string        `json:"status"`
	ID            uuid.UUID     `json:"id"`
	Persisted     bool          `json:"persisted"`
	ExtractedData claim.Result  `json:"extractedData"`
	Extraction    *extractionVM `json:"extraction,omitempty"`
}

type extractionVM struct {
	Method     string   `json:"method"`
	Pages      int      `json:"pages"`
	Confidence float32  `json:"confidence"`
	Cached     bool     `json:"cached"`
	Warnings   []string `json:"warnings,omitempty"`
}

type errorBody struct {
	Detail string `json:"detail"`
}

type classifyTextRequest struct {
	Text       string `json:"text"`
	SourceName string `json:"sourceName"`
}

type listResponse struct {
	Claims []*entity.Claim `json:"claims"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

func NewHTTPServer(cfg HTTPConfig, deps Deps) *HTTPServer {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = 20
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 2 * time.Minute
	}
	s := &HTTPServer{e: echo.New(), deps: deps, cfg: cfg, logger: deps.logger()}
	s.e.HideBanner = true
	s.e.HidePort = true
	s.e.HTTPErrorHandler = s.handleError

	s.e.Use(middleware.Recover())
	s.e.Use(middleware.RequestID())
	s.e.Use(middleware.CORSWithConfig(middleware.CORSConfig{AllowOrigins: []string{"*"}}))
	s.e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			s.logger.Info("http.request",
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency_ms", v.Latency.Milliseconds(),
				"request_id", v.RequestID,
			)
			return nil
		},
	}))

	s.e.GET("/", s.root)
	s.e.GET("/health", s.health)

	api := s.e.Group("/api/claims",
		NewLimiter(cfg.RatePerSec, cfg.RateBurst).Middleware(),
		middleware.BodyLimit(fmt.Sprintf("%dM", cfg.MaxUploadMB)),
	)
	api.POST("/upload", s.upload)
	api.POST("/classify", s.classifyRecord)
	api.POST("/classify-text", s.classifyText)
	api.GET("", s.listClaims)
	api.GET("/stats", s.stats)
	api.GET("/export", s.export)
	api.GET("/:id", s.getClaim)
	return s
}

// Handler exposes the router, mainly for httptest.
func (s *HTTPServer) Handler() http.Handler { return s.e }

// Start blocks serving on addr until Shutdown.
func (s *HTTPServer) Start(addr string) error {
	s.logger.Info("http server listening", "addr", addr)
	if err := s.e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	return s.e.Shutdown(ctx)
}

func (s *HTTPServer) requestContext(c echo.Context) (context.Context, context.CancelFunc) {
	ctx := common.WithRequestID(c.Request().Context(), c.Response().Header().Get(echo.HeaderXRequestID))
	return common.WithTimeout(ctx, s.cfg.RequestTimeout)
}

func (s *HTTPServer) root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"message": "Insurance Fraud Detection API",
		"status":  "running",
	})
}

func (s *HTTPServer) health(c echo.Context) error {
	return c.JSON(http.StatusOK, s.deps.health())
}

func (s *HTTPServer) upload(c echo.Context) error {
	fh, err := c.FormFile("file")
	if err != nil {
		return common.NewAppError(common.CodeBadRequest, "multipart field 'file' is required", common.ErrInvalidInput)
	}
	f, err := fh.Open()
	if err != nil {
		return fmt.Errorf("open upload: %w", err)
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return fmt.Errorf("read upload: %w", err)
	}

	ctx, cancel := s.requestContext(c)
	defer cancel()
	out, err := s.deps.Processor.ProcessDocument(ctx, fh.Filename, data)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUploadResponse(out))
}

func (s *HTTPServer) classifyRecord(c echo.Context) error {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return fmt.Errorf("read body: %w", err)
	}
	rec, err := claim.DecodeJSON(body)
	if err != nil {
		return err
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	out := s.deps.Processor.ClassifyRecord(ctx, &entity.Claim{Result: claim.Result{Record: rec}})
	return c.JSON(http.StatusOK, toUploadResponse(out))
}

func (s *HTTPServer) classifyText(c echo.Context) error {
	var req classifyTextRequest
	if err := c.Bind(&req); err != nil {
		return common.NewAppError(common.CodeBadRequest, "malformed request body", common.ErrInvalidInput)
	}
	if req.SourceName == "" {
		req.SourceName = "text"
	}
	ctx, cancel := s.requestContext(c)
	defer cancel()
	out, err := s.deps.Processor.ClassifyText(ctx, req.Text, req.SourceName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toUploadResponse(out))
}

func (s *HTTPServer) listClaims(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}
	f, err := parseListFilter(c)
	if err != nil {
		return err
	}
	claims, err := s.deps.Claims.List(c.Request().Context(), f)
	if err != nil {
		return err
	}
	if claims == nil {
		claims = []*entity.Claim{}
	}
	if f.Limit <= 0 {
		f.Limit = repository.DefaultListLimit
	}
	return c.JSON(http.StatusOK, listResponse{Claims: claims, Limit: f.Limit, Offset: f.Offset})
}

func (s *HTTPServer) getClaim(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return common.NewAppError(common.CodeBadRequest, "id must be a UUID", common.ErrInvalidInput)
	}
	cl, err := s.deps.Claims.Get(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, cl)
}

func (s *HTTPServer) stats(c echo.Context) error {
	if err := s.requireHistory(); err != nil {
		return err
	}
	st, err := s.deps.Claims.Stats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, st)
}

func (s *HTTPServer) export(c echo.Context) error {
	if err := s.requireHistory(); err != nil || s.deps.Exporter == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "claim history is disabled")
	}
	f, err := parseListFilter(c)
	if err != nil {
		return err
	}
	data, err := s.deps.Exporter.ExportClaimsXLSX(c.Request().Context(), f)
	if err != nil {
		return err
	}
	name := fmt.Sprintf("claims-%s.xlsx", time.Now().UTC().Format("20060102-150405"))
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", name))
	return c.Blob(http.StatusOK, xlsxContentType, data)
}

func (s *HTTPServer) requireHistory() error {
	if s.deps.Claims == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "claim history is disabled")
	}
	return nil
}

// maxListLimit bounds a single page of claim history.
const maxListLimit = 500

func parseListFilter(c echo.Context) (repository.ListFilter, error) {
	var f repository.ListFilter
	if raw := strings.TrimSpace(c.QueryParam("status")); raw != "" && !strings.EqualFold(raw, "all") {
		st, ok := constants.ParseStatus(raw)
		if !ok {
			return f, common.NewAppError(common.CodeBadRequest, fmt.Sprintf("unknown status %q", raw), common.ErrInvalidInput)
		}
		f.Status = st
	}
	f.Query = strings.TrimSpace(c.QueryParam("q"))

	intParam := func(name string) (int, error) {
		raw := c.QueryParam(name)
		if raw == "" {
			return 0, nil
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			return 0, common.NewAppError(common.CodeBadRequest, name+" must be an integer", common.ErrInvalidInput)
		}
		return n, nil
	}
	var err error
	if f.Limit, err = intParam("limit"); err != nil {
		return f, err
	}
	if f.Offset, err = intParam("offset"); err != nil {
		return f, err
	}
	v := common.NewValidator().
		Field("limit", f.Limit, common.NonNegative, common.MaxInt(maxListLimit)).
		Field("offset", f.Offset, common.NonNegative)
	return f, common.ValidateAndReturnError(v)
}

func toUploadResponse(out *pipeline.Outcome) UploadResponse {
	resp := UploadResponse{
		Status:        "success",
		ID:            out.Claim.ID,
		Persisted:     out.Persisted,
		ExtractedData: out.Claim.Result,
	}
	if x := out.Extraction; x != nil {
		resp.Extraction = &extractionVM{
			Method:     x.Method,
			Pages:      x.Pages,
			Confidence: x.Confidence,
			Cached:     x.Cached,
			Warnings:   x.Warnings,
		}
	}
	return resp
}

// handleError maps pipeline errors onto status codes: input errors are 400,
// missing claims 404, anything else a generic 500.
func (s *HTTPServer) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	msg := "unexpected error while processing claim"

	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		code = he.Code
		msg = fmt.Sprint(he.Message)
	case common.IsInputError(err):
		code = http.StatusBadRequest
		msg = publicMessage(err)
	case errors.Is(err, common.ErrNotFound):
		code = http.StatusNotFound
		msg = "claim not found"
	default:
		s.logger.Error("http.request.failed", "uri", c.Request().RequestURI, "error", err)
	}

	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorBody{Detail: msg})
	}
	if err != nil {
		s.logger.Warn("http.error.write_failed", "error", err)
	}
}

func publicMessage(err error) string {
	var ae *common.AppError
	if errors.As(err, &ae) {
		if ae.Cause != nil {
			return ae.Message + ": " + ae.Cause.Error()
		}
		return ae.Message
	}
	return err.Error()
}
