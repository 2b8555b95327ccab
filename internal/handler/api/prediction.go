package api

import (
	"context"
	"errors"
	"net/http"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"CosmicOptic/internal/domain/models"
	domrepo "CosmicOptic/internal/domain/repository"
	"CosmicOptic/internal/usecase"
	xhttp "CosmicOptic/pkg/http"
	xlogger "CosmicOptic/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	ServiceName    = "CosmicOptic API"
	ServiceVersion = "1.0.0"

	DefaultMaxUploadBytes = 10 << 20
)

// AllowedUploadExtensions are the file types the upload endpoint accepts.
var AllowedUploadExtensions = []string{".csv", ".fits", ".txt", ".json"}

// Health is the body of GET /.
type Health struct {
	Status      string `json:"status"`
	Service     string `json:"service"`
	Version     string `json:"version"`
	ModelStatus string `json:"model_status"`
}

// ModelCard is the static performance summary served on /api/metrics.
type ModelCard struct {
	Accuracy         float64 `json:"accuracy"`
	Precision        float64 `json:"precision"`
	Recall           float64 `json:"recall"`
	F1Score          float64 `json:"f1_score"`
	TotalPredictions int     `json:"total_predictions"`
	ExoplanetsFound  int     `json:"exoplanets_found"`
	FalsePositives   int     `json:"false_positives"`
	ValidationDate   string  `json:"validation_date"`
	ModelVersion     string  `json:"model_version"`
	Dataset          string  `json:"dataset"`
}

type streamError struct {
	Type    string `json:"type"`
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// PredictionHandler serves the analysis endpoints over Echo.
type PredictionHandler struct {
	logger      *xlogger.Logger
	svc         *usecase.PredictionService
	demoDelay   time.Duration
	maxUpload   int64
	streamChunk int
	limit       []echo.MiddlewareFunc
	upgrader    websocket.Upgrader
}

type Option func(*PredictionHandler)

// WithDemoDelay holds predict responses for d to mimic model latency.
func WithDemoDelay(d time.Duration) Option {
	return func(h *PredictionHandler) { h.demoDelay = d }
}

func WithMaxUploadBytes(n int64) Option {
	return func(h *PredictionHandler) {
		if n > 0 {
			h.maxUpload = n
		}
	}
}

func WithStreamChunk(n int) Option {
	return func(h *PredictionHandler) {
		if n > 0 {
			h.streamChunk = n
		}
	}
}

// WithRateLimit guards the analysis routes with mw.
func WithRateLimit(mw echo.MiddlewareFunc) Option {
	return func(h *PredictionHandler) {
		if mw != nil {
			h.limit = append(h.limit, mw)
		}
	}
}

// WithAllowedOrigins restricts websocket upgrades to the given origins.
// Requests without an Origin header are always accepted.
func WithAllowedOrigins(origins []string) Option {
	return func(h *PredictionHandler) {
		if len(origins) == 0 || slices.Contains(origins, "*") {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || slices.Contains(origins, o)
		}
	}
}

func NewPredictionHandler(logger *xlogger.Logger, svc *usecase.PredictionService, opts ...Option) *PredictionHandler {
	h := &PredictionHandler{
		logger:      logger,
		svc:         svc,
		maxUpload:   DefaultMaxUploadBytes,
		streamChunk: usecase.DefaultChunkSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 << 10,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.logger == nil {
		h.logger = xlogger.Nop()
	}
	return h
}

func (h *PredictionHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Health)

	g := e.Group("/api")
	g.POST("/predict", h.Predict, h.limit...)
	g.POST("/predict/upload", h.Upload, h.limit...)
	g.GET("/samples", h.Samples)
	g.GET("/samples/:id/lightcurve.png", h.LightCurvePNG, h.limit...)
	g.GET("/metrics", h.ModelMetrics)
	g.GET("/ws/predict", h.StreamPredict, h.limit...)
}

func (h *PredictionHandler) Health(c echo.Context) error {
	return xhttp.SuccessResponse(c, Health{
		Status:      "operational",
		Service:     ServiceName,
		Version:     ServiceVersion,
		ModelStatus: h.svc.ModelVersion(),
	})
}

func (h *PredictionHandler) Predict(c echo.Context) error {
	req := &models.PredictRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	ctx := c.Request().Context()
	if err := h.wait(ctx); err != nil {
		return h.fail(c, req.SampleID, err)
	}

	res, err := h.svc.Predict(ctx, req.SampleID)
	if err != nil {
		return h.fail(c, req.SampleID, err)
	}
	return xhttp.SuccessResponse(c, res)
}

// Upload checks the file type and size and answers with the analysis of a
// random catalog sample. The file content is not read.
func (h *PredictionHandler) Upload(c echo.Context) error {
	// multipart framing adds a little on top of the file itself
	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, h.maxUpload+1<<20)

	fh, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return xhttp.AppErrorResponse(c, h.tooLarge())
		}
		return xhttp.AppErrorResponse(c, xhttp.BadRequestError("multipart field \"file\" is required").WithError(err))
	}

	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !slices.Contains(AllowedUploadExtensions, ext) {
		return xhttp.AppErrorResponse(c, xhttp.NewAppError("ERR_FILE_TYPE", "file",
			"Invalid file type. Allowed: "+strings.Join(AllowedUploadExtensions, ", "), http.StatusBadRequest).
			WithParam("extension", ext))
	}
	if fh.Size > h.maxUpload {
		return xhttp.AppErrorResponse(c, h.tooLarge())
	}

	ctx := c.Request().Context()
	if err := h.wait(ctx); err != nil {
		return h.fail(c, "", err)
	}
	res, err := h.svc.PredictRandom(ctx)
	if err != nil {
		return h.fail(c, "", err)
	}
	h.logger.Info("upload analyzed",
		xlogger.String("filename", fh.Filename),
		xlogger.Int64("size", fh.Size),
		xlogger.String("sample_id", res.SampleID),
	)
	return xhttp.SuccessResponse(c, res)
}

func (h *PredictionHandler) tooLarge() *xhttp.AppError {
	return xhttp.NewAppError("ERR_FILE_SIZE", "file", "File too large", http.StatusBadRequest).
		WithParam("max_bytes", h.maxUpload)
}

func (h *PredictionHandler) Samples(c echo.Context) error {
	list, err := h.svc.Samples(c.Request().Context())
	if err != nil {
		h.logger.Error("list samples failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=300")
	return xhttp.SuccessResponse(c, list)
}

func (h *PredictionHandler) ModelMetrics(c echo.Context) error {
	return xhttp.SuccessResponse(c, ModelCard{
		Accuracy:         0.92,
		Precision:        0.89,
		Recall:           0.94,
		F1Score:          0.91,
		TotalPredictions: 847,
		ExoplanetsFound:  312,
		FalsePositives:   89,
		ValidationDate:   "2025-10-05",
		ModelVersion:     h.svc.ModelVersion(),
		Dataset:          "Kepler + K2 + TESS",
	})
}

func (h *PredictionHandler) LightCurvePNG(c echo.Context) error {
	req := &models.PlotRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	b, err := h.svc.PlotLightCurve(c.Request().Context(), req.ID, req.Width, req.Height)
	if err != nil {
		return h.fail(c, req.ID, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "private, max-age=60")
	return c.Blob(http.StatusOK, "image/png", b)
}

// StreamPredict upgrades to a websocket and sends the analysis as a series
// of frames. Failures after the upgrade are reported as an error frame.
func (h *PredictionHandler) StreamPredict(c echo.Context) error {
	id := c.QueryParam("sample_id")
	if id == "" {
		return xhttp.BadRequestResponse(c, []xhttp.ValidationError{{
			Code:    "ERR_REQUIRED",
			Field:   "sample_id",
			Message: "sample_id is required",
		}})
	}
	chunk := xhttp.ClampInt(c.QueryParam("chunk"), h.streamChunk, 10, 1000)

	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	ctx := c.Request().Context()
	err = h.svc.Stream(ctx, id, chunk, func(f usecase.StreamFrame) error {
		_ = conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
		return conn.WriteJSON(f)
	})
	if err != nil {
		status, msg := h.classify(id, err)
		_ = conn.WriteJSON(streamError{Type: "error", Status: status, Message: msg})
	}
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
		time.Now().Add(time.Second))
	return nil
}

func (h *PredictionHandler) wait(ctx context.Context) error {
	if h.demoDelay <= 0 {
		return nil
	}
	t := time.NewTimer(h.demoDelay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (h *PredictionHandler) classify(id string, err error) (int, string) {
	switch {
	case errors.Is(err, domrepo.ErrSampleNotFound):
		return http.StatusNotFound, "Sample " + id + " not found"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable, "request canceled"
	default:
		h.logger.Error("prediction failed", xlogger.String("sample_id", id), xlogger.Error(err))
		return http.StatusInternalServerError, "Something went wrong"
	}
}

func (h *PredictionHandler) fail(c echo.Context, id string, err error) error {
	status, msg := h.classify(id, err)
	switch status {
	case http.StatusNotFound:
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(msg).WithError(err))
	case http.StatusServiceUnavailable:
		return xhttp.AppErrorResponse(c, xhttp.UnavailableError(msg).WithError(err))
	default:
		return xhttp.InternalServerErrorResponse(c)
	}
}

var _ xhttp.Handler = (*PredictionHandler)(nil)
