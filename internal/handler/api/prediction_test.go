package api

import (
	"bytes"
	"encoding/json"
	"image/png"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CosmicOptic/internal/domain/models"
	"CosmicOptic/internal/middleware"
	"CosmicOptic/internal/repository"
	"CosmicOptic/internal/services/classify"
	"CosmicOptic/internal/services/explain"
	"CosmicOptic/internal/services/lightcurve"
	"CosmicOptic/internal/usecase"
	xhttp "CosmicOptic/pkg/http"
	xlogger "CosmicOptic/pkg/logger"
	"CosmicOptic/pkg/metrics"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEcho(t *testing.T, opts ...Option) *echo.Echo {
	t.Helper()
	catalog, err := repository.NewMemoryCatalog([]models.Sample{
		{
			ID: "kepler-186f", Name: "Kepler-186f", Description: "Earth-sized planet in the habitable zone",
			Truth: models.TruthConfirmed,
			Params: models.SampleParams{
				PeriodDays:      models.Float(130),
				TransitDuration: models.Float(2),
				PlanetRadius:    models.Float(1.1),
			},
		},
		{ID: "noise-003", Name: "NOISE-003", Description: "Instrumental noise", Truth: models.TruthFalsePositive},
	})
	require.NoError(t, err)

	svc := usecase.NewPredictionService(catalog,
		lightcurve.New(lightcurve.WithSeed(1)),
		classify.NewResolver(),
		explain.New(),
		metrics.New(metrics.WithRegisterer(prometheus.NewRegistry())),
	)
	e := echo.New()
	NewPredictionHandler(xlogger.Nop(), svc, opts...).RegisterRoutes(e)
	return e
}

type envelope struct {
	Status  int             `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func do(t *testing.T, e *echo.Echo, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	var env envelope
	if strings.HasPrefix(rec.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON) {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	}
	return rec, env
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return req
}

func TestHealth(t *testing.T) {
	e := newTestEcho(t)
	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var h Health
	require.NoError(t, json.Unmarshal(env.Data, &h))
	assert.Equal(t, "operational", h.Status)
	assert.Equal(t, ServiceName, h.Service)
	assert.Equal(t, usecase.DefaultModelVersion, h.ModelStatus)
}

func TestPredict(t *testing.T) {
	e := newTestEcho(t)
	rec, env := do(t, e, jsonRequest(http.MethodPost, "/api/predict", `{"sample_id":"kepler-186f"}`))
	require.Equal(t, http.StatusOK, rec.Code)

	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "kepler-186f", res.SampleID)
	assert.Equal(t, models.LabelExoplanet, res.Classification)
	assert.Len(t, res.LightCurveData, lightcurve.DefaultNumPoints)
	assert.NotNil(t, res.SHAPExplanation)
}

func TestPredict_Errors(t *testing.T) {
	e := newTestEcho(t)

	rec, env := do(t, e, jsonRequest(http.MethodPost, "/api/predict", `{"sample_id":"unknown-999"}`))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, http.StatusNotFound, env.Status)
	assert.Contains(t, string(env.Data), "Sample unknown-999 not found")

	rec, env = do(t, e, jsonRequest(http.MethodPost, "/api/predict", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var verrs []xhttp.ValidationError
	require.NoError(t, json.Unmarshal(env.Data, &verrs))
	require.Len(t, verrs, 1)
	assert.Equal(t, "ERR_REQUIRED", verrs[0].Code)
}

func uploadRequest(t *testing.T, filename string, size int) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(bytes.Repeat([]byte("1"), size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/predict/upload", &body)
	req.Header.Set(echo.HeaderContentType, mw.FormDataContentType())
	return req
}

func TestUpload(t *testing.T) {
	e := newTestEcho(t, WithMaxUploadBytes(1024))

	rec, env := do(t, e, uploadRequest(t, "lc.CSV", 100))
	require.Equal(t, http.StatusOK, rec.Code)
	var res models.AnalysisResult
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Contains(t, []string{"kepler-186f", "noise-003"}, res.SampleID)

	rec, env = do(t, e, uploadRequest(t, "lc.png", 100))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_FILE_TYPE")

	rec, env = do(t, e, uploadRequest(t, "lc.fits", 2048))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, string(env.Data), "ERR_FILE_SIZE")

	rec, _ = do(t, e, jsonRequest(http.MethodPost, "/api/predict/upload", `{}`))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSamples_NoTruth(t *testing.T) {
	e := newTestEcho(t)
	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/api/samples", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var list []models.SampleSummary
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 2)
	assert.Equal(t, "kepler-186f", list[0].ID)
	assert.NotContains(t, string(env.Data), "truth")
}

func TestModelMetrics(t *testing.T) {
	e := newTestEcho(t)
	rec, env := do(t, e, httptest.NewRequest(http.MethodGet, "/api/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var card ModelCard
	require.NoError(t, json.Unmarshal(env.Data, &card))
	assert.Equal(t, 0.92, card.Accuracy)
	assert.Equal(t, 847, card.TotalPredictions)
	assert.Equal(t, usecase.DefaultModelVersion, card.ModelVersion)
}

func TestLightCurvePNG(t *testing.T) {
	e := newTestEcho(t)
	rec, _ := do(t, e, httptest.NewRequest(http.MethodGet, "/api/samples/kepler-186f/lightcurve.png?width=300&height=150", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))

	img, err := png.Decode(rec.Body)
	require.NoError(t, err)
	assert.Equal(t, 300, img.Bounds().Dx())

	rec, _ = do(t, e, httptest.NewRequest(http.MethodGet, "/api/samples/nope/lightcurve.png", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, e, httptest.NewRequest(http.MethodGet, "/api/samples/kepler-186f/lightcurve.png?width=10", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRateLimitedPredict(t *testing.T) {
	e := newTestEcho(t, WithRateLimit(middleware.RateLimit(middleware.NewTokenBucket(1, 0), xlogger.Nop())))

	rec, _ := do(t, e, jsonRequest(http.MethodPost, "/api/predict", `{"sample_id":"noise-003"}`))
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = do(t, e, jsonRequest(http.MethodPost, "/api/predict", `{"sample_id":"noise-003"}`))
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)

	rec, _ = do(t, e, httptest.NewRequest(http.MethodGet, "/api/samples", nil))
	assert.Equal(t, http.StatusOK, rec.Code, "listing is not limited")
}

func TestStreamPredict(t *testing.T) {
	srv := httptest.NewServer(newTestEcho(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/predict?sample_id=kepler-186f&chunk=250"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var (
		kinds  []string
		points int
	)
	for {
		var f usecase.StreamFrame
		require.NoError(t, conn.ReadJSON(&f))
		kinds = append(kinds, f.Type)
		if f.Type == usecase.FrameChunk {
			assert.Equal(t, points, f.Offset)
			points += len(f.Flux)
		}
		if f.Type == usecase.FrameDone {
			break
		}
	}
	assert.Equal(t, []string{"meta", "chunk", "chunk", "chunk", "chunk", "explanation", "done"}, kinds)
	assert.Equal(t, lightcurve.DefaultNumPoints, points)
}

func TestStreamPredict_UnknownSample(t *testing.T) {
	srv := httptest.NewServer(newTestEcho(t))
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws/predict?sample_id=missing"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	var f streamError
	require.NoError(t, conn.ReadJSON(&f))
	assert.Equal(t, "error", f.Type)
	assert.Equal(t, http.StatusNotFound, f.Status)
}

func TestStreamPredict_MissingID(t *testing.T) {
	e := newTestEcho(t)
	rec, _ := do(t, e, httptest.NewRequest(http.MethodGet, "/api/ws/predict", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
