package api

import (
	"context"
	"encoding/json"
	"errors"
	"math/rand/v2"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/ledger"
	"github.com/Skufu/medidose/internal/metrics"
	"github.com/Skufu/medidose/internal/recommend"
	"github.com/Skufu/medidose/internal/scoring"
)

type fakeDB struct {
	err error
}

func (f fakeDB) Ping(ctx context.Context) error {
	return f.err
}

func newTestRouter(t *testing.T, db HealthChecker, cfg RouterConfig) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	engine := scoring.NewDosageEngine(scoring.DefaultAgePolicy())
	l, err := ledger.NewSimulated(ledger.SimulatedConfig{Network: "mumbai"}, rand.New(rand.NewPCG(1, 1)), zap.NewNop())
	if err != nil {
		t.Fatalf("ledger: %v", err)
	}
	history := recommend.NewMemoryHistory()
	assembler := recommend.NewAssembler(recommend.Deps{
		Predictor: recommend.NewRuleBased(engine),
		Engine:    engine,
		Scorer:    scoring.NewDiseaseScorer(),
		Ledger:    l,
		History:   history,
		Metrics:   cfg.Metrics,
	}, zap.NewNop())

	return NewRouter(NewHandler(assembler, history, l, zap.NewNop()), db, cfg, zap.NewNop())
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	router.ServeHTTP(w, req)
	return w
}

const predictionBody = `{
	"patient": {"id": "P1000", "age": 30, "gender": "male", "weight": 70, "height": 170,
		"geneticMarkers": [], "medicalHistory": [], "currentMedications": []},
	"drugName": "ibuprofen"
}`

func TestRouterHealthz(t *testing.T) {
	router := newTestRouter(t, fakeDB{}, RouterConfig{})

	w := do(router, "GET", "/healthz", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"status":"ok"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

func TestRouterReadyz(t *testing.T) {
	w := do(newTestRouter(t, nil, RouterConfig{}), "GET", "/readyz", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"db":"disabled"`) {
		t.Fatalf("expected disabled db, got %d %s", w.Code, w.Body.String())
	}

	w = do(newTestRouter(t, fakeDB{err: errors.New("connection refused")}, RouterConfig{}), "GET", "/readyz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), "degraded") {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
}

// Ensure limitBodySize middleware allows small payloads and blocks large ones.
func TestLimitBodySize(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(limitBodySize(10))
	router.POST("/echo", func(c *gin.Context) {
		_, err := c.GetRawData()
		if err != nil {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "too large"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	t.Run("within limit", func(t *testing.T) {
		w := do(router, "POST", "/echo", "12345")
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", w.Code)
		}
	})

	t.Run("over limit", func(t *testing.T) {
		w := do(router, "POST", "/echo", "01234567890")
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Fatalf("expected 413, got %d", w.Code)
		}
	})
}

func TestPredictionLifecycle(t *testing.T) {
	router := newTestRouter(t, nil, RouterConfig{})

	w := do(router, "POST", "/api/predictions", predictionBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var created recommend.PredictionResult
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.RecommendedDosage != 400 || created.Status != recommend.StatusCompleted {
		t.Fatalf("unexpected prediction: %+v", created)
	}

	w = do(router, "GET", "/api/predictions/"+created.ID, "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), created.BlockchainHash) {
		t.Fatalf("expected stored prediction, got %d %s", w.Code, w.Body.String())
	}

	w = do(router, "GET", "/api/predictions", "")
	var list []recommend.PredictionResult
	if err := json.Unmarshal(w.Body.Bytes(), &list); err != nil || len(list) != 1 {
		t.Fatalf("expected one prediction, got %s", w.Body.String())
	}

	w = do(router, "GET", "/api/predictions/stats", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"mostPrescribedDrug":"ibuprofen"`) {
		t.Fatalf("unexpected stats: %d %s", w.Code, w.Body.String())
	}

	w = do(router, "GET", "/api/verify/"+created.BlockchainHash, "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected verified record, got %d %s", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"verified":true`) || !strings.Contains(body, "https://mumbai.polygonscan.com/tx/"+created.BlockchainTxHash) {
		t.Fatalf("unexpected verification: %s", body)
	}
}

func TestPredictionNotFound(t *testing.T) {
	router := newTestRouter(t, nil, RouterConfig{})

	if w := do(router, "GET", "/api/predictions/pred_missing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
	if w := do(router, "GET", "/api/verify/0xmissing", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestPredictionValidation(t *testing.T) {
	router := newTestRouter(t, nil, RouterConfig{})

	tests := []struct {
		name string
		body string
		code int
	}{
		{"bad json", `{"patient":`, http.StatusBadRequest},
		{"missing drug", `{"patient": {"id": "P1", "age": 30, "gender": "male", "weight": 70, "height": 170}}`, http.StatusUnprocessableEntity},
		{"age out of range", strings.Replace(predictionBody, `"age": 30`, `"age": 130`, 1), http.StatusUnprocessableEntity},
		{"unknown marker", strings.Replace(predictionBody, `"geneticMarkers": []`, `"geneticMarkers": ["CYP9Z9"]`, 1), http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, "POST", "/api/predictions", tt.body)
			if w.Code != tt.code {
				t.Fatalf("expected %d, got %d: %s", tt.code, w.Code, w.Body.String())
			}
			if tt.code == http.StatusUnprocessableEntity && !strings.Contains(w.Body.String(), "validation_failed") {
				t.Fatalf("expected validation error response, got %s", w.Body.String())
			}
		})
	}
}

func TestDiagnose(t *testing.T) {
	router := newTestRouter(t, nil, RouterConfig{})

	w := do(router, "POST", "/api/diagnoses", `{
		"patient": {"id": "P2", "age": 40, "gender": "female", "weight": 60, "height": 165,
			"symptoms": ["Cough", "Fever", "Sore throat"]}
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var d recommend.Diagnosis
	if err := json.Unmarshal(w.Body.Bytes(), &d); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if d.Disease != scoring.Influenza || d.Source != scoring.SourceRules {
		t.Fatalf("unexpected diagnosis: %+v", d.DiagnosisResult)
	}
	if d.PersonalisedDiet.DailyCalories == 0 {
		t.Fatalf("expected personalised diet, got %+v", d.PersonalisedDiet)
	}

	w = do(router, "POST", "/api/diagnoses", `{"patient": {"id": "P2", "age": 40, "gender": "female", "weight": 60, "height": 165, "symptoms": ["Hiccups"]}}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for unknown symptom, got %d", w.Code)
	}
}

func TestPlanDiet(t *testing.T) {
	router := newTestRouter(t, nil, RouterConfig{})

	w := do(router, "POST", "/api/diagnoses/diet", `{
		"patient": {"id": "P3", "age": 45, "gender": "male", "weight": 80, "height": 180},
		"diagnosis": "Hypertension",
		"probability": 0.85
	}`)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"type":"Low Sodium"`) {
		t.Fatalf("expected low sodium plan, got %s", w.Body.String())
	}

	w = do(router, "POST", "/api/diagnoses/diet", `{"patient": {"id": "P3", "age": 45, "gender": "male", "weight": 80, "height": 180}, "diagnosis": "Hypertension", "probability": 2}`)
	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected 422 for probability out of range, got %d", w.Code)
	}
}

func TestCatalog(t *testing.T) {
	w := do(newTestRouter(t, nil, RouterConfig{}), "GET", "/api/catalog", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	for _, want := range []string{"ibuprofen", "CYP2D6 - Poor Metabolizer", "Common Cold"} {
		if !strings.Contains(w.Body.String(), want) {
			t.Fatalf("catalog missing %q: %s", want, w.Body.String())
		}
	}
}

func TestRateLimit(t *testing.T) {
	router := newTestRouter(t, nil, RouterConfig{RateLimit: 1})

	if w := do(router, "GET", "/api/catalog", ""); w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	w := do(router, "GET", "/api/catalog", "")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}
	if w := do(router, "GET", "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("health checks must not be limited, got %d", w.Code)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	router := newTestRouter(t, nil, RouterConfig{Metrics: m})

	do(router, "POST", "/api/predictions", predictionBody)
	w := do(router, "GET", "/metrics", "")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `medidose_predictions_total{drug="ibuprofen",source="rules",status="completed"} 1`) {
		t.Fatalf("prediction counter missing: %s", w.Body.String())
	}

	if w := do(newTestRouter(t, nil, RouterConfig{}), "GET", "/metrics", ""); w.Code != http.StatusNotFound {
		t.Fatalf("expected metrics disabled, got %d", w.Code)
	}
}

func TestRequestIDHeader(t *testing.T) {
	router := newTestRouter(t, nil, RouterConfig{})

	w := do(router, "GET", "/healthz", "")
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("expected generated request id")
	}

	req, _ := http.NewRequest("GET", "/healthz", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if got := w.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Fatalf("expected echoed request id, got %q", got)
	}
}
