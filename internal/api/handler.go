package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/ledger"
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/recommend"
	"github.com/Skufu/medidose/internal/scoring"
)

type Handler struct {
	assembler *recommend.Assembler
	history   recommend.History
	ledger    ledger.Ledger
	log       *zap.Logger
}

func NewHandler(assembler *recommend.Assembler, history recommend.History, l ledger.Ledger, log *zap.Logger) *Handler {
	return &Handler{assembler: assembler, history: history, ledger: l, log: log}
}

type predictionRequest struct {
	Patient  patient.Profile `json:"patient"`
	DrugName string          `json:"drugName" binding:"required"`
}

type diagnosisRequest struct {
	Patient  patient.SymptomProfile `json:"patient"`
	UseModel bool                   `json:"useModel"`
}

type dietRequest struct {
	Patient     patient.SymptomProfile `json:"patient"`
	Diagnosis   string                 `json:"diagnosis" binding:"required"`
	Probability float64                `json:"probability" binding:"gte=0,lte=1"`
}

// bind decodes the JSON body and writes the error response when it fails.
func bind(c *gin.Context, req any) bool {
	err := c.ShouldBindJSON(req)
	if err == nil {
		return true
	}

	var tooLarge *http.MaxBytesError
	var verrs validator.ValidationErrors
	switch {
	case errors.As(err, &tooLarge):
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
	case errors.As(err, &verrs):
		details := make([]string, 0, len(verrs))
		for _, fe := range verrs {
			details = append(details, fe.Field()+": failed "+fe.Tag())
		}
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "details": details})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid payload"})
	}
	return false
}

func (h *Handler) fail(c *gin.Context, err error) {
	if errors.Is(err, patient.ErrInvalidInput) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "validation_failed", "details": []string{err.Error()}})
		return
	}
	h.log.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}

func (h *Handler) Catalog(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"drugs":    scoring.Drugs,
		"diseases": scoring.Diseases,
		"options":  patient.Options(),
	})
}

func (h *Handler) CreatePrediction(c *gin.Context) {
	var req predictionRequest
	if !bind(c, &req) {
		return
	}

	log := h.log.With(zap.String("patient_id", req.Patient.ID), zap.String("drug", req.DrugName))
	result, err := h.assembler.AssembleDosage(c.Request.Context(), req.Patient, req.DrugName, func(status string) {
		log.Debug("ledger status", zap.String("status", status))
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

func (h *Handler) ListPredictions(c *gin.Context) {
	results, err := h.history.List(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, results)
}

func (h *Handler) GetPrediction(c *gin.Context) {
	result, err := h.history.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, recommend.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "prediction not found"})
		return
	}
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) PredictionStats(c *gin.Context) {
	stats, err := h.assembler.Stats(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

func (h *Handler) Diagnose(c *gin.Context) {
	var req diagnosisRequest
	if !bind(c, &req) {
		return
	}

	result, err := h.assembler.Diagnose(c.Request.Context(), req.Patient, req.UseModel)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) PlanDiet(c *gin.Context) {
	var req dietRequest
	if !bind(c, &req) {
		return
	}
	if err := req.Patient.Validate(); err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, scoring.PlanDiet(scoring.Disease(req.Diagnosis), req.Probability, req.Patient))
}

func (h *Handler) Verify(c *gin.Context) {
	hash := c.Param("hash")
	entry, err := h.ledger.Verify(c.Request.Context(), hash)
	if errors.Is(err, ledger.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"verified": false, "error": "record not found"})
		return
	}
	if err != nil {
		h.log.Warn("ledger verification failed", zap.String("hash", hash), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"verified": false, "error": "ledger unavailable"})
		return
	}

	resp := gin.H{
		"verified":    true,
		"entry":       entry,
		"explorerUrl": h.ledger.ExplorerURL(entry.TxHash),
	}
	if prediction, err := h.history.FindByHash(c.Request.Context(), hash); err == nil {
		resp["prediction"] = prediction
	}
	c.JSON(http.StatusOK, resp)
}
