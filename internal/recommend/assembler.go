// Package recommend assembles dosage predictions and diagnoses from the
// scoring engines, the learned models and the ledger.
package recommend

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/ledger"
	"github.com/Skufu/medidose/internal/metrics"
	"github.com/Skufu/medidose/internal/model"
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
)

const localTxPrefix = "local-"

type DiseaseModels interface {
	Disease(ctx context.Context) (*model.DiseaseModel, error)
}

// Deps wires an Assembler. Diseases and Metrics may be nil.
type Deps struct {
	Predictor     DosagePredictor
	Engine        *scoring.DosageEngine
	Scorer        *scoring.DiseaseScorer
	Diseases      DiseaseModels
	Ledger        ledger.Ledger
	History       History
	Metrics       *metrics.Metrics
	LedgerTimeout time.Duration
}

type Assembler struct {
	Deps
	log   *zap.Logger
	now   func() time.Time
	newID func() string
}

func NewAssembler(deps Deps, log *zap.Logger) *Assembler {
	return &Assembler{
		Deps:  deps,
		log:   log.Named("assembler"),
		now:   time.Now,
		newID: predictionID,
	}
}

func predictionID() string {
	return "pred_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:12]
}

// Diagnosis is a diagnosis with its diet personalised to the patient.
type Diagnosis struct {
	scoring.DiagnosisResult
	PersonalisedDiet scoring.DietRecommendation `json:"personalisedDiet"`
}

// AssembleDosage predicts a dosage for drug, records it on the ledger and
// appends it to the history. Only invalid input is returned as an error;
// model and ledger problems degrade the result instead.
func (a *Assembler) AssembleDosage(ctx context.Context, p patient.Profile, drug string, onStatus ledger.StatusFunc) (PredictionResult, error) {
	start := a.now()
	if err := p.Validate(); err != nil {
		return PredictionResult{}, err
	}
	drug = scoring.NormalizeDrug(drug)
	if drug == "" {
		return PredictionResult{}, &patient.ValidationError{Field: "drugName", Reason: "is required"}
	}

	est, err := a.Predictor.Predict(ctx, p, drug)
	if err != nil {
		return PredictionResult{}, fmt.Errorf("predict dosage: %w", err)
	}

	// rounding can take tiny doses to zero
	dosage := max(est.Dosage, scoring.MinDosage)
	timestamp := start.UnixMilli()
	result := PredictionResult{
		ID:                     a.newID(),
		PatientID:              p.ID,
		DrugName:               drug,
		RecommendedDosage:      dosage,
		Confidence:             est.Confidence,
		Source:                 est.Source,
		AlternativeMedications: Alternatives(p, drug, a.Engine.AgePolicy()),
		BlockchainHash:         ledger.PredictionHash(p.ID, drug, dosage, timestamp),
		Timestamp:              timestamp,
	}
	result.Status, result.BlockchainTxHash = a.record(ctx, result, onStatus)

	if err := a.History.Append(ctx, result); err != nil {
		a.log.Error("failed to store prediction", zap.String("id", result.ID), zap.Error(err))
	}
	a.Metrics.RecordPrediction(drug, est.Source, string(result.Status), a.now().Sub(start))
	return result, nil
}

func (a *Assembler) record(ctx context.Context, r PredictionResult, onStatus ledger.StatusFunc) (Status, string) {
	log := a.log.With(zap.String("hash", r.BlockchainHash), zap.String("drug", r.DrugName), zap.String("patient_id", r.PatientID))

	submitCtx := ctx
	if a.LedgerTimeout > 0 {
		var cancel context.CancelFunc
		submitCtx, cancel = context.WithTimeout(ctx, a.LedgerTimeout)
		defer cancel()
	}

	receipt, err := a.Ledger.Record(submitCtx, r.BlockchainHash, r.DrugName, r.RecommendedDosage, r.Timestamp, onStatus)
	switch {
	case err == nil:
		a.Metrics.RecordLedgerSubmission("confirmed")
		log.Info("prediction recorded", zap.String("tx_hash", receipt.TxHash))
		return StatusCompleted, receipt.TxHash
	case errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil:
		tx := localTxPrefix + uuid.NewString()
		a.Metrics.RecordLedgerSubmission("timeout")
		log.Warn("ledger timed out, using local handle", zap.String("tx_hash", tx))
		return StatusPending, tx
	default:
		a.Metrics.RecordLedgerSubmission("failed")
		log.Warn("ledger submission failed", zap.Error(err))
		return StatusFailed, ""
	}
}

// Diagnose runs the point scorer, or the classifier when useModel is set
// and a model is available.
func (a *Assembler) Diagnose(ctx context.Context, p patient.SymptomProfile, useModel bool) (Diagnosis, error) {
	if err := p.Validate(); err != nil {
		return Diagnosis{}, err
	}

	var result scoring.DiagnosisResult
	if useModel && a.Diseases != nil {
		m, err := a.Diseases.Disease(ctx)
		if err == nil {
			result = m.Predict(p)
		} else {
			a.log.Warn("disease model unavailable, using point scorer", zap.String("patient_id", p.ID), zap.Error(err))
		}
	}
	if result.Source == "" {
		result = a.Scorer.Diagnose(p)
	}

	a.Metrics.RecordDiagnosis(result.Source)
	return Diagnosis{
		DiagnosisResult:  result,
		PersonalisedDiet: scoring.PersonaliseDiet(result.RecommendedDiet, p),
	}, nil
}

// Stats summarises the whole history.
func (a *Assembler) Stats(ctx context.Context) (Stats, error) {
	results, err := a.History.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(results), nil
}
