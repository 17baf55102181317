package recommend

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/model"
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
)

// RuleConfidence is reported for rule engine dosages.
const RuleConfidence = 0.7

type Estimate struct {
	Dosage     float64
	Confidence float64
	Source     string
}

type DosagePredictor interface {
	Predict(ctx context.Context, p patient.Profile, drug string) (Estimate, error)
}

// RuleBased scores with the deterministic engine and never fails.
type RuleBased struct {
	engine *scoring.DosageEngine
}

func NewRuleBased(engine *scoring.DosageEngine) *RuleBased {
	return &RuleBased{engine: engine}
}

func (r *RuleBased) Predict(_ context.Context, p patient.Profile, drug string) (Estimate, error) {
	return Estimate{
		Dosage:     r.engine.Score(p, drug),
		Confidence: RuleConfidence,
		Source:     scoring.SourceRules,
	}, nil
}

type DosageModels interface {
	Dosage(ctx context.Context, drug string) (*model.DosageModel, error)
}

// Learned predicts with a trained regressor per drug.
type Learned struct {
	models DosageModels
	engine *scoring.DosageEngine
}

func NewLearned(models DosageModels, engine *scoring.DosageEngine) *Learned {
	return &Learned{models: models, engine: engine}
}

func (l *Learned) Predict(ctx context.Context, p patient.Profile, drug string) (Estimate, error) {
	m, err := l.models.Dosage(ctx, drug)
	if err != nil {
		return Estimate{}, err
	}
	pred := m.Predict(p, l.engine)
	return Estimate{
		Dosage:     pred.Dosage,
		Confidence: pred.Confidence,
		Source:     scoring.SourceModel,
	}, nil
}

// Fallback uses primary and switches to secondary when primary fails.
type Fallback struct {
	primary   DosagePredictor
	secondary DosagePredictor
	log       *zap.Logger
}

func NewFallback(primary, secondary DosagePredictor, log *zap.Logger) *Fallback {
	return &Fallback{primary: primary, secondary: secondary, log: log}
}

func (f *Fallback) Predict(ctx context.Context, p patient.Profile, drug string) (Estimate, error) {
	est, err := f.primary.Predict(ctx, p, drug)
	if err == nil {
		return est, nil
	}

	fields := []zap.Field{zap.String("drug", drug), zap.String("patient_id", p.ID), zap.Error(err)}
	if errors.Is(err, model.ErrNoTrainingData) {
		f.log.Info("no model for drug, using rule engine", fields...)
	} else {
		f.log.Warn("model unavailable, using rule engine", fields...)
	}
	return f.secondary.Predict(ctx, p, drug)
}
