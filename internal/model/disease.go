package model

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/features"
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
	"github.com/Skufu/medidose/internal/synthetic"
)

const (
	maxProbability   = 0.99
	relatedThreshold = 0.1
)

var diseaseHidden = []int{64, 32}

// DiseaseModel classifies symptom profiles into the scorer's disease
// catalog. It is trained to imitate the point scorer.
type DiseaseModel struct {
	Schema    string
	Classes   []scoring.Disease
	Net       *Network
	TrainedAt time.Time
	Report    TrainReport
}

// TrainDisease labels each patient with the scorer's best disease and fits
// a softmax classifier over the catalog.
func TrainDisease(ctx context.Context, patients []patient.SymptomProfile, scorer *scoring.DiseaseScorer, cfg TrainConfig, log *zap.Logger) (*DiseaseModel, error) {
	if len(patients) == 0 {
		return nil, fmt.Errorf("%w for disease model", ErrNoTrainingData)
	}

	classes := append([]scoring.Disease(nil), scoring.Diseases...)
	xs := make([][]float64, len(patients))
	ys := make([][]float64, len(patients))
	for i, p := range patients {
		xs[i] = features.Diagnosis.Encode(p)
		label := make([]float64, len(classes))
		label[scoring.DiseaseIndex(scorer.Best(p).Disease)] = 1
		ys[i] = label
	}

	rng := synthetic.NewRand(cfg.Seed)
	sizes := append([]int{features.Diagnosis.Len()}, diseaseHidden...)
	net := NewNetwork(rng, append(sizes, len(classes)), Softmax)

	log.Info("training disease model", zap.Int("samples", len(xs)))
	report, err := fit(ctx, net, xs, ys, CrossEntropy, cfg, rng, log)
	if err != nil {
		return nil, fmt.Errorf("train disease model: %w", err)
	}
	log.Info("disease model trained",
		zap.Int("epochs", report.Epochs),
		zap.Float64("val_loss", report.ValidationLoss),
	)

	return &DiseaseModel{
		Schema:    features.Diagnosis.Fingerprint(),
		Classes:   classes,
		Net:       net,
		TrainedAt: time.Now().UTC(),
		Report:    report,
	}, nil
}

// Probabilities returns the softmax output keyed by class.
func (m *DiseaseModel) Probabilities(p patient.SymptomProfile) map[scoring.Disease]float64 {
	out := m.Net.Forward(features.Diagnosis.Encode(p))
	probs := make(map[scoring.Disease]float64, len(m.Classes))
	for i, d := range m.Classes {
		probs[d] = out[i]
	}
	return probs
}

// Predict picks the most probable class, first in catalog order on ties.
func (m *DiseaseModel) Predict(p patient.SymptomProfile) scoring.DiagnosisResult {
	out := m.Net.Forward(features.Diagnosis.Encode(p))

	best := 0
	for i := range out {
		if out[i] > out[best] {
			best = i
		}
	}

	related := []scoring.RelatedDisease{}
	for i, d := range m.Classes {
		if i != best && out[i] > relatedThreshold {
			related = append(related, scoring.RelatedDisease{Name: d, Probability: out[i]})
		}
	}

	result := scoring.BuildDiagnosis(m.Classes[best], math.Min(maxProbability, out[best]), scoring.TopRelated(related), p)
	result.Source = scoring.SourceModel
	return result
}

func (m *DiseaseModel) Snapshot() *Snapshot {
	classes := make([]string, len(m.Classes))
	for i, d := range m.Classes {
		classes[i] = string(d)
	}
	return &Snapshot{
		Kind:      KindDisease,
		Key:       diseaseKey,
		Schema:    m.Schema,
		Classes:   classes,
		Network:   m.Net,
		TrainedAt: m.TrainedAt,
	}
}

func DiseaseFromSnapshot(s *Snapshot) (*DiseaseModel, error) {
	if err := s.check(KindDisease, features.Diagnosis.Fingerprint(), features.Diagnosis.Len(), len(s.Classes)); err != nil {
		return nil, err
	}
	classes := make([]scoring.Disease, len(s.Classes))
	for i, c := range s.Classes {
		if scoring.DiseaseIndex(scoring.Disease(c)) < 0 {
			return nil, fmt.Errorf("%w: unknown class %q", ErrSchemaMismatch, c)
		}
		classes[i] = scoring.Disease(c)
	}
	return &DiseaseModel{Schema: s.Schema, Classes: classes, Net: s.Network, TrainedAt: s.TrainedAt}, nil
}
