package model

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/features"
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
	"github.com/Skufu/medidose/internal/synthetic"
)

var ErrNoTrainingData = errors.New("no training data")

// dosageScale brings milligram labels into the network's output range.
const dosageScale = 1000.0

var dosageHidden = []int{64, 32, 16}

// DosageModel is a regressor fitted to one drug's records.
type DosageModel struct {
	Drug   string
	Schema string
	// Labels names the age policy behind the training labels.
	Labels    string
	Net       *Network
	TrainedAt time.Time
	Report    TrainReport
}

type Prediction struct {
	Dosage     float64 `json:"dosage"`
	Confidence float64 `json:"confidence"`
}

// TrainDosage fits a regressor on the dataset records for drug. It fails
// with ErrNoTrainingData when the dataset holds none.
func TrainDosage(ctx context.Context, drug string, ds synthetic.Dataset, cfg TrainConfig, log *zap.Logger) (*DosageModel, error) {
	drug = scoring.NormalizeDrug(drug)
	records := ds.RecordsFor(drug)
	if len(records) == 0 {
		return nil, fmt.Errorf("%w for drug %q", ErrNoTrainingData, drug)
	}

	xs := make([][]float64, 0, len(records))
	ys := make([][]float64, 0, len(records))
	for _, r := range records {
		p, ok := ds.Patient(r.PatientID)
		if !ok {
			continue
		}
		xs = append(xs, features.Dosage.Encode(p))
		ys = append(ys, []float64{r.OptimalDosage / dosageScale})
	}
	if len(xs) == 0 {
		return nil, fmt.Errorf("%w for drug %q", ErrNoTrainingData, drug)
	}

	rng := synthetic.NewRand(cfg.Seed)
	sizes := append([]int{features.Dosage.Len()}, dosageHidden...)
	net := NewNetwork(rng, append(sizes, 1), Linear)

	log = log.With(zap.String("drug", drug))
	log.Info("training dosage model", zap.Int("samples", len(xs)))
	report, err := fit(ctx, net, xs, ys, Huber, cfg, rng, log)
	if err != nil {
		return nil, fmt.Errorf("train %s: %w", drug, err)
	}
	log.Info("dosage model trained",
		zap.Int("epochs", report.Epochs),
		zap.Float64("val_loss", report.ValidationLoss),
	)

	return &DosageModel{
		Drug:      drug,
		Schema:    features.Dosage.Fingerprint(),
		Labels:    ds.Labels,
		Net:       net,
		TrainedAt: time.Now().UTC(),
		Report:    report,
	}, nil
}

// Predict descales the network output to milligrams and scores it against
// the rule engine.
func (m *DosageModel) Predict(p patient.Profile, engine *scoring.DosageEngine) Prediction {
	out := m.Net.Forward(features.Dosage.Encode(p))
	dosage := scoring.RoundToStep(out[0] * dosageScale)
	return Prediction{
		Dosage:     dosage,
		Confidence: Confidence(dosage, engine.Score(p, m.Drug)),
	}
}

// Confidence measures agreement between a prediction and the reference
// dosage, clipped to [0, 1] and rounded to two decimals.
func Confidence(predicted, reference float64) float64 {
	if reference == 0 {
		if predicted == 0 {
			return 1
		}
		return 0
	}
	c := 1 - math.Abs(predicted-reference)/reference
	c = math.Max(0, math.Min(1, c))
	return math.Round(c*100) / 100
}

func (m *DosageModel) Snapshot() *Snapshot {
	return &Snapshot{
		Kind:      KindDosage,
		Key:       m.Drug,
		Schema:    m.Schema,
		Labels:    m.Labels,
		Network:   m.Net,
		TrainedAt: m.TrainedAt,
	}
}

// DosageFromSnapshot rebuilds a model, rejecting snapshots encoded with a
// different feature schema.
func DosageFromSnapshot(s *Snapshot) (*DosageModel, error) {
	if err := s.check(KindDosage, features.Dosage.Fingerprint(), features.Dosage.Len(), 1); err != nil {
		return nil, err
	}
	return &DosageModel{Drug: s.Key, Schema: s.Schema, Labels: s.Labels, Net: s.Network, TrainedAt: s.TrainedAt}, nil
}
