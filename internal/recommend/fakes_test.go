package recommend

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/features"
	"github.com/Skufu/medidose/internal/ledger"
	"github.com/Skufu/medidose/internal/model"
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
)

func basePatient() patient.Profile {
	return patient.Profile{ID: "P1000", Age: 30, Gender: patient.Male, Weight: 70, Height: 170}
}

// constantNet ignores its input and outputs biases.
func constantNet(inputs int, biases []float64, act model.Activation) *model.Network {
	weights := make([][]float64, len(biases))
	for i := range weights {
		weights[i] = make([]float64, inputs)
	}
	return &model.Network{Layers: []model.Layer{{Weights: weights, Biases: biases, Activation: act}}}
}

type fakeDosageModels struct {
	m   *model.DosageModel
	err error
}

func (f fakeDosageModels) Dosage(context.Context, string) (*model.DosageModel, error) {
	return f.m, f.err
}

func fixedDosageModel(drug string, mg float64) *model.DosageModel {
	return &model.DosageModel{
		Drug:   drug,
		Schema: features.Dosage.Fingerprint(),
		Net:    constantNet(features.Dosage.Len(), []float64{mg / 1000}, model.Linear),
	}
}

type fakeDiseaseModels struct {
	m   *model.DiseaseModel
	err error
}

func (f fakeDiseaseModels) Disease(context.Context) (*model.DiseaseModel, error) {
	return f.m, f.err
}

func fixedDiseaseModel(winner scoring.Disease) *model.DiseaseModel {
	biases := make([]float64, len(scoring.Diseases))
	biases[scoring.DiseaseIndex(winner)] = 5
	return &model.DiseaseModel{
		Schema:  features.Diagnosis.Fingerprint(),
		Classes: scoring.Diseases,
		Net:     constantNet(features.Diagnosis.Len(), biases, model.Softmax),
	}
}

type failingHistory struct {
	*MemoryHistory
}

func (failingHistory) Append(context.Context, PredictionResult) error {
	return errors.New("disk full")
}

func newLedger(t *testing.T, failure float64, delay time.Duration) *ledger.Simulated {
	t.Helper()
	cfg := ledger.SimulatedConfig{Network: "mumbai", FailureRate: failure, SubmitDelay: delay}
	l, err := ledger.NewSimulated(cfg, rand.New(rand.NewPCG(7, 7)), zap.NewNop())
	require.NoError(t, err)
	return l
}
