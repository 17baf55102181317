package model

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/features"
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
	"github.com/Skufu/medidose/internal/synthetic"
)

func quickConfig() TrainConfig {
	cfg := DefaultTrainConfig()
	cfg.Epochs = 3
	cfg.Seed = 9
	return cfg
}

func testDataset(n int) synthetic.Dataset {
	engine := scoring.NewDosageEngine(scoring.DefaultAgePolicy())
	return synthetic.New(synthetic.NewRand(21), engine).Dataset(n)
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		pred, ref, want float64
	}{
		{400, 400, 1},
		{300, 400, 0.75},
		{500, 400, 0.75},
		{333, 400, 0.83},
		{900, 400, 0},
		{0, 0, 1},
		{5, 0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Confidence(tt.pred, tt.ref), "pred %v ref %v", tt.pred, tt.ref)
	}
}

func TestTrainDosageWithoutRecords(t *testing.T) {
	_, err := TrainDosage(context.Background(), "Unobtainium", testDataset(20), quickConfig(), zap.NewNop())
	require.ErrorIs(t, err, ErrNoTrainingData)
	assert.Contains(t, err.Error(), "unobtainium")
}

func TestTrainDosagePredicts(t *testing.T) {
	engine := scoring.NewDosageEngine(scoring.DefaultAgePolicy())
	m, err := TrainDosage(context.Background(), "Ibuprofen", testDataset(200), quickConfig(), zap.NewNop())
	require.NoError(t, err)

	assert.Equal(t, "ibuprofen", m.Drug)
	assert.Equal(t, features.Dosage.Fingerprint(), m.Schema)
	assert.Positive(t, m.Report.Epochs)

	p := patient.Profile{ID: "p1", Age: 30, Gender: patient.Male, Weight: 70, Height: 170}
	pred := m.Predict(p, engine)
	assert.GreaterOrEqual(t, pred.Dosage, 0.0)
	assert.Equal(t, 0.0, math.Mod(pred.Dosage, 5))
	assert.GreaterOrEqual(t, pred.Confidence, 0.0)
	assert.LessOrEqual(t, pred.Confidence, 1.0)
	assert.Equal(t, Confidence(pred.Dosage, 400), pred.Confidence)
}

func TestDosageSnapshot(t *testing.T) {
	m, err := TrainDosage(context.Background(), "metformin", testDataset(100), quickConfig(), zap.NewNop())
	require.NoError(t, err)

	restored, err := DosageFromSnapshot(m.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, "metformin", restored.Drug)
	assert.Equal(t, m.Net, restored.Net)

	s := m.Snapshot()
	s.Schema = "stale"
	_, err = DosageFromSnapshot(s)
	assert.ErrorIs(t, err, ErrSchemaMismatch)

	s = m.Snapshot()
	s.Kind = KindDisease
	_, err = DosageFromSnapshot(s)
	assert.ErrorIs(t, err, ErrSchemaMismatch)
}
