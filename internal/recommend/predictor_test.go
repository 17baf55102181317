package recommend

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/Skufu/medidose/internal/model"
	"github.com/Skufu/medidose/internal/scoring"
)

func TestRuleBased(t *testing.T) {
	engine := scoring.NewDosageEngine(scoring.DefaultAgePolicy())
	est, err := NewRuleBased(engine).Predict(context.Background(), basePatient(), "ibuprofen")
	require.NoError(t, err)
	assert.Equal(t, Estimate{Dosage: 400, Confidence: RuleConfidence, Source: scoring.SourceRules}, est)
}

func TestLearned(t *testing.T) {
	engine := scoring.NewDosageEngine(scoring.DefaultAgePolicy())

	est, err := NewLearned(fakeDosageModels{m: fixedDosageModel("ibuprofen", 300)}, engine).
		Predict(context.Background(), basePatient(), "ibuprofen")
	require.NoError(t, err)
	assert.Equal(t, 300.0, est.Dosage)
	assert.Equal(t, 0.75, est.Confidence)
	assert.Equal(t, scoring.SourceModel, est.Source)

	_, err = NewLearned(fakeDosageModels{err: model.ErrModelUnavailable}, engine).
		Predict(context.Background(), basePatient(), "ibuprofen")
	assert.ErrorIs(t, err, model.ErrModelUnavailable)
}

func TestFallback(t *testing.T) {
	engine := scoring.NewDosageEngine(scoring.DefaultAgePolicy())
	rules := NewRuleBased(engine)

	for _, cause := range []error{model.ErrNoTrainingData, model.ErrModelUnavailable} {
		learned := NewLearned(fakeDosageModels{err: cause}, engine)
		est, err := NewFallback(learned, rules, zap.NewNop()).Predict(context.Background(), basePatient(), "ibuprofen")
		require.NoError(t, err)
		assert.Equal(t, scoring.SourceRules, est.Source)
		assert.Equal(t, RuleConfidence, est.Confidence)
		assert.Equal(t, 400.0, est.Dosage)
	}

	learned := NewLearned(fakeDosageModels{m: fixedDosageModel("ibuprofen", 400)}, engine)
	est, err := NewFallback(learned, rules, zap.NewNop()).Predict(context.Background(), basePatient(), "ibuprofen")
	require.NoError(t, err)
	assert.Equal(t, scoring.SourceModel, est.Source)
	assert.Equal(t, 1.0, est.Confidence)
}

func TestAlternatives(t *testing.T) {
	ages := scoring.DefaultAgePolicy()
	p := basePatient()

	assert.Equal(t, []Alternative{{"naproxen", 250}, {"acetaminophen", 500}}, Alternatives(p, "Ibuprofen", ages))
	assert.Equal(t, []Alternative{{"liothyronine", 25}, {"levothyroxine", 100}}, Alternatives(p, "levothyroxine", ages))
	assert.Empty(t, Alternatives(p, "unobtainium", ages))

	p.Age = 70
	assert.Equal(t, []Alternative{{"naproxen", 200}, {"acetaminophen", 400}}, Alternatives(p, "ibuprofen", ages))

	p.Age = 20
	p.Weight = 140
	assert.Equal(t, []Alternative{{"losartan", 90}, {"enalapril", 20}}, Alternatives(p, "lisinopril", ages))
}
