package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Skufu/medidose/internal/patient"
)

func adult() patient.Profile {
	return patient.Profile{ID: "P1", Age: 30, Gender: patient.Male, Weight: 70, Height: 170}
}

func TestDosageScenarios(t *testing.T) {
	engine := NewDosageEngine(DefaultAgePolicy())

	poor := adult()
	poor.GeneticMarkers = patient.Tags[patient.GeneticMarker]{patient.CYP2D6Poor}

	elderlyLiver := adult()
	elderlyLiver.Age = 70
	elderlyLiver.MedicalHistory = patient.Tags[patient.Condition]{patient.LiverDisease}

	tests := []struct {
		name string
		p    patient.Profile
		drug string
		want float64
	}{
		{"baseline adult", adult(), "ibuprofen", 400},
		{"poor metabolizer", poor, "ibuprofen", 280},
		{"elderly with liver disease", elderlyLiver, "metformin", 280},
		{"unknown drug uses default base", adult(), "unobtainium", 100},
		{"drug name is case insensitive", adult(), "  Ibuprofen ", 400},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, engine.Score(tt.p, tt.drug))
		})
	}
}

func TestGeneticFactorPoorWins(t *testing.T) {
	p := adult()
	p.GeneticMarkers = patient.Tags[patient.GeneticMarker]{patient.CYP2D6Rapid, patient.CYP2D6Poor}
	f := NewDosageEngine(DefaultAgePolicy()).Factors(p, "ibuprofen")
	assert.Equal(t, 0.7, f.Genetic)

	p.GeneticMarkers = patient.Tags[patient.GeneticMarker]{patient.CYP2D6Rapid}
	f = NewDosageEngine(DefaultAgePolicy()).Factors(p, "ibuprofen")
	assert.Equal(t, 1.3, f.Genetic)
}

func TestMedicalFactorsCompound(t *testing.T) {
	p := adult()
	p.MedicalHistory = patient.Tags[patient.Condition]{patient.LiverDisease, patient.ChronicKidneyDisease}
	f := NewDosageEngine(DefaultAgePolicy()).Factors(p, "acetaminophen")
	assert.InDelta(t, 0.56, f.Medical, 1e-9)
}

func TestAgePolicy(t *testing.T) {
	policy := DefaultAgePolicy()
	assert.Equal(t, 0.9, policy.Factor(20))
	assert.Equal(t, 1.0, policy.Factor(25))
	assert.Equal(t, 1.0, policy.Factor(65))
	assert.Equal(t, 0.8, policy.Factor(66))

	policy.YoungThreshold = 18
	policy.YoungFactor = 0.7
	assert.Equal(t, 0.7, policy.Factor(17))
	assert.Equal(t, 1.0, policy.Factor(20))
}

func TestScoreProperties(t *testing.T) {
	engine := NewDosageEngine(DefaultAgePolicy())
	markers := [][]patient.GeneticMarker{nil, {patient.CYP2D6Poor}, {patient.CYP2D6Rapid}}

	for _, drug := range append(Drugs, "other") {
		for _, m := range markers {
			p := adult()
			p.GeneticMarkers = m
			prev := -1.0
			for w := 30.0; w <= 150; w += 3.7 {
				p.Weight = w
				got := engine.Score(p, drug)
				assert.Equal(t, 0.0, math.Mod(got, 5), "drug %s weight %.1f", drug, w)
				assert.GreaterOrEqual(t, got, prev, "drug %s weight %.1f", drug, w)
				assert.Equal(t, got, engine.Score(p, drug))
				prev = got
			}
		}
	}
}

func TestScoreWithJitter(t *testing.T) {
	engine := NewDosageEngine(DefaultAgePolicy())
	assert.Equal(t, 440.0, engine.ScoreWithJitter(adult(), "ibuprofen", 1.1))
	assert.Equal(t, 360.0, engine.ScoreWithJitter(adult(), "ibuprofen", 0.9))
}

func TestRoundToStep(t *testing.T) {
	assert.Equal(t, 0.0, RoundToStep(-12))
	assert.Equal(t, 0.0, RoundToStep(math.NaN()))
	assert.Equal(t, 10.0, RoundToStep(7.5))
	assert.Equal(t, 5.0, RoundToStep(7.4))
}

func TestAgePolicyString(t *testing.T) {
	p := DefaultAgePolicy()
	assert.Equal(t, "young<25:0.9,elderly>65:0.8", p.String())

	changed := p
	changed.YoungFactor = 0.85
	assert.NotEqual(t, p.String(), changed.String())
}
