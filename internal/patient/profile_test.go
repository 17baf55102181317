package patient

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validProfile() Profile {
	return Profile{ID: "P1", Age: 30, Gender: Male, Weight: 70, Height: 170}
}

func TestProfileBMI(t *testing.T) {
	p := validProfile()
	assert.InDelta(t, 24.22, p.BMI(), 0.01)

	p.Height = 0
	assert.Zero(t, p.BMI())
}

func TestProfileValidate(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Profile)
		field string
	}{
		{"valid", func(*Profile) {}, ""},
		{"negative age", func(p *Profile) { p.Age = -1 }, "age"},
		{"age over 120", func(p *Profile) { p.Age = 121 }, "age"},
		{"zero weight", func(p *Profile) { p.Weight = 0 }, "weight"},
		{"zero height", func(p *Profile) { p.Height = 0 }, "height"},
		{"unknown gender", func(p *Profile) { p.Gender = "robot" }, "gender"},
		{"unknown marker", func(p *Profile) { p.GeneticMarkers = Tags[GeneticMarker]{"CYP9Z9 - Fast"} }, "geneticMarkers"},
		{"unknown condition", func(p *Profile) { p.MedicalHistory = Tags[Condition]{"liver disease"} }, "medicalHistory"},
		{"unknown medication", func(p *Profile) { p.CurrentMedications = Tags[Medication]{"Aspirin"} }, "currentMedications"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := validProfile()
			tt.edit(&p)
			err := p.Validate()
			if tt.field == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidInput))

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, tt.field, verr.Field)
		})
	}
}

func TestSymptomProfileValidate(t *testing.T) {
	p := SymptomProfile{
		Profile:         validProfile(),
		Symptoms:        Tags[Symptom]{Cough, Fever},
		Lifestyle:       Tags[Lifestyle]{Smoking},
		BodyTemperature: 37,
	}
	require.NoError(t, p.Validate())

	p.Symptoms = append(p.Symptoms, "Sneezing")
	err := p.Validate()
	require.ErrorIs(t, err, ErrInvalidInput)

	p.Symptoms = Tags[Symptom]{Cough}
	p.BloodTests = &BloodTests{Glucose: -1}
	require.ErrorIs(t, p.Validate(), ErrInvalidInput)
}

func TestSymptomProfileJSONFlattensProfile(t *testing.T) {
	raw := `{"id":"P7","age":40,"gender":"female","weight":60,"height":165,"symptoms":["Cough"],"bloodTests":{"glucose":130}}`

	var p SymptomProfile
	require.NoError(t, json.Unmarshal([]byte(raw), &p))
	assert.Equal(t, "P7", p.ID)
	assert.Equal(t, Female, p.Gender)
	assert.True(t, p.Symptoms.Has(Cough))
	require.NotNil(t, p.BloodTests)
	assert.Equal(t, 130.0, p.BloodTests.Glucose)
}

func TestKnown(t *testing.T) {
	_, ok := Known([]Lifestyle{Smoking, PoorSleep}, Lifestyles)
	assert.True(t, ok)

	tag, ok := Known([]Lifestyle{Smoking, "Skydiving"}, Lifestyles)
	assert.False(t, ok)
	assert.Equal(t, Lifestyle("Skydiving"), tag)
}
