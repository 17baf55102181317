package patient

import (
	"errors"
	"fmt"
)

// ErrInvalidInput matches every ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid patient input")

type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Profile is the patient record used by the dosage flow.
type Profile struct {
	ID                 string              `json:"id"`
	Age                int                 `json:"age"`
	Gender             Gender              `json:"gender"`
	Weight             float64             `json:"weight"`
	Height             float64             `json:"height"`
	GeneticMarkers     Tags[GeneticMarker] `json:"geneticMarkers"`
	MedicalHistory     Tags[Condition]     `json:"medicalHistory"`
	CurrentMedications Tags[Medication]    `json:"currentMedications"`
}

// BMI is weight over height in metres squared.
func (p Profile) BMI() float64 {
	if p.Height <= 0 {
		return 0
	}
	m := p.Height / 100
	return p.Weight / (m * m)
}

func (p Profile) Validate() error {
	if p.Age < 0 || p.Age > 120 {
		return &ValidationError{Field: "age", Reason: "must be between 0 and 120"}
	}
	if p.Weight <= 0 {
		return &ValidationError{Field: "weight", Reason: "must be positive"}
	}
	if p.Height <= 0 {
		return &ValidationError{Field: "height", Reason: "must be positive"}
	}
	if _, ok := Known([]Gender{p.Gender}, Genders); !ok {
		return &ValidationError{Field: "gender", Reason: fmt.Sprintf("unknown value %q", p.Gender)}
	}
	if tag, ok := Known(p.GeneticMarkers, GeneticMarkers); !ok {
		return &ValidationError{Field: "geneticMarkers", Reason: fmt.Sprintf("unknown value %q", tag)}
	}
	if tag, ok := Known(p.MedicalHistory, Conditions); !ok {
		return &ValidationError{Field: "medicalHistory", Reason: fmt.Sprintf("unknown value %q", tag)}
	}
	if tag, ok := Known(p.CurrentMedications, Medications); !ok {
		return &ValidationError{Field: "currentMedications", Reason: fmt.Sprintf("unknown value %q", tag)}
	}
	return nil
}

type BloodTests struct {
	Glucose             float64 `json:"glucose"`
	Cholesterol         float64 `json:"cholesterol"`
	Hemoglobin          float64 `json:"hemoglobin"`
	WhiteBloodCellCount float64 `json:"whiteBloodCellCount"`
	PlateletCount       float64 `json:"plateletCount"`
}

// SymptomProfile is the diagnosis variant of the patient record.
type SymptomProfile struct {
	Profile
	BloodPressureSystolic  float64             `json:"bloodPressureSystolic"`
	BloodPressureDiastolic float64             `json:"bloodPressureDiastolic"`
	HeartRate              float64             `json:"heartRate"`
	BodyTemperature        float64             `json:"bodyTemperature"`
	Symptoms               Tags[Symptom]       `json:"symptoms"`
	FamilyHistory          Tags[FamilyHistory] `json:"familyHistory"`
	Lifestyle              Tags[Lifestyle]     `json:"lifestyle"`
	BloodTests             *BloodTests         `json:"bloodTests,omitempty"`
}

func (p SymptomProfile) Validate() error {
	if err := p.Profile.Validate(); err != nil {
		return err
	}
	if p.BloodPressureSystolic < 0 || p.BloodPressureDiastolic < 0 {
		return &ValidationError{Field: "bloodPressure", Reason: "must not be negative"}
	}
	if p.HeartRate < 0 {
		return &ValidationError{Field: "heartRate", Reason: "must not be negative"}
	}
	if p.BodyTemperature != 0 && (p.BodyTemperature < 25 || p.BodyTemperature > 45) {
		return &ValidationError{Field: "bodyTemperature", Reason: "must be between 25 and 45"}
	}
	if tag, ok := Known(p.Symptoms, Symptoms); !ok {
		return &ValidationError{Field: "symptoms", Reason: fmt.Sprintf("unknown value %q", tag)}
	}
	if tag, ok := Known(p.FamilyHistory, FamilyHistories); !ok {
		return &ValidationError{Field: "familyHistory", Reason: fmt.Sprintf("unknown value %q", tag)}
	}
	if tag, ok := Known(p.Lifestyle, Lifestyles); !ok {
		return &ValidationError{Field: "lifestyle", Reason: fmt.Sprintf("unknown value %q", tag)}
	}
	if b := p.BloodTests; b != nil {
		if b.Glucose < 0 || b.Cholesterol < 0 || b.Hemoglobin < 0 || b.WhiteBloodCellCount < 0 || b.PlateletCount < 0 {
			return &ValidationError{Field: "bloodTests", Reason: "values must not be negative"}
		}
	}
	return nil
}
