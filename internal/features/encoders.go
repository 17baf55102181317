package features

import (
	"github.com/Skufu/medidose/internal/patient"
)

// neutral fills blood test columns when no results were supplied.
const neutral = 0.5

func profileColumns[T any](get func(T) patient.Profile) []Feature[T] {
	cols := []Feature[T]{
		{Name: "age", Value: func(r T) float64 { return float64(get(r).Age) / 100 }},
		{Name: "weight", Value: func(r T) float64 { return get(r).Weight / 150 }},
		{Name: "height", Value: func(r T) float64 { return get(r).Height / 200 }},
		{Name: "bmi", Value: func(r T) float64 { return get(r).BMI() / 40 }},
	}
	cols = append(cols, oneHot("gender", patient.Genders, func(r T, g patient.Gender) bool {
		return get(r).Gender == g
	})...)
	return cols
}

// Dosage encodes the fields the dosage regressor consumes: demographics,
// gender flags and one flag per genetic marker, condition and medication.
var Dosage = buildDosage()

func buildDosage() Schema[patient.Profile] {
	self := func(p patient.Profile) patient.Profile { return p }
	cols := profileColumns(self)
	cols = append(cols, oneHot("marker", patient.GeneticMarkers, func(p patient.Profile, m patient.GeneticMarker) bool {
		return p.GeneticMarkers.Has(m)
	})...)
	cols = append(cols, oneHot("condition", withoutNone(patient.Conditions), func(p patient.Profile, c patient.Condition) bool {
		return p.MedicalHistory.Has(c)
	})...)
	cols = append(cols, oneHot("medication", withoutNone(patient.Medications), func(p patient.Profile, m patient.Medication) bool {
		return p.CurrentMedications.Has(m)
	})...)
	return NewSchema(cols...)
}

// withoutNone drops the "None" placeholder option.
func withoutNone[V ~string](catalog []V) []V {
	out := make([]V, 0, len(catalog))
	for _, v := range catalog {
		if v != "None" {
			out = append(out, v)
		}
	}
	return out
}

// Diagnosis encodes vitals, symptom and risk factor flags and blood tests.
var Diagnosis = buildDiagnosis()

func bloodColumn(name string, divisor float64, get func(*patient.BloodTests) float64) Feature[patient.SymptomProfile] {
	return Feature[patient.SymptomProfile]{
		Name: "blood:" + name,
		Value: func(p patient.SymptomProfile) float64 {
			if p.BloodTests == nil {
				return neutral
			}
			return get(p.BloodTests) / divisor
		},
	}
}

// A zero vital means it was not measured; it is encoded as a typical
// resting adult value.
const (
	restingSystolic   = 120.0
	restingDiastolic  = 80.0
	restingHeartRate  = 72.0
	normalTemperature = 37.0
)

func vitalColumn(name string, typical float64, get func(patient.SymptomProfile) float64, scale func(float64) float64) Feature[patient.SymptomProfile] {
	return Feature[patient.SymptomProfile]{
		Name: name,
		Value: func(p patient.SymptomProfile) float64 {
			v := get(p)
			if v == 0 {
				v = typical
			}
			return scale(v)
		},
	}
}

func buildDiagnosis() Schema[patient.SymptomProfile] {
	profile := func(p patient.SymptomProfile) patient.Profile { return p.Profile }
	cols := profileColumns(profile)
	cols = append(cols,
		vitalColumn("bp:systolic", restingSystolic, func(p patient.SymptomProfile) float64 { return p.BloodPressureSystolic }, func(v float64) float64 { return v / 200 }),
		vitalColumn("bp:diastolic", restingDiastolic, func(p patient.SymptomProfile) float64 { return p.BloodPressureDiastolic }, func(v float64) float64 { return v / 120 }),
		vitalColumn("heart_rate", restingHeartRate, func(p patient.SymptomProfile) float64 { return p.HeartRate }, func(v float64) float64 { return v / 200 }),
		vitalColumn("temperature", normalTemperature, func(p patient.SymptomProfile) float64 { return p.BodyTemperature }, func(v float64) float64 { return (v - 35) / 5 }),
	)
	cols = append(cols, oneHot("symptom", patient.Symptoms, func(p patient.SymptomProfile, s patient.Symptom) bool {
		return p.Symptoms.Has(s)
	})...)
	cols = append(cols, oneHot("family", patient.FamilyHistories, func(p patient.SymptomProfile, f patient.FamilyHistory) bool {
		return p.FamilyHistory.Has(f)
	})...)
	cols = append(cols, oneHot("lifestyle", patient.Lifestyles, func(p patient.SymptomProfile, l patient.Lifestyle) bool {
		return p.Lifestyle.Has(l)
	})...)
	cols = append(cols,
		bloodColumn("glucose", 200, func(b *patient.BloodTests) float64 { return b.Glucose }),
		bloodColumn("cholesterol", 300, func(b *patient.BloodTests) float64 { return b.Cholesterol }),
		bloodColumn("hemoglobin", 20, func(b *patient.BloodTests) float64 { return b.Hemoglobin }),
		bloodColumn("wbc", 15000, func(b *patient.BloodTests) float64 { return b.WhiteBloodCellCount }),
		bloodColumn("platelets", 500000, func(b *patient.BloodTests) float64 { return b.PlateletCount }),
	)
	return NewSchema(cols...)
}
