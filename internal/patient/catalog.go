package patient

import "slices"

type Gender string

const (
	Male   Gender = "male"
	Female Gender = "female"
	Other  Gender = "other"
)

var Genders = []Gender{Male, Female, Other}

// GeneticMarker is a metabolizer status tag per gene.
type GeneticMarker string

const (
	CYP2D6Normal  GeneticMarker = "CYP2D6 - Normal Metabolizer"
	CYP2D6Poor    GeneticMarker = "CYP2D6 - Poor Metabolizer"
	CYP2D6Rapid   GeneticMarker = "CYP2D6 - Rapid Metabolizer"
	CYP2C19Normal GeneticMarker = "CYP2C19 - Normal Metabolizer"
	CYP2C19Poor   GeneticMarker = "CYP2C19 - Poor Metabolizer"
	CYP3A4Normal  GeneticMarker = "CYP3A4 - Normal Expression"
	CYP3A4Low     GeneticMarker = "CYP3A4 - Low Expression"
)

var GeneticMarkers = []GeneticMarker{
	CYP2D6Normal, CYP2D6Poor, CYP2D6Rapid,
	CYP2C19Normal, CYP2C19Poor,
	CYP3A4Normal, CYP3A4Low,
}

type Condition string

const (
	Hypertension         Condition = "Hypertension"
	DiabetesType2        Condition = "Diabetes Type 2"
	Asthma               Condition = "Asthma"
	ChronicKidneyDisease Condition = "Chronic Kidney Disease"
	LiverDisease         Condition = "Liver Disease"
	HeartFailure         Condition = "Heart Failure"
	COPD                 Condition = "COPD"
	NoCondition          Condition = "None"
)

var Conditions = []Condition{
	Hypertension, DiabetesType2, Asthma, ChronicKidneyDisease,
	LiverDisease, HeartFailure, COPD, NoCondition,
}

type Medication string

const (
	Lisinopril    Medication = "Lisinopril"
	Metformin     Medication = "Metformin"
	Atorvastatin  Medication = "Atorvastatin"
	Levothyroxine Medication = "Levothyroxine"
	Albuterol     Medication = "Albuterol"
	Omeprazole    Medication = "Omeprazole"
	Amlodipine    Medication = "Amlodipine"
	NoMedication  Medication = "None"
)

var Medications = []Medication{
	Lisinopril, Metformin, Atorvastatin, Levothyroxine,
	Albuterol, Omeprazole, Amlodipine, NoMedication,
}

type Symptom string

const (
	Fever             Symptom = "Fever"
	Cough             Symptom = "Cough"
	ShortnessOfBreath Symptom = "Shortness of breath"
	Fatigue           Symptom = "Fatigue"
	Headache          Symptom = "Headache"
	SoreThroat        Symptom = "Sore throat"
	MusclePain        Symptom = "Muscle pain"
	ChestPain         Symptom = "Chest pain"
	AbdominalPain     Symptom = "Abdominal pain"
	Nausea            Symptom = "Nausea"
	Vomiting          Symptom = "Vomiting"
	Diarrhea          Symptom = "Diarrhea"
	LossOfTasteSmell  Symptom = "Loss of taste or smell"
	Rash              Symptom = "Rash"
	JointPain         Symptom = "Joint pain"
	Dizziness         Symptom = "Dizziness"
	Confusion         Symptom = "Confusion"
	RunnyNose         Symptom = "Runny nose"
	Wheezing          Symptom = "Wheezing"
)

var Symptoms = []Symptom{
	Fever, Cough, ShortnessOfBreath, Fatigue, Headache, SoreThroat,
	MusclePain, ChestPain, AbdominalPain, Nausea, Vomiting, Diarrhea,
	LossOfTasteSmell, Rash, JointPain, Dizziness, Confusion,
	RunnyNose, Wheezing,
}

type FamilyHistory string

const (
	FamilyDiabetes     FamilyHistory = "Diabetes"
	FamilyHeartDisease FamilyHistory = "Heart disease"
	FamilyHypertension FamilyHistory = "Hypertension"
	FamilyCancer       FamilyHistory = "Cancer"
	FamilyStroke       FamilyHistory = "Stroke"
	FamilyAsthma       FamilyHistory = "Asthma"
	FamilyAlzheimers   FamilyHistory = "Alzheimer's disease"
	FamilyArthritis    FamilyHistory = "Arthritis"
	FamilyDepression   FamilyHistory = "Depression"
	FamilyObesity      FamilyHistory = "Obesity"
)

var FamilyHistories = []FamilyHistory{
	FamilyDiabetes, FamilyHeartDisease, FamilyHypertension, FamilyCancer,
	FamilyStroke, FamilyAsthma, FamilyAlzheimers, FamilyArthritis,
	FamilyDepression, FamilyObesity,
}

type Lifestyle string

const (
	Smoking         Lifestyle = "Smoking"
	Alcohol         Lifestyle = "Alcohol consumption"
	Sedentary       Lifestyle = "Sedentary lifestyle"
	RegularExercise Lifestyle = "Regular exercise"
	BalancedDiet    Lifestyle = "Balanced diet"
	HighStress      Lifestyle = "High stress levels"
	PoorSleep       Lifestyle = "Poor sleep"
	DrugUse         Lifestyle = "Drug use"
)

var Lifestyles = []Lifestyle{
	Smoking, Alcohol, Sedentary, RegularExercise,
	BalancedDiet, HighStress, PoorSleep, DrugUse,
}

// Tags is a set of catalog values. Order is kept as supplied.
type Tags[T ~string] []T

func (t Tags[T]) Has(v T) bool {
	return slices.Contains(t, v)
}

// Known reports whether every tag is a member of catalog.
func Known[T ~string](tags []T, catalog []T) (T, bool) {
	for _, tag := range tags {
		if !slices.Contains(catalog, tag) {
			return tag, false
		}
	}
	var zero T
	return zero, true
}

// Catalog is the set of option lists used by forms and encoders.
type Catalog struct {
	Genders         []Gender        `json:"genders"`
	GeneticMarkers  []GeneticMarker `json:"geneticMarkers"`
	Conditions      []Condition     `json:"medicalConditions"`
	Medications     []Medication    `json:"medications"`
	Symptoms        []Symptom       `json:"symptoms"`
	FamilyHistories []FamilyHistory `json:"familyHistory"`
	Lifestyles      []Lifestyle     `json:"lifestyleFactors"`
}

func Options() Catalog {
	return Catalog{
		Genders:         Genders,
		GeneticMarkers:  GeneticMarkers,
		Conditions:      Conditions,
		Medications:     Medications,
		Symptoms:        Symptoms,
		FamilyHistories: FamilyHistories,
		Lifestyles:      Lifestyles,
	}
}
