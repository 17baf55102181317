// Package synthetic generates reproducible patient populations and dosage
// labels used to fit the learned models.
package synthetic

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
)

// DosageRecord is one training label. Records are never modified after
// generation.
type DosageRecord struct {
	PatientID           string  `json:"patientId"`
	DrugName            string  `json:"drugName"`
	OptimalDosage       float64 `json:"optimalDosage"`
	ActualEffectiveness float64 `json:"actualEffectiveness"`
}

type Dataset struct {
	Patients []patient.Profile
	Records  []DosageRecord
	// Labels is the age policy the records were scored with.
	Labels string
}

// Patient looks up a generated patient by id.
func (d Dataset) Patient(id string) (patient.Profile, bool) {
	for _, p := range d.Patients {
		if p.ID == id {
			return p, true
		}
	}
	return patient.Profile{}, false
}

// RecordsFor returns the records of drug, in generation order.
func (d Dataset) RecordsFor(drug string) []DosageRecord {
	drug = scoring.NormalizeDrug(drug)
	out := []DosageRecord{}
	for _, r := range d.Records {
		if r.DrugName == drug {
			out = append(out, r)
		}
	}
	return out
}

// NewRand returns a PCG-backed source. A zero seed picks a time-based one.
func NewRand(seed uint64) *rand.Rand {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// minLabel keeps low-dose drugs on light patients from rounding to zero.
const minLabel = scoring.MinDosage

// Generator is not safe for concurrent use.
type Generator struct {
	rng    *rand.Rand
	engine *scoring.DosageEngine
}

func New(rng *rand.Rand, engine *scoring.DosageEngine) *Generator {
	return &Generator{rng: rng, engine: engine}
}

func (g *Generator) intn(lo, hi int) int {
	return lo + g.rng.IntN(hi-lo+1)
}

func (g *Generator) uniform(lo, hi float64) float64 {
	return lo + g.rng.Float64()*(hi-lo)
}

func round(v float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(v*pow) / pow
}

// sample picks n distinct entries of catalog.
func sample[T any](rng *rand.Rand, catalog []T, n int) []T {
	n = min(n, len(catalog))
	out := make([]T, 0, n)
	for _, i := range rng.Perm(len(catalog))[:n] {
		out = append(out, catalog[i])
	}
	return out
}

// Patient draws one dosage-flow patient.
func (g *Generator) Patient(id string) patient.Profile {
	age := g.intn(18, 88)
	gender := patient.Genders[g.rng.IntN(len(patient.Genders))]

	weightMin, weightMax := 50.0, 100.0
	if age > 65 {
		weightMin -= 5
		weightMax -= 10
	}
	heightMin, heightMax := 150, 190
	if gender == patient.Female {
		weightMin -= 10
		weightMax -= 15
		heightMin -= 10
		heightMax -= 15
	}

	return patient.Profile{
		ID:                 id,
		Age:                age,
		Gender:             gender,
		Weight:             round(g.uniform(weightMin, weightMax), 1),
		Height:             float64(g.intn(heightMin, heightMax)),
		GeneticMarkers:     sample(g.rng, patient.GeneticMarkers, g.intn(0, 2)),
		MedicalHistory:     sample(g.rng, patient.Conditions, g.intn(0, 3)),
		CurrentMedications: sample(g.rng, patient.Medications, g.intn(0, 3)),
	}
}

// Dataset draws count patients and one to three dosage records each, with
// labels from the rule engine scaled by a jitter in [0.9, 1.1].
func (g *Generator) Dataset(count int) Dataset {
	ds := Dataset{
		Patients: make([]patient.Profile, 0, max(count, 0)),
		Records:  []DosageRecord{},
		Labels:   g.engine.AgePolicy().String(),
	}
	for i := 0; i < count; i++ {
		p := g.Patient(fmt.Sprintf("P%d", 1000+i))
		ds.Patients = append(ds.Patients, p)

		for _, drug := range sample(g.rng, scoring.Drugs, g.intn(1, 3)) {
			ds.Records = append(ds.Records, DosageRecord{
				PatientID:           p.ID,
				DrugName:            drug,
				OptimalDosage:       max(g.engine.ScoreWithJitter(p, drug, g.uniform(0.9, 1.1)), minLabel),
				ActualEffectiveness: round(g.uniform(0.75, 0.98), 2),
			})
		}
	}
	return ds
}

// SymptomPatient draws one diagnosis-flow patient. Vitals drift with age and
// lifestyle and blood tests are always present.
func (g *Generator) SymptomPatient(id string) patient.SymptomProfile {
	age := g.intn(18, 88)
	gender := patient.Genders[g.rng.IntN(len(patient.Genders))]

	lifestyle := patient.Tags[patient.Lifestyle](sample(g.rng, patient.Lifestyles, g.intn(2, 5)))

	var weight, height float64
	if gender == patient.Male {
		weight = float64(g.intn(60, 99))
		height = float64(g.intn(160, 189))
	} else {
		weight = float64(g.intn(50, 79))
		height = float64(g.intn(150, 174))
	}

	systolic, diastolic := 120.0, 80.0
	if age > 50 {
		systolic += float64(g.rng.IntN(30))
		diastolic += float64(g.rng.IntN(15))
	}
	if lifestyle.Has(patient.Smoking) || lifestyle.Has(patient.Alcohol) {
		systolic += float64(g.rng.IntN(20))
		diastolic += float64(g.rng.IntN(10))
	}
	heartRate := float64(g.intn(70, 99))
	if lifestyle.Has(patient.RegularExercise) {
		systolic -= float64(g.rng.IntN(10))
		diastolic -= float64(g.rng.IntN(5))
		heartRate -= float64(g.rng.IntN(15))
	}

	return patient.SymptomProfile{
		Profile: patient.Profile{
			ID:     id,
			Age:    age,
			Gender: gender,
			Weight: weight,
			Height: height,
		},
		BloodPressureSystolic:  systolic,
		BloodPressureDiastolic: diastolic,
		HeartRate:              heartRate,
		BodyTemperature:        round(g.uniform(36.5, 38.0), 1),
		Symptoms:               sample(g.rng, patient.Symptoms, g.intn(3, 7)),
		FamilyHistory:          sample(g.rng, patient.FamilyHistories, g.intn(0, 3)),
		Lifestyle:              lifestyle,
		BloodTests: &patient.BloodTests{
			Glucose:             float64(g.intn(90, 149)),
			Cholesterol:         float64(g.intn(150, 249)),
			Hemoglobin:          round(g.uniform(12, 18), 1),
			WhiteBloodCellCount: float64(g.intn(4000, 9999)),
			PlateletCount:       float64(g.intn(150000, 449999)),
		},
	}
}

func (g *Generator) SymptomPatients(count int) []patient.SymptomProfile {
	out := make([]patient.SymptomProfile, 0, max(count, 0))
	for i := 0; i < count; i++ {
		out = append(out, g.SymptomPatient(fmt.Sprintf("P%d", 1000+i)))
	}
	return out
}
