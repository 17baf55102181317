package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/Skufu/medidose/internal/patient"
)

const (
	referenceWeight = 70.0
	dosageStep      = 5.0
	defaultBase     = 100.0
)

// MinDosage is the smallest dose ever recommended: one rounding step.
const MinDosage = dosageStep

// Drugs lists the drugs with a known base dosage, in catalog order.
var Drugs = []string{
	"ibuprofen",
	"acetaminophen",
	"amoxicillin",
	"lisinopril",
	"metformin",
	"atorvastatin",
	"levothyroxine",
}

var baseDosages = map[string]float64{
	"ibuprofen":     400,
	"acetaminophen": 500,
	"amoxicillin":   250,
	"lisinopril":    10,
	"metformin":     500,
	"atorvastatin":  20,
	"levothyroxine": 100,
}

var medicalMultipliers = []struct {
	condition patient.Condition
	factor    float64
}{
	{patient.LiverDisease, 0.7},
	{patient.ChronicKidneyDisease, 0.8},
}

// AgePolicy holds the age brackets applied to every dosage.
type AgePolicy struct {
	ElderlyThreshold int
	ElderlyFactor    float64
	YoungThreshold   int
	YoungFactor      float64
}

func DefaultAgePolicy() AgePolicy {
	return AgePolicy{
		ElderlyThreshold: 65,
		ElderlyFactor:    0.8,
		YoungThreshold:   25,
		YoungFactor:      0.9,
	}
}

func (a AgePolicy) Factor(age int) float64 {
	switch {
	case age > a.ElderlyThreshold:
		return a.ElderlyFactor
	case age < a.YoungThreshold:
		return a.YoungFactor
	default:
		return 1
	}
}

// String identifies the policy, so models trained on its labels can be
// told apart from models trained under another one.
func (a AgePolicy) String() string {
	return fmt.Sprintf("young<%d:%g,elderly>%d:%g", a.YoungThreshold, a.YoungFactor, a.ElderlyThreshold, a.ElderlyFactor)
}

// Factors is the breakdown of a rule-based dosage before rounding.
type Factors struct {
	Base    float64 `json:"base"`
	Weight  float64 `json:"weight"`
	Age     float64 `json:"age"`
	Genetic float64 `json:"genetic"`
	Medical float64 `json:"medical"`
}

func (f Factors) Product() float64 {
	return f.Base * f.Weight * f.Age * f.Genetic * f.Medical
}

type DosageEngine struct {
	ages AgePolicy
}

func NewDosageEngine(ages AgePolicy) *DosageEngine {
	return &DosageEngine{ages: ages}
}

func (e *DosageEngine) AgePolicy() AgePolicy {
	return e.ages
}

func (e *DosageEngine) Factors(p patient.Profile, drug string) Factors {
	return Factors{
		Base:    BaseDosage(drug),
		Weight:  WeightFactor(p.Weight),
		Age:     e.ages.Factor(p.Age),
		Genetic: geneticFactor(p.GeneticMarkers),
		Medical: medicalFactor(p.MedicalHistory),
	}
}

// Score returns the deterministic dosage in mg, rounded to the nearest 5.
func (e *DosageEngine) Score(p patient.Profile, drug string) float64 {
	return RoundToStep(e.Factors(p, drug).Product())
}

// ScoreWithJitter scales the unrounded dosage by jitter before rounding.
// Only the synthetic generator uses it.
func (e *DosageEngine) ScoreWithJitter(p patient.Profile, drug string, jitter float64) float64 {
	return RoundToStep(e.Factors(p, drug).Product() * jitter)
}

func BaseDosage(drug string) float64 {
	if base, ok := baseDosages[NormalizeDrug(drug)]; ok {
		return base
	}
	return defaultBase
}

func WeightFactor(weight float64) float64 {
	return weight / referenceWeight
}

// geneticFactor checks poor metabolizer first, so it wins when both are present.
func geneticFactor(markers patient.Tags[patient.GeneticMarker]) float64 {
	if markers.Has(patient.CYP2D6Poor) {
		return 0.7
	}
	if markers.Has(patient.CYP2D6Rapid) {
		return 1.3
	}
	return 1
}

func medicalFactor(history patient.Tags[patient.Condition]) float64 {
	factor := 1.0
	for _, m := range medicalMultipliers {
		if history.Has(m.condition) {
			factor *= m.factor
		}
	}
	return factor
}

// RoundToStep rounds to the nearest 5 mg and never returns a negative value.
func RoundToStep(v float64) float64 {
	if v <= 0 || math.IsNaN(v) {
		return 0
	}
	return math.Round(v/dosageStep) * dosageStep
}

func NormalizeDrug(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
