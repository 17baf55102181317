package recommend

import (
	"github.com/Skufu/medidose/internal/patient"
	"github.com/Skufu/medidose/internal/scoring"
)

type Alternative struct {
	Name   string  `json:"name"`
	Dosage float64 `json:"dosage"`
}

var alternativeDrugs = map[string][]string{
	"ibuprofen":     {"naproxen", "acetaminophen"},
	"acetaminophen": {"ibuprofen", "aspirin"},
	"amoxicillin":   {"azithromycin", "doxycycline"},
	"lisinopril":    {"losartan", "enalapril"},
	"metformin":     {"glipizide", "sitagliptin"},
	"atorvastatin":  {"simvastatin", "rosuvastatin"},
	"levothyroxine": {"liothyronine", "levothyroxine"},
}

var alternativeBase = map[string]float64{
	"naproxen":      250,
	"acetaminophen": 500,
	"ibuprofen":     400,
	"aspirin":       325,
	"azithromycin":  250,
	"doxycycline":   100,
	"losartan":      50,
	"enalapril":     10,
	"glipizide":     5,
	"sitagliptin":   100,
	"simvastatin":   20,
	"rosuvastatin":  10,
	"liothyronine":  25,
}

const defaultAlternativeBase = 100.0

// Alternatives lists substitutes for drug, dosed by weight and age only.
func Alternatives(p patient.Profile, drug string, ages scoring.AgePolicy) []Alternative {
	names := alternativeDrugs[scoring.NormalizeDrug(drug)]
	out := make([]Alternative, 0, len(names))
	for _, name := range names {
		base, ok := alternativeBase[name]
		if !ok {
			base = defaultAlternativeBase
		}
		out = append(out, Alternative{
			Name:   name,
			Dosage: max(scoring.RoundToStep(base*scoring.WeightFactor(p.Weight)*ages.Factor(p.Age)), scoring.MinDosage),
		})
	}
	return out
}
