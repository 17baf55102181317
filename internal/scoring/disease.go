package scoring

import (
	"math"
	"sort"

	"github.com/Skufu/medidose/internal/patient"
)

type Disease string

const (
	CommonCold            Disease = "Common Cold"
	Influenza             Disease = "Influenza"
	COVID19               Disease = "COVID-19"
	Pneumonia             Disease = "Pneumonia"
	Bronchitis            Disease = "Bronchitis"
	Asthma                Disease = "Asthma"
	COPD                  Disease = "COPD"
	CoronaryArteryDisease Disease = "Coronary Artery Disease"
	Hypertension          Disease = "Hypertension"
	Type2Diabetes         Disease = "Type 2 Diabetes"
	Migraine              Disease = "Migraine"
	Gastritis             Disease = "Gastritis"
	PepticUlcer           Disease = "Peptic Ulcer"
	IBS                   Disease = "Irritable Bowel Syndrome"
	RheumatoidArthritis   Disease = "Rheumatoid Arthritis"
	Osteoarthritis        Disease = "Osteoarthritis"
	Osteoporosis          Disease = "Osteoporosis"
	Anemia                Disease = "Anemia"
	Hypothyroidism        Disease = "Hypothyroidism"
	Hyperthyroidism       Disease = "Hyperthyroidism"
)

// Diseases is the fixed catalog. Its order breaks score ties and defines
// the classifier's output classes.
var Diseases = []Disease{
	CommonCold, Influenza, COVID19, Pneumonia, Bronchitis, Asthma, COPD,
	CoronaryArteryDisease, Hypertension, Type2Diabetes, Migraine,
	Gastritis, PepticUlcer, IBS, RheumatoidArthritis, Osteoarthritis,
	Osteoporosis, Anemia, Hypothyroidism, Hyperthyroidism,
}

// BaselineDisease is reported when nothing scores.
const (
	BaselineDisease     = CommonCold
	baselineProbability = 0.5
	maxProbability      = 0.99
	maxRelated          = 3
	relatedThreshold    = 0.1
	relatedScale        = 12.0
	relatedCap          = 0.95
)

// DiseaseIndex returns the class index of d, or -1.
func DiseaseIndex(d Disease) int {
	for i, candidate := range Diseases {
		if candidate == d {
			return i
		}
	}
	return -1
}

type pointRule struct {
	id     string
	match  func(p patient.SymptomProfile) bool
	points map[Disease]int
}

func symptom(s patient.Symptom) func(patient.SymptomProfile) bool {
	return func(p patient.SymptomProfile) bool { return p.Symptoms.Has(s) }
}

func family(f patient.FamilyHistory) func(patient.SymptomProfile) bool {
	return func(p patient.SymptomProfile) bool { return p.FamilyHistory.Has(f) }
}

func lifestyle(l patient.Lifestyle) func(patient.SymptomProfile) bool {
	return func(p patient.SymptomProfile) bool { return p.Lifestyle.Has(l) }
}

func bloodTest(check func(b *patient.BloodTests) bool) func(patient.SymptomProfile) bool {
	return func(p patient.SymptomProfile) bool { return p.BloodTests != nil && check(p.BloodTests) }
}

var diseaseRules = []pointRule{
	{"symptom:cough", symptom(patient.Cough), map[Disease]int{CommonCold: 2, Influenza: 2, COVID19: 2, Pneumonia: 3, Bronchitis: 4, Asthma: 2, COPD: 3}},
	{"symptom:fever", symptom(patient.Fever), map[Disease]int{CommonCold: 1, Influenza: 3, COVID19: 3, Pneumonia: 3}},
	{"symptom:sore-throat", symptom(patient.SoreThroat), map[Disease]int{CommonCold: 3, Influenza: 2, COVID19: 1}},
	{"symptom:runny-nose", symptom(patient.RunnyNose), map[Disease]int{CommonCold: 4, Influenza: 1, COVID19: 1}},
	{"symptom:shortness-of-breath", symptom(patient.ShortnessOfBreath), map[Disease]int{Pneumonia: 4, Asthma: 5, COPD: 5, COVID19: 3, CoronaryArteryDisease: 3}},
	{"symptom:wheezing", symptom(patient.Wheezing), map[Disease]int{Asthma: 5, COPD: 4, Bronchitis: 3}},
	{"symptom:chest-pain", symptom(patient.ChestPain), map[Disease]int{CoronaryArteryDisease: 5, Pneumonia: 2}},
	{"vitals:blood-pressure", func(p patient.SymptomProfile) bool {
		return p.BloodPressureSystolic > 140 || p.BloodPressureDiastolic > 90
	}, map[Disease]int{Hypertension: 5, CoronaryArteryDisease: 2}},
	{"symptom:headache", symptom(patient.Headache), map[Disease]int{Migraine: 4, Hypertension: 2, CommonCold: 1, Influenza: 2}},
	{"symptom:dizziness", symptom(patient.Dizziness), map[Disease]int{Migraine: 3, Hypertension: 2, Anemia: 3}},
	{"symptom:abdominal-pain", symptom(patient.AbdominalPain), map[Disease]int{Gastritis: 4, PepticUlcer: 4, IBS: 3}},
	{"symptom:nausea", symptom(patient.Nausea), map[Disease]int{Gastritis: 3, PepticUlcer: 3, Influenza: 2, Migraine: 2}},
	{"symptom:diarrhea", symptom(patient.Diarrhea), map[Disease]int{IBS: 4, Gastritis: 2, COVID19: 1}},
	{"symptom:joint-pain", symptom(patient.JointPain), map[Disease]int{RheumatoidArthritis: 5, Osteoarthritis: 4}},
	{"symptom:muscle-pain", symptom(patient.MusclePain), map[Disease]int{Influenza: 3, COVID19: 2, RheumatoidArthritis: 1}},
	{"blood:hemoglobin", bloodTest(func(b *patient.BloodTests) bool { return b.Hemoglobin < 12 }), map[Disease]int{Anemia: 5}},
	{"blood:wbc", bloodTest(func(b *patient.BloodTests) bool { return b.WhiteBloodCellCount > 11000 }), map[Disease]int{Pneumonia: 2, COVID19: 2, Influenza: 2}},
	{"blood:glucose", bloodTest(func(b *patient.BloodTests) bool { return b.Glucose > 126 }), map[Disease]int{Type2Diabetes: 5}},
	{"blood:cholesterol", bloodTest(func(b *patient.BloodTests) bool { return b.Cholesterol > 240 }), map[Disease]int{CoronaryArteryDisease: 3, Hypertension: 2}},
	{"family:diabetes", family(patient.FamilyDiabetes), map[Disease]int{Type2Diabetes: 2}},
	{"family:heart-disease", family(patient.FamilyHeartDisease), map[Disease]int{CoronaryArteryDisease: 2, Hypertension: 1}},
	{"family:hypertension", family(patient.FamilyHypertension), map[Disease]int{Hypertension: 2}},
	{"family:asthma", family(patient.FamilyAsthma), map[Disease]int{Asthma: 2}},
	{"family:arthritis", family(patient.FamilyArthritis), map[Disease]int{RheumatoidArthritis: 2, Osteoarthritis: 2}},
	{"lifestyle:smoking", lifestyle(patient.Smoking), map[Disease]int{COPD: 3, CoronaryArteryDisease: 2, Pneumonia: 1, Asthma: 1}},
	{"lifestyle:alcohol", lifestyle(patient.Alcohol), map[Disease]int{Gastritis: 2, PepticUlcer: 2, Hypertension: 1}},
	{"lifestyle:sedentary", lifestyle(patient.Sedentary), map[Disease]int{Type2Diabetes: 2, CoronaryArteryDisease: 2, Hypertension: 2, Osteoporosis: 1}},
	{"lifestyle:stress", lifestyle(patient.HighStress), map[Disease]int{Hypertension: 2, Migraine: 2, IBS: 2}},
	{"age:over-60", func(p patient.SymptomProfile) bool { return p.Age > 60 }, map[Disease]int{CoronaryArteryDisease: 2, Hypertension: 2, Type2Diabetes: 1, Osteoarthritis: 2, Osteoporosis: 2}},
	{"age:under-18", func(p patient.SymptomProfile) bool { return p.Age < 18 }, map[Disease]int{Asthma: 1, CommonCold: 1}},
}

type DiseaseScore struct {
	Disease Disease `json:"disease"`
	Points  int     `json:"points"`
}

type RelatedDisease struct {
	Name        Disease `json:"name"`
	Probability float64 `json:"probability"`
}

// DiseaseScorer sums rule points per disease.
type DiseaseScorer struct{}

func NewDiseaseScorer() *DiseaseScorer {
	return &DiseaseScorer{}
}

// Scores returns one entry per catalog disease, in catalog order.
func (s *DiseaseScorer) Scores(p patient.SymptomProfile) []DiseaseScore {
	totals := make(map[Disease]int, len(Diseases))
	for _, rule := range diseaseRules {
		if !rule.match(p) {
			continue
		}
		for d, pts := range rule.points {
			totals[d] += pts
		}
	}

	scores := make([]DiseaseScore, len(Diseases))
	for i, d := range Diseases {
		scores[i] = DiseaseScore{Disease: d, Points: totals[d]}
	}
	return scores
}

// Best returns the first disease reaching the maximum score. With no
// points at all it returns the baseline disease and zero.
func (s *DiseaseScorer) Best(p patient.SymptomProfile) DiseaseScore {
	return bestOf(s.Scores(p))
}

func bestOf(scores []DiseaseScore) DiseaseScore {
	best := DiseaseScore{Disease: BaselineDisease}
	for _, sc := range scores {
		if sc.Points > best.Points {
			best = sc
		}
	}
	return best
}

// Diagnose runs the point scorer and builds the full result.
func (s *DiseaseScorer) Diagnose(p patient.SymptomProfile) DiagnosisResult {
	scores := s.Scores(p)
	best := bestOf(scores)

	probability := baselineProbability
	if best.Points > 0 {
		probability = math.Min(maxProbability, float64(best.Points)/10)
	}

	related := make([]RelatedDisease, 0, maxRelated)
	for _, sc := range scores {
		if sc.Disease == best.Disease {
			continue
		}
		prob := math.Min(relatedCap, float64(sc.Points)/relatedScale)
		if prob > relatedThreshold {
			related = append(related, RelatedDisease{Name: sc.Disease, Probability: prob})
		}
	}

	result := BuildDiagnosis(best.Disease, probability, TopRelated(related), p)
	result.Source = SourceRules
	result.Findings = s.Matched(p)
	return result
}

// Matched lists the ids of the rules that fired for p.
func (s *DiseaseScorer) Matched(p patient.SymptomProfile) []string {
	ids := []string{}
	for _, rule := range diseaseRules {
		if rule.match(p) {
			ids = append(ids, rule.id)
		}
	}
	return ids
}

// TopRelated sorts descending by probability, keeping catalog order on ties,
// and keeps at most three entries.
func TopRelated(related []RelatedDisease) []RelatedDisease {
	sort.SliceStable(related, func(i, j int) bool {
		return related[i].Probability > related[j].Probability
	})
	if len(related) > maxRelated {
		related = related[:maxRelated]
	}
	return related
}
