package scoring

import "github.com/Skufu/medidose/internal/patient"

const (
	SourceRules = "rules"
	SourceModel = "model"
)

type Prescription struct {
	Name      string `json:"name"`
	Dosage    string `json:"dosage"`
	Frequency string `json:"frequency"`
	Duration  string `json:"duration"`
}

type DiagnosisResult struct {
	Disease                     Disease            `json:"disease"`
	Probability                 float64            `json:"probability"`
	RelatedDiseases             []RelatedDisease   `json:"relatedDiseases"`
	RecommendedMedications      []Prescription     `json:"recommendedMedications"`
	RecommendedDiet             DietRecommendation `json:"recommendedDiet"`
	RecommendedLifestyleChanges []string           `json:"recommendedLifestyleChanges"`
	FollowUpInDays              int                `json:"followUpInDays"`
	Findings                    []string           `json:"findings,omitempty"`
	Source                      string             `json:"source"`
}

var acetaminophen = Prescription{Name: "Acetaminophen", Dosage: "500mg", Frequency: "Every 6 hours as needed", Duration: "5 days"}

var prescriptions = map[Disease][]Prescription{
	CommonCold: {
		acetaminophen,
		{Name: "Dextromethorphan", Dosage: "30mg", Frequency: "Every 6-8 hours as needed", Duration: "5 days"},
	},
	Influenza: {
		{Name: "Oseltamivir", Dosage: "75mg", Frequency: "Twice daily", Duration: "5 days"},
		acetaminophen,
	},
	Pneumonia: {
		{Name: "Amoxicillin", Dosage: "500mg", Frequency: "Three times daily", Duration: "7-10 days"},
		{Name: "Azithromycin", Dosage: "500mg", Frequency: "Once daily", Duration: "5 days"},
	},
	CoronaryArteryDisease: {
		{Name: "Aspirin", Dosage: "81mg", Frequency: "Once daily", Duration: "Ongoing"},
		{Name: "Atorvastatin", Dosage: "20mg", Frequency: "Once daily", Duration: "Ongoing"},
	},
	Hypertension: {
		{Name: "Lisinopril", Dosage: "10mg", Frequency: "Once daily", Duration: "Ongoing"},
		{Name: "Hydrochlorothiazide", Dosage: "12.5mg", Frequency: "Once daily", Duration: "Ongoing"},
	},
	Type2Diabetes: {
		{Name: "Metformin", Dosage: "500mg", Frequency: "Twice daily", Duration: "Ongoing"},
		{Name: "Glipizide", Dosage: "5mg", Frequency: "Once daily", Duration: "Ongoing"},
	},
	Migraine: {
		{Name: "Sumatriptan", Dosage: "50mg", Frequency: "As needed for migraine", Duration: "As needed"},
		{Name: "Propranolol", Dosage: "40mg", Frequency: "Twice daily", Duration: "Ongoing for prevention"},
	},
	Gastritis: {
		{Name: "Omeprazole", Dosage: "20mg", Frequency: "Once daily", Duration: "14 days"},
		{Name: "Sucralfate", Dosage: "1g", Frequency: "Four times daily", Duration: "14 days"},
	},
	RheumatoidArthritis: {
		{Name: "Methotrexate", Dosage: "15mg", Frequency: "Once weekly", Duration: "Ongoing"},
		{Name: "Prednisone", Dosage: "5mg", Frequency: "Once daily", Duration: "As directed"},
	},
}

var commonLifestyleChanges = []string{
	"Get 7-8 hours of sleep each night",
	"Stay hydrated throughout the day",
	"Practice stress management techniques",
}

var (
	cardioChanges = []string{
		"Engage in moderate aerobic exercise for 30 minutes, 5 days a week",
		"Reduce sodium intake to less than 2,300mg per day",
		"Maintain a healthy weight",
		"Limit alcohol consumption",
		"Quit smoking",
	}
	respiratoryChanges = []string{
		"Avoid known triggers (allergens, smoke, pollution)",
		"Use air purifiers at home",
		"Practice breathing exercises",
		"Quit smoking",
		"Get annual flu vaccine",
	}
	jointChanges = []string{
		"Engage in low-impact exercises like swimming or cycling",
		"Apply heat or cold packs to affected joints",
		"Maintain a healthy weight to reduce joint stress",
		"Use assistive devices when needed",
		"Practice gentle stretching exercises",
	}
	generalChanges = []string{
		"Engage in regular physical activity",
		"Maintain a balanced diet",
		"Stay hydrated",
		"Avoid smoking and excessive alcohol",
	}
)

var lifestyleChanges = map[Disease][]string{
	Hypertension:          cardioChanges,
	CoronaryArteryDisease: cardioChanges,
	Type2Diabetes: {
		"Monitor blood glucose levels regularly",
		"Exercise for at least 150 minutes per week",
		"Maintain a consistent meal schedule",
		"Limit carbohydrate intake",
		"Maintain a healthy weight",
	},
	Asthma:              respiratoryChanges,
	COPD:                respiratoryChanges,
	RheumatoidArthritis: jointChanges,
	Osteoarthritis:      jointChanges,
	Migraine: {
		"Identify and avoid personal migraine triggers",
		"Maintain a regular sleep schedule",
		"Stay hydrated",
		"Practice stress reduction techniques",
		"Consider keeping a migraine diary",
	},
}

var followUpDays = map[Disease]int{
	CommonCold:            7,
	Influenza:             7,
	Pneumonia:             5,
	COVID19:               5,
	CoronaryArteryDisease: 30,
	Hypertension:          30,
	Type2Diabetes:         30,
	RheumatoidArthritis:   21,
}

const (
	defaultFollowUp = 14
	minFollowUp     = 3
	followUpShift   = 7
)

// BuildDiagnosis attaches medications, diet, lifestyle changes and the
// follow-up period for disease to a scored result.
func BuildDiagnosis(disease Disease, probability float64, related []RelatedDisease, p patient.SymptomProfile) DiagnosisResult {
	if related == nil {
		related = []RelatedDisease{}
	}
	return DiagnosisResult{
		Disease:                     disease,
		Probability:                 probability,
		RelatedDiseases:             related,
		RecommendedMedications:      Prescriptions(disease),
		RecommendedDiet:             DiseaseDiet(disease, p),
		RecommendedLifestyleChanges: LifestyleChanges(disease),
		FollowUpInDays:              FollowUp(disease, probability),
	}
}

func Prescriptions(disease Disease) []Prescription {
	meds, ok := prescriptions[disease]
	if !ok {
		meds = []Prescription{acetaminophen}
	}
	return append([]Prescription(nil), meds...)
}

func LifestyleChanges(disease Disease) []string {
	specific, ok := lifestyleChanges[disease]
	if !ok {
		specific = generalChanges
	}
	out := make([]string, 0, len(commonLifestyleChanges)+len(specific))
	out = append(out, commonLifestyleChanges...)
	return append(out, specific...)
}

// FollowUp shortens the disease baseline by a week for confident results,
// never below three days, and lengthens it by a week for uncertain ones.
func FollowUp(disease Disease, probability float64) int {
	days, ok := followUpDays[disease]
	if !ok {
		days = defaultFollowUp
	}
	switch {
	case probability > 0.9:
		days = max(minFollowUp, days-followUpShift)
	case probability < 0.7:
		days += followUpShift
	}
	return days
}
