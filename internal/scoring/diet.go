package scoring

import (
	"math"

	"github.com/Skufu/medidose/internal/patient"
)

type MealPlan struct {
	Breakfast []string `json:"breakfast"`
	Lunch     []string `json:"lunch"`
	Dinner    []string `json:"dinner"`
	Snacks    []string `json:"snacks"`
}

type DietRecommendation struct {
	Type          string   `json:"type"`
	DailyCalories int      `json:"dailyCalories"`
	MealPlan      MealPlan `json:"mealPlan"`
	FoodsToAvoid  []string `json:"foodsToAvoid"`
	FoodsToEat    []string `json:"foodsToEat"`
	WaterIntake   float64  `json:"waterIntake"`
	Duration      int      `json:"duration"`
}

type foodLists struct {
	dietType string
	avoid    []string
	eat      []string
}

var (
	gastricFoods = foodLists{
		dietType: "Gastric Friendly",
		avoid:    []string{"Spicy foods", "Acidic foods", "Alcohol", "Coffee", "Chocolate", "Fried foods"},
		eat:      []string{"Bananas", "Rice", "Applesauce", "Toast", "Yogurt", "Lean proteins"},
	}
	inflammationFoods = foodLists{
		dietType: "Anti-inflammatory",
		avoid:    []string{"Processed foods", "Sugar", "Alcohol", "Red meat", "Fried foods"},
		eat:      []string{"Fatty fish", "Olive oil", "Nuts", "Berries", "Leafy greens", "Turmeric"},
	}
	generalFoods = foodLists{
		dietType: "General Healthy",
		avoid:    []string{"Processed foods", "Excess sugar", "Excess salt", "Fried foods"},
		eat:      []string{"Fruits", "Vegetables", "Whole grains", "Lean proteins", "Healthy fats"},
	}
)

var diseaseFoods = map[Disease]foodLists{
	Hypertension: {
		dietType: "Low Sodium",
		avoid:    []string{"Processed foods", "Canned soups", "Deli meats", "Fast food", "Salty snacks"},
		eat:      []string{"Fresh fruits", "Fresh vegetables", "Whole grains", "Lean proteins", "Low-fat dairy"},
	},
	Type2Diabetes: {
		dietType: "Diabetic",
		avoid:    []string{"Sugary drinks", "White bread", "White rice", "Pastries", "Candy", "Fruit juice"},
		eat:      []string{"Whole grains", "Leafy greens", "Fatty fish", "Nuts", "Beans", "Berries"},
	},
	CoronaryArteryDisease: {
		dietType: "Heart Healthy",
		avoid:    []string{"Fried foods", "Red meat", "Butter", "Full-fat dairy", "Baked goods", "Salt"},
		eat:      []string{"Fatty fish", "Olive oil", "Nuts", "Whole grains", "Fruits", "Vegetables"},
	},
	Gastritis:           gastricFoods,
	PepticUlcer:         gastricFoods,
	RheumatoidArthritis: inflammationFoods,
	Osteoarthritis:      inflammationFoods,
}

func defaultMealPlan() MealPlan {
	return MealPlan{
		Breakfast: []string{"Oatmeal with berries", "Green tea", "Whole grain toast"},
		Lunch:     []string{"Grilled chicken salad", "Quinoa", "Fresh fruit"},
		Dinner:    []string{"Baked salmon", "Steamed vegetables", "Brown rice"},
		Snacks:    []string{"Nuts", "Greek yogurt", "Apple with almond butter"},
	}
}

const (
	baseDailyCalories = 2000
	dietDurationDays  = 30
	litersPerKg       = 0.033
)

// DiseaseDiet is the diet attached to a diagnosis: disease food lists and a
// calorie target stepped by BMI band, gender and age.
func DiseaseDiet(disease Disease, p patient.SymptomProfile) DietRecommendation {
	foods, ok := diseaseFoods[disease]
	if !ok {
		foods = generalFoods
	}

	calories := baseDailyCalories
	switch bmi := p.BMI(); {
	case bmi > 30:
		calories = 1800
	case bmi > 25:
		calories = 1900
	case bmi < 18.5:
		calories = 2200
	}
	if p.Gender == patient.Male {
		calories += 200
	}
	switch {
	case p.Age > 60:
		calories -= 200
	case p.Age < 18:
		calories += 200
	}

	return DietRecommendation{
		Type:          foods.dietType,
		DailyCalories: calories,
		MealPlan:      defaultMealPlan(),
		FoodsToAvoid:  Dedupe(foods.avoid),
		FoodsToEat:    Dedupe(foods.eat),
		WaterIntake:   WaterIntake(p.Weight),
		Duration:      dietDurationDays,
	}
}

// PersonaliseDiet rescales a diagnosis diet for the patient's BMI, recomputes
// water intake and extends the food lists from blood test results.
func PersonaliseDiet(base DietRecommendation, p patient.SymptomProfile) DietRecommendation {
	diet := base

	switch bmi := p.BMI(); {
	case bmi > 30:
		diet.DailyCalories = roundInt(float64(base.DailyCalories) * 0.8)
	case bmi > 25:
		diet.DailyCalories = roundInt(float64(base.DailyCalories) * 0.9)
	case bmi < 18.5:
		diet.DailyCalories = roundInt(float64(base.DailyCalories) * 1.2)
	}
	diet.WaterIntake = WaterIntake(p.Weight)

	avoid := append([]string(nil), base.FoodsToAvoid...)
	eat := append([]string(nil), base.FoodsToEat...)
	if b := p.BloodTests; b != nil {
		if b.Cholesterol > 200 {
			avoid = append(avoid, "High-fat dairy", "Fried foods", "Processed meats")
			eat = append(eat, "Oats", "Beans", "Plant sterols")
		}
		if b.Glucose > 120 {
			avoid = append(avoid, "White bread", "White rice", "Sugary drinks", "Candy")
			eat = append(eat, "Whole grains", "Leafy greens", "Cinnamon", "Berries")
		}
		if b.Hemoglobin < 12 {
			eat = append(eat, "Red meat", "Spinach", "Lentils", "Iron-fortified cereals")
		}
	}
	diet.FoodsToAvoid = Dedupe(avoid)
	diet.FoodsToEat = Dedupe(eat)
	return diet
}

type dietPlan struct {
	meals        MealPlan
	avoid        []string
	eat          []string
	baseCalories float64
}

const (
	LowSodiumDiet        = "Low Sodium"
	DiabeticDiet         = "Diabetic"
	HeartHealthyDiet     = "Heart Healthy"
	AntiInflammatoryDiet = "Anti-inflammatory"
	WeightManagementDiet = "Weight Management"
)

var dietPlans = map[string]dietPlan{
	LowSodiumDiet: {
		meals: MealPlan{
			Breakfast: []string{"Oatmeal with fresh fruit", "Egg whites with vegetables", "Whole grain toast with avocado"},
			Lunch:     []string{"Grilled chicken salad", "Quinoa bowl with vegetables", "Homemade soup with fresh ingredients"},
			Dinner:    []string{"Baked fish with herbs", "Steamed vegetables", "Brown rice or sweet potato"},
			Snacks:    []string{"Fresh fruit", "Unsalted nuts", "Yogurt", "Vegetable sticks"},
		},
		avoid:        []string{"Processed foods", "Canned soups", "Deli meats", "Fast food", "Salty snacks", "Condiments", "Pickled foods"},
		eat:          []string{"Fresh fruits", "Fresh vegetables", "Whole grains", "Lean proteins", "Low-fat dairy", "Herbs and spices"},
		baseCalories: 2000,
	},
	DiabeticDiet: {
		meals: MealPlan{
			Breakfast: []string{"Egg white omelet with vegetables", "Steel-cut oatmeal with cinnamon", "Greek yogurt with berries"},
			Lunch:     []string{"Grilled chicken with quinoa", "Lentil soup with vegetables", "Tuna salad with olive oil"},
			Dinner:    []string{"Baked fish", "Roasted vegetables", "Small portion of whole grains"},
			Snacks:    []string{"Handful of nuts", "Apple with almond butter", "Cheese stick", "Vegetable sticks"},
		},
		avoid:        []string{"Sugary drinks", "White bread", "White rice", "Pastries", "Candy", "Fruit juice", "Processed foods"},
		eat:          []string{"Whole grains", "Leafy greens", "Fatty fish", "Nuts", "Beans", "Citrus fruits", "Berries"},
		baseCalories: 1800,
	},
	HeartHealthyDiet: {
		meals: MealPlan{
			Breakfast: []string{"Oatmeal with berries", "Whole grain toast with avocado", "Smoothie with greens and fruit"},
			Lunch:     []string{"Salmon salad with olive oil", "Vegetable soup with beans", "Quinoa bowl with vegetables"},
			Dinner:    []string{"Grilled fish or lean poultry", "Steamed vegetables", "Brown rice or sweet potato"},
			Snacks:    []string{"Nuts", "Fresh fruit", "Dark chocolate (small piece)", "Yogurt"},
		},
		avoid:        []string{"Fried foods", "Red meat", "Butter", "Full-fat dairy", "Baked goods", "Salt", "Processed foods"},
		eat:          []string{"Fatty fish", "Olive oil", "Nuts", "Whole grains", "Fruits", "Vegetables", "Legumes"},
		baseCalories: 1800,
	},
	AntiInflammatoryDiet: {
		meals: MealPlan{
			Breakfast: []string{"Smoothie with berries and spinach", "Chia seed pudding", "Turmeric oatmeal with fruit"},
			Lunch:     []string{"Grilled salmon with vegetables", "Quinoa salad with olive oil", "Lentil soup"},
			Dinner:    []string{"Baked fish with herbs", "Roasted vegetables with turmeric", "Brown rice or sweet potato"},
			Snacks:    []string{"Walnuts", "Berries", "Green tea", "Dark chocolate (small piece)"},
		},
		avoid:        []string{"Processed foods", "Fried foods", "Refined carbohydrates", "Sugar", "Red meat", "Alcohol"},
		eat:          []string{"Fatty fish", "Olive oil", "Nuts", "Berries", "Leafy greens", "Turmeric", "Ginger", "Green tea"},
		baseCalories: 2000,
	},
	WeightManagementDiet: {
		meals: MealPlan{
			Breakfast: []string{"Protein smoothie", "Egg whites with vegetables", "Greek yogurt with berries"},
			Lunch:     []string{"Large salad with lean protein", "Vegetable soup with beans", "Grilled chicken with vegetables"},
			Dinner:    []string{"Baked fish or lean poultry", "Large portion of vegetables", "Small portion of whole grains"},
			Snacks:    []string{"Apple", "Protein bar", "Vegetable sticks with hummus", "Greek yogurt"},
		},
		avoid:        []string{"Sugary drinks", "Processed foods", "Fried foods", "Refined carbohydrates", "Alcohol", "High-calorie desserts"},
		eat:          []string{"Lean proteins", "Vegetables", "Fruits", "Whole grains", "Low-fat dairy", "Water"},
		baseCalories: 1600,
	},
}

// Obesity is not a catalog diagnosis but callers may pass it to PlanDiet.
const Obesity Disease = "Obesity"

var diseaseDietTypes = map[Disease]string{
	Hypertension:          LowSodiumDiet,
	Type2Diabetes:         DiabeticDiet,
	CoronaryArteryDisease: HeartHealthyDiet,
	Asthma:                AntiInflammatoryDiet,
	Obesity:               WeightManagementDiet,
}

// PlanDiet picks a diet type for the diagnosed disease and scales its base
// calories by BMI, age, gender and activity level.
func PlanDiet(disease Disease, probability float64, p patient.SymptomProfile) DietRecommendation {
	dietType, ok := diseaseDietTypes[disease]
	if !ok {
		dietType = HeartHealthyDiet
	}
	plan := dietPlans[dietType]

	adjust := 1.0
	switch bmi := p.BMI(); {
	case bmi > 30:
		adjust *= 0.85
	case bmi > 25:
		adjust *= 0.9
	case bmi < 18.5:
		adjust *= 1.15
	}
	switch {
	case p.Age > 60:
		adjust *= 0.9
	case p.Age < 30:
		adjust *= 1.1
	}
	if p.Gender == patient.Male {
		adjust *= 1.1
	}
	switch {
	case p.Lifestyle.Has(patient.RegularExercise):
		adjust *= 1.2
	case p.Lifestyle.Has(patient.Sedentary):
		adjust *= 0.9
	}

	duration := 90
	switch {
	case probability > 0.8:
		duration = 120
	case probability < 0.6:
		duration = 60
	}

	return DietRecommendation{
		Type:          dietType,
		DailyCalories: roundInt(plan.baseCalories * adjust),
		MealPlan:      plan.meals,
		FoodsToAvoid:  Dedupe(plan.avoid),
		FoodsToEat:    Dedupe(plan.eat),
		WaterIntake:   WaterIntake(p.Weight),
		Duration:      duration,
	}
}

// WaterIntake is 0.033 L per kg, rounded to one decimal.
func WaterIntake(weight float64) float64 {
	return math.Round(weight*litersPerKg*10) / 10
}

// Dedupe keeps the first occurrence of each item.
func Dedupe(items []string) []string {
	seen := make(map[string]struct{}, len(items))
	out := make([]string, 0, len(items))
	for _, item := range items {
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func roundInt(v float64) int {
	return int(math.Round(v))
}
