package parsers

import (
	"math"
	"regexp"
	"strconv"

	"github.com/jolly-agents/server/internal/agent/model"
)

// Labels and values may be wrapped in markdown emphasis, e.g. "**Total Calories:** 300 kcal".
var (
	totalCaloriesRe = regexp.MustCompile(`(?i)Total\s+Calories[*_]*\s*:\s*[*_]*\s*(\d+)\s*[*_]*\s*kcal`)
	caloriesRe      = regexp.MustCompile(`(?i)Calories[*_]*\s*:\s*[*_]*\s*(\d+)\s*[*_]*\s*kcal`)
	proteinRe       = regexp.MustCompile(`(?i)Protein[*_]*\s*:\s*[*_]*\s*(\d+(?:\.\d+)?)\s*[*_]*\s*g`)
	sugarRe         = regexp.MustCompile(`(?i)Sugar[*_]*\s*:\s*[*_]*\s*(\d+(?:\.\d+)?)\s*[*_]*\s*g`)
)

const (
	FieldCalories = "calories"
	FieldProtein  = "protein"
	FieldSugar    = "sugar"
)

// Extraction is the result of scanning one reply.
type Extraction struct {
	Nutrition model.Nutrition
	// Rejected lists fields that matched but exceeded the limits.
	Rejected []string
}

// Extractor pulls calorie, protein and sugar figures out of free-form text.
type Extractor struct {
	limits model.NutritionLimits
}

// NewExtractor returns an Extractor; zero limits mean "no bound" for that field.
func NewExtractor(limits model.NutritionLimits) *Extractor {
	return &Extractor{limits: limits}
}

var defaultExtractor = NewExtractor(model.DefaultNutritionLimits)

// Extract scans text with the default limits.
func Extract(text string) Extraction {
	return defaultExtractor.Extract(text)
}

// Extract applies each pattern independently; a field with no match is zero.
func (e *Extractor) Extract(text string) Extraction {
	if len(text) > maxReplyLen {
		text = text[:maxReplyLen]
	}
	var out Extraction

	calories, found := firstInt(text, totalCaloriesRe)
	if !found {
		calories, found = firstInt(text, caloriesRe)
	}
	if found {
		if calories < 0 || (e.limits.MaxCalories > 0 && calories > e.limits.MaxCalories) {
			out.Rejected = append(out.Rejected, FieldCalories)
		} else {
			out.Nutrition.Calories = calories
		}
	}

	if protein, ok := firstFloat(text, proteinRe); ok {
		if exceeds(protein, e.limits.MaxProtein) {
			out.Rejected = append(out.Rejected, FieldProtein)
		} else {
			out.Nutrition.Protein = protein
		}
	}

	if sugar, ok := firstFloat(text, sugarRe); ok {
		if exceeds(sugar, e.limits.MaxSugar) {
			out.Rejected = append(out.Rejected, FieldSugar)
		} else {
			out.Nutrition.Sugar = sugar
		}
	}

	return out
}

// firstInt returns the first capture of re. found is true when the pattern
// matched, even if the digits overflow; overflow is reported as -1.
func firstInt(text string, re *regexp.Regexp) (v int, found bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return -1, true
	}
	return n, true
}

func firstFloat(text string, re *regexp.Regexp) (float64, bool) {
	m := re.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return math.Inf(1), true
	}
	return v, true
}

func exceeds(v, max float64) bool {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return true
	}
	return max > 0 && v > max
}
