package core

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
)

const maxAIRecommendations = 7

// SoilParameters is the crop advisory input. PH, Nitrogen and Depth are
// mandatory; the rest refine the AI tier's prompt.
type SoilParameters struct {
	PH            float64  `json:"ph"`
	Nitrogen      float64  `json:"nitrogen"` // kg/ha
	Depth         float64  `json:"depth"`    // cm
	Phosphorus    *float64 `json:"phosphorus,omitempty"`
	Potassium     *float64 `json:"potassium,omitempty"`
	OrganicMatter *float64 `json:"organicMatter,omitempty"`
	Moisture      *float64 `json:"moisture,omitempty"`
}

// WeatherContext is optional caller-supplied weather for the AI tier.
type WeatherContext struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Humidity    *float64 `json:"humidity,omitempty"`
	Rainfall    *float64 `json:"rainfall,omitempty"`
	WindSpeed   *float64 `json:"windSpeed,omitempty"`
	Forecast    string   `json:"forecast,omitempty"`
}

// CropRecommendation is the normalized recommendation shape shared by every
// tier. Tabular tiers fill the range fields; the AI tier fills the advisory
// text fields. The source tag is the only tier discriminator.
type CropRecommendation struct {
	CropName         string   `json:"cropName"`
	Category         string   `json:"category"`
	SuitabilityScore int      `json:"suitabilityScore"` // 0-100
	Reasons          []string `json:"reasons,omitempty"`
	PlantingTips     []string `json:"plantingTips,omitempty"`
	ExpectedYield    string   `json:"expectedYield,omitempty"`
	GrowthDuration   string   `json:"growthDuration,omitempty"`
	MarketValue      string   `json:"marketValue,omitempty"`
	RiskFactors      []string `json:"riskFactors,omitempty"`
	SeasonalAdvice   string   `json:"seasonalAdvice,omitempty"`
	SoilPHRange      string   `json:"soilPHRange,omitempty"`
	NitrogenRange    string   `json:"nitrogenRange,omitempty"`
	SoilDepthRange   string   `json:"soilDepthRange,omitempty"`
}

// AdvisoryResult carries the recommendations plus the provenance tag of the
// tier that produced them.
type AdvisoryResult struct {
	Source          string               `json:"source"`
	Recommendations []CropRecommendation `json:"recommendations"`
	TotalCount      int                  `json:"totalCount"`
	Note            string               `json:"note,omitempty"`
}

type AdvisoryService struct {
	llm      Generator
	dataPath string
}

func NewAdvisoryService(llm Generator, cropDataPath string) *AdvisoryService {
	return &AdvisoryService{llm: llm, dataPath: cropDataPath}
}

// Recommend runs the advisory fallback chain:
// gemini-ai -> csv-fallback -> csv-general -> hardcoded-fallback.
func (s *AdvisoryService) Recommend(ctx context.Context, soil SoilParameters, location, season, language string, weatherCtx *WeatherContext) (*AdvisoryResult, error) {
	language = NormalizeLanguage(language)

	var note string
	tiers := []Tier[[]CropRecommendation]{
		{Source: "gemini-ai", Run: func(ctx context.Context) ([]CropRecommendation, error) {
			note = ""
			return s.recommendWithGemini(ctx, soil, location, season, language, weatherCtx)
		}},
		{Source: "csv-fallback", Run: func(ctx context.Context) ([]CropRecommendation, error) {
			note = "Using database recommendations. AI service temporarily unavailable."
			return s.recommendFromTable(soil)
		}},
		{Source: "csv-general", Run: func(ctx context.Context) ([]CropRecommendation, error) {
			note = "No exact matches found. Showing general crop recommendations."
			return s.generalFromTable()
		}},
		{Source: "hardcoded-fallback", Run: func(ctx context.Context) ([]CropRecommendation, error) {
			note = "Using basic recommendations. Please try again later for personalized suggestions."
			return hardcodedCrops(), nil
		}},
	}

	recommendations, source, err := Resolve(ctx, tiers)
	if err != nil {
		return nil, err
	}

	return &AdvisoryResult{
		Source:          source,
		Recommendations: recommendations,
		TotalCount:      len(recommendations),
		Note:            note,
	}, nil
}

// AI tier

func (s *AdvisoryService) recommendWithGemini(ctx context.Context, soil SoilParameters, location, season, language string, weatherCtx *WeatherContext) ([]CropRecommendation, error) {
	text, err := s.llm.GenerateText(ctx, advisoryPrompt(soil, location, season, language, weatherCtx))
	if err != nil {
		return nil, err
	}

	var parsed []CropRecommendation
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse AI crop recommendations: %w", err)
	}

	// Discard items missing the minimum fields, cap at 7.
	valid := parsed[:0]
	for _, rec := range parsed {
		if strings.TrimSpace(rec.CropName) == "" || rec.SuitabilityScore <= 0 {
			continue
		}
		valid = append(valid, rec)
		if len(valid) == maxAIRecommendations {
			break
		}
	}
	if len(valid) == 0 {
		return nil, fmt.Errorf("AI returned no valid crop recommendations")
	}
	return valid, nil
}

func advisoryPrompt(soil SoilParameters, location, season, language string, weatherCtx *WeatherContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert agricultural advisor and crop consultant. Analyze the following soil and weather conditions to provide detailed crop recommendations. %s\n\n", responseLanguageDirective(language))

	fmt.Fprintf(&b, "**Soil Parameters:**\n")
	fmt.Fprintf(&b, "- pH Level: %g\n", soil.PH)
	fmt.Fprintf(&b, "- Nitrogen: %g kg/ha\n", soil.Nitrogen)
	fmt.Fprintf(&b, "- Soil Depth: %g cm\n", soil.Depth)
	fmt.Fprintf(&b, "- Phosphorus: %s ppm\n", optionalNumber(soil.Phosphorus))
	fmt.Fprintf(&b, "- Potassium: %s ppm\n", optionalNumber(soil.Potassium))
	fmt.Fprintf(&b, "- Organic Matter: %s%%\n", optionalNumber(soil.OrganicMatter))
	fmt.Fprintf(&b, "- Moisture: %s%%\n\n", optionalNumber(soil.Moisture))

	fmt.Fprintf(&b, "**Current Weather Conditions:**\n")
	fmt.Fprintf(&b, "- Location: %s\n", valueOr(location, "Not specified"))
	if weatherCtx != nil {
		fmt.Fprintf(&b, "- Temperature: %s°C\n", optionalNumber(weatherCtx.Temperature))
		fmt.Fprintf(&b, "- Humidity: %s%%\n", optionalNumber(weatherCtx.Humidity))
		fmt.Fprintf(&b, "- Rainfall: %smm\n", optionalNumber(weatherCtx.Rainfall))
		fmt.Fprintf(&b, "- Wind Speed: %s km/h\n", optionalNumber(weatherCtx.WindSpeed))
		fmt.Fprintf(&b, "- Weather Forecast: %s\n", valueOr(weatherCtx.Forecast, "Not provided"))
	}
	fmt.Fprintf(&b, "- Season: %s\n\n", valueOr(season, "Current season"))

	b.WriteString(`Please provide 5-7 crop recommendations in the following JSON format:
[
  {
    "cropName": "Crop name",
    "category": "Vegetables/Fruits/Grains/Herbs/etc",
    "suitabilityScore": 85,
    "reasons": ["Reason 1", "Reason 2"],
    "plantingTips": ["Tip 1", "Tip 2"],
    "expectedYield": "X tons per hectare",
    "growthDuration": "X months",
    "marketValue": "High/Medium/Low with brief explanation",
    "riskFactors": ["Risk 1", "Risk 2"],
    "seasonalAdvice": "Best planting time and seasonal considerations"
  }
]

Focus on crops that match the soil pH and nutrient levels, suit the given depth and moisture, fit the weather and season, and are economically viable. Provide scientifically accurate recommendations with practical farming insights.`)
	return b.String()
}

func optionalNumber(v *float64) string {
	if v == nil {
		return "Not provided"
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

// Tabular tiers

type cropRow struct {
	Category      string
	Name          string
	PHRange       string
	NitrogenRange string
	DepthRange    string
}

func (s *AdvisoryService) loadCropTable() ([]cropRow, error) {
	f, err := os.Open(s.dataPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open crop table %s: %w", s.dataPath, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read crop table: %w", err)
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("crop table has no data rows")
	}

	rows := make([]cropRow, 0, len(records)-1)
	for _, record := range records[1:] { // skip header
		if len(record) < 5 {
			continue
		}
		rows = append(rows, cropRow{
			Category:      strings.TrimSpace(record[0]),
			Name:          strings.TrimSpace(record[1]),
			PHRange:       strings.TrimSpace(record[2]),
			NitrogenRange: strings.TrimSpace(record[3]),
			DepthRange:    strings.TrimSpace(record[4]),
		})
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("crop table has no usable rows")
	}
	return rows, nil
}

// recommendFromTable keeps only crops whose documented pH, nitrogen and depth
// ranges all contain the corresponding input. Zero matches is a tier failure
// so the resolver moves on to the general tier.
func (s *AdvisoryService) recommendFromTable(soil SoilParameters) ([]CropRecommendation, error) {
	rows, err := s.loadCropTable()
	if err != nil {
		return nil, err
	}

	var matches []CropRecommendation
	for _, row := range rows {
		if withinRange(soil.PH, row.PHRange) &&
			withinRange(soil.Nitrogen, row.NitrogenRange) &&
			withinRange(soil.Depth, row.DepthRange) {
			matches = append(matches, row.toRecommendation(80, "Matches your soil pH, nitrogen and depth ranges"))
		}
	}
	if len(matches) == 0 {
		return nil, fmt.Errorf("no crops matched the supplied soil parameters")
	}
	return matches, nil
}

// generalFromTable returns the first rows of the table as explicitly
// non-personalized suggestions.
func (s *AdvisoryService) generalFromTable() ([]CropRecommendation, error) {
	rows, err := s.loadCropTable()
	if err != nil {
		return nil, err
	}
	if len(rows) > 5 {
		rows = rows[:5]
	}
	recommendations := make([]CropRecommendation, 0, len(rows))
	for _, row := range rows {
		recommendations = append(recommendations, row.toRecommendation(50, "General suggestion, not matched to your soil parameters"))
	}
	return recommendations, nil
}

func (r cropRow) toRecommendation(score int, reason string) CropRecommendation {
	return CropRecommendation{
		CropName:         r.Name,
		Category:         r.Category,
		SuitabilityScore: score,
		Reasons:          []string{reason},
		SoilPHRange:      r.PHRange,
		NitrogenRange:    r.NitrogenRange,
		SoilDepthRange:   r.DepthRange,
	}
}

func hardcodedCrops() []CropRecommendation {
	return []CropRecommendation{
		{
			CropName: "Tomato", Category: "Vegetables", SuitabilityScore: 60,
			SoilPHRange: "6.0 - 7.0", NitrogenRange: "100 - 150", SoilDepthRange: "15 - 30",
		},
		{
			CropName: "Potato", Category: "Vegetables", SuitabilityScore: 60,
			SoilPHRange: "5.5 - 6.5", NitrogenRange: "80 - 120", SoilDepthRange: "20 - 40",
		},
		{
			CropName: "Rice", Category: "Grains", SuitabilityScore: 60,
			SoilPHRange: "5.5 - 7.0", NitrogenRange: "100 - 200", SoilDepthRange: "10 - 25",
		},
	}
}

// Range helpers

// parseRange splits a "min - max" range string. Malformed input reports ok=false.
func parseRange(s string) (min, max float64, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	min, errMin := parseFloat(parts[0])
	max, errMax := parseFloat(parts[1])
	if errMin != nil || errMax != nil {
		return 0, 0, false
	}
	return min, max, true
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// withinRange reports whether value falls inclusively inside the range string.
// A malformed or missing range never matches.
func withinRange(value float64, rangeStr string) bool {
	min, max, ok := parseRange(rangeStr)
	if !ok {
		return false
	}
	return value >= min && value <= max
}
