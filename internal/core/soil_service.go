package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"
)

// SoilAnalysis is the free-text advisory for a location. No structured
// parsing, no persistence.
type SoilAnalysis struct {
	Analysis  string    `json:"analysis"`
	Location  string    `json:"location"`
	Timestamp time.Time `json:"timestamp"`
}

type SoilAnalysisService struct {
	llm Generator
}

func NewSoilAnalysisService(llm Generator) *SoilAnalysisService {
	return &SoilAnalysisService{llm: llm}
}

// Analyze asks the model to reason about soil and climate internally but emit
// only farmer-facing actionable advice. Provider failure yields a static
// fallback text rather than an error.
func (s *SoilAnalysisService) Analyze(ctx context.Context, location string) (*SoilAnalysis, error) {
	if strings.TrimSpace(location) == "" {
		return nil, fmt.Errorf("location is required")
	}

	text, err := s.llm.GenerateText(ctx, soilAnalysisPrompt(location))
	if err != nil || strings.TrimSpace(text) == "" {
		log.Printf("Soil analysis generation failed for %q, using fallback advisory: %v", location, err)
		text = soilAnalysisFallback(location)
	}

	return &SoilAnalysis{
		Analysis:  text,
		Location:  location,
		Timestamp: time.Now(),
	}, nil
}

func soilAnalysisPrompt(location string) string {
	return fmt.Sprintf(`You are an expert agricultural advisor. For the location "%[1]s", analyze the soil and climate conditions internally and provide ONLY the final actionable recommendations for farmers.

DO NOT show technical soil parameters (pH, NPK values, ppm, etc.) in your response. Instead, provide practical farming advice based on your internal analysis.

## CROP ADVISORY FOR: %[1]s

Analyze %[1]s internally for soil conditions, climate, and agricultural suitability, then provide:

### 🌾 RECOMMENDED CROPS
List 5 best crops for %[1]s with why each crop fits, expected yield per hectare, best planting season, and market potential.

### 🌱 FARMING RECOMMENDATIONS
Fertilizers and timing, irrigation schedule and water management, pest and disease prevention, soil improvement techniques.

### 📅 SEASONAL FARMING CALENDAR
Month-by-month activities: land preparation, sowing dates, fertilizer schedule, harvesting periods.

### 💰 ECONOMIC ANALYSIS
Investment per hectare, expected income, profit margins, government schemes available.

### 🎯 SPECIFIC ACTIONS FOR FARMERS
Immediate steps this season, long-term soil health improvement, crop rotation plan, marketing strategies.

IMPORTANT:
- Do NOT mention technical soil parameters (pH, nitrogen levels, etc.)
- Focus on PRACTICAL farming advice specific to %[1]s
- Use farmer-friendly language and actionable steps`, location)
}

func soilAnalysisFallback(location string) string {
	return fmt.Sprintf(`## CROP ADVISORY FOR: %s

The advisory service is temporarily unavailable. General guidance until it returns:

- Rotate cereals with legumes to maintain soil fertility
- Add well-decomposed compost or farmyard manure before the main season
- Prefer drip or furrow irrigation over flooding to conserve water
- Scout fields weekly for early signs of pests and disease
- Consult your local agricultural extension office for region-specific varieties

Please try again later for recommendations tailored to your location.`, location)
}
