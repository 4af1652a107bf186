// Package weather predicts plant disease risk from current conditions.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"time"
)

const (
	openWeatherEndpoint = "https://api.openweathermap.org/data/2.5/weather"
	requestTimeout      = 10 * time.Second
)

// Assessment is a weather-derived disease risk forecast. It always has a
// usable shape; lookup failures produce the default medium-risk guidance.
type Assessment struct {
	RiskLevel       string   `json:"riskLevel"` // Low, Medium, High
	Diseases        []string `json:"diseases"`
	Recommendations []string `json:"recommendations"`
}

type Service struct {
	apiKey     string
	httpClient *http.Client
}

func NewService(apiKey string) *Service {
	return &Service{
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: requestTimeout},
	}
}

type currentConditions struct {
	Main struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
	} `json:"main"`
}

// Predict never fails: any lookup problem yields the default assessment so a
// missing weather provider cannot break disease detection.
func (s *Service) Predict(ctx context.Context, location string) Assessment {
	conditions, err := s.fetch(ctx, location)
	if err != nil {
		log.Printf("Weather lookup for %q failed, using default risk assessment: %v", location, err)
		return defaultAssessment()
	}
	return assess(conditions.Main.Humidity, conditions.Main.Temp)
}

func (s *Service) fetch(ctx context.Context, location string) (*currentConditions, error) {
	if s.apiKey == "" {
		return nil, fmt.Errorf("no weather API key configured")
	}

	endpoint := fmt.Sprintf("%s?q=%s&appid=%s&units=metric", openWeatherEndpoint, url.QueryEscape(location), s.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("weather request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("weather data unavailable (status %d)", resp.StatusCode)
	}

	var conditions currentConditions
	if err := json.NewDecoder(resp.Body).Decode(&conditions); err != nil {
		return nil, fmt.Errorf("failed to decode weather response: %w", err)
	}
	return &conditions, nil
}

// assess maps humidity/temperature onto a disease risk tier. Warm and humid
// favors fungal and bacterial spread.
func assess(humidity, temp float64) Assessment {
	switch {
	case humidity > 80 && temp > 20:
		return Assessment{
			RiskLevel: "High",
			Diseases:  []string{"Fungal infections", "Bacterial blight", "Powdery mildew"},
			Recommendations: []string{
				"Improve air circulation around plants",
				"Reduce watering frequency",
				"Apply preventive fungicide spray",
			},
		}
	case humidity > 60 || temp > 30:
		return Assessment{
			RiskLevel: "Medium",
			Diseases:  []string{"Leaf spot", "Root rot"},
			Recommendations: []string{
				"Monitor plants closely",
				"Ensure proper drainage",
				"Avoid overhead watering",
			},
		}
	default:
		return Assessment{
			RiskLevel: "Low",
			Diseases:  []string{},
			Recommendations: []string{
				"Continue regular monitoring",
				"Maintain current care routine",
			},
		}
	}
}

func defaultAssessment() Assessment {
	return Assessment{
		RiskLevel: "Medium",
		Diseases:  []string{"General plant diseases"},
		Recommendations: []string{
			"Regular monitoring recommended",
			"Maintain good plant hygiene",
		},
	}
}
