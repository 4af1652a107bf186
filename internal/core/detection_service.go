package core

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"regexp"
	"strings"
	"time"

	"agrisense.app/plantcare/internal/store"
	"agrisense.app/plantcare/internal/weather"
)

// ErrDetectionNotSaved is returned by Analyze when the result could not be
// written to the store. A detection without durable storage is a failure.
var ErrDetectionNotSaved = errors.New("failed to persist detection")

const (
	detectionHistoryCap = 20

	// Only a short prefix of the uploaded image is persisted.
	storedImagePrefixLen = 100

	plantIDEndpoint     = "https://api.plant.id/v2/health_assessment"
	huggingFaceEndpoint = "https://api-inference.huggingface.co/models/nateraw/food"

	classifierTimeout = 10 * time.Second
)

// DiseaseResult is the normalized detection shape shared by every fallback
// tier. Callers must branch only on the source tag, never on field presence.
type DiseaseResult struct {
	Disease       string   `json:"disease"`
	Confidence    float64  `json:"confidence"` // 0-1 fraction
	Severity      string   `json:"severity"`   // Low, Medium, High
	Treatment     string   `json:"treatment"`
	Description   string   `json:"description"`
	Prevention    string   `json:"prevention"`
	PlantType     string   `json:"plantType,omitempty"`
	AffectedParts []string `json:"affectedParts,omitempty"`
	Symptoms      []string `json:"symptoms,omitempty"`
}

type DetectionStore interface {
	CreateDetection(d *store.DiseaseDetection) error
	GetDetectionsByUser(userID string, limit int) ([]store.DiseaseDetection, error)
}

// RiskAssessor produces the best-effort predictive weather analysis.
type RiskAssessor interface {
	Predict(ctx context.Context, location string) weather.Assessment
}

type DetectionService struct {
	dbStore    DetectionStore
	llm        Generator
	risk       RiskAssessor
	httpClient *http.Client

	plantIDKey       string
	huggingFaceToken string
}

func NewDetectionService(db DetectionStore, llm Generator, risk RiskAssessor, plantIDKey, huggingFaceToken string) *DetectionService {
	return &DetectionService{
		dbStore:          db,
		llm:              llm,
		risk:             risk,
		httpClient:       &http.Client{Timeout: classifierTimeout},
		plantIDKey:       plantIDKey,
		huggingFaceToken: huggingFaceToken,
	}
}

// DetectionOutcome is the full analysis response: normalized result, the tier
// that produced it, the optional predictive analysis and the persisted id.
type DetectionOutcome struct {
	Result             DiseaseResult       `json:"result"`
	Source             string              `json:"source"`
	PredictiveAnalysis *weather.Assessment `json:"predictiveAnalysis,omitempty"`
	DetectionID        string              `json:"detectionId"`
}

// Analyze runs the detection fallback chain for the image and persists the
// outcome under the caller's user id. The chain ends in a canned tier, so the
// only failure modes are invalid input and a failed store write.
func (s *DetectionService) Analyze(ctx context.Context, userID, imageDataURI, location, language string) (*DetectionOutcome, error) {
	mimeType, imageData, base64Payload, err := parseImageDataURI(imageDataURI)
	if err != nil {
		return nil, err
	}
	language = NormalizeLanguage(language)

	tiers := []Tier[DiseaseResult]{
		{Source: "gemini-ai", Run: func(ctx context.Context) (DiseaseResult, error) {
			return s.detectWithGemini(ctx, mimeType, imageData, language)
		}},
		{Source: "plant-id", Run: func(ctx context.Context) (DiseaseResult, error) {
			return s.detectWithPlantID(ctx, base64Payload)
		}},
		{Source: "huggingface", Run: func(ctx context.Context) (DiseaseResult, error) {
			return s.detectWithHuggingFace(ctx, base64Payload)
		}},
		{Source: "simulated", Run: func(ctx context.Context) (DiseaseResult, error) {
			return cannedDiagnoses[rand.Intn(len(cannedDiagnoses))], nil
		}},
	}

	result, source, err := Resolve(ctx, tiers)
	if err != nil {
		// Unreachable with the simulated terminal tier in place.
		return nil, err
	}

	var predictive *weather.Assessment
	if location != "" {
		assessment := s.risk.Predict(ctx, location)
		predictive = &assessment
	}

	detection := store.DiseaseDetection{
		UserID:      userID,
		Disease:     result.Disease,
		Confidence:  result.Confidence,
		Severity:    result.Severity,
		Treatment:   result.Treatment,
		Description: result.Description,
		Prevention:  result.Prevention,
		PlantType:   result.PlantType,
		Source:      source,
		ImageData:   truncateImage(imageDataURI),
		Location:    location,
	}
	if predictive != nil {
		if encoded, err := json.Marshal(predictive); err == nil {
			detection.PredictiveJSON = string(encoded)
		}
	}

	// A detection result is not meaningful without durable storage.
	if err := s.dbStore.CreateDetection(&detection); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDetectionNotSaved, err)
	}

	return &DetectionOutcome{
		Result:             result,
		Source:             source,
		PredictiveAnalysis: predictive,
		DetectionID:        detection.ID,
	}, nil
}

// History returns the caller's detections, newest first.
func (s *DetectionService) History(userID string) ([]store.DiseaseDetection, error) {
	return s.dbStore.GetDetectionsByUser(userID, detectionHistoryCap)
}

var dataURIPattern = regexp.MustCompile(`^data:(image/[a-z+.-]+);base64,(.+)$`)

// parseImageDataURI validates the payload and returns the media type, decoded
// bytes and the bare base64 body (the classifier APIs take base64 directly).
func parseImageDataURI(uri string) (string, []byte, string, error) {
	if strings.TrimSpace(uri) == "" {
		return "", nil, "", fmt.Errorf("image is required")
	}
	match := dataURIPattern.FindStringSubmatch(uri)
	if match == nil {
		return "", nil, "", fmt.Errorf("invalid image data format, expected a base64 image data URI")
	}
	mimeType, payload := match[1], match[2]

	decoded, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, "", fmt.Errorf("invalid base64 image payload: %w", err)
	}
	if len(decoded) == 0 {
		return "", nil, "", fmt.Errorf("image payload is empty")
	}
	return mimeType, decoded, payload, nil
}

func truncateImage(uri string) string {
	if len(uri) <= storedImagePrefixLen {
		return uri
	}
	return uri[:storedImagePrefixLen] + "..."
}

// Gemini tier

func (s *DetectionService) detectWithGemini(ctx context.Context, mimeType string, image []byte, language string) (DiseaseResult, error) {
	text, err := s.llm.GenerateFromImage(ctx, detectionPrompt(language), mimeType, image)
	if err != nil {
		return DiseaseResult{}, err
	}
	return parseDetectionResponse(text)
}

func parseDetectionResponse(text string) (DiseaseResult, error) {
	cleaned := stripCodeFences(text)

	var parsed struct {
		Disease       string      `json:"disease"`
		Confidence    json.Number `json:"confidence"`
		Severity      string      `json:"severity"`
		Treatment     string      `json:"treatment"`
		Description   string      `json:"description"`
		Prevention    string      `json:"prevention"`
		PlantType     string      `json:"plantType"`
		AffectedParts []string    `json:"affectedParts"`
		Symptoms      []string    `json:"symptoms"`
	}
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		log.Printf("Detection response was not valid JSON, extracting from text: %v", err)
		return extractFromText(text)
	}

	confidence, _ := parsed.Confidence.Float64()
	result := DiseaseResult{
		Disease:       valueOr(parsed.Disease, "Unknown Condition"),
		Confidence:    normalizeConfidence(confidence),
		Severity:      normalizeSeverity(parsed.Severity),
		Treatment:     valueOr(parsed.Treatment, "Consult with agricultural expert"),
		Description:   valueOr(parsed.Description, "Analysis completed"),
		Prevention:    valueOr(parsed.Prevention, "Follow general plant care guidelines"),
		PlantType:     parsed.PlantType,
		AffectedParts: parsed.AffectedParts,
		Symptoms:      parsed.Symptoms,
	}
	return result, nil
}

var (
	diseaseTextPattern   = regexp.MustCompile(`(?i)disease[:\s]+([^.\n]+)`)
	treatmentTextPattern = regexp.MustCompile(`(?i)treatment[:\s]+([^.\n]+)`)
)

// extractFromText is the best-effort salvage path when the provider ignored
// the JSON format instruction.
func extractFromText(text string) (DiseaseResult, error) {
	if strings.TrimSpace(text) == "" {
		return DiseaseResult{}, fmt.Errorf("empty detection response")
	}

	disease := "Analysis Completed"
	if m := diseaseTextPattern.FindStringSubmatch(text); m != nil {
		disease = strings.TrimSpace(m[1])
	}

	treatment := text
	if len(treatment) > 200 {
		treatment = treatment[:200] + "..."
	}
	if m := treatmentTextPattern.FindStringSubmatch(text); m != nil {
		treatment = strings.TrimSpace(m[1])
	}

	return DiseaseResult{
		Disease:     disease,
		Confidence:  0.75,
		Severity:    "Medium",
		Treatment:   treatment,
		Description: "AI analysis completed. Please review the detailed response.",
		Prevention:  "Follow integrated pest management practices and maintain proper plant care.",
		PlantType:   "Unknown",
	}, nil
}

// Plant.id tier

func (s *DetectionService) detectWithPlantID(ctx context.Context, imageBase64 string) (DiseaseResult, error) {
	if s.plantIDKey == "" {
		return DiseaseResult{}, fmt.Errorf("no Plant.id API key configured")
	}

	payload := map[string]any{
		"images":         []string{imageBase64},
		"modifiers":      []string{"crops_fast", "similar_images", "health_all"},
		"plant_language": "en",
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return DiseaseResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, plantIDEndpoint, bytes.NewReader(body))
	if err != nil {
		return DiseaseResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Api-Key", s.plantIDKey)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return DiseaseResult{}, fmt.Errorf("plant.id request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return DiseaseResult{}, fmt.Errorf("plant.id returned status %d", resp.StatusCode)
	}

	var decoded struct {
		HealthAssessment struct {
			Diseases []struct {
				Name        string  `json:"name"`
				Probability float64 `json:"probability"`
				Description string  `json:"description"`
				Treatment   struct {
					Biological []string `json:"biological"`
				} `json:"treatment"`
			} `json:"diseases"`
		} `json:"health_assessment"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return DiseaseResult{}, fmt.Errorf("failed to decode plant.id response: %w", err)
	}

	diseases := decoded.HealthAssessment.Diseases
	if len(diseases) == 0 {
		return DiseaseResult{
			Disease:     "Healthy Plant",
			Confidence:  0.9,
			Severity:    "Low",
			Treatment:   "Plant appears healthy. Continue current care routine.",
			Description: "No diseases detected in the analysis.",
			Prevention:  "Maintain proper watering and fertilization schedule.",
		}, nil
	}

	top := diseases[0]
	treatment := "Consult agricultural expert."
	if len(top.Treatment.Biological) > 0 {
		treatment = top.Treatment.Biological[0]
	}
	return DiseaseResult{
		Disease:     valueOr(top.Name, "Unknown Disease"),
		Confidence:  normalizeConfidence(top.Probability),
		Severity:    severityFromConfidence(top.Probability),
		Treatment:   treatment,
		Description: valueOr(top.Description, "Disease identified through AI analysis."),
		Prevention:  "Follow integrated pest management practices.",
	}, nil
}

// Hugging Face tier

func (s *DetectionService) detectWithHuggingFace(ctx context.Context, imageBase64 string) (DiseaseResult, error) {
	if s.huggingFaceToken == "" {
		return DiseaseResult{}, fmt.Errorf("no Hugging Face token configured")
	}

	body, err := json.Marshal(map[string]string{"inputs": imageBase64})
	if err != nil {
		return DiseaseResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, huggingFaceEndpoint, bytes.NewReader(body))
	if err != nil {
		return DiseaseResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+s.huggingFaceToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return DiseaseResult{}, fmt.Errorf("hugging face request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return DiseaseResult{}, fmt.Errorf("hugging face returned status %d", resp.StatusCode)
	}

	var labels []struct {
		Label string  `json:"label"`
		Score float64 `json:"score"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&labels); err != nil {
		return DiseaseResult{}, fmt.Errorf("failed to decode hugging face response: %w", err)
	}
	if len(labels) == 0 {
		return DiseaseResult{}, fmt.Errorf("hugging face returned no labels")
	}

	top := labels[0]
	confidence := top.Score
	if confidence == 0 {
		confidence = 0.7
	}
	return DiseaseResult{
		Disease:     valueOr(top.Label, "Unknown Disease"),
		Confidence:  normalizeConfidence(confidence),
		Severity:    severityFromConfidence(confidence),
		Treatment:   "Consult with agricultural expert for specific treatment recommendations.",
		Description: "Disease detected through AI analysis. Further examination recommended.",
		Prevention:  "Follow general plant care guidelines and monitor regularly.",
	}, nil
}

// Simulated terminal tier

var cannedDiagnoses = []DiseaseResult{
	{
		Disease:     "Leaf Spot",
		Confidence:  0.85,
		Severity:    "Medium",
		Treatment:   "Apply copper-based fungicide. Remove affected leaves and improve air circulation.",
		Description: "Fungal infection causing circular spots on leaves with yellow halos.",
		Prevention:  "Avoid overhead watering, ensure good drainage, and space plants properly.",
	},
	{
		Disease:     "Powdery Mildew",
		Confidence:  0.92,
		Severity:    "High",
		Treatment:   "Spray with neem oil or baking soda solution. Increase air circulation.",
		Description: "White powdery coating on leaves and stems, common in humid conditions.",
		Prevention:  "Reduce humidity, improve ventilation, and avoid overcrowding plants.",
	},
	{
		Disease:     "Bacterial Blight",
		Confidence:  0.78,
		Severity:    "High",
		Treatment:   "Remove infected parts, apply copper bactericide, and improve drainage.",
		Description: "Water-soaked lesions that turn brown with yellow halos.",
		Prevention:  "Avoid overhead irrigation, use drip irrigation, and practice crop rotation.",
	},
	{
		Disease:     "Healthy Plant",
		Confidence:  0.95,
		Severity:    "Low",
		Treatment:   "Continue current care routine. Monitor for any changes.",
		Description: "Plant appears healthy with no visible signs of disease.",
		Prevention:  "Maintain proper watering, fertilization, and pest management.",
	},
}

// Normalization helpers

// normalizeConfidence keeps confidence a 0-1 fraction; values reported as
// percentages are scaled down.
func normalizeConfidence(c float64) float64 {
	if c > 1 {
		c = c / 100
	}
	if c <= 0 {
		return 0.7
	}
	if c > 1 {
		return 1
	}
	return c
}

func normalizeSeverity(severity string) string {
	switch strings.ToLower(strings.TrimSpace(severity)) {
	case "low":
		return "Low"
	case "high":
		return "High"
	default:
		return "Medium"
	}
}

func severityFromConfidence(confidence float64) string {
	switch {
	case confidence > 0.8:
		return "High"
	case confidence > 0.6:
		return "Medium"
	default:
		return "Low"
	}
}

func valueOr(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
