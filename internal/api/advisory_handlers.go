package api

import (
	"encoding/json"
	"log"
	"net/http"

	"agrisense.app/plantcare/internal/core"
)

type CropAdvisoryRequest struct {
	PH            *float64             `json:"ph"`
	Nitrogen      *float64             `json:"nitrogen"`
	Depth         *float64             `json:"depth"`
	Phosphorus    *float64             `json:"phosphorus,omitempty"`
	Potassium     *float64             `json:"potassium,omitempty"`
	OrganicMatter *float64             `json:"organicMatter,omitempty"`
	Moisture      *float64             `json:"moisture,omitempty"`
	Location      string               `json:"location,omitempty"`
	Weather       *core.WeatherContext `json:"weather,omitempty"`
	Season        string               `json:"season,omitempty"`
	Language      string               `json:"language,omitempty"`
}

func (h *APIHandler) CropAdvisoryHandler(w http.ResponseWriter, r *http.Request) {
	var req CropAdvisoryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	// Presence check, not zero check: ph=0 is a valid (if extreme) reading.
	if req.PH == nil || req.Nitrogen == nil || req.Depth == nil {
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"success": false,
			"error":   "Missing required soil parameters (pH, nitrogen, depth)",
		})
		return
	}

	soil := core.SoilParameters{
		PH:            *req.PH,
		Nitrogen:      *req.Nitrogen,
		Depth:         *req.Depth,
		Phosphorus:    req.Phosphorus,
		Potassium:     req.Potassium,
		OrganicMatter: req.OrganicMatter,
		Moisture:      req.Moisture,
	}

	result, err := h.advisory.Recommend(r.Context(), soil, req.Location, req.Season, req.Language, req.Weather)
	if err != nil {
		// Unreachable in practice: the chain ends in hardcoded crops.
		log.Printf("Crop advisory failed despite fallback chain: %v", err)
		writeError(w, http.StatusInternalServerError, "An internal server error occurred")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":         true,
		"source":          result.Source,
		"recommendations": result.Recommendations,
		"totalCount":      result.TotalCount,
		"note":            result.Note,
	})
}

type SoilAnalysisRequest struct {
	Location string `json:"location"`
}

func (h *APIHandler) SoilAnalysisHandler(w http.ResponseWriter, r *http.Request) {
	var req SoilAnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Location == "" {
		writeError(w, http.StatusBadRequest, "Location is required")
		return
	}

	analysis, err := h.soil.Analyze(r.Context(), req.Location)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

type TranslateRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	Context        string `json:"context,omitempty"`
}

func (h *APIHandler) TranslateHandler(w http.ResponseWriter, r *http.Request) {
	var req TranslateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if req.Text == "" || req.TargetLanguage == "" {
		writeError(w, http.StatusBadRequest, "Text and target language are required")
		return
	}

	writeJSON(w, http.StatusOK, h.translate.Translate(r.Context(), req.Text, req.TargetLanguage, req.Context))
}
