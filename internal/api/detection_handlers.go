package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"

	"agrisense.app/plantcare/internal/core"
	"agrisense.app/plantcare/internal/store"
)

type DetectDiseaseRequest struct {
	Image    string `json:"image"` // data-URI encoded image
	Location string `json:"location,omitempty"`
	Language string `json:"language,omitempty"`
}

func (h *APIHandler) DetectDiseaseHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	var req DetectDiseaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}

	if strings.TrimSpace(req.Image) == "" {
		writeError(w, http.StatusBadRequest, "Image is required")
		return
	}

	outcome, err := h.detection.Analyze(r.Context(), userID, req.Image, req.Location, req.Language)
	if err != nil {
		// Analyze only fails on invalid input or a failed store write; the
		// detection chain itself always terminates in the canned tier.
		if errors.Is(err, core.ErrDetectionNotSaved) {
			log.Printf("Error persisting detection for user %s: %v", userID, err)
			writeError(w, http.StatusInternalServerError, "Failed to save detection result")
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":            true,
		"result":             outcome.Result,
		"source":             outcome.Source,
		"predictiveAnalysis": outcome.PredictiveAnalysis,
		"detectionId":        outcome.DetectionID,
	})
}

func (h *APIHandler) DetectionHistoryHandler(w http.ResponseWriter, r *http.Request) {
	userID := userIDFrom(r)

	detections, err := h.detection.History(userID)
	if err != nil {
		log.Printf("Error loading detections for user %s: %v", userID, err)
		writeError(w, http.StatusInternalServerError, "Failed to fetch detection history")
		return
	}
	if detections == nil {
		detections = []store.DiseaseDetection{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"detections": detections})
}
