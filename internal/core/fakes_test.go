package core

import (
	"context"
	"sync"
	"time"

	"agrisense.app/plantcare/internal/store"
	"agrisense.app/plantcare/internal/weather"
)

// fakeGenerator implements Generator with injectable responses, errors and
// call counting.
type fakeGenerator struct {
	mu         sync.Mutex
	textResp   string
	textErr    error
	imageResp  string
	imageErr   error
	delay      time.Duration
	textCalls  int
	imageCalls int
}

func (f *fakeGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	f.textCalls++
	f.mu.Unlock()
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.textResp, f.textErr
}

func (f *fakeGenerator) GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	f.mu.Lock()
	f.imageCalls++
	f.mu.Unlock()
	return f.imageResp, f.imageErr
}

func (f *fakeGenerator) calls() (int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.textCalls, f.imageCalls
}

type fakeChatStore struct {
	messages  []store.ChatMessage
	createErr error
}

func (f *fakeChatStore) CreateChatMessage(msg *store.ChatMessage) error {
	if f.createErr != nil {
		return f.createErr
	}
	msg.ID = "msg-1"
	f.messages = append(f.messages, *msg)
	return nil
}

func (f *fakeChatStore) GetChatMessagesByUser(userID string, limit int) ([]store.ChatMessage, error) {
	var out []store.ChatMessage
	for _, m := range f.messages {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	if len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeChatStore) ClearChatMessages(userID string) error {
	var kept []store.ChatMessage
	for _, m := range f.messages {
		if m.UserID != userID {
			kept = append(kept, m)
		}
	}
	f.messages = kept
	return nil
}

type fakeDetectionStore struct {
	detections []store.DiseaseDetection
	createErr  error
}

func (f *fakeDetectionStore) CreateDetection(d *store.DiseaseDetection) error {
	if f.createErr != nil {
		return f.createErr
	}
	d.ID = "det-1"
	f.detections = append(f.detections, *d)
	return nil
}

func (f *fakeDetectionStore) GetDetectionsByUser(userID string, limit int) ([]store.DiseaseDetection, error) {
	var out []store.DiseaseDetection
	for _, d := range f.detections {
		if d.UserID == userID {
			out = append(out, d)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeRiskAssessor struct {
	assessment weather.Assessment
}

func (f *fakeRiskAssessor) Predict(ctx context.Context, location string) weather.Assessment {
	if f.assessment.RiskLevel == "" {
		return weather.Assessment{
			RiskLevel:       "Medium",
			Diseases:        []string{"General plant diseases"},
			Recommendations: []string{"Regular monitoring recommended"},
		}
	}
	return f.assessment
}
