package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agrisense.app/plantcare/internal/config"
	"agrisense.app/plantcare/internal/core"
	"agrisense.app/plantcare/internal/store"
	"agrisense.app/plantcare/internal/weather"
)

func TestMain(m *testing.M) {
	config.AppConfig.JWTSecret = "test-secret"
	os.Exit(m.Run())
}

// stubGenerator implements core.Generator with fixed responses.
type stubGenerator struct {
	textResp  string
	textErr   error
	imageResp string
	imageErr  error
}

func (s *stubGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	return s.textResp, s.textErr
}

func (s *stubGenerator) GenerateFromImage(ctx context.Context, prompt, mimeType string, image []byte) (string, error) {
	return s.imageResp, s.imageErr
}

type stubRisk struct{}

func (stubRisk) Predict(ctx context.Context, location string) weather.Assessment {
	return weather.Assessment{
		RiskLevel:       "Medium",
		Diseases:        []string{"General plant diseases"},
		Recommendations: []string{"Regular monitoring recommended"},
	}
}

func newTestServer(t *testing.T, llm core.Generator) (*httptest.Server, *store.SQLiteStore) {
	t.Helper()

	db, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	cropPath := filepath.Join(t.TempDir(), "crops.csv")
	require.NoError(t, os.WriteFile(cropPath, []byte(
		"Crop Category,Crops/Plants,Typical Soil pH,Nitrogen (kg/ha),Soil Depth (cm)\n"+
			"Vegetables,Tomato,6.0 - 7.0,100 - 150,15 - 30\n"), 0o644))

	handler := NewAPIHandler(
		core.NewAccountService(db),
		core.NewChatService(db, llm),
		core.NewDetectionService(db, llm, stubRisk{}, "", ""),
		core.NewAdvisoryService(llm, cropPath),
		core.NewSoilAnalysisService(llm),
		core.NewTranslateService(llm),
	)

	srv := httptest.NewServer(NewRouter(handler))
	t.Cleanup(srv.Close)
	return srv, db
}

func postJSON(t *testing.T, url, token string, body any) *http.Response {
	t.Helper()
	payload, err := json.Marshal(body)
	require.NoError(t, err)

	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeBody(t *testing.T, resp *http.Response) map[string]any {
	t.Helper()
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return body
}

func registerAndLogin(t *testing.T, srv *httptest.Server, email string) string {
	t.Helper()
	resp := postJSON(t, srv.URL+"/api/auth/register", "", map[string]string{
		"email": email, "password": "secret123", "name": "Farmer",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	resp.Body.Close()

	resp = postJSON(t, srv.URL+"/api/auth/login", "", map[string]string{
		"email": email, "password": "secret123",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body := decodeBody(t, resp)
	token, _ := body["token"].(string)
	require.NotEmpty(t, token)
	return token
}

func TestHealthEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})

	resp, err := http.Get(srv.URL + "/api/health")
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := decodeBody(t, resp)
	assert.Equal(t, "healthy", body["status"])
	env, ok := body["environment"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, true, env["hasJwtSecret"])
}

func TestRegisterAndLogin(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})

	t.Run("missing fields are rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/auth/register", "", map[string]string{"email": "a@b.com"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("registration returns the new user id", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/auth/register", "", map[string]string{
			"email": "new@example.com", "password": "secret123", "name": "Farmer",
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.NotEmpty(t, body["userId"])
	})

	t.Run("duplicate email conflicts", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/auth/register", "", map[string]string{
			"email": "new@example.com", "password": "other", "name": "Other",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("wrong password is unauthorized", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/auth/login", "", map[string]string{
			"email": "new@example.com", "password": "wrong",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("login issues a usable token", func(t *testing.T) {
		token := registerAndLogin(t, srv, "login@example.com")

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/chat", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusOK, resp.StatusCode)
	})
}

func TestAuthMiddleware(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{})

	t.Run("missing header is unauthorized", func(t *testing.T) {
		resp, err := http.Get(srv.URL + "/api/chat")
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})

	t.Run("garbled token is unauthorized", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/chat", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer not.a.token")
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	})
}

func TestChatEndpoints(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{textResp: "Water in the morning."})
	token := registerAndLogin(t, srv, "chat@example.com")

	t.Run("empty message is rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/chat", token, map[string]string{"message": "  "})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("reply is returned and persisted", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/chat", token, map[string]string{"message": "When to water?"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "Water in the morning.", body["response"])
		assert.NotEmpty(t, body["messageId"])
	})

	t.Run("history returns the saved exchange", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/chat", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		messages, ok := body["messages"].([]any)
		require.True(t, ok)
		assert.Len(t, messages, 1)
	})

	t.Run("clear empties the history", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/chat/clear", token, map[string]string{})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])

		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/chat", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		histResp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		histBody := decodeBody(t, histResp)
		messages, ok := histBody["messages"].([]any)
		require.True(t, ok)
		assert.Empty(t, messages)
	})
}

func TestDetectDiseaseEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{
		imageResp: `{"disease": "Leaf Spot", "confidence": 0.9, "severity": "High", "treatment": "Fungicide"}`,
	})
	token := registerAndLogin(t, srv, "detect@example.com")

	t.Run("missing image is rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/detect-disease", token, map[string]string{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("detection returns the normalized result with provenance", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/detect-disease", token, map[string]string{
			"image": "data:image/jpeg;base64,ZmFrZS1qcGVnLWJ5dGVz",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "gemini-ai", body["source"])
		assert.NotEmpty(t, body["detectionId"])

		result, ok := body["result"].(map[string]any)
		require.True(t, ok)
		assert.Equal(t, "Leaf Spot", result["disease"])
	})

	t.Run("history lists the stored detection", func(t *testing.T) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/detect-disease", nil)
		require.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		require.Equal(t, http.StatusOK, resp.StatusCode)

		body := decodeBody(t, resp)
		detections, ok := body["detections"].([]any)
		require.True(t, ok)
		assert.Len(t, detections, 1)
	})
}

func TestCropAdvisoryEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{textErr: context.DeadlineExceeded})

	t.Run("missing nitrogen is rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/crop-advisory", "", map[string]any{"ph": 6.5, "depth": 20})
		require.Equal(t, http.StatusBadRequest, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, false, body["success"])
	})

	t.Run("provider outage still produces recommendations", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/crop-advisory", "", map[string]any{
			"ph": 6.5, "nitrogen": 120, "depth": 20,
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, true, body["success"])
		assert.Equal(t, "csv-fallback", body["source"])
		recs, ok := body["recommendations"].([]any)
		require.True(t, ok)
		assert.NotEmpty(t, recs)
	})
}

func TestSoilAnalysisEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{textResp: "## CROP ADVISORY\nGrow millets."})

	t.Run("missing location is rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/soil-analysis", "", map[string]string{})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("analysis echoes the location", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/soil-analysis", "", map[string]string{"location": "Madurai"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Madurai", body["location"])
		assert.NotEmpty(t, body["analysis"])
	})

	t.Run("provider outage still returns an advisory", func(t *testing.T) {
		downSrv, _ := newTestServer(t, &stubGenerator{textErr: context.DeadlineExceeded})

		resp := postJSON(t, downSrv.URL+"/api/soil-analysis", "", map[string]string{"location": "Coimbatore"})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		analysis, _ := body["analysis"].(string)
		assert.Contains(t, analysis, "temporarily unavailable")
		assert.Contains(t, analysis, "Coimbatore")
	})
}

func TestTranslateEndpoint(t *testing.T) {
	srv, _ := newTestServer(t, &stubGenerator{textResp: "வணக்கம்"})

	t.Run("missing text is rejected", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/translate", "", map[string]string{"targetLanguage": "ta"})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("english passes through unchanged", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/translate", "", map[string]string{
			"text": "Hello", "targetLanguage": "en",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "Hello", body["translatedText"])
	})

	t.Run("translation carries the original text", func(t *testing.T) {
		resp := postJSON(t, srv.URL+"/api/translate", "", map[string]string{
			"text": "Hello", "targetLanguage": "ta",
		})
		require.Equal(t, http.StatusOK, resp.StatusCode)
		body := decodeBody(t, resp)
		assert.Equal(t, "வணக்கம்", body["translatedText"])
		assert.Equal(t, "Hello", body["originalText"])
	})
}
