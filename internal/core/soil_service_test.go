package core

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSoilAnalyze(t *testing.T) {
	ctx := context.Background()

	t.Run("missing location is rejected without a provider call", func(t *testing.T) {
		llm := &fakeGenerator{textResp: "advice"}
		svc := NewSoilAnalysisService(llm)

		_, err := svc.Analyze(ctx, "   ")
		require.Error(t, err)
		textCalls, _ := llm.calls()
		assert.Zero(t, textCalls)
	})

	t.Run("successful analysis echoes the location", func(t *testing.T) {
		svc := NewSoilAnalysisService(&fakeGenerator{textResp: "## CROP ADVISORY\nGrow millets."})

		result, err := svc.Analyze(ctx, "Madurai")
		require.NoError(t, err)
		assert.Equal(t, "Madurai", result.Location)
		assert.Contains(t, result.Analysis, "Grow millets")
		assert.False(t, result.Timestamp.IsZero())
	})

	t.Run("provider failure yields the static fallback advisory", func(t *testing.T) {
		svc := NewSoilAnalysisService(&fakeGenerator{textErr: errors.New("gemini down")})

		result, err := svc.Analyze(ctx, "Coimbatore")
		require.NoError(t, err)
		assert.Contains(t, result.Analysis, "temporarily unavailable")
		assert.Contains(t, result.Analysis, "Coimbatore")
		assert.Equal(t, "Coimbatore", result.Location)
	})

	t.Run("empty provider response yields the static fallback advisory", func(t *testing.T) {
		svc := NewSoilAnalysisService(&fakeGenerator{textResp: "  "})

		result, err := svc.Analyze(ctx, "Salem")
		require.NoError(t, err)
		assert.Contains(t, result.Analysis, "temporarily unavailable")
	})
}
