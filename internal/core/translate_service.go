package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"
)

// TranslateService translates UI and advisory text via the AI provider.
// Results are cached by (text, context, language), and concurrent identical
// requests share a single in-flight provider call. Any failure returns the
// original text unchanged; translation never errors to the caller.
type TranslateService struct {
	llm Generator

	group singleflight.Group
	mu    sync.RWMutex
	cache map[string]string
}

func NewTranslateService(llm Generator) *TranslateService {
	return &TranslateService{
		llm:   llm,
		cache: make(map[string]string),
	}
}

// Translation is the translate response payload.
type Translation struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	TargetLanguage string `json:"targetLanguage"`
}

func (s *TranslateService) Translate(ctx context.Context, text, targetLanguage, translationContext string) Translation {
	result := Translation{
		OriginalText:   text,
		TranslatedText: text,
		TargetLanguage: targetLanguage,
	}

	// Language-equality short-circuit: no provider call for English targets.
	if targetLanguage == "" || targetLanguage == "en" {
		return result
	}

	key := cacheKey(text, translationContext, targetLanguage)

	s.mu.RLock()
	cached, ok := s.cache[key]
	s.mu.RUnlock()
	if ok {
		result.TranslatedText = cached
		return result
	}

	translated, err, _ := s.group.Do(key, func() (interface{}, error) {
		out, err := s.performTranslation(ctx, text, targetLanguage, translationContext)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.cache[key] = out
		s.mu.Unlock()
		return out, nil
	})
	if err != nil {
		log.Printf("Translation to %q failed, returning original text: %v", targetLanguage, err)
		return result
	}

	result.TranslatedText = translated.(string)
	return result
}

// ClearCache drops all cached translations.
func (s *TranslateService) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

func (s *TranslateService) performTranslation(ctx context.Context, text, targetLanguage, translationContext string) (string, error) {
	out, err := s.llm.GenerateText(ctx, translationPrompt(text, targetLanguage, translationContext))
	if err != nil {
		return "", err
	}
	cleaned := cleanTranslation(out)
	if cleaned == "" {
		return "", fmt.Errorf("empty translation response")
	}
	return cleaned, nil
}

func translationPrompt(text, targetLanguage, translationContext string) string {
	targetName := translationLanguageNames[targetLanguage]
	if targetName == "" {
		targetName = targetLanguage
	}

	contextLine := ""
	if translationContext != "" {
		contextLine = fmt.Sprintf(" Specific context: %s", translationContext)
	}

	return fmt.Sprintf(`You are a professional translator specializing in agricultural and plant care applications.

TASK: Translate the following text to %s.

CONTEXT: This is from a plant disease detection and agricultural advisory application.%s

CRITICAL FORMATTING RULES:
1. Return ONLY the translated text, no quotes, no explanations, no extra text
2. Do not add "Translation:" or any prefix/suffix
3. Maintain the original meaning and tone
4. Use appropriate agricultural and botanical terminology
5. Make it natural and user-friendly for farmers and gardeners

TEXT TO TRANSLATE:
"%s"

Provide only the direct translation:`, targetName, contextLine, text)
}

// cleanTranslation strips the wrapper artifacts models add despite the
// formatting rules: code fences, surrounding quotes, "Translation:" prefixes.
func cleanTranslation(text string) string {
	text = stripCodeFences(text)
	for _, prefix := range []string{"Translation:", "translation:", "Translated text:"} {
		text = strings.TrimSpace(strings.TrimPrefix(text, prefix))
	}
	text = strings.Trim(text, "\"'“”")
	return strings.TrimSpace(text)
}

// cacheKey joins all three fields with a NUL separator so user text containing
// a separator cannot collide with a different (text, context) pair.
func cacheKey(text, translationContext, language string) string {
	return text + "\x00" + translationContext + "\x00" + language
}
