// Package guide produces recycling guidance in several Indian languages,
// from the generative model when it is reachable and from a built-in
// knowledge base otherwise.
package guide

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/civicconnect/civic-services/internal/cache"
	"github.com/civicconnect/civic-services/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Content sources reported to callers
const (
	SourceCache    = "cache"
	SourceFallback = "fallback"
)

// DefaultMessage is returned when the knowledge base has nothing to offer
const DefaultMessage = "For proper recycling, clean and sort materials by type. Check local guidelines for specific instructions."

var languageContexts = map[string]string{
	"en": "As a recycling expert, provide guidance about: ",
	"hi": "एक रीसाइक्लिंग विशेषज्ञ के रूप में, इस बारे में मार्गदर्शन प्रदान करें: ",
	"mr": "एक रीसायकलिंग तज्ञ म्हणून, याबद्दल मार्गदर्शन करा: ",
	"gu": "રીસાયક્લિંગ નિષ્ણાત તરીકે, આના વિશે માર્ગદર્શન આપો: ",
}

// fallbackKeywords are matched in order against the prompt
var fallbackKeywords = []string{"plastic", "paper", "metal", "glass", "e-waste", "organic", "battery", "textile"}

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Result is generated guidance. Source is empty for fresh model output.
type Result struct {
	Content string `json:"content"`
	Source  string `json:"source,omitempty"`
}

// Service answers recycling questions
type Service struct {
	generator Generator
	cache     *cache.Cache
}

func NewService(generator Generator, c *cache.Cache) *Service {
	return &Service{generator: generator, cache: c}
}

// Generate returns guidance for prompt in language. It never fails: model
// errors and empty output fall back to the knowledge base.
func (s *Service) Generate(ctx context.Context, prompt, language string) Result {
	if language == "" {
		language = "en"
	}

	key := CacheKey(prompt, language)
	if cached, ok := s.cache.Get(key); ok {
		if content, ok := cached.(string); ok && content != "" {
			logrus.Debugf("Cache hit for %s", key)
			metrics.RecordCacheLookup(s.cache.Name(), true)
			return Result{Content: content, Source: SourceCache}
		}
	}
	metrics.RecordCacheLookup(s.cache.Name(), false)

	prefix, ok := languageContexts[language]
	if !ok {
		prefix = languageContexts["en"]
	}

	text, err := s.generator.Generate(ctx, prefix+prompt)
	switch {
	case err != nil:
		logrus.Errorf("Gemini API error: %v", err)
	case strings.TrimSpace(text) == "":
		logrus.Warn("Empty response from Gemini API")
	default:
		s.cache.Set(key, text)
		return Result{Content: text}
	}

	return Result{Content: Fallback(prompt, language), Source: SourceFallback}
}

// CacheKey identifies a prompt in a language, e.g. recycling_guide_hi_3f2a...
func CacheKey(prompt, language string) string {
	sum := sha256.Sum256([]byte(prompt))
	return fmt.Sprintf("recycling_guide_%s_%s", language, hex.EncodeToString(sum[:8]))
}

// Fallback builds guidance from the knowledge base. Every material keyword
// found in the prompt contributes its entry in language, or in English when
// no translation exists. Without a match the general entry is used.
func Fallback(prompt, language string) string {
	lower := strings.ToLower(prompt)

	var content []string
	for _, keyword := range fallbackKeywords {
		if !strings.Contains(lower, keyword) {
			continue
		}
		if entry := lookup(language, keyword); entry != "" {
			content = append(content, entry)
		}
	}

	if len(content) == 0 {
		if general := lookup(language, "general"); general != "" {
			content = append(content, general)
		}
	}

	if len(content) == 0 {
		return DefaultMessage
	}
	return strings.Join(content, "\n")
}

func lookup(language, topic string) string {
	if entry := knowledgeBase[language][topic]; entry != "" {
		return entry
	}
	return knowledgeBase["en"][topic]
}
