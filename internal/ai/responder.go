// ABOUTME: Responder resolves provider credentials and generates replies, translations and insights
// ABOUTME: Implements the degrade contract: Respond always yields a usable reply

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lugha/lugha-gateway/internal/store"
)

// KeySource provides provider API keys. Satisfied by store.Store.
type KeySource interface {
	GetAPIKeyByProvider(ctx context.Context, provider string) (*store.ApiKey, error)
}

// generator is a single AI provider capable of answering a prompt.
type generator interface {
	Name() string
	Generate(ctx context.Context, prompt string) (string, error)
}

// envKeys maps provider names to their environment variable override.
var envKeys = map[string]string{
	"gemini": "GEMINI_API_KEY",
	"openai": "OPENAI_API_KEY",
}

// Insights holds linguistic and cultural analysis of a piece of text.
type Insights struct {
	CulturalContext string   `json:"culturalContext"`
	KeyPhrases      []string `json:"keyPhrases"`
	Pronunciation   string   `json:"pronunciation"`
}

// Options configures the Responder.
type Options struct {
	// Providers lists provider names in preference order.
	Providers []string

	GeminiBaseURL string
	GeminiModel   string
	OpenAIBaseURL string
	OpenAIModel   string

	// RequestTimeout bounds each upstream call.
	RequestTimeout time.Duration
}

// Responder generates AI replies for conversations. Credentials are resolved
// per call so admin key changes take effect immediately.
type Responder struct {
	keys   KeySource
	opts   Options
	logger *slog.Logger
}

// NewResponder creates a Responder backed by the given key source.
func NewResponder(keys KeySource, opts Options) *Responder {
	if len(opts.Providers) == 0 {
		opts.Providers = []string{"gemini"}
	}
	if opts.RequestTimeout == 0 {
		opts.RequestTimeout = 30 * time.Second
	}
	return &Responder{
		keys:   keys,
		opts:   opts,
		logger: slog.Default().With("component", "ai"),
	}
}

// resolveKey looks up a provider's API key, preferring the environment
// variable over stored keys.
func (r *Responder) resolveKey(ctx context.Context, provider string) string {
	if env := envKeys[provider]; env != "" {
		if key := os.Getenv(env); key != "" {
			return key
		}
	}

	key, err := r.keys.GetAPIKeyByProvider(ctx, provider)
	if err != nil {
		return ""
	}
	return key.KeyValue
}

func (r *Responder) newGenerator(provider, apiKey string) generator {
	switch provider {
	case "openai":
		return newOpenAIClient(apiKey, r.opts.OpenAIBaseURL, r.opts.OpenAIModel)
	default:
		return newGeminiClient(apiKey, r.opts.GeminiBaseURL, r.opts.GeminiModel)
	}
}

// generate tries each configured provider in order and returns the first
// successful result. Returns ok=false when no provider produced a reply.
// Each provider gets its own timeout so a slow first provider cannot eat
// the failover provider's budget.
func (r *Responder) generate(ctx context.Context, prompt string) (string, bool) {
	for _, provider := range r.opts.Providers {
		apiKey := r.resolveKey(ctx, provider)
		if apiKey == "" {
			r.logger.Warn("no API key for provider, skipping", "provider", provider)
			continue
		}

		gen := r.newGenerator(provider, apiKey)
		text, err := r.callProvider(ctx, gen, prompt)
		if err != nil {
			r.logger.Warn("provider call failed",
				"provider", gen.Name(),
				"error", err)
			continue
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		return text, true
	}
	return "", false
}

func (r *Responder) callProvider(ctx context.Context, gen generator, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.opts.RequestTimeout)
	defer cancel()
	return gen.Generate(ctx, prompt)
}

// Respond generates an assistant reply to a user message in the context of
// the conversation's language. It never fails: when no provider is available
// the reply degrades to a canned response.
func (r *Responder) Respond(ctx context.Context, message, language string) string {
	name := languageName(language)

	responseLanguage := "English"
	if name != "English" {
		responseLanguage = "English, followed by a translation in " + name
	}

	prompt := fmt.Sprintf(`You are a culturally aware and helpful assistant that specializes in %s language and culture.
Please respond to the following message in %s.

If the user's message is in %s and not English, translate it to English in your response, then answer in both languages.

Make your response culturally appropriate and educational, teaching aspects of the language naturally through your response.
If appropriate, mark key terms or phrases with asterisks (*like this*) to highlight important linguistic elements.

User's message: %q`, name, responseLanguage, name, message)

	if text, ok := r.generate(ctx, prompt); ok {
		return text
	}

	r.logger.Info("using fallback response", "language", language)
	return fallbackResponse(message, language)
}

// Translate converts text between languages. On failure it returns a
// bracketed error notice rather than an error.
func (r *Responder) Translate(ctx context.Context, text, sourceLanguage, targetLanguage string) string {
	prompt := fmt.Sprintf(`Translate the following text from %s to %s.

If the source language is English and the target language is Kiswahili, Maasai, or another Kenyan language,
ensure correct cultural context is preserved. Similarly, when translating from a Kenyan language to English,
provide translation that captures cultural nuances.

Text to translate: %q

Provide only the translated text without quotes or explanations.`,
		languageName(sourceLanguage), languageName(targetLanguage), text)

	if result, ok := r.generate(ctx, prompt); ok {
		return result
	}
	return translateFallback
}

// Insights analyzes text for cultural context, key phrases and
// pronunciation. On failure it returns placeholder insights.
func (r *Responder) Insights(ctx context.Context, text, language string) *Insights {
	prompt := fmt.Sprintf(`Analyze the following text in %s and provide linguistic insights:

Text: %q

Please provide a detailed response in JSON format with the following structure:
{
  "culturalContext": "Brief explanation of cultural context and relevance",
  "keyPhrases": ["List", "of", "important", "phrases", "or", "terms"],
  "pronunciation": "Guide to pronunciation with phonetic representation"
}`, languageName(language), text)

	raw, ok := r.generate(ctx, prompt)
	if !ok {
		return fallbackInsights()
	}

	// Providers sometimes wrap JSON in markdown code fences.
	raw = strings.ReplaceAll(raw, "```json", "")
	raw = strings.ReplaceAll(raw, "```", "")
	raw = strings.TrimSpace(raw)

	var insights Insights
	if err := json.Unmarshal([]byte(raw), &insights); err != nil {
		r.logger.Warn("could not parse insights response", "error", err)
		return fallbackInsights()
	}

	if insights.CulturalContext == "" {
		insights.CulturalContext = "Not available"
	}
	if insights.KeyPhrases == nil {
		insights.KeyPhrases = []string{}
	}
	if insights.Pronunciation == "" {
		insights.Pronunciation = "Not available"
	}
	return &insights
}
