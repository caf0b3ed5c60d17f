package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"google.golang.org/genai"

	"finanzas/internal/cache"
	"finanzas/internal/metrics"
)

const DefaultModel = "gemini-2.5-flash"

var ErrEmptyPayload = errors.New("empty extraction payload")

// Extractor reads a draft transaction out of an image or audio payload.
type Extractor interface {
	Extract(ctx context.Context, kind Kind, payload []byte, mimeType string) (Draft, error)
}

// generateFunc sends the prompt and payload to a model and returns its text.
type generateFunc func(ctx context.Context, prompt string, payload []byte, mimeType string) (string, error)

// Gemini extracts drafts with a Gemini model. Replies are cached by payload
// hash so retried uploads do not hit the model again.
type Gemini struct {
	generate generateFunc
	cache    cache.Cache[Draft]
}

// NewGemini creates a client for the Gemini API. The returned LRU is handed
// to a cache.Janitor by the caller.
func NewGemini(ctx context.Context, apiKey, model string, cacheSize int, ttl time.Duration) (*Gemini, *cache.LRU[Draft], error) {
	if model == "" {
		model = DefaultModel
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("create genai client: %w", err)
	}

	gen := func(ctx context.Context, prompt string, payload []byte, mimeType string) (string, error) {
		contents := []*genai.Content{
			{
				Role: "user",
				Parts: []*genai.Part{
					{Text: prompt},
					{
						InlineData: &genai.Blob{
							MIMEType: mimeType,
							Data:     payload,
						},
					},
				},
			},
		}
		resp, err := client.Models.GenerateContent(ctx, model, contents, &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
		})
		if err != nil {
			return "", fmt.Errorf("generate content: %w", err)
		}
		return resp.Text(), nil
	}

	lru := cache.NewLRU[Draft](cacheSize, ttl)
	return newGemini(gen, lru), lru, nil
}

func newGemini(gen generateFunc, c cache.Cache[Draft]) *Gemini {
	return &Gemini{generate: gen, cache: c}
}

func (g *Gemini) Extract(ctx context.Context, kind Kind, payload []byte, mimeType string) (Draft, error) {
	if _, err := ParseKind(string(kind)); err != nil {
		return Draft{}, err
	}
	if len(payload) == 0 {
		return Draft{}, ErrEmptyPayload
	}

	key := cacheKey(kind, payload)
	if d, ok := g.cache.Get(key); ok {
		metrics.ExtractionRequests.WithLabelValues(string(kind), "hit").Inc()
		return d, nil
	}

	raw, err := g.generate(ctx, prompt(kind), payload, mimeType)
	if err != nil {
		metrics.ExtractionRequests.WithLabelValues(string(kind), "error").Inc()
		return Draft{}, fmt.Errorf("extract %s: %w", kind, err)
	}
	if raw == "" {
		metrics.ExtractionRequests.WithLabelValues(string(kind), "error").Inc()
		return Draft{}, fmt.Errorf("extract %s: empty response from model", kind)
	}

	d, err := parseDraft(kind, raw)
	if err != nil {
		metrics.ExtractionRequests.WithLabelValues(string(kind), "error").Inc()
		slog.WarnContext(ctx, "Unparseable extraction reply", "kind", kind, "error", err)
		return Draft{}, fmt.Errorf("extract %s: %w", kind, err)
	}

	metrics.ExtractionRequests.WithLabelValues(string(kind), "miss").Inc()
	g.cache.Set(key, d)
	return d, nil
}

func cacheKey(kind Kind, payload []byte) string {
	h := sha256.New()
	h.Write([]byte(kind))
	h.Write([]byte{0})
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}

func prompt(kind Kind) string {
	source := "the attached receipt image"
	if kind == KindVoice {
		source = "the attached voice note, spoken in Spanish"
	}
	return "You extract a single personal-finance transaction from " + source + ".\n\n" +
		"Output STRICT JSON only: one object, no comments, no Markdown, no code fences.\n" +
		"Fields:\n" +
		"- \"amount\": number, positive, the total paid or received\n" +
		"- \"description\": string, short, in Spanish\n" +
		"- \"category\": string, one word in Spanish such as Comida, Transporte, Hogar, Salud, Salario\n" +
		"- \"date\": string, ISO \"YYYY-MM-DD\", or empty when not stated\n" +
		"- \"type\": \"expense\" or \"income\"\n\n" +
		"Use a dot as decimal separator. Output must begin with \"{\" and end with \"}\".\n"
}
