// Package llm wraps the Gemini API for the three calls the chat channel
// makes: free-form completion, JSON extraction and audio transcription.
package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"
)

// ErrUnavailable is returned by every call on a client without credentials.
var ErrUnavailable = errors.New("llm: not configured")

// Client is the language-understanding capability. Callers check Available
// before relying on it instead of probing for a nil handle.
type Client interface {
	Available() bool
	Complete(ctx context.Context, system, prompt string) (string, error)
	ExtractJSON(ctx context.Context, system, prompt string, out interface{}) error
	Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, error)
}

// generator is the subset of *genai.Models used here.
type generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini implements Client on top of google.golang.org/genai.
type Gemini struct {
	models generator
	model  string
}

// DefaultModel is used when no model name is configured.
const DefaultModel = "gemini-2.5-flash"

// New returns a Gemini client, or a disabled client when apiKey is empty.
func New(ctx context.Context, apiKey, model string) (Client, error) {
	if apiKey == "" {
		return Disabled{}, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("llm: create genai client: %w", err)
	}
	return newGemini(client.Models, model), nil
}

func newGemini(models generator, model string) *Gemini {
	if model == "" {
		model = DefaultModel
	}
	return &Gemini{models: models, model: model}
}

// Available implements Client.
func (g *Gemini) Available() bool { return true }

// Complete sends prompt under the given system instruction and returns the text reply.
func (g *Gemini) Complete(ctx context.Context, system, prompt string) (string, error) {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemContent(system),
		Temperature:       genai.Ptr[float32](0.7),
	}
	return g.generate(ctx, userContent(&genai.Part{Text: prompt}), cfg)
}

// ExtractJSON asks for a JSON-only answer and decodes it into out. Markdown
// fences and chatter around the object are tolerated.
func (g *Gemini) ExtractJSON(ctx context.Context, system, prompt string, out interface{}) error {
	cfg := &genai.GenerateContentConfig{
		SystemInstruction: systemContent(system),
		Temperature:       genai.Ptr[float32](0.1),
		ResponseMIMEType:  "application/json",
	}
	raw, err := g.generate(ctx, userContent(&genai.Part{Text: prompt}), cfg)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(CleanJSON(raw)), out); err != nil {
		return fmt.Errorf("llm: unmarshal JSON: %w", err)
	}
	return nil
}

// Transcribe returns the spoken text of an audio clip in the given language.
func (g *Gemini) Transcribe(ctx context.Context, audio []byte, mimeType, language string) (string, error) {
	if len(audio) == 0 {
		return "", errors.New("llm: empty audio")
	}
	instruction := fmt.Sprintf("Transcribe this audio. The speaker uses %s. Return only the transcription text, without comments.", language)
	contents := userContent(
		&genai.Part{Text: instruction},
		&genai.Part{InlineData: &genai.Blob{MIMEType: baseMIMEType(mimeType), Data: audio}},
	)
	text, err := g.generate(ctx, contents, &genai.GenerateContentConfig{Temperature: genai.Ptr[float32](0)})
	if err != nil {
		return "", err
	}
	return text, nil
}

func (g *Gemini) generate(ctx context.Context, contents []*genai.Content, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.models.GenerateContent(ctx, g.model, contents, cfg)
	if err != nil {
		return "", fmt.Errorf("llm: generate content: %w", err)
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", errors.New("llm: empty response from model")
	}
	return text, nil
}

func systemContent(text string) *genai.Content {
	if text == "" {
		return nil
	}
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}

func userContent(parts ...*genai.Part) []*genai.Content {
	return []*genai.Content{{Role: "user", Parts: parts}}
}

// baseMIMEType drops parameters such as "; codecs=opus" that WhatsApp adds.
func baseMIMEType(mimeType string) string {
	if i := strings.Index(mimeType, ";"); i != -1 {
		mimeType = mimeType[:i]
	}
	mimeType = strings.TrimSpace(mimeType)
	if mimeType == "" {
		return "audio/ogg"
	}
	return mimeType
}

// CleanJSON strips Markdown fences and keeps the outermost JSON object or array.
func CleanJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
	}
	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	s = strings.TrimSpace(s)

	open := strings.IndexAny(s, "{[")
	if open == -1 {
		return s
	}
	closer := "}"
	if s[open] == '[' {
		closer = "]"
	}
	if end := strings.LastIndex(s, closer); end > open {
		s = s[open : end+1]
	}
	return s
}

// Disabled is the Client used when no API key is configured.
type Disabled struct{}

// Available implements Client.
func (Disabled) Available() bool { return false }

// Complete implements Client.
func (Disabled) Complete(context.Context, string, string) (string, error) {
	return "", ErrUnavailable
}

// ExtractJSON implements Client.
func (Disabled) ExtractJSON(context.Context, string, string, interface{}) error {
	return ErrUnavailable
}

// Transcribe implements Client.
func (Disabled) Transcribe(context.Context, []byte, string, string) (string, error) {
	return "", ErrUnavailable
}
