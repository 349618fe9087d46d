package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeGenerator struct {
	reply  string
	err    error
	model  string
	calls  int
	last   []*genai.Content
	config *genai.GenerateContentConfig
}

func (f *fakeGenerator) GenerateContent(_ context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.calls++
	f.model = model
	f.last = contents
	f.config = config
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Role: "model", Parts: []*genai.Part{{Text: f.reply}}},
		}},
	}, nil
}

func TestNew_WithoutKeyIsDisabled(t *testing.T) {
	c, err := New(context.Background(), "", "")
	require.NoError(t, err)
	assert.False(t, c.Available())

	_, err = c.Complete(context.Background(), "sys", "hi")
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.ErrorIs(t, c.ExtractJSON(context.Background(), "sys", "hi", &struct{}{}), ErrUnavailable)
	_, err = c.Transcribe(context.Background(), []byte{1}, "audio/ogg", "pt-BR")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestGemini_Complete(t *testing.T) {
	gen := &fakeGenerator{reply: "  Olá!  "}
	g := newGemini(gen, "")

	got, err := g.Complete(context.Background(), "Você é um assistente.", "oi")
	require.NoError(t, err)
	assert.Equal(t, "Olá!", got)
	assert.Equal(t, DefaultModel, gen.model)
	require.NotNil(t, gen.config.SystemInstruction)
	assert.Equal(t, "Você é um assistente.", gen.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "oi", gen.last[0].Parts[0].Text)
	assert.True(t, g.Available())
}

func TestGemini_ExtractJSON(t *testing.T) {
	type result struct {
		IsTransaction bool    `json:"isTransaction"`
		Amount        float64 `json:"amount"`
	}

	t.Run("fenced_json", func(t *testing.T) {
		gen := &fakeGenerator{reply: "```json\n{\"isTransaction\": true, \"amount\": 50}\n```"}
		var out result
		require.NoError(t, newGemini(gen, "m").ExtractJSON(context.Background(), "sys", "Gastei 50", &out))
		assert.True(t, out.IsTransaction)
		assert.Equal(t, 50.0, out.Amount)
		assert.Equal(t, "application/json", gen.config.ResponseMIMEType)
	})

	t.Run("invalid_json", func(t *testing.T) {
		gen := &fakeGenerator{reply: "não sei"}
		var out result
		assert.Error(t, newGemini(gen, "m").ExtractJSON(context.Background(), "sys", "x", &out))
	})

	t.Run("upstream_error", func(t *testing.T) {
		gen := &fakeGenerator{err: errors.New("quota")}
		var out result
		err := newGemini(gen, "m").ExtractJSON(context.Background(), "sys", "x", &out)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota")
	})

	t.Run("empty_reply", func(t *testing.T) {
		gen := &fakeGenerator{reply: "   "}
		var out result
		assert.Error(t, newGemini(gen, "m").ExtractJSON(context.Background(), "sys", "x", &out))
	})
}

func TestGemini_Transcribe(t *testing.T) {
	gen := &fakeGenerator{reply: "gastei cinquenta reais no mercado"}
	g := newGemini(gen, "m")

	got, err := g.Transcribe(context.Background(), []byte("OggS"), "audio/ogg; codecs=opus", "pt-BR")
	require.NoError(t, err)
	assert.Equal(t, "gastei cinquenta reais no mercado", got)

	parts := gen.last[0].Parts
	require.Len(t, parts, 2)
	assert.Contains(t, parts[0].Text, "pt-BR")
	require.NotNil(t, parts[1].InlineData)
	assert.Equal(t, "audio/ogg", parts[1].InlineData.MIMEType)

	_, err = g.Transcribe(context.Background(), nil, "audio/ogg", "pt-BR")
	assert.Error(t, err)
	assert.Equal(t, 1, gen.calls)
}

func TestCleanJSON(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain", `{"a":1}`, `{"a":1}`},
		{"fenced", "```json\n{\"a\":1}\n```", `{"a":1}`},
		{"bare_fence", "```\n[1,2]\n```", `[1,2]`},
		{"chatter", "Claro! {\"a\":1} Espero ter ajudado.", `{"a":1}`},
		{"no_json", "nothing", "nothing"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanJSON(tt.in))
		})
	}
}
