package repository

import (
	"context"
	"errors"
	"testing"

	"microcap-trading/pkg/logger"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"
)

type fakeChatModel struct {
	input []*schema.Message
	opts  int
	reply *schema.Message
	err   error
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	f.input = input
	f.opts = len(opts)
	return f.reply, f.err
}

func TestOpenAIRepository_Complete(t *testing.T) {
	tests := []struct {
		name      string
		modelName string
		reply     *schema.Message
		err       error
		want      string
		wantErr   bool
		wantOpts  int
	}{
		{name: "returns content", reply: schema.AssistantMessage(`{"trades":[]}`, nil), want: `{"trades":[]}`},
		{name: "model override is passed as an option", modelName: "gpt-4o", reply: schema.AssistantMessage("ok", nil), want: "ok", wantOpts: 1},
		{name: "provider error", err: errors.New("401 unauthorized"), wantErr: true},
		{name: "nil message", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := &fakeChatModel{reply: tt.reply, err: tt.err}
			repo := newOpenAIRepository(testConfig(t.TempDir()), logger.NewNop(), fake)

			got, err := repo.Complete(context.Background(), "prompt text", tt.modelName)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOpts, fake.opts)
			require.Len(t, fake.input, 2)
			assert.Equal(t, schema.System, fake.input[0].Role)
			assert.Equal(t, SystemInstruction, fake.input[0].Content)
			assert.Equal(t, "prompt text", fake.input[1].Content)
		})
	}
}

func TestNewOpenAIRepository_RequiresKey(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.LLM.APIKey = ""
	_, err := NewOpenAIRepository(context.Background(), cfg, logger.NewNop())
	assert.ErrorIs(t, err, ErrMissingAPIKey)
}

type fakeGenai struct {
	model  string
	config *genai.GenerateContentConfig
	resp   *genai.GenerateContentResponse
	err    error
}

func (f *fakeGenai) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	return f.resp, f.err
}

func TestGeminiRepository_Complete(t *testing.T) {
	cfg := testConfig(t.TempDir())
	cfg.LLM.Provider = "gemini"
	cfg.LLM.Model = "gemini-2.5-flash"

	fake := &fakeGenai{resp: &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{
			Content: &genai.Content{Parts: []*genai.Part{{Text: `{"analysis":`}, {Text: `"ok"}`}}},
		}},
	}}
	repo := newGeminiRepository(cfg, logger.NewNop(), fake)

	got, err := repo.Complete(context.Background(), "prompt", "")
	require.NoError(t, err)
	assert.Equal(t, `{"analysis":"ok"}`, got)
	assert.Equal(t, "gemini-2.5-flash", fake.model)
	require.NotNil(t, fake.config.Temperature)
	assert.InDelta(t, 0.3, *fake.config.Temperature, 1e-6)
	assert.Equal(t, SystemInstruction, fake.config.SystemInstruction.Parts[0].Text)
	assert.Equal(t, "gemini", repo.Provider())
}

func TestGeminiRepository_EmptyResponse(t *testing.T) {
	repo := newGeminiRepository(testConfig(t.TempDir()), logger.NewNop(), &fakeGenai{resp: &genai.GenerateContentResponse{}})
	_, err := repo.Complete(context.Background(), "prompt", "")
	assert.Error(t, err)
}
