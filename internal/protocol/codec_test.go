package protocol

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func int64p(v int64) *int64 { return &v }

func TestEncodeInput_AbsentFieldsAreNull(t *testing.T) {
	data, err := EncodeInput(&Input{
		Model:         "gpt-5",
		ModelProvider: "openai",
		Cwd:           "/tmp/x",
	})
	require.NoError(t, err)

	var out map[string]any
	require.NoError(t, json.Unmarshal(data, &out))

	for _, key := range []string{"git_branch", "context_window_percent", "context_window_used_tokens", "token_usage"} {
		v, ok := out[key]
		assert.True(t, ok, "%s must be present", key)
		assert.Nil(t, v, "%s must be null", key)
	}
	assert.Equal(t, false, out["task_running"])
	assert.Equal(t, false, out["review_mode"])
	assert.False(t, bytes.HasSuffix(data, []byte("\n")), "no framing terminator")
}

func TestEncodeInput_AllFields(t *testing.T) {
	branch := "main"
	data, err := EncodeInput(&Input{
		Model:                   "gpt-5",
		ModelProvider:           "openai",
		Cwd:                     "/repo",
		GitBranch:               &branch,
		TaskRunning:             true,
		ReviewMode:              true,
		ContextWindowPercent:    int64p(42),
		ContextWindowUsedTokens: int64p(12000),
		TokenUsage: TokenUsageInfo{
			TotalTokenUsage:    TokenUsage{InputTokens: 10, OutputTokens: 5, TotalTokens: 15},
			ModelContextWindow: int64p(200000),
		},
	})
	require.NoError(t, err)

	in, err := DecodeInput(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, "main", *in.GitBranch)
	assert.Equal(t, int64(42), *in.ContextWindowPercent)
	assert.Equal(t, int64(12000), *in.ContextWindowUsedTokens)
	assert.True(t, in.TaskRunning)
	assert.True(t, in.ReviewMode)

	usage, ok := in.TokenUsage.(map[string]any)
	require.True(t, ok, "token_usage decodes as an object")
	assert.Contains(t, usage, "total_token_usage")
	assert.Equal(t, float64(200000), usage["model_context_window"])
}

func TestEncodeInput_Unrepresentable(t *testing.T) {
	_, err := EncodeInput(&Input{TokenUsage: map[string]any{"ratio": math.NaN()}})
	require.Error(t, err)

	_, err = EncodeInput(&Input{TokenUsage: make(chan int)})
	require.Error(t, err)

	_, err = EncodeInput(nil)
	require.Error(t, err)
}

func TestDecodeInput_Invalid(t *testing.T) {
	_, err := DecodeInput(bytes.NewReader([]byte("not json")))
	require.Error(t, err)
}
