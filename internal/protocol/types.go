package protocol

// Input is the JSON object written to the renderer's stdin, once per attempt.
// Optional fields are pointers without omitempty so absence is sent as null.
type Input struct {
	Model                   string  `json:"model"`
	ModelProvider           string  `json:"model_provider"`
	Cwd                     string  `json:"cwd"`
	GitBranch               *string `json:"git_branch"`
	TaskRunning             bool    `json:"task_running"`
	ReviewMode              bool    `json:"review_mode"`
	ContextWindowPercent    *int64  `json:"context_window_percent"`
	ContextWindowUsedTokens *int64  `json:"context_window_used_tokens"`
	// TokenUsage is passed through as-is; nil encodes as null.
	TokenUsage any `json:"token_usage"`
}

// TokenUsageInfo is the token accounting shape hosts usually pass as
// Input.TokenUsage. The renderer core never inspects it.
type TokenUsageInfo struct {
	TotalTokenUsage    TokenUsage `json:"total_token_usage"`
	LastTokenUsage     TokenUsage `json:"last_token_usage"`
	ModelContextWindow *int64     `json:"model_context_window"`
}

// TokenUsage counts tokens for one turn or a whole session.
type TokenUsage struct {
	InputTokens           int64 `json:"input_tokens"`
	CachedInputTokens     int64 `json:"cached_input_tokens"`
	OutputTokens          int64 `json:"output_tokens"`
	ReasoningOutputTokens int64 `json:"reasoning_output_tokens"`
	TotalTokens           int64 `json:"total_tokens"`
}
