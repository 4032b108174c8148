package chat

const (
	// DefaultModel is used when chat.model is not configured.
	DefaultModel = "gpt-4o"

	// DefaultSystemPrompt keeps replies short and plain.
	DefaultSystemPrompt = "do not respond on markdown or lists, keep your responses brief, " +
		"you can ask the user to upload images or documents if it could help you understand the problem better"
)
