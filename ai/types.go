package ai

// GenerateRequest is a single chat completion request.
type GenerateRequest struct {
	// Task labels the request for logs and metrics, e.g. "tagging".
	Task string

	// System is the system prompt. It may be empty.
	System string

	// Prompt is the user message.
	Prompt string

	// JSON asks the backend to constrain its output to a JSON object when it supports that.
	JSON bool
}
