package llm

// Role represents the role of a message sender in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message represents a single message in a conversation.
type Message struct {
	Role    Role
	Content string
}

// NewUserMessage returns a user-role message.
func NewUserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// CompletionRequest contains the parameters for an LLM completion request.
type CompletionRequest struct {
	Model       string
	Messages    []Message
	MaxTokens   int
	Temperature float64
	// TextMode asks the API for a plain-text response format.
	TextMode bool
}

// CompletionResponse contains the result of an LLM completion request.
type CompletionResponse struct {
	// Content is taken from the last returned choice.
	Content      string
	Choices      int
	InputTokens  int
	OutputTokens int
	Model        string
	FinishReason string
}
