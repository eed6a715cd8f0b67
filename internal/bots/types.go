package bots

// Mode selects how an answer is delivered.
type Mode int

const (
	// ModeText replies with the raw answer.
	ModeText Mode = iota
	// ModeImage renders the answer as Markdown and replies with a PNG.
	ModeImage
)

func (m Mode) String() string {
	if m == ModeImage {
		return "image"
	}
	return "text"
}

// IncomingMessage is a chat message that may carry a question.
type IncomingMessage struct {
	MessageID int64
	GroupID   int64 // 0 for private chats
	UserID    int64
	Text      string
	ReplyTo   int64 // id of the quoted message, 0 if none
}

// OutgoingMessage is a reply to an IncomingMessage. Exactly one of Text and
// Image is set; Image is a file URI such as base64://...
type OutgoingMessage struct {
	Text  string
	Image string
}
