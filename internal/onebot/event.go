package onebot

// Event is an inbound OneBot event. Only message events are dispatched to
// handlers; meta and notice events are dropped by the client.
type Event struct {
	PostType    string  `json:"post_type"`
	MessageType string  `json:"message_type"`
	SubType     string  `json:"sub_type"`
	MessageID   int64   `json:"message_id"`
	UserID      int64   `json:"user_id"`
	GroupID     int64   `json:"group_id"`
	SelfID      int64   `json:"self_id"`
	Message     Message `json:"message"`
	RawMessage  string  `json:"raw_message"`
	Time        int64   `json:"time"`
}

// IsGroup reports whether the event came from a group chat.
func (e *Event) IsGroup() bool {
	return e.MessageType == "group"
}

// Text returns the plain text of the message, if it has any.
func (e *Event) Text() (string, bool) {
	return e.Message.PlainText()
}
