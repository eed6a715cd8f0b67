package bots

import (
	"context"
	"log"

	"github.com/ziadkadry99/aiqa/internal/onebot"
)

// MessageHandler processes incoming messages.
type MessageHandler interface {
	HandleMessage(ctx context.Context, msg IncomingMessage) error
}

// Gateway turns OneBot message events into IncomingMessages for a handler.
type Gateway struct {
	handler MessageHandler
}

// NewGateway creates a new Gateway with the given message handler.
func NewGateway(handler MessageHandler) *Gateway {
	return &Gateway{handler: handler}
}

// HandleEvent is an onebot.Handler. Events without text are ignored.
func (g *Gateway) HandleEvent(ctx context.Context, ev *onebot.Event) {
	text, ok := ev.Text()
	if !ok {
		return
	}
	msg := IncomingMessage{
		MessageID: ev.MessageID,
		UserID:    ev.UserID,
		Text:      text,
	}
	if ev.IsGroup() {
		msg.GroupID = ev.GroupID
	}
	if id, ok := ev.Message.ReplyID(); ok {
		msg.ReplyTo = id
	}
	if err := g.handler.HandleMessage(ctx, msg); err != nil {
		log.Printf("bots: %v", err)
	}
}

// OneBotAPI is the part of the OneBot client the host adapter uses.
type OneBotAPI interface {
	GetMsg(ctx context.Context, messageID int64) (*onebot.StoredMessage, error)
	SendMsg(ctx context.Context, ev *onebot.Event, msg onebot.Message) (int64, error)
	SetMsgEmojiLike(ctx context.Context, messageID int64, emojiID string) error
	SetGroupReaction(ctx context.Context, groupID, messageID int64, code string, isAdd bool) error
}

// OneBotHost implements Host on top of a OneBot connection.
type OneBotHost struct {
	api OneBotAPI
}

// NewOneBotHost wraps api.
func NewOneBotHost(api OneBotAPI) *OneBotHost {
	return &OneBotHost{api: api}
}

// QuotedText fetches a stored message and renders it for humans.
func (h *OneBotHost) QuotedText(ctx context.Context, messageID int64) (string, error) {
	stored, err := h.api.GetMsg(ctx, messageID)
	if err != nil {
		return "", err
	}
	return stored.Message.HumanString(), nil
}

// Reply sends out to the chat msg came from, quoting msg.
func (h *OneBotHost) Reply(ctx context.Context, msg IncomingMessage, out OutgoingMessage) error {
	target := &onebot.Event{MessageType: "private", UserID: msg.UserID}
	if msg.GroupID != 0 {
		target = &onebot.Event{MessageType: "group", GroupID: msg.GroupID, UserID: msg.UserID}
	}
	body := onebot.Message{onebot.Reply(msg.MessageID)}
	if out.Image != "" {
		body = append(body, onebot.Image(out.Image))
	} else {
		body = append(body, onebot.Text(out.Text))
	}
	_, err := h.api.SendMsg(ctx, target, body)
	return err
}

// SetMsgEmojiLike forwards to the NapCat extension action.
func (h *OneBotHost) SetMsgEmojiLike(ctx context.Context, messageID int64, emojiID string) error {
	return h.api.SetMsgEmojiLike(ctx, messageID, emojiID)
}

// SetGroupReaction forwards to the Lagrange extension action.
func (h *OneBotHost) SetGroupReaction(ctx context.Context, groupID, messageID int64, code string, isAdd bool) error {
	return h.api.SetGroupReaction(ctx, groupID, messageID, code, isAdd)
}
