package bots

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/ziadkadry99/aiqa/internal/history"
	"github.com/ziadkadry99/aiqa/internal/llm"
)

// Apology prefixes the error shown to the user when a question fails.
const Apology = "你的问题太难了，我不会Q-Q。\n\n"

// Host is the chat platform as seen by the Processor.
type Host interface {
	Reactor
	// QuotedText returns the human-readable text of a stored message.
	QuotedText(ctx context.Context, messageID int64) (string, error)
	// Reply sends out to msg's chat, quoting msg.
	Reply(ctx context.Context, msg IncomingMessage, out OutgoingMessage) error
}

// Completer answers a conversation.
type Completer interface {
	Complete(ctx context.Context, turns []llm.Message) (string, error)
}

// Renderer turns Markdown into PNG bytes.
type Renderer interface {
	Render(ctx context.Context, markdown string) ([]byte, error)
}

// Recorder stores handled requests.
type Recorder interface {
	Record(ctx context.Context, r history.Request) error
}

// Stats counts handled requests since start.
type Stats struct {
	Handled int64 `json:"handled"`
	Failed  int64 `json:"failed"`
}

// Processor answers command-prefixed messages.
type Processor struct {
	cmd       rune
	host      Host
	completer Completer
	renderer  Renderer
	server    *ServerSlot
	recorder  Recorder
	verbose   bool

	handled atomic.Int64
	failed  atomic.Int64
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithRecorder stores every handled request in r.
func WithRecorder(r Recorder) ProcessorOption {
	return func(p *Processor) { p.recorder = r }
}

// WithVerbose logs per-request details.
func WithVerbose(v bool) ProcessorOption {
	return func(p *Processor) { p.verbose = v }
}

// NewProcessor creates a Processor triggered by cmd. server may be nil, in
// which case no reactions are sent.
func NewProcessor(cmd rune, host Host, completer Completer, renderer Renderer, server *ServerSlot, opts ...ProcessorOption) *Processor {
	if server == nil {
		server = &ServerSlot{}
	}
	p := &Processor{
		cmd:       cmd,
		host:      host,
		completer: completer,
		renderer:  renderer,
		server:    server,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Classify reports whether text is a command and which reply it asks for:
// a doubled command char for text, a single one for an image.
func (p *Processor) Classify(text string) (Mode, bool) {
	c := string(p.cmd)
	switch {
	case strings.HasPrefix(text, c+c):
		return ModeText, true
	case strings.HasPrefix(text, c):
		return ModeImage, true
	default:
		return ModeText, false
	}
}

// StripCommand removes runs of cmd from both ends of text, then surrounding
// whitespace.
func StripCommand(text string, cmd rune) string {
	return strings.TrimSpace(strings.Trim(text, string(cmd)))
}

// HandleMessage answers msg if it is a command and ignores it otherwise.
// Failures are reported to the user; the returned error is only about
// delivering the reply.
func (p *Processor) HandleMessage(ctx context.Context, msg IncomingMessage) error {
	mode, ok := p.Classify(msg.Text)
	if !ok {
		return nil
	}
	server := p.server.Get()
	p.react(ctx, server, msg, true)
	defer p.react(ctx, server, msg, false)

	start := time.Now()
	question := StripCommand(msg.Text, p.cmd)
	if p.verbose {
		log.Printf("bots: message %d (%s): %q", msg.MessageID, mode, question)
	}

	out, err := p.answer(ctx, msg, mode, question)
	p.handled.Add(1)
	if err != nil {
		p.failed.Add(1)
		log.Printf("bots: answering message %d: %v", msg.MessageID, err)
		out = OutgoingMessage{Text: Apology + err.Error()}
	}
	p.record(ctx, msg, mode, question, time.Since(start), err)

	if replyErr := p.host.Reply(ctx, msg, out); replyErr != nil {
		return fmt.Errorf("replying to message %d: %w", msg.MessageID, replyErr)
	}
	return nil
}

func (p *Processor) answer(ctx context.Context, msg IncomingMessage, mode Mode, question string) (OutgoingMessage, error) {
	turns := make([]llm.Message, 0, 2)
	if msg.ReplyTo != 0 {
		quote, err := p.host.QuotedText(ctx, msg.ReplyTo)
		switch {
		case err == nil:
			turns = append(turns, llm.NewUserMessage(quote))
		case p.verbose:
			log.Printf("bots: fetching quoted message %d: %v", msg.ReplyTo, err)
		}
	}
	turns = append(turns, llm.NewUserMessage(question))

	answer, err := p.completer.Complete(ctx, turns)
	if err != nil {
		return OutgoingMessage{}, err
	}
	if mode == ModeText {
		return OutgoingMessage{Text: answer}, nil
	}

	png, err := p.renderer.Render(ctx, answer)
	if err != nil {
		return OutgoingMessage{}, err
	}
	return OutgoingMessage{Image: "base64://" + base64.StdEncoding.EncodeToString(png)}, nil
}

// react marks msg as being worked on (add) or finished. Errors are ignored.
func (p *Processor) react(ctx context.Context, server ServerType, msg IncomingMessage, add bool) {
	var err error
	switch server {
	case ServerNapCat:
		// NapCat toggles the emoji when the same call is repeated.
		err = p.host.SetMsgEmojiLike(ctx, msg.MessageID, WorkingEmoji)
	case ServerLagrange:
		if msg.GroupID == 0 {
			return
		}
		err = p.host.SetGroupReaction(ctx, msg.GroupID, msg.MessageID, WorkingEmoji, add)
	default:
		return
	}
	if err != nil && p.verbose {
		log.Printf("bots: reaction on message %d: %v", msg.MessageID, err)
	}
}

func (p *Processor) record(ctx context.Context, msg IncomingMessage, mode Mode, question string, latency time.Duration, answerErr error) {
	if p.recorder == nil {
		return
	}
	r := history.Request{
		MessageID: msg.MessageID,
		GroupID:   msg.GroupID,
		Mode:      mode.String(),
		Question:  question,
		Status:    history.StatusOK,
		Latency:   latency,
	}
	if answerErr != nil {
		r.Status = history.StatusError
		r.Error = answerErr.Error()
	}
	if err := p.recorder.Record(ctx, r); err != nil {
		log.Printf("bots: recording message %d: %v", msg.MessageID, err)
	}
}

// Stats returns the request counters.
func (p *Processor) Stats() Stats {
	return Stats{Handled: p.handled.Load(), Failed: p.failed.Load()}
}

// ServerType returns the detected host implementation.
func (p *Processor) ServerType() ServerType {
	return p.server.Get()
}
