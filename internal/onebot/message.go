package onebot

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Segment is one piece of an array-format OneBot message.
type Segment struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Message is an ordered list of segments.
type Message []Segment

// UnmarshalJSON accepts both the array format and a plain string, which some
// hosts send when configured for CQ-code messages.
func (m *Message) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*m = Message{Text(s)}
		return nil
	}
	var segs []Segment
	if err := json.Unmarshal(b, &segs); err != nil {
		return fmt.Errorf("decoding message: %w", err)
	}
	*m = segs
	return nil
}

// Text builds a text segment.
func Text(s string) Segment {
	return Segment{Type: "text", Data: map[string]any{"text": s}}
}

// Reply builds a segment quoting messageID.
func Reply(messageID int64) Segment {
	return Segment{Type: "reply", Data: map[string]any{"id": strconv.FormatInt(messageID, 10)}}
}

// Image builds an image segment. file may be a path, URL or base64:// payload.
func Image(file string) Segment {
	return Segment{Type: "image", Data: map[string]any{"file": file}}
}

// PlainText concatenates the text segments. ok is false when the message
// carries no text at all.
func (m Message) PlainText() (text string, ok bool) {
	var b strings.Builder
	for _, seg := range m {
		if seg.Type != "text" {
			continue
		}
		ok = true
		b.WriteString(seg.str("text"))
	}
	return b.String(), ok
}

// ReplyID returns the id of the first quoted message, if any.
func (m Message) ReplyID() (int64, bool) {
	for _, seg := range m {
		if seg.Type != "reply" {
			continue
		}
		id, err := strconv.ParseInt(seg.str("id"), 10, 64)
		if err != nil {
			return 0, false
		}
		return id, true
	}
	return 0, false
}

var placeholders = map[string]string{
	"face":      "[表情]",
	"image":     "[图片]",
	"record":    "[语音]",
	"video":     "[视频]",
	"rps":       "[猜拳]",
	"dice":      "[骰子]",
	"shake":     "[窗口抖动]",
	"poke":      "[戳一戳]",
	"anonymous": "[匿名]",
	"share":     "[分享]",
	"contact":   "[推荐]",
	"location":  "[位置]",
	"music":     "[音乐]",
	"reply":     "[回复]",
	"forward":   "[合并转发]",
	"node":      "[合并转发]",
	"xml":       "[XML]",
	"json":      "[JSON]",
}

// HumanString renders the message as a person would read it: text verbatim,
// mentions as @id and everything else as a bracketed placeholder.
func (m Message) HumanString() string {
	var b strings.Builder
	for _, seg := range m {
		switch seg.Type {
		case "text":
			b.WriteString(seg.str("text"))
		case "at":
			b.WriteString("@" + seg.str("qq"))
		default:
			if p, ok := placeholders[seg.Type]; ok {
				b.WriteString(p)
			} else {
				b.WriteString("[未知]")
			}
		}
	}
	return b.String()
}

// str reads a data field that hosts send either as a string or a number.
func (s Segment) str(key string) string {
	switch v := s.Data[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case int64:
		return strconv.FormatInt(v, 10)
	case int:
		return strconv.Itoa(v)
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}
