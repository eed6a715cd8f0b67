package bots

import (
	"context"
	"log"
	"strings"
	"sync/atomic"

	"github.com/ziadkadry99/aiqa/internal/onebot"
)

// WorkingEmoji is the reaction shown while a question is being answered.
const WorkingEmoji = "424"

// ServerType is the OneBot implementation the bot is connected to.
type ServerType int32

const (
	ServerUnknown ServerType = iota
	ServerNapCat
	ServerLagrange
)

func (s ServerType) String() string {
	switch s {
	case ServerNapCat:
		return "napcat"
	case ServerLagrange:
		return "lagrange"
	default:
		return "unknown"
	}
}

// ServerSlot holds the detected server type. The first Set wins.
type ServerSlot struct {
	v atomic.Int32
}

// Set stores t if nothing has been stored yet and reports whether it did.
func (s *ServerSlot) Set(t ServerType) bool {
	if t == ServerUnknown {
		return false
	}
	return s.v.CompareAndSwap(int32(ServerUnknown), int32(t))
}

// Get returns the stored type, or ServerUnknown.
func (s *ServerSlot) Get() ServerType {
	return ServerType(s.v.Load())
}

// DetectServerType maps a get_version_info app_name to a server type.
func DetectServerType(appName string) ServerType {
	name := strings.ToLower(appName)
	switch {
	case strings.Contains(name, "napcat"):
		return ServerNapCat
	case strings.Contains(name, "lagrange"):
		return ServerLagrange
	default:
		return ServerUnknown
	}
}

// VersionSource answers get_version_info.
type VersionSource interface {
	GetVersionInfo(ctx context.Context) (*onebot.VersionInfo, error)
}

// ProbeServerType asks the host what it is and records the answer in slot.
// Failures leave the slot empty, which turns reactions into no-ops.
func ProbeServerType(ctx context.Context, src VersionSource, slot *ServerSlot) ServerType {
	info, err := src.GetVersionInfo(ctx)
	if err != nil {
		log.Printf("bots: probing server type: %v", err)
		return ServerUnknown
	}
	t := DetectServerType(info.AppName)
	if t != ServerUnknown {
		log.Printf("bots: detected server type %s (%s %s)", t, info.AppName, info.AppVersion)
		slot.Set(t)
	}
	return slot.Get()
}

// Reactor sets emoji reactions on messages.
type Reactor interface {
	SetMsgEmojiLike(ctx context.Context, messageID int64, emojiID string) error
	SetGroupReaction(ctx context.Context, groupID, messageID int64, code string, isAdd bool) error
}
