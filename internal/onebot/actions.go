package onebot

import "context"

// VersionInfo is the result of get_version_info.
type VersionInfo struct {
	AppName         string `json:"app_name"`
	AppVersion      string `json:"app_version"`
	ProtocolVersion string `json:"protocol_version"`
}

// GetVersionInfo asks the host what implementation it is.
func (c *Client) GetVersionInfo(ctx context.Context) (*VersionInfo, error) {
	var info VersionInfo
	if err := c.Call(ctx, "get_version_info", nil, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// StoredMessage is the result of get_msg.
type StoredMessage struct {
	MessageID   int64   `json:"message_id"`
	MessageType string  `json:"message_type"`
	Time        int64   `json:"time"`
	Message     Message `json:"message"`
}

// GetMsg fetches a message by id.
func (c *Client) GetMsg(ctx context.Context, messageID int64) (*StoredMessage, error) {
	var msg StoredMessage
	params := map[string]any{"message_id": messageID}
	if err := c.Call(ctx, "get_msg", params, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

type sendResult struct {
	MessageID int64 `json:"message_id"`
}

// SendMsg sends msg to the group or private chat ev came from and returns
// the new message id.
func (c *Client) SendMsg(ctx context.Context, ev *Event, msg Message) (int64, error) {
	params := map[string]any{"message": msg}
	if ev.IsGroup() {
		params["message_type"] = "group"
		params["group_id"] = ev.GroupID
	} else {
		params["message_type"] = "private"
		params["user_id"] = ev.UserID
	}
	var res sendResult
	if err := c.Call(ctx, "send_msg", params, &res); err != nil {
		return 0, err
	}
	return res.MessageID, nil
}

// SendPrivateMsg sends msg to a user directly.
func (c *Client) SendPrivateMsg(ctx context.Context, userID int64, msg Message) (int64, error) {
	params := map[string]any{"user_id": userID, "message": msg}
	var res sendResult
	if err := c.Call(ctx, "send_private_msg", params, &res); err != nil {
		return 0, err
	}
	return res.MessageID, nil
}

// SetMsgEmojiLike toggles an emoji reaction on a message (NapCat extension).
func (c *Client) SetMsgEmojiLike(ctx context.Context, messageID int64, emojiID string) error {
	params := map[string]any{"message_id": messageID, "emoji_id": emojiID}
	return c.Call(ctx, "set_msg_emoji_like", params, nil)
}

// SetGroupReaction adds or removes a reaction on a group message (Lagrange
// extension).
func (c *Client) SetGroupReaction(ctx context.Context, groupID, messageID int64, code string, isAdd bool) error {
	params := map[string]any{
		"group_id":   groupID,
		"message_id": messageID,
		"code":       code,
		"is_add":     isAdd,
	}
	return c.Call(ctx, "set_group_reaction", params, nil)
}
