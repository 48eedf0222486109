package feishu

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	lark "github.com/larksuite/oapi-sdk-go/v3"
	larkcore "github.com/larksuite/oapi-sdk-go/v3/core"
	"github.com/larksuite/oapi-sdk-go/v3/event/dispatcher"
	larkim "github.com/larksuite/oapi-sdk-go/v3/service/im/v1"
	larkws "github.com/larksuite/oapi-sdk-go/v3/ws"

	"github.com/acheronbot/acheron/internal/biz/domain"
	"github.com/acheronbot/acheron/internal/biz/repo"
)

// Client is the Feishu transport adapter. It translates Lark websocket
// events into domain events and implements the outbound message interface.
type Client struct {
	appID     string
	appSecret string
	larkCli   *lark.Client
	wsCli     *larkws.Client

	onEvent       func(*domain.Event)
	onGroupUpdate func(*domain.GroupUpdate)

	ctx    context.Context
	cancel context.CancelFunc
}

// NewClient creates a new Feishu client
func NewClient(appID, appSecret string) *Client {
	return &Client{
		appID:     appID,
		appSecret: appSecret,
	}
}

// OnEvent sets the inbound message handler
func (c *Client) OnEvent(handler func(*domain.Event)) {
	c.onEvent = handler
}

// OnGroupUpdate sets the group membership change handler
func (c *Client) OnGroupUpdate(handler func(*domain.GroupUpdate)) {
	c.onGroupUpdate = handler
}

// Start connects to Feishu via WebSocket and listens for events.
// Reconnect with delay on transient failures is handled inside the SDK.
func (c *Client) Start() error {
	c.ctx, c.cancel = context.WithCancel(context.Background())

	c.larkCli = lark.NewClient(c.appID, c.appSecret)

	// Handlers must return quickly so the SDK can ACK; translation is cheap
	// and the server queues the event for the consumer loop.
	eventHandler := dispatcher.NewEventDispatcher("", "").
		OnP2MessageReceiveV1(func(ctx context.Context, event *larkim.P2MessageReceiveV1) error {
			c.handleMessage(event)
			return nil
		}).
		OnP2ChatMemberUserAddedV1(func(ctx context.Context, event *larkim.P2ChatMemberUserAddedV1) error {
			c.handleMemberChange(event.Event.ChatId, event.Event.Users, "add")
			return nil
		}).
		OnP2ChatMemberUserDeletedV1(func(ctx context.Context, event *larkim.P2ChatMemberUserDeletedV1) error {
			c.handleMemberChange(event.Event.ChatId, event.Event.Users, "remove")
			return nil
		})

	c.wsCli = larkws.NewClient(c.appID, c.appSecret,
		larkws.WithEventHandler(eventHandler),
		larkws.WithLogLevel(larkcore.LogLevelInfo),
	)

	fmt.Println("[Feishu] Starting WebSocket connection...")
	return c.wsCli.Start(c.ctx)
}

// Stop disconnects from Feishu
func (c *Client) Stop() {
	if c.cancel != nil {
		c.cancel()
	}
}

// handleMessage translates an incoming Feishu message into a domain event
func (c *Client) handleMessage(event *larkim.P2MessageReceiveV1) {
	rawMsg := event.Event.Message
	if rawMsg == nil || rawMsg.ChatId == nil || rawMsg.MessageId == nil {
		return
	}

	ev := &domain.Event{
		MsgID:    *rawMsg.MessageId,
		ChatID:   *rawMsg.ChatId,
		ChatType: domain.ChatTypeP2P,
	}

	if rawMsg.ChatType != nil && *rawMsg.ChatType == "group" {
		ev.ChatType = domain.ChatTypeGroup
	}

	if sender := event.Event.Sender; sender != nil {
		if sender.SenderType != nil && *sender.SenderType == "app" {
			ev.SenderSelf = true
		}
		if sender.SenderId != nil && sender.SenderId.OpenId != nil {
			if ev.ChatType == domain.ChatTypeGroup {
				ev.Participant = *sender.SenderId.OpenId
			}
		}
	}

	// Map mention placeholders (@_user_1) to real names
	mentionMap := make(map[string]string)
	for _, mention := range rawMsg.Mentions {
		if mention.Key != nil && mention.Name != nil {
			mentionMap[*mention.Key] = *mention.Name
		}
	}

	msgType := ""
	if rawMsg.MessageType != nil {
		msgType = *rawMsg.MessageType
	}

	switch msgType {
	case "text":
		if rawMsg.Content != nil {
			ev.Payload.Text = parseTextContent(*rawMsg.Content, mentionMap)
		}
	case "post":
		if rawMsg.Content != nil {
			ev.Payload.Extended = parsePostContent(*rawMsg.Content, mentionMap)
		}
	default:
		// No textual payload to route
		return
	}

	if c.onEvent != nil {
		c.onEvent(ev)
	}
}

// handleMemberChange translates a chat member change into a group update
func (c *Client) handleMemberChange(chatID *string, users []*larkim.ChatMemberUser, action string) {
	if chatID == nil || c.onGroupUpdate == nil {
		return
	}

	gu := &domain.GroupUpdate{
		GroupID: *chatID,
		Action:  action,
	}
	for _, u := range users {
		if u != nil && u.UserId != nil && u.UserId.OpenId != nil {
			gu.Participants = append(gu.Participants, *u.UserId.OpenId)
		}
	}
	if len(gu.Participants) == 0 {
		return
	}
	c.onGroupUpdate(gu)
}

// parseTextContent extracts text from a text message and replaces mention
// placeholders with real names
func parseTextContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}
	return replaceMentions(parsed.Text, mentionMap)
}

// parsePostContent extracts the text lines of a rich text message
func parsePostContent(content string, mentionMap map[string]string) string {
	var parsed struct {
		Title   string `json:"title"`
		Content [][]struct {
			Tag    string `json:"tag"`
			Text   string `json:"text,omitempty"`
			UserID string `json:"user_id,omitempty"`
		} `json:"content"`
	}
	if err := json.Unmarshal([]byte(content), &parsed); err != nil {
		return ""
	}

	var parts []string
	if parsed.Title != "" {
		parts = append(parts, parsed.Title)
	}
	for _, line := range parsed.Content {
		var lineParts []string
		for _, elem := range line {
			switch elem.Tag {
			case "text":
				if elem.Text != "" {
					lineParts = append(lineParts, elem.Text)
				}
			case "at":
				if elem.UserID != "" {
					if name, ok := mentionMap[elem.UserID]; ok {
						lineParts = append(lineParts, "@"+name)
					} else {
						lineParts = append(lineParts, "@"+elem.UserID)
					}
				}
			}
		}
		if len(lineParts) > 0 {
			parts = append(parts, strings.Join(lineParts, ""))
		}
	}

	return replaceMentions(strings.Join(parts, "\n"), mentionMap)
}

// replaceMentions replaces mention placeholders (@_user_1, ...) with real names
func replaceMentions(text string, mentionMap map[string]string) string {
	if len(mentionMap) == 0 {
		return text
	}
	result := text
	for key, name := range mentionMap {
		result = strings.ReplaceAll(result, key, "@"+name)
	}
	return result
}

// SendText sends a text message to a chat, replying to quotedMsgID when set
func (c *Client) SendText(ctx context.Context, chatID, text, quotedMsgID string) error {
	content := map[string]string{"text": text}
	contentJSON, _ := json.Marshal(content)

	if quotedMsgID != "" {
		req := larkim.NewReplyMessageReqBuilder().
			MessageId(quotedMsgID).
			Body(larkim.NewReplyMessageReqBodyBuilder().
				MsgType(larkim.MsgTypeText).
				Content(string(contentJSON)).
				Build()).
			Build()

		resp, err := c.larkCli.Im.Message.Reply(ctx, req)
		if err != nil {
			return fmt.Errorf("reply message failed: %w", err)
		}
		if !resp.Success() {
			return fmt.Errorf("reply message error: %s", resp.Msg)
		}
		return nil
	}

	req := larkim.NewCreateMessageReqBuilder().
		ReceiveIdType(larkim.ReceiveIdTypeChatId).
		Body(larkim.NewCreateMessageReqBodyBuilder().
			ReceiveId(chatID).
			MsgType(larkim.MsgTypeText).
			Content(string(contentJSON)).
			Build()).
		Build()

	resp, err := c.larkCli.Im.Message.Create(ctx, req)
	if err != nil {
		return fmt.Errorf("send message failed: %w", err)
	}
	if !resp.Success() {
		return fmt.Errorf("send message error: %s", resp.Msg)
	}
	return nil
}

// SetPresence is a no-op: Feishu exposes no typing indicator API.
// Presence is cosmetic and callers already treat it as best effort.
func (c *Client) SetPresence(ctx context.Context, chatID string, state repo.PresenceState) error {
	return nil
}
