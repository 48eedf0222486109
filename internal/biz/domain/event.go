package domain

// ChatType represents the kind of conversation an event originated in
type ChatType string

const (
	ChatTypeP2P   ChatType = "p2p"
	ChatTypeGroup ChatType = "group"
)

// Payload carries the textual variants of an inbound message.
// Exactly which field is populated depends on the message type.
type Payload struct {
	Text     string // plain text body
	Extended string // quoted/extended text
	Caption  string // media caption
}

// Event represents one inbound message event delivered by the transport
type Event struct {
	MsgID       string
	ChatID      string
	Participant string // set in group chats, empty for direct messages
	SenderName  string
	ChatType    ChatType
	SenderSelf  bool // true if the bot itself sent the message
	Payload     Payload
}

// Text extracts the plain text of the event.
// Priority: text body, then extended text, then media caption.
func (e *Event) Text() string {
	if e.Payload.Text != "" {
		return e.Payload.Text
	}
	if e.Payload.Extended != "" {
		return e.Payload.Extended
	}
	return e.Payload.Caption
}

// Actor returns the identity a message is attributed to:
// the group participant in group chats, otherwise the chat itself.
func (e *Event) Actor() string {
	if e.ChatType == ChatTypeGroup && e.Participant != "" {
		return e.Participant
	}
	return e.ChatID
}

// GroupUpdate represents a group membership change event
type GroupUpdate struct {
	GroupID      string
	Participants []string
	Action       string // add, remove, etc.
}
