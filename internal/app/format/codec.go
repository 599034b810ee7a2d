package format

import (
	"strconv"
	"strings"

	"neoslink/internal/app/user"
	"neoslink/internal/pkg/errs"
)

// Reserved protocol markers exchanged with link clients.
const (
	// EscapeMarker is the broken-bar character clients use in place of a literal pipe.
	EscapeMarker = "¦"

	// UnverifiedReply tells a client its sender is not registered.
	UnverifiedReply = EscapeMarker + "UnVerified"

	// AttachmentMarker prefixes the line carrying an attachment URL.
	AttachmentMarker = EscapeMarker + "a"

	// HistoryPrefix starts every line of a history backlog.
	HistoryPrefix = EscapeMarker

	// attachmentTextPrefix flags the text line that follows an attachment line.
	attachmentTextPrefix = "+ "

	inboundFieldCount = 3
)

// WorldStatus is the in-world visibility level attached to a client message.
type WorldStatus int

// World status values in wire order.
const (
	StatusPrivate WorldStatus = iota
	StatusLocal
	StatusContacts
	StatusContactsPlus
	StatusRegistered
	StatusPublic
	StatusAnyone
)

var (
	statusLabels = [...]string{"Pr", "L", "C", "C+", "R", "P", "H"}
	statusNames  = [...]string{"Private", "Local", "Contacts", "Contacts+", "Registered", "Public", "Anyone"}
)

// Valid reports whether s indexes the status table.
func (s WorldStatus) Valid() bool {
	return s >= StatusPrivate && s <= StatusAnyone
}

// Label is the short form shown in the channel, e.g. "C+".
func (s WorldStatus) Label() string {
	if !s.Valid() {
		return "?"
	}
	return statusLabels[s]
}

func (s WorldStatus) String() string {
	if !s.Valid() {
		return "WorldStatus(" + strconv.Itoa(int(s)) + ")"
	}
	return statusNames[s]
}

// Presence is the online state of a channel message author.
type Presence string

// Presence values reported by the chat platform.
const (
	PresenceOnline  Presence = "online"
	PresenceIdle    Presence = "idle"
	PresenceDND     Presence = "dnd"
	PresenceOffline Presence = "offline"
)

var presenceLabels = map[Presence]string{
	PresenceOnline:  "On",
	PresenceIdle:    "Idle",
	PresenceDND:     "DnD",
	PresenceOffline: "off",
}

// InboundMessage is one parsed client line.
type InboundMessage struct {
	UserID string
	Status WorldStatus
	Text   string
}

// ChannelMessage is a read-only snapshot of a chat channel message.
type ChannelMessage struct {
	AuthorName     string
	Presence       Presence
	Body           string
	AttachmentURLs []string

	// FromBridge marks messages the bridge bot posted itself.
	FromBridge bool
}

// WebhookMessage is a post rendered for impersonated delivery.
type WebhookMessage struct {
	Username  string
	AvatarURL string
	Content   string
}

// UserDirectory resolves external IDs to registered users.
type UserDirectory interface {
	Lookup(externalID string) (user.User, bool)
}

// ParseInbound parses a "{userID},{status},{text}" client line.
func ParseInbound(line string) (InboundMessage, error) {
	fields := strings.Split(line, ",")
	if len(fields) != inboundFieldCount {
		return InboundMessage{}, errs.NewError(errs.ErrFieldCount, len(fields))
	}

	n, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	status := WorldStatus(n)
	if err != nil || !status.Valid() {
		return InboundMessage{}, errs.NewError(errs.ErrBadStatus, fields[1])
	}

	return InboundMessage{
		UserID: fields[0],
		Status: status,
		Text:   fields[2],
	}, nil
}

// Codec renders client messages for the channel.
type Codec struct {
	users    UserDirectory
	mentions *MentionResolver
}

// NewCodec returns a Codec that verifies senders against users.
func NewCodec(users UserDirectory, mentions *MentionResolver) *Codec {
	return &Codec{users: users, mentions: mentions}
}

// FormatOutbound renders msg as "{displayName} ({label}) - {text}".
// It fails with ErrUnknownUser when the sender is not registered.
func (c *Codec) FormatOutbound(msg InboundMessage) (string, error) {
	u, ok := c.users.Lookup(msg.UserID)
	if !ok {
		return "", errs.NewError(errs.ErrUnknownUser, msg.UserID)
	}

	return u.DisplayName + " (" + msg.Status.Label() + ") - " + c.outboundText(msg.Text), nil
}

// FormatWebhook renders msg for delivery under the registered user's name and avatar.
func (c *Codec) FormatWebhook(msg InboundMessage) (WebhookMessage, error) {
	u, ok := c.users.Lookup(msg.UserID)
	if !ok {
		return WebhookMessage{}, errs.NewError(errs.ErrUnknownUser, msg.UserID)
	}

	return WebhookMessage{
		Username:  u.DisplayName + " (" + msg.Status.Label() + ")",
		AvatarURL: u.AvatarURL,
		Content:   c.outboundText(msg.Text),
	}, nil
}

func (c *Codec) outboundText(text string) string {
	return strings.ReplaceAll(c.mentions.Resolve(text), EscapeMarker, "|")
}

// FormatChannelEvent renders a channel message for link clients.
// A message with attachments yields the marker line for the first URL followed by the text line.
func FormatChannelEvent(ev ChannelMessage, prefix string) []string {
	line := formatLine(ev, prefix)
	if len(ev.AttachmentURLs) == 0 {
		return []string{line}
	}

	return []string{
		AttachmentMarker + ev.AttachmentURLs[0],
		attachmentTextPrefix + line,
	}
}

// FormatHistory joins messages, given newest first, into one backlog whose last line is the most recent.
func FormatHistory(events []ChannelMessage) string {
	var b strings.Builder
	for i := len(events) - 1; i >= 0; i-- {
		b.WriteString("\n")
		b.WriteString(formatLine(events[i], HistoryPrefix))
	}
	return b.String()
}

func formatLine(ev ChannelMessage, prefix string) string {
	body := StripRTF(strings.ReplaceAll(ev.Body, EscapeMarker, "|"))

	if ev.FromBridge {
		return prefix + body
	}

	label, ok := presenceLabels[ev.Presence]
	if !ok {
		return prefix + ev.AuthorName + " - " + body
	}

	return prefix + ev.AuthorName + " (" + label + ") - " + body
}
