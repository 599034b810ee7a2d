/*
Package relay connects the link channel to the connected world clients.

Core receives channel events and client lines, decides what each one means, and
delivers the formatted result to the other side through the session manager or the
chat platform. Slash-command handlers that change the registry or the link channel
live here as well.
*/
package relay

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"neoslink/internal/app/chat"
	"neoslink/internal/app/format"
	"neoslink/internal/app/user"
	"neoslink/internal/pkg/logx"
	"neoslink/internal/pkg/metrics"
)

const (
	// unverifiedDelay precedes the UnVerified reply to an unregistered sender.
	unverifiedDelay = 100 * time.Millisecond

	// maxMessageRunes is the platform's message length limit.
	maxMessageRunes = 2000
)

// Platform is the chat platform as the relay uses it.
type Platform interface {
	// SendChannelMessage posts content as the bot.
	SendChannelMessage(ctx context.Context, channelID, content string) error

	// SendChannelMessageAsUser posts through a webhook under another name and avatar.
	SendChannelMessageAsUser(ctx context.Context, webhookURL string, msg format.WebhookMessage) error

	// FetchRecentMessages returns up to limit messages, newest first.
	FetchRecentMessages(ctx context.Context, channelID string, limit int) ([]format.ChannelMessage, error)

	// EnsureWebhook returns the URL of the webhook called name in channelID, creating it if needed.
	// A missing permission is reported as errs.ErrPermission.
	EnsureWebhook(ctx context.Context, channelID, name string) (string, error)
}

// Registry is the registered-user store the relay reads and writes.
type Registry interface {
	format.UserDirectory
	Register(ctx context.Context, externalID string, u user.User) error
	Len() int
}

// Options configures a Core.
type Options struct {
	// LinkChannelID is the channel mirrored at startup.
	LinkChannelID string

	// WebhookURL enables impersonated delivery from startup when set.
	WebhookURL string

	// WebhookName is the webhook change_channel looks for or creates.
	WebhookName string

	// HistoryLimit is the number of messages replayed to a new session.
	HistoryLimit int
}

// Core routes traffic between the link channel and the sessions.
type Core struct {
	platform Platform
	sessions *chat.Manager
	users    Registry
	codec    *format.Codec

	webhookName  string
	historyLimit int

	// mu guards the link state below.
	mu         sync.RWMutex
	channelID  string
	webhookURL string

	logger zerolog.Logger
}

// New returns a Core. mentions may be nil, which disables mention resolution.
func New(platform Platform, sessions *chat.Manager, users Registry, mentions *format.MentionResolver, opts Options) *Core {
	return &Core{
		platform:     platform,
		sessions:     sessions,
		users:        users,
		codec:        format.NewCodec(users, mentions),
		webhookName:  opts.WebhookName,
		historyLimit: opts.HistoryLimit,
		channelID:    opts.LinkChannelID,
		webhookURL:   opts.WebhookURL,
		logger:       logx.Component("Relay"),
	}
}

// LinkChannel returns the channel currently mirrored.
func (c *Core) LinkChannel() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channelID
}

// Impersonating reports whether client messages are posted through a webhook.
func (c *Core) Impersonating() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.webhookURL != ""
}

func (c *Core) linkState() (channelID, webhookURL string) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.channelID, c.webhookURL
}

// Status is a point-in-time summary of the bridge.
type Status struct {
	Sessions        int    `json:"sessions"`
	RegisteredUsers int    `json:"registeredUsers"`
	LinkChannelID   string `json:"linkChannelId"`
	Impersonating   bool   `json:"impersonating"`
}

// Status reports the current bridge state.
func (c *Core) Status() Status {
	channelID, webhookURL := c.linkState()
	return Status{
		Sessions:        c.sessions.Count(),
		RegisteredUsers: c.users.Len(),
		LinkChannelID:   channelID,
		Impersonating:   webhookURL != "",
	}
}

// HandleChannelMessage broadcasts a message posted in the link channel to every session.
// Messages from other channels and from the bridge itself are ignored.
func (c *Core) HandleChannelMessage(ctx context.Context, channelID string, msg format.ChannelMessage) {
	if msg.FromBridge {
		c.logger.Debug().Str("content", msg.Body).Msg("Bot sent the message")
		return
	}
	if channelID != c.LinkChannel() {
		return
	}

	lines := format.FormatChannelEvent(msg, "")
	n := c.sessions.Broadcast(lines...)

	metrics.MessagesRelayed.WithLabelValues(metrics.DirectionToClients).Inc()
	c.logger.Debug().Str("author", msg.AuthorName).Int("sessions", n).Msg("Relayed channel message")
}

// History renders the recent link-channel messages as one backlog.
func (c *Core) History(ctx context.Context) (string, error) {
	if c.historyLimit <= 0 {
		return "", nil
	}

	events, err := c.platform.FetchRecentMessages(ctx, c.LinkChannel(), c.historyLimit)
	if err != nil {
		metrics.PlatformErrors.WithLabelValues("history").Inc()
		return "", err
	}
	return format.FormatHistory(events), nil
}

// Attach registers s, sends it the history backlog, and serves it until it disconnects.
// A failed history fetch is logged and the session is served anyway.
func (c *Core) Attach(ctx context.Context, s *chat.Session) {
	c.sessions.Join(s)

	history, err := c.History(ctx)
	switch {
	case err != nil:
		c.logger.Error().Err(err).Str("session_id", s.ID).Msg("Failed to fetch history")
	case history != "":
		if err := s.Enqueue(history); err != nil {
			c.logger.Debug().Err(err).Str("session_id", s.ID).Msg("Failed to queue history")
		}
	}

	c.sessions.Serve(ctx, s, c.HandleClientLine)
}

// ActionKind classifies a client line.
type ActionKind int

// Client line outcomes.
const (
	// ActionDrop discards a malformed line.
	ActionDrop ActionKind = iota

	// ActionRejectUnverified answers an unregistered sender with the UnVerified marker.
	ActionRejectUnverified

	// ActionDeliver posts the message to the link channel.
	ActionDeliver
)

func (k ActionKind) String() string {
	switch k {
	case ActionDrop:
		return "drop"
	case ActionRejectUnverified:
		return "reject_unverified"
	case ActionDeliver:
		return "deliver"
	default:
		return "unknown"
	}
}

// Action is the decision for one client line.
type Action struct {
	Kind    ActionKind
	Message format.InboundMessage

	// Err explains a drop.
	Err error
}

// Route decides what to do with a client line without side effects.
func (c *Core) Route(line string) Action {
	msg, err := format.ParseInbound(line)
	if err != nil {
		return Action{Kind: ActionDrop, Err: err}
	}

	if _, ok := c.users.Lookup(msg.UserID); !ok {
		return Action{Kind: ActionRejectUnverified, Message: msg}
	}

	return Action{Kind: ActionDeliver, Message: msg}
}

// HandleClientLine acts on one line read from s.
func (c *Core) HandleClientLine(ctx context.Context, s *chat.Session, line string) {
	action := c.Route(line)

	switch action.Kind {
	case ActionDrop:
		metrics.ParseFailures.Inc()
		c.logger.Warn().Err(action.Err).Str("session_id", s.ID).Msg("Dropped malformed client message")

	case ActionRejectUnverified:
		metrics.UnverifiedRejected.Inc()
		c.rejectUnverified(ctx, s, action.Message.UserID)

	case ActionDeliver:
		c.deliver(ctx, s, action.Message)
	}
}

func (c *Core) rejectUnverified(ctx context.Context, s *chat.Session, userID string) {
	timer := time.NewTimer(unverifiedDelay)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return
	case <-timer.C:
	}

	c.logger.Warn().Str("user_id", userID).Str("session_id", s.ID).Msg("WS Unverified User")

	if err := s.Enqueue(format.UnverifiedReply); err != nil {
		c.logger.Debug().Err(err).Str("session_id", s.ID).Msg("Failed to queue UnVerified reply")
	}
}

// deliver posts msg through the webhook when one is configured, otherwise as the bot
// with the formatted text echoed back to s.
func (c *Core) deliver(ctx context.Context, s *chat.Session, msg format.InboundMessage) {
	channelID, webhookURL := c.linkState()

	if webhookURL != "" {
		post, err := c.codec.FormatWebhook(msg)
		if err != nil {
			c.logger.Warn().Err(err).Msg("Failed to format webhook message")
			return
		}
		post.Content = truncate(post.Content)

		if err := c.platform.SendChannelMessageAsUser(ctx, webhookURL, post); err != nil {
			metrics.PlatformErrors.WithLabelValues("webhook").Inc()
			c.logger.Error().Err(err).Str("user_id", msg.UserID).Msg("Failed to send webhook message")
			return
		}

		metrics.MessagesRelayed.WithLabelValues(metrics.DirectionToChannel).Inc()
		return
	}

	text, err := c.codec.FormatOutbound(msg)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to format client message")
		return
	}
	text = truncate(text)

	if err := c.platform.SendChannelMessage(ctx, channelID, text); err != nil {
		metrics.PlatformErrors.WithLabelValues("send").Inc()
		c.logger.Error().Err(err).Str("channel_id", channelID).Msg("Failed to send channel message")
		return
	}
	metrics.MessagesRelayed.WithLabelValues(metrics.DirectionToChannel).Inc()

	if err := s.Enqueue(text); err != nil {
		c.logger.Debug().Err(err).Str("session_id", s.ID).Msg("Failed to echo message")
	}
}

// truncate cuts s to the platform message limit.
func truncate(s string) string {
	n := 0
	for i := range s {
		if n == maxMessageRunes {
			return s[:i]
		}
		n++
	}
	return s
}
