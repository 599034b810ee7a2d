/*
Package discord adapts a discordgo session to the relay.

Client implements the relay's Platform, the presence Presenter, and the member lookup
used for mention resolution. It also turns gateway events into relay calls: messages
posted in the guild become channel events, and the neos_link and change_channel
application commands become registry and link-channel changes.
*/
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"neoslink/internal/app/format"
	"neoslink/internal/app/presence"
	"neoslink/internal/app/relay"
	"neoslink/internal/pkg/errs"
	"neoslink/internal/pkg/logx"
)

// Relay is the part of relay.Core the gateway handlers call.
type Relay interface {
	HandleChannelMessage(ctx context.Context, channelID string, msg format.ChannelMessage)
	Link(ctx context.Context, caller relay.Caller, externalID string) (string, error)
	ChangeChannel(ctx context.Context, channelID, channelName string) string
}

// Client is a connected bot session scoped to one guild.
type Client struct {
	session *discordgo.Session
	guildID string

	// ctx is the lifetime of the gateway handlers, set by Start.
	mu    sync.RWMutex
	ctx   context.Context
	relay Relay

	logger zerolog.Logger
}

// New creates a bot session for token. It does not connect.
func New(token, guildID string) (*Client, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("failed to create discord session: %w", err)
	}

	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsGuildPresences |
		discordgo.IntentsMessageContent

	return &Client{
		session: session,
		guildID: guildID,
		ctx:     context.Background(),
		logger:  logx.Component("Discord"),
	}, nil
}

// Start installs the gateway handlers that forward to r and opens the session.
func (c *Client) Start(ctx context.Context, r Relay) error {
	c.mu.Lock()
	c.ctx = ctx
	c.relay = r
	c.mu.Unlock()

	c.session.AddHandler(c.handleReady)
	c.session.AddHandler(c.handleGuildCreate)
	c.session.AddHandler(c.handleMessage)
	c.session.AddHandler(c.handleInteraction)

	if err := c.session.Open(); err != nil {
		return fmt.Errorf("failed to open discord session: %w", err)
	}
	return nil
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	c.logger.Info().Msg("Stopping Discord bot")
	if err := c.session.Close(); err != nil {
		return fmt.Errorf("failed to close discord session: %w", err)
	}
	return nil
}

func (c *Client) handlerContext() (context.Context, Relay) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.ctx, c.relay
}

func (c *Client) botID() string {
	if c.session.State == nil || c.session.State.User == nil {
		return ""
	}
	return c.session.State.User.ID
}

func (c *Client) handleReady(s *discordgo.Session, r *discordgo.Ready) {
	c.logger.Info().
		Str("username", r.User.Username).
		Str("user_id", r.User.ID).
		Msg("Bot has logged in")

	if _, err := s.ApplicationCommandBulkOverwrite(r.User.ID, c.guildID, commands); err != nil {
		c.logger.Error().Err(err).Str("guild_id", c.guildID).Msg("Failed to register slash commands")
	}
}

// handleGuildCreate asks for the member list so mentions and nicknames resolve from state.
func (c *Client) handleGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if g.ID != c.guildID {
		return
	}
	if err := s.RequestGuildMembers(g.ID, "", 0, "", true); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to request guild members")
	}
}

func (c *Client) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m == nil || m.Author == nil {
		return
	}

	ctx, r := c.handlerContext()
	if r == nil {
		return
	}

	r.HandleChannelMessage(ctx, m.ChannelID, c.channelMessage(m.Message))
}

// channelMessage snapshots m with the author's nickname and presence from state.
func (c *Client) channelMessage(m *discordgo.Message) format.ChannelMessage {
	var member *discordgo.Member
	if m.Member != nil {
		member = m.Member
	} else if mm, err := c.session.State.Member(c.guildID, m.Author.ID); err == nil {
		member = mm
	}

	var status discordgo.Status
	if p, err := c.session.State.Presence(c.guildID, m.Author.ID); err == nil {
		status = p.Status
	}

	return toChannelMessage(m, member, status, c.botID())
}

// toChannelMessage converts a platform message. A guild member with no cached presence
// is offline; a non-member author such as a webhook keeps Presence empty.
func toChannelMessage(m *discordgo.Message, member *discordgo.Member, status discordgo.Status, botID string) format.ChannelMessage {
	if member != nil && status == "" {
		status = discordgo.StatusOffline
	}

	msg := format.ChannelMessage{
		AuthorName: displayName(member, m.Author),
		Presence:   presenceOf(status),
		Body:       m.Content,
		FromBridge: botID != "" && m.Author.ID == botID,
	}

	for _, a := range m.Attachments {
		if a == nil {
			continue
		}
		u := a.ProxyURL
		if u == "" {
			u = a.URL
		}
		msg.AttachmentURLs = append(msg.AttachmentURLs, u)
	}

	return msg
}

func displayName(member *discordgo.Member, u *discordgo.User) string {
	if member != nil && member.Nick != "" {
		return member.Nick
	}
	if u == nil {
		return ""
	}
	return u.Username
}

func presenceOf(status discordgo.Status) format.Presence {
	switch status {
	case discordgo.StatusOnline:
		return format.PresenceOnline
	case discordgo.StatusIdle:
		return format.PresenceIdle
	case discordgo.StatusDoNotDisturb:
		return format.PresenceDND
	case discordgo.StatusOffline, discordgo.StatusInvisible:
		return format.PresenceOffline
	default:
		return ""
	}
}

// SendChannelMessage posts content as the bot.
func (c *Client) SendChannelMessage(ctx context.Context, channelID, content string) error {
	c.logger.Debug().Str("channel_id", channelID).Str("content", content).Msg("Bot sending message")

	if _, err := c.session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx)); err != nil {
		return errs.Wrap(errs.ErrTransport, fmt.Errorf("failed to send discord message: %w", err))
	}
	return nil
}

// SendChannelMessageAsUser executes the webhook at webhookURL with msg's name and avatar.
func (c *Client) SendChannelMessageAsUser(ctx context.Context, webhookURL string, msg format.WebhookMessage) error {
	id, token, err := parseWebhookURL(webhookURL)
	if err != nil {
		return err
	}

	_, err = c.session.WebhookExecute(id, token, false, &discordgo.WebhookParams{
		Content:   msg.Content,
		Username:  msg.Username,
		AvatarURL: msg.AvatarURL,
	}, discordgo.WithContext(ctx))
	if err != nil {
		return errs.Wrap(errs.ErrTransport, fmt.Errorf("failed to execute webhook: %w", err))
	}
	return nil
}

// FetchRecentMessages returns up to limit messages from channelID, newest first.
func (c *Client) FetchRecentMessages(ctx context.Context, channelID string, limit int) ([]format.ChannelMessage, error) {
	c.logger.Debug().Str("channel_id", channelID).Int("limit", limit).Msg("Bot fetching history")

	messages, err := c.session.ChannelMessages(channelID, limit, "", "", "", discordgo.WithContext(ctx))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch channel history: %w", err)
	}

	out := make([]format.ChannelMessage, 0, len(messages))
	for _, m := range messages {
		if m == nil || m.Author == nil {
			continue
		}
		out = append(out, c.channelMessage(m))
	}
	return out, nil
}

// EnsureWebhook returns the webhook called name in channelID, creating one when absent.
func (c *Client) EnsureWebhook(ctx context.Context, channelID, name string) (string, error) {
	hooks, err := c.session.ChannelWebhooks(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err, "list webhooks")
	}

	for _, h := range hooks {
		if h.Name == name && h.Token != "" {
			return webhookURL(h.ID, h.Token), nil
		}
		c.logger.Info().Str("webhook", h.Name).Msg("Webhook is not the one we want")
	}

	h, err := c.session.WebhookCreate(channelID, name, "", discordgo.WithContext(ctx))
	if err != nil {
		return "", classify(err, "create webhook")
	}

	c.logger.Info().Str("channel_id", channelID).Str("webhook", name).Msg("Created webhook")
	return webhookURL(h.ID, h.Token), nil
}

// SetPresence shows activity as a game with the given status.
func (c *Client) SetPresence(_ context.Context, activity string, status presence.Status) error {
	return c.session.UpdateStatusComplex(discordgo.UpdateStatusData{
		Status: string(status),
		Activities: []*discordgo.Activity{
			{Name: activity, Type: discordgo.ActivityTypeGame},
		},
	})
}

// LookupMember finds a guild member by username and discriminator and returns their mention.
// It satisfies format.MemberLookup.
func (c *Client) LookupMember(name, discriminator string) (string, bool) {
	guild, err := c.session.State.Guild(c.guildID)
	if err != nil {
		return "", false
	}

	c.session.State.RLock()
	defer c.session.State.RUnlock()

	return findMember(guild.Members, name, discriminator)
}

func findMember(members []*discordgo.Member, name, discriminator string) (string, bool) {
	for _, m := range members {
		if m == nil || m.User == nil {
			continue
		}
		if m.User.Username == name && m.User.Discriminator == discriminator {
			return m.User.Mention(), true
		}
	}
	return "", false
}

// classify maps a 403 to ErrPermission.
func classify(err error, op string) error {
	if isForbidden(err) {
		return errs.Wrap(errs.ErrPermission, fmt.Errorf("%s: %w", op, err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

func isForbidden(err error) bool {
	var restErr *discordgo.RESTError
	return errors.As(err, &restErr) && restErr.Response != nil && restErr.Response.StatusCode == http.StatusForbidden
}

func webhookURL(id, token string) string {
	return "https://discord.com/api/webhooks/" + id + "/" + token
}

// parseWebhookURL extracts the id and token from .../webhooks/{id}/{token}.
func parseWebhookURL(raw string) (id, token string, err error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", "", fmt.Errorf("invalid webhook url: %w", err)
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i, p := range parts {
		if p == "webhooks" && i+2 < len(parts) && parts[i+1] != "" && parts[i+2] != "" {
			return parts[i+1], parts[i+2], nil
		}
	}
	return "", "", fmt.Errorf("invalid webhook url: %q has no webhooks/{id}/{token} path", raw)
}
