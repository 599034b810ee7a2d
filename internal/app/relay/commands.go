package relay

import (
	"context"
	"fmt"

	"neoslink/internal/app/user"
	"neoslink/internal/pkg/errs"
	"neoslink/internal/pkg/metrics"
)

// Caller is the platform member who invoked a slash command.
type Caller struct {
	ID        string
	Username  string
	Nickname  string
	AvatarURL string
}

// DisplayName is the guild nickname, falling back to the username.
func (c Caller) DisplayName() string {
	if c.Nickname != "" {
		return c.Nickname
	}
	return c.Username
}

// Link registers caller under externalID and returns the command reply.
// A persistence failure still registers the caller for this run and is returned for logging.
func (c *Core) Link(ctx context.Context, caller Caller, externalID string) (string, error) {
	err := c.users.Register(ctx, externalID, user.User{
		DiscordID:   user.Snowflake(caller.ID),
		DisplayName: caller.DisplayName(),
		AvatarURL:   caller.AvatarURL,
	})

	if errs.HasCode(err, errs.ErrBadFormat) {
		c.logger.Info().
			Str("caller", caller.Username).
			Str("external_id", externalID).
			Msg("Did not add user to registered players due to incorrect formatting")
		return fmt.Sprintf("Did not Add %s : %s to registered players due to incorrect formatting. \n Needs to start with U-", caller.Username, externalID), err
	}

	metrics.SetRegisteredUsers(c.users.Len())
	return fmt.Sprintf("Added %s to the known players list.", caller.Username), err
}

// ChangeChannel moves the link to channelID and returns the command reply.
// The old channel is told about the move. Impersonation follows the webhook found in
// the new channel and is turned off when none can be resolved.
func (c *Core) ChangeChannel(ctx context.Context, channelID, channelName string) string {
	webhookURL, err := c.platform.EnsureWebhook(ctx, channelID, c.webhookName)
	switch {
	case errs.HasCode(err, errs.ErrPermission):
		metrics.PlatformErrors.WithLabelValues("webhook").Inc()
		c.logger.Error().Err(err).Str("channel_id", channelID).Msg("Don't have manage webhook permission")
		webhookURL = ""
	case err != nil:
		metrics.PlatformErrors.WithLabelValues("webhook").Inc()
		c.logger.Error().Err(err).Str("channel_id", channelID).Msg("Failed to resolve webhook")
		webhookURL = ""
	}

	reply := "Changed Neos Link Channel to " + channelName

	if err := c.platform.SendChannelMessage(ctx, c.LinkChannel(), reply); err != nil {
		metrics.PlatformErrors.WithLabelValues("send").Inc()
		c.logger.Error().Err(err).Msg("Failed to announce channel change")
	}

	c.mu.Lock()
	c.channelID = channelID
	c.webhookURL = webhookURL
	c.mu.Unlock()

	c.logger.Info().
		Str("channel_id", channelID).
		Str("channel_name", channelName).
		Bool("impersonating", webhookURL != "").
		Msg("Changing channel")

	return reply
}
