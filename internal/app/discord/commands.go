package discord

import (
	"github.com/bwmarrin/discordgo"

	"neoslink/internal/app/relay"
)

// Slash command names.
const (
	commandLink          = "neos_link"
	commandChangeChannel = "change_channel"

	optionUsername = "username"
)

var commands = []*discordgo.ApplicationCommand{
	{
		Name:        commandLink,
		Description: "Command to Link your discord account to a Neos Username.",
		Options: []*discordgo.ApplicationCommandOption{
			{
				Type:        discordgo.ApplicationCommandOptionString,
				Name:        optionUsername,
				Description: "Your NeosVR Username to link to.",
				Required:    true,
			},
		},
	},
	{
		Name:        commandChangeChannel,
		Description: "Command to change the channel that the NeosVR bot talks in.",
	},
}

func (c *Client) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	ctx, r := c.handlerContext()
	if r == nil {
		return
	}

	data := i.ApplicationCommandData()

	var reply string
	switch data.Name {
	case commandLink:
		caller := callerOf(i.Interaction)
		var err error
		reply, err = r.Link(ctx, caller, stringOption(data.Options, optionUsername))
		if err != nil {
			c.logger.Info().Err(err).Str("caller", caller.Username).Msg("Link command did not fully succeed")
		}

	case commandChangeChannel:
		reply = r.ChangeChannel(ctx, i.ChannelID, c.channelName(i.ChannelID))

	default:
		c.logger.Warn().Str("command", data.Name).Msg("Unknown slash command")
		return
	}

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{Content: reply},
	}, discordgo.WithContext(ctx))
	if err != nil {
		c.logger.Error().Err(err).Str("command", data.Name).Msg("Failed to respond to slash command")
	}
}

// channelName returns the channel's name from state or the API, falling back to its id.
func (c *Client) channelName(channelID string) string {
	if ch, err := c.session.State.Channel(channelID); err == nil {
		return ch.Name
	}
	if ch, err := c.session.Channel(channelID); err == nil {
		return ch.Name
	}
	return channelID
}

// callerOf identifies the member who invoked i. Guild interactions carry Member, DMs carry User.
func callerOf(i *discordgo.Interaction) relay.Caller {
	var (
		u    *discordgo.User
		nick string
	)
	if i.Member != nil {
		u = i.Member.User
		nick = i.Member.Nick
	}
	if u == nil {
		u = i.User
	}
	if u == nil {
		return relay.Caller{Nickname: nick}
	}

	return relay.Caller{
		ID:        u.ID,
		Username:  u.Username,
		Nickname:  nick,
		AvatarURL: u.AvatarURL(""),
	}
}

func stringOption(opts []*discordgo.ApplicationCommandInteractionDataOption, name string) string {
	for _, o := range opts {
		if o != nil && o.Name == name && o.Type == discordgo.ApplicationCommandOptionString {
			return o.StringValue()
		}
	}
	return ""
}
