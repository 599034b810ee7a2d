package discord

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/bwmarrin/discordgo"

	"neoslink/internal/app/format"
	"neoslink/internal/pkg/errs"
)

func TestParseWebhookURL(t *testing.T) {
	tests := []struct {
		raw       string
		wantID    string
		wantToken string
		wantErr   bool
	}{
		{"https://discord.com/api/webhooks/123/abc-DEF", "123", "abc-DEF", false},
		{"https://discord.com/api/v10/webhooks/456/tok/", "456", "tok", false},
		{"https://discord.com/api/webhooks/123", "", "", true},
		{"https://example.com/hooks/1/2", "", "", true},
		{"://bad", "", "", true},
	}

	for _, tt := range tests {
		id, token, err := parseWebhookURL(tt.raw)
		if (err != nil) != tt.wantErr {
			t.Errorf("parseWebhookURL(%q) err = %v, wantErr %v", tt.raw, err, tt.wantErr)
			continue
		}
		if id != tt.wantID || token != tt.wantToken {
			t.Errorf("parseWebhookURL(%q) = (%q, %q), want (%q, %q)", tt.raw, id, token, tt.wantID, tt.wantToken)
		}
	}

	id, token, err := parseWebhookURL(webhookURL("9", "t"))
	if err != nil || id != "9" || token != "t" {
		t.Errorf("round trip = (%q, %q, %v)", id, token, err)
	}
}

func TestPresenceOf(t *testing.T) {
	tests := map[discordgo.Status]format.Presence{
		discordgo.StatusOnline:       format.PresenceOnline,
		discordgo.StatusIdle:         format.PresenceIdle,
		discordgo.StatusDoNotDisturb: format.PresenceDND,
		discordgo.StatusOffline:      format.PresenceOffline,
		discordgo.StatusInvisible:    format.PresenceOffline,
		"":                           "",
	}
	for in, want := range tests {
		if got := presenceOf(in); got != want {
			t.Errorf("presenceOf(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestToChannelMessage(t *testing.T) {
	m := &discordgo.Message{
		Content: "hello",
		Author:  &discordgo.User{ID: "5", Username: "bob"},
		Attachments: []*discordgo.MessageAttachment{
			{URL: "https://cdn.example/a.png", ProxyURL: "https://media.example/a.png"},
			{URL: "https://cdn.example/b.png"},
		},
	}

	got := toChannelMessage(m, &discordgo.Member{Nick: "Bobby"}, discordgo.StatusIdle, "99")

	if got.AuthorName != "Bobby" || got.Presence != format.PresenceIdle || got.Body != "hello" || got.FromBridge {
		t.Errorf("message = %+v", got)
	}
	if len(got.AttachmentURLs) != 2 || got.AttachmentURLs[0] != "https://media.example/a.png" || got.AttachmentURLs[1] != "https://cdn.example/b.png" {
		t.Errorf("attachments = %v", got.AttachmentURLs)
	}

	lines := format.FormatChannelEvent(got, "")
	if lines[0] != "¦ahttps://media.example/a.png" || lines[1] != "+ Bobby (Idle) - hello" {
		t.Errorf("formatted = %q", lines)
	}
}

func TestToChannelMessage_BotAndUnknownPresence(t *testing.T) {
	own := toChannelMessage(&discordgo.Message{Content: "Changed", Author: &discordgo.User{ID: "99", Username: "bridge"}}, nil, "", "99")
	if !own.FromBridge {
		t.Error("bot-authored message not flagged")
	}

	other := toChannelMessage(&discordgo.Message{Content: "hi", Author: &discordgo.User{ID: "1", Username: "carol"}}, nil, "", "99")
	if other.FromBridge || other.AuthorName != "carol" || other.Presence != "" {
		t.Errorf("message = %+v", other)
	}
	if lines := format.FormatChannelEvent(other, ""); lines[0] != "carol - hi" {
		t.Errorf("formatted = %q", lines)
	}
}

func TestToChannelMessage_MemberWithoutPresenceIsOffline(t *testing.T) {
	author := &discordgo.User{ID: "1", Username: "bob"}
	msg := toChannelMessage(&discordgo.Message{Content: "hi", Author: author}, &discordgo.Member{User: author}, "", "99")

	if msg.Presence != format.PresenceOffline {
		t.Errorf("Presence = %q, want %q", msg.Presence, format.PresenceOffline)
	}
	if lines := format.FormatChannelEvent(msg, ""); lines[0] != "bob (off) - hi" {
		t.Errorf("formatted = %q", lines)
	}

	online := toChannelMessage(&discordgo.Message{Content: "hi", Author: author}, &discordgo.Member{User: author}, discordgo.StatusOnline, "99")
	if online.Presence != format.PresenceOnline {
		t.Errorf("cached presence overridden: %q", online.Presence)
	}
}

func TestCallerOf(t *testing.T) {
	guild := callerOf(&discordgo.Interaction{
		Member: &discordgo.Member{Nick: "Dee", User: &discordgo.User{ID: "1", Username: "dee"}},
	})
	if guild.ID != "1" || guild.Username != "dee" || guild.DisplayName() != "Dee" || guild.AvatarURL == "" {
		t.Errorf("guild caller = %+v", guild)
	}

	dm := callerOf(&discordgo.Interaction{User: &discordgo.User{ID: "2", Username: "eve"}})
	if dm.ID != "2" || dm.DisplayName() != "eve" {
		t.Errorf("dm caller = %+v", dm)
	}
}

func TestStringOption(t *testing.T) {
	opts := []*discordgo.ApplicationCommandInteractionDataOption{
		{Name: optionUsername, Type: discordgo.ApplicationCommandOptionString, Value: "U-frank"},
	}
	if got := stringOption(opts, optionUsername); got != "U-frank" {
		t.Errorf("stringOption = %q", got)
	}
	if got := stringOption(nil, optionUsername); got != "" {
		t.Errorf("missing option = %q", got)
	}
}

func TestFindMember(t *testing.T) {
	members := []*discordgo.Member{
		{User: &discordgo.User{ID: "10", Username: "gina", Discriminator: "0001"}},
		{User: &discordgo.User{ID: "11", Username: "gina", Discriminator: "0002"}},
		nil,
	}

	mention, ok := findMember(members, "gina", "0002")
	if !ok || mention != "<@11>" {
		t.Errorf("findMember = (%q, %v), want (<@11>, true)", mention, ok)
	}
	if _, ok := findMember(members, "gina", "0003"); ok {
		t.Error("unexpected match")
	}
}

func TestClassify(t *testing.T) {
	forbidden := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusForbidden}}
	if err := classify(forbidden, "create webhook"); !errs.HasCode(err, errs.ErrPermission) {
		t.Errorf("403 classified as %v, want ErrPermission", err)
	}

	other := fmt.Errorf("wrapped: %w", &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusBadGateway}})
	if err := classify(other, "list webhooks"); errs.HasCode(err, errs.ErrPermission) {
		t.Errorf("502 classified as permission error")
	}

	if isForbidden(errors.New("plain")) {
		t.Error("plain error reported as forbidden")
	}
}

func TestCommands(t *testing.T) {
	names := map[string]bool{}
	for _, c := range commands {
		names[c.Name] = true
	}
	if !names[commandLink] || !names[commandChangeChannel] {
		t.Errorf("registered commands = %v", names)
	}
	if opt := commands[0].Options[0]; !opt.Required || opt.Name != optionUsername {
		t.Errorf("link option = %+v", opt)
	}
}
