package format

import (
	"testing"

	"github.com/rs/zerolog"
)

func aliceLookup(name, discriminator string) (string, bool) {
	if name == "alice" && discriminator == "1234" {
		return "<@42>", true
	}
	return "", false
}

func TestMentionResolver_Resolve(t *testing.T) {
	r := NewMentionResolver(aliceLookup, zerolog.Nop())

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"no mention", "hello there", "hello there"},
		{"mention mid sentence", "hi @alice#1234 how are you", "hi <@42> how are you"},
		{"mention only", "@alice#1234", "<@42>"},
		{"trailing text kept", "@alice#1234!", "<@42>!"},
		{"unknown member", "hi @bob#1234", "hi @bob#1234"},
		{"short discriminator", "hi @alice#12", "hi @alice#12"},
		{"non digit discriminator", "hi @alice#12ab", "hi @alice#12ab"},
		{"no hash", "mail me @ home", "mail me @ home"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.in); got != tt.want {
				t.Errorf("Resolve(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestMentionResolver_NilSafe(t *testing.T) {
	var r *MentionResolver
	if got := r.Resolve("@alice#1234"); got != "@alice#1234" {
		t.Errorf("nil resolver changed text: %q", got)
	}

	noLookup := NewMentionResolver(nil, zerolog.Nop())
	if got := noLookup.Resolve("@alice#1234"); got != "@alice#1234" {
		t.Errorf("resolver without lookup changed text: %q", got)
	}
}
