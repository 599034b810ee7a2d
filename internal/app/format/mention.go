package format

import (
	"strings"

	"github.com/rs/zerolog"
)

const discriminatorLength = 4

// MemberLookup finds a platform member by name and 4-digit discriminator and
// returns the member's mention token.
type MemberLookup func(name, discriminator string) (mention string, ok bool)

// MentionResolver rewrites the first @name#1234 run in a message into a platform mention.
type MentionResolver struct {
	lookup MemberLookup
	logger zerolog.Logger
}

// NewMentionResolver returns a resolver backed by lookup. A nil lookup resolves nothing.
func NewMentionResolver(lookup MemberLookup, logger zerolog.Logger) *MentionResolver {
	return &MentionResolver{lookup: lookup, logger: logger}
}

// Resolve returns text with the first @name#1234 run replaced by a mention token.
// Malformed runs and unknown members leave text unchanged; the miss is only logged.
func (r *MentionResolver) Resolve(text string) string {
	at := strings.IndexByte(text, '@')
	if at < 0 || r == nil || r.lookup == nil {
		return text
	}

	before, after := text[:at], text[at+1:]

	hash := strings.IndexByte(after, '#')
	if hash < 0 || len(after)-hash-1 < discriminatorLength {
		r.logger.Info().Str("message", text).Msg("Could not find user in message")
		return text
	}

	name := after[:hash]
	discriminator := after[hash+1 : hash+1+discriminatorLength]
	rest := after[hash+1+discriminatorLength:]

	if !isDigits(discriminator) {
		r.logger.Info().Str("message", text).Msg("Could not find user in message")
		return text
	}

	mention, ok := r.lookup(name, discriminator)
	if !ok {
		r.logger.Info().
			Str("name", name).
			Str("discriminator", discriminator).
			Msg("Mentioned user not found")
		return text
	}

	return before + mention + rest
}

func isDigits(s string) bool {
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return s != ""
}
