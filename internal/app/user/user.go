/*
Package user contains the registered-user identity model and the registry that owns it.

A registered user binds an external world identity (an ID starting with "U-") to a chat
platform display identity. The Registry is the single writer of that mapping and persists
the whole map through a Store after every registration.
*/
package user

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// ExternalIDPrefix is the prefix every world user identifier must carry.
const ExternalIDPrefix = "U-"

// User is the chat platform identity registered for one external ID.
// Field tags match the registered_users.json file format.
type User struct {

	// DiscordID is the chat platform user id of the person who linked the account.
	DiscordID Snowflake `json:"id"`

	// DisplayName is the guild nickname, or the username when no nickname was set.
	DisplayName string `json:"discord_username"`

	// AvatarURL is used as the avatar for impersonated posts.
	AvatarURL string `json:"avatar_url"`
}

// Snowflake is a platform id. It decodes from a JSON string or number, since
// older registry files stored the id as a number, and always encodes as a string.
type Snowflake string

// UnmarshalJSON accepts "123" and 123.
func (s *Snowflake) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var str string
		if err := json.Unmarshal(data, &str); err != nil {
			return err
		}
		*s = Snowflake(str)
		return nil
	}

	if bytes.Equal(data, []byte("null")) {
		*s = ""
		return nil
	}

	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("snowflake must be a string or number: %w", err)
	}
	if _, err := strconv.ParseUint(n.String(), 10, 64); err != nil {
		return fmt.Errorf("snowflake %s is not an unsigned integer: %w", n, err)
	}
	*s = Snowflake(n.String())
	return nil
}
