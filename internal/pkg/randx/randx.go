/*
Package randx provides identifier generation for link-client sessions.

Session IDs are standard UUID v4 strings; the WebSocket transport exposes no
connection identifier of its own.
*/
package randx

import (
	"github.com/google/uuid"
)

// SessionID generates a standard UUID v4 string to identify one client session.
func SessionID() string {
	return uuid.New().String()
}
