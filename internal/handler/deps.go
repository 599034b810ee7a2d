package handler

import (
	"context"

	"neoslink/internal/app/chat"
	"neoslink/internal/app/relay"
	"neoslink/internal/configs"
)

// Bridge is the relay as seen by the HTTP layer.
type Bridge interface {
	Attach(ctx context.Context, s *chat.Session)
	Status() relay.Status
}

// AppDeps carries everything the handlers need.
type AppDeps struct {
	Bridge Bridge
	Config *configs.AppConfig
}
