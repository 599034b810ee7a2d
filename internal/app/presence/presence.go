/*
Package presence derives the bot's displayed status and activity from the number of
connected link clients.

While no client is connected the idle status is pushed on the first empty tick and then
only on every tenth, so an empty bridge does not call the platform every minute.
*/
package presence

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"neoslink/internal/pkg/logx"
	"neoslink/internal/pkg/metrics"
)

// idleRefreshTicks is the number of empty ticks between idle updates.
const idleRefreshTicks = 10

// Status is the online state shown for the bot.
type Status string

// Bot statuses used by the controller.
const (
	StatusOnline Status = "online"
	StatusIdle   Status = "idle"
)

// Presenter pushes the bot's presence to the chat platform.
type Presenter interface {
	SetPresence(ctx context.Context, activity string, status Status) error
}

// Counter reports the number of live sessions.
type Counter interface {
	Count() int
}

// Controller periodically mirrors the session count into the bot's presence.
type Controller struct {
	presenter Presenter
	sessions  Counter

	interval     time.Duration
	startupDelay time.Duration

	// idleTicks counts consecutive ticks with no sessions. Only Run's goroutine touches it.
	idleTicks int

	logger zerolog.Logger
}

// NewController builds a controller that ticks every interval after startupDelay.
func NewController(presenter Presenter, sessions Counter, interval, startupDelay time.Duration) *Controller {
	return &Controller{
		presenter:    presenter,
		sessions:     sessions,
		interval:     interval,
		startupDelay: startupDelay,
		logger:       logx.Component("Presence"),
	}
}

// Activity returns the activity text for n clients.
func Activity(n int) string {
	if n == 1 {
		return "with 1 client."
	}
	return fmt.Sprintf("with %d clients.", n)
}

// Run waits out the startup delay and then ticks until ctx is cancelled.
func (c *Controller) Run(ctx context.Context) error {
	c.logger.Info().
		Dur("startup_delay", c.startupDelay).
		Dur("interval", c.interval).
		Msg("Presence loop scheduled")

	select {
	case <-ctx.Done():
		return nil
	case <-time.After(c.startupDelay):
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		c.Tick(ctx)

		select {
		case <-ctx.Done():
			c.logger.Info().Msg("Presence loop stopped")
			return nil
		case <-ticker.C:
		}
	}
}

// Tick updates presence once from the current session count.
func (c *Controller) Tick(ctx context.Context) {
	n := c.sessions.Count()

	if n > 0 {
		c.idleTicks = 0
		c.push(ctx, Activity(n), StatusOnline)
		return
	}

	if c.idleTicks%idleRefreshTicks == 0 {
		c.push(ctx, Activity(0), StatusIdle)
	}
	c.idleTicks++
}

func (c *Controller) push(ctx context.Context, activity string, status Status) {
	if err := c.presenter.SetPresence(ctx, activity, status); err != nil {
		c.logger.Error().Err(err).Str("status", string(status)).Msg("Failed to update presence")
		metrics.PlatformErrors.WithLabelValues("presence").Inc()
		return
	}

	metrics.PresenceUpdates.WithLabelValues(string(status)).Inc()
	c.logger.Debug().Str("status", string(status)).Str("activity", activity).Msg("Presence updated")
}
