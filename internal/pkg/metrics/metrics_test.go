package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSetSessions(t *testing.T) {
	SetSessions(3)
	if got := testutil.ToFloat64(SessionsActive); got != 3 {
		t.Errorf("SessionsActive = %v, want 3", got)
	}

	SetSessions(0)
	if got := testutil.ToFloat64(SessionsActive); got != 0 {
		t.Errorf("SessionsActive = %v, want 0", got)
	}
}

func TestMessagesRelayedByDirection(t *testing.T) {
	before := testutil.ToFloat64(MessagesRelayed.WithLabelValues(DirectionToChannel))

	MessagesRelayed.WithLabelValues(DirectionToChannel).Inc()
	MessagesRelayed.WithLabelValues(DirectionToChannel).Inc()

	if got := testutil.ToFloat64(MessagesRelayed.WithLabelValues(DirectionToChannel)); got != before+2 {
		t.Errorf("to_channel = %v, want %v", got, before+2)
	}
}

func TestCollectorsRegistered(t *testing.T) {
	if n := testutil.CollectAndCount(PresenceUpdates); n != 0 {
		t.Errorf("PresenceUpdates has %d series before use, want 0", n)
	}

	PresenceUpdates.WithLabelValues("idle").Inc()
	if n := testutil.CollectAndCount(PresenceUpdates); n != 1 {
		t.Errorf("PresenceUpdates series = %d, want 1", n)
	}
}
