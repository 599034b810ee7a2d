// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Relay directions used as the "direction" label.
const (
	DirectionToClients = "to_clients"
	DirectionToChannel = "to_channel"
)

var (
	// SessionsActive is the number of link-client sessions currently registered.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "neoslink_sessions_active",
		Help: "Number of link client sessions currently registered",
	})

	// SessionsEvicted counts sessions removed by a liveness sweep.
	SessionsEvicted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neoslink_sessions_evicted_total",
		Help: "Number of sessions evicted after a failed write or probe",
	})

	// MessagesRelayed counts messages carried across the bridge.
	MessagesRelayed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neoslink_messages_relayed_total",
		Help: "Number of messages relayed, by direction",
	}, []string{"direction"})

	// ParseFailures counts client lines dropped as malformed.
	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neoslink_parse_failures_total",
		Help: "Number of malformed client lines dropped",
	})

	// UnverifiedRejected counts client lines from senders missing in the registry.
	UnverifiedRejected = promauto.NewCounter(prometheus.CounterOpts{
		Name: "neoslink_unverified_rejected_total",
		Help: "Number of client lines rejected because the sender is not registered",
	})

	// PlatformErrors counts failed chat platform calls.
	PlatformErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neoslink_platform_errors_total",
		Help: "Number of failed chat platform calls, by operation",
	}, []string{"op"})

	// RegisteredUsers is the size of the registered-user mapping.
	RegisteredUsers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "neoslink_registered_users",
		Help: "Number of registered users",
	})

	// PresenceUpdates counts presence changes pushed to the platform, by status.
	PresenceUpdates = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "neoslink_presence_updates_total",
		Help: "Number of presence updates sent, by status",
	}, []string{"status"})
)

// SetSessions records the current session count.
func SetSessions(n int) { SessionsActive.Set(float64(n)) }

// SetRegisteredUsers records the current registry size.
func SetRegisteredUsers(n int) { RegisteredUsers.Set(float64(n)) }
