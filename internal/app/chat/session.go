package chat

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"neoslink/internal/pkg/errs"
	"neoslink/internal/pkg/logx"
	"neoslink/internal/pkg/randx"
)

// sendQueueSize bounds the lines waiting for one session's writer.
const sendQueueSize = 256

// State is the lifecycle stage of a Session.
type State int32

// Session states. A session only moves forward.
const (
	StateConnecting State = iota
	StateActive
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateActive:
		return "active"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}

// Session is one connected link client.
type Session struct {
	// ID is unique among live sessions.
	ID string

	conn Conn

	// send queues lines for WritePump. It is never closed; done signals shutdown.
	send chan string

	done      chan struct{}
	closeOnce sync.Once

	state    atomic.Int32
	lastSeen atomic.Int64

	logger zerolog.Logger
}

// NewSession wraps conn in a Connecting session with a fresh ID.
func NewSession(conn Conn) *Session {
	id := randx.SessionID()

	s := &Session{
		ID:     id,
		conn:   conn,
		send:   make(chan string, sendQueueSize),
		done:   make(chan struct{}),
		logger: logx.Logger().With().Str("session_id", id).Logger(),
	}
	s.touch()

	return s
}

// State returns the current lifecycle stage.
func (s *Session) State() State {
	return State(s.state.Load())
}

// LastSeen is the time of the last line read from the client.
func (s *Session) LastSeen() time.Time {
	return time.Unix(0, s.lastSeen.Load())
}

// Done is closed once the session is closed.
func (s *Session) Done() <-chan struct{} {
	return s.done
}

func (s *Session) touch() {
	s.lastSeen.Store(time.Now().UnixNano())
}

func (s *Session) activate() {
	s.state.CompareAndSwap(int32(StateConnecting), int32(StateActive))
}

// Enqueue queues lines for delivery without blocking.
// A full queue closes the session and returns ErrTransport.
func (s *Session) Enqueue(lines ...string) error {
	for _, line := range lines {
		if s.State() == StateClosed {
			return errs.NewError(errs.ErrSessionClosed)
		}

		select {
		case s.send <- line:
		default:
			s.logger.Warn().Int("queue_len", len(s.send)).Msg("Session send queue full, closing session.")
			s.Close()
			return errs.NewError(errs.ErrTransport)
		}
	}
	return nil
}

// Close marks the session closed and closes its connection. It is idempotent.
func (s *Session) Close() {
	s.closeOnce.Do(func() {
		s.state.Store(int32(StateClosed))
		close(s.done)

		if err := s.conn.Close(); err != nil {
			s.logger.Debug().Err(err).Msg("Session connection close error")
		}
	})
}

// WritePump drains the send queue onto the connection and pings the client on a timer.
// Any write failure closes the session.
func (s *Session) WritePump() {
	ticker := time.NewTicker(pingPeriod)

	defer func() {
		ticker.Stop()
		s.Close()
	}()

	for {
		select {
		case <-s.done:
			return

		case line := <-s.send:
			if err := s.conn.WriteText(line); err != nil {
				s.logger.Debug().Err(err).Msg("Error writing message")
				return
			}

		case <-ticker.C:
			if err := s.conn.Ping(); err != nil {
				s.logger.Debug().Err(err).Msg("Error writing ping")
				return
			}
		}
	}
}

// ReadPump delivers each received line to onLine until the connection fails.
// It returns the read error that ended the loop.
func (s *Session) ReadPump(onLine func(line string)) error {
	for {
		line, err := s.conn.ReadText()
		if err != nil {
			return err
		}

		s.touch()
		onLine(line)
	}
}

// probe checks liveness with a ping.
func (s *Session) probe() error {
	if s.State() == StateClosed {
		return errs.NewError(errs.ErrSessionClosed)
	}
	if err := s.conn.Ping(); err != nil {
		return errs.Wrap(errs.ErrTransport, err)
	}
	return nil
}
