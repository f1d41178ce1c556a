// Package session holds the proxy's per-instance state: the Session struct
// itself, the explicit lifecycle state machine, the capability record, the
// saved launch parameters, the child-session configuration, and the event
// and notification buffers described in spec.md §3.
package session

import (
	"encoding/json"
	"sync"

	"github.com/google/go-dap"
	"github.com/sirupsen/logrus"

	"github.com/dev-console/dap-proxy/internal/breakpoint"
	"github.com/dev-console/dap-proxy/internal/buffers"
	"github.com/dev-console/dap-proxy/internal/transport"
)

// State is the explicit lifecycle state machine named in spec.md §9,
// replacing a scattered set of booleans ("initialized", "deferred
// configurationDone") with one authoritative value.
type State int

const (
	// StateUnlaunched is the state before any launch/attach has begun.
	StateUnlaunched State = iota
	// StateInitializing covers the handshake between spawn and the
	// initialize response being parsed.
	StateInitializing
	// StateChildPendingConfig is entered after the parent's
	// configurationDone while waiting (up to 15s) for a startDebugging
	// reverse request.
	StateChildPendingConfig
	// StateDeferredConfigDone is entered when a child session's
	// configurationDone has been withheld pending the first run(continue).
	StateDeferredConfigDone
	// StateRunning is the state from a successful configurationDone (or
	// deferred-config release) until terminate/disconnect.
	StateRunning
	// StateTerminated is entered on a terminated event or explicit teardown.
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateUnlaunched:
		return "unlaunched"
	case StateInitializing:
		return "initializing"
	case StateChildPendingConfig:
		return "child_pending_config"
	case StateDeferredConfigDone:
		return "deferred_config_done"
	case StateRunning:
		return "running"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// Notification is one outward-facing (method, payload) pair queued by the
// event classifier and drained by the caller.
type Notification struct {
	Method  string
	Payload json.RawMessage
}

// OutputEntry is one captured (category, text) pair from an "output" event.
type OutputEntry struct {
	Category string
	Text     string
}

// ProgressState tracks one in-flight progress report between
// progressStart/progressUpdate/progressEnd events.
type ProgressState struct {
	Title      string
	Message    string
	Percentage *float64
}

// MemoryChangedEvent records one "memory" event.
type MemoryChangedEvent struct {
	MemoryReference string
	Offset          int
	Count           int
}

// InvalidatedEvent records one "invalidated" event.
type InvalidatedEvent struct {
	Areas        []string
	StackFrameID *int
}

// SavedLaunchParams holds the most recent successful launch's parameters,
// replaced atomically at each launch and consulted during restart.
type SavedLaunchParams struct {
	Program     string
	Args        []string
	StopOnEntry bool
	Cwd         string
	Extras      json.RawMessage
	AdapterArgv []string
}

// ChildSessionConfig holds state for the startDebugging child-session
// pattern (spec.md §4.8.2-§4.8.4).
type ChildSessionConfig struct {
	// Pending is the captured startDebugging configuration, non-nil only
	// between the reverse request and connectChildSession consuming it.
	Pending json.RawMessage
	// Port is the TCP port the parent adapter announced; child sessions
	// connect to the same port.
	Port int
	// DeferredConfigurationDone is true when configurationDone has been
	// withheld for a child session that opted into stop-on-entry.
	DeferredConfigurationDone bool
}

const (
	notificationCapacity = 4096
	outputCapacity       = 4096
)

// Session is the single state container a proxy instance owns: sequence
// counter, stop-state caches, capability record, registries, transport, and
// every buffer named in spec.md §3. It is owned by exactly one logical
// thread at a time (spec.md §5); the Notification queue is the only
// exception, and is internally synchronized by buffers.RingBuffer.
type Session struct {
	Logger logrus.FieldLogger

	State State

	seq         int
	ThreadID    int
	TopFrameID  int
	FrameIDs    []int
	Initialized bool

	Capabilities dap.Capabilities

	Registry *breakpoint.Registry

	SavedLaunch SavedLaunchParams
	ChildConfig ChildSessionConfig

	Transport *transport.Transport

	// ReadBuf holds unconsumed transport input; session-private.
	ReadBuf []byte

	// bufferedEvents holds decoded events seen while a prior waitForEvent
	// call was waiting for a different name; session-private.
	bufferedEventsMu sync.Mutex
	bufferedEvents   []dap.Message

	notifications *buffers.RingBuffer[Notification]
	output        *buffers.RingBuffer[OutputEntry]

	Progress          map[string]*ProgressState
	MemoryEvents      []MemoryChangedEvent
	InvalidatedEvents []InvalidatedEvent
	LoadedModules     []string
}

// New returns a freshly initialized, unlaunched Session.
func New(logger logrus.FieldLogger) *Session {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		Logger:        logger,
		State:         StateUnlaunched,
		seq:           0,
		Registry:      breakpoint.NewRegistry(),
		Transport:     transport.None(),
		notifications: buffers.NewRingBuffer[Notification](notificationCapacity),
		output:        buffers.NewRingBuffer[OutputEntry](outputCapacity),
		Progress:      make(map[string]*ProgressState),
	}
}

// NextSeq increments and returns the session's monotonic sequence counter.
// The first call after New or Reset returns 1.
func (s *Session) NextSeq() int {
	s.seq++
	return s.seq
}

// Reset zeroes the sequence counter, read buffer, and buffered-events queue.
// Used on child-session swap and emulated restart (spec.md §8 invariant:
// "resets to 1 on child-session swap and on emulated restart"). The
// breakpoint registry and saved launch parameters are untouched.
func (s *Session) Reset() {
	s.seq = 0
	s.ReadBuf = nil
	s.bufferedEventsMu.Lock()
	s.bufferedEvents = nil
	s.bufferedEventsMu.Unlock()
	s.ThreadID = 0
	s.TopFrameID = 0
	s.FrameIDs = nil
}

// EnqueueNotification marshals payload and appends a notification. Marshal
// failure is reported to the caller rather than silently dropped, since a
// bad payload would otherwise silently vanish from the drained queue.
func (s *Session) EnqueueNotification(method string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	s.notifications.WriteOne(Notification{Method: method, Payload: raw})
	return nil
}

// DrainNotifications atomically returns and clears every pending
// notification, transferring ownership of their payloads to the caller.
func (s *Session) DrainNotifications() []Notification {
	all := s.notifications.ReadAll()
	s.notifications.Clear()
	return all
}

// AppendOutput appends one (category, text) pair to the output buffer.
func (s *Session) AppendOutput(category, text string) {
	s.output.WriteOne(OutputEntry{Category: category, Text: text})
}

// TakeOutput atomically returns and clears the buffered output, for
// attaching to a run() result (spec.md §4.8.5).
func (s *Session) TakeOutput() []OutputEntry {
	all := s.output.ReadAll()
	s.output.Clear()
	return all
}

// BufferEvent appends ev to the cross-request event queue (spec.md §3 event
// buffer (b)). The correlator calls it only for events seen during a
// waitForEvent wait that don't match the sought name; events seen during a
// sendRequest wait are not buffered.
func (s *Session) BufferEvent(ev dap.Message) {
	s.bufferedEventsMu.Lock()
	defer s.bufferedEventsMu.Unlock()
	s.bufferedEvents = append(s.bufferedEvents, ev)
}

// TakeBufferedEvent removes and returns the first buffered event whose
// Event name matches name, if any.
func (s *Session) TakeBufferedEvent(name string) (dap.Message, bool) {
	s.bufferedEventsMu.Lock()
	defer s.bufferedEventsMu.Unlock()
	for i, ev := range s.bufferedEvents {
		em, ok := ev.(dap.EventMessage)
		if !ok {
			continue
		}
		if em.GetEvent().Event == name {
			s.bufferedEvents = append(s.bufferedEvents[:i], s.bufferedEvents[i+1:]...)
			return ev, true
		}
	}
	return nil, false
}

// SetFrames caches a fresh stack trace's frame ids, position 0 = topmost.
func (s *Session) SetFrames(ids []int) {
	s.FrameIDs = ids
	if len(ids) > 0 {
		s.TopFrameID = ids[0]
	}
}

// ResolveFrameID translates a 0-based caller-facing frame index into the
// adapter's opaque frame id (spec.md §4.8.9): the id at that index, or the
// cached topmost id if out of range, or an error if no stack is cached.
func (s *Session) ResolveFrameID(index int) (int, bool) {
	if len(s.FrameIDs) == 0 {
		return 0, false
	}
	if index < 0 || index >= len(s.FrameIDs) {
		return s.TopFrameID, true
	}
	return s.FrameIDs[index], true
}
