// Package practice runs roleplay practice sessions: the per-tab state
// machine, the conversation engine, the session registry and the live
// WebSocket feed.
package practice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/ashureev/feedback-coach/internal/agent"
	"github.com/ashureev/feedback-coach/internal/domain"
	"github.com/ashureev/feedback-coach/internal/observability/metrics"
	"github.com/ashureev/feedback-coach/internal/scenario"
	"github.com/ashureev/feedback-coach/internal/store"
)

// State is the lifecycle position of a practice session.
type State string

// Session states.
const (
	StateIdle      State = "idle"
	StateActive    State = "active"
	StateCoaching  State = "coaching"
	StateCompleted State = "completed"
)

// Mode selects where scenarios come from.
type Mode string

// Scenario modes.
const (
	ModePreset Mode = "preset"
	ModeCustom Mode = "custom"
)

// Machine errors.
var (
	ErrNoScenario               = errors.New("no scenario selected")
	ErrIncompleteCustomScenario = errors.New("custom scenario requires employee name, context and issue")
	ErrInvalidTransition        = errors.New("invalid state transition")
	ErrNotActive                = errors.New("session is not active")
	ErrEmptyMessage             = errors.New("message is empty")
	ErrReplyInFlight            = errors.New("employee reply already in progress")
	ErrConfirmationRequired     = errors.New("regenerating discards the current conversation; confirmation required")
	ErrInvalidMode              = errors.New("mode must be preset or custom")
	ErrSessionReset             = errors.New("session was reset while the call was in progress")
	ErrReplyFailed              = errors.New("failed to get response from employee")
)

// ScenarioSource picks preset scenarios. *scenario.Catalog implements it.
type ScenarioSource interface {
	SelectRandom(d domain.Difficulty) (domain.Scenario, error)
	ResolveDifficulty(d domain.Difficulty) domain.Difficulty
}

// Deps are the collaborators shared by every machine.
type Deps struct {
	Scenarios       ScenarioSource
	Collaborator    agent.Collaborator
	Store           store.SessionStore
	Metrics         *metrics.Metrics
	ConversationLog agent.ConversationLogger
	Logger          *slog.Logger
	Now             func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.ConversationLog == nil {
		d.ConversationLog = agent.NopConversationLogger()
	}
	if d.Logger == nil {
		d.Logger = slog.Default()
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

// RegenerateOptions selects the next scenario.
type RegenerateOptions struct {
	Difficulty domain.Difficulty            `json:"difficulty"`
	Mode       Mode                         `json:"mode"`
	Custom     domain.CustomScenarioDetails `json:"custom"`
	Confirmed  bool                         `json:"confirmed"`
}

// Snapshot is an immutable view of a machine.
type Snapshot struct {
	ID             string                        `json:"id"`
	Version        uint64                        `json:"version"`
	State          State                         `json:"state"`
	Mode           Mode                          `json:"mode"`
	Difficulty     domain.Difficulty             `json:"difficulty"`
	Scenario       *domain.Scenario              `json:"scenario"`
	Custom         *domain.CustomScenarioDetails `json:"custom,omitempty"`
	Messages       []domain.Message              `json:"messages"`
	Typing         bool                          `json:"typing"`
	Coaching       *domain.CoachingResult        `json:"coaching"`
	SavedSessionID string                        `json:"savedSessionId,omitempty"`
	UpdatedAt      time.Time                     `json:"updatedAt"`
}

// Machine is one practice session. Mutations are serialized by mu;
// collaborator calls run outside it.
type Machine struct {
	id   string
	deps Deps

	mu         sync.Mutex
	state      State
	mode       Mode
	selector   domain.Difficulty
	scenario   *domain.Scenario
	custom     domain.CustomScenarioDetails
	messages   []domain.Message
	typing     bool
	inflight   chan struct{} // closed when the pending reply settles
	ending     bool
	coaching   *domain.CoachingResult
	savedID    string
	generation uint64 // bumped on every reset; stale results are dropped
	version    uint64
	touched    time.Time

	feed *feed
}

// NewMachine returns an idle machine with no scenario.
func NewMachine(id string, deps Deps) *Machine {
	deps = deps.withDefaults()
	return &Machine{
		id:       id,
		deps:     deps,
		state:    StateIdle,
		mode:     ModePreset,
		selector: domain.DifficultyBasic,
		messages: []domain.Message{},
		touched:  deps.Now(),
		feed:     newFeed(),
	}
}

// ID returns the machine identifier.
func (m *Machine) ID() string {
	return m.id
}

// Snapshot returns the current view.
func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshotLocked()
}

// LastActive reports when the machine was last mutated or read through the API.
func (m *Machine) LastActive() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.touched
}

// Busy reports whether a collaborator call is pending.
func (m *Machine) Busy() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.typing || m.ending
}

// Touch marks the machine as recently used.
func (m *Machine) Touch() {
	m.mu.Lock()
	m.touched = m.deps.Now()
	m.mu.Unlock()
}

func (m *Machine) snapshotLocked() Snapshot {
	snap := Snapshot{
		ID:             m.id,
		Version:        m.version,
		State:          m.state,
		Mode:           m.mode,
		Difficulty:     m.selector,
		Messages:       domain.CloneMessages(m.messages),
		Typing:         m.typing,
		SavedSessionID: m.savedID,
		UpdatedAt:      m.touched,
	}
	if m.scenario != nil {
		sc := *m.scenario
		snap.Scenario = &sc
	}
	if m.mode == ModeCustom {
		custom := m.custom
		snap.Custom = &custom
	}
	if m.coaching != nil {
		c := *m.coaching
		snap.Coaching = &c
	}
	return snap
}

// changedLocked records a mutation and returns the snapshot to publish.
func (m *Machine) changedLocked() Snapshot {
	m.version++
	m.touched = m.deps.Now()
	return m.snapshotLocked()
}

func (m *Machine) transitionLocked(to State) {
	from := m.state
	m.state = to
	m.deps.Metrics.ObserveTransition(string(from), string(to))
	m.deps.Logger.Debug("Practice transition", "practice_id", m.id, "from", from, "to", to)
}

// Regenerate picks a new scenario and resets to idle. Discarding a live
// conversation requires opts.Confirmed.
func (m *Machine) Regenerate(opts RegenerateOptions) (Snapshot, error) {
	mode := opts.Mode
	if mode == "" {
		mode = ModePreset
	}
	if mode != ModePreset && mode != ModeCustom {
		return m.Snapshot(), ErrInvalidMode
	}
	if opts.Difficulty != "" && !opts.Difficulty.IsConcrete() && opts.Difficulty != domain.DifficultyRandom {
		return m.Snapshot(), domain.ErrInvalidDifficulty
	}

	m.mu.Lock()
	if (m.state == StateActive || m.state == StateCoaching) && len(m.messages) > 0 && !opts.Confirmed {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrConfirmationRequired
	}

	selector := m.selector
	if opts.Difficulty != "" {
		selector = opts.Difficulty
	}

	var next domain.Scenario
	if mode == ModeCustom {
		next = scenario.BuildCustom(opts.Custom, m.deps.Scenarios.ResolveDifficulty(selector))
	} else {
		sc, err := m.deps.Scenarios.SelectRandom(selector)
		if err != nil {
			snap := m.snapshotLocked()
			m.mu.Unlock()
			return snap, fmt.Errorf("select scenario: %w", err)
		}
		next = sc
	}

	m.generation++
	m.mode = mode
	m.selector = selector
	m.custom = opts.Custom
	m.scenario = &next
	m.messages = []domain.Message{}
	m.typing = false
	m.inflight = nil
	m.ending = false
	m.coaching = nil
	m.savedID = ""
	if m.state != StateIdle {
		m.transitionLocked(StateIdle)
	}
	snap := m.changedLocked()
	m.mu.Unlock()

	m.deps.Logger.Info("Practice scenario selected",
		"practice_id", m.id,
		"mode", mode,
		"scenario_id", next.ID,
		"difficulty", next.Difficulty,
	)
	m.feed.publish(snap)
	return snap, nil
}

// Start moves idle to active.
func (m *Machine) Start() (Snapshot, error) {
	m.mu.Lock()
	if m.scenario == nil {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrNoScenario
	}
	if m.state != StateIdle {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, fmt.Errorf("%w: cannot start from %s", ErrInvalidTransition, m.state)
	}
	if m.mode == ModeCustom && !m.custom.HasRequired() {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrIncompleteCustomScenario
	}
	m.transitionLocked(StateActive)
	snap := m.changedLocked()
	m.mu.Unlock()

	m.feed.publish(snap)
	return snap, nil
}

// Submit appends a manager message and waits for the employee's reply.
// The collaborator call is detached from ctx cancellation.
func (m *Machine) Submit(ctx context.Context, content string) (Snapshot, error) {
	content = strings.TrimSpace(content)

	m.mu.Lock()
	if m.state != StateActive || m.ending {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrNotActive
	}
	if content == "" {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrEmptyMessage
	}
	if m.typing {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrReplyInFlight
	}

	m.messages = append(m.messages, domain.Message{Role: domain.RoleUser, Content: content})
	m.typing = true
	done := make(chan struct{})
	m.inflight = done
	gen := m.generation
	sc := *m.scenario
	history := domain.CloneMessages(m.messages)
	snap := m.changedLocked()
	m.mu.Unlock()

	m.feed.publish(snap)
	m.logConversation("outbound", "manager_message", content, nil)

	start := m.deps.Now()
	reply, err := m.deps.Collaborator.EmployeeReply(context.WithoutCancel(ctx), sc, history, sc.Difficulty)

	m.mu.Lock()
	close(done)
	if gen != m.generation {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrSessionReset
	}
	m.typing = false
	m.inflight = nil
	if err == nil {
		m.messages = append(m.messages, domain.Message{Role: domain.RoleAssistant, Content: reply})
	}
	snap = m.changedLocked()
	m.mu.Unlock()

	m.feed.publish(snap)
	if err != nil {
		m.deps.Logger.Error("Employee reply failed", "practice_id", m.id, "error", err)
		return snap, fmt.Errorf("%w: %w", ErrReplyFailed, err)
	}
	m.logConversation("inbound", "employee_reply", reply, map[string]any{
		"elapsed_ms": m.deps.Now().Sub(start).Milliseconds(),
	})
	return snap, nil
}

// End waits for any pending reply, requests coaching exactly once and
// completes the session. A coaching failure attaches the fallback result.
// The completed session is persisted; a storage failure is logged only.
func (m *Machine) End(ctx context.Context) (Snapshot, error) {
	ctx = context.WithoutCancel(ctx)

	m.mu.Lock()
	if m.state != StateActive || m.ending {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrNotActive
	}
	m.ending = true
	wait := m.inflight
	gen := m.generation
	m.mu.Unlock()

	if wait != nil {
		<-wait
	}

	m.mu.Lock()
	if gen != m.generation {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrSessionReset
	}
	m.transitionLocked(StateCoaching)
	sc := *m.scenario
	history := domain.CloneMessages(m.messages)
	snap := m.changedLocked()
	m.mu.Unlock()
	m.feed.publish(snap)

	result, err := m.deps.Collaborator.Coaching(ctx, sc, history, sc.Difficulty)
	if err != nil {
		m.deps.Logger.Error("Coaching failed, attaching fallback", "practice_id", m.id, "error", err)
		result = domain.FallbackCoaching()
	}
	result = result.Normalized()
	m.logConversation("inbound", "coaching_summary", result.Summary, map[string]any{"fallback": err != nil})

	m.mu.Lock()
	if gen != m.generation {
		snap := m.snapshotLocked()
		m.mu.Unlock()
		return snap, ErrSessionReset
	}
	m.coaching = &result
	m.ending = false
	m.transitionLocked(StateCompleted)
	draft := domain.SessionDraft{Scenario: sc, Messages: history, Coaching: result}
	m.mu.Unlock()

	saved, saveErr := m.deps.Store.Append(ctx, draft)
	if saveErr != nil {
		m.deps.Logger.Error("Failed to save session", "practice_id", m.id, "error", saveErr)
	}

	m.mu.Lock()
	if saveErr == nil && gen == m.generation {
		m.savedID = saved.ID
	}
	snap = m.changedLocked()
	m.mu.Unlock()

	m.feed.publish(snap)
	return snap, nil
}

// Subscribe registers an observer of state changes.
func (m *Machine) Subscribe() (<-chan Snapshot, func()) {
	return m.feed.subscribe()
}

// Close disconnects every observer.
func (m *Machine) Close() {
	m.feed.close()
}

func (m *Machine) logConversation(direction, eventType, content string, meta map[string]any) {
	m.deps.ConversationLog.Log(agent.ConversationLogEvent{
		SessionID:  m.id,
		Channel:    agent.ChannelPractice,
		Direction:  direction,
		EventType:  eventType,
		ContentRaw: content,
		Meta:       meta,
	})
}
