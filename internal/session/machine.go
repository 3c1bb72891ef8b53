package session

import (
	"context"
	"errors"
	"sync"

	"docchat/internal/domain"
	"docchat/internal/service"
)

// ErrNotAccepting is returned when a submission arrives in a state that cannot take it.
var ErrNotAccepting = errors.New("session is not accepting this submission")

// Snapshot is a read-only copy of the session for display.
type Snapshot struct {
	State       domain.Lifecycle
	Title       string
	Transcript  []domain.ChatMessage
	LastError   string
	HasDocument bool
	Passages    int
	PageImages  int
}

// ticket identifies one unit of work. Each Begin issues a fresh one, and reports
// carrying any other ticket are dropped. Zero is never issued.
type ticket uint64

// Machine owns all session state. Every transition is checked against the current
// lifecycle and the ticket of the caller.
type Machine struct {
	mu sync.Mutex

	state      domain.Lifecycle
	doc        *service.Ingestion
	transcript []domain.ChatMessage
	lastError  string
	seq        uint64
	active     uint64
	cancel     context.CancelFunc
}

func NewMachine() *Machine {
	return &Machine{state: domain.Idle}
}

// BeginIngestion moves idle to parsing (binary) or indexing (text).
func (m *Machine) BeginIngestion(binary bool, cancel context.CancelFunc) (ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.Idle {
		return 0, ErrNotAccepting
	}
	if binary {
		m.state = domain.Parsing
	} else {
		m.state = domain.Indexing
	}
	m.lastError = ""
	m.cancel = cancel
	return m.issue(), nil
}

// Advance applies a progress report. Only parsing to indexing is a valid step.
func (m *Machine) Advance(t ticket, next domain.Lifecycle) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current(t) || next != domain.Indexing || m.state != domain.Parsing {
		return false
	}
	m.state = domain.Indexing
	return true
}

// CommitIngestion installs a finished ingestion and moves to ready. Any previous
// document is replaced as a whole.
func (m *Machine) CommitIngestion(t ticket, ing *service.Ingestion, ack string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current(t) || (m.state != domain.Parsing && m.state != domain.Indexing) {
		return false
	}
	m.state = domain.Ready
	m.doc = ing
	m.transcript = []domain.ChatMessage{{Sender: domain.SenderAI, Text: ack}}
	m.lastError = ""
	m.settle()
	return true
}

// FailIngestion returns to idle and records the failure. Nothing from the attempt is kept.
func (m *Machine) FailIngestion(t ticket, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current(t) || (m.state != domain.Parsing && m.state != domain.Indexing) {
		return false
	}
	m.state = domain.Idle
	m.doc = nil
	m.transcript = nil
	m.lastError = domain.UserMessage(err)
	m.settle()
	return true
}

// BeginQuery moves ready to querying and appends the question to the transcript.
// It returns the ingestion the answer must be grounded on.
func (m *Machine) BeginQuery(question string, cancel context.CancelFunc) (ticket, *service.Ingestion, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != domain.Ready {
		return 0, nil, ErrNotAccepting
	}
	m.state = domain.Querying
	m.lastError = ""
	m.cancel = cancel
	m.transcript = append(m.transcript, domain.ChatMessage{Sender: domain.SenderUser, Text: question})
	return m.issue(), m.doc, nil
}

// FinishQuery appends the reply and returns to ready. A non-nil err is recorded as
// the last error while reply still lands in the transcript.
func (m *Machine) FinishQuery(t ticket, reply string, err error) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.current(t) || m.state != domain.Querying {
		return false
	}
	m.state = domain.Ready
	m.transcript = append(m.transcript, domain.ChatMessage{Sender: domain.SenderAI, Text: reply})
	if err != nil {
		m.lastError = domain.UserMessage(err)
	}
	m.settle()
	return true
}

// Reset wipes everything and returns to idle. In-flight work is cancelled and its
// results will be rejected.
func (m *Machine) Reset() {
	m.mu.Lock()
	cancel := m.cancel
	m.state = domain.Idle
	m.doc = nil
	m.transcript = nil
	m.lastError = ""
	m.settle()
	m.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

func (m *Machine) Snapshot() Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := Snapshot{
		State:      m.state,
		Transcript: append([]domain.ChatMessage(nil), m.transcript...),
		LastError:  m.lastError,
	}
	if m.doc != nil {
		s.Title = m.doc.Title
		s.HasDocument = m.doc.Index != nil
		s.PageImages = len(m.doc.PageImages)
		if m.doc.Index != nil {
			s.Passages = m.doc.Index.Len()
		}
	}
	return s
}

func (m *Machine) issue() ticket {
	m.seq++
	m.active = m.seq
	return ticket(m.active)
}

func (m *Machine) settle() {
	m.active = 0
	m.cancel = nil
}

func (m *Machine) current(t ticket) bool {
	return t != 0 && uint64(t) == m.active
}
