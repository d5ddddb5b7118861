package lifecycle

import "context"

// Service is the minimal start/stop contract shared by long-running
// components.
type Service interface {
    Name() string
    Start(ctx context.Context) error
    Stop(ctx context.Context) error
}

// Manager starts services in registration order and stops them in reverse.
type Manager struct {
    svcs    []Service
    started []Service
}

func New() *Manager { return &Manager{} }

func (m *Manager) Add(s Service) { m.svcs = append(m.svcs, s) }

// StartAll starts every registered service; on the first failure it stops the
// ones already started (reverse order) and returns the start error.
func (m *Manager) StartAll(ctx context.Context) error {
    for _, s := range m.svcs {
        if err := s.Start(ctx); err != nil {
            _ = m.StopAll(context.Background())
            return err
        }
        m.started = append(m.started, s)
    }
    return nil
}

// StopAll stops started services in reverse order, returning the first stop
// error after attempting all of them.
func (m *Manager) StopAll(ctx context.Context) error {
    var first error
    for i := len(m.started) - 1; i >= 0; i-- {
        if err := m.started[i].Stop(ctx); err != nil && first == nil { first = err }
    }
    m.started = nil
    return first
}
