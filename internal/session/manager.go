package session

import (
	"errors"
	"fmt"

	"conduit/internal/files"
	"conduit/internal/utils"
)

// Manager owns the one Session of the application. Apply is the only way to change it.
type Manager struct {
	current Session
	store   *files.ViewerStore
	log     *utils.Logger
}

// Options controls how a Manager restores the stored viewer.
type Options struct {
	// Strict panics on a corrupt stored record instead of clearing it.
	Strict bool
	Log    *utils.Logger
}

// NewManager seeds the session from store. A corrupt record panics in strict mode;
// otherwise it is logged, cleared, and the session starts as Guest.
func NewManager(store *files.ViewerStore, opts Options) (*Manager, error) {
	log := opts.Log
	if log == nil {
		log = utils.Discard()
	}
	m := &Manager{store: store, log: log}

	v, err := store.Load()
	switch {
	case err == nil:
		m.current = FromViewer(v)
	case errors.Is(err, files.ErrCorruptRecord):
		if opts.Strict {
			panic(err)
		}
		log.Warnf("session: discarding unreadable stored viewer: %v", err)
		if cerr := store.Clear(); cerr != nil {
			return nil, fmt.Errorf("clear corrupt viewer: %w", cerr)
		}
		m.current = Guest()
	default:
		return nil, err
	}
	log.Infof("session: restored %s", m.current)
	return m, nil
}

// Current returns the current session.
func (m *Manager) Current() Session { return m.current }

// Apply applies g, persisting the new viewer before adopting the new session.
// If persisting fails the in-memory session still changes and the error is returned.
func (m *Manager) Apply(g GlobalMsg) (Session, error) {
	switch g := g.(type) {
	case SessionChanged:
		var err error
		if g.Viewer == nil {
			err = m.store.Clear()
		} else {
			err = m.store.Store(*g.Viewer)
		}
		prev := m.current
		m.current = FromViewer(g.Viewer)
		if err != nil {
			m.log.Errorf("session: %s -> %s not persisted: %v", prev, m.current, err)
			return m.current, err
		}
		m.log.Infof("session: %s -> %s", prev, m.current)
		return m.current, nil
	default:
		return m.current, fmt.Errorf("session: unknown global message %T", g)
	}
}
