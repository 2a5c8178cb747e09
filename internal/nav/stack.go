// Package nav keeps the history of visible screens as a stack, independent of
// any UI toolkit.
package nav

import (
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"
)

// ErrUnknownScreen is returned when showing a name that was never registered.
var ErrUnknownScreen = errors.New("unknown screen")

// Screen is a view that can refresh itself from application state.
type Screen interface {
	Reload()
}

// EnterHook is implemented by screens that react to becoming visible.
type EnterHook interface {
	OnEnter()
}

// LeaveHook is implemented by screens that react to being hidden.
type LeaveHook interface {
	OnLeave()
}

// Factory builds a screen the first time it is shown.
type Factory func() Screen

// Stack is an ordered history of screen names plus the one screen most
// recently popped by Back, which Forward restores. Screens are created lazily
// once and cached. Screen hooks run after the stack is updated and outside its
// lock, so a hook may query the stack.
type Stack struct {
	mu        sync.Mutex
	factories map[string]Factory
	loaded    map[string]Screen
	history   []string
	recent    string
	logger    *zap.Logger
}

func New(logger *zap.Logger) *Stack {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Stack{
		factories: make(map[string]Factory),
		loaded:    make(map[string]Screen),
		logger:    logger,
	}
}

// Register makes name showable. Registering a name again replaces its
// factory but keeps an already built screen.
func (s *Stack) Register(name string, factory Factory) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.factories[name] = factory
}

// Show makes name the current screen. With replace it takes the place of the
// current top instead of being pushed. Show always forgets the screen Back
// popped, so Forward does nothing afterwards.
func (s *Stack) Show(name string, replace bool) error {
	s.mu.Lock()
	next, err := s.screenLocked(name)
	if err != nil {
		s.mu.Unlock()
		return err
	}
	leaving := s.leavingLocked(name)
	if replace && len(s.history) > 0 {
		s.history[len(s.history)-1] = name
	} else {
		s.history = append(s.history, name)
	}
	s.recent = ""
	s.mu.Unlock()

	s.switchScreens(leaving, name, next)
	return nil
}

// Back pops the current screen and shows the one below it. It does nothing
// and reports false when there is nothing to go back to.
func (s *Stack) Back() bool {
	s.mu.Lock()
	if len(s.history) <= 1 {
		s.mu.Unlock()
		return false
	}
	popped := s.history[len(s.history)-1]
	name := s.history[len(s.history)-2]
	next, err := s.screenLocked(name)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("Failed to go back", zap.Error(err))
		return false
	}
	leaving := s.leavingLocked(name)
	s.history = s.history[:len(s.history)-1]
	s.recent = popped
	s.mu.Unlock()

	s.switchScreens(leaving, name, next)
	return true
}

// Forward shows the screen the last Back popped and pushes it again.
func (s *Stack) Forward() bool {
	s.mu.Lock()
	if s.recent == "" {
		s.mu.Unlock()
		return false
	}
	name := s.recent
	next, err := s.screenLocked(name)
	if err != nil {
		s.mu.Unlock()
		s.logger.Error("Failed to go forward", zap.Error(err))
		return false
	}
	leaving := s.leavingLocked(name)
	s.history = append(s.history, name)
	s.recent = ""
	s.mu.Unlock()

	s.switchScreens(leaving, name, next)
	return true
}

// HasBack reports whether more than one screen is on the stack.
func (s *Stack) HasBack() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.history) > 1
}

// Current returns the name of the visible screen, or "" before the first Show.
func (s *Stack) Current() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.currentLocked()
}

// History returns the stacked names, bottom first.
func (s *Stack) History() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.history...)
}

// Screen returns the screen registered under name, building it if needed.
func (s *Stack) Screen(name string) (Screen, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.screenLocked(name)
}

func (s *Stack) screenLocked(name string) (Screen, error) {
	if sc, ok := s.loaded[name]; ok {
		return sc, nil
	}
	factory, ok := s.factories[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownScreen, name)
	}
	sc := factory()
	s.loaded[name] = sc
	return sc, nil
}

func (s *Stack) currentLocked() string {
	if len(s.history) == 0 {
		return ""
	}
	return s.history[len(s.history)-1]
}

// leavingLocked returns the visible screen when showing name hides it.
func (s *Stack) leavingLocked(name string) Screen {
	cur := s.currentLocked()
	if cur == "" || cur == name {
		return nil
	}
	return s.loaded[cur]
}

func (s *Stack) switchScreens(leaving Screen, name string, next Screen) {
	if hook, ok := leaving.(LeaveHook); ok {
		hook.OnLeave()
	}
	s.logger.Debug("Screen: Enter", zap.String("name", name))
	if hook, ok := next.(EnterHook); ok {
		hook.OnEnter()
	}
}
