// Package session provides the session number and clock collaborators used
// by the log writers.
package session

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Provider reports the number of the running session.
type Provider interface {
	CurrentSessionNumber() int
}

// Clock reports the current time.
type Clock interface {
	Now() time.Time
}

// Static is a Provider with a fixed session number.
type Static int

func (s Static) CurrentSessionNumber() int { return int(s) }

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock returns a settable time. It is safe for concurrent use.
type FixedClock struct {
	mu sync.Mutex
	t  time.Time
}

// NewFixedClock returns a clock stopped at t.
func NewFixedClock(t time.Time) *FixedClock { return &FixedClock{t: t} }

func (c *FixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

// Set moves the clock to t.
func (c *FixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = t
}

// Advance moves the clock forward by d.
func (c *FixedClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

// state is the YAML structure of the counter file.
type state struct {
	Session  int       `yaml:"session"`
	Started  time.Time `yaml:"started"`
	Previous time.Time `yaml:"previous,omitempty"`
}

// Counter is a Provider backed by a small YAML file. Begin increments the
// stored number once per process launch.
type Counter struct {
	path string
	st   state
}

// DefaultStatePath returns the standard location of the counter file.
func DefaultStatePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "boxlog", "session.yaml")
}

// Begin loads the counter at path, increments it and saves it. A missing
// file starts at session 1.
func Begin(path string, now time.Time) (*Counter, error) {
	c := &Counter{path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &c.st); err != nil {
			return nil, fmt.Errorf("parse session state %s: %w", path, err)
		}
		if c.st.Session < 0 {
			return nil, fmt.Errorf("session state %s: negative session %d", path, c.st.Session)
		}
	case os.IsNotExist(err):
	default:
		return nil, fmt.Errorf("read session state: %w", err)
	}

	c.st.Previous = c.st.Started
	c.st.Session++
	c.st.Started = now.UTC()

	if err := c.save(); err != nil {
		return nil, err
	}
	return c, nil
}

// CurrentSessionNumber returns the number assigned by Begin.
func (c *Counter) CurrentSessionNumber() int { return c.st.Session }

// Started returns when the current session began.
func (c *Counter) Started() time.Time { return c.st.Started }

func (c *Counter) save() error {
	if err := os.MkdirAll(filepath.Dir(c.path), 0700); err != nil {
		return fmt.Errorf("create session dir: %w", err)
	}
	data, err := yaml.Marshal(&c.st)
	if err != nil {
		return fmt.Errorf("marshal session state: %w", err)
	}
	if err := os.WriteFile(c.path, data, 0600); err != nil {
		return fmt.Errorf("write session state: %w", err)
	}
	return nil
}
