// Package monitor periodically writes a status report of the stream and the
// render loop to a file.
package monitor

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/hydra/aware/internal/reconcile"
)

// DefaultInterval is the report period.
const DefaultInterval = time.Second

// Dependencies holds the status sources for the monitor service.
type Dependencies struct {
	Stream   func() reconcile.Status
	Entities func() int
	Frames   func() (frames uint64, entities int)
	Path     string
	Interval time.Duration
	Logger   *slog.Logger
}

// Report is one status snapshot.
type Report struct {
	Time          time.Time `json:"time"`
	Running       bool      `json:"running"`
	Connected     bool      `json:"connected"`
	Terminal      bool      `json:"terminal"`
	LastError     string    `json:"lastError,omitempty"`
	Pending       int       `json:"pending"`
	Entities      int       `json:"entities"`
	Frames        uint64    `json:"frames"`
	RenderedCount int       `json:"rendered"`
}

// Service manages status monitoring
type Service struct {
	deps      Dependencies
	isRunning bool
	mu        sync.RWMutex
	stopChan  chan struct{}
	done      chan struct{}
}

// NewService creates a new monitor service
func NewService(deps Dependencies) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	return &Service{deps: deps}
}

// IsRunning returns whether the status monitor is running
func (s *Service) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Report collects the current status. Missing sources are left zero.
func (s *Service) Report() Report {
	r := Report{Time: time.Now().UTC()}
	if s.deps.Stream != nil {
		st := s.deps.Stream()
		r.Running = st.Running
		r.Connected = st.Connected
		r.Terminal = st.Terminal
		r.Pending = st.Pending
		if st.Err != nil {
			r.LastError = st.Err.Error()
		}
	}
	if s.deps.Entities != nil {
		r.Entities = s.deps.Entities()
	}
	if s.deps.Frames != nil {
		r.Frames, r.RenderedCount = s.deps.Frames()
	}
	return r
}

// WriteReport replaces the status file with the current report.
func (s *Service) WriteReport() error {
	data, err := json.MarshalIndent(s.Report(), "", "  ")
	if err != nil {
		return fmt.Errorf("marshal status: %w", err)
	}
	tmp := s.deps.Path + ".tmp"
	if err := os.WriteFile(tmp, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("write status: %w", err)
	}
	if err := os.Rename(tmp, s.deps.Path); err != nil {
		return fmt.Errorf("replace status: %w", err)
	}
	return nil
}

// Start starts the status monitor goroutine. Without a Path it does nothing.
func (s *Service) Start() error {
	if s.deps.Path == "" {
		return nil
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = true
	s.stopChan = make(chan struct{})
	s.done = make(chan struct{})
	stop, done := s.stopChan, s.done
	s.mu.Unlock()

	go func() {
		defer close(done)
		defer func() {
			s.mu.Lock()
			s.isRunning = false
			s.mu.Unlock()
		}()

		logger := s.deps.Logger
		logger.Debug("Starting status monitor", "path", s.deps.Path, "interval", s.deps.Interval)

		ticker := time.NewTicker(s.deps.Interval)
		defer ticker.Stop()

		for {
			if err := s.WriteReport(); err != nil {
				logger.Error("Error writing status file", "error", err)
			}
			select {
			case <-stop:
				return
			case <-ticker.C:
			}
		}
	}()

	return nil
}

// Stop stops the status monitor and waits for the goroutine to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	done := s.done
	s.isRunning = false
	s.mu.Unlock()

	<-done
}
