// -----------------------------------------------------------------------
// Janitor Service - Scheduled sweep of orphaned temp documents
// -----------------------------------------------------------------------

package janitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/responsum/internal/common"
)

// Service sweeps the document temp directory on a cron schedule. The
// loader removes its own files inline; the janitor reclaims anything
// left behind by a crash or kill.
type Service struct {
	cron     *cron.Cron
	tempDir  string
	maxAge   time.Duration
	schedule string
	enabled  bool
	running  bool
	logger   arbor.ILogger
}

// NewService creates a new janitor service
func NewService(cfg *common.Config, logger arbor.ILogger) *Service {
	schedule := cfg.Janitor.Schedule
	if schedule == "" {
		schedule = "@every 10m"
	}

	return &Service{
		cron:     cron.New(),
		tempDir:  cfg.Documents.ResolveTempDir(),
		maxAge:   common.ParseDurationOr(cfg.Janitor.MaxAge, time.Hour),
		schedule: schedule,
		enabled:  cfg.Janitor.Enabled,
		logger:   logger,
	}
}

// Start begins the sweep schedule. A disabled janitor starts as a no-op.
func (s *Service) Start() error {
	if !s.enabled {
		s.logger.Info().Msg("Temp janitor disabled")
		return nil
	}
	if s.running {
		return fmt.Errorf("janitor already running")
	}

	if _, err := s.cron.AddFunc(s.schedule, s.runSweep); err != nil {
		return fmt.Errorf("failed to add janitor schedule: %w", err)
	}

	s.cron.Start()
	s.running = true

	s.logger.Info().
		Str("schedule", s.schedule).
		Dur("max_age", s.maxAge).
		Str("dir", s.tempDir).
		Msg("Temp janitor started")

	return nil
}

// Stop halts the sweep schedule
func (s *Service) Stop() error {
	if !s.running {
		return nil
	}

	s.cron.Stop()
	s.running = false

	s.logger.Info().Msg("Temp janitor stopped")
	return nil
}

// runSweep is the cron target
func (s *Service) runSweep() {
	removed, err := SweepDir(s.tempDir, s.maxAge)
	if err != nil {
		s.logger.Warn().Err(err).Str("dir", s.tempDir).Msg("Temp sweep failed")
		return
	}
	if removed > 0 {
		s.logger.Info().Int("removed", removed).Str("dir", s.tempDir).Msg("Removed orphaned temp documents")
	}
}

// SweepDir removes regular files in dir whose modification time is older
// than maxAge. Subdirectories are left alone. Returns the number of files
// removed.
func SweepDir(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read temp directory: %w", err)
	}

	cutoff := time.Now().Add(-maxAge)
	removed := 0

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return removed, fmt.Errorf("failed to remove %s: %w", entry.Name(), err)
		}
		removed++
	}

	return removed, nil
}
