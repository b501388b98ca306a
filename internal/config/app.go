package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	StorageFile     = "file"
	StoragePostgres = "postgres"
	StorageMemory   = "memory"

	defaultThreshold = 0.9
	defaultDataDir   = "data"
	defaultSweep     = 60
)

type AppConfig struct {
	Threshold      float64 `yaml:"warning-threshold"`
	StorageBackend string  `yaml:"storage"`
	Dir            string  `yaml:"data-dir"`
	WeekStart      string  `yaml:"week-start"`
	Auto           bool    `yaml:"auto-rollover"`
	Metrics        string  `yaml:"metrics-addr"`
	SweepMinutes   int     `yaml:"sweep-interval-minutes"`
}

func (s *AppConfig) WarningThreshold() float64 {
	return s.Threshold
}

func (s *AppConfig) Storage() string {
	return s.StorageBackend
}

func (s *AppConfig) DataDir() string {
	return s.Dir
}

func (s *AppConfig) AutoRollover() bool {
	return s.Auto
}

// MetricsAddr is where the prometheus handler listens; empty disables it.
func (s *AppConfig) MetricsAddr() string {
	return s.Metrics
}

func (s *AppConfig) SweepInterval() time.Duration {
	return time.Duration(s.SweepMinutes) * time.Minute
}

func (s *AppConfig) WeekStartDay() time.Weekday {
	if strings.EqualFold(s.WeekStart, "sunday") {
		return time.Sunday
	}
	return time.Monday
}

func (s *AppConfig) applyDefaults() {
	if s.Threshold == 0 {
		s.Threshold = defaultThreshold
	}
	if s.StorageBackend == "" {
		s.StorageBackend = StorageFile
	}
	if s.Dir == "" {
		s.Dir = defaultDataDir
	}
	if s.SweepMinutes <= 0 {
		s.SweepMinutes = defaultSweep
	}
	if s.WeekStart == "" {
		s.WeekStart = "monday"
	}
}

func (s *AppConfig) validate() error {
	if s.Threshold <= 0 || s.Threshold > 1 {
		return fmt.Errorf("warning-threshold %v must be in (0, 1]", s.Threshold)
	}
	switch s.StorageBackend {
	case StorageFile, StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage %q", s.StorageBackend)
	}
	switch strings.ToLower(s.WeekStart) {
	case "monday", "sunday":
	default:
		return fmt.Errorf("week-start %q must be monday or sunday", s.WeekStart)
	}
	return nil
}
