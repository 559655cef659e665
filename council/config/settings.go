package config

import (
	"fmt"
	"io/ioutil"
	"time"

	"gopkg.in/yaml.v2"
)

// Settings holds the tunable per-node variables. All fields may be left blank
// in the '.yaml' file; FillEmptyFields assigns the defaults.
// Durations are expressed as whole seconds in the file.
type Settings struct {
	DIAL_TIMEOUT   time.Duration `yaml:"dial_timeout"`   // DIAL_TIMEOUT defines the time (in seconds) waited on connect and on the ack before assuming a member is not reachable.
	SWEEP_INTERVAL time.Duration `yaml:"sweep_interval"` // SWEEP_INTERVAL defines how often (in seconds) superseded proposal bookkeeping is reclaimed after a decision.

	RECORD_BACKEND string `yaml:"record_backend"` // RECORD_BACKEND selects where the decided value is recorded: "memory", "sqlite" or "redis".
	DB_PATH        string `yaml:"db_path"`        // DB_PATH locates the sqlite database file (record_backend: sqlite).

	REDIS_ADDR     string `yaml:"redis_addr"`     // REDIS_ADDR is the host:port of the redis server (record_backend: redis).
	REDIS_PASSWORD string `yaml:"redis_password"` // REDIS_PASSWORD is the redis password, empty when none is set.
	REDIS_DB       int    `yaml:"redis_db"`       // REDIS_DB is the redis database index.
}

// LoadFile loads the settings '.yaml' file onto the callee Settings object.
func (s *Settings) LoadFile(fn string) error {
	raw, err := ioutil.ReadFile(fn)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return fmt.Errorf("config: %s: %w", fn, err)
	}
	return nil
}

// FillEmptyFields fills in those fields that were left empty in the '.yaml'
// file, or that were never loaded from one at all.
func (s *Settings) FillEmptyFields() {
	if s.DIAL_TIMEOUT == 0 {
		s.DIAL_TIMEOUT = 2
	}
	if s.SWEEP_INTERVAL == 0 {
		s.SWEEP_INTERVAL = 5
	}
	if s.RECORD_BACKEND == "" {
		s.RECORD_BACKEND = "memory"
	}
	if s.DB_PATH == "" {
		s.DB_PATH = "./council.db"
	}
	if s.REDIS_ADDR == "" {
		s.REDIS_ADDR = "localhost:6379"
	}
}
