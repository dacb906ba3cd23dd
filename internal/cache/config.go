package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/samber/mo"
)

// Mode represents the cache operating mode.
type Mode string

const (
	// ModeSingle uses local Ristretto cache (default).
	// Best for single-instance deployments with high performance requirements.
	ModeSingle Mode = "single"

	// ModeHA uses distributed Olric cache for high availability.
	// Best for multi-instance deployments requiring shared cache state.
	ModeHA Mode = "ha"

	// ModePersistent uses a local SQLite-backed cache.
	// Best for single-instance deployments where cached analyses should
	// survive restarts.
	ModePersistent Mode = "persistent"

	// ModeDisabled uses noop cache (caching disabled).
	// All operations return immediately without storing data.
	ModeDisabled Mode = "disabled"
)

// Olric network environments. These tune memberlist gossip timing.
const (
	EnvLocal = "local"
	EnvLAN   = "lan"
	EnvWAN   = "wan"
)

// Config defines cache configuration.
// Use Validate() to check for configuration errors before creating a cache.
type Config struct {
	Mode      Mode            `yaml:"mode" toml:"mode"`
	Olric     OlricConfig     `yaml:"olric" toml:"olric"`
	Ristretto RistrettoConfig `yaml:"ristretto" toml:"ristretto"`
	Sqlite    SqliteConfig    `yaml:"sqlite" toml:"sqlite"`

	// TTLSeconds is how long cached analysis responses stay fresh.
	// Zero means the response layer default applies.
	TTLSeconds int `yaml:"ttl_seconds" toml:"ttl_seconds"`

	// Disabled bypasses response caching without changing the backend mode.
	// The DISABLE_CACHE environment variable forces this on.
	Disabled bool `yaml:"disabled" toml:"disabled"`
}

// GetTTLOption returns the configured response TTL, or None when unset.
func (c *Config) GetTTLOption() mo.Option[time.Duration] {
	if c.TTLSeconds <= 0 {
		return mo.None[time.Duration]()
	}
	return mo.Some(time.Duration(c.TTLSeconds) * time.Second)
}

// RistrettoConfig configures the Ristretto local cache.
// Ristretto is a high-performance, concurrent cache based on research from
// the Caffeine library.
type RistrettoConfig struct {
	// NumCounters is the number of 4-bit access counters.
	// Recommended: 10x expected max items for optimal admission policy.
	// Example: For 100,000 items, use 1,000,000 counters.
	NumCounters int64 `yaml:"num_counters" toml:"num_counters"`

	// MaxCost is the maximum cost (memory) the cache can hold.
	// Cost is measured in bytes of cached values.
	// Example: 100 << 20 for 100 MB.
	MaxCost int64 `yaml:"max_cost" toml:"max_cost"`

	// BufferItems is the number of keys per Get buffer.
	// This controls the size of the admission buffer.
	// Recommended: 64 (default).
	BufferItems int64 `yaml:"buffer_items" toml:"buffer_items"`
}

// OlricConfig configures the Olric distributed cache.
// Olric provides a distributed in-memory key/value store with clustering support.
type OlricConfig struct {
	DMapName          string        `yaml:"dmap_name" toml:"dmap_name"`
	BindAddr          string        `yaml:"bind_addr" toml:"bind_addr"`
	MemberlistAddr    string        `yaml:"memberlist_addr" toml:"memberlist_addr"`
	Environment       string        `yaml:"environment" toml:"environment"`
	Addresses         []string      `yaml:"addresses" toml:"addresses"`
	Peers             []string      `yaml:"peers" toml:"peers"`
	ReplicaCount      int           `yaml:"replica_count" toml:"replica_count"`
	ReadQuorum        int           `yaml:"read_quorum" toml:"read_quorum"`
	WriteQuorum       int           `yaml:"write_quorum" toml:"write_quorum"`
	LeaveTimeout      time.Duration `yaml:"leave_timeout" toml:"leave_timeout"`
	MemberCountQuorum int32         `yaml:"member_count_quorum" toml:"member_count_quorum"`
	Embedded          bool          `yaml:"embedded" toml:"embedded"`
}

// SqliteConfig configures the SQLite persistent cache.
type SqliteConfig struct {
	// Path is the filesystem path of the database file.
	// The parent directory must exist.
	Path string `yaml:"path" toml:"path"`
}

// Validate checks the configuration for errors.
// Returns nil if the configuration is valid.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeSingle:
		if c.Ristretto.MaxCost <= 0 {
			return errors.New("cache: ristretto.max_cost must be positive")
		}
		if c.Ristretto.NumCounters <= 0 {
			return errors.New("cache: ristretto.num_counters must be positive")
		}
	case ModeHA:
		return c.Olric.Validate()
	case ModePersistent:
		if c.Sqlite.Path == "" {
			return errors.New("cache: sqlite.path is required")
		}
	case ModeDisabled:
		// No validation needed for disabled mode
	case "":
		return errors.New("cache: mode is required")
	default:
		return fmt.Errorf("cache: unknown mode %q", c.Mode)
	}
	return nil
}

// Validate checks the Olric configuration for errors.
func (o *OlricConfig) Validate() error {
	if o.Embedded && o.BindAddr == "" {
		return errors.New("cache: olric.bind_addr required when embedded")
	}
	if !o.Embedded && len(o.Addresses) == 0 {
		return errors.New("cache: olric.addresses required when not embedded")
	}
	switch o.Environment {
	case "", EnvLocal, EnvLAN, EnvWAN:
	default:
		return fmt.Errorf(`cache: olric.environment must be "local", "lan", or "wan", got %q`, o.Environment)
	}
	if o.ReplicaCount > 0 {
		if o.WriteQuorum > o.ReplicaCount {
			return errors.New("cache: olric.write_quorum cannot exceed replica_count")
		}
		if o.ReadQuorum > o.ReplicaCount {
			return errors.New("cache: olric.read_quorum cannot exceed replica_count")
		}
	}
	if o.MemberCountQuorum < 0 {
		return errors.New("cache: olric.member_count_quorum cannot be negative")
	}
	if o.LeaveTimeout < 0 {
		return errors.New("cache: olric.leave_timeout cannot be negative")
	}
	return nil
}

// DefaultRistrettoConfig returns a RistrettoConfig with sensible defaults.
// NumCounters: 1,000,000 (for ~100K items).
// MaxCost: 100 MB.
// BufferItems: 64.
func DefaultRistrettoConfig() RistrettoConfig {
	return RistrettoConfig{
		NumCounters: 1_000_000,
		MaxCost:     100 << 20, // 100 MB.
		BufferItems: 64,
	}
}

// DefaultOlricConfig returns an OlricConfig with sensible defaults
// for a single-node embedded deployment.
func DefaultOlricConfig() OlricConfig {
	return OlricConfig{
		DMapName:          "leadlens",
		Environment:       EnvLocal,
		ReplicaCount:      1,
		ReadQuorum:        1,
		WriteQuorum:       1,
		MemberCountQuorum: 1,
		LeaveTimeout:      5 * time.Second,
	}
}

// DefaultSqliteConfig returns a SqliteConfig with sensible defaults.
// Path: "leadlens-cache.db" in the working directory.
func DefaultSqliteConfig() SqliteConfig {
	return SqliteConfig{
		Path: "leadlens-cache.db",
	}
}
