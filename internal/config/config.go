// Package config centralizes all application configuration into typed
// structs. Defaults are code; a .env file or the environment overrides the
// handful of deployment-specific values.
package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is the top-level configuration container.
type Config struct {
	Server    ServerConfig
	Geo       GeoConfig
	Query     QueryConfig
	Alert     AlertConfig
	Consensus ConsensusConfig
	Reward    RewardConfig
	Store     StoreConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// GeoConfig controls the geohash precision written on report documents.
// Precision 9 ≈ 4.8 m cells — precise enough that the stored hash pins the
// site itself; query-time precision is derived from the search radius and
// is independent of this value.
type GeoConfig struct {
	GeohashPrecision int
}

// QueryConfig bounds the geospatial query service.
type QueryConfig struct {
	PerBoundCap  int           // row cap on each per-range sub-query
	MaxReportAge time.Duration // default age cutoff for nearby results
	MaxRadiusM   float64       // requested radii above this are clamped
}

// RegimePolicy is one row of the movement cadence table: how often to poll,
// how far the device must move before a re-query, and how wide to search.
type RegimePolicy struct {
	PollInterval      time.Duration
	RequeryThresholdM float64
	SearchRadiusM     float64
}

// AlertConfig drives the movement-adaptive alert controller. The search
// radius is for discovery; AlertDistanceM is the much tighter cutoff for
// actually interrupting the user.
type AlertConfig struct {
	Drive RegimePolicy
	Walk  RegimePolicy
	Off   RegimePolicy

	DriveSpeedThresholdMS float64 // auto mode classifies as driving above this
	AlertDistanceM        float64
	QueryTimeout          time.Duration
}

// ConsensusConfig parameterizes the vote state machine.
type ConsensusConfig struct {
	DismissThreshold int // dismissal count at which an open report auto-closes
}

// RewardConfig sets the point values handed to the reward hook.
type RewardConfig struct {
	VoterPoints    int64 // any successful vote
	ReporterPoints int64 // original reporter, on a confirm vote
}

// StoreConfig selects the backing store. An empty FirestoreProjectID means
// the in-memory store; an empty RedisAddr means log-only rewards.
type StoreConfig struct {
	FirestoreProjectID string
	RedisAddr          string
}

// NewDefaultConfig returns a Config populated with the tuned defaults.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         ":8080",
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		Geo: GeoConfig{
			GeohashPrecision: 9,
		},
		Query: QueryConfig{
			PerBoundCap:  100,
			MaxReportAge: 720 * time.Hour, // 30 days
			MaxRadiusM:   50000,
		},
		Alert: AlertConfig{
			Drive: RegimePolicy{
				PollInterval:      8 * time.Second,
				RequeryThresholdM: 60,
				SearchRadiusM:     3000,
			},
			Walk: RegimePolicy{
				PollInterval:      25 * time.Second,
				RequeryThresholdM: 120,
				SearchRadiusM:     1000,
			},
			Off: RegimePolicy{
				PollInterval:      60 * time.Second,
				RequeryThresholdM: 1000,
				SearchRadiusM:     100,
			},
			DriveSpeedThresholdMS: 6.0,
			AlertDistanceM:        300,
			QueryTimeout:          15 * time.Second,
		},
		Consensus: ConsensusConfig{
			DismissThreshold: 3,
		},
		Reward: RewardConfig{
			VoterPoints:    5,
			ReporterPoints: 2,
		},
		Store: StoreConfig{},
	}
}

// Load builds the config from defaults plus .env/environment overrides.
// A missing .env file is not an error.
func Load() *Config {
	_ = godotenv.Load()

	cfg := NewDefaultConfig()
	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = ":" + port
	}
	if project := os.Getenv("FIRESTORE_PROJECT_ID"); project != "" {
		cfg.Store.FirestoreProjectID = project
	}
	if addr := os.Getenv("REDIS_ADDR"); addr != "" {
		cfg.Store.RedisAddr = addr
	}
	if raw := os.Getenv("DISMISS_THRESHOLD"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			cfg.Consensus.DismissThreshold = n
		}
	}
	return cfg
}
