package cfg

import (
	"flag"
	"fmt"
	"hash/fnv"
	"os"
	"path"

	"github.com/BurntSushi/toml"
	"github.com/denisbrodbeck/machineid"
	"github.com/rs/zerolog/log"
)

// EngineBackend selects the engine behind a session
type EngineBackend string

const (
	EngineSQLite   EngineBackend = "sqlite"   // SQLite database file
	EngineLoopback EngineBackend = "loopback" // In-process echo engine
)

// EngineConfiguration controls the engine a session attaches to
type EngineConfiguration struct {
	Backend              EngineBackend `toml:"backend"`
	Database             string        `toml:"database"`               // SQLite file, relative to data_dir unless absolute
	StatementCacheSize   int           `toml:"statement_cache_size"`   // Prepared statements kept per attachment
	DefaultVarcharLength int           `toml:"default_varchar_length"` // Declared length of untyped text columns
	BusyTimeoutMS        int           `toml:"busy_timeout_ms"`
}

// BlobStoreConfiguration controls segmented blob storage
type BlobStoreConfiguration struct {
	Path             string `toml:"path"`              // Relative to data_dir unless absolute
	InMemory         bool   `toml:"in_memory"`         // Keep blobs in memory only
	CompressionLevel int    `toml:"compression_level"` // 0=off, 1-4 zstd fastest..best
	CacheSizeMB      int    `toml:"cache_size_mb"`
}

// LoggingConfiguration controls logging behavior
type LoggingConfiguration struct {
	Verbose bool   `toml:"verbose"`
	Format  string `toml:"format"` // "console" or "json"
}

// PrometheusConfiguration for metrics
type PrometheusConfiguration struct {
	Enabled                bool   `toml:"enabled"`
	Address                string `toml:"address"`
	Port                   int    `toml:"port"`
	CollectIntervalSeconds int    `toml:"collect_interval_seconds"`
}

// Configuration is the main configuration structure
type Configuration struct {
	NodeID  uint64 `toml:"node_id"`
	DataDir string `toml:"data_dir"`

	Engine     EngineConfiguration     `toml:"engine"`
	BlobStore  BlobStoreConfiguration  `toml:"blob_store"`
	Logging    LoggingConfiguration    `toml:"logging"`
	Prometheus PrometheusConfiguration `toml:"prometheus"`
}

// Command line flags
var (
	ConfigPathFlag = flag.String("config", "config.toml", "Path to configuration file")
	DataDirFlag    = flag.String("data-dir", "", "Data directory (overrides config)")
	NodeIDFlag     = flag.Uint64("node-id", 0, "Node ID (overrides config, 0=auto)")
	DatabaseFlag   = flag.String("database", "", "SQLite database (overrides config)")
	EngineFlag     = flag.String("engine", "", "Engine backend: sqlite or loopback (overrides config)")
)

// Default configuration
var Config = &Configuration{
	NodeID:  0, // Auto-generate
	DataDir: "./fbsql-data",

	Engine: EngineConfiguration{
		Backend:              EngineSQLite,
		Database:             "fbsql.db",
		StatementCacheSize:   128,
		DefaultVarcharLength: 255,
		BusyTimeoutMS:        5000,
	},

	BlobStore: BlobStoreConfiguration{
		Path:             "blobs",
		InMemory:         false,
		CompressionLevel: 1,
		CacheSizeMB:      32,
	},

	Logging: LoggingConfiguration{
		Verbose: false,
		Format:  "console",
	},

	Prometheus: PrometheusConfiguration{
		Enabled:                false,
		Address:                "0.0.0.0",
		Port:                   9090,
		CollectIntervalSeconds: 10,
	},
}

// Load loads configuration from file and applies CLI overrides
func Load(configPath string) error {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			log.Info().Str("path", configPath).Msg("Loading configuration")
			if _, err := toml.DecodeFile(configPath, Config); err != nil {
				return fmt.Errorf("failed to decode config: %w", err)
			}
		} else {
			log.Warn().Str("path", configPath).Msg("Config file not found, using defaults")
		}
	}

	// Apply CLI overrides
	if *DataDirFlag != "" {
		Config.DataDir = *DataDirFlag
	}
	if *NodeIDFlag != 0 {
		Config.NodeID = *NodeIDFlag
	}
	if *DatabaseFlag != "" {
		Config.Engine.Database = *DatabaseFlag
	}
	if *EngineFlag != "" {
		Config.Engine.Backend = EngineBackend(*EngineFlag)
	}

	if Config.NodeID == 0 {
		var err error
		Config.NodeID, err = generateNodeID()
		if err != nil {
			return fmt.Errorf("failed to generate node ID: %w", err)
		}
		log.Info().Uint64("node_id", Config.NodeID).Msg("Auto-generated node ID")
	}

	if err := os.MkdirAll(Config.DataDir, 0755); err != nil {
		return fmt.Errorf("failed to create data directory: %w", err)
	}

	return nil
}

// generateNodeID creates a unique node ID based on machine ID
func generateNodeID() (uint64, error) {
	id, err := machineid.ProtectedID("fbsql")
	if err != nil {
		return 0, err
	}

	h := fnv.New64a()
	h.Write([]byte(id))
	return h.Sum64(), nil
}

// Validate checks configuration for errors
func Validate() error {
	switch Config.Engine.Backend {
	case EngineSQLite:
		if Config.Engine.Database == "" {
			return fmt.Errorf("sqlite engine requires a database path")
		}
	case EngineLoopback:
	default:
		return fmt.Errorf("invalid engine backend: %q", Config.Engine.Backend)
	}

	if Config.Engine.StatementCacheSize < 1 {
		return fmt.Errorf("statement cache size must be >= 1")
	}

	if Config.Engine.DefaultVarcharLength < 1 || Config.Engine.DefaultVarcharLength > 32765 {
		return fmt.Errorf("default varchar length must be in [1, 32765]: %d", Config.Engine.DefaultVarcharLength)
	}

	if Config.Engine.BusyTimeoutMS < 0 {
		return fmt.Errorf("busy timeout must be >= 0")
	}

	if Config.BlobStore.CompressionLevel < 0 || Config.BlobStore.CompressionLevel > 4 {
		return fmt.Errorf("blob compression level must be in [0, 4]: %d", Config.BlobStore.CompressionLevel)
	}

	if !Config.BlobStore.InMemory && Config.BlobStore.Path == "" {
		return fmt.Errorf("blob store path is required unless in_memory is set")
	}

	if Config.BlobStore.CacheSizeMB < 0 {
		return fmt.Errorf("blob store cache size must be >= 0")
	}

	if Config.Logging.Format != "" && Config.Logging.Format != "console" && Config.Logging.Format != "json" {
		return fmt.Errorf("invalid logging format: %s", Config.Logging.Format)
	}

	if Config.Prometheus.Enabled {
		if Config.Prometheus.Port < 1 || Config.Prometheus.Port > 65535 {
			return fmt.Errorf("invalid prometheus port: %d", Config.Prometheus.Port)
		}
		if Config.Prometheus.CollectIntervalSeconds < 1 {
			return fmt.Errorf("prometheus collect interval must be >= 1 second")
		}
	}

	return nil
}

// resolve joins p to the data directory unless it is absolute
func resolve(p string) string {
	if path.IsAbs(p) {
		return p
	}
	return path.Join(Config.DataDir, p)
}

// GetDatabasePath returns the SQLite database file path
func GetDatabasePath() string {
	return resolve(Config.Engine.Database)
}

// GetBlobStorePath returns the pebble directory of the blob store
func GetBlobStorePath() string {
	return resolve(Config.BlobStore.Path)
}
