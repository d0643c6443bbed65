package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"

	"github.com/huntsync/server/internal/models"
)

// Config holds all application configuration
type Config struct {
	ServerAddress string       `json:"serverAddress"`
	DatabasePath  string       `json:"databasePath"`
	DatabaseURL   string       `json:"databaseUrl"`
	PhotoStorage  PhotoStorage `json:"photoStorage"`
	Upload        Upload       `json:"upload"`
	Lock          Lock         `json:"lock"`
	Event         Event        `json:"event"`
}

// UsePostgres returns true if PostgreSQL should be used
func (c *Config) UsePostgres() bool {
	return c.DatabaseURL != ""
}

// PhotoStorage configuration
type PhotoStorage struct {
	BasePath          string   `json:"basePath"`
	MaxFileSizeMB     int64    `json:"maxFileSizeMB"`
	AllowedExtensions []string `json:"allowedExtensions"`
}

// Upload configuration for the capture pipeline's server side
type Upload struct {
	MaxDimension      int  `json:"maxDimension"`
	JPEGQuality       int  `json:"jpegQuality"`
	AllowLargeUploads bool `json:"allowLargeUploads"`
}

// Lock configuration for the device-lock manager
type Lock struct {
	TTLMinutes int `json:"ttlMinutes"`
}

// Event holds pass-through presentation data served by the
// consolidated read endpoint
type Event struct {
	Name     string           `json:"name"`
	Settings map[string]any   `json:"settings"`
	Sponsors []models.Sponsor `json:"sponsors"`
}

// Default configuration
func defaultConfig() *Config {
	return &Config{
		ServerAddress: ":5000",
		DatabasePath:  "huntsync.db",
		PhotoStorage: PhotoStorage{
			BasePath:      "./photos",
			MaxFileSizeMB: 10,
			AllowedExtensions: []string{
				".jpg", ".jpeg", ".png", ".gif", ".webp", ".heic", ".heif",
			},
		},
		Upload: Upload{
			MaxDimension: 1600,
			JPEGQuality:  85,
		},
		Lock: Lock{
			TTLMinutes: 60,
		},
		Event: Event{
			Name: "Scavenger Hunt",
		},
	}
}

// Load loads configuration from file or environment
func Load() (*Config, error) {
	cfg := defaultConfig()

	// Try to load from config file
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.json"
	}

	if data, err := os.ReadFile(configPath); err == nil {
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	// Override from environment variables
	if addr := os.Getenv("SERVER_ADDRESS"); addr != "" {
		cfg.ServerAddress = addr
	}
	if dbPath := os.Getenv("DATABASE_PATH"); dbPath != "" {
		cfg.DatabasePath = dbPath
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		cfg.DatabaseURL = dbURL
	}
	if basePath := os.Getenv("PHOTO_STORAGE_PATH"); basePath != "" {
		cfg.PhotoStorage.BasePath = basePath
	}
	if maxSize := os.Getenv("MAX_FILE_SIZE_MB"); maxSize != "" {
		if mb, err := strconv.ParseInt(maxSize, 10, 64); err == nil && mb > 0 {
			cfg.PhotoStorage.MaxFileSizeMB = mb
		}
	}
	if allowLarge := os.Getenv("ALLOW_LARGE_UPLOADS"); allowLarge != "" {
		cfg.Upload.AllowLargeUploads = allowLarge == "true" || allowLarge == "1"
	}
	if ttl := os.Getenv("LOCK_TTL_MINUTES"); ttl != "" {
		if minutes, err := strconv.Atoi(ttl); err == nil && minutes > 0 {
			cfg.Lock.TTLMinutes = minutes
		}
	}

	// Ensure photo storage directory exists
	if err := os.MkdirAll(cfg.PhotoStorage.BasePath, 0755); err != nil {
		return nil, err
	}

	// Make base path absolute
	absPath, err := filepath.Abs(cfg.PhotoStorage.BasePath)
	if err != nil {
		return nil, err
	}
	cfg.PhotoStorage.BasePath = absPath

	return cfg, nil
}
