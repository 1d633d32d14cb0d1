package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/protocol"
)

// Config represents the application configuration
type Config struct {
	Serial   SerialConfig   `mapstructure:"serial"`
	Transfer TransferConfig `mapstructure:"transfer"`
	Codeplug CodeplugConfig `mapstructure:"codeplug"`
	Database DatabaseConfig `mapstructure:"database"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

// SerialConfig holds serial link settings
type SerialConfig struct {
	Port             string `mapstructure:"port"`                // e.g. /dev/ttyUSB0
	BaudRate         int    `mapstructure:"baud_rate"`           // 115200 for the CH340 cable
	ByteTimeoutMs    int    `mapstructure:"byte_timeout_ms"`     // per-read poll while syncing
	HeaderTimeoutMs  int    `mapstructure:"header_timeout_ms"`   // whole header hunt budget
	TrailerTimeoutMs int    `mapstructure:"trailer_timeout_ms"`  // 5 bytes after the marker
	PayloadTimeoutMs int    `mapstructure:"payload_timeout_ms"`  // per payload chunk
}

// TransferConfig holds block transfer settings
type TransferConfig struct {
	Retries      int  `mapstructure:"retries"`       // attempts per block
	BackoffMs    int  `mapstructure:"backoff_ms"`    // pause between attempts
	ChunkSize    int  `mapstructure:"chunk_size"`    // payload read chunk
	ResyncBudget int  `mapstructure:"resync_budget"` // max discarded bytes per header hunt
	MemoryBound  int  `mapstructure:"memory_bound"`  // device address space bound
	Progress     bool `mapstructure:"progress"`      // show a progress bar during download
}

// CodeplugConfig holds channel slot scan settings
type CodeplugConfig struct {
	ChannelBase   int    `mapstructure:"channel_base"`   // first slot label address
	ChannelStride int    `mapstructure:"channel_stride"` // bytes per slot
	ChannelWindow int    `mapstructure:"channel_window"` // leading slots scanned
	LabelPadMax   int    `mapstructure:"label_pad_max"`  // pad bytes skipped after label
	SigScanMax    int    `mapstructure:"sig_scan_max"`   // signature scan reach
	BlockMap      string `mapstructure:"block_map"`      // block map YAML, empty for built-in
}

// DatabaseConfig holds the acquisition archive configuration
type DatabaseConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `mapstructure:"level"`
}

// Load loads configuration from file and environment variables
func Load(configFile string) (*Config, error) {
	setDefaults()

	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.SetConfigName("dm32cfg")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME/.config/dm32cfg")
	}

	viper.SetEnvPrefix("DM32")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// No config file is fine, defaults apply
		} else if os.IsNotExist(err) {
			// File explicitly specified but missing - also fine
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Serial defaults
	viper.SetDefault("serial.port", "")
	viper.SetDefault("serial.baud_rate", protocol.BaudRate)
	viper.SetDefault("serial.byte_timeout_ms", 150)
	viper.SetDefault("serial.header_timeout_ms", 4000)
	viper.SetDefault("serial.trailer_timeout_ms", 5000)
	viper.SetDefault("serial.payload_timeout_ms", 2000)

	// Transfer defaults
	viper.SetDefault("transfer.retries", 2)
	viper.SetDefault("transfer.backoff_ms", 50)
	viper.SetDefault("transfer.chunk_size", 512)
	viper.SetDefault("transfer.resync_budget", protocol.ResyncBudget)
	viper.SetDefault("transfer.memory_bound", protocol.MemoryBound)
	viper.SetDefault("transfer.progress", true)

	// Codeplug defaults
	viper.SetDefault("codeplug.channel_base", protocol.ChannelBase)
	viper.SetDefault("codeplug.channel_stride", protocol.ChannelStride)
	viper.SetDefault("codeplug.channel_window", protocol.ChannelWindow)
	viper.SetDefault("codeplug.label_pad_max", protocol.LabelPadMax)
	viper.SetDefault("codeplug.sig_scan_max", protocol.SigScanMax)
	viper.SetDefault("codeplug.block_map", "")

	// Database defaults
	viper.SetDefault("database.enabled", false)
	viper.SetDefault("database.path", "dm32cfg.db")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
}
