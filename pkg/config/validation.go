package config

import (
	"fmt"
)

// validate validates the configuration
func validate(cfg *Config) error {
	// Serial settings
	if cfg.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be positive")
	}
	if cfg.Serial.ByteTimeoutMs <= 0 {
		return fmt.Errorf("serial.byte_timeout_ms must be positive")
	}
	if cfg.Serial.HeaderTimeoutMs <= 0 {
		return fmt.Errorf("serial.header_timeout_ms must be positive")
	}
	if cfg.Serial.TrailerTimeoutMs <= 0 {
		return fmt.Errorf("serial.trailer_timeout_ms must be positive")
	}
	if cfg.Serial.PayloadTimeoutMs <= 0 {
		return fmt.Errorf("serial.payload_timeout_ms must be positive")
	}

	// Transfer settings
	if cfg.Transfer.Retries < 1 {
		return fmt.Errorf("transfer.retries must be at least 1")
	}
	if cfg.Transfer.BackoffMs < 0 {
		return fmt.Errorf("transfer.backoff_ms must not be negative")
	}
	if cfg.Transfer.ChunkSize <= 0 {
		return fmt.Errorf("transfer.chunk_size must be positive")
	}
	if cfg.Transfer.ResyncBudget <= 0 {
		return fmt.Errorf("transfer.resync_budget must be positive")
	}
	if cfg.Transfer.MemoryBound <= 0 || cfg.Transfer.MemoryBound > 0x1000000 {
		return fmt.Errorf("transfer.memory_bound must be between 1 and 0x1000000")
	}

	// Codeplug scan settings
	if cfg.Codeplug.ChannelStride <= 0 {
		return fmt.Errorf("codeplug.channel_stride must be positive")
	}
	if cfg.Codeplug.ChannelWindow <= 0 {
		return fmt.Errorf("codeplug.channel_window must be positive")
	}
	if cfg.Codeplug.ChannelBase < 0 || cfg.Codeplug.ChannelBase >= cfg.Transfer.MemoryBound {
		return fmt.Errorf("codeplug.channel_base must lie inside the memory bound")
	}
	if cfg.Codeplug.LabelPadMax < 0 {
		return fmt.Errorf("codeplug.label_pad_max must not be negative")
	}
	if cfg.Codeplug.SigScanMax <= 0 {
		return fmt.Errorf("codeplug.sig_scan_max must be positive")
	}

	// Database settings
	if cfg.Database.Enabled && cfg.Database.Path == "" {
		return fmt.Errorf("database.path is required when database is enabled")
	}

	return nil
}
