package config

import (
	"testing"

	"github.com/spf13/viper"
)

func TestLoad_UsesDefaults_WhenNoFile(t *testing.T) {
	// Reset viper to avoid cross-test pollution
	viper.Reset()

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	// Spot-check a few defaults
	if cfg.Serial.BaudRate != 115200 {
		t.Errorf("expected Serial.BaudRate default 115200, got %d", cfg.Serial.BaudRate)
	}
	if cfg.Transfer.Retries != 2 {
		t.Errorf("expected Transfer.Retries default 2, got %d", cfg.Transfer.Retries)
	}
	if cfg.Transfer.MemoryBound != 0x200000 {
		t.Errorf("expected Transfer.MemoryBound default 0x200000, got 0x%X", cfg.Transfer.MemoryBound)
	}
	if cfg.Codeplug.ChannelBase != 0x00601C {
		t.Errorf("expected Codeplug.ChannelBase default 0x00601C, got 0x%X", cfg.Codeplug.ChannelBase)
	}
	if cfg.Codeplug.ChannelStride != 0x30 {
		t.Errorf("expected Codeplug.ChannelStride default 0x30, got 0x%X", cfg.Codeplug.ChannelStride)
	}
	if cfg.Logging.Level == "" {
		t.Errorf("expected Logging.Level to be set (default info)")
	}
}

func TestValidate_Errors(t *testing.T) {
	valid := func() *Config {
		return &Config{
			Serial: SerialConfig{
				BaudRate: 115200, ByteTimeoutMs: 150, HeaderTimeoutMs: 4000,
				TrailerTimeoutMs: 5000, PayloadTimeoutMs: 2000,
			},
			Transfer: TransferConfig{
				Retries: 2, BackoffMs: 50, ChunkSize: 512,
				ResyncBudget: 65536, MemoryBound: 0x200000,
			},
			Codeplug: CodeplugConfig{
				ChannelBase: 0x00601C, ChannelStride: 0x30, ChannelWindow: 240,
				LabelPadMax: 16, SigScanMax: 32,
			},
		}
	}

	t.Run("valid config passes", func(t *testing.T) {
		if err := validate(valid()); err != nil {
			t.Fatalf("expected valid config to pass, got %v", err)
		}
	})

	t.Run("zero baud rate", func(t *testing.T) {
		cfg := valid()
		cfg.Serial.BaudRate = 0
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for zero serial.baud_rate")
		}
	})

	t.Run("zero retries", func(t *testing.T) {
		cfg := valid()
		cfg.Transfer.Retries = 0
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for zero transfer.retries")
		}
	})

	t.Run("channel base outside memory bound", func(t *testing.T) {
		cfg := valid()
		cfg.Codeplug.ChannelBase = 0x300000
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for channel_base beyond memory_bound")
		}
	})

	t.Run("database enabled without path", func(t *testing.T) {
		cfg := valid()
		cfg.Database.Enabled = true
		cfg.Database.Path = ""
		if err := validate(cfg); err == nil {
			t.Fatal("expected error for enabled database without path")
		}
	})
}
