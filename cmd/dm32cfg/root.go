package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/config"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/radio"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/transport"
)

var rootFlags = struct {
	configFile string
	port       string
	model      string
	blockMap   string
}{}

var rootCmd = &cobra.Command{
	Use:   "dm32cfg",
	Short: "Read and decode Baofeng DM-32 codeplugs over serial",
	Long: `dm32cfg captures codeplug memory from a Baofeng DM-32 DMR handheld
over its programming cable and decodes channels and zones from the
image. All radio communication is strictly read-only.`,
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&rootFlags.configFile, "config", "c", "", "Path to configuration file")
	pf.StringVarP(&rootFlags.port, "port", "p", "", "Serial port (e.g. /dev/ttyUSB0)")
	pf.StringVar(&rootFlags.model, "model", "dm32", "Radio model")
	pf.StringVar(&rootFlags.blockMap, "map", "", "Block map YAML, built-in map when empty")

	rootCmd.AddCommand(downloadCmd)
	rootCmd.AddCommand(printCmd)
	rootCmd.AddCommand(csvCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig merges the config file with command-line overrides.
func loadConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load(rootFlags.configFile)
	if err != nil {
		return nil, nil, err
	}
	if rootFlags.port != "" {
		cfg.Serial.Port = rootFlags.port
	}
	if rootFlags.blockMap != "" {
		cfg.Codeplug.BlockMap = rootFlags.blockMap
	}
	log := logger.New(logger.Config{Level: cfg.Logging.Level})
	return cfg, log, nil
}

// openDevice builds the selected driver over a live serial port.
func openDevice(cfg *config.Config, log *logger.Logger) (radio.Device, transport.Port, error) {
	factory, err := radio.Lookup(rootFlags.model)
	if err != nil {
		return nil, nil, err
	}
	port, err := transport.Open(cfg.Serial.Port, cfg.Serial.BaudRate, log)
	if err != nil {
		return nil, nil, err
	}
	dev, err := factory(cfg, port, log)
	if err != nil {
		_ = port.Close()
		return nil, nil, err
	}
	return dev, port, nil
}

// offlineDM32 builds a DM-32 driver without a serial port, for commands
// that work from a saved image.
func offlineDM32(cfg *config.Config, log *logger.Logger, imagePath string) (*radio.DM32, error) {
	dev, err := radio.NewDM32(cfg, nil, log)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(imagePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if err := dev.LoadImage(data); err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	return dev, nil
}

// signalContext returns a context cancelled by SIGINT/SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
