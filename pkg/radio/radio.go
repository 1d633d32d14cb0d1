// Package radio defines the device driver interface and the driver
// registry. The DM-32 is the only driver today; the registry exists so
// sibling Baofeng models with the same block protocol can slot in.
package radio

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/config"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/export"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
	"github.com/emuehlstein/dmrconfig-dm32/pkg/transport"
)

// ErrNotSupported marks an operation a driver deliberately refuses.
var ErrNotSupported = errors.New("operation not supported on this radio")

// Device is one supported radio model.
type Device interface {
	// Name returns the human-readable model name
	Name() string

	// Download captures device memory into the driver's image
	Download(ctx context.Context) error

	// Upload writes a codeplug to the device. The DM-32 driver returns
	// ErrNotSupported: this tool never emits a write opcode.
	Upload(ctx context.Context) error

	// PrintVersion writes the model banner
	PrintVersion(w io.Writer)

	// PrintConfig renders the decoded configuration tables
	PrintConfig(w io.Writer, verbose bool)

	// SaveImage writes the captured image bytes
	SaveImage(w io.Writer) error

	// WriteCSVFiles emits the reverse-engineering CSV set into dir
	WriteCSVFiles(dir string) error

	// ValidateCSV cross-checks a CPS export against the decoded state
	ValidateCSV(r io.Reader) (export.ValidationResult, error)
}

// Factory builds a driver over an open port.
type Factory func(cfg *config.Config, port transport.Port, log *logger.Logger) (Device, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]Factory)
)

// Register adds a driver factory under a model key. Called from driver
// init functions.
func Register(name string, f Factory) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = f
}

// Lookup returns the factory for a model key.
func Lookup(name string) (Factory, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown radio model %q (supported: %v)", name, Models())
	}
	return f, nil
}

// Models lists the registered model keys, sorted.
func Models() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
