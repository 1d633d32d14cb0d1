// Package transport provides the serial link to the radio.
//
// go.bug.st/serial is used for cross-platform access to the CH340 cable.
// The Port interface is what the transfer client and the driver program
// against, so tests can substitute a scripted mock.
package transport

import (
	"fmt"
	"time"

	"go.bug.st/serial"

	"github.com/emuehlstein/dmrconfig-dm32/pkg/logger"
)

// Port is the subset of serial behavior the acquisition pipeline needs.
type Port interface {
	// Write sends bytes to the radio
	Write(p []byte) (int, error)

	// Read reads available bytes, returning 0 on timeout
	Read(p []byte) (int, error)

	// SetReadTimeout sets the timeout applied to subsequent Reads
	SetReadTimeout(d time.Duration) error

	// PulseLines toggles RTS/DTR to nudge the cable and radio
	PulseLines() error

	// Close releases the port
	Close() error
}

// SerialPort is the real serial implementation of Port.
type SerialPort struct {
	port serial.Port
	name string
	log  *logger.Logger
}

// Open opens the serial device at the given baud rate (8N1).
func Open(name string, baudRate int, log *logger.Logger) (*SerialPort, error) {
	if name == "" {
		return nil, fmt.Errorf("no serial port specified")
	}

	mode := &serial.Mode{
		BaudRate: baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(name, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	log.Info("Serial port opened",
		logger.String("port", name),
		logger.Int("baud", baudRate))

	return &SerialPort{port: port, name: name, log: log}, nil
}

// Write sends bytes to the radio
func (s *SerialPort) Write(p []byte) (int, error) {
	return s.port.Write(p)
}

// Read reads available bytes, returning 0 on timeout
func (s *SerialPort) Read(p []byte) (int, error) {
	return s.port.Read(p)
}

// SetReadTimeout sets the timeout applied to subsequent Reads
func (s *SerialPort) SetReadTimeout(d time.Duration) error {
	return s.port.SetReadTimeout(d)
}

// PulseLines drops and raises RTS/DTR. The CPS does this once during
// session setup; some cables need it before the radio starts answering.
func (s *SerialPort) PulseLines() error {
	if err := s.port.SetDTR(false); err != nil {
		return fmt.Errorf("failed to drop DTR: %w", err)
	}
	if err := s.port.SetRTS(false); err != nil {
		return fmt.Errorf("failed to drop RTS: %w", err)
	}
	time.Sleep(50 * time.Millisecond)
	if err := s.port.SetDTR(true); err != nil {
		return fmt.Errorf("failed to raise DTR: %w", err)
	}
	if err := s.port.SetRTS(true); err != nil {
		return fmt.Errorf("failed to raise RTS: %w", err)
	}
	s.log.Debug("Pulsed RTS/DTR", logger.String("port", s.name))
	return nil
}

// Close releases the port
func (s *SerialPort) Close() error {
	return s.port.Close()
}
