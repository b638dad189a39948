package diag

import (
	"fmt"

	"go.bug.st/serial"
)

const DefaultBaudRate = 9600

var openPortFn = func(name string, mode *serial.Mode) (serial.Port, error) {
	return serial.Open(name, mode)
}

// Serial streams CSV records to a serial port.
type Serial struct {
	*Stream
	port serial.Port
}

// OpenSerial opens name at baud (DefaultBaudRate when zero).
func OpenSerial(name string, baud, every int) (*Serial, error) {
	if name == "" {
		return nil, fmt.Errorf("diag: serial port is required")
	}
	if baud <= 0 {
		baud = DefaultBaudRate
	}
	port, err := openPortFn(name, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", name, err)
	}
	return &Serial{Stream: NewStream(port, every), port: port}, nil
}

func (s *Serial) Close() error {
	if s.port == nil {
		return nil
	}
	err := s.port.Close()
	s.port = nil
	return err
}
