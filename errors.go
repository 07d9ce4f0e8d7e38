package pm2005

import (
	"errors"
	"fmt"
)

// ErrTimeout is returned when a reply does not arrive completely within the exchange timeout.
var ErrTimeout = errors.New("pm2005: exchange timed out")

// ErrDesync is returned when a reply does not echo the command it answers,
// meaning the byte stream is out of step with the exchanges.
var ErrDesync = errors.New("pm2005: reply out of sync")

// ErrSensorFaultLikely marks readings that are a hardware artifact rather than data.
// The sensor reports 1000 ug/m^3 when its supply voltage drops below ~4.6V.
var ErrSensorFaultLikely = errors.New("pm2005: sensor fault likely")

// FaultConcentration is the concentration reported on insufficient supply voltage.
const FaultConcentration = 1000

// TransportError indicates that the byte stream failed during an exchange.
type TransportError struct {
	Command string
	Op      string
	Err     error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("pm2005: %s %s: %v", e.Command, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ChecksumError indicates that the bytes of a reply do not sum to zero.
type ChecksumError struct {
	Command string
	Sum     byte
}

func (e *ChecksumError) Error() string {
	return fmt.Sprintf("pm2005: %s reply checksum mismatch: bytes sum to 0x%02X, expected 0x00", e.Command, e.Sum)
}

// SensorFaultError reports the concentrations that carried the fault sentinel.
type SensorFaultError struct {
	PM2_5 uint16
	PM10  uint16
}

func (e *SensorFaultError) Error() string {
	return fmt.Sprintf("pm2005: sensor fault likely (PM2.5=%d PM10=%d ug/m^3), check the 5V supply", e.PM2_5, e.PM10)
}

func (e *SensorFaultError) Unwrap() error {
	return ErrSensorFaultLikely
}
