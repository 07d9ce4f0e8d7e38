package pm2005

import (
	"encoding/binary"
	"fmt"
)

const (
	// Version of the driver.
	Version = "1.0.0"
	// DefaultBaudRate is the only rate the sensor talks at.
	DefaultBaudRate = 9600

	// replyBufferSize bounds every reply the sensor sends.
	replyBufferSize = 32
)

// Command is a fixed request frame together with the exact length of its reply.
// Frames already carry their checksum byte.
type Command struct {
	Name     string
	frame    []byte
	ReplyLen int
}

// Frame returns a copy of the request bytes.
func (c Command) Frame() []byte {
	return append([]byte(nil), c.frame...)
}

func (c Command) String() string {
	return c.Name
}

// Request frames. Continuous mode is selected with the time value 0xFFFB,
// the datasheet value 0xFFFF does not start continuous measurements.
var (
	CommandClose          = Command{Name: "close", frame: []byte{0x11, 0x03, 0x0C, 0x01, 0x1E, 0xC1}, ReplyLen: 5}
	CommandReadSerial     = Command{Name: "read-serial", frame: []byte{0x11, 0x01, 0x1F, 0xCF}, ReplyLen: 14}
	CommandOpen           = Command{Name: "open", frame: []byte{0x11, 0x03, 0x0C, 0x02, 0x1E, 0xC0}, ReplyLen: 5}
	CommandContinuousMode = Command{Name: "set-continuous-mode", frame: []byte{0x11, 0x03, 0x0D, 0xFF, 0xFB, 0xE5}, ReplyLen: 6}
	CommandConcentration  = Command{Name: "read-counts-as-concentration", frame: []byte{0x11, 0x02, 0x0B, 0x01, 0xE1}, ReplyLen: 20}
	CommandParticleCounts = Command{Name: "read-counts-as-particle-counts", frame: []byte{0x11, 0x01, 0x0B, 0xE3}, ReplyLen: 20}
)

// Commands lists the whole command table.
func Commands() []Command {
	return []Command{
		CommandClose,
		CommandReadSerial,
		CommandOpen,
		CommandContinuousMode,
		CommandConcentration,
		CommandParticleCounts,
	}
}

// Reply offsets.
const (
	offsetCommand = 2 // echo of the request's command code

	offsetCounts0_5um = 3
	offsetCounts2_5um = 7
	offsetCounts10um  = 11

	offsetPM2_5       = 5
	offsetPM10        = 9
	offsetAlarm       = 15
	offsetReserved    = 16 // present on the wire, meaning unknown
	offsetCalibration = 17
	offsetWorkStatus  = 18
)

// Checksum returns the byte that makes the sum of data plus itself zero modulo 256.
func Checksum(data []byte) byte {
	sum := byte(0)
	for _, b := range data {
		sum += b
	}
	return -sum
}

// Verify checks the reply length and its trailing checksum byte.
func Verify(cmd Command, reply []byte) error {
	if len(reply) != cmd.ReplyLen {
		return fmt.Errorf("pm2005: %s reply length '%v' does not match expected '%v'", cmd.Name, len(reply), cmd.ReplyLen)
	}
	if sum := Checksum(reply); sum != 0 {
		return &ChecksumError{Command: cmd.Name, Sum: -sum}
	}
	return nil
}

// ParticleCounts holds the particle-count part of a reading, in particles per liter.
type ParticleCounts struct {
	Counts0_5um uint32
	Counts2_5um uint32
	Counts10um  uint32
}

// Concentration holds the mass-concentration part of a reading and the status bytes
// delivered along with it.
type Concentration struct {
	PM2_5       uint16
	PM10        uint16
	Alarm       AlarmFlags
	Calibration CalibrationFlags
	WorkStatus  WorkStatus
}

// DecodeParticleCounts decodes a particle-count reply. Counts are big-endian.
func DecodeParticleCounts(reply []byte) (ParticleCounts, error) {
	if len(reply) < CommandParticleCounts.ReplyLen {
		return ParticleCounts{}, fmt.Errorf("pm2005: particle count reply too short: %d bytes", len(reply))
	}
	return ParticleCounts{
		Counts0_5um: binary.BigEndian.Uint32(reply[offsetCounts0_5um:]),
		Counts2_5um: binary.BigEndian.Uint32(reply[offsetCounts2_5um:]),
		Counts10um:  binary.BigEndian.Uint32(reply[offsetCounts10um:]),
	}, nil
}

// DecodeConcentration decodes a concentration reply. Concentrations are little-endian.
func DecodeConcentration(reply []byte) (Concentration, error) {
	if len(reply) < CommandConcentration.ReplyLen {
		return Concentration{}, fmt.Errorf("pm2005: concentration reply too short: %d bytes", len(reply))
	}
	return Concentration{
		PM2_5:       binary.LittleEndian.Uint16(reply[offsetPM2_5:]),
		PM10:        binary.LittleEndian.Uint16(reply[offsetPM10:]),
		Alarm:       AlarmFlags(reply[offsetAlarm]),
		Calibration: CalibrationFlags(reply[offsetCalibration]),
		WorkStatus:  WorkStatus(reply[offsetWorkStatus]),
	}, nil
}
