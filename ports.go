package pm2005

import (
	"fmt"
	"io"

	"github.com/goburrow/serial"
	bugst "go.bug.st/serial"
)

// ListPorts returns the serial ports present on the system.
func ListPorts() ([]string, error) {
	return bugst.GetPortsList()
}

// OpenBugst is a PortOpener backed by go.bug.st/serial. With a positive
// c.Timeout a read returns zero bytes once the timeout passes.
func OpenBugst(c *serial.Config) (io.ReadWriteCloser, error) {
	mode, err := bugstMode(c)
	if err != nil {
		return nil, err
	}

	port, err := bugst.Open(c.Address, mode)
	if err != nil {
		return nil, err
	}
	if c.Timeout > 0 {
		if err := port.SetReadTimeout(c.Timeout); err != nil {
			port.Close()
			return nil, err
		}
	}
	return port, nil
}

// bugstMode converts the port configuration into the go.bug.st/serial mode.
func bugstMode(c *serial.Config) (*bugst.Mode, error) {
	mode := &bugst.Mode{
		BaudRate: c.BaudRate,
		DataBits: c.DataBits,
	}

	switch c.Parity {
	case "", "N":
		mode.Parity = bugst.NoParity
	case "E":
		mode.Parity = bugst.EvenParity
	case "O":
		mode.Parity = bugst.OddParity
	default:
		return nil, fmt.Errorf("unsupported parity %q", c.Parity)
	}

	switch c.StopBits {
	case 0, 1:
		mode.StopBits = bugst.OneStopBit
	case 2:
		mode.StopBits = bugst.TwoStopBits
	default:
		return nil, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", c.StopBits)
	}

	return mode, nil
}
