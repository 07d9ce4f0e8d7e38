// Copyright 2014 Quoc-Viet Nguyen. All rights reserved.
// This software may be modified and distributed under the terms
// of the BSD license. See the LICENSE file for details.

package pm2005

import (
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"github.com/goburrow/serial"
)

const (
	// serialTimeout is how long one read waits for bytes before reporting none.
	serialTimeout     = 100 * time.Millisecond
	serialIdleTimeout = 60 * time.Second
)

// PortOpener opens the underlying serial device described by c.
type PortOpener func(c *serial.Config) (io.ReadWriteCloser, error)

// Handler is a serial byte stream to the sensor. It connects on first use and
// closes itself after IdleTimeout without traffic.
type Handler struct {
	serialPort
}

// NewHandler allocates a Handler for address configured 9600 8N1.
func NewHandler(address string) *Handler {
	handler := &Handler{}
	handler.Address = address
	handler.BaudRate = DefaultBaudRate
	handler.DataBits = 8
	handler.StopBits = 1
	handler.Parity = "N"
	handler.Timeout = serialTimeout
	handler.IdleTimeout = serialIdleTimeout
	return handler
}

// serialPort has configuration and I/O controller.
type serialPort struct {
	// Serial port configuration.
	serial.Config

	Logger      *log.Logger
	IdleTimeout time.Duration
	// Opener defaults to goburrow/serial.
	Opener PortOpener

	mu sync.Mutex
	// port is platform-dependent data structure for serial port.
	port         io.ReadWriteCloser
	lastActivity time.Time
	closeTimer   *time.Timer
}

func openGoburrow(c *serial.Config) (io.ReadWriteCloser, error) {
	return serial.Open(c)
}

// Connect opens the port if it is not open yet.
func (mb *serialPort) Connect() (err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.connect()
}

// connect connects to the serial port if it is not connected. Caller must hold the mutex.
func (mb *serialPort) connect() error {
	if mb.port == nil {
		open := mb.Opener
		if open == nil {
			open = openGoburrow
		}
		port, err := open(&mb.Config)
		if err != nil {
			return err
		}
		mb.port = port
		mb.logf("serial: connected to %s", mb.Address)
	}
	return nil
}

// Close closes the port. A later Read or Write reconnects.
func (mb *serialPort) Close() (err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	return mb.close()
}

// close closes the serial port if it is connected. Caller must hold the mutex.
func (mb *serialPort) close() (err error) {
	if mb.port != nil {
		err = mb.port.Close()
		mb.port = nil
	}
	return
}

// Write sends p in one operation.
func (mb *serialPort) Write(p []byte) (n int, err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if err = mb.connect(); err != nil {
		return
	}
	mb.touch()

	mb.logf("serial: sending % x", p)
	return mb.port.Write(p)
}

// Read returns the bytes currently available. A read that times out returns
// zero bytes and no error.
func (mb *serialPort) Read(p []byte) (n int, err error) {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if err = mb.connect(); err != nil {
		return
	}
	mb.touch()

	n, err = mb.port.Read(p)
	if errors.Is(err, serial.ErrTimeout) {
		err = nil
	}
	if n > 0 {
		mb.logf("serial: received % x", p[:n])
	}
	return
}

// touch records activity and restarts the idle timer. Caller must hold the mutex.
func (mb *serialPort) touch() {
	mb.lastActivity = time.Now()
	mb.startCloseTimer()
}

func (mb *serialPort) logf(format string, v ...interface{}) {
	if mb.Logger != nil {
		mb.Logger.Printf(format, v...)
	}
}

func (mb *serialPort) startCloseTimer() {
	if mb.IdleTimeout <= 0 {
		return
	}
	if mb.closeTimer == nil {
		mb.closeTimer = time.AfterFunc(mb.IdleTimeout, mb.closeIdle)
	} else {
		mb.closeTimer.Reset(mb.IdleTimeout)
	}
}

// closeIdle closes the connection if last activity is passed behind IdleTimeout.
func (mb *serialPort) closeIdle() {
	mb.mu.Lock()
	defer mb.mu.Unlock()

	if mb.IdleTimeout <= 0 || mb.port == nil {
		return
	}
	idle := time.Since(mb.lastActivity)
	if idle >= mb.IdleTimeout {
		mb.logf("serial: closing connection due to idle timeout: %v", idle)
		mb.close()
	}
}
