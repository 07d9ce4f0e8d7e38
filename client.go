// Package pm2005 drives the PM2005 laser particle sensor over a 9600 baud
// serial link in continuous-measurement mode.
package pm2005

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Reading is the decoded result of one measurement cycle.
type Reading struct {
	ParticleCounts
	Concentration
}

// Fault returns a *SensorFaultError when either concentration carries the
// insufficient-supply sentinel, nil otherwise.
func (r Reading) Fault() error {
	if r.PM2_5 == FaultConcentration || r.PM10 == FaultConcentration {
		return &SensorFaultError{PM2_5: r.PM2_5, PM10: r.PM10}
	}
	return nil
}

// Client drives a PM2005 over a byte stream in continuous-measurement mode.
//
// Client is safe for concurrent use; exchanges are serialized.
type Client struct {
	port   io.ReadWriter
	config Config

	mu      sync.Mutex
	buf     [replyBufferSize]byte
	reading Reading
	valid   bool
}

// New creates a Client talking to the sensor through port. No I/O happens here.
//
// Example:
//
//	handler := pm2005.NewHandler("/dev/ttyUSB0")
//	client := pm2005.New(handler, pm2005.WithDiagnostics(os.Stderr))
func New(port io.ReadWriter, opts ...Option) *Client {
	if port == nil {
		panic("port cannot be nil")
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Client{
		port:   port,
		config: cfg,
	}
}

// Initialize brings the sensor into continuous-measurement mode:
//  1. close, so the mode becomes configurable
//  2. read the serial number, used only as a liveness probe
//  3. select continuous mode
//  4. open, to re-arm measurement
//
// Reply payloads are not interpreted; each step waits for its reply length and
// checks only the echoed command byte.
func (c *Client) Initialize(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	steps := []Command{
		CommandClose,
		CommandReadSerial,
		CommandContinuousMode,
		CommandOpen,
	}
	for _, cmd := range steps {
		if _, err := c.exchange(ctx, cmd); err != nil {
			return fmt.Errorf("initialize: %w", err)
		}
		c.logf("pm2005: %s done", cmd.Name)
	}
	return nil
}

// Measure reads particle counts, then concentrations, and replaces the stored
// reading only when both exchanges succeed.
//
// A reading carrying the fault sentinel is still returned and stored; check
// Reading.Fault before trusting it.
func (c *Client) Measure(ctx context.Context) (Reading, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	reply, err := c.exchange(ctx, CommandParticleCounts)
	if err != nil {
		return Reading{}, fmt.Errorf("measure: %w", err)
	}
	counts, err := DecodeParticleCounts(reply)
	if err != nil {
		return Reading{}, fmt.Errorf("measure: %w", err)
	}

	reply, err = c.exchange(ctx, CommandConcentration)
	if err != nil {
		return Reading{}, fmt.Errorf("measure: %w", err)
	}
	conc, err := DecodeConcentration(reply)
	if err != nil {
		return Reading{}, fmt.Errorf("measure: %w", err)
	}

	r := Reading{ParticleCounts: counts, Concentration: conc}
	c.reading = r
	c.valid = true

	if err := r.Fault(); err != nil {
		c.logf("%v", err)
	}
	return r, nil
}

// Reading returns the latest complete reading. ok is false until Measure has
// succeeded once.
func (c *Client) Reading() (r Reading, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.reading, c.valid
}

// exchange writes the request frame and polls the port until exactly
// cmd.ReplyLen bytes have been received. Caller must hold the mutex.
// The returned slice aliases the reply buffer and is only valid until the next exchange.
func (c *Client) exchange(ctx context.Context, cmd Command) ([]byte, error) {
	if c.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.config.Timeout)
		defer cancel()
	}

	if err := c.drain(ctx, cmd); err != nil {
		return nil, err
	}

	n, err := c.port.Write(cmd.frame)
	if err != nil {
		return nil, &TransportError{Command: cmd.Name, Op: "write", Err: err}
	}
	if n != len(cmd.frame) {
		return nil, &TransportError{Command: cmd.Name, Op: "write", Err: io.ErrShortWrite}
	}

	reply := c.buf[:cmd.ReplyLen]
	received := 0
	for received < len(reply) {
		if err := ctx.Err(); err != nil {
			return nil, waitError(cmd, received, err)
		}
		n, err := c.port.Read(reply[received:])
		received += n
		if err != nil && !isPollTimeout(err) {
			return nil, &TransportError{Command: cmd.Name, Op: "read", Err: err}
		}
		if n == 0 {
			if err := c.idle(ctx); err != nil {
				return nil, waitError(cmd, received, err)
			}
		}
	}

	if c.config.Diagnostics != nil {
		fmt.Fprint(c.config.Diagnostics, "pm2005: ", HexDump(reply))
	}
	if reply[offsetCommand] != cmd.frame[offsetCommand] {
		return nil, fmt.Errorf("%s: reply command 0x%02X, expected 0x%02X: %w",
			cmd.Name, reply[offsetCommand], cmd.frame[offsetCommand], ErrDesync)
	}
	if c.config.VerifyChecksum {
		if err := Verify(cmd, reply); err != nil {
			return nil, err
		}
	}
	return reply, nil
}

// drain discards bytes left on the port, such as the tail of a reply that
// arrived after its exchange timed out. It returns once a poll yields nothing.
// Caller must hold the mutex.
func (c *Client) drain(ctx context.Context, cmd Command) error {
	discarded := 0
	for {
		if err := ctx.Err(); err != nil {
			return waitError(cmd, 0, err)
		}
		n, err := c.port.Read(c.buf[:])
		discarded += n
		if err != nil && !isPollTimeout(err) {
			return &TransportError{Command: cmd.Name, Op: "read", Err: err}
		}
		if n == 0 {
			break
		}
	}
	if discarded > 0 {
		c.logf("pm2005: %s: discarded %d stale bytes", cmd.Name, discarded)
	}
	return nil
}

// idle waits one poll interval or until ctx is done.
func (c *Client) idle(ctx context.Context) error {
	t := time.NewTimer(c.config.PollInterval)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) logf(format string, v ...interface{}) {
	if c.config.Logger != nil {
		c.config.Logger.Printf(format, v...)
	}
}

func waitError(cmd Command, received int, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: received %d of %d bytes: %w", cmd.Name, received, cmd.ReplyLen, ErrTimeout)
	}
	return fmt.Errorf("%s: %w", cmd.Name, err)
}

// isPollTimeout reports whether a read error only means no bytes were available yet.
func isPollTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var t interface{ Timeout() bool }
	return errors.As(err, &t) && t.Timeout()
}
