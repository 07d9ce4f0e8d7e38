package pm2005

import (
	"errors"
	"sync"
)

// errReplyPending is returned for a request sent before the previous reply was read.
var errReplyPending = errors.New("mock: request written while a reply is pending")

// mockPort simulates the sensor side of the serial link. Every write queues
// the reply registered for that request frame; a write arriving before the
// previous reply has been read is refused.
type mockPort struct {
	mu sync.Mutex

	replies map[string][]byte
	written [][]byte
	pending []byte

	// dribble delivers one byte per Read
	dribble bool
	// stall swallows requests and never answers
	stall bool

	writeErr error
	readErr  error
	shortN   int
	reads    int
}

func newMockPort() *mockPort {
	return &mockPort{replies: make(map[string][]byte)}
}

func (m *mockPort) reply(cmd Command, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.replies[string(cmd.frame)] = data
}

func (m *mockPort) Write(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.writeErr != nil {
		return 0, m.writeErr
	}
	if len(m.pending) > 0 {
		return 0, errReplyPending
	}
	m.written = append(m.written, append([]byte(nil), p...))
	if m.shortN > 0 {
		return m.shortN, nil
	}
	if !m.stall {
		m.pending = append(m.pending, m.replies[string(p)]...)
	}
	return len(p), nil
}

func (m *mockPort) Read(p []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.reads++
	if m.readErr != nil {
		return 0, m.readErr
	}
	if len(m.pending) == 0 {
		return 0, nil
	}
	want := len(p)
	if m.dribble && want > 1 {
		want = 1
	}
	n := copy(p[:want], m.pending)
	m.pending = m.pending[n:]
	return n, nil
}

func (m *mockPort) writes() [][]byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]byte(nil), m.written...)
}

// sealed pads data to n bytes and sets the last byte so all bytes sum to zero.
func sealed(n int, data ...byte) []byte {
	out := make([]byte, n)
	copy(out, data)
	out[n-1] = Checksum(out[:n-1])
	return out
}

// countsReply builds a particle-count reply carrying the given counts.
func countsReply(c05, c25, c10 uint32) []byte {
	r := make([]byte, 19)
	r[0], r[1], r[2] = 0x16, 0x11, 0x0B
	put32 := func(off int, v uint32) {
		r[off], r[off+1], r[off+2], r[off+3] = byte(v>>24), byte(v>>16), byte(v>>8), byte(v)
	}
	put32(3, c05)
	put32(7, c25)
	put32(11, c10)
	return sealed(20, r...)
}

// concentrationReply builds a concentration reply.
func concentrationReply(pm25, pm10 uint16, alarm, reserved, calib, status byte) []byte {
	r := make([]byte, 19)
	r[0], r[1], r[2] = 0x16, 0x11, 0x0B
	r[5], r[6] = byte(pm25), byte(pm25>>8)
	r[9], r[10] = byte(pm10), byte(pm10>>8)
	r[15], r[16], r[17], r[18] = alarm, reserved, calib, status
	return sealed(20, r...)
}

// bringUp registers valid replies for the initialization sequence.
func bringUp(m *mockPort) {
	m.reply(CommandClose, sealed(5, 0x16, 0x02, 0x0C, 0x01))
	m.reply(CommandReadSerial, sealed(14, 0x16, 0x0B, 0x1F))
	m.reply(CommandContinuousMode, sealed(6, 0x16, 0x03, 0x0D, 0xFF, 0xFB))
	m.reply(CommandOpen, sealed(5, 0x16, 0x02, 0x0C, 0x02))
}

// inject queues bytes as if they arrived late on the wire.
func (m *mockPort) inject(data ...byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = append(m.pending, data...)
}
