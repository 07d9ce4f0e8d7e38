package pm2005

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Serial backends selectable in Settings.
const (
	BackendGoburrow = "goburrow"
	BackendBugst    = "bugst"
)

// Settings is the file configuration of the polling tool.
type Settings struct {
	Port            string        `yaml:"port"`
	Backend         string        `yaml:"backend"`
	BaudRate        int           `yaml:"baud_rate"`
	DataBits        int           `yaml:"data_bits"`
	StopBits        int           `yaml:"stop_bits"`
	Parity          string        `yaml:"parity"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	IdleTimeout     time.Duration `yaml:"idle_timeout"`
	ExchangeTimeout time.Duration `yaml:"exchange_timeout"`
	Interval        time.Duration `yaml:"interval"`
	Count           int           `yaml:"count"`
	Debug           bool          `yaml:"debug"`
	VerifyChecksum  bool          `yaml:"verify_checksum"`
}

// DefaultSettings returns settings for a sensor on /dev/ttyUSB0.
func DefaultSettings() Settings {
	return Settings{
		Port:            "/dev/ttyUSB0",
		Backend:         BackendGoburrow,
		BaudRate:        DefaultBaudRate,
		DataBits:        8,
		StopBits:        1,
		Parity:          "N",
		ReadTimeout:     serialTimeout,
		IdleTimeout:     serialIdleTimeout,
		ExchangeTimeout: DefaultExchangeTimeout,
		Interval:        time.Second,
	}
}

// LoadSettings reads a YAML file on top of DefaultSettings. Keys missing from
// the file keep their defaults.
func LoadSettings(path string) (Settings, error) {
	s := DefaultSettings()

	data, err := os.ReadFile(path)
	if err != nil {
		return s, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse config %s: %w", path, err)
	}
	return s.Normalize()
}

// Normalize validates the settings and applies defaults for unset values.
func (s Settings) Normalize() (Settings, error) {
	opts := s

	if strings.TrimSpace(opts.Port) == "" {
		return opts, fmt.Errorf("serial port is required")
	}

	switch strings.ToLower(strings.TrimSpace(opts.Backend)) {
	case "", BackendGoburrow:
		opts.Backend = BackendGoburrow
	case BackendBugst:
		opts.Backend = BackendBugst
	default:
		return opts, fmt.Errorf("unsupported backend %q: expected %s or %s", opts.Backend, BackendGoburrow, BackendBugst)
	}

	if opts.BaudRate <= 0 {
		opts.BaudRate = DefaultBaudRate
	}

	if opts.DataBits == 0 {
		opts.DataBits = 8
	}
	if opts.DataBits < 5 || opts.DataBits > 8 {
		return opts, fmt.Errorf("invalid data bits %d: must be between 5 and 8", opts.DataBits)
	}

	if opts.StopBits == 0 {
		opts.StopBits = 1
	}
	if opts.StopBits != 1 && opts.StopBits != 2 {
		return opts, fmt.Errorf("invalid stop bits %d: supported values are 1 or 2", opts.StopBits)
	}

	parity := strings.TrimSpace(strings.ToUpper(opts.Parity))
	switch parity {
	case "", "N", "NONE":
		parity = "N"
	case "E", "EVEN":
		parity = "E"
	case "O", "ODD":
		parity = "O"
	default:
		return opts, fmt.Errorf("unsupported parity %q: expected N, E, or O", opts.Parity)
	}
	opts.Parity = parity

	if opts.ReadTimeout < 0 || opts.IdleTimeout < 0 || opts.ExchangeTimeout < 0 {
		return opts, fmt.Errorf("timeouts must not be negative")
	}
	// a zero read timeout blocks reads and the exchange timeout could not end them
	if opts.ReadTimeout == 0 {
		opts.ReadTimeout = serialTimeout
	}
	if opts.Interval <= 0 {
		opts.Interval = time.Second
	}
	if opts.Count < 0 {
		return opts, fmt.Errorf("invalid count %d: must not be negative", opts.Count)
	}

	return opts, nil
}

// Handler builds the serial handler described by s.
func (s Settings) Handler(logger *log.Logger) *Handler {
	handler := NewHandler(s.Port)
	handler.BaudRate = s.BaudRate
	handler.DataBits = s.DataBits
	handler.StopBits = s.StopBits
	handler.Parity = s.Parity
	handler.Timeout = s.ReadTimeout
	handler.IdleTimeout = s.IdleTimeout
	handler.Logger = logger
	if s.Backend == BackendBugst {
		handler.Opener = OpenBugst
	}
	return handler
}

// Options returns the client options described by s. Debug output goes to diag.
func (s Settings) Options(logger *log.Logger, diag io.Writer) []Option {
	opts := []Option{
		WithTimeout(s.ExchangeTimeout),
		WithReplyChecksum(s.VerifyChecksum),
		WithLogger(logger),
	}
	if s.Debug && diag != nil {
		opts = append(opts, WithDiagnostics(diag))
	}
	return opts
}
