package config

import (
	"os"
	"os/user"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/mosaicnetworks/hyparview/src/common"
	"github.com/mosaicnetworks/hyparview/src/hpv"
	"github.com/mosaicnetworks/hyparview/src/node"
	"github.com/sirupsen/logrus"
	prefixed "github.com/x-cray/logrus-prefixed-formatter"
)

// Default configuration values.
const (
	DefaultLogLevel      = "debug"
	DefaultBindAddr      = "127.0.0.1:6000"
	DefaultServiceAddr   = "127.0.0.1:8000"
	DefaultTCPTimeout    = 1000 * time.Millisecond
	DefaultMaxPool       = 2
	DefaultMailboxSize   = node.DefaultMailboxSize
	DefaultDiscoverySize = node.DefaultDiscoverySize
)

// Config contains all the configuration properties of a HyParView process.
type Config struct {
	// DataDir is the top-level directory containing the configuration file and
	// the peers.json file.
	DataDir string `mapstructure:"datadir"`

	// LogLevel determines the chattiness of the log output.
	LogLevel string `mapstructure:"log"`

	// BindAddr is the local address:port where this node receives protocol
	// messages.
	BindAddr string `mapstructure:"listen"`

	// AdvertiseAddr is used to change the address that we advertise to other
	// nodes. It defaults to BindAddr.
	AdvertiseAddr string `mapstructure:"advertise"`

	// NoService disables the HTTP API service.
	NoService bool `mapstructure:"no-service"`

	// ServiceAddr is the address:port of the HTTP service.
	ServiceAddr string `mapstructure:"service-listen"`

	// MaxPool controls how many outbound connections are pooled per target.
	MaxPool int `mapstructure:"max-pool"`

	// TCPTimeout is the timeout of outbound connections and writes.
	TCPTimeout time.Duration `mapstructure:"timeout"`

	// Contacts are addresses to join the overlay through, in addition to those
	// of the peers.json file.
	Contacts []string `mapstructure:"join"`

	// Moniker defines the friendly name of this node
	Moniker string `mapstructure:"moniker"`

	// MailboxSize is the number of locally submitted messages that can wait
	// for the node.
	MailboxSize int `mapstructure:"mailbox-size"`

	// DiscoverySize is the capacity of the discovery channel.
	DiscoverySize int `mapstructure:"discovery-size"`

	// HPV contains the protocol parameters.
	HPV hpv.Config `mapstructure:",squash"`

	logger *logrus.Logger
}

// NewDefaultConfig returns a config object with default values.
func NewDefaultConfig() *Config {
	config := &Config{
		DataDir:       DefaultDataDir(),
		LogLevel:      DefaultLogLevel,
		BindAddr:      DefaultBindAddr,
		ServiceAddr:   DefaultServiceAddr,
		MaxPool:       DefaultMaxPool,
		TCPTimeout:    DefaultTCPTimeout,
		MailboxSize:   DefaultMailboxSize,
		DiscoverySize: DefaultDiscoverySize,
		HPV:           hpv.DefaultConfig(),
	}

	return config
}

// NewTestConfig returns a config object with default values and a special
// logger for debugging tests.
func NewTestConfig(t testing.TB, level logrus.Level) *Config {
	config := NewDefaultConfig()
	config.logger = common.NewTestLogger(t, level)
	return config
}

// NodeConfig extracts the parameters of the node.
func (c *Config) NodeConfig() *node.Config {
	return node.NewConfig(c.HPV, c.MailboxSize, c.DiscoverySize, c.Logger().Logger)
}

// Logger returns a formatted logrus Entry, with prefix set to "hyparview".
func (c *Config) Logger() *logrus.Entry {
	if c.logger == nil {
		c.logger = logrus.New()
		c.logger.Level = LogLevel(c.LogLevel)
		c.logger.Formatter = new(prefixed.TextFormatter)
	}
	return c.logger.WithField("prefix", "hyparview")
}

// ApplyLogLevel sets the level of an existing logger to LogLevel, for when
// LogLevel changes after Logger was first called.
func (c *Config) ApplyLogLevel() {
	if c.logger != nil {
		c.logger.Level = LogLevel(c.LogLevel)
	}
}

// DefaultDataDir return the default directory name for top-level HyParView
// config based on the underlying OS, attempting to respect conventions.
func DefaultDataDir() string {
	home := HomeDir()
	if home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, ".HyParView")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "HyParView")
		} else {
			return filepath.Join(home, ".hyparview")
		}
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

// HomeDir returns the user's home directory.
func HomeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}

// LogLevel parses a string into a Logrus log level.
func LogLevel(l string) logrus.Level {
	switch l {
	case "debug":
		return logrus.DebugLevel
	case "info":
		return logrus.InfoLevel
	case "warn":
		return logrus.WarnLevel
	case "error":
		return logrus.ErrorLevel
	case "fatal":
		return logrus.FatalLevel
	case "panic":
		return logrus.PanicLevel
	default:
		return logrus.DebugLevel
	}
}
