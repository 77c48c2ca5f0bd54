package node

import (
	"testing"

	"github.com/mosaicnetworks/hyparview/src/common"
	"github.com/mosaicnetworks/hyparview/src/hpv"
	"github.com/sirupsen/logrus"
)

// Default sizes of the node channels.
const (
	DefaultMailboxSize   = 64
	DefaultDiscoverySize = 64
)

// Config contains the parameters of a Node.
type Config struct {
	// HPV holds the protocol parameters.
	HPV hpv.Config `mapstructure:",squash"`

	// MailboxSize is the number of locally submitted messages that can wait
	// for the run loop.
	MailboxSize int `mapstructure:"mailbox-size"`

	// DiscoverySize is the capacity of the discovery channel. Discoveries are
	// dropped when nobody consumes them.
	DiscoverySize int `mapstructure:"discovery-size"`

	Logger *logrus.Logger `mapstructure:"-"`
}

// NewConfig creates a node Config.
func NewConfig(hpvConf hpv.Config,
	mailboxSize int,
	discoverySize int,
	logger *logrus.Logger) *Config {

	return &Config{
		HPV:           hpvConf,
		MailboxSize:   mailboxSize,
		DiscoverySize: discoverySize,
		Logger:        logger,
	}
}

// DefaultConfig returns a node Config with default values.
func DefaultConfig() *Config {
	logger := logrus.New()
	logger.Level = logrus.DebugLevel

	return &Config{
		HPV:           hpv.DefaultConfig(),
		MailboxSize:   DefaultMailboxSize,
		DiscoverySize: DefaultDiscoverySize,
		Logger:        logger,
	}
}

// TestConfig returns a default Config that logs through t.
func TestConfig(t testing.TB) *Config {
	config := DefaultConfig()
	config.Logger = common.NewTestLogger(t, common.TestLogLevel)
	return config
}
