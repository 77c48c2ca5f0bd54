package hpv

import (
	"fmt"
	"time"
)

// Default protocol parameters.
const (
	DefaultMaxActiveViewSize  = 4
	DefaultMaxPassiveViewSize = 4
	DefaultActiveRWL          = 3
	DefaultPassiveRWL         = 2
	DefaultShuffleRWL         = 1
	DefaultShuffleActive      = 2
	DefaultShufflePassive     = 2
	DefaultShuffleInterval    = 30 * time.Second
)

// Config contains the tunable parameters of the HyParView protocol.
type Config struct {
	// MaxActiveViewSize is the capacity of the active view.
	MaxActiveViewSize int `mapstructure:"active-size"`

	// MaxPassiveViewSize is the capacity of the passive view.
	MaxPassiveViewSize int `mapstructure:"passive-size"`

	// ActiveRWL (Active Random Walk Length) is the number of hops a
	// ForwardJoin travels before the joining node is forcibly included in an
	// active view.
	ActiveRWL int `mapstructure:"arwl"`

	// PassiveRWL (Passive Random Walk Length) is the TTL at which a forwarded
	// join is also offered to the passive view of the node it traverses.
	PassiveRWL int `mapstructure:"prwl"`

	// ShuffleRWL is the TTL of the Shuffle messages initiated by this node.
	ShuffleRWL int `mapstructure:"shuffle-rwl"`

	// ShuffleActive is the number of active peers included in a shuffle.
	ShuffleActive int `mapstructure:"shuffle-active"`

	// ShufflePassive is the number of passive peers included in a shuffle.
	ShufflePassive int `mapstructure:"shuffle-passive"`

	// ShuffleInterval is the period of the shuffle timer.
	ShuffleInterval time.Duration `mapstructure:"shuffle-interval"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		MaxActiveViewSize:  DefaultMaxActiveViewSize,
		MaxPassiveViewSize: DefaultMaxPassiveViewSize,
		ActiveRWL:          DefaultActiveRWL,
		PassiveRWL:         DefaultPassiveRWL,
		ShuffleRWL:         DefaultShuffleRWL,
		ShuffleActive:      DefaultShuffleActive,
		ShufflePassive:     DefaultShufflePassive,
		ShuffleInterval:    DefaultShuffleInterval,
	}
}

// Validate checks that the parameters are usable.
func (c Config) Validate() error {
	switch {
	case c.MaxActiveViewSize < 0:
		return fmt.Errorf("negative active view size: %d", c.MaxActiveViewSize)
	case c.MaxPassiveViewSize < 0:
		return fmt.Errorf("negative passive view size: %d", c.MaxPassiveViewSize)
	case c.ActiveRWL < 0, c.PassiveRWL < 0, c.ShuffleRWL < 0:
		return fmt.Errorf("negative random walk length: arwl=%d prwl=%d shuffle-rwl=%d",
			c.ActiveRWL, c.PassiveRWL, c.ShuffleRWL)
	case c.PassiveRWL > c.ActiveRWL:
		return fmt.Errorf("prwl (%d) must not exceed arwl (%d)", c.PassiveRWL, c.ActiveRWL)
	case c.ShuffleActive < 0, c.ShufflePassive < 0:
		return fmt.Errorf("negative shuffle sample size: active=%d passive=%d",
			c.ShuffleActive, c.ShufflePassive)
	case c.ShuffleInterval < 0:
		return fmt.Errorf("negative shuffle interval: %v", c.ShuffleInterval)
	}
	return nil
}
