package hpv

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	conf := DefaultConfig()

	if err := conf.Validate(); err != nil {
		t.Fatalf("Default config should be valid: %v", err)
	}

	if conf.MaxActiveViewSize != 4 || conf.MaxPassiveViewSize != 4 {
		t.Fatalf("Unexpected view sizes: %d, %d", conf.MaxActiveViewSize, conf.MaxPassiveViewSize)
	}

	if conf.ActiveRWL != 3 || conf.PassiveRWL != 2 || conf.ShuffleRWL != 1 {
		t.Fatalf("Unexpected walk lengths: %d, %d, %d", conf.ActiveRWL, conf.PassiveRWL, conf.ShuffleRWL)
	}

	if conf.ShuffleInterval != 30*time.Second {
		t.Fatalf("Unexpected shuffle interval: %v", conf.ShuffleInterval)
	}
}

func TestValidateConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"negative active size":  func(c *Config) { c.MaxActiveViewSize = -1 },
		"negative passive size": func(c *Config) { c.MaxPassiveViewSize = -1 },
		"negative arwl":         func(c *Config) { c.ActiveRWL = -1 },
		"prwl exceeds arwl":     func(c *Config) { c.PassiveRWL = c.ActiveRWL + 1 },
		"negative sample":       func(c *Config) { c.ShufflePassive = -2 },
		"negative interval":     func(c *Config) { c.ShuffleInterval = -time.Second },
	}

	for name, mutate := range cases {
		conf := DefaultConfig()
		mutate(&conf)
		if err := conf.Validate(); err == nil {
			t.Fatalf("%s: expected an error", name)
		}
	}
}

func TestMessageTypes(t *testing.T) {
	msgs := []Message{
		Inspect{}, InitiateJoin{}, Join{}, ForwardJoin{}, Neighbour{},
		NeighbourReply{}, Shuffle{}, ShuffleReply{}, Disconnect{},
		ShuffleTick{}, Reconfigure{},
	}

	seen := make(map[MessageType]bool)
	for _, m := range msgs {
		if seen[m.Type()] {
			t.Fatalf("duplicate message type %s", m.Type())
		}
		seen[m.Type()] = true

		if m.Type().String() == "Unknown" {
			t.Fatalf("message type %d has no name", m.Type())
		}
	}
}
