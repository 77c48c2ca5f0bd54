package hpv

import (
	"sort"

	"github.com/mosaicnetworks/hyparview/src/common"
)

// Views is a copy of the active and passive views of a node at the time it was
// captured.
type Views struct {
	Active  *common.BoundedSet[Peer]
	Passive *common.BoundedSet[Peer]
}

func newViews(h *HyParView) Views {
	return Views{
		Active:  h.activeView.Clone(),
		Passive: h.passiveView.Clone(),
	}
}

// Equal reports whether both snapshots contain the same views.
func (v Views) Equal(other Views) bool {
	return v.Active.Equal(other.Active) && v.Passive.Equal(other.Passive)
}

// ActiveAddrs returns the sorted addresses of the active peers.
func (v Views) ActiveAddrs() []string {
	return sortedAddrs(v.Active)
}

// PassiveAddrs returns the sorted addresses of the passive peers.
func (v Views) PassiveAddrs() []string {
	return sortedAddrs(v.Passive)
}

func sortedAddrs(s *common.BoundedSet[Peer]) []string {
	res := Addrs(s.Elements())
	sort.Strings(res)
	return res
}
