package peers

import (
	"errors"
	"io/ioutil"
	"os"
	"path/filepath"
	"sync"
)

const jsonPeerSetPath = "peers.json"

// PeerStore provides access to a list of contacts.
type PeerStore interface {
	PeerSet() (*PeerSet, error)
	Write([]*Peer) error
}

// JSONPeerSet is used to provide peer persistence on disk in the form of a JSON
// file. This allows human operators to manipulate the file.
type JSONPeerSet struct {
	l    sync.Mutex
	path string
}

// NewJSONPeerSet creates a new JSONPeerSet with reference to a base directory
// where the JSON file resides.
func NewJSONPeerSet(base string) *JSONPeerSet {
	return &JSONPeerSet{
		path: filepath.Join(base, jsonPeerSetPath),
	}
}

// Path returns the location of the JSON file.
func (j *JSONPeerSet) Path() string {
	return j.path
}

// PeerSet parses the underlying JSON file and returns the corresponding
// PeerSet. A missing or empty file yields an empty PeerSet; contacts are
// optional.
func (j *JSONPeerSet) PeerSet() (*PeerSet, error) {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := ioutil.ReadFile(j.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewPeerSet(nil), nil
	}
	if err != nil {
		return nil, err
	}

	if len(buf) == 0 {
		return NewPeerSet(nil), nil
	}

	return NewPeerSetFromPeerSliceBytes(buf)
}

// Write persists a list of peers to the JSON file.
func (j *JSONPeerSet) Write(peers []*Peer) error {
	j.l.Lock()
	defer j.l.Unlock()

	buf, err := NewPeerSet(peers).Marshal()
	if err != nil {
		return err
	}

	return ioutil.WriteFile(j.path, buf, 0644)
}
