package hyparview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/mosaicnetworks/hyparview/src/config"
	"github.com/mosaicnetworks/hyparview/src/net"
	"github.com/mosaicnetworks/hyparview/src/node"
	"github.com/mosaicnetworks/hyparview/src/peers"
	"github.com/mosaicnetworks/hyparview/src/service"
	"github.com/sirupsen/logrus"
)

// HyParView is a struct containing the key objects of a HyParView process:
// the transport, the node, the contacts and the HTTP service.
type HyParView struct {
	Config    *config.Config
	Node      *node.Node
	Transport net.Transport
	Contacts  peers.PeerStore
	Service   *service.Service

	logger *logrus.Entry

	doneCh       chan struct{}
	shutdownOnce sync.Once
}

// NewHyParView is a factory method to produce a HyParView instance.
func NewHyParView(c *config.Config) *HyParView {
	engine := &HyParView{
		Config: c,
		logger: c.Logger(),
		doneCh: make(chan struct{}),
	}

	return engine
}

// initTransport creates a TCP transport, unless one was already set, for
// instance an in-memory transport in tests.
func (h *HyParView) initTransport() error {
	if h.Transport != nil {
		return nil
	}

	transport, err := net.NewTCPTransport(
		h.Config.BindAddr,
		h.Config.AdvertiseAddr,
		h.Config.MaxPool,
		h.Config.TCPTimeout,
		h.logger.WithField("prefix", "net"),
	)
	if err != nil {
		return fmt.Errorf("creating transport: %w", err)
	}

	h.Transport = transport

	return nil
}

// initPeers gathers the contacts of the peers.json file in DataDir and those
// of the configuration.
func (h *HyParView) initPeers() error {
	jsonPeers := peers.NewJSONPeerSet(h.Config.DataDir)

	fromFile, err := jsonPeers.PeerSet()
	if err != nil {
		return fmt.Errorf("reading %s: %w", jsonPeers.Path(), err)
	}

	contacts := fromFile.Merge(peers.NewPeerSetFromAddrs(h.Config.Contacts))

	h.logger.WithFields(logrus.Fields{
		"file":     jsonPeers.Path(),
		"contacts": contacts.NetAddrs(),
	}).Debug("Contacts")

	h.Contacts = &peers.StaticPeers{StaticPeers: contacts.Peers}

	return nil
}

func (h *HyParView) initNode() error {
	contacts, err := h.Contacts.PeerSet()
	if err != nil {
		return err
	}

	h.Node = node.NewNode(h.Config.NodeConfig(), h.Transport)

	if err := h.Node.Init(contacts.NetAddrs()...); err != nil {
		return fmt.Errorf("failed to initialize node: %w", err)
	}

	return nil
}

func (h *HyParView) initService() {
	if !h.Config.NoService {
		h.Service = service.NewService(
			h.Config.ServiceAddr,
			h.Node,
			h.Contacts,
			h.logger.WithField("prefix", "service"),
		)
	}
}

// Init initializes the transport, the contacts, the node and the service, in
// that order.
func (h *HyParView) Init() error {
	if err := h.initPeers(); err != nil {
		return err
	}

	if err := h.initTransport(); err != nil {
		return err
	}

	if err := h.initNode(); err != nil {
		h.Transport.Close()
		return err
	}

	h.initService()

	return nil
}

// Run starts the service and the transport listener, joins the overlay
// through the first contact that is not this node, and runs the node until it
// is shut down.
func (h *HyParView) Run() {
	h.start()
	h.Node.Run()
}

// RunAsync is like Run but returns once the node is started.
func (h *HyParView) RunAsync() {
	h.start()
	h.Node.RunAsync()
}

func (h *HyParView) start() {
	if h.Service != nil {
		go h.Service.Serve()
	}

	go h.Transport.Listen()

	go h.logDiscoveries()

	if contact := h.joinContact(); contact != "" {
		if err := h.Node.Join(contact); err != nil {
			h.logger.WithError(err).WithField("contact", contact).Error("Joining")
		}
	} else {
		h.logger.Info("No contact to join through, waiting for other nodes")
	}
}

// joinContact returns the first contact that is not this node.
func (h *HyParView) joinContact() string {
	contacts, err := h.Contacts.PeerSet()
	if err != nil {
		h.logger.WithError(err).Error("Retrieving contacts")
		return ""
	}

	others := contacts.WithRemovedPeer(h.Transport.AdvertiseAddr())
	if others.Len() == 0 {
		return ""
	}

	return others.Peers[0].NetAddr
}

func (h *HyParView) logDiscoveries() {
	for {
		select {
		case p := <-h.Node.Discovered():
			h.logger.WithField("peer", p.Addr()).Info("Discovered peer")
		case <-h.doneCh:
			return
		}
	}
}

// Leave notifies the active peers and shuts down.
func (h *HyParView) Leave() {
	h.Node.Leave()
	h.shutdown()
}

// Shutdown shuts down the node and the service without notifying the active
// peers.
func (h *HyParView) Shutdown() {
	h.Node.Shutdown()
	h.shutdown()
}

func (h *HyParView) shutdown() {
	h.shutdownOnce.Do(func() {
		close(h.doneCh)

		if h.Service != nil {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			if err := h.Service.Shutdown(ctx); err != nil {
				h.logger.WithError(err).Error("Shutting down service")
			}
		}
	})
}
