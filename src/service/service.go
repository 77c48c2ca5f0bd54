package service

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/mosaicnetworks/hyparview/src/hpv"
	"github.com/mosaicnetworks/hyparview/src/peers"
	"github.com/sirupsen/logrus"
)

// DefaultViewsTimeout bounds the time spent waiting for the node to answer a
// views request.
const DefaultViewsTimeout = 2 * time.Second

// Node is the part of a node the service reads from.
type Node interface {
	Self() hpv.Peer
	Views(ctx context.Context) (hpv.Views, error)
	GetStats() map[string]string
}

// ViewsResponse is the JSON body of /views.
type ViewsResponse struct {
	Self       string   `json:"self"`
	Active     []string `json:"active"`
	Passive    []string `json:"passive"`
	MaxActive  int      `json:"max_active"`
	MaxPassive int      `json:"max_passive"`
}

// Service serves read-only information about a node over HTTP.
type Service struct {
	sync.Mutex // guards server

	bindAddress string
	node        Node
	contacts    peers.PeerStore
	mux         *http.ServeMux
	server      *http.Server
	logger      *logrus.Entry
}

// NewService ...
func NewService(bindAddress string, n Node, contacts peers.PeerStore, logger *logrus.Entry) *Service {
	service := Service{
		bindAddress: bindAddress,
		node:        n,
		contacts:    contacts,
		mux:         http.NewServeMux(),
		logger:      logger,
	}

	service.registerHandlers()

	return &service
}

func (s *Service) registerHandlers() {
	s.logger.Debug("Registering HyParView API handlers")
	s.mux.HandleFunc("/views", s.makeHandler(s.GetViews))
	s.mux.HandleFunc("/stats", s.makeHandler(s.GetStats))
	s.mux.HandleFunc("/peers", s.makeHandler(s.GetPeers))
}

func (s *Service) makeHandler(fn func(http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// enable CORS
		w.Header().Set("Access-Control-Allow-Origin", "*")

		if r.Method != http.MethodGet {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}

		fn(w, r)
	}
}

// Handler returns the handler serving the API.
func (s *Service) Handler() http.Handler {
	return s.mux
}

// Serve calls ListenAndServe. This is a blocking call.
func (s *Service) Serve() {
	s.logger.WithField("bind_address", s.bindAddress).Debug("Serving HyParView API")

	s.Lock()
	s.server = &http.Server{Addr: s.bindAddress, Handler: s.mux}
	server := s.server
	s.Unlock()

	err := server.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		s.logger.Error(err)
	}
}

// Shutdown stops the HTTP server, if it was started.
func (s *Service) Shutdown(ctx context.Context) error {
	s.Lock()
	server := s.server
	s.Unlock()

	if server == nil {
		return nil
	}
	return server.Shutdown(ctx)
}

// GetViews ...
func (s *Service) GetViews(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), DefaultViewsTimeout)
	defer cancel()

	views, err := s.node.Views(ctx)
	if err != nil {
		s.logger.WithError(err).Error("Retrieving views")

		http.Error(w, err.Error(), http.StatusServiceUnavailable)

		return
	}

	res := ViewsResponse{
		Self:       s.node.Self().Addr(),
		Active:     views.ActiveAddrs(),
		Passive:    views.PassiveAddrs(),
		MaxActive:  views.Active.Capacity(),
		MaxPassive: views.Passive.Capacity(),
	}

	writeJSON(w, res)
}

// GetStats ...
func (s *Service) GetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.node.GetStats())
}

// GetPeers returns the bootstrap contacts.
func (s *Service) GetPeers(w http.ResponseWriter, r *http.Request) {
	peerSet, err := s.contacts.PeerSet()
	if err != nil {
		s.logger.WithError(err).Error("Retrieving contacts")

		http.Error(w, err.Error(), http.StatusInternalServerError)

		return
	}

	writeJSON(w, peerSet.Peers)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")

	json.NewEncoder(w).Encode(v)
}
