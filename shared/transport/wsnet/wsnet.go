// Package wsnet carries transport packets over necs websockets.
//
// necs routes messages through package-level handlers, so a process may hold
// one Server or one Client, not both.
package wsnet

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/automoto/driftline/shared/transport"
	"github.com/coder/websocket"
	"github.com/leap-fish/necs/router"
	"github.com/leap-fish/necs/transports"
)

// Datagram wraps one packet. Websockets are ordered and reliable, so every
// delivery mode maps onto the same stream; the mode travels along for logging.
type Datagram struct {
	Mode    uint8
	Payload []byte
}

var ErrNotConnected = errors.New("wsnet: not connected")

// queue collects events from necs goroutines until the owner polls.
type queue struct {
	mu     sync.Mutex
	events []transport.Event
}

func (q *queue) push(e transport.Event) {
	q.mu.Lock()
	q.events = append(q.events, e)
	q.mu.Unlock()
}

func (q *queue) drain() []transport.Event {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.events
	q.events = nil
	return out
}

// Server accepts websocket clients. Peers are addressed by their necs client id.
type Server struct {
	port uint
	ws   *transports.WsServerTransport
	q    queue

	mu      sync.RWMutex
	clients map[string]*router.NetworkClient
}

var _ transport.Transport = (*Server)(nil)

// NewServer registers the necs handlers for a server listening on port.
func NewServer(port uint) *Server {
	s := &Server{
		port:    port,
		clients: make(map[string]*router.NetworkClient),
	}

	router.OnConnect(func(client *router.NetworkClient) {
		s.mu.Lock()
		s.clients[client.Id()] = client
		s.mu.Unlock()
		s.q.push(transport.Event{Kind: transport.Connect, Addr: client.Id()})
	})

	router.OnDisconnect(func(client *router.NetworkClient, err error) {
		s.mu.Lock()
		delete(s.clients, client.Id())
		s.mu.Unlock()
		kind := transport.Disconnect
		if errors.Is(err, context.DeadlineExceeded) {
			kind = transport.Timeout
		}
		s.q.push(transport.Event{Kind: kind, Addr: client.Id()})
	})

	router.On(func(client *router.NetworkClient, d Datagram) {
		s.q.push(transport.Event{Kind: transport.Packet, Addr: client.Id(), Payload: d.Payload})
	})

	router.OnError(func(client *router.NetworkClient, err error) {
		log.Printf("[wsnet] client %s error: %v", client.Id(), err)
	})

	return s
}

// ListenAndServe blocks serving websocket connections.
func (s *Server) ListenAndServe() error {
	s.ws = transports.NewWsServerTransport(s.port, "", nil)
	return s.ws.Start()
}

func (s *Server) Send(addr string, payload []byte, mode transport.DeliveryMode) error {
	s.mu.RLock()
	client, ok := s.clients[addr]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", transport.ErrUnknownPeer, addr)
	}
	return client.SendMessage(Datagram{Mode: uint8(mode), Payload: payload})
}

func (s *Server) Poll() []transport.Event {
	return s.q.drain()
}

// Close forgets every peer and the necs handlers. The listener itself lives
// until the process exits.
func (s *Server) Close() error {
	s.mu.Lock()
	clear(s.clients)
	s.mu.Unlock()
	router.ResetRouter()
	return nil
}

// Client dials a server and reports it as a single peer addressed by the
// dialed address.
type Client struct {
	addr string
	q    queue

	mu   sync.RWMutex
	conn *websocket.Conn
}

var _ transport.Transport = (*Client)(nil)

// Dial connects to address ("host:port") in the background. Connect is
// reported through Poll once the socket is up.
func Dial(address string) *Client {
	c := &Client{addr: address}

	router.OnConnect(func(_ *router.NetworkClient) {
		log.Printf("[wsnet] connected to %s", address)
		c.q.push(transport.Event{Kind: transport.Connect, Addr: address})
	})

	router.On(func(_ *router.NetworkClient, d Datagram) {
		c.q.push(transport.Event{Kind: transport.Packet, Addr: address, Payload: d.Payload})
	})

	router.OnDisconnect(func(_ *router.NetworkClient, err error) {
		log.Printf("[wsnet] disconnected: %v", err)
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		c.q.push(transport.Event{Kind: transport.Disconnect, Addr: address})
	})

	router.OnError(func(_ *router.NetworkClient, err error) {
		log.Printf("[wsnet] error: %v", err)
	})

	go func() {
		ws := transports.NewWsClientTransport("ws://" + address)
		err := ws.Start(func(conn *websocket.Conn) {
			c.mu.Lock()
			c.conn = conn
			c.mu.Unlock()
		})
		if err != nil {
			log.Printf("[wsnet] connection to %s failed: %v", address, err)
			c.q.push(transport.Event{Kind: transport.Disconnect, Addr: address})
		}
	}()

	return c
}

// Addr is the server address packets are sent to.
func (c *Client) Addr() string {
	return c.addr
}

func (c *Client) Send(addr string, payload []byte, mode transport.DeliveryMode) error {
	if addr != c.addr {
		return fmt.Errorf("%w: %s", transport.ErrUnknownPeer, addr)
	}
	c.mu.RLock()
	conn := c.conn
	c.mu.RUnlock()
	if conn == nil {
		return ErrNotConnected
	}

	msg, err := router.Serialize(Datagram{Mode: uint8(mode), Payload: payload})
	if err != nil {
		return fmt.Errorf("serialize: %w", err)
	}
	return conn.Write(context.Background(), websocket.MessageBinary, msg)
}

func (c *Client) Poll() []transport.Event {
	return c.q.drain()
}

// Close drops the connection and the necs handlers.
func (c *Client) Close() error {
	c.mu.Lock()
	conn := c.conn
	c.conn = nil
	c.mu.Unlock()

	router.ResetRouter()
	if conn != nil {
		return conn.CloseNow()
	}
	return nil
}
