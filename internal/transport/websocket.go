// SPDX-License-Identifier: MIT
package transport

import (
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	applog "loopcheck/internal/log"

	"github.com/gorilla/websocket"
)

const (
	broadcastQueue = 256
	historyLimit   = 512
	flushTimeout   = time.Second
)

// flushMarker is queued by Close and closed by the broadcast loop once every
// event queued before it has been written.
type flushMarker chan struct{}

// WebSocketTransport broadcasts every event as JSON to all clients connected
// on /ws. Clients that connect mid-run first receive the events sent so far.
type WebSocketTransport struct {
	addr      string
	upgrader  websocket.Upgrader
	clients   map[*websocket.Conn]bool
	history   []any
	clientsMu sync.Mutex
	broadcast chan any
	done      chan struct{}
	closeOnce sync.Once
	server    *http.Server
	listener  net.Listener
}

// NewWebSocketTransport creates a transport that will listen on addr once
// started. The broadcast loop runs immediately.
func NewWebSocketTransport(addr string) *WebSocketTransport {
	wst := &WebSocketTransport{
		addr: addr,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // local diagnostic tool, any page may watch
			},
		},
		clients:   make(map[*websocket.Conn]bool),
		broadcast: make(chan any, broadcastQueue),
		done:      make(chan struct{}),
	}
	go wst.handleBroadcasts()
	return wst
}

// Handler returns the HTTP handler serving /ws.
func (wst *WebSocketTransport) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", wst.handleWebSocket)
	return mux
}

// Start binds the listen address and serves in the background. Bind errors
// are returned; later server errors are logged.
func (wst *WebSocketTransport) Start() error {
	ln, err := net.Listen("tcp", wst.addr)
	if err != nil {
		return fmt.Errorf("websocket transport: %w", err)
	}
	wst.listener = ln
	wst.server = &http.Server{Handler: wst.Handler()}

	go func() {
		applog.Infof("WebSocketTransport: serving results on ws://%s/ws", ln.Addr())
		if err := wst.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			applog.Errorf("WebSocketTransport: server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the bound address, or the configured one before Start.
func (wst *WebSocketTransport) Addr() string {
	if wst.listener != nil {
		return wst.listener.Addr().String()
	}
	return wst.addr
}

// handleWebSocket upgrades HTTP connections to WebSocket and replays history.
func (wst *WebSocketTransport) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := wst.upgrader.Upgrade(w, r, nil)
	if err != nil {
		applog.Warnf("WebSocketTransport: upgrade error: %v", err)
		return
	}

	wst.clientsMu.Lock()
	for _, data := range wst.history {
		if err := conn.WriteJSON(data); err != nil {
			wst.clientsMu.Unlock()
			conn.Close()
			return
		}
	}
	wst.clients[conn] = true
	total := len(wst.clients)
	wst.clientsMu.Unlock()
	applog.Debugf("WebSocketTransport: client connected, total: %d", total)

	// Clients only listen; a read error means they went away.
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				break
			}
		}
		wst.clientsMu.Lock()
		delete(wst.clients, conn)
		total := len(wst.clients)
		wst.clientsMu.Unlock()
		conn.Close()
		applog.Debugf("WebSocketTransport: client disconnected, total: %d", total)
	}()
}

// handleBroadcasts records and fans out events until Close.
func (wst *WebSocketTransport) handleBroadcasts() {
	for {
		select {
		case data := <-wst.broadcast:
			if m, ok := data.(flushMarker); ok {
				close(m)
				continue
			}
			wst.clientsMu.Lock()
			if len(wst.history) < historyLimit {
				wst.history = append(wst.history, data)
			}
			for client := range wst.clients {
				if err := client.WriteJSON(data); err != nil {
					applog.Warnf("WebSocketTransport: error sending to client: %v", err)
					client.Close()
					delete(wst.clients, client)
				}
			}
			wst.clientsMu.Unlock()
		case <-wst.done:
			return
		}
	}
}

// Send queues data for broadcast. When the queue is full the event is
// dropped rather than blocking the diagnostic.
func (wst *WebSocketTransport) Send(data any) error {
	select {
	case <-wst.done:
		return errors.New("websocket transport closed")
	default:
	}
	select {
	case wst.broadcast <- data:
	default:
		applog.Warnf("WebSocketTransport: queue full, dropping event")
	}
	return nil
}

// Close flushes queued events, stops broadcasting, disconnects clients and
// shuts the server down.
func (wst *WebSocketTransport) Close() error {
	var err error
	wst.closeOnce.Do(func() {
		m := make(flushMarker)
		select {
		case wst.broadcast <- m:
			select {
			case <-m:
			case <-time.After(flushTimeout):
				applog.Warnf("WebSocketTransport: flush timed out")
			}
		default:
		}
		close(wst.done)

		wst.clientsMu.Lock()
		for client := range wst.clients {
			client.Close()
		}
		wst.clients = make(map[*websocket.Conn]bool)
		wst.clientsMu.Unlock()

		if wst.server != nil {
			err = wst.server.Close()
		}
	})
	return err
}

// Ensure WebSocketTransport satisfies the interface
var _ Transport = (*WebSocketTransport)(nil)
