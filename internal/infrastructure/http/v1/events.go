package v1

import (
	"context"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"nhooyr.io/websocket"
	"nhooyr.io/websocket/wsjson"

	"sequor/internal/domain/sequence"
	"sequor/internal/infrastructure/http/v1/dto"
	"sequor/pkg/logger"
)

const (
	// clientBuffer is the per-client outbound queue. A client that falls
	// this far behind is dropped rather than blocking the broadcaster.
	clientBuffer = 32

	writeTimeout = 5 * time.Second
)

// Hub fans out outbound messages to attached websocket clients. Mutating
// handlers broadcast their response envelope here so every attached UI
// stays current without polling.
type Hub struct {
	store *sequence.Store

	mu      sync.Mutex
	clients map[*hubClient]struct{}
}

type hubClient struct {
	out chan any
}

// NewHub creates an event hub.
func NewHub(store *sequence.Store) *Hub {
	return &Hub{
		store:   store,
		clients: make(map[*hubClient]struct{}),
	}
}

// Broadcast queues msg for every attached client. Never blocks: a client
// with a full queue is detached.
func (h *Hub) Broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.out <- msg:
		default:
			delete(h.clients, client)
			close(client.out)
		}
	}
}

// Serve handles GET /events: upgrades to a websocket, sends the init
// message, then streams broadcasts until the client disconnects.
func (h *Hub) Serve(c *gin.Context) {
	ctx := c.Request.Context()

	conn, err := websocket.Accept(c.Writer, c.Request, nil)
	if err != nil {
		logger.Warn(ctx, "websocket accept failed", "error", err)
		return
	}
	defer conn.Close(websocket.StatusInternalError, "server shutting down")

	if err := h.sendInit(ctx, conn); err != nil {
		logger.Warn(ctx, "websocket init failed", "error", err)
		return
	}

	client := &hubClient{out: make(chan any, clientBuffer)}
	h.attach(client)
	defer h.detach(client)

	// Reads are drained only to detect disconnect; clients do not send.
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.Read(ctx); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			conn.Close(websocket.StatusNormalClosure, "")
			return
		case <-readDone:
			return
		case msg, ok := <-client.out:
			if !ok {
				conn.Close(websocket.StatusPolicyViolation, "client too slow")
				return
			}
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(wctx, conn, msg)
			cancel()
			if err != nil {
				return
			}
		}
	}
}

func (h *Hub) sendInit(ctx context.Context, conn *websocket.Conn) error {
	seqs, err := h.store.List(ctx)
	if err != nil {
		return err
	}
	selected, err := h.store.Selected(ctx)
	if err != nil {
		return err
	}
	wctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(wctx, conn, &dto.InitMessage{
		Type:       dto.TypeInit,
		Sequences:  dto.FromSequences(seqs),
		SelectedID: selected,
	})
}

func (h *Hub) attach(client *hubClient) {
	h.mu.Lock()
	h.clients[client] = struct{}{}
	h.mu.Unlock()
}

func (h *Hub) detach(client *hubClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
	}
	h.mu.Unlock()
}

// ClientCount reports attached clients, for health info and tests.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}
