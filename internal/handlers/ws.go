package handlers

import (
	"context"
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/example/masala/internal/config"
	"github.com/example/masala/internal/models"
	"github.com/example/masala/internal/services"
	"github.com/example/masala/internal/utils"
)

const (
	wsUserKey = "wsUserID"
	wsRoleKey = "wsRole"
)

// WSHandler streams order events to connected clients. Staff sockets get
// every order event; customer sockets only their own orders. Events come
// off the redis pub/sub channels NotifyService publishes to, so dispatch
// works across multiple service instances.
type WSHandler struct {
	notify *services.NotifyService

	mu      sync.Mutex
	clients map[string]map[*websocket.Conn]bool
}

// NewWSHandler constructs WSHandler.
func NewWSHandler(notify *services.NotifyService) *WSHandler {
	return &WSHandler{
		notify:  notify,
		clients: make(map[string]map[*websocket.Conn]bool),
	}
}

// UpgradeMiddleware authenticates the websocket handshake. Browsers cannot
// set an Authorization header on websocket requests, so the token rides a
// query parameter.
func UpgradeMiddleware(cfg *config.Config) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}

		userID, role, err := utils.ParseToken(cfg.JWTSecret, c.Query("token"))
		if err != nil {
			return fiber.NewError(fiber.StatusUnauthorized, "invalid token")
		}

		c.Locals(wsUserKey, userID)
		c.Locals(wsRoleKey, role)
		return c.Next()
	}
}

// HandleUserOrders serves a customer's own order event stream.
func (h *WSHandler) HandleUserOrders(c *websocket.Conn) {
	userID, ok := c.Locals(wsUserKey).(uuid.UUID)
	if !ok {
		c.Close()
		return
	}
	h.serve(c, services.UserChannel(userID))
}

// HandleStaffOrders serves the kitchen console's event stream.
func (h *WSHandler) HandleStaffOrders(c *websocket.Conn) {
	role, _ := c.Locals(wsRoleKey).(string)
	if role != models.RoleStaff && role != models.RoleAdmin {
		c.Close()
		return
	}
	h.serve(c, services.StaffChannel)
}

func (h *WSHandler) serve(c *websocket.Conn, channel string) {
	h.register(channel, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		cancel()
		h.unregister(channel, c)
		c.Close()
	}()

	pubsub := h.notify.Subscribe(ctx, channel)
	defer pubsub.Close()

	// Reader loop: a read error means the client went away.
	go func() {
		defer cancel()
		for {
			if _, _, err := c.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			if err := c.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("[WS] Write to %s failed: %v", channel, err)
				return
			}
		}
	}
}

func (h *WSHandler) register(channel string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[channel] == nil {
		h.clients[channel] = make(map[*websocket.Conn]bool)
	}
	h.clients[channel][c] = true
}

func (h *WSHandler) unregister(channel string, c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[channel] != nil {
		delete(h.clients[channel], c)
		if len(h.clients[channel]) == 0 {
			delete(h.clients, channel)
		}
	}
}
