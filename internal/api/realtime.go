package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/lalith-99/deliverypro/internal/middleware"
	"github.com/lalith-99/deliverypro/internal/models"
	"github.com/lalith-99/deliverypro/internal/realtime"
	"github.com/lalith-99/deliverypro/internal/repository"
	"go.uber.org/zap"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// RealtimeHandler upgrades to a WebSocket and streams change notifications
// for one table, scoped to what the caller is allowed to see.
type RealtimeHandler struct {
	hub      *realtime.Hub
	roles    repository.RoleRepository
	clients  repository.ClientRepository
	upgrader websocket.Upgrader
	logger   *zap.Logger
}

func NewRealtimeHandler(hub *realtime.Hub, roles repository.RoleRepository, clients repository.ClientRepository, origins []string, logger *zap.Logger) *RealtimeHandler {
	h := &RealtimeHandler{hub: hub, roles: roles, clients: clients, logger: logger}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(origins),
	}
	return h
}

func originChecker(origins []string) func(r *http.Request) bool {
	allowed := make(map[string]bool, len(origins))
	for _, o := range origins {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		allowed[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || allowed[origin]
	}
}

// topicFor picks the caller's feed. Company staff and drivers follow their
// tenant; clients only follow their own orders.
func (h *RealtimeHandler) topicFor(c *gin.Context, table string) (realtime.Topic, int, string) {
	roles, err := h.roles.ListByUser(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.logger.Error("failed to load roles for realtime", zap.Error(err))
		return realtime.Topic{}, http.StatusInternalServerError, "could not verify role"
	}

	for _, r := range roles {
		switch r.Role {
		case models.RoleCompanyAdmin, models.RoleDriver:
			if r.TenantID != nil {
				return realtime.TenantTopic(table, *r.TenantID), 0, ""
			}
		}
	}
	for _, r := range roles {
		if r.Role != models.RoleClient {
			continue
		}
		if table != realtime.TableOrders {
			return realtime.Topic{}, http.StatusForbidden, "clients may only follow orders"
		}
		client, err := h.clients.GetByUserID(c.Request.Context(), middleware.GetUserID(c))
		if err != nil {
			h.logger.Error("failed to load client for realtime", zap.Error(err))
			return realtime.Topic{}, http.StatusInternalServerError, "could not load client"
		}
		if client == nil {
			return realtime.Topic{}, http.StatusNotFound, "client profile not found"
		}
		return realtime.ClientTopic(table, client.ID), 0, ""
	}
	return realtime.Topic{}, http.StatusForbidden, "forbidden"
}

// Subscribe handles GET /v1/realtime?table=orders|drivers
func (h *RealtimeHandler) Subscribe(c *gin.Context) {
	table := c.Query("table")
	if table != realtime.TableOrders && table != realtime.TableDrivers {
		c.JSON(http.StatusBadRequest, gin.H{"error": "table must be orders or drivers"})
		return
	}
	topic, status, msg := h.topicFor(c, table)
	if status != 0 {
		c.JSON(status, gin.H{"error": msg})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		// Upgrade has already written the error response.
		h.logger.Warn("websocket upgrade failed", zap.Error(err))
		return
	}

	sub := h.hub.Subscribe(topic)
	h.logger.Debug("realtime subscriber joined",
		zap.String("table", topic.Table),
		zap.String("scope", topic.Scope),
	)

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, sub, done)

	h.hub.Unsubscribe(sub)
	conn.Close()
}

// readPump discards client frames and keeps the read deadline fresh. It
// closes done when the peer goes away.
func (h *RealtimeHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *RealtimeHandler) writePump(conn *websocket.Conn, sub *realtime.Subscription, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case change, ok := <-sub.C():
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Dropped by the hub for falling behind.
				conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "too slow"))
				return
			}
			if err := conn.WriteJSON(change); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
