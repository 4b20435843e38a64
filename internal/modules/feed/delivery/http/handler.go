package handler

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"github.com/sharebite/sharebite/internal/modules/feed/dto"
)

type FeedHandler struct {
	redisClient *redis.Client
	upgrader    websocket.Upgrader
}

func NewFeedHandler(redisClient *redis.Client) *FeedHandler {
	return &FeedHandler{
		redisClient: redisClient,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				return true // Allow all origins for now
			},
		},
	}
}

// HandleWebSocket streams donation row events to the connected dashboard.
// Events are forwarded unfiltered; passing ?owner=me narrows the stream
// server-side to rows referencing the authenticated user as donor,
// organisation or volunteer.
func (h *FeedHandler) HandleWebSocket(c *gin.Context) {
	userIDStr := c.GetString("user_id")
	if userIDStr == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	var owner uuid.UUID
	filterOwner := false
	if c.Query("owner") == "me" {
		parsed, err := uuid.Parse(userIDStr)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid user id"})
			return
		}
		owner = parsed
		filterOwner = true
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("failed to upgrade websocket: %v", err)
		return
	}
	defer conn.Close()

	if h.redisClient == nil {
		log.Println("redis client is nil, cannot subscribe")
		return
	}

	pubsub := h.redisClient.Subscribe(c.Request.Context(), dto.Channel)
	defer pubsub.Close()

	// Wait for confirmation that subscription is created
	if _, err := pubsub.Receive(c.Request.Context()); err != nil {
		log.Printf("failed to subscribe to redis channel: %v", err)
		return
	}

	ch := pubsub.Channel()

	// Reader goroutine detects client disconnect.
	clientClosed := make(chan struct{})
	go func() {
		defer close(clientClosed)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case msg := <-ch:
			if filterOwner {
				var event dto.Event
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					continue
				}
				if !event.ConcernsOwner(owner) {
					continue
				}
			}

			if err := conn.WriteMessage(websocket.TextMessage, []byte(msg.Payload)); err != nil {
				log.Printf("failed to write message to websocket: %v", err)
				return
			}
		case <-clientClosed:
			return
		case <-c.Request.Context().Done():
			return
		}
	}
}
