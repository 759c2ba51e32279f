package handlers

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/httpx"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/store"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/validation"
)

func roomSubscriptionsKey(roomID string) string {
	return fmt.Sprintf("room:%s:subscriptions", roomID)
}

// PushSubscription is a Web Push subscription as the browser hands it out.
// Keys beyond the endpoint are opaque to the engine.
type PushSubscription struct {
	Endpoint string          `json:"endpoint"`
	Keys     json.RawMessage `json:"keys,omitempty"`
}

type subscriptionRequest struct {
	Room         string           `json:"room"`
	UserID       string           `json:"userId"`
	Subscription PushSubscription `json:"subscription"`
}

type SubscriptionHandler struct {
	store store.Store
}

func NewSubscriptionHandler(s store.Store) *SubscriptionHandler {
	return &SubscriptionHandler{store: s}
}

// Save upserts a push subscription for a room, keyed by endpoint so the same
// browser re-subscribing overwrites rather than duplicates.
func (h *SubscriptionHandler) Save(c *fiber.Ctx) error {
	var req subscriptionRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}
	req.Room = validation.TrimAndLimit(req.Room, 128)
	if !validation.ValidateRoomID(req.Room) {
		return httpx.BadRequest(c, "invalid_room", "Invalid room")
	}
	if !validation.ValidateURL(req.Subscription.Endpoint) {
		return httpx.BadRequest(c, "invalid_subscription", "Invalid subscription endpoint")
	}

	encoded, err := json.Marshal(req.Subscription)
	if err != nil {
		return httpx.Internal(c, "subscription_encode_failed")
	}
	if err := h.store.HashSet(roomSubscriptionsKey(req.Room), req.Subscription.Endpoint, encoded); err != nil {
		log.Printf("Error saving subscription for room %s: %v", req.Room, err)
		return httpx.Internal(c, "subscription_save_failed")
	}

	log.Printf("Saved push subscription for room %s, userId %s", req.Room, req.UserID)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"saved": true})
}

// List returns every push subscription registered for a room.
func (h *SubscriptionHandler) List(c *fiber.Ctx) error {
	roomID := c.Query("room")
	if !validation.ValidateRoomID(roomID) {
		return httpx.BadRequest(c, "invalid_room", "Invalid room")
	}

	entries, err := h.store.HashGetAll(roomSubscriptionsKey(roomID))
	if err != nil {
		log.Printf("Error listing subscriptions for room %s: %v", roomID, err)
		return httpx.Internal(c, "subscription_list_failed")
	}

	subscriptions := make([]PushSubscription, 0, len(entries))
	for endpoint, raw := range entries {
		var sub PushSubscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			log.Printf("Error decoding subscription %s of room %s: %v", endpoint, roomID, err)
			continue
		}
		subscriptions = append(subscriptions, sub)
	}
	return c.JSON(fiber.Map{
		"room":          roomID,
		"subscriptions": subscriptions,
	})
}
