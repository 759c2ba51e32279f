package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/httpx"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/linkpreview"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/validation"
)

type linkPreviewRequest struct {
	URL       string `json:"url"`
	MessageID string `json:"messageId"`
}

type LinkPreviewHandler struct {
	extractor *linkpreview.Extractor
}

func NewLinkPreviewHandler(extractor *linkpreview.Extractor) *LinkPreviewHandler {
	return &LinkPreviewHandler{extractor: extractor}
}

// Preview returns link card metadata for a URL, cached per message and URL.
func (h *LinkPreviewHandler) Preview(c *fiber.Ctx) error {
	var req linkPreviewRequest
	if err := c.BodyParser(&req); err != nil {
		return httpx.BadRequest(c, "invalid_body", "Invalid request body")
	}
	if !validation.ValidateURL(req.URL) {
		return httpx.BadRequest(c, "invalid_url", "Invalid URL")
	}

	meta, err := h.extractor.Extract(req.MessageID, req.URL)
	if err != nil {
		log.Printf("Error extracting link preview for %s: %v", req.URL, err)
		return httpx.Error(c, fiber.StatusBadGateway, "preview_fetch_failed", "Could not fetch link preview")
	}
	return c.JSON(meta)
}
