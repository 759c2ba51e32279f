package handlers

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Contact-AnuragVardhan/websocket-server/internal/httpx"
	"github.com/Contact-AnuragVardhan/websocket-server/internal/storage"
)

type UploadHandler struct {
	s3 *storage.S3Storage
}

func NewUploadHandler(s3 *storage.S3Storage) *UploadHandler {
	return &UploadHandler{s3: s3}
}

// Upload stores a multipart attachment under a timestamped key and returns
// the public URL clients embed in messages.
func (h *UploadHandler) Upload(c *fiber.Ctx) error {
	if h.s3 == nil {
		return httpx.ServiceUnavailable(c, "storage_not_configured", "Storage not configured")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return httpx.BadRequest(c, "missing_file", "No file uploaded")
	}

	ext := filepath.Ext(fileHeader.Filename)
	base := strings.TrimSuffix(filepath.Base(fileHeader.Filename), ext)
	key, err := storage.SafeObjectKey(fmt.Sprintf("%d_%s%s", time.Now().UnixMilli(), base, ext))
	if err != nil {
		return httpx.BadRequest(c, "invalid_filename", "Invalid file name")
	}

	file, err := fileHeader.Open()
	if err != nil {
		log.Printf("[upload] open error name=%q err=%v", fileHeader.Filename, err)
		return httpx.Internal(c, "upload_failed")
	}
	defer file.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	st, err := h.s3.PutObject(c.Context(), key, file, fileHeader.Size, contentType)
	if err != nil {
		log.Printf("[upload] put error key=%q err=%v", key, err)
		return httpx.Internal(c, "upload_failed")
	}

	log.Printf("[upload] ok key=%q size=%d etag=%q", key, st.Size, st.ETag)
	return c.JSON(fiber.Map{
		"fileUrl": h.s3.PublicObjectURL(key),
	})
}
