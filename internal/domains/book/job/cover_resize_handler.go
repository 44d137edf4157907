package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image/jpeg"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"bookexchange-backend/internal/domains/book/repository"
	"bookexchange-backend/internal/infrastructure/storage"
	"bookexchange-backend/internal/shared"
	"bookexchange-backend/pkg/logger"
)

const thumbnailWidth = 240

// CoverResizeHandler generate thumbnail cho book cover sau khi upload.
// Chạy trong worker process, queue media.
type CoverResizeHandler struct {
	bookRepo repository.BookRepository
	storage  *storage.MinIOStorage
}

func NewCoverResizeHandler(bookRepo repository.BookRepository, storage *storage.MinIOStorage) *CoverResizeHandler {
	return &CoverResizeHandler{
		bookRepo: bookRepo,
		storage:  storage,
	}
}

func (h *CoverResizeHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.CoverResizePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal cover resize payload: %w", err)
	}

	bookID, err := uuid.Parse(payload.BookID)
	if err != nil {
		return fmt.Errorf("invalid book id in payload: %w", err)
	}

	data, err := h.storage.Download(ctx, payload.ObjectKey)
	if err != nil {
		return fmt.Errorf("failed to download cover: %w", err)
	}

	src, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode cover image: %w", err)
	}

	// Resize giữ aspect ratio, chỉ theo width
	thumb := imaging.Resize(src, thumbnailWidth, 0, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(jpeg.DefaultQuality)); err != nil {
		return fmt.Errorf("failed to encode thumbnail: %w", err)
	}

	thumbKey := thumbnailKey(payload.ObjectKey)
	url, err := h.storage.Upload(ctx, thumbKey, buf.Bytes(), "image/jpeg")
	if err != nil {
		return fmt.Errorf("failed to upload thumbnail: %w", err)
	}

	if err := h.bookRepo.UpdateImagePaths(ctx, bookID, nil, &url); err != nil {
		return fmt.Errorf("failed to save thumbnail path: %w", err)
	}

	logger.Info("Generated cover thumbnail", map[string]interface{}{
		"book_id": payload.BookID,
		"key":     thumbKey,
	})

	return nil
}

// thumbnailKey: books/<id>/cover.jpg -> books/<id>/thumb.jpg
func thumbnailKey(objectKey string) string {
	idx := strings.LastIndex(objectKey, "/")
	if idx < 0 {
		return "thumb_" + objectKey
	}
	return objectKey[:idx] + "/thumb.jpg"
}
