package job

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	userrepo "bookexchange-backend/internal/domains/user/repository"
	"bookexchange-backend/internal/shared"
	"bookexchange-backend/pkg/logger"
)

// SettledNotifyHandler thông báo cho hai bên sau khi settlement commit.
// Chạy trong worker process, queue notifications.
type SettledNotifyHandler struct {
	userRepo userrepo.UserRepository
}

func NewSettledNotifyHandler(userRepo userrepo.UserRepository) *SettledNotifyHandler {
	return &SettledNotifyHandler{userRepo: userRepo}
}

func (h *SettledNotifyHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload shared.ExchangeSettledPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal settled payload: %w", err)
	}

	ownerID, err := uuid.Parse(payload.OwnerID)
	if err != nil {
		return fmt.Errorf("invalid owner id in payload: %w", err)
	}
	borrowerID, err := uuid.Parse(payload.BorrowerID)
	if err != nil {
		return fmt.Errorf("invalid borrower id in payload: %w", err)
	}

	users, err := h.userRepo.GetByIDs(ctx, []uuid.UUID{ownerID, borrowerID})
	if err != nil {
		return fmt.Errorf("failed to load settlement participants: %w", err)
	}

	for _, id := range []uuid.UUID{ownerID, borrowerID} {
		u, ok := users[id]
		if !ok {
			logger.Warn("Settlement participant not found", map[string]interface{}{
				"user_id":        id.String(),
				"transaction_id": payload.TransactionID,
			})
			continue
		}

		// Delivery channel là log; mail gateway gắn vào đây khi có
		logger.Info("Settlement notification", map[string]interface{}{
			"email":          u.Email,
			"transaction_id": payload.TransactionID,
			"offer_id":       payload.OfferID,
			"book_id":        payload.TargetBookID,
			"item_type":      payload.ItemType,
		})
	}

	return nil
}
