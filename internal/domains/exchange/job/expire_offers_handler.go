package job

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"bookexchange-backend/internal/domains/exchange/service"
	"bookexchange-backend/pkg/logger"
)

const expireBatchSize = 100

// ExpireOffersHandler reject các offer pending quá hạn.
// Scheduler enqueue task này định kỳ (cron).
type ExpireOffersHandler struct {
	exchangeService service.ExchangeService
	offerTTL        time.Duration
}

func NewExpireOffersHandler(exchangeService service.ExchangeService, offerTTL time.Duration) *ExpireOffersHandler {
	return &ExpireOffersHandler{
		exchangeService: exchangeService,
		offerTTL:        offerTTL,
	}
}

func (h *ExpireOffersHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	expired, err := h.exchangeService.ExpireStaleOffers(ctx, h.offerTTL, expireBatchSize)
	if err != nil {
		logger.Error("Offer expiry sweep failed", err)
		return err
	}

	if expired > 0 {
		logger.Info("Offer expiry sweep finished", map[string]interface{}{"expired": expired})
	}

	return nil
}
