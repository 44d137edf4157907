package main

import (
	"github.com/hibiken/asynq"

	bookJob "bookexchange-backend/internal/domains/book/job"
	exchangeJob "bookexchange-backend/internal/domains/exchange/job"
	"bookexchange-backend/internal/shared"
	"bookexchange-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	settledNotify *exchangeJob.SettledNotifyHandler
	expireOffers  *exchangeJob.ExpireOffersHandler
	coverResize   *bookJob.CoverResizeHandler
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		settledNotify: exchangeJob.NewSettledNotifyHandler(c.UserRepo),
		expireOffers:  exchangeJob.NewExpireOffersHandler(c.ExchangeService, c.Config.Exchange.OfferTTL),
		coverResize:   bookJob.NewCoverResizeHandler(c.BookRepo, c.Storage),
	}
}

// RegisterHandlers maps task types to their handlers
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.Handle(shared.TypeExchangeSettledNotify, h.settledNotify)
	mux.Handle(shared.TypeExchangeExpireOffers, h.expireOffers)
	mux.Handle(shared.TypeBookCoverResize, h.coverResize)
}
