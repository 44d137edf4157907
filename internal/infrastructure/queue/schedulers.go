package queue

import (
	"time"

	"github.com/hibiken/asynq"

	"bookexchange-backend/internal/shared"
	"bookexchange-backend/pkg/logger"
)

type Scheduler struct {
	scheduler *asynq.Scheduler
}

func NewScheduler(redisAddress, redisPassword string, redisDB int) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisAddress,
			Password: redisPassword,
			DB:       redisDB,
		},
		&asynq.SchedulerOpts{
			Location: time.UTC,
			LogLevel: asynq.InfoLevel,
		},
	)

	return &Scheduler{scheduler: scheduler}
}

func (s *Scheduler) RegisterPeriodicJobs() error {
	return s.registerExpireOffersJob()
}

// ================================================
// JOB: Expire Stale Offers (Hourly)
// ================================================
func (s *Scheduler) registerExpireOffersJob() error {
	task := asynq.NewTask(shared.TypeExchangeExpireOffers, nil)

	_, err := s.scheduler.Register(
		"0 * * * *", // Hourly
		task,
		asynq.Queue(shared.QueueCritical),
		asynq.MaxRetry(1),
		asynq.Timeout(5*time.Minute),
	)
	if err != nil {
		logger.Error("Failed to register ExpireOffers job", err)
		return err
	}

	logger.Info("✓ Registered ExpireOffers: hourly", map[string]interface{}{})
	return nil
}

func (s *Scheduler) Start() error {
	return s.scheduler.Start()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
