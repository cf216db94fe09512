package cron

import (
	"context"
	"time"

	"medilink/config"
	"medilink/services/quota"
	"medilink/utils"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

const TypeSubscriptionSweep = "subscription:sweep"

// InitExpirySweepWorker runs the async worker and scheduler in the
// background. The scheduler enqueues a sweep task on the configured cron
// spec; the worker executes it so subscriptions expire even for partners who
// never touch their listings.
func InitExpirySweepWorker(quotaSvc quota.Service) {
	logger := utils.GetLogger().With(zap.String("component", "expiry-sweep"))

	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisSweepDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeSubscriptionSweep, func(ctx context.Context, task *asynq.Task) error {
		logger.Info("running subscription expiry sweep")
		return quotaSvc.SweepExpired(ctx)
	})

	scheduler := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{})
	if _, err := scheduler.Register(config.AppConfig.ExpirySweepCron, asynq.NewTask(TypeSubscriptionSweep, nil)); err != nil {
		logger.Fatal("failed to register expiry sweep schedule", zap.Error(err))
	}

	go runWithRetry("worker", logger, func() error { return srv.Run(mux) })
	go runWithRetry("scheduler", logger, scheduler.Run)
}

// runWithRetry starts a long-running component with backoff so a transient
// Redis outage at boot does not take the process down.
func runWithRetry(name string, logger *zap.Logger, run func() error) {
	const maxAttempts = 5
	for attempts := 1; attempts <= maxAttempts; attempts++ {
		err := run()
		if err == nil {
			return
		}
		logger.Error("sweep component failed to start",
			zap.String("name", name),
			zap.Int("attempt", attempts),
			zap.Error(err),
		)
		if attempts == maxAttempts {
			logger.Fatal("sweep component exhausted start attempts", zap.String("name", name))
		}
		time.Sleep(time.Duration(attempts*2) * time.Second)
	}
}
