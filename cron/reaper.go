package cron

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"tripcart/config"
	reservationRepo "tripcart/database/repository/reservation"
	"tripcart/models"
	"tripcart/services/cart"

	"github.com/hibiken/asynq"
)

// The reaper converts expired holds back into available inventory. Two paths
// converge on ReservationRepository.MarkExpired, which re-validates status
// and the expiry bound inside the unit's critical section, so neither path
// can evict early or double-evict:
//   - an asynq task scheduled at each hold's expiry instant (primary),
//   - a periodic sweep of the expiry index (backstop for lost tasks).

// InitReaperWorker runs the asynq eviction worker in background.
func InitReaperWorker(store reservationRepo.ReservationRepository, index reservationRepo.ExpiryIndex) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisTaskQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(cart.TypeHoldExpire, handleHoldExpireTask(store, index))

	go func() {
		log.Println("[Reaper] starting expiry worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[Reaper] attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[Reaper] max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second)
			} else {
				break
			}
		}
	}()
}

func handleHoldExpireTask(store reservationRepo.ReservationRepository, index reservationRepo.ExpiryIndex) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p cart.HoldExpirePayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[Reaper] invalid payload: %v", err)
			return err
		}

		key, err := models.ParseUnitKey(p.UnitKey)
		if err != nil {
			log.Printf("[Reaper] invalid unit key in payload: %v", err)
			return nil
		}

		if err := evict(ctx, store, index, p.SessionID, key); err != nil {
			log.Printf("[Reaper] eviction failed for %s: %v", p.UnitKey, err)
			return err
		}
		return nil
	}
}

// RunSweep drives the backstop sweep until the context is cancelled. One
// stuck hold must not block the rest: failures are logged and skipped.
func RunSweep(ctx context.Context, store reservationRepo.ReservationRepository, index reservationRepo.ExpiryIndex) {
	ticker := time.NewTicker(config.ReaperSweepInterval())
	defer ticker.Stop()

	log.Println("[Reaper] backstop sweep started")

	for {
		select {
		case <-ctx.Done():
			log.Println("[Reaper] backstop sweep stopped")
			return
		case <-ticker.C:
			sweepOnce(ctx, store, index, time.Now().UTC())
		}
	}
}

func sweepOnce(ctx context.Context, store reservationRepo.ReservationRepository, index reservationRepo.ExpiryIndex, now time.Time) {
	due, err := index.Due(ctx, now, 100)
	if err != nil {
		log.Printf("[Reaper] failed to read due holds: %v", err)
		return
	}

	for _, entry := range due {
		if err := evict(ctx, store, index, entry.SessionID, entry.Unit); err != nil {
			log.Printf("[Reaper] eviction failed for %s: %v", entry.Unit, err)
			continue
		}
	}
}

// evict transitions the hold to expired (a no-op if it was confirmed or
// released meanwhile) and drops its index entry.
func evict(ctx context.Context, store reservationRepo.ReservationRepository, index reservationRepo.ExpiryIndex, sessionID string, key models.UnitKey) error {
	if err := store.MarkExpired(ctx, sessionID, key); err != nil {
		return err
	}
	return index.Remove(ctx, sessionID, key)
}
