package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"bikebooker/config"

	"github.com/hibiken/asynq"
)

const TypeBookingFulfill = "booking:fulfill"

// FulfillPayload is the task payload handed to the fulfillment worker.
type FulfillPayload struct {
	BookingID string `json:"booking_id"`
}

// FulfillmentQueue hands a booking to the background fulfillment workers.
// Enqueueing is fast and never waits for the fulfillment itself.
type FulfillmentQueue interface {
	Enqueue(bookingID string) error
}

// AsynqQueue implements FulfillmentQueue on an asynq client.
type AsynqQueue struct {
	client *asynq.Client
}

// NewAsynqQueue creates the queue producer backed by the configured Redis DB.
func NewAsynqQueue() *AsynqQueue {
	return &AsynqQueue{
		client: asynq.NewClient(asynq.RedisClientOpt{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisQueueDB,
		}),
	}
}

func (q *AsynqQueue) Enqueue(bookingID string) error {
	payload, err := json.Marshal(FulfillPayload{BookingID: bookingID})
	if err != nil {
		return fmt.Errorf("failed to marshal fulfillment payload: %w", err)
	}
	task := asynq.NewTask(TypeBookingFulfill, payload)
	if _, err := q.client.Enqueue(task); err != nil {
		return fmt.Errorf("failed to enqueue fulfillment for booking %s: %w", bookingID, err)
	}
	return nil
}

// InitFulfillmentWorker runs the async fulfillment worker in background.
func InitFulfillmentWorker(engine *FulfillmentEngine) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: config.AppConfig.WorkerConcurrency,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeBookingFulfill, handleFulfillTask(engine))

	// Start async worker with retry logic
	go func() {
		log.Println("[FulfillmentWorker] Starting async worker...")
		const maxAttempts = 5

		for attempts := 1; attempts <= maxAttempts; attempts++ {
			if err := srv.Run(mux); err != nil {
				log.Printf("[FulfillmentWorker] Attempt %d/%d failed to start worker: %v", attempts, maxAttempts, err)

				if attempts == maxAttempts {
					log.Fatal("[FulfillmentWorker] Max retry attempts reached. Exiting.")
				}
				time.Sleep(time.Duration(attempts*2) * time.Second) // Exponential backoff
			} else {
				break
			}
		}
	}()
}

func handleFulfillTask(engine *FulfillmentEngine) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p FulfillPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			log.Printf("[FulfillmentWorker] Invalid payload: %v", err)
			return err
		}
		return engine.Fulfill(ctx, p.BookingID)
	}
}
