/*
Copyright 2025 Tradepost Authors.

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package tradepost

import (
	"encoding/json"
	"errors"
	"log"

	"github.com/hibiken/asynq"

	"github.com/tradepost-hq/tradepost/config"
	redis_db "github.com/tradepost-hq/tradepost/internal/redis-db"
	"github.com/tradepost-hq/tradepost/model"
)

// Queue represents a queue for handling various tasks.
type Queue struct {
	Client    *asynq.Client
	Inspector *asynq.Inspector
}

// OrderTaskPayload is the payload for an order materialization task.
type OrderTaskPayload struct {
	OfferID   string `json:"offer_id"`
	ListingID string `json:"listing_id"`
}

// NewQueue initializes a new Queue instance with the provided configuration.
func NewQueue(conf *config.Configuration) *Queue {
	redisOption, err := redis_db.ParseRedisURL(conf.Redis.Dns, conf.Redis.SkipTLSVerify)
	if err != nil {
		log.Fatalf("Error parsing Redis URL: %v", err)
	}

	queueOptions := asynq.RedisClientOpt{Addr: redisOption.Addr, Password: redisOption.Password, DB: redisOption.DB, TLSConfig: redisOption.TLSConfig}
	client := asynq.NewClient(queueOptions)
	inspector := asynq.NewInspector(queueOptions)
	return &Queue{
		Client:    client,
		Inspector: inspector,
	}
}

// queueOrder enqueues a task to materialize the order for an accepted offer.
// The task ID is the offer ID, so re-resolving a listing never enqueues the
// same order twice.
func (q *Queue) queueOrder(offer *model.Offer) error {
	cfg, err := config.Fetch()
	if err != nil {
		return err
	}

	payload, err := json.Marshal(OrderTaskPayload{OfferID: offer.OfferID, ListingID: offer.ListingID})
	if err != nil {
		return err
	}
	taskOptions := []asynq.Option{
		asynq.TaskID(offer.OfferID),
		asynq.Queue(cfg.Queue.OrderQueue),
	}
	task := asynq.NewTask(cfg.Queue.OrderQueue, payload, taskOptions...)
	info, err := q.Client.Enqueue(task)
	if errors.Is(err, asynq.ErrTaskIDConflict) {
		log.Printf(" [*] Order task already enqueued for offer: %s", offer.OfferID)
		return nil
	}
	if err != nil {
		log.Println(err, info)
		return err
	}
	log.Printf(" [*] Successfully enqueued order for offer: %s", offer.OfferID)
	return nil
}
