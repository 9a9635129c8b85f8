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
	"context"
	"embed"
	"fmt"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"

	"github.com/redis/go-redis/v9"
	"github.com/tradepost-hq/tradepost/cache"
	"github.com/tradepost-hq/tradepost/config"
	"github.com/tradepost-hq/tradepost/database"
	"github.com/tradepost-hq/tradepost/internal/notification"
	redis_db "github.com/tradepost-hq/tradepost/internal/redis-db"
	"github.com/tradepost-hq/tradepost/model"
)

var tracer = otel.Tracer("tradepost")

// Tradepost represents the main struct for the Tradepost application.
type Tradepost struct {
	queue      *Queue
	redis      redis.UniversalClient
	datasource database.IDataSource
	cache      cache.Cache
}

//go:embed sql/*.sql
var SQLFiles embed.FS

// NewTradepost initializes a new instance of Tradepost with the provided
// database datasource. It fetches the configuration and initializes the
// Redis client, cache, and task queue.
func NewTradepost(db database.IDataSource) (*Tradepost, error) {
	configuration, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	redisClient, err := redis_db.NewRedisClient([]string{fmt.Sprintf("redis://%s", configuration.Redis.Dns)}, configuration.Redis.SkipTLSVerify)
	if err != nil {
		return nil, err
	}
	newCache, err := cache.NewCache()
	if err != nil {
		return nil, err
	}
	newQueue := NewQueue(configuration)

	newTradepost := &Tradepost{datasource: db, queue: newQueue, redis: redisClient.Client(), cache: newCache}
	notification.RegisterWebhookSender(func(event string, payload interface{}) error {
		return newTradepost.SendWebhook(NewWebhook{Event: event, Payload: payload})
	})
	return newTradepost, nil
}

// logAction appends an audit record for a state transition. Audit failures are
// reported but never fail the operation that triggered them.
func (t *Tradepost) logAction(ctx context.Context, actorID, entityType, entityID, action string, details map[string]interface{}) {
	entry := &model.AuditLog{
		LogID:      model.GenerateUUIDWithSuffix("log"),
		ActorID:    actorID,
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Details:    details,
	}
	if err := t.datasource.RecordAuditLog(ctx, entry); err != nil {
		logrus.Errorf("failed to record audit log for %s %s: %v", entityType, entityID, err)
		notification.NotifyError(err)
	}
}
