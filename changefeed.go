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
	"time"

	"github.com/sirupsen/logrus"

	"github.com/tradepost-hq/tradepost/config"
	"github.com/tradepost-hq/tradepost/model"
)

// GetChanges returns, for each requested entity, the rows that changed
// strictly after that entity's watermark, oldest first, capped at the
// configured batch size.
//
// Entities fail independently: a delta query that errors is logged and its
// entity omitted from the response, so a single bad table never starves the
// others. Callers detect the omission by the missing key and retry with an
// unchanged watermark.
func (t *Tradepost) GetChanges(ctx context.Context, watermarks map[string]time.Time) (map[string][]*model.ChangeRecord, error) {
	ctx, span := tracer.Start(ctx, "Fetching changes")
	defer span.End()

	cfg, err := config.Fetch()
	if err != nil {
		return nil, err
	}
	limit := cfg.ChangeFeed.BatchSize

	queries := map[string]func(context.Context, time.Time, int) ([]*model.ChangeRecord, error){
		model.EntityListings: t.datasource.GetListingChanges,
		model.EntityOffers:   t.datasource.GetOfferChanges,
		model.EntityOrders:   t.datasource.GetOrderChanges,
		model.EntityPayments: t.datasource.GetPaymentChanges,
		model.EntityLogs:     t.datasource.GetLogChanges,
	}

	changes := make(map[string][]*model.ChangeRecord, len(watermarks))
	for _, entity := range model.FeedEntities {
		since, requested := watermarks[entity]
		if !requested {
			continue
		}
		query := queries[entity]
		records, err := query(ctx, since, limit)
		if err != nil {
			span.RecordError(err)
			logrus.Errorf("change feed query failed for %s: %v", entity, err)
			continue
		}
		changes[entity] = records
	}
	return changes, nil
}
