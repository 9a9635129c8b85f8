package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/tradepost-hq/tradepost/internal/apierror"
	"github.com/tradepost-hq/tradepost/model"
)

func (d Datasource) RecordAuditLog(ctx context.Context, entry *model.AuditLog) error {
	detailsJSON, err := json.Marshal(entry.Details)
	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to marshal audit details", err)
	}

	entry.LogID = model.GenerateUUIDWithSuffix("log")
	entry.CreatedAt = time.Now()

	_, err = d.Conn.ExecContext(ctx, `
		INSERT INTO tradepost.logs (log_id, actor_id, entity_type, entity_id, action, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, entry.LogID, entry.ActorID, entry.EntityType, entry.EntityID, entry.Action, detailsJSON, entry.CreatedAt)

	if err != nil {
		return apierror.NewAPIError(apierror.ErrInternalServer, "Failed to record audit log", err)
	}
	return nil
}

func (d Datasource) GetAuditLogs(ctx context.Context, limit, offset int) ([]*model.AuditLog, error) {
	rows, err := d.Conn.QueryContext(ctx, `
		SELECT log_id, COALESCE(actor_id, ''), entity_type, entity_id, action, details, created_at
		FROM tradepost.logs
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`, limit, offset)
	if err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to retrieve audit logs", err)
	}
	defer rows.Close()

	entries := []*model.AuditLog{}
	for rows.Next() {
		entry := model.AuditLog{}
		var detailsJSON []byte
		err = rows.Scan(&entry.LogID, &entry.ActorID, &entry.EntityType, &entry.EntityID,
			&entry.Action, &detailsJSON, &entry.CreatedAt)
		if err != nil {
			return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to scan audit log data", err)
		}
		if len(detailsJSON) > 0 {
			if err := json.Unmarshal(detailsJSON, &entry.Details); err != nil {
				return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Failed to unmarshal audit details", err)
			}
		}
		entries = append(entries, &entry)
	}

	if err = rows.Err(); err != nil {
		return nil, apierror.NewAPIError(apierror.ErrInternalServer, "Error occurred while iterating over audit logs", err)
	}

	return entries, nil
}
