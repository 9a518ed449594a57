package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"
)

// eventRepo implements EventRepo on the upstream_events table.
type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendUpstream(ctx context.Context, data UpstreamEventData) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO upstream_events
			(timestamp, request_id, model, grade, subject, message_count, status, latency_ms, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		time.Now().UnixMilli(),
		data.RequestID,
		data.Model,
		data.Grade,
		data.Subject,
		data.MessageCount,
		data.Status,
		data.LatencyMs,
		data.Success,
		data.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save upstream event: %w", err)
	}
	return nil
}

func (r *eventRepo) QueryUpstream(ctx context.Context, opts QueryOpts) ([]UpstreamEvent, error) {
	var (
		where []string
		args  []any
	)
	if !opts.From.IsZero() {
		where = append(where, "timestamp >= ?")
		args = append(args, opts.From.UnixMilli())
	}
	if !opts.To.IsZero() {
		where = append(where, "timestamp <= ?")
		args = append(args, opts.To.UnixMilli())
	}
	if opts.FailedOnly {
		where = append(where, "success = 0")
	}

	query := `SELECT id, timestamp, request_id, model, grade, subject, message_count, status, latency_ms, success, error_message
		FROM upstream_events`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY id DESC"
	if opts.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, opts.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query upstream events: %w", err)
	}
	defer rows.Close()

	var events []UpstreamEvent
	for rows.Next() {
		var (
			e  UpstreamEvent
			ts int64
		)
		if err := rows.Scan(&e.ID, &ts, &e.RequestID, &e.Model, &e.Grade, &e.Subject,
			&e.MessageCount, &e.Status, &e.LatencyMs, &e.Success, &e.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan upstream event: %w", err)
		}
		e.Timestamp = time.UnixMilli(ts).UTC()
		events = append(events, e)
	}
	return events, rows.Err()
}
