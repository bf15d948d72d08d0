package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// eventRepo implements EventRepo over the llm_events table.
type eventRepo struct {
	db *sql.DB
}

func (r *eventRepo) AppendLLMEvent(ctx context.Context, ev LLMEvent) error {
	ts := ev.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO llm_events
			(timestamp, provider, model, purpose, streamed,
			 input_tokens, output_tokens, latency_ms, success,
			 request_body, response_body, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ts.Unix(), ev.Provider, ev.Model, ev.Purpose, ev.Streamed,
		ev.InputTokens, ev.OutputTokens, ev.LatencyMs, ev.Success,
		ev.RequestBody, ev.ResponseBody, ev.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("save LLM event: %w", err)
	}
	return nil
}

func (r *eventRepo) RecentLLMEvents(ctx context.Context, limit int) ([]LLMEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, timestamp, provider, model, purpose, streamed,
			input_tokens, output_tokens, latency_ms, success,
			request_body, response_body, error_message
		 FROM llm_events ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query LLM events: %w", err)
	}
	defer rows.Close()

	var events []LLMEvent
	for rows.Next() {
		var ev LLMEvent
		var ts int64
		if err := rows.Scan(&ev.ID, &ts, &ev.Provider, &ev.Model, &ev.Purpose,
			&ev.Streamed, &ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs,
			&ev.Success, &ev.RequestBody, &ev.ResponseBody, &ev.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan LLM event: %w", err)
		}
		ev.Timestamp = time.Unix(ts, 0).UTC()
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (r *eventRepo) GetLLMEvent(ctx context.Context, id int) (*LLMEvent, error) {
	var ev LLMEvent
	var ts int64
	err := r.db.QueryRowContext(ctx,
		`SELECT id, timestamp, provider, model, purpose, streamed,
			input_tokens, output_tokens, latency_ms, success,
			request_body, response_body, error_message
		 FROM llm_events WHERE id = ?`, id,
	).Scan(&ev.ID, &ts, &ev.Provider, &ev.Model, &ev.Purpose,
		&ev.Streamed, &ev.InputTokens, &ev.OutputTokens, &ev.LatencyMs,
		&ev.Success, &ev.RequestBody, &ev.ResponseBody, &ev.ErrorMessage)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get LLM event: %w", err)
	}
	ev.Timestamp = time.Unix(ts, 0).UTC()
	return &ev, nil
}

func (r *eventRepo) Totals(ctx context.Context) (TokenTotals, error) {
	var t TokenTotals
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COALESCE(SUM(input_tokens), 0),
			COALESCE(SUM(output_tokens), 0)
		 FROM llm_events`,
	).Scan(&t.Requests, &t.InputTokens, &t.OutputTokens)
	if err != nil {
		return TokenTotals{}, fmt.Errorf("aggregate token usage: %w", err)
	}
	return t, nil
}
