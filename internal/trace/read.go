package trace

import (
	"context"
	"database/sql"
	"fmt"
)

// SessionInfo describes a journaled session.
type SessionInfo struct {
	Token     string `json:"token"`
	Label     string `json:"label,omitempty"`
	StartedAt string `json:"started_at"`
}

// ReadSession returns a session's events in sequence order.
func (s *Store) ReadSession(ctx context.Context, token string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, question, priority, answer, dependencies, cause, error
		FROM events
		WHERE session_token = ?
		ORDER BY seq
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read session %s: %w", token, err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			ev       Event
			priority sql.NullInt64
			ans      sql.NullString
			deps     sql.NullString
			cause    sql.NullString
			errText  sql.NullString
		)
		if err := rows.Scan(&ev.Seq, &ev.Kind, &ev.Question, &priority, &ans, &deps, &cause, &errText); err != nil {
			return nil, fmt.Errorf("read session %s: scan: %w", token, err)
		}
		if priority.Valid {
			p := int(priority.Int64)
			ev.Priority = &p
		}
		ev.Answer = ans.String
		ev.Dependencies = deps.String
		ev.Cause = cause.String
		ev.Error = errText.String
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read session %s: %w", token, err)
	}
	return events, nil
}

// Sessions lists journaled sessions, newest token first.
func (s *Store) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, label, started_at
		FROM sessions
		ORDER BY token DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var infos []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.Token, &info.Label, &info.StartedAt); err != nil {
			return nil, fmt.Errorf("list sessions: scan: %w", err)
		}
		infos = append(infos, info)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return infos, nil
}
