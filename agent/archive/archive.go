// Package archive persists finished plan records to Postgres so planning
// outcomes survive process restarts and can be inspected per session.
package archive

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"github.com/planweave/planweave/agent/contract"
)

type Config struct {
	// DSN is a postgres:// connection string.
	DSN string
}

type planRecordRow struct {
	bun.BaseModel `bun:"table:planning_records,alias:pr"`

	ID           string    `bun:"id,pk"`
	SessionID    string    `bun:"session_id,notnull"`
	Query        string    `bun:"query,notnull"`
	TargetRole   string    `bun:"target_role"`
	Analysis     string    `bun:"analysis"`
	PlanText     string    `bun:"plan_text"`
	SubtaskCount int       `bun:"subtask_count"`
	Degraded     bool      `bun:"degraded"`
	CreatedAt    time.Time `bun:"created_at,notnull"`
}

type PostgresArchive struct {
	db *bun.DB
}

func New(cfg Config) (*PostgresArchive, error) {
	dsn := strings.TrimSpace(cfg.DSN)
	if dsn == "" {
		return nil, errors.New("archive dsn is required")
	}

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	db := bun.NewDB(sqldb, pgdialect.New())

	return &PostgresArchive{db: db}, nil
}

// Init creates the backing table when it does not exist yet.
func (a *PostgresArchive) Init(ctx context.Context) error {
	if _, err := a.db.NewCreateTable().
		Model((*planRecordRow)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create planning_records table: %w", err)
	}
	return nil
}

func (a *PostgresArchive) SaveRecord(ctx context.Context, record *contract.PlanRecord) error {
	if record == nil {
		return errors.New("plan record is nil")
	}

	row := &planRecordRow{
		ID:           record.ID,
		SessionID:    record.SessionID,
		Query:        record.Query,
		TargetRole:   record.TargetRole,
		Analysis:     record.Analysis,
		PlanText:     record.PlanText,
		SubtaskCount: record.SubtaskCount,
		Degraded:     record.Degraded,
		CreatedAt:    record.CreatedAt,
	}
	if _, err := a.db.NewInsert().Model(row).Exec(ctx); err != nil {
		return fmt.Errorf("insert plan record %s: %w", record.ID, err)
	}
	return nil
}

// RecentBySession returns up to limit records for the session, newest first.
func (a *PostgresArchive) RecentBySession(ctx context.Context, sessionID string, limit int) ([]contract.PlanRecord, error) {
	if limit <= 0 {
		limit = 10
	}

	var rows []planRecordRow
	if err := a.db.NewSelect().
		Model(&rows).
		Where("session_id = ?", sessionID).
		OrderExpr("created_at DESC").
		Limit(limit).
		Scan(ctx); err != nil {
		return nil, fmt.Errorf("select plan records for %s: %w", sessionID, err)
	}

	out := make([]contract.PlanRecord, 0, len(rows))
	for _, row := range rows {
		out = append(out, contract.PlanRecord{
			ID:           row.ID,
			SessionID:    row.SessionID,
			Query:        row.Query,
			TargetRole:   row.TargetRole,
			Analysis:     row.Analysis,
			PlanText:     row.PlanText,
			SubtaskCount: row.SubtaskCount,
			Degraded:     row.Degraded,
			CreatedAt:    row.CreatedAt,
		})
	}
	return out, nil
}

func (a *PostgresArchive) Close() error {
	return a.db.Close()
}
