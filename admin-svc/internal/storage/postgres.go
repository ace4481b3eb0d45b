package storage

import (
	"context"
	"database/sql"
	"fmt"

	"overcooked-admin/admin-svc/internal/domain"
)

const auditSchema = `
CREATE TABLE IF NOT EXISTS admin_audit (
	id         SERIAL PRIMARY KEY,
	resource   TEXT NOT NULL,
	action     TEXT NOT NULL,
	record_id  TEXT NOT NULL DEFAULT '',
	actor      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const DefaultAuditLimit = 50

// AuditRepository keeps the log of dashboard mutations.
type AuditRepository struct {
	DB *sql.DB
}

func NewAuditRepository(db *sql.DB) *AuditRepository {
	return &AuditRepository{DB: db}
}

func (r *AuditRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.DB.ExecContext(ctx, auditSchema); err != nil {
		return fmt.Errorf("create audit table: %w", err)
	}
	return nil
}

func (r *AuditRepository) Record(ctx context.Context, entry domain.AuditEntry) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO admin_audit (resource, action, record_id, actor, created_at) VALUES ($1, $2, $3, $4, $5)",
		entry.Resource, entry.Action, entry.RecordID, entry.Actor, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}
	return nil
}

// List returns the newest entries first, optionally restricted to one
// resource.
func (r *AuditRepository) List(ctx context.Context, resource string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = DefaultAuditLimit
	}

	var (
		rows *sql.Rows
		err  error
	)
	if resource == "" {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, resource, action, record_id, actor, created_at
			FROM admin_audit
			ORDER BY created_at DESC, id DESC
			LIMIT $1`, limit)
	} else {
		rows, err = r.DB.QueryContext(ctx, `
			SELECT id, resource, action, record_id, actor, created_at
			FROM admin_audit
			WHERE resource = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, resource, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.AuditEntry{}
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.Resource, &e.Action, &e.RecordID, &e.Actor, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
