package publish

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
)

// Execer is the subset of pgxpool.Pool used by PostgresSink
type Execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

const createRecordsTable = `
	CREATE TABLE IF NOT EXISTS filing_records (
		run_id TEXT PRIMARY KEY,
		source TEXT NOT NULL,
		company_name TEXT NOT NULL,
		cin TEXT NOT NULL,
		registered_office TEXT NOT NULL,
		appointment_date TEXT NOT NULL,
		auditor_name TEXT NOT NULL,
		auditor_address TEXT NOT NULL,
		auditor_frn_or_membership TEXT NOT NULL,
		appointment_type TEXT NOT NULL,
		summary TEXT NOT NULL,
		attachment_lines TEXT[] NOT NULL DEFAULT '{}',
		created_at TIMESTAMPTZ NOT NULL
	)
`

const upsertRecord = `
	INSERT INTO filing_records (
		run_id, source,
		company_name, cin, registered_office, appointment_date,
		auditor_name, auditor_address, auditor_frn_or_membership, appointment_type,
		summary, attachment_lines, created_at
	) VALUES (
		$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13
	)
	ON CONFLICT (run_id) DO UPDATE SET
		source = EXCLUDED.source,
		company_name = EXCLUDED.company_name,
		cin = EXCLUDED.cin,
		registered_office = EXCLUDED.registered_office,
		appointment_date = EXCLUDED.appointment_date,
		auditor_name = EXCLUDED.auditor_name,
		auditor_address = EXCLUDED.auditor_address,
		auditor_frn_or_membership = EXCLUDED.auditor_frn_or_membership,
		appointment_type = EXCLUDED.appointment_type,
		summary = EXCLUDED.summary,
		attachment_lines = EXCLUDED.attachment_lines,
		created_at = EXCLUDED.created_at
`

// PostgresSink upserts the record into the filing_records table
type PostgresSink struct {
	db Execer
}

// NewPostgresSink creates a sink over db
func NewPostgresSink(db Execer) *PostgresSink {
	return &PostgresSink{db: db}
}

// Name implements Sink
func (s *PostgresSink) Name() string { return "postgres" }

// EnsureSchema creates the records table if it does not exist
func (s *PostgresSink) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, createRecordsTable); err != nil {
		return fmt.Errorf("failed to create filing_records: %w", err)
	}
	return nil
}

// Publish implements Sink
func (s *PostgresSink) Publish(ctx context.Context, a Artifacts) error {
	r := a.Record
	lines := a.AttachmentLines
	if lines == nil {
		lines = []string{}
	}

	_, err := s.db.Exec(ctx, upsertRecord,
		a.RunID,
		a.Source,
		r.CompanyName,
		r.CIN,
		r.RegisteredOffice,
		r.AppointmentDate,
		r.AuditorName,
		r.AuditorAddress,
		r.AuditorFRN,
		r.AppointmentType,
		a.Summary,
		lines,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert record %s: %w", a.RunID, err)
	}
	return nil
}
