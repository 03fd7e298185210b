package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Appointment is a row of the appointments ledger.
type Appointment struct {
	ID        uuid.UUID `json:"id"`
	SessionID string    `json:"session_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Reason    string    `json:"reason"`
	StartsAt  time.Time `json:"starts_at"`
	EndsAt    time.Time `json:"ends_at"`
	Language  string    `json:"language"`
	CreatedAt time.Time `json:"created_at"`
}

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Ledger stores booked appointments in Postgres.
type Ledger struct {
	db dbtx
}

func NewLedger(pool *pgxpool.Pool) *Ledger {
	if pool == nil {
		panic("booking: pgx pool required")
	}
	return &Ledger{db: pool}
}

func newLedgerWithDB(db dbtx) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) Record(ctx context.Context, appt Appointment) error {
	if appt.ID == uuid.Nil {
		appt.ID = uuid.New()
	}
	if appt.CreatedAt.IsZero() {
		appt.CreatedAt = time.Now().UTC()
	}
	query := `
		INSERT INTO appointments (id, session_id, first_name, last_name, reason, starts_at, ends_at, language, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := l.db.Exec(ctx, query,
		appt.ID, appt.SessionID, appt.FirstName, appt.LastName, appt.Reason,
		appt.StartsAt, appt.EndsAt, appt.Language, appt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("booking: insert appointment: %w", err)
	}
	return nil
}

// LatestForSession returns the most recent appointment booked by a session, or nil.
func (l *Ledger) LatestForSession(ctx context.Context, sessionID string) (*Appointment, error) {
	query := `
		SELECT id, session_id, first_name, last_name, reason, starts_at, ends_at, language, created_at
		FROM appointments
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	var appt Appointment
	err := l.db.QueryRow(ctx, query, sessionID).Scan(
		&appt.ID, &appt.SessionID, &appt.FirstName, &appt.LastName, &appt.Reason,
		&appt.StartsAt, &appt.EndsAt, &appt.Language, &appt.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("booking: load appointment: %w", err)
	}
	return &appt, nil
}
