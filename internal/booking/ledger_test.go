package booking

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	pgx "github.com/jackc/pgx/v5"
	pgxmock "github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLedgerRecord(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := newLedgerWithDB(mock)
	start := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)
	created := time.Date(2026, 10, 16, 10, 0, 0, 0, time.UTC)
	id := uuid.New()

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(id, "sess-1", "Lea", "Martin", "cleaning", start, start.Add(time.Hour), "french", created).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = ledger.Record(context.Background(), Appointment{
		ID:        id,
		SessionID: "sess-1",
		FirstName: "Lea",
		LastName:  "Martin",
		Reason:    "cleaning",
		StartsAt:  start,
		EndsAt:    start.Add(time.Hour),
		Language:  "french",
		CreatedAt: created,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerRecordAssignsID(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(pgxmock.AnyArg(), "sess-2", "A", "B", "C", pgxmock.AnyArg(), pgxmock.AnyArg(), "english", pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	err = newLedgerWithDB(mock).Record(context.Background(), Appointment{
		SessionID: "sess-2", FirstName: "A", LastName: "B", Reason: "C", Language: "english",
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestLedgerLatestForSession(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	ledger := newLedgerWithDB(mock)
	id := uuid.New()
	start := time.Date(2026, 10, 19, 14, 0, 0, 0, time.UTC)
	cols := []string{"id", "session_id", "first_name", "last_name", "reason", "starts_at", "ends_at", "language", "created_at"}

	mock.ExpectQuery("SELECT id, session_id").WithArgs("sess-1").
		WillReturnRows(pgxmock.NewRows(cols).AddRow(id, "sess-1", "Lea", "Martin", "cleaning", start, start.Add(time.Hour), "french", start))
	appt, err := ledger.LatestForSession(context.Background(), "sess-1")
	require.NoError(t, err)
	require.NotNil(t, appt)
	assert.Equal(t, id, appt.ID)
	assert.Equal(t, "Martin", appt.LastName)

	mock.ExpectQuery("SELECT id, session_id").WithArgs("missing").WillReturnError(pgx.ErrNoRows)
	appt, err = ledger.LatestForSession(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, appt)

	require.NoError(t, mock.ExpectationsWereMet())
}
