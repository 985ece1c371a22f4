package repo

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/radieske/spin-wager-platform/internal/outcome"
)

func newMock(t *testing.T) (*Postgres, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return NewPostgres(conn), mock
}

var columns = []string{"id", "label", "multiplier", "weight", "visible", "color", "text_color"}

func TestVisibleScansRows(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectQuery(`SELECT id, label, multiplier, weight, visible, color, text_color FROM outcomes WHERE visible ORDER BY id`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), "2x", "2", int64(10), true, "#00ff9d", "#000000").
			AddRow(int64(4), "1.5x", "1.5", int64(5), true, "", ""))

	got, err := p.Visible(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.True(t, got[1].Multiplier.Equal(decimal.RequireFromString("1.5")))
	assert.Equal(t, int64(5), got[1].Weight)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestVisibleEmptyTable(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(`FROM outcomes WHERE visible`).WillReturnRows(sqlmock.NewRows(columns))

	got, err := p.Visible(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestUpdateCommitsWholeBatch(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE outcomes`).
		WithArgs("2x", "2", int64(20), true, "", "", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE outcomes`).
		WithArgs("0x", "0", int64(0), false, "", "", int64(2)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := p.Update(context.Background(), []outcome.Outcome{
		{ID: 1, Label: "2x", Multiplier: decimal.NewFromInt(2), Weight: 20, Visible: true},
		{ID: 2, Label: "0x", Multiplier: decimal.Zero, Weight: 0, Visible: false},
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateLocksRowsInIDOrder(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE outcomes`).
		WithArgs("1x", "1", int64(1), true, "", "", int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE outcomes`).
		WithArgs("3x", "3", int64(1), true, "", "", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch := []outcome.Outcome{
		{ID: 3, Label: "3x", Multiplier: decimal.NewFromInt(3), Weight: 1, Visible: true},
		{ID: 1, Label: "1x", Multiplier: decimal.NewFromInt(1), Weight: 1, Visible: true},
	}
	require.NoError(t, p.Update(context.Background(), batch))
	require.NoError(t, mock.ExpectationsWereMet())

	// lote do chamador fica intacto
	assert.Equal(t, int64(3), batch[0].ID)
}

func TestUpdateUnknownIDRollsBack(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE outcomes`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE outcomes`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := p.Update(context.Background(), []outcome.Outcome{
		{ID: 1, Label: "2x", Multiplier: decimal.NewFromInt(2), Weight: 1, Visible: true},
		{ID: 77, Label: "3x", Multiplier: decimal.NewFromInt(3), Weight: 1, Visible: true},
	})
	require.ErrorIs(t, err, outcome.ErrOutcomeNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateInvalidBatchNeverTouchesDB(t *testing.T) {
	p, mock := newMock(t)

	err := p.Update(context.Background(), []outcome.Outcome{
		{ID: 1, Label: "bad", Multiplier: decimal.NewFromInt(-2), Weight: 1},
	})
	require.ErrorIs(t, err, outcome.ErrInvalidOutcome)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedSkipsWhenTableHasRows(t *testing.T) {
	p, mock := newMock(t)

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE outcomes`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM outcomes`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectRollback()

	seeded, err := p.Seed(context.Background(), outcome.DefaultWheel())
	require.NoError(t, err)
	assert.False(t, seeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSeedInsertsDefaults(t *testing.T) {
	p, mock := newMock(t)
	defaults := outcome.DefaultWheel()

	mock.ExpectBegin()
	mock.ExpectExec(`LOCK TABLE outcomes`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM outcomes`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	for range defaults {
		mock.ExpectExec(`INSERT INTO outcomes`).WillReturnResult(sqlmock.NewResult(1, 1))
	}
	mock.ExpectCommit()

	seeded, err := p.Seed(context.Background(), defaults)
	require.NoError(t, err)
	assert.True(t, seeded)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListPropagatesQueryError(t *testing.T) {
	p, mock := newMock(t)
	mock.ExpectQuery(`FROM outcomes ORDER BY id`).WillReturnError(sql.ErrConnDone)

	_, err := p.List(context.Background())
	require.ErrorIs(t, err, sql.ErrConnDone)
}
