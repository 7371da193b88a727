package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/fitdesk/gym-api/internal/models"
)

func TestCheckInRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCheckInRepository(db)

	mock.ExpectExec("INSERT INTO check_ins").
		WithArgs(sqlmock.AnyArg(), "mem-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	checkIn := &models.CheckIn{MemberID: "mem-1"}
	require.NoError(t, repo.Create(context.Background(), checkIn))
	require.NotEmpty(t, checkIn.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepositoryExistsForDayBounds(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCheckInRepository(db)

	// The window covers the whole calendar day regardless of the query time.
	day := time.Date(2026, time.September, 1, 17, 45, 12, 0, time.UTC)
	start := time.Date(2026, time.September, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.September, 2, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery("SELECT 1 FROM check_ins").
		WithArgs("mem-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsForDay(context.Background(), "mem-1", day)
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery("SELECT 1 FROM check_ins").
		WithArgs("mem-1", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsForDay(context.Background(), "mem-1", day)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckInRepositoryList(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()
	repo := NewCheckInRepository(db)

	rows := sqlmock.NewRows([]string{"id", "member_id", "checked_in_at", "member_name", "member_document"}).
		AddRow("chk-1", "mem-1", time.Now(), "Ana Souza", "12345678900")
	mock.ExpectQuery("SELECT ci.id, ci.member_id, ci.checked_in_at").
		WithArgs("mem-1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT").
		WithArgs("mem-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	checkIns, total, err := repo.List(context.Background(), models.CheckInFilter{MemberID: "mem-1"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, checkIns, 1)
	require.Equal(t, "Ana Souza", checkIns[0].MemberName)
	require.NoError(t, mock.ExpectationsWereMet())
}
