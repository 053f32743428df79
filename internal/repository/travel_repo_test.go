package repository

import (
	"context"
	"testing"
	"time"

	"tem-backend/internal/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 sqlDB,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestTravelRepository_ApplyReview(t *testing.T) {
	id := uuid.New()
	manager := uuid.New()
	now := time.Now()
	fields := map[string]interface{}{
		"manager_status":      model.StatusApproved,
		"manager_reviewed_by": manager,
		"manager_comments":    "ok",
		"manager_reviewed_at": now,
		"status":              model.StatusApproved,
	}

	t.Run("AppliesWhileAdminPending", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTravelRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "travel_requests" SET .+ WHERE id = \$\d+ AND admin_status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		applied, err := repo.ApplyReview(context.Background(), id, fields)
		assert.NoError(t, err)
		assert.True(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("GuardRejectsFinalizedRow", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTravelRepository(db)

		// Row exists but admin_status moved past Pending: zero rows touched
		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "travel_requests" SET .+ WHERE id = \$\d+ AND admin_status = \$\d+`).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		applied, err := repo.ApplyReview(context.Background(), id, fields)
		assert.NoError(t, err)
		assert.False(t, applied)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("PropagatesDatabaseError", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTravelRepository(db)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "travel_requests"`).WillReturnError(assert.AnError)
		mock.ExpectRollback()

		applied, err := repo.ApplyReview(context.Background(), id, fields)
		assert.Error(t, err)
		assert.False(t, applied)
	})
}

func TestTravelRepository_ListFilter(t *testing.T) {
	employee := uuid.New()

	t.Run("EmptyNonNilEmployeeSetMatchesNothing", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTravelRepository(db)

		// IN () on an empty set: the count query already returns zero
		mock.ExpectQuery(`SELECT count\(\*\) FROM "travel_requests"`).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
		mock.ExpectQuery(`SELECT .+ FROM "travel_requests"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		requests, total, err := repo.List(context.Background(), RequestFilter{
			EmployeeIDs: []uuid.UUID{},
			Page:        1,
			Limit:       20,
		})
		assert.NoError(t, err)
		assert.EqualValues(t, 0, total)
		assert.Empty(t, requests)
	})

	t.Run("StatusFilterApplied", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewTravelRepository(db)

		mock.ExpectQuery(`SELECT count\(\*\) FROM "travel_requests" WHERE employee_id IN \(\$1\) AND status = \$2`).
			WithArgs(employee, model.StatusPending).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
		mock.ExpectQuery(`SELECT .+ FROM "travel_requests" WHERE employee_id IN \(\$1\) AND status = \$2`).
			WillReturnRows(sqlmock.NewRows([]string{"id", "employee_id", "status"}).
				AddRow(uuid.New(), employee, model.StatusPending))
		// Employee preload for the returned row
		mock.ExpectQuery(`SELECT .+ FROM "users"`).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(employee))

		requests, total, err := repo.List(context.Background(), RequestFilter{
			EmployeeIDs: []uuid.UUID{employee},
			Status:      model.StatusPending,
			Page:        1,
			Limit:       20,
		})
		assert.NoError(t, err)
		assert.EqualValues(t, 1, total)
		require.Len(t, requests, 1)
		assert.Equal(t, model.StatusPending, requests[0].Status)
	})
}
