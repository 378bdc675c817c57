package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garda-ops/gms-api/internal/models"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func assignmentRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{"id", "guard_id", "client_id", "site_name", "shift_start", "shift_end", "status", "notes", "created_at", "updated_at", "guard_name", "client_name"}).
		AddRow(int64(1), int64(10), int64(20), "Warehouse 4", now, now.Add(8*time.Hour), "assigned", "", now, now, "A. Guard", "Acme Logistics")
}

func TestAssignmentRepositoryList(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT a.id, (.|\n)+ FROM assignments a JOIN guards g ON g.id = a.guard_id JOIN clients c ON c.id = a.client_id WHERE 1=1 ORDER BY a.shift_start DESC LIMIT 20 OFFSET 0").
		WillReturnRows(assignmentRows())
	mock.ExpectQuery("SELECT COUNT\\(a.id\\) FROM assignments a").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	assignments, total, err := repo.List(context.Background(), models.AssignmentFilter{})
	require.NoError(t, err)
	assert.Len(t, assignments, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, "Acme Logistics", assignments[0].ClientName)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("SELECT a.id, (.|\n)+ WHERE 1=1 AND a.client_id = \\$1 AND a.status = \\$2 AND \\(LOWER\\(a.site_name\\) LIKE \\$3 OR LOWER\\(g.full_name\\) LIKE \\$3 OR LOWER\\(c.company_name\\) LIKE \\$3\\) ORDER BY a.status ASC LIMIT 10 OFFSET 10").
		WithArgs(int64(20), "active", "%ware%").
		WillReturnRows(assignmentRows())
	mock.ExpectQuery("SELECT COUNT\\(a.id\\) FROM assignments a").
		WithArgs(int64(20), "active", "%ware%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(11))

	_, total, err := repo.List(context.Background(), models.AssignmentFilter{
		ClientID:  20,
		Status:    "active",
		Search:    "Ware",
		Page:      2,
		PageSize:  10,
		SortBy:    "status",
		SortOrder: "asc",
	})
	require.NoError(t, err)
	assert.Equal(t, 11, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery("INSERT INTO assignments").
		WithArgs(int64(10), int64(20), "Warehouse 4", sqlmock.AnyArg(), sqlmock.AnyArg(), models.AssignmentStatusAssigned, "", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(7)))

	assignment := &models.Assignment{GuardID: 10, ClientID: 20, SiteName: "Warehouse 4", ShiftStart: time.Now(), ShiftEnd: time.Now().Add(8 * time.Hour)}
	err := repo.Create(context.Background(), assignment)
	require.NoError(t, err)
	assert.Equal(t, int64(7), assignment.ID)
	assert.Equal(t, models.AssignmentStatusAssigned, assignment.Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryUpdateStatus(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE assignments SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs(int64(7), models.AssignmentStatusActive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateStatus(context.Background(), 7, models.AssignmentStatusActive)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryDelete(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM assignments WHERE id = $1")).
		WithArgs(int64(7)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.Delete(context.Background(), 7)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
