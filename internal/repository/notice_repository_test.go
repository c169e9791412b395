package repository

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/portal-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	sqlxDB := sqlx.NewDb(db, "postgres")
	return sqlxDB, mock, func() {
		sqlxDB.Close()
		db.Close()
	}
}

func TestNoticeRepositoryListOrdersByRecency(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNoticeRepository(db)
	now := time.Now().UTC()
	until := now.Add(time.Hour)
	rows := sqlmock.NewRows([]string{"id", "title", "content", "author", "author_id", "department", "subject", "category", "pinned", "pinned_until", "attachments", "created_at", "updated_at"}).
		AddRow("n-2", "Exam schedule", "Mid-terms start Monday", "Dr. Rao", "u-1", "CSE", nil, "EXAM", true, until, pq.StringArray{"schedule.pdf"}, now, now).
		AddRow("n-1", "Library hours", "Open 24/7 during exams", "Library", "u-2", "Library", nil, "GENERAL", false, nil, pq.StringArray{}, now.Add(-time.Hour), now.Add(-time.Hour))
	mock.ExpectQuery("SELECT (.+) FROM notices ORDER BY created_at DESC").
		WillReturnRows(rows)

	notices, err := repo.List(context.Background())
	require.NoError(t, err)
	require.Len(t, notices, 2)
	assert.Equal(t, "n-2", notices[0].ID)
	assert.Equal(t, []string{"schedule.pdf"}, notices[0].Attachments)
	require.NotNil(t, notices[0].PinnedUntil)
	assert.True(t, notices[0].Pinned)
	assert.False(t, notices[1].Pinned)
	assert.Nil(t, notices[1].PinnedUntil)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryUpdatePinState(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNoticeRepository(db)
	until := time.Now().Add(time.Hour)
	mock.ExpectExec("UPDATE notices SET pinned").
		WithArgs("n-1", true, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePinState(context.Background(), "n-1", models.PinnedUntil(until)))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryUpdatePinStateClearsExpiry(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNoticeRepository(db)
	mock.ExpectExec("UPDATE notices SET pinned").
		WithArgs("n-1", false, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePinState(context.Background(), "n-1", models.Unpinned()))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNoticeRepositoryUpdatePinStateMissingNotice(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNoticeRepository(db)
	mock.ExpectExec("UPDATE notices SET pinned").
		WithArgs("missing", true, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.UpdatePinState(context.Background(), "missing", models.PinnedForever())
	assert.Error(t, err)
}

func TestNoticeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewNoticeRepository(db)
	mock.ExpectExec("INSERT INTO notices").
		WillReturnResult(sqlmock.NewResult(1, 1))

	notice := &models.Notice{
		Title:      "Network maintenance",
		Content:    "Campus network down Friday night",
		Author:     "IT Services",
		AuthorID:   "u-9",
		Department: "IT",
		Category:   models.NoticeCategoryUrgent,
	}
	require.NoError(t, repo.Create(context.Background(), notice))
	assert.NotEmpty(t, notice.ID)
	assert.False(t, notice.CreatedAt.IsZero())
}
