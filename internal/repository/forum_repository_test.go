package repository

import (
	"context"
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campushub/portal-api/internal/models"
)

func TestForumRepositoryDeleteQueryCascade(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewForumRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM answers WHERE query_id").
		WithArgs("q-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("DELETE FROM queries WHERE id").
		WithArgs("q-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.DeleteQueryCascade(context.Background(), "q-1"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForumRepositoryDeleteQueryCascadeAbortsOnAnswerFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewForumRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM answers WHERE query_id").
		WithArgs("q-1").
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	err := repo.DeleteQueryCascade(context.Background(), "q-1")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForumRepositoryAcceptAnswerClearsSiblingsFirst(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewForumRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE answers SET is_accepted = FALSE").
		WithArgs("q-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE answers SET is_accepted = TRUE").
		WithArgs("a-2", "q-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE queries SET solved = TRUE").
		WithArgs("q-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, repo.AcceptAnswer(context.Background(), "q-1", "a-2"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForumRepositoryAcceptAnswerUnknownAnswer(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewForumRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("UPDATE answers SET is_accepted = FALSE").
		WithArgs("q-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("UPDATE answers SET is_accepted = TRUE").
		WithArgs("missing", "q-1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.AcceptAnswer(context.Background(), "q-1", "missing")
	assert.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestForumRepositoryCreateAnswerBumpsReplyCount(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewForumRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO answers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("UPDATE queries SET replies = replies").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	answer := &models.Answer{
		QueryID:    "q-1",
		Content:    "Check the execution plan first.",
		Author:     "Prof. Williams",
		AuthorID:   "u-3",
		AuthorRole: models.RoleFaculty,
	}
	require.NoError(t, repo.CreateAnswer(context.Background(), answer))
	assert.NotEmpty(t, answer.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}
