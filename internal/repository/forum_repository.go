package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/campushub/portal-api/internal/models"
)

// ForumRepository provides persistence for queries and their answers.
type ForumRepository struct {
	db *sqlx.DB
}

// NewForumRepository creates the repository.
func NewForumRepository(db *sqlx.DB) *ForumRepository {
	return &ForumRepository{db: db}
}

type queryRow struct {
	models.Query
	RowLikedBy pq.StringArray `db:"liked_by"`
}

func (r queryRow) toModel() models.Query {
	query := r.Query
	query.LikedBy = append([]string(nil), r.RowLikedBy...)
	return query
}

const queryColumns = `id, title, content, author, author_id, subject, likes, liked_by, solved, replies, created_at, updated_at`
const answerColumns = `id, query_id, content, author, author_id, author_role, is_accepted, created_at, updated_at`

// ListQueries returns all forum queries ordered by creation time descending.
func (r *ForumRepository) ListQueries(ctx context.Context) ([]models.Query, error) {
	q := fmt.Sprintf(`SELECT %s FROM queries ORDER BY created_at DESC`, queryColumns)
	var rows []queryRow
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, fmt.Errorf("list queries: %w", err)
	}
	queries := make([]models.Query, 0, len(rows))
	for _, row := range rows {
		queries = append(queries, row.toModel())
	}
	return queries, nil
}

// ListAnswers returns all answers ordered oldest-first within each query.
func (r *ForumRepository) ListAnswers(ctx context.Context) ([]models.Answer, error) {
	q := fmt.Sprintf(`SELECT %s FROM answers ORDER BY created_at ASC`, answerColumns)
	var answers []models.Answer
	if err := r.db.SelectContext(ctx, &answers, q); err != nil {
		return nil, fmt.Errorf("list answers: %w", err)
	}
	return answers, nil
}

// CreateQuery inserts a new query with zeroed counters.
func (r *ForumRepository) CreateQuery(ctx context.Context, query *models.Query) error {
	if query.ID == "" {
		query.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if query.CreatedAt.IsZero() {
		query.CreatedAt = now
	}
	query.UpdatedAt = now
	const q = `INSERT INTO queries (id, title, content, author, author_id, subject, likes, liked_by, solved, replies, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`
	if _, err := r.db.ExecContext(ctx, q,
		query.ID, query.Title, query.Content, query.Author, query.AuthorID, query.Subject,
		query.Likes, pq.Array(query.LikedBy), query.Solved, query.Replies,
		query.CreatedAt, query.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create query: %w", err)
	}
	return nil
}

// CreateAnswer inserts an answer and bumps the owning query's reply count in
// a single transaction.
func (r *ForumRepository) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	if answer.ID == "" {
		answer.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if answer.CreatedAt.IsZero() {
		answer.CreatedAt = now
	}
	answer.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create answer: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	const insert = `INSERT INTO answers (id, query_id, content, author, author_id, author_role, is_accepted, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := tx.ExecContext(ctx, insert,
		answer.ID, answer.QueryID, answer.Content, answer.Author, answer.AuthorID,
		answer.AuthorRole, answer.IsAccepted, answer.CreatedAt, answer.UpdatedAt,
	); err != nil {
		return fmt.Errorf("create answer: %w", err)
	}

	const bump = `UPDATE queries SET replies = replies + 1, updated_at = $2 WHERE id = $1`
	result, err := tx.ExecContext(ctx, bump, answer.QueryID, now)
	if err != nil {
		return fmt.Errorf("bump reply count: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("create answer: query %s not found", answer.QueryID)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create answer: %w", err)
	}
	return nil
}

// UpdateQueryLikes persists a like toggle outcome.
func (r *ForumRepository) UpdateQueryLikes(ctx context.Context, id string, likes int, likedBy []string) error {
	const q = `UPDATE queries SET likes = $2, liked_by = $3, updated_at = $4 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, q, id, likes, pq.Array(likedBy), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update query likes: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update query likes: query %s not found", id)
	}
	return nil
}

// AcceptAnswer clears any previously accepted answer, marks the chosen one
// accepted and flags the query solved, all in one transaction.
func (r *ForumRepository) AcceptAnswer(ctx context.Context, queryID, answerID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin accept answer: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()

	const clear = `UPDATE answers SET is_accepted = FALSE, updated_at = $2 WHERE query_id = $1 AND is_accepted = TRUE`
	if _, err := tx.ExecContext(ctx, clear, queryID, now); err != nil {
		return fmt.Errorf("clear accepted answers: %w", err)
	}

	const accept = `UPDATE answers SET is_accepted = TRUE, updated_at = $3 WHERE id = $1 AND query_id = $2`
	result, err := tx.ExecContext(ctx, accept, answerID, queryID, now)
	if err != nil {
		return fmt.Errorf("accept answer: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("accept answer: answer %s not found for query %s", answerID, queryID)
	}

	const solve = `UPDATE queries SET solved = TRUE, updated_at = $2 WHERE id = $1`
	if _, err := tx.ExecContext(ctx, solve, queryID, now); err != nil {
		return fmt.Errorf("mark query solved: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit accept answer: %w", err)
	}
	return nil
}

// DeleteQueryCascade removes a query's answers and then the query itself in
// one transaction, so a failed answer delete leaves the query untouched.
func (r *ForumRepository) DeleteQueryCascade(ctx context.Context, queryID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete query: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	if _, err := tx.ExecContext(ctx, "DELETE FROM answers WHERE query_id = $1", queryID); err != nil {
		return fmt.Errorf("delete answers for query %s: %w", queryID, err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM queries WHERE id = $1", queryID); err != nil {
		return fmt.Errorf("delete query %s: %w", queryID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete query: %w", err)
	}
	return nil
}
