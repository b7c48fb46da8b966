package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"draftpress/internal/common"
	"draftpress/internal/domain/model"
)

// PostRepository stores posts. Every read and write is keyed by (id, ownerID);
// a post under another owner is reported as common.ErrNotFound.
type PostRepository interface {
	Create(ctx context.Context, post *model.Post) error
	ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error)
	FindByID(ctx context.Context, ownerID, id string) (*model.Post, error)
	Update(ctx context.Context, ownerID, id string, patch model.PostPatch) (*model.Post, error)
	Delete(ctx context.Context, ownerID, id string) error
}

type pgPostRepository struct {
	db DBTX
}

func NewPgPostRepository(db DBTX) PostRepository {
	return &pgPostRepository{db: db}
}

const postColumns = `id, title, slug, content, owner_id, is_draft, created_at, updated_at`

func (r *pgPostRepository) Create(ctx context.Context, p *model.Post) error {
	query := `INSERT INTO posts (id, title, slug, content, owner_id, is_draft)
	          VALUES ($1, $2, $3, $4, $5, $6)
	          RETURNING created_at, updated_at`
	err := r.db.QueryRowContext(ctx, query, p.ID, p.Title, p.Slug, p.Content, p.OwnerID, p.IsDraft).
		Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Create: %w", err)
	}
	return nil
}

func (r *pgPostRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.Post, error) {
	query := `SELECT ` + postColumns + `
	          FROM posts WHERE owner_id = $1
	          ORDER BY created_at DESC, id DESC`
	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("pgPostRepository.ListByOwner: %w", err)
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		var p model.Post
		if err := scanPost(rows, &p); err != nil {
			return nil, fmt.Errorf("pgPostRepository.ListByOwner scan: %w", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("pgPostRepository.ListByOwner rows: %w", err)
	}
	return posts, nil
}

func (r *pgPostRepository) FindByID(ctx context.Context, ownerID, id string) (*model.Post, error) {
	query := `SELECT ` + postColumns + `
	          FROM posts WHERE id = $1 AND owner_id = $2`
	p := &model.Post{}
	if err := scanPost(r.db.QueryRowContext(ctx, query, id, ownerID), p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPostRepository.FindByID: %w", err)
	}
	return p, nil
}

// Update applies the set fields in a single statement; concurrent writers are last-write-wins per column.
func (r *pgPostRepository) Update(ctx context.Context, ownerID, id string, patch model.PostPatch) (*model.Post, error) {
	query := `UPDATE posts SET
	            title = COALESCE($3, title),
	            slug = COALESCE($4, slug),
	            content = COALESCE($5, content),
	            is_draft = COALESCE($6, is_draft),
	            updated_at = CURRENT_TIMESTAMP
	          WHERE id = $1 AND owner_id = $2
	          RETURNING ` + postColumns
	p := &model.Post{}
	row := r.db.QueryRowContext(ctx, query, id, ownerID,
		nullString(patch.Title), nullString(patch.Slug), nullString(patch.Content), nullBool(patch.IsDraft))
	if err := scanPost(row, p); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, fmt.Errorf("pgPostRepository.Update: %w", err)
	}
	return p, nil
}

func (r *pgPostRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND owner_id = $2`, id, ownerID)
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("pgPostRepository.Delete rows affected: %w", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner, p *model.Post) error {
	return row.Scan(&p.ID, &p.Title, &p.Slug, &p.Content, &p.OwnerID, &p.IsDraft, &p.CreatedAt, &p.UpdatedAt)
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullBool(b *bool) sql.NullBool {
	if b == nil {
		return sql.NullBool{}
	}
	return sql.NullBool{Bool: *b, Valid: true}
}
