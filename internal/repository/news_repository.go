package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/colegio-altavista/portal-api/internal/models"
)

// NewsRepository provides database access for news posts.
type NewsRepository struct {
	db *sqlx.DB
}

// NewNewsRepository creates a new instance of NewsRepository.
func NewNewsRepository(db *sqlx.DB) *NewsRepository {
	return &NewsRepository{db: db}
}

const newsDetailColumns = `n.id, n.title, n.body, n.published, n.author_id, n.created_at, n.updated_at, u.full_name AS author_name`

// Create inserts a news post.
func (r *NewsRepository) Create(ctx context.Context, post *models.NewsPost) error {
	if post.ID == "" {
		post.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	post.CreatedAt = now
	post.UpdatedAt = now
	const query = `INSERT INTO news_posts (id, title, body, published, author_id, created_at, updated_at)
VALUES (:id, :title, :body, :published, :author_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("create news post: %w", err)
	}
	return nil
}

// FindByID returns a post with its author name.
func (r *NewsRepository) FindByID(ctx context.Context, id string) (*models.NewsPostDetail, error) {
	query := fmt.Sprintf(`SELECT %s FROM news_posts n JOIN users u ON u.id = n.author_id WHERE n.id = $1 LIMIT 1`, newsDetailColumns)
	var post models.NewsPostDetail
	if err := r.db.GetContext(ctx, &post, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find news post: %w", err)
	}
	return &post, nil
}

// Update modifies a post's editable fields.
func (r *NewsRepository) Update(ctx context.Context, post *models.NewsPost) error {
	post.UpdatedAt = time.Now().UTC()
	const query = `UPDATE news_posts SET title = :title, body = :body, published = :published, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, post); err != nil {
		return fmt.Errorf("update news post: %w", err)
	}
	return nil
}

// Delete removes a post.
func (r *NewsRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM news_posts WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete news post: %w", err)
	}
	return nil
}

// List returns posts newest first with total count. Unpublished drafts
// are excluded when the filter asks for published posts only.
func (r *NewsRepository) List(ctx context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, int, error) {
	base := `FROM news_posts n JOIN users u ON u.id = n.author_id`
	where := "1=1"
	if filter.PublishedOnly {
		where = "n.published = TRUE"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 10
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT %s %s WHERE %s ORDER BY n.created_at DESC LIMIT %d OFFSET %d`,
		newsDetailColumns, base, where, size, offset)
	var posts []models.NewsPostDetail
	if err := r.db.SelectContext(ctx, &posts, query); err != nil {
		return nil, 0, fmt.Errorf("list news posts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s WHERE %s", base, where)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery); err != nil {
		return nil, 0, fmt.Errorf("count news posts: %w", err)
	}
	return posts, total, nil
}
