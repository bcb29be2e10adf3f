package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/colegio-altavista/portal-api/internal/models"
	appErrors "github.com/colegio-altavista/portal-api/pkg/errors"
)

type mockNewsRepo struct {
	posts   map[string]models.NewsPostDetail
	deleted []string
}

func (m *mockNewsRepo) Create(ctx context.Context, post *models.NewsPost) error {
	if m.posts == nil {
		m.posts = make(map[string]models.NewsPostDetail)
	}
	if post.ID == "" {
		post.ID = "generated"
	}
	m.posts[post.ID] = models.NewsPostDetail{NewsPost: *post, AuthorName: "Author"}
	return nil
}

func (m *mockNewsRepo) FindByID(ctx context.Context, id string) (*models.NewsPostDetail, error) {
	if p, ok := m.posts[id]; ok {
		return &p, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockNewsRepo) Update(ctx context.Context, post *models.NewsPost) error {
	detail := m.posts[post.ID]
	detail.NewsPost = *post
	m.posts[post.ID] = detail
	return nil
}

func (m *mockNewsRepo) Delete(ctx context.Context, id string) error {
	m.deleted = append(m.deleted, id)
	delete(m.posts, id)
	return nil
}

func (m *mockNewsRepo) List(ctx context.Context, filter models.NewsFilter) ([]models.NewsPostDetail, int, error) {
	var out []models.NewsPostDetail
	for _, p := range m.posts {
		if filter.PublishedOnly && !p.Published {
			continue
		}
		out = append(out, p)
	}
	return out, len(out), nil
}

func newNewsFixture() (*NewsService, *mockNewsRepo) {
	repo := &mockNewsRepo{
		posts: map[string]models.NewsPostDetail{
			"n1": {NewsPost: models.NewsPost{ID: "n1", Title: "Open house", Body: "Friday", Published: true, AuthorID: "admin1"}, AuthorName: "Admin One"},
		},
	}
	return NewNewsService(repo, nil, validator.New(), zap.NewNop()), repo
}

func TestNewsUpdateByAuthor(t *testing.T) {
	svc, _ := newNewsFixture()

	updated, err := svc.Update(context.Background(), "admin1", models.RoleAdmin, "n1", UpdateNewsRequest{
		Title:     "Open house moved",
		Body:      "Saturday",
		Published: true,
	})
	require.NoError(t, err)
	assert.Equal(t, "Open house moved", updated.Title)
}

func TestNewsUpdateByOtherAdminForbidden(t *testing.T) {
	svc, _ := newNewsFixture()

	_, err := svc.Update(context.Background(), "admin2", models.RoleAdmin, "n1", UpdateNewsRequest{
		Title:     "Hijacked",
		Body:      "x",
		Published: true,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestNewsDeleteBySuperAdmin(t *testing.T) {
	svc, repo := newNewsFixture()

	err := svc.Delete(context.Background(), "root", models.RoleSuperAdmin, "n1")
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, repo.deleted)
}

func TestNewsListPublishedOnlyHidesDrafts(t *testing.T) {
	svc, repo := newNewsFixture()
	repo.posts["n2"] = models.NewsPostDetail{NewsPost: models.NewsPost{ID: "n2", Title: "Draft", Body: "wip", Published: false, AuthorID: "admin1"}}

	posts, _, err := svc.List(context.Background(), models.NewsFilter{PublishedOnly: true})
	require.NoError(t, err)
	require.Len(t, posts, 1)
	assert.Equal(t, "n1", posts[0].ID)
}
