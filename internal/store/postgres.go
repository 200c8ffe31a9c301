package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

type PostgresStore struct {
	db *sql.DB
}

func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) DB() *sql.DB {
	return s.db
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping db: %w", err)
	}
	return nil
}

// ListPosts returns posts newest first. Drafts are included only when
// includeDrafts is set; Content is left empty.
func (s *PostgresStore) ListPosts(ctx context.Context, includeDrafts bool) ([]Post, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT slug, title, summary, published, created_at, updated_at
		FROM posts
		WHERE published OR $1
		ORDER BY created_at DESC
	`, includeDrafts)
	if err != nil {
		return nil, fmt.Errorf("list posts: %w", err)
	}
	defer rows.Close()

	items := make([]Post, 0)
	for rows.Next() {
		var item Post
		if err := rows.Scan(&item.Slug, &item.Title, &item.Summary, &item.Published, &item.CreatedAt, &item.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan post: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate posts: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) GetPost(ctx context.Context, slug string) (Post, error) {
	var item Post
	err := s.db.QueryRowContext(ctx, `
		SELECT slug, title, summary, content, body_text, published, created_at, updated_at
		FROM posts
		WHERE slug=$1
	`, slug).Scan(&item.Slug, &item.Title, &item.Summary, &item.Content, &item.BodyText, &item.Published, &item.CreatedAt, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, fmt.Errorf("get post: %w", err)
	}
	return item, nil
}

// UpsertPost inserts or replaces a post and returns the stored row.
func (s *PostgresStore) UpsertPost(ctx context.Context, item Post) (Post, error) {
	var stored Post
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO posts (slug, title, summary, content, body_text, published)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (slug) DO UPDATE SET
			title=EXCLUDED.title,
			summary=EXCLUDED.summary,
			content=EXCLUDED.content,
			body_text=EXCLUDED.body_text,
			published=EXCLUDED.published,
			updated_at=NOW()
		RETURNING slug, title, summary, content, body_text, published, created_at, updated_at
	`, item.Slug, item.Title, item.Summary, item.Content, item.BodyText, item.Published).Scan(
		&stored.Slug,
		&stored.Title,
		&stored.Summary,
		&stored.Content,
		&stored.BodyText,
		&stored.Published,
		&stored.CreatedAt,
		&stored.UpdatedAt,
	)
	if err != nil {
		return Post{}, fmt.Errorf("upsert post: %w", err)
	}
	return stored, nil
}

func (s *PostgresStore) DeletePost(ctx context.Context, slug string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM posts WHERE slug=$1`, slug)
	if err != nil {
		return fmt.Errorf("delete post: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PostgresStore) GetSection(ctx context.Context, key string) (Section, error) {
	var item Section
	err := s.db.QueryRowContext(ctx, `SELECT key, content, updated_at FROM sections WHERE key=$1`, key).
		Scan(&item.Key, &item.Content, &item.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Section{}, ErrNotFound
	}
	if err != nil {
		return Section{}, fmt.Errorf("get section: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) UpsertSection(ctx context.Context, key, content string) (Section, error) {
	var item Section
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO sections (key, content)
		VALUES ($1, $2)
		ON CONFLICT (key) DO UPDATE SET content=EXCLUDED.content, updated_at=NOW()
		RETURNING key, content, updated_at
	`, key, content).Scan(&item.Key, &item.Content, &item.UpdatedAt)
	if err != nil {
		return Section{}, fmt.Errorf("upsert section: %w", err)
	}
	return item, nil
}

func (s *PostgresStore) ListProjects(ctx context.Context) ([]Project, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, description, icon, url, sort_order
		FROM projects
		ORDER BY sort_order, title
	`)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	items := make([]Project, 0)
	for rows.Next() {
		var item Project
		if err := rows.Scan(&item.ID, &item.Title, &item.Description, &item.Icon, &item.URL, &item.SortOrder); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate projects: %w", err)
	}
	return items, nil
}

func (s *PostgresStore) UpsertProject(ctx context.Context, item Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, title, description, icon, url, sort_order)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (id) DO UPDATE SET
			title=EXCLUDED.title,
			description=EXCLUDED.description,
			icon=EXCLUDED.icon,
			url=EXCLUDED.url,
			sort_order=EXCLUDED.sort_order
	`, item.ID, item.Title, item.Description, item.Icon, item.URL, item.SortOrder)
	if err != nil {
		return fmt.Errorf("upsert project: %w", err)
	}
	return nil
}
