package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"folio/api/internal/cache"
	"folio/api/internal/doc"
	"folio/api/internal/metrics"
	"folio/api/internal/preview"
	"folio/api/internal/render"
	"folio/api/internal/revisions"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

type fakeStore struct {
	mu       sync.Mutex
	posts    map[string]store.Post
	sections map[string]store.Section
	projects []store.Project
	upserts  int

	pingFn       func(context.Context) error
	upsertPostFn func(context.Context, store.Post) (store.Post, error)
}

func newFakeStore() *fakeStore {
	return &fakeStore{posts: map[string]store.Post{}, sections: map[string]store.Section{}}
}

func (f *fakeStore) ListPosts(_ context.Context, includeDrafts bool) ([]store.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]store.Post, 0, len(f.posts))
	for _, post := range f.posts {
		if post.Published || includeDrafts {
			post.Content = ""
			items = append(items, post)
		}
	}
	return items, nil
}

func (f *fakeStore) GetPost(_ context.Context, slug string) (store.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	post, ok := f.posts[slug]
	if !ok {
		return store.Post{}, store.ErrNotFound
	}
	return post, nil
}

func (f *fakeStore) UpsertPost(ctx context.Context, item store.Post) (store.Post, error) {
	if f.upsertPostFn != nil {
		return f.upsertPostFn(ctx, item)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	if existing, ok := f.posts[item.Slug]; ok {
		item.CreatedAt = existing.CreatedAt
	} else {
		item.CreatedAt = now
	}
	item.UpdatedAt = now
	f.posts[item.Slug] = item
	return item, nil
}

func (f *fakeStore) GetSection(_ context.Context, key string) (store.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	section, ok := f.sections[key]
	if !ok {
		return store.Section{}, store.ErrNotFound
	}
	return section, nil
}

func (f *fakeStore) UpsertSection(_ context.Context, key, content string) (store.Section, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	section := store.Section{Key: key, Content: content, UpdatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	f.sections[key] = section
	return section, nil
}

func (f *fakeStore) ListProjects(context.Context) ([]store.Project, error) {
	return f.projects, nil
}

func (f *fakeStore) Ping(ctx context.Context) error {
	if f.pingFn != nil {
		return f.pingFn(ctx)
	}
	return nil
}

func (f *fakeStore) put(post store.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.posts[post.Slug] = post
}

type fakeCache struct {
	mu       sync.Mutex
	pages    map[string]cache.Page
	previews map[string]render.LinkCard
	pingErr  error
}

func newFakeCache() *fakeCache {
	return &fakeCache{pages: map[string]cache.Page{}, previews: map[string]render.LinkCard{}}
}

func (c *fakeCache) GetPage(_ context.Context, slug string, variant render.Variant) (cache.Page, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	page, ok := c.pages[slug+":"+variant.String()]
	if !ok {
		return cache.Page{}, cache.ErrMiss
	}
	return page, nil
}

func (c *fakeCache) SetPage(_ context.Context, slug string, variant render.Variant, page cache.Page) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[slug+":"+variant.String()] = page
	return nil
}

func (c *fakeCache) InvalidatePage(_ context.Context, slug string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.pages, slug+":blog")
	delete(c.pages, slug+":preview")
	return nil
}

func (c *fakeCache) GetPreview(_ context.Context, url string) (render.LinkCard, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	card, ok := c.previews[url]
	if !ok {
		return render.LinkCard{}, cache.ErrMiss
	}
	return card, nil
}

func (c *fakeCache) SetPreview(_ context.Context, card render.LinkCard) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.previews[card.URL] = card
	return nil
}

func (c *fakeCache) Ping(context.Context) error {
	return c.pingErr
}

func (c *fakeCache) pageCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pages)
}

type fakeIndex struct {
	mu      sync.Mutex
	indexed []string
	deleted []string
}

func (f *fakeIndex) Search(q search.Query) search.Response {
	return search.Response{Results: []search.Result{{Slug: "hello", Title: "Hello"}}, Total: 1, Query: q.Text, Engine: "fake"}
}

func (f *fakeIndex) IndexPost(p search.PostRecord) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.indexed = append(f.indexed, p.Slug)
}

func (f *fakeIndex) DeletePost(slug string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, slug)
}

func (f *fakeIndex) ReindexAll(context.Context) {}

type fakeFetcher struct {
	calls int
	meta  preview.Metadata
	err   error
}

func (f *fakeFetcher) Fetch(_ context.Context, rawURL string) (preview.Metadata, error) {
	f.calls++
	if f.err != nil {
		return preview.Metadata{}, f.err
	}
	meta := f.meta
	meta.URL = rawURL
	return meta, nil
}

func newTestService(t *testing.T, fs *fakeStore) (*Service, *fakeCache, *fakeIndex) {
	t.Helper()
	fc := newFakeCache()
	idx := &fakeIndex{}
	svc := &Service{
		logger:    zap.NewNop(),
		metrics:   metrics.New(),
		store:     fs,
		cache:     fc,
		revisions: revisions.New(t.TempDir()),
		search:    idx,
	}
	return svc, fc, idx
}

func docJSON(t *testing.T, blocks ...doc.Node) string {
	t.Helper()
	data, err := doc.Serialize(doc.Doc(blocks...))
	require.NoError(t, err)
	return string(data)
}

func samplePost(slug, title, content string) store.Post {
	return store.Post{
		Slug:      slug,
		Title:     title,
		Content:   content,
		Published: true,
		CreatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
		UpdatedAt: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC),
	}
}
