package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"regexp"
	"strings"
	"time"

	"go.uber.org/zap"

	"folio/api/internal/cache"
	"folio/api/internal/config"
	"folio/api/internal/doc"
	"folio/api/internal/export"
	"folio/api/internal/icons"
	"folio/api/internal/metrics"
	"folio/api/internal/preview"
	"folio/api/internal/render"
	"folio/api/internal/revisions"
	"folio/api/internal/search"
	"folio/api/internal/store"
)

const (
	aboutSectionKey = "about"
	summaryLength   = 200
	historyLimit    = 50
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

type PostView struct {
	Slug      string    `json:"slug"`
	Title     string    `json:"title"`
	Summary   string    `json:"summary"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
	Content   string    `json:"content,omitempty"`
}

type PostPage struct {
	Post   PostView         `json:"post"`
	HTML   string           `json:"html"`
	TOC    []render.Heading `json:"toc"`
	Format render.Format    `json:"format"`
	Cached bool             `json:"cached"`
}

type SavePostInput struct {
	Title     string          `json:"title"`
	Summary   string          `json:"summary"`
	Published bool            `json:"published"`
	Content   json.RawMessage `json:"content"`
	Message   string          `json:"message"`
}

type SaveResult struct {
	Post     PostView              `json:"post"`
	Revision *revisions.CommitInfo `json:"revision,omitempty"`
}

type RevisionView struct {
	Revision revisions.CommitInfo `json:"revision"`
	Snapshot revisions.Snapshot   `json:"snapshot"`
	// Changed lists the fields that differ from the current post.
	Changed []string `json:"changed"`
}

type SectionView struct {
	Key       string           `json:"key"`
	HTML      string           `json:"html"`
	TOC       []render.Heading `json:"toc"`
	Format    render.Format    `json:"format"`
	UpdatedAt *time.Time       `json:"updatedAt"`
}

type ProjectView struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	URL         string     `json:"url"`
	Icon        icons.Icon `json:"icon"`
}

type RenderInput struct {
	Content json.RawMessage `json:"content"`
	Variant string          `json:"variant"`
}

type RenderResult struct {
	HTML   string           `json:"html"`
	TOC    []render.Heading `json:"toc"`
	Format render.Format    `json:"format"`
}

type dataStore interface {
	ListPosts(context.Context, bool) ([]store.Post, error)
	GetPost(context.Context, string) (store.Post, error)
	UpsertPost(context.Context, store.Post) (store.Post, error)
	GetSection(context.Context, string) (store.Section, error)
	UpsertSection(context.Context, string, string) (store.Section, error)
	ListProjects(context.Context) ([]store.Project, error)
	Ping(ctx context.Context) error
}

type pageCache interface {
	GetPage(context.Context, string, render.Variant) (cache.Page, error)
	SetPage(context.Context, string, render.Variant, cache.Page) error
	InvalidatePage(context.Context, string) error
	GetPreview(context.Context, string) (render.LinkCard, error)
	SetPreview(context.Context, render.LinkCard) error
	Ping(context.Context) error
}

type revisionLog interface {
	Commit(string, revisions.Snapshot, string, string) (revisions.CommitInfo, error)
	History(string, int) ([]revisions.CommitInfo, error)
	Get(string, string) (revisions.Snapshot, revisions.CommitInfo, error)
}

type postIndex interface {
	Search(search.Query) search.Response
	IndexPost(search.PostRecord)
	DeletePost(string)
	ReindexAll(context.Context)
}

type exporter interface {
	Export(context.Context, export.Request) (*export.Result, error)
}

type previewFetcher interface {
	Fetch(context.Context, string) (preview.Metadata, error)
}

type Service struct {
	cfg       config.Config
	logger    *zap.Logger
	metrics   *metrics.Metrics
	store     dataStore
	cache     pageCache
	revisions revisionLog
	search    postIndex
	export    exporter
	fetcher   previewFetcher
}

type Option func(*Service)

// WithCache enables the rendered page and link card cache.
func WithCache(c *cache.RedisCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

func WithRevisions(r *revisions.Service) Option {
	return func(s *Service) {
		if r != nil {
			s.revisions = r
		}
	}
}

func WithSearch(idx *search.Service) Option {
	return func(s *Service) {
		if idx != nil {
			s.search = idx
		}
	}
}

func WithExport(e *export.Service) Option {
	return func(s *Service) {
		if e != nil {
			s.export = e
		}
	}
}

func WithPreviewFetcher(f *preview.Fetcher) Option {
	return func(s *Service) {
		if f != nil {
			s.fetcher = f
		}
	}
}

func New(cfg config.Config, logger *zap.Logger, m *metrics.Metrics, dataStore *store.PostgresStore, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if m == nil {
		m = metrics.New()
	}
	s := &Service{
		cfg:     cfg,
		logger:  logger.Named("app"),
		metrics: m,
		store:   dataStore,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the database.
func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

// PingCache reports whether the cache answers. A missing cache is not an error.
func (s *Service) PingCache(ctx context.Context) (bool, error) {
	if s.cache == nil {
		return false, nil
	}
	return true, s.cache.Ping(ctx)
}

func (s *Service) ListPosts(ctx context.Context, includeDrafts bool) ([]PostView, error) {
	posts, err := s.store.ListPosts(ctx, includeDrafts)
	if err != nil {
		return nil, err
	}
	items := make([]PostView, 0, len(posts))
	for _, post := range posts {
		items = append(items, postView(post, false))
	}
	return items, nil
}

// GetPost returns the stored post including its raw content.
func (s *Service) GetPost(ctx context.Context, slug string, includeDrafts bool) (PostView, error) {
	post, err := s.publishedPost(ctx, slug, includeDrafts)
	if err != nil {
		return PostView{}, err
	}
	return postView(post, true), nil
}

func (s *Service) publishedPost(ctx context.Context, slug string, includeDrafts bool) (store.Post, error) {
	post, err := s.store.GetPost(ctx, slug)
	if err != nil {
		return store.Post{}, err
	}
	if !post.Published && !includeDrafts {
		return store.Post{}, store.ErrNotFound
	}
	return post, nil
}

// GetPostPage renders a published post, serving from the cache when possible.
func (s *Service) GetPostPage(ctx context.Context, slug string, variant render.Variant) (PostPage, error) {
	post, err := s.publishedPost(ctx, slug, false)
	if err != nil {
		return PostPage{}, err
	}

	if s.cache != nil {
		page, err := s.cache.GetPage(ctx, slug, variant)
		switch {
		case err == nil:
			s.metrics.RenderCache.WithLabelValues("hit").Inc()
			return PostPage{Post: postView(post, false), HTML: page.HTML, TOC: nonNilHeadings(page.TOC), Format: page.Format, Cached: true}, nil
		case errors.Is(err, cache.ErrMiss):
			s.metrics.RenderCache.WithLabelValues("miss").Inc()
		default:
			s.metrics.RenderCache.WithLabelValues("error").Inc()
			s.logger.Warn("page cache read failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	page := s.renderPage(ctx, post.Content, variant)
	if s.cache != nil {
		if err := s.cache.SetPage(ctx, slug, variant, page); err != nil {
			s.logger.Warn("page cache write failed", zap.String("slug", slug), zap.Error(err))
		}
	}
	return PostPage{Post: postView(post, false), HTML: page.HTML, TOC: page.TOC, Format: page.Format}, nil
}

// BlogPage renders a published post as a standalone HTML page.
func (s *Service) BlogPage(ctx context.Context, slug string) (string, error) {
	page, err := s.GetPostPage(ctx, slug, render.VariantBlog)
	if err != nil {
		return "", err
	}
	return export.RenderPageHTML(export.TemplateData{
		Title:       page.Post.Title,
		Summary:     page.Post.Summary,
		ContentHTML: template.HTML(page.HTML),
		TOC:         page.TOC,
		UpdatedAt:   page.Post.UpdatedAt,
	})
}

func (s *Service) PostTOC(ctx context.Context, slug string) ([]render.Heading, error) {
	page, err := s.GetPostPage(ctx, slug, render.VariantBlog)
	if err != nil {
		return nil, err
	}
	return page.TOC, nil
}

func (s *Service) renderPage(ctx context.Context, raw string, variant render.Variant) cache.Page {
	d, format := render.Decode(raw)
	html := render.Document(d, render.Options{
		Variant:  variant,
		Previews: s.previewCards(ctx, render.PreviewURLs(d)),
	})
	s.metrics.Renders.WithLabelValues(string(format), variant.String()).Inc()
	return cache.Page{
		HTML:     render.Sanitize(html),
		TOC:      nonNilHeadings(render.Headings(d)),
		Format:   format,
		CachedAt: time.Now().UTC(),
	}
}

// previewCards looks up cached cards for urls. Cards are never fetched while
// rendering.
func (s *Service) previewCards(ctx context.Context, urls []string) map[string]render.LinkCard {
	if s.cache == nil || len(urls) == 0 {
		return nil
	}
	cards := make(map[string]render.LinkCard, len(urls))
	for _, u := range urls {
		card, err := s.cache.GetPreview(ctx, u)
		if err != nil {
			continue
		}
		cards[u] = card
	}
	return cards
}

// SavePost validates and stores a post, records a revision, and refreshes the
// search index and page cache.
func (s *Service) SavePost(ctx context.Context, slug string, input SavePostInput, author string) (SaveResult, error) {
	slug = strings.TrimSpace(slug)
	if !slugPattern.MatchString(slug) || len(slug) > 120 {
		return SaveResult{}, domainError(http.StatusBadRequest, "INVALID_SLUG", "Slug must be lowercase words joined by hyphens", nil)
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return SaveResult{}, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "Title is required", nil)
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return SaveResult{}, err
	}
	return s.storePost(ctx, store.Post{
		Slug:      slug,
		Title:     title,
		Summary:   strings.TrimSpace(input.Summary),
		Content:   content,
		Published: input.Published,
	}, author, input.Message)
}

func (s *Service) storePost(ctx context.Context, post store.Post, author, message string) (SaveResult, error) {
	d, _ := render.Decode(post.Content)
	post.BodyText = render.PlainText(d)
	post.Summary = firstNonBlank(post.Summary, render.Summary(d, summaryLength))

	saved, err := s.store.UpsertPost(ctx, post)
	if err != nil {
		return SaveResult{}, err
	}
	result := SaveResult{Post: postView(saved, true)}

	if s.revisions != nil {
		info, err := s.revisions.Commit(saved.Slug, snapshotOf(saved), author, message)
		if err != nil {
			s.logger.Error("revision commit failed", zap.String("slug", saved.Slug), zap.Error(err))
		} else {
			result.Revision = &info
		}
	}

	if s.search != nil {
		if saved.Published {
			s.search.IndexPost(search.PostRecord{
				Slug:     saved.Slug,
				Title:    saved.Title,
				Summary:  saved.Summary,
				BodyText: saved.BodyText,
			})
		} else {
			s.search.DeletePost(saved.Slug)
		}
	}

	s.invalidatePage(ctx, saved.Slug)
	if urls := render.PreviewURLs(d); len(urls) > 0 && s.fetcher != nil && s.cache != nil {
		go s.warmPreviews(saved.Slug, urls)
	}
	return result, nil
}

func (s *Service) invalidatePage(ctx context.Context, slug string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.InvalidatePage(ctx, slug); err != nil {
		s.logger.Warn("page cache invalidation failed", zap.String("slug", slug), zap.Error(err))
	}
}

// warmPreviews fetches cards missing from the cache and drops the rendered
// page once any were added.
func (s *Service) warmPreviews(slug string, urls []string) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	added := 0
	for _, u := range urls {
		if _, err := s.cache.GetPreview(ctx, u); err == nil {
			continue
		}
		if _, _, err := s.fetchPreview(ctx, u); err != nil {
			s.logger.Debug("link preview warmup failed", zap.String("url", u), zap.Error(err))
			continue
		}
		added++
	}
	if added > 0 {
		s.invalidatePage(ctx, slug)
	}
}

func (s *Service) PostHistory(ctx context.Context, slug string) ([]revisions.CommitInfo, error) {
	if s.revisions == nil {
		return nil, revisions.ErrNoHistory
	}
	if _, err := s.store.GetPost(ctx, slug); err != nil {
		return nil, err
	}
	return s.revisions.History(slug, historyLimit)
}

// PostRevision returns one recorded snapshot and how it differs from the
// current post.
func (s *Service) PostRevision(ctx context.Context, slug, hash string) (RevisionView, error) {
	if s.revisions == nil {
		return RevisionView{}, revisions.ErrNoHistory
	}
	current, err := s.store.GetPost(ctx, slug)
	if err != nil {
		return RevisionView{}, err
	}
	snap, info, err := s.revisions.Get(slug, hash)
	if err != nil {
		return RevisionView{}, err
	}
	return RevisionView{
		Revision: info,
		Snapshot: snap,
		Changed:  revisions.ChangedFields(snap, snapshotOf(current)),
	}, nil
}

func (s *Service) ExportPost(ctx context.Context, slug string, format export.Format, paper export.Paper) (*export.Result, error) {
	if s.export == nil {
		return nil, domainError(http.StatusServiceUnavailable, "EXPORT_UNAVAILABLE", "Export is not configured", nil)
	}
	if _, err := s.publishedPost(ctx, slug, false); err != nil {
		return nil, err
	}
	return s.export.Export(ctx, export.Request{Slug: slug, Format: format, Paper: paper})
}

// GetAbout renders the about section. A missing section renders empty.
func (s *Service) GetAbout(ctx context.Context) (SectionView, error) {
	section, err := s.store.GetSection(ctx, aboutSectionKey)
	if errors.Is(err, store.ErrNotFound) {
		return SectionView{Key: aboutSectionKey, TOC: []render.Heading{}, Format: render.FormatEmpty}, nil
	}
	if err != nil {
		return SectionView{}, err
	}
	return sectionView(section, s.renderPage(ctx, section.Content, render.VariantPreview)), nil
}

func (s *Service) SaveAbout(ctx context.Context, raw json.RawMessage) (SectionView, error) {
	content, err := normalizeContent(raw)
	if err != nil {
		return SectionView{}, err
	}
	section, err := s.store.UpsertSection(ctx, aboutSectionKey, content)
	if err != nil {
		return SectionView{}, err
	}
	return sectionView(section, s.renderPage(ctx, section.Content, render.VariantPreview)), nil
}

func (s *Service) ListProjects(ctx context.Context) ([]ProjectView, error) {
	projects, err := s.store.ListProjects(ctx)
	if err != nil {
		return nil, err
	}
	items := make([]ProjectView, 0, len(projects))
	for _, project := range projects {
		items = append(items, ProjectView{
			ID:          project.ID,
			Title:       project.Title,
			Description: project.Description,
			URL:         project.URL,
			Icon:        icons.Resolve(project.Icon),
		})
	}
	return items, nil
}

// Reindex rebuilds the search index from the database in the background.
func (s *Service) Reindex() bool {
	if s.search == nil {
		return false
	}
	go s.search.ReindexAll(context.Background())
	return true
}

func (s *Service) Search(q search.Query) search.Response {
	if s.search == nil {
		return search.Response{Results: []search.Result{}, Query: q.Text, Engine: "none"}
	}
	return s.search.Search(q)
}

// RenderPreview renders arbitrary content without storing it.
func (s *Service) RenderPreview(ctx context.Context, input RenderInput) (RenderResult, error) {
	variant := render.VariantBlog
	if input.Variant != "" {
		parsed, err := render.ParseVariant(input.Variant)
		if err != nil {
			return RenderResult{}, domainError(http.StatusBadRequest, "INVALID_VARIANT", err.Error(), nil)
		}
		variant = parsed
	}
	content, err := normalizeContent(input.Content)
	if err != nil {
		return RenderResult{}, err
	}
	page := s.renderPage(ctx, content, variant)
	return RenderResult{HTML: page.HTML, TOC: page.TOC, Format: page.Format}, nil
}

// LinkPreview returns the card for rawURL from the cache, fetching it on a
// miss.
func (s *Service) LinkPreview(ctx context.Context, rawURL string) (render.LinkCard, bool, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return render.LinkCard{}, false, domainError(http.StatusBadRequest, "VALIDATION_ERROR", "url is required", nil)
	}
	if s.cache != nil {
		if card, err := s.cache.GetPreview(ctx, rawURL); err == nil {
			s.metrics.PreviewFetches.WithLabelValues("cache_hit").Inc()
			return card, true, nil
		}
	}
	if s.fetcher == nil {
		return render.LinkCard{}, false, domainError(http.StatusServiceUnavailable, "PREVIEW_UNAVAILABLE", "Link previews are not configured", nil)
	}
	return s.fetchPreview(ctx, rawURL)
}

func (s *Service) fetchPreview(ctx context.Context, rawURL string) (render.LinkCard, bool, error) {
	meta, err := s.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		s.metrics.PreviewFetches.WithLabelValues("error").Inc()
		return render.LinkCard{}, false, err
	}
	s.metrics.PreviewFetches.WithLabelValues("ok").Inc()
	card := meta.Card()
	// Cards are keyed by the url as written in the document.
	card.URL = rawURL
	if s.cache != nil {
		if err := s.cache.SetPreview(ctx, card); err != nil {
			s.logger.Warn("preview cache write failed", zap.String("url", rawURL), zap.Error(err))
		}
	}
	return card, false, nil
}

// normalizeContent checks an incoming content value and returns the blob to
// store. JSON strings are Markdown, objects must be valid documents and
// arrays must be legacy block lists.
func normalizeContent(raw json.RawMessage) (string, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return "", nil
	}
	if !json.Valid(trimmed) {
		return "", domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Content is not valid JSON", nil)
	}

	switch trimmed[0] {
	case '"':
		var markdown string
		if err := json.Unmarshal(trimmed, &markdown); err != nil {
			return "", domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Content is not valid JSON", nil)
		}
		return markdown, nil
	case '{':
		d, err := doc.Parse(trimmed)
		if err != nil {
			return "", domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Content object must be a document", nil)
		}
		if err := doc.Validate(d); err != nil {
			return "", err
		}
		data, err := doc.Serialize(d)
		if err != nil {
			return "", err
		}
		return string(data), nil
	case '[':
		if _, format := render.Decode(string(trimmed)); format != render.FormatLegacy {
			return "", domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Content array must be a list of typed blocks", nil)
		}
		var compact bytes.Buffer
		if err := json.Compact(&compact, trimmed); err != nil {
			return "", err
		}
		return compact.String(), nil
	default:
		return "", domainError(http.StatusUnprocessableEntity, "INVALID_CONTENT", "Content must be a document, a block list, or a Markdown string", nil)
	}
}

func postView(post store.Post, withContent bool) PostView {
	view := PostView{
		Slug:      post.Slug,
		Title:     post.Title,
		Summary:   post.Summary,
		Published: post.Published,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if withContent {
		view.Content = post.Content
	}
	return view
}

func sectionView(section store.Section, page cache.Page) SectionView {
	updated := section.UpdatedAt
	return SectionView{
		Key:       section.Key,
		HTML:      page.HTML,
		TOC:       page.TOC,
		Format:    page.Format,
		UpdatedAt: &updated,
	}
}

func snapshotOf(post store.Post) revisions.Snapshot {
	return revisions.Snapshot{
		Title:     post.Title,
		Summary:   post.Summary,
		Published: post.Published,
		Content:   post.Content,
	}
}

func nonNilHeadings(items []render.Heading) []render.Heading {
	if items == nil {
		return []render.Heading{}
	}
	return items
}

func firstNonBlank(values ...string) string {
	for _, value := range values {
		trimmed := strings.TrimSpace(value)
		if trimmed != "" {
			return trimmed
		}
	}
	return ""
}
