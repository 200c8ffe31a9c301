package search

import (
	"context"

	"go.uber.org/zap"
)

// Service is the facade that tries Meilisearch first and falls back to PG FTS.
type Service struct {
	meili    Engine
	fallback Searcher
	loader   func(context.Context) ([]PostRecord, error)
	logger   *zap.Logger
}

// Engine is the primary search backend that also accepts index writes.
type Engine interface {
	Searcher
	IndexPost(p PostRecord) error
	IndexPosts(posts []PostRecord) error
	DeletePost(slug string) error
}

// NewService creates a search service. meili may be nil if Meilisearch is not
// configured.
func NewService(meili *Meili, pgfts *PgFTS, logger *zap.Logger) *Service {
	s := &Service{logger: logger.Named("search")}
	if meili != nil {
		s.meili = meili
	}
	if pgfts != nil {
		s.fallback = pgfts
		s.loader = pgfts.LoadAllRecords
	}
	return s
}

// NewServiceWith wires arbitrary backends, mainly for tests.
func NewServiceWith(engine Engine, fallback Searcher, loader func(context.Context) ([]PostRecord, error), logger *zap.Logger) *Service {
	return &Service{meili: engine, fallback: fallback, loader: loader, logger: logger.Named("search")}
}

func (s *Service) primary() bool {
	return s.meili != nil && s.meili.Healthy()
}

// Search tries Meilisearch if healthy, otherwise falls back to PG FTS.
func (s *Service) Search(q Query) Response {
	if s.primary() {
		results, total, err := s.meili.Search(q)
		if err == nil {
			return Response{Results: nonNil(results), Total: total, Query: q.Text, Engine: "meilisearch"}
		}
		s.logger.Warn("meilisearch error, falling back to pgfts", zap.Error(err))
	}

	if s.fallback == nil {
		return Response{Results: []Result{}, Query: q.Text, Engine: "none"}
	}
	results, total, err := s.fallback.Search(q)
	if err != nil {
		s.logger.Error("pgfts error", zap.Error(err))
		return Response{Results: []Result{}, Total: 0, Query: q.Text, Engine: "postgres"}
	}
	return Response{Results: nonNil(results), Total: total, Query: q.Text, Engine: "postgres"}
}

// IndexPost indexes a published post (fire-and-forget to Meilisearch).
func (s *Service) IndexPost(p PostRecord) {
	if !s.primary() {
		return
	}
	go func() {
		if err := s.meili.IndexPost(p); err != nil {
			s.logger.Warn("index post", zap.String("slug", p.Slug), zap.Error(err))
		}
	}()
}

// DeletePost removes a post from the search index (fire-and-forget).
func (s *Service) DeletePost(slug string) {
	if !s.primary() {
		return
	}
	go func() {
		if err := s.meili.DeletePost(slug); err != nil {
			s.logger.Warn("delete post", zap.String("slug", slug), zap.Error(err))
		}
	}()
}

// ReindexAll reads every published post and pushes it to Meilisearch.
func (s *Service) ReindexAll(ctx context.Context) {
	if !s.primary() || s.loader == nil {
		return
	}
	posts, err := s.loader(ctx)
	if err != nil {
		s.logger.Warn("reindex load failed", zap.Error(err))
		return
	}
	if err := s.meili.IndexPosts(posts); err != nil {
		s.logger.Warn("reindex posts", zap.Error(err))
	}
}

func nonNil(r []Result) []Result {
	if r == nil {
		return []Result{}
	}
	return r
}
