// Package revisions keeps the edit history of each post in its own git
// repository, one post.json snapshot per commit.
package revisions

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

var (
	ErrNoHistory   = errors.New("no revision history")
	ErrInvalidSlug = errors.New("invalid slug")
)

const (
	snapshotFile = "post.json"
	mainBranch   = "main"
)

type Snapshot struct {
	Title     string `json:"title"`
	Summary   string `json:"summary"`
	Published bool   `json:"published"`
	Content   string `json:"content"`
}

type CommitInfo struct {
	Hash      string    `json:"hash"`
	FullHash  string    `json:"fullHash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
	// Changed is false when a save left the snapshot untouched and no commit
	// was written.
	Changed bool `json:"changed"`
}

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Commit records snap as the newest revision of slug, creating the
// repository on first use.
func (s *Service) Commit(slug string, snap Snapshot, author, message string) (CommitInfo, error) {
	if err := checkSlug(slug); err != nil {
		return CommitInfo{}, err
	}
	lock := s.postLock(slug)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.openOrInit(slug)
	if err != nil {
		return CommitInfo{}, err
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return CommitInfo{}, fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(s.repoPath(slug), snapshotFile), append(payload, '\n'), 0o644); err != nil {
		return CommitInfo{}, fmt.Errorf("write %s: %w", snapshotFile, err)
	}
	if _, err := worktree.Add(snapshotFile); err != nil {
		return CommitInfo{}, fmt.Errorf("git add snapshot: %w", err)
	}

	if message == "" {
		message = "Update " + slug
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  author,
			Email: fmt.Sprintf("%s@folio.local", sanitizeEmail(author)),
			When:  time.Now(),
		},
	})
	if errors.Is(err, git.ErrEmptyCommit) {
		head, headErr := repo.Head()
		if headErr != nil {
			return CommitInfo{}, fmt.Errorf("resolve head: %w", headErr)
		}
		commitObj, err := repo.CommitObject(head.Hash())
		if err != nil {
			return CommitInfo{}, fmt.Errorf("read head commit: %w", err)
		}
		return toCommitInfo(commitObj, false), nil
	}
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit snapshot: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj, true), nil
}

// History lists revisions newest first. A limit of zero or less returns all.
func (s *Service) History(slug string, limit int) ([]CommitInfo, error) {
	if err := checkSlug(slug); err != nil {
		return nil, err
	}
	lock := s.postLock(slug)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.open(slug)
	if err != nil {
		return nil, err
	}
	head, err := repo.Head()
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}

	iter, err := repo.Log(&git.LogOptions{From: head.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0)
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj, true))
		if limit > 0 && len(items) >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Get returns the snapshot recorded at hash, which may be abbreviated.
func (s *Service) Get(slug, hash string) (Snapshot, CommitInfo, error) {
	if err := checkSlug(slug); err != nil {
		return Snapshot{}, CommitInfo{}, err
	}
	lock := s.postLock(slug)
	lock.Lock()
	defer lock.Unlock()

	repo, err := s.open(slug)
	if err != nil {
		return Snapshot{}, CommitInfo{}, err
	}
	resolvedHash, err := resolveHash(repo, hash)
	if err != nil {
		return Snapshot{}, CommitInfo{}, err
	}
	commitObj, err := repo.CommitObject(resolvedHash)
	if err != nil {
		return Snapshot{}, CommitInfo{}, fmt.Errorf("read commit %s: %w", hash, err)
	}
	snap, err := readSnapshot(commitObj)
	if err != nil {
		return Snapshot{}, CommitInfo{}, err
	}
	return snap, toCommitInfo(commitObj, true), nil
}

// ChangedFields names the snapshot fields that differ between two revisions.
func ChangedFields(from, to Snapshot) []string {
	fields := make([]string, 0)
	if from.Content != to.Content {
		fields = append(fields, "content")
	}
	if from.Published != to.Published {
		fields = append(fields, "published")
	}
	if from.Summary != to.Summary {
		fields = append(fields, "summary")
	}
	if from.Title != to.Title {
		fields = append(fields, "title")
	}
	return fields
}

func (s *Service) repoPath(slug string) string {
	return filepath.Join(s.baseDir, slug)
}

func (s *Service) open(slug string) (*git.Repository, error) {
	repo, err := git.PlainOpen(s.repoPath(slug))
	if errors.Is(err, git.ErrRepositoryNotExists) {
		return nil, ErrNoHistory
	}
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	return repo, nil
}

func (s *Service) openOrInit(slug string) (*git.Repository, error) {
	repo, err := s.open(slug)
	if err == nil || !errors.Is(err, ErrNoHistory) {
		return repo, err
	}

	path := s.repoPath(slug)
	if err := os.MkdirAll(path, 0o755); err != nil {
		return nil, fmt.Errorf("create repo dir: %w", err)
	}
	repo, err = git.PlainInit(path, false)
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName(mainBranch))); err != nil {
		return nil, fmt.Errorf("set HEAD to %s: %w", mainBranch, err)
	}
	return repo, nil
}

func (s *Service) postLock(slug string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[slug]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[slug] = lock
	return lock
}

func readSnapshot(commitObj *object.Commit) (Snapshot, error) {
	file, err := commitObj.File(snapshotFile)
	if err != nil {
		return Snapshot{}, fmt.Errorf("load %s from commit: %w", snapshotFile, err)
	}
	contents, err := file.Contents()
	if err != nil {
		return Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snap Snapshot
	if err := json.Unmarshal([]byte(contents), &snap); err != nil {
		return Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snap, nil
}

func toCommitInfo(commitObj *object.Commit, changed bool) CommitInfo {
	full := commitObj.Hash.String()
	return CommitInfo{
		Hash:      full[:7],
		FullHash:  full,
		Message:   strings.TrimSpace(commitObj.Message),
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
		Changed:   changed,
	}
}

func checkSlug(slug string) error {
	if slug == "" || slug == "." || slug == ".." || strings.ContainsAny(slug, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "author"
	}
	return string(out)
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
