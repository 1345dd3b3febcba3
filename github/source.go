// Package github provides a docdex.Source that enumerates and fetches
// documentation files from a GitHub repository, using the contents API for
// listing and raw.githubusercontent.com for file content.
package github

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fwojciec/docdex"
	"github.com/fwojciec/docdex/lru"
	"golang.org/x/time/rate"
)

// Defaults.
const (
	DefaultAPIBase = "https://api.github.com"
	DefaultRawBase = "https://raw.githubusercontent.com"
	DefaultRef     = "main"

	// DefaultFetchTimeout matches the HTTP fetch timeout used elsewhere.
	DefaultFetchTimeout = 10 * time.Second

	// DefaultRequestsPerSecond bounds unauthenticated API usage.
	DefaultRequestsPerSecond = 5
)

// Ensure Source implements docdex.Source at compile time.
var _ docdex.Source = (*Source)(nil)

// Source enumerates and retrieves documentation files from a GitHub
// repository subtree. All remote calls are rate limited and, when a cache is
// attached, shielded from repeated cost.
type Source struct {
	client  *http.Client
	limiter *rate.Limiter
	cache   *lru.Cache[string]

	apiBase  string
	rawBase  string
	owner    string
	repo     string
	ref      string
	docsPath string
	token    string
	timeout  time.Duration
}

// Option configures a Source.
type Option func(*Source)

// WithToken sets a GitHub token for higher API rate limits.
func WithToken(token string) Option {
	return func(s *Source) {
		s.token = token
	}
}

// WithRef sets the git ref to read from. Defaults to DefaultRef.
func WithRef(ref string) Option {
	return func(s *Source) {
		s.ref = ref
	}
}

// WithCache attaches a cache shielding listing and fetch calls.
func WithCache(cache *lru.Cache[string]) Option {
	return func(s *Source) {
		s.cache = cache
	}
}

// WithBaseURLs overrides the API and raw content endpoints. Used in tests.
func WithBaseURLs(apiBase, rawBase string) Option {
	return func(s *Source) {
		s.apiBase = strings.TrimSuffix(apiBase, "/")
		s.rawBase = strings.TrimSuffix(rawBase, "/")
	}
}

// WithRateLimit sets the request rate limit in requests per second.
func WithRateLimit(rps float64) Option {
	return func(s *Source) {
		s.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

// WithTimeout sets the timeout for HTTP requests.
func WithTimeout(d time.Duration) Option {
	return func(s *Source) {
		s.timeout = d
	}
}

// NewSource creates a Source for the documentation subtree docsPath of
// owner/repo.
func NewSource(owner, repo, docsPath string, opts ...Option) *Source {
	s := &Source{
		limiter:  rate.NewLimiter(rate.Limit(DefaultRequestsPerSecond), 1),
		apiBase:  DefaultAPIBase,
		rawBase:  DefaultRawBase,
		owner:    owner,
		repo:     repo,
		ref:      DefaultRef,
		docsPath: strings.Trim(docsPath, "/"),
		timeout:  DefaultFetchTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.client = &http.Client{Timeout: s.timeout}

	return s
}

// contentEntry is the subset of the GitHub contents API response we use.
type contentEntry struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Type string `json:"type"`
}

// List enumerates all markdown documents under the docs path, walking
// subdirectories recursively.
func (s *Source) List(ctx context.Context) ([]docdex.DocumentRef, error) {
	var refs []docdex.DocumentRef

	var walk func(subpath string) error
	walk = func(subpath string) error {
		entries, err := s.listDir(ctx, subpath)
		if err != nil {
			return err
		}

		for _, entry := range entries {
			switch entry.Type {
			case "file":
				if !isMarkdown(entry.Name) {
					continue
				}
				relative := s.relativePath(entry.Path)
				refs = append(refs, docdex.DocumentRef{
					Path:         entry.Path,
					RelativePath: relative,
					Category:     docdex.CategoryFromPath(relative),
				})
			case "dir":
				if err := walk(s.relativePath(entry.Path)); err != nil {
					return err
				}
			}
		}
		return nil
	}

	if err := walk(""); err != nil {
		return nil, err
	}
	return refs, nil
}

// Fetch retrieves the raw content of one file.
func (s *Source) Fetch(ctx context.Context, path string) (string, error) {
	cacheKey := "file:" + path
	if s.cache != nil {
		if content, ok := s.cache.Get(cacheKey); ok {
			return content, nil
		}
	}

	url := fmt.Sprintf("%s/%s/%s/%s/%s", s.rawBase, s.owner, s.repo, s.ref, path)
	body, status, err := s.get(ctx, url, "")
	if err != nil {
		return "", err
	}
	if status == http.StatusNotFound {
		return "", docdex.Errorf(docdex.ENOTFOUND, "document %q not found", path)
	}
	if status != http.StatusOK {
		return "", docdex.Errorf(docdex.EINTERNAL, "HTTP %d fetching %q", status, path)
	}

	if s.cache != nil {
		s.cache.Set(cacheKey, body)
	}
	return body, nil
}

// ListConcepts maps concept names to relative document paths, derived from
// the files directly under the "concepts" directory.
func (s *Source) ListConcepts(ctx context.Context) (map[string]string, error) {
	entries, err := s.listDir(ctx, "concepts")
	if err != nil {
		return nil, err
	}

	concepts := make(map[string]string)
	for _, entry := range entries {
		if entry.Type != "file" || !isMarkdown(entry.Name) {
			continue
		}
		name := strings.ToLower(strings.TrimSuffix(entry.Name, ext(entry.Name)))
		concepts[name] = s.relativePath(entry.Path)
	}
	return concepts, nil
}

// listDir lists one directory of the docs tree via the contents API.
func (s *Source) listDir(ctx context.Context, subpath string) ([]contentEntry, error) {
	fullPath := s.docsPath
	if subpath != "" {
		fullPath = s.docsPath + "/" + strings.Trim(subpath, "/")
	}

	cacheKey := "list:" + fullPath
	body := ""
	if s.cache != nil {
		if cached, ok := s.cache.Get(cacheKey); ok {
			body = cached
		}
	}

	if body == "" {
		url := fmt.Sprintf("%s/repos/%s/%s/contents/%s?ref=%s", s.apiBase, s.owner, s.repo, fullPath, s.ref)
		fetched, status, err := s.get(ctx, url, "application/vnd.github.v3+json")
		if err != nil {
			return nil, err
		}
		if status != http.StatusOK {
			return nil, docdex.Errorf(docdex.EINTERNAL, "HTTP %d listing %q", status, fullPath)
		}
		body = fetched

		if s.cache != nil {
			s.cache.Set(cacheKey, body)
		}
	}

	var entries []contentEntry
	if err := json.Unmarshal([]byte(body), &entries); err != nil {
		return nil, fmt.Errorf("failed to decode listing of %q: %w", fullPath, err)
	}
	return entries, nil
}

// get performs one rate-limited HTTP GET, returning the body and status.
func (s *Source) get(ctx context.Context, url, accept string) (string, int, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", 0, err
	}
	req.Header.Set("User-Agent", "docdex")
	if accept != "" {
		req.Header.Set("Accept", accept)
	}
	if s.token != "" {
		req.Header.Set("Authorization", "token "+s.token)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return "", 0, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", 0, err
	}

	return string(body), resp.StatusCode, nil
}

// relativePath strips the docs path prefix from a repository path.
func (s *Source) relativePath(repoPath string) string {
	return strings.TrimPrefix(repoPath, s.docsPath+"/")
}

func isMarkdown(name string) bool {
	return strings.HasSuffix(name, ".mdx") || strings.HasSuffix(name, ".md")
}

func ext(name string) string {
	if i := strings.LastIndex(name, "."); i >= 0 {
		return name[i:]
	}
	return ""
}
