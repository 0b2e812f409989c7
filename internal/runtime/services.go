package runtime

import (
	"fmt"
	"sync"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/keywords"
)

// Services holds references to components that can be reconfigured while the
// process runs. The keyword matcher is reloaded from the word-group file on
// demand (SIGHUP or the worker tick) without restarting the API.
// Thread-safe for concurrent access.
type Services struct {
	mu sync.RWMutex

	// Config tracks backends and ingestion state
	config *domain.RuntimeConfig

	matcher        *keywords.Matcher
	wordGroupsPath string
}

// NewServices creates a new Services registry with an empty matcher
func NewServices(config *domain.RuntimeConfig) *Services {
	return &Services{
		config:  config,
		matcher: keywords.NewMatcher(nil),
	}
}

// Config returns the runtime configuration
func (s *Services) Config() *domain.RuntimeConfig {
	return s.config
}

// Matcher returns the keyword matcher. The pointer is stable; reloads
// reconfigure it in place.
func (s *Services) Matcher() *keywords.Matcher {
	return s.matcher
}

// WordGroupsPath returns the file the matcher was last loaded from
func (s *Services) WordGroupsPath() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.wordGroupsPath
}

// SetWordGroups replaces the matcher configuration and updates config counters
func (s *Services) SetWordGroups(groups []domain.WordGroup) {
	s.matcher.Configure(groups)
	s.config.SetWordGroups(len(groups))
}

// LoadWordGroups reads the word-group file and applies it.
// A missing file leaves the matcher with no groups.
// On a parse failure the previous configuration is kept.
func (s *Services) LoadWordGroups(path string) error {
	groups, err := keywords.LoadWordGroups(path)
	if err != nil {
		return fmt.Errorf("load word groups from %s: %w", path, err)
	}

	s.mu.Lock()
	s.wordGroupsPath = path
	s.mu.Unlock()

	s.SetWordGroups(groups)
	return nil
}

// Reload re-reads the word-group file last passed to LoadWordGroups.
// It is a no-op when no file was loaded.
func (s *Services) Reload() error {
	path := s.WordGroupsPath()
	if path == "" {
		return nil
	}
	return s.LoadWordGroups(path)
}
