package keywords

import (
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// Matcher counts configured words in corpus titles.
//
// Every required and normal word of every group is counted on its own as a
// case-sensitive substring of the title. Group boundaries, the AND meaning of
// required words and filter words are parsed but not applied when counting,
// so a title containing a filter word is still counted.
type Matcher struct {
	mu          sync.RWMutex
	groups      []domain.WordGroup
	fingerprint string
}

// NewMatcher creates a matcher for groups.
func NewMatcher(groups []domain.WordGroup) *Matcher {
	m := &Matcher{}
	m.Configure(groups)
	return m
}

// Configure replaces the word groups.
func (m *Matcher) Configure(groups []domain.WordGroup) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.groups = append([]domain.WordGroup(nil), groups...)
	m.fingerprint = fingerprint(m.groups)
}

// Fingerprint identifies the configured groups. Equal configurations have
// equal fingerprints in every process, so it can be part of shared cache keys.
func (m *Matcher) Fingerprint() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.fingerprint
}

// Snapshot returns a matcher frozen at the current configuration, so that a
// count and its fingerprint always describe the same groups.
func (m *Matcher) Snapshot() *Matcher {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return &Matcher{groups: m.groups, fingerprint: m.fingerprint}
}

func fingerprint(groups []domain.WordGroup) string {
	d := xxhash.New()
	for _, g := range groups {
		for _, part := range [][]string{g.Required, g.Normal, g.Filter} {
			for _, w := range part {
				d.WriteString(w)
				d.WriteString("\x00")
			}
			d.WriteString("\x01")
		}
		d.WriteString("\x02")
	}
	return strconv.FormatUint(d.Sum64(), 16)
}

// Groups returns the configured word groups.
func (m *Matcher) Groups() []domain.WordGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.groups
}

type tally struct {
	keyword string
	freq    int
	titles  map[string]struct{}
}

// Count returns words by descending frequency, ties in first-encountered
// order, truncated to topN when topN is positive.
func (m *Matcher) Count(titles *domain.SourceMap, topN int) []domain.KeywordFrequency {
	groups := m.Groups()

	var order []*tally
	byWord := make(map[string]*tally)

	for _, id := range titles.IDs() {
		tm, _ := titles.Get(id)
		for _, agg := range tm.All() {
			for _, g := range groups {
				for _, word := range g.Words() {
					// an empty word would match every title
					if word == "" || !strings.Contains(agg.Title, word) {
						continue
					}
					t, ok := byWord[word]
					if !ok {
						t = &tally{keyword: word, titles: make(map[string]struct{})}
						byWord[word] = t
						order = append(order, t)
					}
					t.freq++
					t.titles[agg.Title] = struct{}{}
				}
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return order[i].freq > order[j].freq
	})
	if topN > 0 && len(order) > topN {
		order = order[:topN]
	}

	out := make([]domain.KeywordFrequency, 0, len(order))
	for _, t := range order {
		out = append(out, domain.KeywordFrequency{
			Keyword:       t.keyword,
			Frequency:     t.freq,
			MatchedTitles: len(t.titles),
		})
	}
	return out
}
