package domain

import (
	"encoding/json"
	"sort"
	"strings"
	"time"
)

// NormalizeTitle collapses internal whitespace runs to a single space and trims the ends.
// The normalized form is the only key titles are merged on.
func NormalizeTitle(title string) string {
	return strings.Join(strings.Fields(title), " ")
}

// TitleAggregate is the merged view of one title across a set of snapshots.
// Ranks are in snapshot processing order; URL and MobileURL keep their first value.
type TitleAggregate struct {
	Title     string `json:"title"`
	Ranks     []int  `json:"ranks"`
	URL       string `json:"url"`
	MobileURL string `json:"mobile_url"`
}

// FirstRank returns the earliest observed rank.
func (a *TitleAggregate) FirstRank() int {
	if len(a.Ranks) == 0 {
		return 0
	}
	return a.Ranks[0]
}

// AverageRank returns the mean of all observed ranks.
func (a *TitleAggregate) AverageRank() float64 {
	if len(a.Ranks) == 0 {
		return 0
	}
	sum := 0
	for _, r := range a.Ranks {
		sum += r
	}
	return float64(sum) / float64(len(a.Ranks))
}

// Clone returns a deep copy.
func (a *TitleAggregate) Clone() *TitleAggregate {
	c := *a
	c.Ranks = append([]int(nil), a.Ranks...)
	return &c
}

// TitleMap holds the titles of one source keyed by normalized title, in first-seen order.
type TitleMap struct {
	order []*TitleAggregate
	index map[string]int
}

// NewTitleMap creates an empty TitleMap.
func NewTitleMap() *TitleMap {
	return &TitleMap{index: make(map[string]int)}
}

// Merge folds an aggregate into the map. An existing title gets the new ranks appended
// and keeps its URLs; a new title is inserted as a copy.
func (m *TitleMap) Merge(agg *TitleAggregate) {
	if i, ok := m.index[agg.Title]; ok {
		existing := m.order[i]
		existing.Ranks = append(existing.Ranks, agg.Ranks...)
		return
	}
	m.index[agg.Title] = len(m.order)
	m.order = append(m.order, agg.Clone())
}

// Get returns the aggregate for a title.
func (m *TitleMap) Get(title string) (*TitleAggregate, bool) {
	i, ok := m.index[title]
	if !ok {
		return nil, false
	}
	return m.order[i], true
}

// Has reports whether the title is present.
func (m *TitleMap) Has(title string) bool {
	_, ok := m.index[title]
	return ok
}

// Len returns the number of distinct titles.
func (m *TitleMap) Len() int {
	return len(m.order)
}

// All returns the aggregates in first-seen order.
func (m *TitleMap) All() []*TitleAggregate {
	return m.order
}

// SortedByRank returns the aggregates ordered by first rank, ties in first-seen order.
func (m *TitleMap) SortedByRank() []*TitleAggregate {
	out := append([]*TitleAggregate(nil), m.order...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].FirstRank() < out[j].FirstRank()
	})
	return out
}

func (m *TitleMap) MarshalJSON() ([]byte, error) {
	if m.order == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(m.order)
}

func (m *TitleMap) UnmarshalJSON(data []byte) error {
	var items []*TitleAggregate
	if err := json.Unmarshal(data, &items); err != nil {
		return err
	}
	m.order = nil
	m.index = make(map[string]int, len(items))
	for _, item := range items {
		m.Merge(item)
	}
	return nil
}

// SourceMap maps source IDs to their titles, in first-seen source order.
type SourceMap struct {
	ids      []string
	bySource map[string]*TitleMap
}

// NewSourceMap creates an empty SourceMap.
func NewSourceMap() *SourceMap {
	return &SourceMap{bySource: make(map[string]*TitleMap)}
}

// Source returns the titles of a source, creating an empty entry if needed.
func (s *SourceMap) Source(id string) *TitleMap {
	if tm, ok := s.bySource[id]; ok {
		return tm
	}
	tm := NewTitleMap()
	s.ids = append(s.ids, id)
	s.bySource[id] = tm
	return tm
}

// Get returns the titles of a source without creating it.
func (s *SourceMap) Get(id string) (*TitleMap, bool) {
	tm, ok := s.bySource[id]
	return tm, ok
}

// IDs returns source IDs in first-seen order.
func (s *SourceMap) IDs() []string {
	return s.ids
}

// Len returns the number of sources.
func (s *SourceMap) Len() int {
	return len(s.ids)
}

// TitleCount returns the number of distinct titles across all sources.
func (s *SourceMap) TitleCount() int {
	n := 0
	for _, tm := range s.bySource {
		n += tm.Len()
	}
	return n
}

type sourceEntry struct {
	SourceID string    `json:"source_id"`
	Titles   *TitleMap `json:"titles"`
}

func (s *SourceMap) MarshalJSON() ([]byte, error) {
	entries := make([]sourceEntry, 0, len(s.ids))
	for _, id := range s.ids {
		entries = append(entries, sourceEntry{SourceID: id, Titles: s.bySource[id]})
	}
	return json.Marshal(entries)
}

func (s *SourceMap) UnmarshalJSON(data []byte) error {
	var entries []sourceEntry
	if err := json.Unmarshal(data, &entries); err != nil {
		return err
	}
	s.ids = nil
	s.bySource = make(map[string]*TitleMap, len(entries))
	for _, e := range entries {
		tm := s.Source(e.SourceID)
		if e.Titles != nil {
			for _, agg := range e.Titles.All() {
				tm.Merge(agg)
			}
		}
	}
	return nil
}

// SourceFilter restricts processing to a set of source IDs. An empty filter allows all.
type SourceFilter map[string]struct{}

// NewSourceFilter builds a filter from a list of IDs.
func NewSourceFilter(ids []string) SourceFilter {
	if len(ids) == 0 {
		return nil
	}
	f := make(SourceFilter, len(ids))
	for _, id := range ids {
		f[id] = struct{}{}
	}
	return f
}

// Allows reports whether the source passes the filter.
func (f SourceFilter) Allows(id string) bool {
	if len(f) == 0 {
		return true
	}
	_, ok := f[id]
	return ok
}

// Snapshot is one timestamped capture of ranked titles across sources.
type Snapshot struct {
	// Name is the file name or object key the snapshot was read from
	Name       string            `json:"name"`
	CapturedAt time.Time         `json:"captured_at"`
	Titles     *SourceMap        `json:"titles"`
	Names      map[string]string `json:"names"`
	FailedIDs  []string          `json:"failed_ids,omitempty"`
}

// NewSnapshot creates an empty snapshot.
func NewSnapshot(name string, capturedAt time.Time) *Snapshot {
	return &Snapshot{
		Name:       name,
		CapturedAt: capturedAt,
		Titles:     NewSourceMap(),
		Names:      make(map[string]string),
	}
}

// DailyCorpus is the merge of all snapshots found for one calendar day.
type DailyCorpus struct {
	Date       time.Time            `json:"date"`
	Titles     *SourceMap           `json:"titles"`
	Names      map[string]string    `json:"names"`
	Timestamps map[string]time.Time `json:"timestamps"`
	// Snapshots lists merged snapshot names in processing order
	Snapshots []string `json:"snapshots"`
}

// NewDailyCorpus creates an empty corpus for a day.
func NewDailyCorpus(date time.Time) *DailyCorpus {
	return &DailyCorpus{
		Date:       date,
		Titles:     NewSourceMap(),
		Names:      make(map[string]string),
		Timestamps: make(map[string]time.Time),
	}
}

// SourceName returns the display name for a source, falling back to its ID.
func (c *DailyCorpus) SourceName(id string) string {
	if name, ok := c.Names[id]; ok && name != "" {
		return name
	}
	return id
}

// LatestCapture returns the newest snapshot timestamp, or the zero time.
func (c *DailyCorpus) LatestCapture() time.Time {
	var latest time.Time
	for _, ts := range c.Timestamps {
		if ts.After(latest) {
			latest = ts
		}
	}
	return latest
}

// Diagnostic explains why a line, block or file was skipped.
type Diagnostic struct {
	Source string `json:"source,omitempty"`
	Line   int    `json:"line,omitempty"`
	Reason string `json:"reason"`
}

// Diagnostic reasons
const (
	ReasonEmptyTitle    = "empty title"
	ReasonBadRank       = "rank out of range"
	ReasonNoTitles      = "block has a header but no title lines"
	ReasonEmptyHeader   = "block header is empty"
	ReasonUnreadable    = "snapshot could not be read"
	ReasonNotADateEntry = "name is not a date folder"
)
