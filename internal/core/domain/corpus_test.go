package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeTitle(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"AI突破", "AI突破"},
		{"  AI   突破  ", "AI 突破"},
		{"a\tb　c", "a b c"},
		{"", ""},
		{"   ", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizeTitle(tt.in), "input %q", tt.in)
	}
}

func TestTitleMapMerge(t *testing.T) {
	m := NewTitleMap()
	m.Merge(&TitleAggregate{Title: "a", Ranks: []int{1}, URL: "u1"})
	m.Merge(&TitleAggregate{Title: "b", Ranks: []int{2}})
	m.Merge(&TitleAggregate{Title: "a", Ranks: []int{3}, URL: "u2", MobileURL: "m2"})

	require.Equal(t, 2, m.Len())
	a, ok := m.Get("a")
	require.True(t, ok)
	assert.Equal(t, []int{1, 3}, a.Ranks)
	assert.Equal(t, "u1", a.URL)
	assert.Empty(t, a.MobileURL)

	titles := []string{}
	for _, agg := range m.All() {
		titles = append(titles, agg.Title)
	}
	assert.Equal(t, []string{"a", "b"}, titles)
}

func TestTitleMapMergeCopies(t *testing.T) {
	src := &TitleAggregate{Title: "a", Ranks: []int{1}}
	m := NewTitleMap()
	m.Merge(src)
	m.Merge(&TitleAggregate{Title: "a", Ranks: []int{2}})

	assert.Equal(t, []int{1}, src.Ranks)
}

func TestTitleMapSortedByRank(t *testing.T) {
	m := NewTitleMap()
	m.Merge(&TitleAggregate{Title: "c", Ranks: []int{3}})
	m.Merge(&TitleAggregate{Title: "a", Ranks: []int{1}})
	m.Merge(&TitleAggregate{Title: "b", Ranks: []int{1}})

	sorted := m.SortedByRank()
	assert.Equal(t, "a", sorted[0].Title)
	assert.Equal(t, "b", sorted[1].Title)
	assert.Equal(t, "c", sorted[2].Title)
}

func TestAverageRank(t *testing.T) {
	agg := &TitleAggregate{Ranks: []int{1, 2, 6}}
	assert.InDelta(t, 3.0, agg.AverageRank(), 0.0001)
	assert.Equal(t, 1, agg.FirstRank())
}

func TestSourceMapJSON(t *testing.T) {
	sm := NewSourceMap()
	sm.Source("zhihu").Merge(&TitleAggregate{Title: "AI突破", Ranks: []int{1, 2}, URL: "u1"})
	sm.Source("weibo").Merge(&TitleAggregate{Title: "x", Ranks: []int{5}})

	data, err := json.Marshal(sm)
	require.NoError(t, err)

	decoded := NewSourceMap()
	require.NoError(t, json.Unmarshal(data, decoded))
	assert.Equal(t, []string{"zhihu", "weibo"}, decoded.IDs())

	tm, ok := decoded.Get("zhihu")
	require.True(t, ok)
	agg, ok := tm.Get("AI突破")
	require.True(t, ok)
	assert.Equal(t, []int{1, 2}, agg.Ranks)
	assert.Equal(t, "u1", agg.URL)
	assert.Equal(t, 2, decoded.TitleCount())
}

func TestSourceFilter(t *testing.T) {
	var all SourceFilter
	assert.True(t, all.Allows("anything"))

	f := NewSourceFilter([]string{"zhihu"})
	assert.True(t, f.Allows("zhihu"))
	assert.False(t, f.Allows("weibo"))
}

func TestDailyCorpusHelpers(t *testing.T) {
	c := NewDailyCorpus(time.Date(2025, 10, 10, 0, 0, 0, 0, time.UTC))
	c.Names["zhihu"] = "知乎"
	c.Timestamps["09时00分.txt"] = time.Date(2025, 10, 10, 9, 0, 0, 0, time.UTC)
	c.Timestamps["10时00分.txt"] = time.Date(2025, 10, 10, 10, 0, 0, 0, time.UTC)

	assert.Equal(t, "知乎", c.SourceName("zhihu"))
	assert.Equal(t, "weibo", c.SourceName("weibo"))
	assert.Equal(t, 10, c.LatestCapture().Hour())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, "status", CacheKey("status"))
	assert.Equal(t, "latest:all:50", CacheKey("latest", PlatformKey(nil), "50"))
	assert.Equal(t, PlatformKey([]string{"zhihu", "baidu"}), PlatformKey([]string{"baidu", "zhihu"}))
}

func TestCacheStatsHitRate(t *testing.T) {
	s := CacheStats{Hits: 3, Misses: 1}
	s.ComputeHitRate()
	assert.InDelta(t, 0.75, s.HitRate, 0.0001)

	empty := CacheStats{}
	empty.ComputeHitRate()
	assert.Zero(t, empty.HitRate)
}

func TestTopicModeIsValid(t *testing.T) {
	assert.True(t, TopicModeDaily.IsValid())
	assert.True(t, TopicModeIncremental.IsValid())
	assert.False(t, TopicMode("weekly").IsValid())
}
