package keywords

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

func titles(bySource map[string][]string, order ...string) *domain.SourceMap {
	sm := domain.NewSourceMap()
	for _, id := range order {
		tm := sm.Source(id)
		for i, title := range bySource[id] {
			tm.Merge(&domain.TitleAggregate{Title: title, Ranks: []int{i + 1}})
		}
	}
	return sm
}

func TestCountIgnoresFilterWords(t *testing.T) {
	groups, err := ParseWordGroups(strings.NewReader("AI+,突破|芯片!"))
	require.NoError(t, err)

	m := NewMatcher(groups)
	got := m.Count(titles(map[string][]string{
		"zhihu": {"AI突破进展", "芯片AI突破"},
	}, "zhihu"), 10)

	assert.Equal(t, []domain.KeywordFrequency{
		{Keyword: "AI", Frequency: 2, MatchedTitles: 2},
		{Keyword: "突破", Frequency: 2, MatchedTitles: 2},
	}, got)
}

func TestCountOrderAndTruncation(t *testing.T) {
	m := NewMatcher([]domain.WordGroup{
		{Normal: []string{"b"}},
		{Normal: []string{"a"}},
		{Required: []string{"c"}},
	})

	sm := titles(map[string][]string{
		"s1": {"a1", "b1", "c1"},
		"s2": {"a2", "c2", "xyz"},
	}, "s1", "s2")

	got := m.Count(sm, 0)
	require.Len(t, got, 3)
	assert.Equal(t, "a", got[0].Keyword, "a and c tie at 2; a is encountered first")
	assert.Equal(t, "c", got[1].Keyword)
	assert.Equal(t, "b", got[2].Keyword)

	top := m.Count(sm, 1)
	require.Len(t, top, 1)
	assert.Equal(t, "a", top[0].Keyword)
}

func TestCountCaseSensitive(t *testing.T) {
	m := NewMatcher([]domain.WordGroup{{Normal: []string{"AI"}}})
	got := m.Count(titles(map[string][]string{"s": {"ai news", "OpenAI"}}, "s"), 10)

	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0].Frequency)
}

func TestCountSameWordInTwoGroups(t *testing.T) {
	m := NewMatcher([]domain.WordGroup{
		{Normal: []string{"AI"}},
		{Required: []string{"AI"}, Normal: []string{"芯片"}},
	})
	got := m.Count(titles(map[string][]string{"s": {"AI芯片"}}, "s"), 10)

	require.Len(t, got, 2)
	assert.Equal(t, domain.KeywordFrequency{Keyword: "AI", Frequency: 2, MatchedTitles: 1}, got[0])
}

func TestConfigureReplacesGroups(t *testing.T) {
	m := NewMatcher(nil)
	assert.Empty(t, m.Count(titles(map[string][]string{"s": {"x"}}, "s"), 10))

	m.Configure([]domain.WordGroup{{Normal: []string{"x"}}})
	assert.Len(t, m.Groups(), 1)
	assert.Len(t, m.Count(titles(map[string][]string{"s": {"x"}}, "s"), 10), 1)
}

func TestCountSkipsEmptyWords(t *testing.T) {
	m := NewMatcher([]domain.WordGroup{{Required: []string{""}, Normal: []string{"AI"}, Filter: []string{""}}})
	got := m.Count(titles(map[string][]string{"s": {"天气", "AI突破"}}, "s"), 1)

	assert.Equal(t, []domain.KeywordFrequency{{Keyword: "AI", Frequency: 1, MatchedTitles: 1}}, got)
}

func TestCountWithParsedBareSuffix(t *testing.T) {
	groups, err := ParseWordGroups(strings.NewReader("AI, +"))
	require.NoError(t, err)

	got := NewMatcher(groups).Count(titles(map[string][]string{"s": {"天气", "AI突破"}}, "s"), 10)
	assert.Equal(t, []domain.KeywordFrequency{{Keyword: "AI", Frequency: 1, MatchedTitles: 1}}, got)
}

func TestFingerprint(t *testing.T) {
	a := NewMatcher([]domain.WordGroup{{Required: []string{"AI"}, Normal: []string{"突破"}}})
	b := NewMatcher([]domain.WordGroup{{Required: []string{"AI"}, Normal: []string{"突破"}}})
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.NotEmpty(t, a.Fingerprint())

	// same words, different roles or grouping
	c := NewMatcher([]domain.WordGroup{{Normal: []string{"AI", "突破"}}})
	d := NewMatcher([]domain.WordGroup{{Required: []string{"AI"}}, {Normal: []string{"突破"}}})
	assert.NotEqual(t, a.Fingerprint(), c.Fingerprint())
	assert.NotEqual(t, a.Fingerprint(), d.Fingerprint())

	before := a.Fingerprint()
	frozen := a.Snapshot()
	a.Configure([]domain.WordGroup{{Normal: []string{"天气"}}})
	assert.NotEqual(t, before, a.Fingerprint())
	assert.Equal(t, before, frozen.Fingerprint())
	assert.Equal(t, []string{"AI", "突破"}, frozen.Groups()[0].Words())
}
