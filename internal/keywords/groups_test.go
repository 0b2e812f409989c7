package keywords

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

func TestParseWordGroups(t *testing.T) {
	input := `# watch list
AI+,突破|芯片!

华为, 鸿蒙
  # indented comment
只过滤!
,|,
`
	groups, err := ParseWordGroups(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, domain.WordGroup{
		Required: []string{"AI"},
		Normal:   []string{"突破"},
		Filter:   []string{"芯片"},
	}, groups[0])
	assert.Equal(t, []string{"华为", "鸿蒙"}, groups[1].Normal)
	assert.Empty(t, groups[1].Required)
	assert.Equal(t, []string{"AI", "突破"}, groups[0].Words())
}

func TestLoadWordGroups(t *testing.T) {
	dir := t.TempDir()

	groups, err := LoadWordGroups(filepath.Join(dir, "missing.txt"))
	require.NoError(t, err)
	assert.Empty(t, groups)

	path := filepath.Join(dir, "frequency_words.txt")
	require.NoError(t, os.WriteFile(path, []byte("AI+\n"), 0o644))
	groups, err = LoadWordGroups(path)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, []string{"AI"}, groups[0].Required)
}

func TestParseWordGroups_BareSuffixes(t *testing.T) {
	groups, err := ParseWordGroups(strings.NewReader("AI, +\n+, !\n芯片, ! , 手机 +"))
	require.NoError(t, err)
	require.Len(t, groups, 2)

	assert.Equal(t, domain.WordGroup{Normal: []string{"AI"}}, groups[0])
	assert.Equal(t, domain.WordGroup{Required: []string{"手机"}, Normal: []string{"芯片"}}, groups[1])
}
