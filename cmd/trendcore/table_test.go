package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTable_AlignsWideRunes(t *testing.T) {
	tb := newTable("RANK", "TITLE", "PLATFORM")
	tb.Append("1", "人工智能新突破", "zhihu")
	tb.Append("12", "AI news", "weibo")

	var buf bytes.Buffer
	require.NoError(t, tb.Render(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	// The third column starts at the same display offset on every line
	col := strings.Index(lines[0], "PLATFORM")
	for _, line := range lines[2:] {
		idx := strings.LastIndex(line, columnGap)
		require.NotEqual(t, -1, idx)
		assert.Equal(t, runewidth.StringWidth(lines[0][:col]), runewidth.StringWidth(line[:idx+len(columnGap)]), line)
	}
	assert.Equal(t, "----  --------------  --------", lines[1])
}

func TestTable_TruncatesLongCells(t *testing.T) {
	tb := newTable("TITLE")
	tb.maxWidth = 6
	tb.Append("一二三四五六七")

	var buf bytes.Buffer
	require.NoError(t, tb.Render(&buf))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	assert.Equal(t, "一二…", lines[2])
}

func TestTable_PadsMissingCells(t *testing.T) {
	tb := newTable("A", "B")
	tb.Append("x")
	tb.Append("y", "z", "dropped")

	var buf bytes.Buffer
	require.NoError(t, tb.Render(&buf))

	assert.Equal(t, 2, tb.Len())
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "y  z")
}
