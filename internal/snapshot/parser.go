// Package snapshot reads and writes the plain-text snapshot documents produced
// by the headline crawler.
//
// A document is a sequence of blocks separated by blank lines. The first line
// of a block is "id" or "id | name"; every following line is one title:
//
//	<rank>. <title> [URL:<url>] [MOBILE:<mobile_url>]
//
// The rank and both tags are optional. A block holding the failed-IDs marker
// lists sources the crawler could not fetch.
package snapshot

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// FailedMarker opens the block listing sources that could not be fetched.
const FailedMarker = "==== following IDs failed ===="

// failedMarkerCN is the marker written by older crawler builds.
const failedMarkerCN = "==== 以下ID请求失败 ===="

const (
	headerSep = " | "
	mobileTag = " [MOBILE:"
	urlTag    = " [URL:"
)

// Document is one parsed snapshot file.
type Document struct {
	Titles    *domain.SourceMap
	Names     map[string]string
	FailedIDs []string
	// Diagnostics lists lines and blocks that were skipped
	Diagnostics []domain.Diagnostic
}

// NewDocument creates an empty document.
func NewDocument() *Document {
	return &Document{
		Titles: domain.NewSourceMap(),
		Names:  make(map[string]string),
	}
}

// Snapshot stamps the document with its name and capture time.
func (d *Document) Snapshot(name string, capturedAt time.Time) *domain.Snapshot {
	return &domain.Snapshot{
		Name:       name,
		CapturedAt: capturedAt,
		Titles:     d.Titles,
		Names:      d.Names,
		FailedIDs:  d.FailedIDs,
	}
}

// FromSnapshot wraps an existing snapshot for writing.
func FromSnapshot(s *domain.Snapshot) *Document {
	return &Document{Titles: s.Titles, Names: s.Names, FailedIDs: s.FailedIDs}
}

type line struct {
	no   int
	text string
}

// Parse decodes a snapshot document. Malformed lines and blocks are skipped
// and reported in Diagnostics; only a read failure returns an error.
func Parse(r io.Reader) (*Document, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	return ParseString(string(raw)), nil
}

// ParseString decodes a snapshot document held in memory.
func ParseString(content string) *Document {
	doc := NewDocument()
	content = strings.ReplaceAll(content, "\r\n", "\n")

	var block []line
	for i, text := range strings.Split(content, "\n") {
		if text == "" {
			doc.parseBlock(block)
			block = block[:0]
			continue
		}
		block = append(block, line{no: i + 1, text: text})
	}
	doc.parseBlock(block)

	return doc
}

func (d *Document) skip(no int, reason string) {
	d.Diagnostics = append(d.Diagnostics, domain.Diagnostic{Line: no, Reason: reason})
}

func (d *Document) parseBlock(block []line) {
	lines := block[:0:0]
	for _, l := range block {
		if strings.TrimSpace(l.text) != "" {
			lines = append(lines, l)
		}
	}
	if len(lines) == 0 {
		return
	}

	for _, l := range lines {
		if t := strings.TrimSpace(l.text); t == FailedMarker || t == failedMarkerCN {
			d.parseFailed(lines)
			return
		}
	}

	if len(lines) < 2 {
		d.skip(lines[0].no, domain.ReasonNoTitles)
		return
	}

	header := lines[0].text
	id := strings.TrimSpace(header)
	name := id
	if before, after, ok := strings.Cut(header, headerSep); ok {
		id = strings.TrimSpace(before)
		name = strings.TrimSpace(after)
	}
	if id == "" {
		d.skip(lines[0].no, domain.ReasonEmptyHeader)
		return
	}
	d.Names[id] = name

	titles := d.Titles.Source(id)
	for _, l := range lines[1:] {
		agg, reason := parseTitleLine(l.text)
		if agg == nil {
			d.skip(l.no, reason)
			continue
		}
		titles.Merge(agg)
	}
}

func (d *Document) parseFailed(lines []line) {
	for _, l := range lines {
		t := strings.TrimSpace(l.text)
		if t == FailedMarker || t == failedMarkerCN {
			continue
		}
		d.FailedIDs = append(d.FailedIDs, t)
	}
}

// parseTitleLine decodes one title line. It returns nil and a reason when the
// line carries no usable title.
func parseTitleLine(text string) (*domain.TitleAggregate, string) {
	rest := strings.TrimSpace(text)
	rank := 1

	if prefix, title, ok := strings.Cut(rest, ". "); ok && isDigits(prefix) {
		n, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, domain.ReasonBadRank
		}
		rank = n
		rest = title
	}

	var mobile, url string
	rest, mobile = cutTag(rest, mobileTag)
	rest, url = cutTag(rest, urlTag)

	title := domain.NormalizeTitle(rest)
	if title == "" {
		return nil, domain.ReasonEmptyTitle
	}

	return &domain.TitleAggregate{
		Title:     title,
		Ranks:     []int{rank},
		URL:       url,
		MobileURL: mobile,
	}, ""
}

// cutTag strips the rightmost tag. The value is kept only when the tag is
// closed by a trailing bracket.
func cutTag(s, tag string) (rest, value string) {
	i := strings.LastIndex(s, tag)
	if i < 0 {
		return s, ""
	}
	tail := s[i+len(tag):]
	if strings.HasSuffix(tail, "]") {
		value = strings.TrimSuffix(tail, "]")
	}
	return s[:i], value
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
