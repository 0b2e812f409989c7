// Package keywords parses the personal watch-word configuration and counts
// how often configured words occur in a day's titles.
package keywords

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/custodia-labs/trendcore/internal/core/domain"
)

// ParseWordGroups reads one group per line. Blank lines and lines starting
// with "#" are ignored. Fields are separated by "|" and words by ",".
// A "+" suffix marks a required word and "!" a filter word. Groups without
// required or normal words are dropped, and so are words that are empty
// once their suffix is removed.
func ParseWordGroups(r io.Reader) ([]domain.WordGroup, error) {
	var groups []domain.WordGroup

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		var g domain.WordGroup
		for _, field := range strings.Split(line, "|") {
			for _, word := range strings.Split(field, ",") {
				word = strings.TrimSpace(word)
				switch {
				case word == "":
				case strings.HasSuffix(word, "+"):
					if w := strings.TrimSpace(strings.TrimSuffix(word, "+")); w != "" {
						g.Required = append(g.Required, w)
					}
				case strings.HasSuffix(word, "!"):
					if w := strings.TrimSpace(strings.TrimSuffix(word, "!")); w != "" {
						g.Filter = append(g.Filter, w)
					}
				default:
					g.Normal = append(g.Normal, word)
				}
			}
		}

		if len(g.Required) > 0 || len(g.Normal) > 0 {
			groups = append(groups, g)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("%w: word groups: %v", domain.ErrParse, err)
	}

	return groups, nil
}

// LoadWordGroups reads a word-group file. A missing file yields no groups.
func LoadWordGroups(path string) ([]domain.WordGroup, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	defer f.Close()

	return ParseWordGroups(f)
}
