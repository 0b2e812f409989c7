package snapshot

import (
	"bufio"
	"io"
	"strconv"
)

// Write encodes a document in the format Parse reads. Titles are ordered by
// their first rank and every rank is written as its own line, so parsing the
// output yields the same ranks, URLs and mobile URLs.
func Write(w io.Writer, doc *Document) error {
	bw := bufio.NewWriter(w)

	for _, id := range doc.Titles.IDs() {
		titles, _ := doc.Titles.Get(id)
		if titles.Len() == 0 {
			continue
		}

		bw.WriteString(id)
		if name := doc.Names[id]; name != "" && name != id {
			bw.WriteString(headerSep)
			bw.WriteString(name)
		}
		bw.WriteByte('\n')

		for _, agg := range titles.SortedByRank() {
			for _, rank := range agg.Ranks {
				bw.WriteString(strconv.Itoa(rank))
				bw.WriteString(". ")
				bw.WriteString(agg.Title)
				if agg.URL != "" {
					bw.WriteString(urlTag + agg.URL + "]")
				}
				if agg.MobileURL != "" {
					bw.WriteString(mobileTag + agg.MobileURL + "]")
				}
				bw.WriteByte('\n')
			}
		}
		bw.WriteByte('\n')
	}

	if len(doc.FailedIDs) > 0 {
		bw.WriteString(FailedMarker)
		bw.WriteByte('\n')
		for _, id := range doc.FailedIDs {
			bw.WriteString(id)
			bw.WriteByte('\n')
		}
	}

	return bw.Flush()
}
