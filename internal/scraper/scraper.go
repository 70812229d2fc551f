// Package scraper holds the types shared by the upstream price scrapers.
package scraper

import "time"

// Bar is a single daily observation returned by a scraper.
type Bar struct {
	Date   time.Time
	Close  float64
	Volume float64
}

type DateRange struct {
	From time.Time
	To   time.Time
}

// SplitDateRange splits [from, to] into consecutive chunks of at most
// chunkDays days each.
func SplitDateRange(from, to time.Time, chunkDays int) []DateRange {
	if from.After(to) || chunkDays <= 0 {
		return nil
	}

	var chunks []DateRange
	for cur := from; !cur.After(to); cur = cur.AddDate(0, 0, chunkDays) {
		end := cur.AddDate(0, 0, chunkDays-1)
		if end.After(to) {
			end = to
		}
		chunks = append(chunks, DateRange{From: cur, To: end})
	}
	return chunks
}
