// Package views computes presentation-ready values from library snapshots.
// Every function here is pure: deterministic for a given snapshot, no state,
// no I/O.
package views

import (
	"fmt"
	"time"

	"shelfsync/pkg/domain"
)

// minutesPerPage is the fixed reading-speed estimate used for the
// cumulative reading-time stat.
const minutesPerPage = 2

// BookmarkFor finds the bookmark of a book in a snapshot.
func BookmarkFor(bookID string, bookmarks []domain.Bookmark) (domain.Bookmark, bool) {
	for _, bm := range bookmarks {
		if bm.BookID == bookID {
			return bm, true
		}
	}
	return domain.Bookmark{}, false
}

// Progress returns the stored reading progress for a book, 0 when no
// bookmark exists. The percentage is read as written, never recomputed from
// page counts.
func Progress(bookID string, bookmarks []domain.Bookmark) float64 {
	bm, ok := BookmarkFor(bookID, bookmarks)
	if !ok {
		return 0
	}
	return bm.ReadingProgress
}

// RecencyLabel buckets the time since a book was last read. The zero time
// means the book was never read, which is its own label rather than "0 days
// ago".
func RecencyLabel(lastReadAt time.Time, now time.Time) string {
	if lastReadAt.IsZero() {
		return "Jamais lu"
	}
	days := int(now.Sub(lastReadAt).Hours() / 24)
	switch {
	case days <= 0:
		return "Aujourd'hui"
	case days == 1:
		return "Hier"
	case days < 7:
		return fmt.Sprintf("Il y a %d jours", days)
	case days < 30:
		return fmt.Sprintf("Il y a %d semaines", (days+6)/7)
	default:
		return fmt.Sprintf("Il y a %d mois", (days+29)/30)
	}
}

// Stats aggregates a user's library.
type Stats struct {
	TotalBooks     int     `json:"totalBooks"`
	Reading        int     `json:"reading"`
	Completed      int     `json:"completed"`
	ReadingMinutes float64 `json:"readingMinutes"`
}

// ReadingTime renders the cumulative estimate floored to whole hours.
func (s Stats) ReadingTime() string {
	return fmt.Sprintf("%dh", int(s.ReadingMinutes)/60)
}

// Aggregate computes library stats from one snapshot pair. Estimated reading
// time sums, per bookmark, the pages read so far (total pages scaled by the
// stored progress) at two minutes per page.
func Aggregate(books []domain.Book, bookmarks []domain.Bookmark) Stats {
	stats := Stats{TotalBooks: len(books)}
	for _, b := range books {
		switch b.Status {
		case domain.StatusReading:
			stats.Reading++
		case domain.StatusCompleted:
			stats.Completed++
		}
	}
	for _, bm := range bookmarks {
		if bm.TotalPages <= 0 {
			continue
		}
		pagesRead := float64(bm.TotalPages) * bm.ReadingProgress / 100
		stats.ReadingMinutes += pagesRead * minutesPerPage
	}
	return stats
}
