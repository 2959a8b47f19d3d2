// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"time"

	"github.com/ferrex/mediaserver/internal/ids"
)

// LibraryType partitions which media variants a Library may contain
// (spec.md §3).
type LibraryType int

const (
	LibraryTypeMovies LibraryType = iota
	LibraryTypeSeries
)

func (t LibraryType) String() string {
	if t == LibraryTypeSeries {
		return "series"
	}
	return "movies"
}

// Library is a scan root plus display/scheduling metadata.
type Library struct {
	ID           ids.LibraryID
	Name         string
	Type         LibraryType
	Paths        []string
	Enabled      bool
	ScanInterval time.Duration
	LastScan     *time.Time
	AutoScan     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Media is the library-browser-facing projection of a Movie, Series,
// Season, or Episode: the fields §4.10/§4.12's sort_by and filter
// operations need, independent of which media kind it wraps.
type Media struct {
	ID        ids.MediaID
	LibraryID ids.LibraryID
	Title     string

	DateAdded     time.Time
	CreatedAt     time.Time
	FileSize      int64
	ReleaseDate   *time.Time
	Rating        *float64
	Runtime       *time.Duration
	Popularity    *float64
	Bitrate       *int64
	ContentRating string
	Resolution    string

	Genres []string
	Year   int
}

// WatchState is the per-user watch progress a SortField of
// WatchProgress/LastWatched needs; the archived/overlay layer does not
// itself store this, it is supplied by an out-of-scope watch-history
// collaborator through the WatchDataProvider interface (query.go).
type WatchState struct {
	Progress    float64 // 0..1
	LastWatched time.Time
}

// SortField is one of the orderable Media attributes (spec.md §4.10).
type SortField int

const (
	SortByTitle SortField = iota
	SortByDateAdded
	SortByCreatedAt
	SortByFileSize
	SortByReleaseDate
	SortByRating
	SortByRuntime
	SortByPopularity
	SortByBitrate
	SortByContentRating
	SortByResolution
	SortByWatchProgress
	SortByLastWatched
)

// SortOrder is ascending or descending.
type SortOrder int

const (
	SortAscending SortOrder = iota
	SortDescending
)

// requiresWatchData reports whether f needs a WatchDataProvider.
func (f SortField) requiresWatchData() bool {
	return f == SortByWatchProgress || f == SortByLastWatched
}

// FilterSpec constrains fetch_filtered_indices (spec.md §4.12) to a
// set of allowed values per dimension; a nil/empty set for a dimension
// means "no constraint" on that dimension.
type FilterSpec struct {
	Genres        map[string]struct{}
	Years         map[int]struct{}
	Resolutions   map[string]struct{}
	WatchedOnly   bool
	UnwatchedOnly bool
}

func (f FilterSpec) matches(m Media, watch *WatchState) bool {
	if len(f.Genres) > 0 {
		if !anyGenreMatches(m.Genres, f.Genres) {
			return false
		}
	}
	if len(f.Years) > 0 {
		if _, ok := f.Years[m.Year]; !ok {
			return false
		}
	}
	if len(f.Resolutions) > 0 {
		if _, ok := f.Resolutions[m.Resolution]; !ok {
			return false
		}
	}
	if f.WatchedOnly {
		if watch == nil || watch.Progress < 1.0 {
			return false
		}
	}
	if f.UnwatchedOnly {
		if watch != nil && watch.Progress > 0 {
			return false
		}
	}
	return true
}

func anyGenreMatches(have []string, want map[string]struct{}) bool {
	for _, g := range have {
		if _, ok := want[g]; ok {
			return true
		}
	}
	return false
}
