// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"errors"
	"sort"

	"github.com/ferrex/mediaserver/internal/ids"
	"github.com/ferrex/mediaserver/internal/structures"
)

// ErrMediaNotFound is returned by Get for an id absent from both the
// archive and the overlay (or deleted).
var ErrMediaNotFound = errors.New("mediarepo: media not found")

// ErrWatchDataUnavailable is returned by GetSortedIndexByLibrary when
// sort_by requires per-user watch data the caller did not supply.
var ErrWatchDataUnavailable = errors.New("mediarepo: watch data required for this sort field")

// Repo is the Archived Media Repo (spec.md C10): an immutable archived
// snapshot merged with a mutable RuntimeOverlay. The snapshot and its
// primary index are populated once, at Load, and never mutated after;
// only the overlay changes.
type Repo struct {
	library Library
	archive []Media
	byID    map[ids.MediaID]Media
	overlay *RuntimeOverlay

	// snapshotCache memoizes the per-call merge views computed by
	// GetLibraryMedia, invalidated whenever the overlay mutates.
	snapshotCache *structures.Cache
}

// Load populates a Repo from an already-decoded archived snapshot.
// The snapshot is treated as immutable from this point forward.
func Load(library Library, media []Media) *Repo {
	byID := make(map[ids.MediaID]Media, len(media))
	for _, m := range media {
		byID[m.ID] = m
	}
	return &Repo{
		library:       library,
		archive:       media,
		byID:          byID,
		overlay:       NewRuntimeOverlay(),
		snapshotCache: structures.New(0),
	}
}

// Library returns the repo's library metadata.
func (r *Repo) Library() Library { return r.library }

// Overlay exposes the mutable overlay for Upsert/Delete/ClearModifications.
func (r *Repo) Overlay() *RuntimeOverlay { return r.overlay }

// Get returns the merge view of id: overlay deletion wins over
// everything, overlay added/modified shadow the archived value.
func (r *Repo) Get(id ids.MediaID) (Media, error) {
	if m, found, deleted := r.overlay.resolve(id); deleted {
		return Media{}, ErrMediaNotFound
	} else if found {
		return m, nil
	}
	if m, ok := r.byID[id]; ok {
		return m, nil
	}
	return Media{}, ErrMediaNotFound
}

// GetLibraryMedia returns archived members of r.library minus deleted,
// plus overlay-added members for this library, filtered to the
// library's type.
func (r *Repo) GetLibraryMedia() []Media {
	out := make([]Media, 0, len(r.archive))
	for _, m := range r.archive {
		if r.overlay.isDeleted(m.ID) {
			continue
		}
		if resolved, found, deleted := r.overlay.resolve(m.ID); found && !deleted {
			out = append(out, resolved)
			continue
		}
		out = append(out, m)
	}
	out = append(out, r.overlay.addedForLibrary(r.library.ID)...)
	return out
}

// comparable is the subset of Media fields GetSortedIndexByLibrary can
// order by, resolved ahead of sorting so the comparator stays simple.
type sortKey struct {
	id          ids.MediaID
	title       string
	dateAdded   int64
	createdAt   int64
	fileSize    int64
	releaseDate *int64
	rating      *float64
	runtime     *int64
	popularity  *float64
	bitrate     *int64
	contentRating string
	resolution    string
	watchProgress *float64
	lastWatched   *int64
}

// WatchDataProvider supplies per-user watch state for sort fields that
// need it. Implemented by an out-of-scope watch-history collaborator.
type WatchDataProvider interface {
	WatchState(userID ids.UserID, mediaID ids.MediaID) (WatchState, bool)
}

// GetSortedIndexByLibrary returns media ids for this library ordered
// by sortBy/order. Ties break by Title ascending, then by MediaId.
// WatchProgress/LastWatched require watchData; its absence when the
// sort key needs it is ErrWatchDataUnavailable.
func (r *Repo) GetSortedIndexByLibrary(sortBy SortField, order SortOrder, userID ids.UserID, watchData WatchDataProvider) ([]ids.MediaID, error) {
	if sortBy.requiresWatchData() && watchData == nil {
		return nil, ErrWatchDataUnavailable
	}

	media := r.GetLibraryMedia()
	keys := make([]sortKey, 0, len(media))
	for _, m := range media {
		k := sortKey{
			id:            m.ID,
			title:         m.Title,
			dateAdded:     m.DateAdded.UnixNano(),
			createdAt:     m.CreatedAt.UnixNano(),
			fileSize:      m.FileSize,
			contentRating: m.ContentRating,
			resolution:    m.Resolution,
		}
		if m.ReleaseDate != nil {
			v := m.ReleaseDate.UnixNano()
			k.releaseDate = &v
		}
		k.rating = m.Rating
		if m.Runtime != nil {
			v := int64(*m.Runtime)
			k.runtime = &v
		}
		k.popularity = m.Popularity
		k.bitrate = m.Bitrate

		if sortBy.requiresWatchData() {
			if ws, ok := watchData.WatchState(userID, m.ID); ok {
				progress := ws.Progress
				k.watchProgress = &progress
				lw := ws.LastWatched.UnixNano()
				k.lastWatched = &lw
			}
		}
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool {
		less, decided := compareSortKeys(keys[i], keys[j], sortBy)
		if !decided {
			if keys[i].title != keys[j].title {
				return keys[i].title < keys[j].title
			}
			return keys[i].id.String() < keys[j].id.String()
		}
		return less
	})

	if order == SortDescending {
		for i, j := 0, len(keys)-1; i < j; i, j = i+1, j-1 {
			keys[i], keys[j] = keys[j], keys[i]
		}
	}

	out := make([]ids.MediaID, len(keys))
	for i, k := range keys {
		out[i] = k.id
	}
	return out, nil
}

// compareSortKeys reports whether a sorts before b on field, and
// whether the comparison was decisive (false means "equal, fall
// through to the tiebreaker"). Optional fields sort Some before None
// (ascending); GetSortedIndexByLibrary flips the whole slice for
// descending order afterward, which also flips None-before-Some for
// optional fields, matching spec.md §4.10.
func compareSortKeys(a, b sortKey, field SortField) (less bool, decided bool) {
	switch field {
	case SortByTitle:
		if a.title != b.title {
			return a.title < b.title, true
		}
	case SortByDateAdded:
		if a.dateAdded != b.dateAdded {
			return a.dateAdded < b.dateAdded, true
		}
	case SortByCreatedAt:
		if a.createdAt != b.createdAt {
			return a.createdAt < b.createdAt, true
		}
	case SortByFileSize:
		if a.fileSize != b.fileSize {
			return a.fileSize < b.fileSize, true
		}
	case SortByReleaseDate:
		return compareOptionalInt64(a.releaseDate, b.releaseDate)
	case SortByRating:
		return compareOptionalFloat64(a.rating, b.rating)
	case SortByRuntime:
		return compareOptionalInt64(a.runtime, b.runtime)
	case SortByPopularity:
		return compareOptionalFloat64(a.popularity, b.popularity)
	case SortByBitrate:
		return compareOptionalInt64(a.bitrate, b.bitrate)
	case SortByContentRating:
		if a.contentRating != b.contentRating {
			return a.contentRating < b.contentRating, true
		}
	case SortByResolution:
		if a.resolution != b.resolution {
			return a.resolution < b.resolution, true
		}
	case SortByWatchProgress:
		return compareOptionalFloat64(a.watchProgress, b.watchProgress)
	case SortByLastWatched:
		return compareOptionalInt64(a.lastWatched, b.lastWatched)
	}
	return false, false
}

func compareOptionalInt64(a, b *int64) (bool, bool) {
	if a == nil && b == nil {
		return false, false
	}
	if a == nil {
		return true, true
	}
	if b == nil {
		return false, true
	}
	if *a == *b {
		return false, false
	}
	return *a < *b, true
}

func compareOptionalFloat64(a, b *float64) (bool, bool) {
	if a == nil && b == nil {
		return false, false
	}
	if a == nil {
		return true, true
	}
	if b == nil {
		return false, true
	}
	if *a == *b {
		return false, false
	}
	return *a < *b, true
}
