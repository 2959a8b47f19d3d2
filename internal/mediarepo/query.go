// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"sort"

	"github.com/ferrex/mediaserver/internal/ids"
)

// ComputeTitlePositionMap returns, for every media id currently in the
// library, its 1-based rank among titles sorted ascending (ties broken
// by MediaId, matching GetSortedIndexByLibrary's default tiebreak).
func (r *Repo) ComputeTitlePositionMap() map[ids.MediaID]uint32 {
	media := r.GetLibraryMedia()

	sort.Slice(media, func(i, j int) bool {
		if media[i].Title != media[j].Title {
			return media[i].Title < media[j].Title
		}
		return media[i].ID.String() < media[j].ID.String()
	})

	positions := make(map[ids.MediaID]uint32, len(media))
	for i, m := range media {
		positions[m.ID] = uint32(i + 1)
	}
	return positions
}

// FetchFilteredIndices returns the indices into GetLibraryMedia()'s
// result that satisfy spec, in the same order GetLibraryMedia
// returns them. An empty result is valid: it means nothing in this
// library matches, not that the query failed.
func (r *Repo) FetchFilteredIndices(spec FilterSpec, watch func(ids.MediaID) (WatchState, bool)) []uint32 {
	media := r.GetLibraryMedia()

	var out []uint32
	for i, m := range media {
		var ws *WatchState
		if watch != nil {
			if v, ok := watch(m.ID); ok {
				ws = &v
			}
		}
		if spec.matches(m, ws) {
			out = append(out, uint32(i))
		}
	}
	return out
}

// SortMediaIDsForLibrary is the Library Query Engine's sort_media_ids_for_library
// entry point; it delegates to Repo.GetSortedIndexByLibrary, which owns
// the comparator and tiebreak rules (spec.md §4.10).
func (r *Repo) SortMediaIDsForLibrary(sortBy SortField, order SortOrder, userID ids.UserID, watchData WatchDataProvider) ([]ids.MediaID, error) {
	return r.GetSortedIndexByLibrary(sortBy, order, userID, watchData)
}
