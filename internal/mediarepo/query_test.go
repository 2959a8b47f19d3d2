// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferrex/mediaserver/internal/ids"
)

func TestComputeTitlePositionMap(t *testing.T) {
	lib := newLibrary()
	a := newTestMovie(lib.ID, "Alien")
	b := newTestMovie(lib.ID, "Brazil")
	c := newTestMovie(lib.ID, "Chinatown")
	repo := Load(lib, []Media{c, a, b})

	positions := repo.ComputeTitlePositionMap()
	require.Len(t, positions, 3)
	assert.Equal(t, uint32(1), positions[a.ID])
	assert.Equal(t, uint32(2), positions[b.ID])
	assert.Equal(t, uint32(3), positions[c.ID])
}

func TestFetchFilteredIndicesByGenre(t *testing.T) {
	lib := newLibrary()
	action := newTestMovie(lib.ID, "Predator")
	action.Genres = []string{"action"}
	drama := newTestMovie(lib.ID, "Amadeus")
	drama.Genres = []string{"drama"}
	repo := Load(lib, []Media{action, drama})

	indices := repo.FetchFilteredIndices(FilterSpec{
		Genres: map[string]struct{}{"action": {}},
	}, nil)

	require.Len(t, indices, 1)
	media := repo.GetLibraryMedia()
	assert.Equal(t, action.ID, media[indices[0]].ID)
}

func TestFetchFilteredIndicesWatchedOnly(t *testing.T) {
	lib := newLibrary()
	watched := newTestMovie(lib.ID, "Alien")
	unwatched := newTestMovie(lib.ID, "Aliens")
	repo := Load(lib, []Media{watched, unwatched})

	watch := func(id ids.MediaID) (WatchState, bool) {
		if id == watched.ID {
			return WatchState{Progress: 1.0}, true
		}
		return WatchState{}, false
	}

	indices := repo.FetchFilteredIndices(FilterSpec{WatchedOnly: true}, watch)
	require.Len(t, indices, 1)
	media := repo.GetLibraryMedia()
	assert.Equal(t, watched.ID, media[indices[0]].ID)
}

func TestFetchFilteredIndicesEmptyResultIsValid(t *testing.T) {
	lib := newLibrary()
	repo := Load(lib, []Media{newTestMovie(lib.ID, "Alien")})

	indices := repo.FetchFilteredIndices(FilterSpec{
		Genres: map[string]struct{}{"nonexistent": {}},
	}, nil)
	assert.Empty(t, indices)
}

func TestSortMediaIDsForLibraryDelegatesToRepo(t *testing.T) {
	lib := newLibrary()
	a := newTestMovie(lib.ID, "Alien")
	z := newTestMovie(lib.ID, "Zodiac")
	repo := Load(lib, []Media{z, a})

	ordered, err := repo.SortMediaIDsForLibrary(SortByTitle, SortAscending, ids.UserID{}, nil)
	require.NoError(t, err)
	assert.Equal(t, []ids.MediaID{a.ID, z.ID}, ordered)
}
