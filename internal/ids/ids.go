// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package ids defines the nominally-distinct 128-bit identifier types
// shared across the scan pipeline, the authentication core, and the
// client-side media repository. All of them share the same underlying
// uuid.UUID representation but are not interchangeable at compile time.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// LibraryID identifies a Library.
type LibraryID uuid.UUID

// MovieID identifies a Movie.
type MovieID uuid.UUID

// SeriesID identifies a Series.
type SeriesID uuid.UUID

// SeasonID identifies a Season.
type SeasonID uuid.UUID

// EpisodeID identifies an Episode.
type EpisodeID uuid.UUID

// UserID identifies a User.
type UserID uuid.UUID

// DeviceSessionID identifies a DeviceSession.
type DeviceSessionID uuid.UUID

// MovieBatchID identifies a movie batch blob.
type MovieBatchID uuid.UUID

// ClaimID identifies a First-Run Claim.
type ClaimID uuid.UUID

func (id LibraryID) String() string        { return uuid.UUID(id).String() }
func (id MovieID) String() string          { return uuid.UUID(id).String() }
func (id SeriesID) String() string         { return uuid.UUID(id).String() }
func (id SeasonID) String() string         { return uuid.UUID(id).String() }
func (id EpisodeID) String() string        { return uuid.UUID(id).String() }
func (id UserID) String() string           { return uuid.UUID(id).String() }
func (id DeviceSessionID) String() string  { return uuid.UUID(id).String() }
func (id MovieBatchID) String() string     { return uuid.UUID(id).String() }
func (id ClaimID) String() string          { return uuid.UUID(id).String() }

// NewLibraryID generates a fresh random LibraryID.
func NewLibraryID() LibraryID { return LibraryID(uuid.New()) }

// ParseLibraryID parses the canonical string form of a LibraryID.
func ParseLibraryID(s string) (LibraryID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return LibraryID{}, err
	}
	return LibraryID(u), nil
}

// NewMovieID generates a fresh random MovieID.
func NewMovieID() MovieID { return MovieID(uuid.New()) }

// NewSeriesID generates a fresh random SeriesID.
func NewSeriesID() SeriesID { return SeriesID(uuid.New()) }

// NewSeasonID generates a fresh random SeasonID.
func NewSeasonID() SeasonID { return SeasonID(uuid.New()) }

// NewEpisodeID generates a fresh random EpisodeID.
func NewEpisodeID() EpisodeID { return EpisodeID(uuid.New()) }

// NewUserID generates a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// NewDeviceSessionID generates a fresh random DeviceSessionID.
func NewDeviceSessionID() DeviceSessionID { return DeviceSessionID(uuid.New()) }

// NewMovieBatchID generates a fresh random MovieBatchID.
func NewMovieBatchID() MovieBatchID { return MovieBatchID(uuid.New()) }

// NewClaimID generates a fresh random ClaimID.
func NewClaimID() ClaimID { return ClaimID(uuid.New()) }

// MediaKind tags which media variant a MediaID refers to.
type MediaKind uint8

const (
	MediaKindMovie MediaKind = iota
	MediaKindSeries
	MediaKindSeason
	MediaKindEpisode
)

// String returns the lowercase name of the media kind.
func (k MediaKind) String() string {
	switch k {
	case MediaKindMovie:
		return "movie"
	case MediaKindSeries:
		return "series"
	case MediaKindSeason:
		return "season"
	case MediaKindEpisode:
		return "episode"
	default:
		return "unknown"
	}
}

// MediaID is a tagged union over the four media-kind IDs. Exactly one
// of the kind-specific accessors is valid for a given value, selected
// by Kind.
type MediaID struct {
	Kind MediaKind
	raw  uuid.UUID
}

// NewMovieMediaID wraps a MovieID as a MediaID.
func NewMovieMediaID(id MovieID) MediaID { return MediaID{Kind: MediaKindMovie, raw: uuid.UUID(id)} }

// NewSeriesMediaID wraps a SeriesID as a MediaID.
func NewSeriesMediaID(id SeriesID) MediaID {
	return MediaID{Kind: MediaKindSeries, raw: uuid.UUID(id)}
}

// NewSeasonMediaID wraps a SeasonID as a MediaID.
func NewSeasonMediaID(id SeasonID) MediaID {
	return MediaID{Kind: MediaKindSeason, raw: uuid.UUID(id)}
}

// NewEpisodeMediaID wraps an EpisodeID as a MediaID.
func NewEpisodeMediaID(id EpisodeID) MediaID {
	return MediaID{Kind: MediaKindEpisode, raw: uuid.UUID(id)}
}

// UUID returns the underlying 16-byte representation regardless of kind.
func (m MediaID) UUID() uuid.UUID { return m.raw }

// String renders "<kind>:<uuid>" for logging and map keys.
func (m MediaID) String() string { return fmt.Sprintf("%s:%s", m.Kind, m.raw) }

// AsMovieID returns the wrapped MovieID and whether Kind matches.
func (m MediaID) AsMovieID() (MovieID, bool) { return MovieID(m.raw), m.Kind == MediaKindMovie }

// AsSeriesID returns the wrapped SeriesID and whether Kind matches.
func (m MediaID) AsSeriesID() (SeriesID, bool) { return SeriesID(m.raw), m.Kind == MediaKindSeries }

// AsSeasonID returns the wrapped SeasonID and whether Kind matches.
func (m MediaID) AsSeasonID() (SeasonID, bool) { return SeasonID(m.raw), m.Kind == MediaKindSeason }

// AsEpisodeID returns the wrapped EpisodeID and whether Kind matches.
func (m MediaID) AsEpisodeID() (EpisodeID, bool) {
	return EpisodeID(m.raw), m.Kind == MediaKindEpisode
}
