// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scan

import (
	"fmt"
	"path/filepath"

	"github.com/ferrex/mediaserver/internal/ids"
)

// InvalidMedia is returned when a scan context or discovered file
// violates a structural hierarchy invariant. It never indicates a
// transient I/O failure.
type InvalidMedia struct {
	Path   string
	Reason string
}

func (e *InvalidMedia) Error() string {
	return fmt.Sprintf("invalid media at %q: %s", e.Path, e.Reason)
}

// NewInvalidMedia constructs an InvalidMedia error.
func NewInvalidMedia(path, reason string) *InvalidMedia {
	return &InvalidMedia{Path: path, Reason: reason}
}

// NodeKind tags which kind of folder a ScanContext describes.
type NodeKind uint8

const (
	NodeKindMovie NodeKind = iota
	NodeKindSeries
	NodeKindSeason
)

func (k NodeKind) String() string {
	switch k {
	case NodeKindMovie:
		return "movie"
	case NodeKindSeries:
		return "series"
	case NodeKindSeason:
		return "season"
	default:
		return "unknown"
	}
}

// MovieFolderScanContext describes a movie root folder, a direct child
// of its library root.
type MovieFolderScanContext struct {
	LibraryID     ids.LibraryID
	MovieRootPath string
}

// SeriesFolderScanContext describes a series root folder. It must not
// itself parse as a season folder.
type SeriesFolderScanContext struct {
	LibraryID      ids.LibraryID
	SeriesRootPath string
}

// SeasonFolderScanContext describes a season folder, a direct child of
// its series root whose final path component parses as a season
// designation.
type SeasonFolderScanContext struct {
	LibraryID        ids.LibraryID
	SeriesRootPath   string
	SeasonFolderPath string
	SeasonNumber     uint16
}

// ScanContext is the tagged union Movie(...) | Series(...) | Season(...).
type ScanContext struct {
	Kind   NodeKind
	Movie  *MovieFolderScanContext
	Series *SeriesFolderScanContext
	Season *SeasonFolderScanContext
}

// Path returns the folder path this context describes, regardless of kind.
func (c ScanContext) Path() string {
	switch c.Kind {
	case NodeKindMovie:
		return c.Movie.MovieRootPath
	case NodeKindSeries:
		return c.Series.SeriesRootPath
	case NodeKindSeason:
		return c.Season.SeasonFolderPath
	default:
		return ""
	}
}

// LibraryID returns the owning library ID, regardless of kind.
func (c ScanContext) LibraryID() ids.LibraryID {
	switch c.Kind {
	case NodeKindMovie:
		return c.Movie.LibraryID
	case NodeKindSeries:
		return c.Series.LibraryID
	case NodeKindSeason:
		return c.Season.LibraryID
	default:
		return ids.LibraryID{}
	}
}

// NewMovieFolderScanContext validates that movieRootPath is a direct
// child of libraryRoot and returns a Movie ScanContext.
func NewMovieFolderScanContext(libraryID ids.LibraryID, libraryRoot, movieRootPath string) (ScanContext, error) {
	if filepath.Dir(filepath.Clean(movieRootPath)) != filepath.Clean(libraryRoot) {
		return ScanContext{}, NewInvalidMedia(movieRootPath, "movie root must be a direct child of its library root")
	}
	return ScanContext{
		Kind: NodeKindMovie,
		Movie: &MovieFolderScanContext{
			LibraryID:     libraryID,
			MovieRootPath: movieRootPath,
		},
	}, nil
}

// NewSeriesFolderScanContext validates that seriesRootPath does not
// itself parse as a season folder and returns a Series ScanContext.
func NewSeriesFolderScanContext(libraryID ids.LibraryID, seriesRootPath string) (ScanContext, error) {
	base := filepath.Base(filepath.Clean(seriesRootPath))
	if _, ok := ParseSeasonFolder(base); ok {
		return ScanContext{}, NewInvalidMedia(seriesRootPath, "series root must not itself be a season folder")
	}
	return ScanContext{
		Kind: NodeKindSeries,
		Series: &SeriesFolderScanContext{
			LibraryID:      libraryID,
			SeriesRootPath: seriesRootPath,
		},
	}, nil
}

// NewSeasonFolderScanContextUnderSeriesRoot validates that
// seasonFolderPath is a direct child of seriesRootPath and that its
// final path component parses as a season designation. It returns the
// parsed season number alongside the context so callers never reparse.
func NewSeasonFolderScanContextUnderSeriesRoot(libraryID ids.LibraryID, seriesRootPath, seasonFolderPath string) (ScanContext, uint16, error) {
	if filepath.Dir(filepath.Clean(seasonFolderPath)) != filepath.Clean(seriesRootPath) {
		return ScanContext{}, 0, NewInvalidMedia(seasonFolderPath, "season folder must be a direct child of its series root")
	}
	base := filepath.Base(filepath.Clean(seasonFolderPath))
	season, ok := ParseSeasonFolder(base)
	if !ok {
		return ScanContext{}, 0, NewInvalidMedia(seasonFolderPath, "folder name does not parse as a season designation")
	}
	return ScanContext{
		Kind: NodeKindSeason,
		Season: &SeasonFolderScanContext{
			LibraryID:        libraryID,
			SeriesRootPath:   seriesRootPath,
			SeasonFolderPath: seasonFolderPath,
			SeasonNumber:     season,
		},
	}, season, nil
}
