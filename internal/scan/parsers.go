// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scan

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/ferrex/mediaserver/internal/structures"
)

var (
	seasonWordRe = regexp.MustCompile(`(?i)^season[_ -]?(\d{1,3})$`)
	seasonShortRe = regexp.MustCompile(`(?i)^s(\d{1,3})$`)
	episodeSxxExxRe = regexp.MustCompile(`(?i)s(\d{1,3})e(\d{1,3})`)
	episodeMxNRe    = regexp.MustCompile(`(\d{1,3})x(\d{1,3})`)
)

// ParseSeasonFolder matches a folder name against the season-folder
// grammar: "Season NN", "Season_NN", "Season-NN", "SNN", or "Specials"
// (which maps to season 0). Values >= 1000 are rejected (unreachable
// given the 1-3 digit regex groups, kept explicit for clarity).
func ParseSeasonFolder(name string) (uint16, bool) {
	trimmed := strings.TrimSpace(name)
	if strings.EqualFold(trimmed, "specials") {
		return 0, true
	}
	if m := seasonWordRe.FindStringSubmatch(trimmed); m != nil {
		return parseSeasonNumber(m[1])
	}
	if m := seasonShortRe.FindStringSubmatch(trimmed); m != nil {
		return parseSeasonNumber(m[1])
	}
	return 0, false
}

func parseSeasonNumber(digits string) (uint16, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil || n >= 1000 {
		return 0, false
	}
	return uint16(n), true
}

// EpisodeInfo is the result of parsing an episode designator out of a
// filename stem.
type EpisodeInfo struct {
	Season  uint16
	Episode uint16
	Title   string
}

// ParseEpisodeInfo extracts the first "S<m>E<n>" or "<m>x<n>" designator
// found in path's filename stem.
func ParseEpisodeInfo(path string) (EpisodeInfo, bool) {
	stem := stemOf(path)
	if m := episodeSxxExxRe.FindStringSubmatchIndex(stem); m != nil {
		season, _ := strconv.Atoi(stem[m[2]:m[3]])
		episode, _ := strconv.Atoi(stem[m[4]:m[5]])
		return EpisodeInfo{
			Season:  uint16(season),
			Episode: uint16(episode),
			Title:   titleAfter(stem, m[1]),
		}, true
	}
	if m := episodeMxNRe.FindStringSubmatchIndex(stem); m != nil {
		season, _ := strconv.Atoi(stem[m[2]:m[3]])
		episode, _ := strconv.Atoi(stem[m[4]:m[5]])
		return EpisodeInfo{
			Season:  uint16(season),
			Episode: uint16(episode),
			Title:   titleAfter(stem, m[1]),
		}, true
	}
	return EpisodeInfo{}, false
}

func stemOf(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// titleAfter extracts a best-effort episode title from the remainder of
// the stem following the designator, stripping leading separators.
func titleAfter(stem string, after int) string {
	if after >= len(stem) {
		return ""
	}
	rest := strings.TrimLeft(stem[after:], " .-_")
	rest = strings.ReplaceAll(rest, ".", " ")
	rest = strings.ReplaceAll(rest, "_", " ")
	return strings.TrimSpace(rest)
}

// ExtraType classifies a bonus-content folder or filename.
type ExtraType uint8

const (
	ExtraBehindTheScenes ExtraType = iota
	ExtraDeletedScenes
	ExtraFeaturette
	ExtraInterview
	ExtraScene
	ExtraShort
	ExtraTrailer
	ExtraOther
)

func (t ExtraType) String() string {
	switch t {
	case ExtraBehindTheScenes:
		return "behind_the_scenes"
	case ExtraDeletedScenes:
		return "deleted_scenes"
	case ExtraFeaturette:
		return "featurette"
	case ExtraInterview:
		return "interview"
	case ExtraScene:
		return "scene"
	case ExtraShort:
		return "short"
	case ExtraTrailer:
		return "trailer"
	default:
		return "other"
	}
}

// extraFolderNames maps the fixed table of folder names (and Plex/
// Jellyfin compact forms) to an ExtraType, case-insensitively.
var extraFolderNames = map[string]ExtraType{
	"behind the scenes": ExtraBehindTheScenes,
	"behindthescenes":   ExtraBehindTheScenes,
	"deleted scenes":    ExtraDeletedScenes,
	"deletedscenes":     ExtraDeletedScenes,
	"featurettes":       ExtraFeaturette,
	"featurette":        ExtraFeaturette,
	"interviews":        ExtraInterview,
	"interview":         ExtraInterview,
	"scenes":            ExtraScene,
	"shorts":            ExtraShort,
	"trailers":          ExtraTrailer,
	"trailer":           ExtraTrailer,
	"extras":            ExtraOther,
	"special features":  ExtraOther,
	"specialfeatures":   ExtraOther,
}

// extraFilenameFallback matches loose-in-filename markers via a single
// Aho-Corasick pass rather than N separate substring scans.
var extraFilenameFallback = buildExtraFallbackMatcher()

func buildExtraFallbackMatcher() *structures.AhoCorasick {
	ac := structures.NewAhoCorasick() // case-insensitive by construction
	patterns := map[string]ExtraType{
		"making of":   ExtraFeaturette,
		"commentary":  ExtraOther,
		"gag reel":    ExtraDeletedScenes,
		"bloopers":    ExtraDeletedScenes,
		"_extra_":     ExtraOther,
		"_bonus_":     ExtraOther,
		"_special_":   ExtraOther,
	}
	for pattern, kind := range patterns {
		ac.AddPattern(pattern, kind)
	}
	ac.Build()
	return ac
}

// ParseExtraInfo classifies path as an extras item by checking its
// parent folder name against the fixed table, then falling back to
// loose markers in the filename itself.
func ParseExtraInfo(path string) (ExtraType, bool) {
	parent := strings.ToLower(filepath.Base(filepath.Dir(path)))
	if kind, ok := extraFolderNames[parent]; ok {
		return kind, true
	}
	stem := strings.ToLower(stemOf(path))
	if match, ok := extraFilenameFallback.SearchFirst(stem); ok {
		return match.Data.(ExtraType), true
	}
	return ExtraOther, false
}

// ExtractParentTitle returns the base name of the directory containing
// path. Year suffixes such as "(1999)" are kept as part of the title,
// matching the reference fixtures' behavior (spec.md open question).
func ExtractParentTitle(path string) (string, bool) {
	parent := filepath.Base(filepath.Dir(filepath.Clean(path)))
	if parent == "" || parent == "." || parent == string(filepath.Separator) {
		return "", false
	}
	return parent, true
}
