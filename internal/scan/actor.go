// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scan

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ferrex/mediaserver/internal/ids"
	"github.com/ferrex/mediaserver/internal/logging"
	"github.com/ferrex/mediaserver/internal/metrics"
)

// FolderScanJob is one unit of work for the Folder Scan Actor: scan a
// single folder described by Context.
type FolderScanJob struct {
	Context    ScanContext
	ScanReason ScanReason
}

// FolderScanActor scans exactly one folder per job: plan the listing,
// discover media files, and (for series parents) derive child season
// contexts to enqueue.
type FolderScanActor struct {
	logger *logging.EventLogger
}

// NewFolderScanActor creates a Folder Scan Actor with its own
// component-scoped event logger.
func NewFolderScanActor() *FolderScanActor {
	return &FolderScanActor{logger: logging.NewEventLogger()}
}

// PlanListing reads job's folder, partitions its entries per spec.md
// §4.3, and computes a deterministic listing hash. Per-entry I/O
// errors are logged and skipped; they never fail the job. Failure to
// read the folder root itself is fatal.
func (a *FolderScanActor) PlanListing(ctx context.Context, job FolderScanJob) (*FolderListingPlan, error) {
	root := job.Context.Path()

	dirEntries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read folder root %q: %w", root, err)
	}

	plan := &FolderListingPlan{}
	var hashEntries []listingEntry

	for _, de := range dirEntries {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		name := de.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}

		info, err := de.Info()
		if err != nil {
			a.logger.Warn("skipping entry with unreadable metadata", "path", filepath.Join(root, name), "error", err.Error())
			continue
		}

		hashEntries = append(hashEntries, listingEntry{
			Name:    name,
			IsDir:   de.IsDir(),
			Size:    info.Size(),
			MtimeMs: info.ModTime().UnixMilli(),
		})

		entryPath := filepath.Join(root, name)
		a.classifyEntry(job.Context, entryPath, name, de.IsDir(), plan)
	}

	plan.ListingHash = computeListingHash(hashEntries)
	return plan, nil
}

func (a *FolderScanActor) classifyEntry(sc ScanContext, entryPath, name string, isDir bool, plan *FolderListingPlan) {
	switch sc.Kind {
	case NodeKindSeries:
		if isDir {
			if _, ok := ParseSeasonFolder(name); ok {
				plan.Directories = append(plan.Directories, entryPath)
			} else {
				a.logger.Debug("ignoring non-season subfolder under series root", "path", entryPath)
			}
			return
		}
		a.logger.Warn("media file found directly under series root, dropping", "path", entryPath)
	case NodeKindSeason, NodeKindMovie:
		if isDir {
			// Extras recursion is out of scope for this pass (spec.md §4.3).
			return
		}
		if IsRecognisedMediaExtension(filepath.Ext(name)) {
			plan.MediaFiles = append(plan.MediaFiles, entryPath)
		} else {
			plan.AncillaryFiles = append(plan.AncillaryFiles, entryPath)
		}
	}
}

// DiscoverMedia stats each media file in plan, builds its fingerprint,
// and emits one MediaFileDiscovered per file. For Season contexts, the
// parsed episode season must match the context's season number or the
// job fails with InvalidMedia (spec.md invariant 1).
func (a *FolderScanActor) DiscoverMedia(ctx context.Context, plan *FolderListingPlan, job FolderScanJob) ([]MediaFileDiscovered, error) {
	discovered := make([]MediaFileDiscovered, 0, len(plan.MediaFiles))

	for _, path := range plan.MediaFiles {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		info, err := os.Stat(path)
		if err != nil {
			a.logger.Warn("skipping media file, stat failed", "path", path, "error", err.Error())
			continue
		}

		fp := MediaFingerprint{
			Size:    uint64(info.Size()),
			MtimeMs: info.ModTime().UnixMilli(),
		}

		event := MediaFileDiscovered{
			LibraryID:   job.Context.LibraryID(),
			Path:        path,
			Fingerprint: fp,
			NodeKind:    job.Context.Kind,
			Hierarchy:   job.Context,
			ScanReason:  job.ScanReason,
		}

		switch job.Context.Kind {
		case NodeKindSeason:
			info, ok := ParseEpisodeInfo(path)
			if !ok {
				return nil, NewInvalidMedia(path, fmt.Sprintf("could not parse episode designator, expected S%02d", job.Context.Season.SeasonNumber))
			}
			if info.Season != job.Context.Season.SeasonNumber {
				return nil, NewInvalidMedia(path, fmt.Sprintf("episode season S%02d does not match folder, expected S%02d", info.Season, job.Context.Season.SeasonNumber))
			}
			event.ClassifiedAs = ClassifiedAsEpisode
			event.Variant = info
			event.MediaID = ids.NewEpisodeMediaID(ids.NewEpisodeID())
		case NodeKindMovie:
			event.ClassifiedAs = ClassifiedAsMovie
			event.MediaID = ids.NewMovieMediaID(ids.NewMovieID())
		}

		metrics.RecordFileDiscovered(job.Context.LibraryID().String(), event.ClassifiedAs.String())
		discovered = append(discovered, event)
	}

	return discovered, nil
}

// DeriveChildContexts maps each season directory found under a series
// parent to a SeasonFolderScanContext. It is a no-op for non-Series
// contexts.
func (a *FolderScanActor) DeriveChildContexts(plan *FolderListingPlan, job FolderScanJob) ([]ScanContext, error) {
	if job.Context.Kind != NodeKindSeries {
		return nil, nil
	}

	children := make([]ScanContext, 0, len(plan.Directories))
	for _, dir := range plan.Directories {
		child, _, err := NewSeasonFolderScanContextUnderSeriesRoot(job.Context.LibraryID(), job.Context.Series.SeriesRootPath, dir)
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return children, nil
}

// Run executes the full plan -> discover -> derive -> finalize
// contract for a single folder job.
func (a *FolderScanActor) Run(ctx context.Context, job FolderScanJob) (*FolderScanSummary, error) {
	start := time.Now()
	libraryID := job.Context.LibraryID().String()

	plan, err := a.PlanListing(ctx, job)
	if err != nil {
		metrics.RecordScanFolderCompletion(libraryID, "failed", time.Since(start))
		return nil, err
	}

	discovered, err := a.DiscoverMedia(ctx, plan, job)
	if err != nil {
		metrics.RecordScanFolderCompletion(libraryID, "failed", time.Since(start))
		return nil, err
	}

	children, err := a.DeriveChildContexts(plan, job)
	if err != nil {
		metrics.RecordScanFolderCompletion(libraryID, "failed", time.Since(start))
		return nil, err
	}

	metrics.RecordScanFolderCompletion(libraryID, "completed", time.Since(start))

	return &FolderScanSummary{
		Context:            job.Context,
		DiscoveredFiles:    discovered,
		EnqueuedSubfolders: children,
		ListingHash:        plan.ListingHash,
		CompletedAt:        time.Now(),
	}, nil
}
