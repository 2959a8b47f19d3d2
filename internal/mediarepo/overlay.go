// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package mediarepo

import (
	"sync"

	"github.com/ferrex/mediaserver/internal/ids"
)

// RuntimeOverlay holds the client's in-memory mutations layered over
// an immutable archived snapshot (spec.md §3 Runtime Overlay). At any
// time a media id is in at most one of added/modified/deleted, plus
// possibly runtime_only (a subset of added).
type RuntimeOverlay struct {
	mu sync.RWMutex

	added          map[ids.MediaID]Media
	modified       map[ids.MediaID]Media
	deleted        map[ids.MediaID]struct{}
	addedByLibrary map[ids.LibraryID]map[ids.MediaID]struct{}
	runtimeOnly    map[ids.MediaID]struct{}
}

// NewRuntimeOverlay creates an empty overlay.
func NewRuntimeOverlay() *RuntimeOverlay {
	return &RuntimeOverlay{
		added:          make(map[ids.MediaID]Media),
		modified:       make(map[ids.MediaID]Media),
		deleted:        make(map[ids.MediaID]struct{}),
		addedByLibrary: make(map[ids.LibraryID]map[ids.MediaID]struct{}),
		runtimeOnly:    make(map[ids.MediaID]struct{}),
	}
}

// Upsert records media as an overlay mutation. If inArchive is true
// (the id already exists in the archived snapshot) the mutation goes
// into modified; otherwise it is a new id, recorded in added,
// runtime_only, and added_by_library.
func (o *RuntimeOverlay) Upsert(media Media, inArchive bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	delete(o.deleted, media.ID)

	if inArchive {
		delete(o.added, media.ID)
		delete(o.runtimeOnly, media.ID)
		o.modified[media.ID] = media
		return
	}

	o.added[media.ID] = media
	o.runtimeOnly[media.ID] = struct{}{}
	byLib, ok := o.addedByLibrary[media.LibraryID]
	if !ok {
		byLib = make(map[ids.MediaID]struct{})
		o.addedByLibrary[media.LibraryID] = byLib
	}
	byLib[media.ID] = struct{}{}
}

// Delete marks id as deleted, removing it from added/modified tracking.
func (o *RuntimeOverlay) Delete(id ids.MediaID) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if added, ok := o.added[id]; ok {
		delete(o.added, id)
		delete(o.runtimeOnly, id)
		if byLib, ok := o.addedByLibrary[added.LibraryID]; ok {
			delete(byLib, id)
		}
	}
	delete(o.modified, id)
	o.deleted[id] = struct{}{}
}

// ClearModifications drops every overlay mutation, restoring the
// merge view to exactly the archived snapshot.
func (o *RuntimeOverlay) ClearModifications() {
	o.mu.Lock()
	defer o.mu.Unlock()

	o.added = make(map[ids.MediaID]Media)
	o.modified = make(map[ids.MediaID]Media)
	o.deleted = make(map[ids.MediaID]struct{})
	o.addedByLibrary = make(map[ids.LibraryID]map[ids.MediaID]struct{})
	o.runtimeOnly = make(map[ids.MediaID]struct{})
}

// resolve returns the overlay's view of id: (media, found, isDeleted).
// found is false when the overlay has no opinion and the archived
// snapshot should be consulted.
func (o *RuntimeOverlay) resolve(id ids.MediaID) (Media, bool, bool) {
	o.mu.RLock()
	defer o.mu.RUnlock()

	if _, ok := o.deleted[id]; ok {
		return Media{}, false, true
	}
	if m, ok := o.modified[id]; ok {
		return m, true, false
	}
	if m, ok := o.added[id]; ok {
		return m, true, false
	}
	return Media{}, false, false
}

// addedForLibrary returns every overlay-added Media for libraryID.
func (o *RuntimeOverlay) addedForLibrary(libraryID ids.LibraryID) []Media {
	o.mu.RLock()
	defer o.mu.RUnlock()

	memberIDs, ok := o.addedByLibrary[libraryID]
	if !ok {
		return nil
	}
	out := make([]Media, 0, len(memberIDs))
	for id := range memberIDs {
		out = append(out, o.added[id])
	}
	return out
}

func (o *RuntimeOverlay) isDeleted(id ids.MediaID) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.deleted[id]
	return ok
}
