// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

/*
Package structures provides the general-purpose, stdlib-only data structures
shared by the scan pipeline, the media cache, and the library query engine:

  - Cache: a thread-safe TTL map used to memoize archived-snapshot lookups.
  - LRUCache / LFUCache: bounded eviction caches used to keep hot blob bytes
    and filtered-index results resident without unbounded growth.
  - BloomLRU / ExactLRU (DeduplicationCache): fast "have we seen this
    fingerprint before" checks used by the folder scan actor to skip
    re-discovering unchanged files on a rescan.
  - FenwickTree: O(log n) prefix-count structure backing the library query
    engine's title position map, so inserting a newly added title doesn't
    require recomputing every other title's index.
  - MinHeap: a timestamp-ordered priority queue used by the scan
    orchestrator's retry scheduler to find folder jobs due for a retry.
  - AhoCorasick / Trie: multi-pattern string matching used by the filename
    parsers to classify extras folders against the fixed "Behind the
    Scenes / Deleted Scenes / ..." name table in one pass over the string.

None of these types know about folders, media, or auth; they are deliberately
generic so each consuming package supplies its own key and value semantics.
*/
package structures
