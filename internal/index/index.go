// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package index maintains the sidebar's searchable list of conversation
// summaries, independent of which conversation is currently open.
//
// Search is approximate on purpose: a subsequence match (sahilm/fuzzy)
// catches abbreviations like "jj trip", and a bounded Levenshtein pass
// catches transpositions and typos like "jeju" vs "jeuj". Results are
// deterministic for a fixed summary set and query.
package index

import (
	"sort"
	"strings"
	"sync"

	"github.com/agnivade/levenshtein"
	"github.com/sahilm/fuzzy"

	"github.com/jeranaias/wayfarer-tui/internal/model"
)

// typoTolerance returns the maximum edit distance accepted for a query of
// the given rune length. Short queries get no slack: at two or three
// characters a single edit turns the query into something else entirely.
func typoTolerance(queryLen int) int {
	switch {
	case queryLen >= 8:
		return 2
	case queryLen >= 4:
		return 1
	default:
		return 0
	}
}

// Index is the in-memory conversation summary index. Safe for concurrent
// use; the TUI reads it from the update loop while the controller refreshes
// it from completed backend calls.
type Index struct {
	mu        sync.RWMutex
	summaries []model.Summary
}

// New creates an empty index.
func New() *Index {
	return &Index{}
}

// SetAll replaces the full summary set. Order is whatever the backend
// returned; the index itself never sorts it.
func (idx *Index) SetAll(summaries []model.Summary) {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.summaries = make([]model.Summary, len(summaries))
	copy(idx.summaries, summaries)
}

// All returns the current summary set in original order.
func (idx *Index) All() []model.Summary {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	out := make([]model.Summary, len(idx.summaries))
	copy(out, idx.summaries)
	return out
}

// Len returns the number of indexed conversations.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return len(idx.summaries)
}

// Get returns the summary with the given id, if present.
func (idx *Index) Get(id string) (model.Summary, bool) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	for _, s := range idx.summaries {
		if s.ID == id {
			return s, true
		}
	}
	return model.Summary{}, false
}

// =============================================================================
// SEARCH
// =============================================================================

// scored pairs a summary with its match score for ordering.
type scored struct {
	summary model.Summary
	score   int
	origPos int
}

// Search returns summaries approximately matching query. An empty query
// returns the full set unfiltered in original order. Result order is score
// descending with original position as the tiebreak, so the same query
// against the same set always yields the same result order.
func (idx *Index) Search(query string) []model.Summary {
	query = strings.TrimSpace(query)
	if query == "" {
		return idx.All()
	}

	idx.mu.RLock()
	summaries := make([]model.Summary, len(idx.summaries))
	copy(summaries, idx.summaries)
	idx.mu.RUnlock()

	targets := make([]string, len(summaries))
	for i, s := range summaries {
		targets[i] = searchTarget(s)
	}

	hits := make(map[int]int) // original position -> score

	// Pass 1: subsequence match across the whole target.
	for _, m := range fuzzy.Find(query, targets) {
		hits[m.Index] = m.Score
	}

	// Pass 2: typo tolerance. A summary missed by the subsequence pass
	// still matches when some word of its target is within edit-distance
	// tolerance of the query. Scored below all subsequence hits.
	tol := typoTolerance(len([]rune(query)))
	if tol > 0 {
		q := strings.ToLower(query)
		for i, target := range targets {
			if _, ok := hits[i]; ok {
				continue
			}
			if d, ok := bestWordDistance(q, target, tol); ok {
				hits[i] = typoScore(d)
			}
		}
	}

	results := make([]scored, 0, len(hits))
	for pos, score := range hits {
		results = append(results, scored{summary: summaries[pos], score: score, origPos: pos})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].score != results[j].score {
			return results[i].score > results[j].score
		}
		return results[i].origPos < results[j].origPos
	})

	out := make([]model.Summary, len(results))
	for i, r := range results {
		out[i] = r.summary
	}
	return out
}

// searchTarget is the text a summary is matched against: its display title
// plus the creation date rendered as a string, so "2025-03" finds
// conversations from March.
func searchTarget(s model.Summary) string {
	target := s.DisplayTitle()
	if !s.CreatedAt.IsZero() {
		target += " " + s.CreatedAt.Format("2006-01-02")
	}
	return target
}

// bestWordDistance returns the smallest edit distance between q and any
// word of target, when that distance is within tol.
func bestWordDistance(q, target string, tol int) (int, bool) {
	best := tol + 1
	for _, word := range strings.Fields(strings.ToLower(target)) {
		if d := levenshtein.ComputeDistance(q, word); d < best {
			best = d
		}
	}
	return best, best <= tol
}

// typoScore maps an edit distance to a score strictly below any score the
// subsequence pass can produce, keeping subsequence matches ahead of typo
// rescues.
func typoScore(distance int) int {
	return -1000 - distance
}
