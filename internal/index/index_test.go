// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package index

import (
	"testing"
	"time"

	"github.com/jeranaias/wayfarer-tui/internal/model"
)

func fixtureSummaries() []model.Summary {
	return []model.Summary{
		{ID: "1", Title: "Jeju island trip"},
		{ID: "2", Title: "Europe backpacking budget"},
		{ID: "3", Title: "Osaka food tour"},
		{ID: "4", Title: "Jeju ferry schedule"},
		{ID: "5", Title: ""},
		{ID: "6", Title: "Canada in autumn", CreatedAt: time.Date(2025, 3, 14, 0, 0, 0, 0, time.UTC)},
	}
}

func ids(summaries []model.Summary) []string {
	out := make([]string, len(summaries))
	for i, s := range summaries {
		out[i] = s.ID
	}
	return out
}

func TestSearch_EmptyQueryReturnsAllInOriginalOrder(t *testing.T) {
	idx := New()
	idx.SetAll(fixtureSummaries())

	got := idx.Search("")
	if len(got) != 6 {
		t.Fatalf("len = %d, want 6", len(got))
	}
	for i, want := range []string{"1", "2", "3", "4", "5", "6"} {
		if got[i].ID != want {
			t.Errorf("position %d: got id %s, want %s", i, got[i].ID, want)
		}
	}

	// Whitespace-only queries behave like empty.
	if len(idx.Search("   ")) != 6 {
		t.Error("blank query should return all summaries")
	}
}

func TestSearch_SubsequenceMatch(t *testing.T) {
	idx := New()
	idx.SetAll(fixtureSummaries())

	got := idx.Search("jeju")
	if len(got) != 2 {
		t.Fatalf("Search(jeju) returned %v, want the two jeju conversations", ids(got))
	}
	for _, s := range got {
		if s.ID != "1" && s.ID != "4" {
			t.Errorf("unexpected hit %s (%q)", s.ID, s.Title)
		}
	}
}

func TestSearch_TypoTolerance(t *testing.T) {
	idx := New()
	idx.SetAll(fixtureSummaries())

	// Transposed query still finds the jeju conversations.
	got := idx.Search("jeuj")
	if len(got) == 0 {
		t.Fatal("transposed query found nothing")
	}
	for _, s := range got {
		if s.ID != "1" && s.ID != "4" {
			t.Errorf("typo search hit unrelated conversation %s (%q)", s.ID, s.Title)
		}
	}

	// Short queries get no typo slack.
	if got := idx.Search("jex"); len(got) != 0 {
		t.Errorf("3-rune typo query should not match, got %v", ids(got))
	}
}

func TestSearch_Deterministic(t *testing.T) {
	idx := New()
	idx.SetAll(fixtureSummaries())

	first := ids(idx.Search("jeju"))
	for i := 0; i < 20; i++ {
		again := ids(idx.Search("jeju"))
		if len(again) != len(first) {
			t.Fatalf("run %d: result size changed: %v vs %v", i, again, first)
		}
		for j := range first {
			if again[j] != first[j] {
				t.Fatalf("run %d: result order changed: %v vs %v", i, again, first)
			}
		}
	}
}

func TestSearch_CreatedAtString(t *testing.T) {
	idx := New()
	idx.SetAll(fixtureSummaries())

	got := idx.Search("2025-03")
	if len(got) != 1 || got[0].ID != "6" {
		t.Errorf("date search = %v, want just conversation 6", ids(got))
	}
}

func TestSearch_UntitledUsesSentinel(t *testing.T) {
	idx := New()
	idx.SetAll(fixtureSummaries())

	got := idx.Search("new conversation")
	found := false
	for _, s := range got {
		if s.ID == "5" {
			found = true
		}
	}
	if !found {
		t.Errorf("sentinel-titled conversation not searchable, got %v", ids(got))
	}
}

func TestSetAll_ReplacesWholesale(t *testing.T) {
	idx := New()
	idx.SetAll(fixtureSummaries())
	idx.SetAll([]model.Summary{{ID: "9", Title: "only one"}})

	if idx.Len() != 1 {
		t.Fatalf("Len = %d after replace, want 1", idx.Len())
	}
	if _, ok := idx.Get("1"); ok {
		t.Error("old summary survived SetAll")
	}
	if s, ok := idx.Get("9"); !ok || s.Title != "only one" {
		t.Error("new summary missing after SetAll")
	}
}

func TestSetAll_CopiesInput(t *testing.T) {
	in := fixtureSummaries()
	idx := New()
	idx.SetAll(in)

	in[0].Title = "mutated"
	if s, _ := idx.Get("1"); s.Title == "mutated" {
		t.Error("index aliases caller's slice")
	}
}
