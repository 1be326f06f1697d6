package search

import (
	"testing"

	"github.com/stonebell/issuegraph/pkg/model"
)

func testIndex() *Index {
	return NewIndex([]model.Issue{
		{ID: "acme/api#12", Number: 12, Title: "Fix login timeout", State: model.StateOpen},
		{ID: "acme/api#34", Number: 34, Title: "Add pagination to issue list", State: model.StateOpen},
		{ID: "acme/web#7", Number: 7, Title: "Dark mode toggle", State: model.StateClosed},
	})
}

func TestFindMatchesTitle(t *testing.T) {
	idx := testIndex()
	results := idx.Find("pagination")
	if len(results) != 1 {
		t.Fatalf("Find(pagination) = %d results", len(results))
	}
	if results[0].Issue.ID != "acme/api#34" {
		t.Fatalf("matched %s", results[0].Issue.ID)
	}
}

func TestFindMatchesIdentity(t *testing.T) {
	idx := testIndex()
	results := idx.Find("web#7")
	if len(results) == 0 || results[0].Issue.ID != "acme/web#7" {
		t.Fatalf("Find(web#7) = %v", results)
	}
}

func TestFindBestScoreFirst(t *testing.T) {
	idx := testIndex()
	results := idx.Find("acme/api")
	if len(results) < 2 {
		t.Fatalf("Find(acme/api) = %d results", len(results))
	}
	for i := 1; i < len(results); i++ {
		if results[i].Score > results[i-1].Score {
			t.Fatalf("results not ordered by score: %v", results)
		}
	}
}

func TestEmptyQueryReturnsAll(t *testing.T) {
	idx := testIndex()
	for _, q := range []string{"", "   "} {
		results := idx.Find(q)
		if len(results) != idx.Len() {
			t.Fatalf("Find(%q) = %d results, want %d", q, len(results), idx.Len())
		}
	}
	// Index order preserved.
	if got := idx.Find("")[0].Issue.ID; got != "acme/api#12" {
		t.Fatalf("first result = %s", got)
	}
}

func TestFindNoMatch(t *testing.T) {
	idx := testIndex()
	if results := idx.Find("zzzzzz"); len(results) != 0 {
		t.Fatalf("Find(zzzzzz) = %v", results)
	}
}

func TestFindN(t *testing.T) {
	idx := testIndex()
	if got := idx.FindN("", 2); len(got) != 2 {
		t.Fatalf("FindN cap = %d results", len(got))
	}
	if got := idx.FindN("", 0); len(got) != idx.Len() {
		t.Fatalf("FindN(0) = %d results", len(got))
	}
}
