package optimistic

import (
	"testing"

	"github.com/stonebell/issuegraph/pkg/model"
)

func issue(id, title string) model.Issue {
	return model.Issue{ID: id, Title: title, State: model.StateOpen}
}

func ids(issues []model.Issue) []string {
	out := make([]string, len(issues))
	for i, iss := range issues {
		out[i] = iss.ID
	}
	return out
}

func TestAddAppearsAfterAuthoritative(t *testing.T) {
	s := NewSet()
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one"), issue("o/r#2", "two")})
	s.Add(issue("o/r#3", "three"))

	got := ids(s.All())
	want := []string{"o/r#1", "o/r#2", "o/r#3"}
	if len(got) != len(want) {
		t.Fatalf("All() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("All()[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestAddDuplicateIsNoOp(t *testing.T) {
	s := NewSet()
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one")})

	s.Add(issue("o/r#1", "shadow"))
	if got := s.All(); len(got) != 1 {
		t.Fatalf("duplicate of authoritative changed length: %v", ids(got))
	}

	s.Add(issue("o/r#2", "two"))
	s.Add(issue("o/r#2", "again"))
	got := s.All()
	if len(got) != 2 {
		t.Fatalf("duplicate optimistic add changed length: %v", ids(got))
	}
	if got[1].Title != "two" {
		t.Fatalf("second add overwrote the first: %q", got[1].Title)
	}
}

func TestConfirmationDropsOptimistic(t *testing.T) {
	s := NewSet()
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one")})
	s.Add(issue("o/r#2", "local"))

	// Server confirms the entity.
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one"), issue("o/r#2", "server")})

	got := s.All()
	if len(got) != 2 {
		t.Fatalf("All() = %v, want exactly one entry per identity", ids(got))
	}
	if got[1].Title != "server" {
		t.Fatalf("merged entity should be authoritative, got title %q", got[1].Title)
	}

	// Dropped exactly once: disappearing from a later authoritative list
	// must not resurrect the optimistic version.
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one")})
	if got := ids(s.All()); len(got) != 1 {
		t.Fatalf("confirmed entity resurrected: %v", got)
	}
}

func TestUpdateOverlaysPendingOnly(t *testing.T) {
	s := NewSet()
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one")})
	s.Add(issue("o/r#2", "draft"))

	s.Update(issue("o/r#2", "edited"))
	s.Update(issue("o/r#1", "should not apply"))

	got := s.All()
	if got[0].Title != "one" {
		t.Fatalf("authoritative entity overlaid: %q", got[0].Title)
	}
	if got[1].Title != "edited" {
		t.Fatalf("overlay not applied: %q", got[1].Title)
	}

	// Confirmation clears the overlay.
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one"), issue("o/r#2", "real")})
	if got := s.All(); got[1].Title != "real" {
		t.Fatalf("overlay survived confirmation: %q", got[1].Title)
	}
}

func TestPendingAndContains(t *testing.T) {
	s := NewSet()
	s.SetAuthoritative([]model.Issue{issue("o/r#1", "one")})
	s.Add(issue("o/r#2", "two"))

	p := s.Pending()
	if len(p) != 1 || p[0] != "o/r#2" {
		t.Fatalf("Pending() = %v", p)
	}
	if !s.Contains("o/r#1") || !s.Contains("o/r#2") || s.Contains("o/r#9") {
		t.Fatal("Contains mismatch")
	}
}

func TestCallerMutationDoesNotLeak(t *testing.T) {
	s := NewSet()
	local := issue("o/r#2", "two")
	local.Labels = []model.Label{{Name: "bug"}}
	s.Add(local)
	local.Labels[0].Name = "mutated"

	got := s.All()
	if got[0].Labels[0].Name != "bug" {
		t.Fatalf("caller mutation leaked into the set: %q", got[0].Labels[0].Name)
	}
}
