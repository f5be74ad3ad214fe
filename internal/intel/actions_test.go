package intel

import (
	"testing"

	"github.com/UKHO/kluster/internal/errors"
)

func TestActionOrderingByPriority(t *testing.T) {
	c := NewContainer(newTestLogger(t))

	if err := c.Add(NewAction(ActionProcessing, "inst_a", nil)); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(NewAction(ActionSvp, "inst_a", []string{"/svp/a.svp"})); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(NewAction(ActionConvert, "inst_b", []string{"/raw/b.kmall"})); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(NewAction(ActionNavigation, "inst_a", []string{"/nav/a.out"})); err != nil {
		t.Fatal(err)
	}

	got := c.Actions()
	wantTypes := []ActionType{ActionConvert, ActionSvp, ActionNavigation, ActionProcessing}
	for i, want := range wantTypes {
		if got[i].Type != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].Type)
		}
	}
}

func TestActionOrderingStableWithinPriority(t *testing.T) {
	c := NewContainer(newTestLogger(t))

	// svp and navigation share a priority; insertion order must hold
	if err := c.Add(NewAction(ActionSvp, "inst_a", nil)); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(NewAction(ActionNavigation, "inst_b", nil)); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(NewAction(ActionSvp, "inst_c", nil)); err != nil {
		t.Fatal(err)
	}

	got := c.Actions()
	wantDests := []string{"inst_a", "inst_b", "inst_c"}
	for i, want := range wantDests {
		if got[i].OutputDestination != want {
			t.Fatalf("position %d: expected %s, got %s", i, want, got[i].OutputDestination)
		}
	}
}

func TestActionUniquenessPerTypeAndDestination(t *testing.T) {
	c := NewContainer(newTestLogger(t))

	if err := c.Add(NewAction(ActionConvert, "inst_a", nil)); err != nil {
		t.Fatal(err)
	}
	err := c.Add(NewAction(ActionConvert, "inst_a", nil))
	if !errors.HasCode(err, errors.ConsistencyViolation) {
		t.Fatalf("expected ConsistencyViolation, got %v", err)
	}

	// Same destination, different type is fine
	if err := c.Add(NewAction(ActionProcessing, "inst_a", nil)); err != nil {
		t.Fatalf("different type should be allowed: %v", err)
	}
}

func TestRunningActionImmuneToUpdateAndRemove(t *testing.T) {
	c := NewContainer(newTestLogger(t))

	a := NewAction(ActionNavigation, "inst_a", []string{"/nav/a.out"})
	if err := c.Add(a); err != nil {
		t.Fatal(err)
	}
	a.IsRunning = true

	c.Update(a, []string{"/nav/changed.out"}, nil)
	if a.InputFiles[0] != "/nav/a.out" {
		t.Error("expected running action's inputs untouched")
	}

	c.Remove(a)
	if c.Len() != 1 {
		t.Error("expected running action to survive removal")
	}
}

func TestUpdateFromDestinationsRemovesStale(t *testing.T) {
	c := NewContainer(newTestLogger(t))

	if err := c.Add(NewAction(ActionConvert, "inst_a", nil)); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(NewAction(ActionConvert, "inst_b", nil)); err != nil {
		t.Fatal(err)
	}
	if err := c.Add(NewAction(ActionNavigation, "inst_b", nil)); err != nil {
		t.Fatal(err)
	}

	survivors, dests, err := c.UpdateFromDestinations(ActionConvert, []string{"inst_a"})
	if err != nil {
		t.Fatal(err)
	}
	if len(survivors) != 1 || dests[0] != "inst_a" {
		t.Fatalf("expected only inst_a to survive, got %v", dests)
	}
	if c.Find(ActionConvert, "inst_b") != nil {
		t.Error("expected stale convert action removed")
	}
	if c.Find(ActionNavigation, "inst_b") == nil {
		t.Error("expected other action types untouched")
	}
}

func TestUpdateFromDestinationsKeepsRunning(t *testing.T) {
	c := NewContainer(newTestLogger(t))

	a := NewAction(ActionConvert, "inst_gone", nil)
	if err := c.Add(a); err != nil {
		t.Fatal(err)
	}
	a.IsRunning = true

	survivors, _, err := c.UpdateFromDestinations(ActionConvert, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(survivors) != 1 || survivors[0] != a {
		t.Error("expected running action to survive even with its destination gone")
	}
}

func TestActionAtOutOfRange(t *testing.T) {
	c := NewContainer(newTestLogger(t))
	if c.ActionAt(0) != nil || c.ActionAt(-1) != nil {
		t.Error("expected nil for out-of-range indices")
	}
}

func TestBindToUpdateObserverFires(t *testing.T) {
	c := NewContainer(newTestLogger(t))
	fired := 0
	c.BindToUpdate(func() { fired++ })
	c.notify()
	c.notify()
	if fired != 2 {
		t.Errorf("expected observer fired twice, got %d", fired)
	}
}
