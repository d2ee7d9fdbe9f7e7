package proc

import (
	"os"
	"testing"
)

func TestNameSelf(t *testing.T) {
	t.Parallel()
	name, err := Name(os.Getpid())
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name == "" {
		t.Error("expected a non-empty process name")
	}
}

func TestStartTimeSelf(t *testing.T) {
	t.Parallel()
	st, err := StartTime(os.Getpid())
	if err != nil {
		t.Fatalf("StartTime: %v", err)
	}
	if st <= 0 {
		t.Errorf("expected a positive start time, got %d", st)
	}
}

func TestMatchesSelf(t *testing.T) {
	t.Parallel()
	pid := os.Getpid()
	name, err := Name(pid)
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	st, err := StartTime(pid)
	if err != nil {
		t.Fatalf("StartTime: %v", err)
	}

	if !Matches(pid, name, st) {
		t.Error("self identity should match")
	}
	if Matches(pid, name, st+1) {
		t.Error("wrong start time should not match")
	}
	// The recorded name can drift when a launcher execs the browser in
	// place; a matching start time decides on its own.
	if !Matches(pid, "definitely-not-"+name, st) {
		t.Error("matching start time should override a drifted name")
	}
}

func TestMatchesNameFallback(t *testing.T) {
	t.Parallel()
	pid := os.Getpid()
	name, err := Name(pid)
	if err != nil {
		t.Fatalf("Name: %v", err)
	}

	if !Matches(pid, name, 0) {
		t.Error("name alone should match when no start time was recorded")
	}
	if Matches(pid, "definitely-not-"+name, 0) {
		t.Error("wrong name should not match without a start time")
	}
}
