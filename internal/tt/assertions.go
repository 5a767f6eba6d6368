package tt

import (
	"testing"

	"github.com/pmezard/go-difflib/difflib"
)

// AssertTextEqual compares two multi-line strings and, on mismatch, fails
// the test with a unified diff. Plain equality assertions are unreadable for
// generated JSON documents; a diff shows exactly which line diverged.
func AssertTextEqual(t *testing.T, expected, actual string) {
	t.Helper()
	if expected == actual {
		return
	}

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expected),
		B:        difflib.SplitLines(actual),
		FromFile: "expected",
		ToFile:   "actual",
		Context:  3,
	})
	if err != nil {
		t.Fatalf("failed to diff output: %v", err)
	}
	t.Errorf("output mismatch:\n%s", diff)
}
