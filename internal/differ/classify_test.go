package differ

import (
	"testing"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

func rec(compiled bool, outcome types.Outcome) *types.ExecutionRecord {
	return &types.ExecutionRecord{Compiled: compiled, Outcome: outcome}
}

func TestClassifyTable(t *testing.T) {
	tests := []struct {
		name  string
		buggy *types.ExecutionRecord
		fixed *types.ExecutionRecord
		want  types.Classification
	}{
		{"buggy compile error", rec(false, types.OutcomeCompileError), rec(true, types.OutcomePassed), types.ClassCompileErrorBuggy},
		{"buggy nil record", nil, rec(true, types.OutcomePassed), types.ClassCompileErrorBuggy},
		{"fixed compile error", rec(true, types.OutcomeFailed), rec(false, types.OutcomeCompileError), types.ClassCompileErrorFixed},
		{"fail then pass is BRT", rec(true, types.OutcomeFailed), rec(true, types.OutcomePassed), types.ClassBRT},
		{"fail then fail is FIB", rec(true, types.OutcomeFailed), rec(true, types.OutcomeFailed), types.ClassFIB},
		{"fail then timeout is FIB", rec(true, types.OutcomeFailed), rec(true, types.OutcomeTimedOut), types.ClassFIB},
		{"pass on buggy", rec(true, types.OutcomePassed), rec(true, types.OutcomePassed), types.ClassNotReproducing},
		{"pass on buggy fail on fixed", rec(true, types.OutcomePassed), rec(true, types.OutcomeFailed), types.ClassNotReproducing},
		{"timeout on buggy", rec(true, types.OutcomeTimedOut), rec(true, types.OutcomePassed), types.ClassNotReproducing},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.buggy, tt.fixed); got != tt.want {
				t.Errorf("Classify() = %v, want %v", got, tt.want)
			}
		})
	}
}

// Every combination of compiled/outcome on both sides must map to exactly one
// defined taxonomy value.
func TestClassifyTotality(t *testing.T) {
	outcomes := []types.Outcome{
		types.OutcomePassed, types.OutcomeFailed,
		types.OutcomeTimedOut, types.OutcomeCompileError,
	}
	defined := map[types.Classification]bool{
		types.ClassBRT:               true,
		types.ClassFIB:               true,
		types.ClassNotReproducing:    true,
		types.ClassCompileErrorBuggy: true,
		types.ClassCompileErrorFixed: true,
	}
	for _, bc := range []bool{true, false} {
		for _, bo := range outcomes {
			for _, fc := range []bool{true, false} {
				for _, fo := range outcomes {
					got := Classify(rec(bc, bo), rec(fc, fo))
					if !defined[got] {
						t.Errorf("Classify(%v/%v, %v/%v) = %q not in taxonomy", bc, bo, fc, fo, got)
					}
				}
			}
		}
	}
}
