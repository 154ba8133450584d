package differ

import "github.com/AnuParkACar/libro-replication/internal/types"

// Classify maps a (buggy, fixed) record pair to the verdict taxonomy. It is
// pure and total:
//
//	buggy not compiled            -> CompileErrorBuggy
//	buggy compiled, fixed not     -> CompileErrorFixed
//	buggy Failed, fixed Passed    -> BRT
//	buggy Failed, fixed otherwise -> FIB
//	buggy Passed or TimedOut      -> NotReproducing
//
// Timeouts are terminal but count as non-reproducing: a hang proves nothing
// about the fix.
func Classify(buggy, fixed *types.ExecutionRecord) types.Classification {
	if buggy == nil || !buggy.Compiled {
		return types.ClassCompileErrorBuggy
	}
	if fixed == nil || !fixed.Compiled {
		return types.ClassCompileErrorFixed
	}
	if buggy.Outcome != types.OutcomeFailed {
		return types.ClassNotReproducing
	}
	if fixed.Outcome == types.OutcomePassed {
		return types.ClassBRT
	}
	return types.ClassFIB
}
