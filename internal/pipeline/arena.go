package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/google/uuid"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

var unsafePathRe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// arena hands out isolated checkout directories under one per-bug root, so
// concurrent candidates never share a working tree. Cleanup removes the whole
// root unless checkouts are kept for debugging.
type arena struct {
	root string
	keep bool
}

func newArena(workDir, bugID string, keep bool) (*arena, error) {
	safe := unsafePathRe.ReplaceAllString(bugID, "_")
	root := filepath.Join(workDir, fmt.Sprintf("libro-%s-%s", safe, uuid.NewString()[:8]))
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("create arena: %w", err)
	}
	return &arena{root: root, keep: keep}, nil
}

// dir creates and returns the checkout directory for one (label, revision)
// pair. Labels are candidate IDs, plus "ref" for the shared reference tree.
func (a *arena) dir(label string, rev types.Revision) (string, error) {
	safe := unsafePathRe.ReplaceAllString(label, "_")
	d := filepath.Join(a.root, safe+"-"+string(rev))
	if err := os.MkdirAll(d, 0755); err != nil {
		return "", fmt.Errorf("create checkout dir: %w", err)
	}
	return d, nil
}

// discard removes one candidate's checkout directories as soon as the
// candidate is done, keeping peak disk bounded by the worker count.
func (a *arena) discard(label string) error {
	if a.keep {
		return nil
	}
	safe := unsafePathRe.ReplaceAllString(label, "_")
	for _, rev := range []types.Revision{types.RevisionBuggy, types.RevisionFixed} {
		if err := os.RemoveAll(filepath.Join(a.root, safe+"-"+string(rev))); err != nil {
			return err
		}
	}
	return nil
}

func (a *arena) cleanup() error {
	if a.keep {
		return nil
	}
	return os.RemoveAll(a.root)
}
