// Package gen holds the generator-collaborator boundary: the pipeline asks
// an injected Generator for raw text per sample and stays agnostic about how
// the text was produced. Backends are strategies passed in by the caller,
// never a hardcoded registry.
package gen

import "context"

// Generator supplies one raw completion per call for the given prompt.
type Generator interface {
	// Sample returns the raw model output for one generation attempt.
	Sample(ctx context.Context, prompt string) (string, error)
	// Name identifies the backend in logs and stored records.
	Name() string
}

// Static replays a fixed list of raw samples in order, cycling when
// exhausted. Used in tests and when re-processing cached generations.
type Static struct {
	Samples []string
	next    int
}

func (s *Static) Sample(ctx context.Context, prompt string) (string, error) {
	if len(s.Samples) == 0 {
		return "", nil
	}
	out := s.Samples[s.next%len(s.Samples)]
	s.next++
	return out, nil
}

func (s *Static) Name() string { return "static" }
