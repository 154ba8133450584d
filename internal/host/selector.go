// Package host selects the existing test file best suited to carry a
// generated test method. Suitability is lexical: the share of the candidate's
// identifier tokens that already occur in the host file. The selector
// tokenizes the checkout's test corpus once and reuses it for every candidate
// of the same bug.
package host

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"go.uber.org/zap"
)

var (
	// ErrNoTestFiles means the checkout holds no recognizable test files at
	// all; no candidate for this bug can be hosted.
	ErrNoTestFiles = errors.New("no test files found in checkout")
	// ErrNoHost means no test file shares a single token with the candidate.
	// A zero-score host is never returned as selected.
	ErrNoHost = errors.New("no host file with positive token overlap")
)

// Score pairs a host file with its overlap score in [0, 1].
type Score struct {
	Path  string
	Score float64
}

var identifierRe = regexp.MustCompile(`[A-Za-z_]\w*`)

// javaKeywords is the stop-set discarded during tokenization. Comparison is
// case-insensitive.
var javaKeywords = map[string]struct{}{
	"public": {}, "private": {}, "protected": {}, "static": {}, "final": {},
	"void": {}, "class": {}, "interface": {}, "extends": {}, "implements": {},
	"return": {}, "if": {}, "else": {}, "for": {}, "while": {}, "do": {},
	"switch": {}, "case": {}, "break": {}, "continue": {}, "new": {},
	"this": {}, "super": {}, "null": {}, "true": {}, "false": {},
	"try": {}, "catch": {}, "finally": {}, "throw": {}, "throws": {},
}

// Tokenize splits code on non-identifier boundaries and drops the language
// keyword stop-set.
func Tokenize(code string) []string {
	raw := identifierRe.FindAllString(code, -1)
	tokens := make([]string, 0, len(raw))
	for _, t := range raw {
		if _, stop := javaKeywords[strings.ToLower(t)]; stop {
			continue
		}
		tokens = append(tokens, t)
	}
	return tokens
}

// testRoots are the candidate test directories checked in order under a
// checkout. A file anywhere under one of these roots qualifies by directory
// convention.
var testRoots = []string{
	filepath.Join("src", "test", "java"),
	"test",
	"tests",
	filepath.Join("src", "test"),
}

// isTestFileName matches the *Test.java / Test*.java naming convention.
func isTestFileName(name string) bool {
	if !strings.HasSuffix(name, ".java") {
		return false
	}
	stem := strings.TrimSuffix(name, ".java")
	return strings.HasSuffix(stem, "Test") || strings.HasPrefix(stem, "Test")
}

// FindTestFiles returns every file under root recognized as a test file,
// deduplicated (nested conventional roots overlap) and sorted for
// determinism.
func FindTestFiles(root string) ([]string, error) {
	seen := make(map[string]struct{})
	for _, rel := range testRoots {
		dir := filepath.Join(root, rel)
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			continue
		}
		err = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
			if err != nil {
				return nil // unreadable subtree: skip, not fatal
			}
			if d.IsDir() {
				return nil
			}
			if isTestFileName(d.Name()) {
				seen[path] = struct{}{}
			}
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", dir, err)
		}
	}

	files := make([]string, 0, len(seen))
	for f := range seen {
		files = append(files, f)
	}
	sort.Strings(files)
	return files, nil
}

// Selector scores candidates against one checkout snapshot. The test corpus
// is read and tokenized once at construction.
type Selector struct {
	root  string
	log   *zap.Logger
	hosts []tokenizedHost
}

type tokenizedHost struct {
	path   string
	tokens map[string]struct{}
}

// NewSelector loads and tokenizes the checkout's test corpus. Returns
// ErrNoTestFiles when the checkout holds no recognizable test files.
func NewSelector(root string, log *zap.Logger) (*Selector, error) {
	if log == nil {
		log = zap.NewNop()
	}
	files, err := FindTestFiles(root)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, ErrNoTestFiles
	}

	s := &Selector{root: root, log: log}
	for _, path := range files {
		content, err := os.ReadFile(path)
		if err != nil {
			log.Debug("skipping unreadable test file", zap.String("path", path), zap.Error(err))
			continue
		}
		set := make(map[string]struct{})
		for _, t := range Tokenize(string(content)) {
			set[t] = struct{}{}
		}
		if len(set) == 0 {
			continue
		}
		s.hosts = append(s.hosts, tokenizedHost{path: path, tokens: set})
	}
	if len(s.hosts) == 0 {
		return nil, ErrNoTestFiles
	}
	log.Debug("tokenized test corpus",
		zap.String("root", root),
		zap.Int("files", len(s.hosts)))
	return s, nil
}

// Select returns the best-scoring host for the candidate unit. The score is
// |tokens(candidate) ∩ tokens(host)| / |tokens(candidate)|: the denominator
// is fixed to the candidate so scores are comparable across hosts. Ties break
// by shortest path, then lexical order.
func (s *Selector) Select(unit string) (Score, error) {
	tokens := Tokenize(unit)
	if len(tokens) == 0 {
		return Score{}, ErrNoHost
	}
	unique := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		unique[t] = struct{}{}
	}

	best := Score{}
	for _, h := range s.hosts {
		overlap := 0
		for t := range unique {
			if _, ok := h.tokens[t]; ok {
				overlap++
			}
		}
		score := float64(overlap) / float64(len(unique))
		if better(Score{Path: h.path, Score: score}, best) {
			best = Score{Path: h.path, Score: score}
		}
	}
	if best.Score <= 0 {
		return Score{}, ErrNoHost
	}
	s.log.Debug("host selected",
		zap.String("host", best.Path),
		zap.Float64("score", best.Score))
	return best, nil
}

func better(a, b Score) bool {
	if b.Path == "" {
		return true
	}
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if len(a.Path) != len(b.Path) {
		return len(a.Path) < len(b.Path)
	}
	return a.Path < b.Path
}
