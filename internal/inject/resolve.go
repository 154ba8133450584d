package inject

import (
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
)

// Resolution is the per-symbol outcome of dependency lookup. Resolution is
// best-effort: an unresolved symbol is a recorded fact, never an error;
// the compile step downstream decides whether it mattered.
type Resolution struct {
	Symbol   string
	Import   string // full import statement, e.g. "import org.acme.Foo;"
	Resolved bool
}

var (
	newTypeRe  = regexp.MustCompile(`\bnew\s+([A-Z]\w+)\s*\(`)
	memberRe   = regexp.MustCompile(`\b([A-Z]\w+)\.`)
	declTypeRe = regexp.MustCompile(`\b([A-Z]\w+)\s+\w+\s*=`)
)

// javaLang types never need an import.
var javaLang = map[string]struct{}{
	"String": {}, "Integer": {}, "Double": {}, "Float": {}, "Boolean": {},
	"Long": {}, "Short": {}, "Byte": {}, "Character": {}, "Object": {},
	"Math": {}, "System": {}, "Exception": {}, "RuntimeException": {},
	"Thread": {}, "StringBuilder": {}, "StringBuffer": {},
}

// ReferencedTypes extracts the type names a candidate references, via the
// three shapes the generator actually produces: `new Type(`, `Type.member`
// and `Type name =`. Sorted for determinism.
func ReferencedTypes(unit string) []string {
	seen := make(map[string]struct{})
	for _, re := range []*regexp.Regexp{newTypeRe, memberRe, declTypeRe} {
		for _, m := range re.FindAllStringSubmatch(unit, -1) {
			seen[m[1]] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// existingImports extracts the host's import statements, one per line.
func existingImports(hostContent string) []string {
	var imports []string
	for _, line := range strings.Split(hostContent, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "import ") && strings.HasSuffix(line, ";") {
			imports = append(imports, line)
		}
	}
	return imports
}

// ResolveSymbols determines which types the candidate references that the
// host's imports do not already cover, and searches the checkout for the
// most frequently occurring fully-qualified import of each. Multiple source
// files importing the same class vote for its package; the plurality wins,
// ties broken lexically.
func ResolveSymbols(unit, hostContent, checkoutRoot string) []Resolution {
	imports := existingImports(hostContent)

	var out []Resolution
	for _, sym := range ReferencedTypes(unit) {
		if _, ok := javaLang[sym]; ok {
			continue
		}
		covered := false
		for _, imp := range imports {
			if strings.Contains(imp, sym) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		out = append(out, findImport(sym, checkoutRoot))
	}
	return out
}

// findImport scans the checkout's source files for `import x.y.Sym;`
// statements and returns the most common fully-qualified form.
func findImport(symbol, checkoutRoot string) Resolution {
	re := regexp.MustCompile(`import\s+([\w.]+\.` + regexp.QuoteMeta(symbol) + `)\s*;`)
	counts := make(map[string]int)

	_ = filepath.WalkDir(checkoutRoot, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(d.Name(), ".java") {
			return nil
		}
		content, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		for _, m := range re.FindAllStringSubmatch(string(content), -1) {
			counts[m[1]]++
		}
		return nil
	})

	if len(counts) == 0 {
		return Resolution{Symbol: symbol}
	}

	best, bestCount := "", 0
	for fq, n := range counts {
		if n > bestCount || (n == bestCount && fq < best) {
			best, bestCount = fq, n
		}
	}
	return Resolution{Symbol: symbol, Import: "import " + best + ";", Resolved: true}
}
