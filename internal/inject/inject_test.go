package inject

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const junit4Host = `package org.acme;

import org.junit.Test;
import static org.junit.Assert.*;

public class NumberUtilsTest {

    @Test
    public void testExisting() {
        assertTrue(NumberUtils.isNumber("1"));
    }
}
`

func writeCheckout(t *testing.T) (root, hostPath string) {
	t.Helper()
	root = t.TempDir()
	hostPath = filepath.Join(root, "src", "test", "java", "org", "acme", "NumberUtilsTest.java")
	require.NoError(t, os.MkdirAll(filepath.Dir(hostPath), 0755))
	require.NoError(t, os.WriteFile(hostPath, []byte(junit4Host), 0644))

	// Two source files agree on MathUtils' package, one disagrees: the
	// plurality import must win.
	srcDir := filepath.Join(root, "src", "main", "java", "org", "acme")
	require.NoError(t, os.MkdirAll(srcDir, 0755))
	files := map[string]string{
		"A.java": "package org.acme;\nimport org.acme.math.MathUtils;\nclass A {}",
		"B.java": "package org.acme;\nimport org.acme.math.MathUtils;\nclass B {}",
		"C.java": "package org.acme;\nimport org.other.MathUtils;\nclass C {}",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(srcDir, name), []byte(content), 0644))
	}
	return root, hostPath
}

func TestDetectConvention(t *testing.T) {
	tests := []struct {
		name string
		host string
		want Convention
	}{
		{"junit5", "import org.junit.jupiter.api.Test;", ConventionJUnit5},
		{"junit4", "import org.junit.Test;", ConventionJUnit4},
		{"junit3", "import junit.framework.TestCase;", ConventionJUnit3},
		{"unmarked defaults to junit4", "public class FooTest {}", ConventionJUnit4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DetectConvention(tt.host))
		})
	}
}

func TestReferencedTypes(t *testing.T) {
	unit := `public void testX() {
    Fraction f = Fraction.getFraction(1, 2);
    Thing t = new Thing("a");
    assertEquals(0.5, f.doubleValue(), 0.0);
}`
	got := ReferencedTypes(unit)
	assert.Equal(t, []string{"Fraction", "Thing"}, got)
}

func TestInjectAddsImportAndMethod(t *testing.T) {
	root, hostPath := writeCheckout(t)
	unit := `@Test
public void testMathUtils() {
    assertEquals(2, MathUtils.gcd(4, 6));
}`

	res, err := New(nil).Inject(unit, hostPath, root, "cand_0")
	require.NoError(t, err)

	content, err := os.ReadFile(res.ModifiedPath)
	require.NoError(t, err)
	text := string(content)

	assert.Contains(t, text, "import org.acme.math.MathUtils;", "plurality import must win")
	assert.Contains(t, text, "testMathUtils")
	assert.Contains(t, text, "class NumberUtilsTest_cand_0")
	assert.Equal(t, "org.acme.NumberUtilsTest_cand_0", res.FullClassName())
	assert.Empty(t, res.Unresolved)

	// Method lands inside the class body: the final closing brace follows it.
	methodIdx := strings.Index(text, "testMathUtils")
	lastBrace := strings.LastIndex(text, "}")
	assert.Less(t, methodIdx, lastBrace)

	// Original host untouched.
	orig, err := os.ReadFile(hostPath)
	require.NoError(t, err)
	assert.Equal(t, junit4Host, string(orig))
}

func TestInjectUnresolvedSymbolIsNotAnError(t *testing.T) {
	root, hostPath := writeCheckout(t)
	unit := `public void testGhost() {
    assertEquals(1, GhostUtils.one());
}`

	res, err := New(nil).Inject(unit, hostPath, root, "cand_1")
	require.NoError(t, err, "unresolved symbols are left for the compiler")
	assert.Equal(t, []string{"GhostUtils"}, res.Unresolved)
}

func TestInjectSkipsCoveredAndBuiltinSymbols(t *testing.T) {
	root, hostPath := writeCheckout(t)
	unit := `public void testCovered() {
    String s = String.valueOf(MathUtils.gcd(1, 2));
    assertNotNull(s);
}`

	res, err := New(nil).Inject(unit, hostPath, root, "cand_2")
	require.NoError(t, err)
	for _, imp := range res.AddedImports {
		assert.NotContains(t, imp, "String", "java.lang types never get imports")
	}
	assert.Empty(t, res.Unresolved)
}

func TestInjectConcurrentCandidatesDoNotCollide(t *testing.T) {
	root, hostPath := writeCheckout(t)
	unit := `public void testA() { assertTrue(NumberUtils.isNumber("2")); }`

	r1, err := New(nil).Inject(unit, hostPath, root, "cand_a")
	require.NoError(t, err)
	r2, err := New(nil).Inject(unit, hostPath, root, "cand_b")
	require.NoError(t, err)
	assert.NotEqual(t, r1.ModifiedPath, r2.ModifiedPath)
}

func TestInjectMalformedHost(t *testing.T) {
	root := t.TempDir()
	unit := `public void testX() { assertTrue(true == true); }`

	noClass := filepath.Join(root, "NoClass.java")
	require.NoError(t, os.WriteFile(noClass, []byte("package p;\n// nothing here\n"), 0644))
	_, err := New(nil).Inject(unit, noClass, root, "c")
	assert.ErrorIs(t, err, ErrNoClassDecl)

	unbalanced := filepath.Join(root, "BadTest.java")
	require.NoError(t, os.WriteFile(unbalanced, []byte("package p;\npublic class BadTest {\n  void x() {\n"), 0644))
	_, err = New(nil).Inject(unit, unbalanced, root, "c")
	assert.ErrorIs(t, err, ErrUnbalancedHost)
}
