package host

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func newCheckout(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "test", "java", "org", "acme", "NumberUtilsTest.java"),
		`package org.acme;
import org.junit.Test;
public class NumberUtilsTest {
    @Test
    public void testIsNumber() { assertTrue(NumberUtils.isNumber("1")); }
}`)
	writeFile(t, filepath.Join(root, "src", "test", "java", "org", "acme", "StringUtilsTest.java"),
		`package org.acme;
import org.junit.Test;
public class StringUtilsTest {
    @Test
    public void testJoin() { assertEquals("a,b", StringUtils.join(",", "a", "b")); }
}`)
	writeFile(t, filepath.Join(root, "src", "main", "java", "org", "acme", "NumberUtils.java"),
		`package org.acme;
public class NumberUtils { public static boolean isNumber(String s) { return true; } }`)
	return root
}

func TestTokenizeDropsKeywords(t *testing.T) {
	got := Tokenize(`public void testX() { return new Foo(bar); }`)
	want := []string{"testX", "Foo", "bar"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Tokenize mismatch (-want +got):\n%s", diff)
	}
}

func TestFindTestFiles(t *testing.T) {
	root := newCheckout(t)
	files, err := FindTestFiles(root)
	if err != nil {
		t.Fatalf("FindTestFiles: %v", err)
	}
	if len(files) != 2 {
		t.Fatalf("got %d test files, want 2: %v", len(files), files)
	}
	for _, f := range files {
		if filepath.Base(f) == "NumberUtils.java" {
			t.Errorf("non-test file recognized: %s", f)
		}
	}
}

func TestSelectPrefersOverlappingHost(t *testing.T) {
	root := newCheckout(t)
	sel, err := NewSelector(root, nil)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}

	unit := `public void testWhitespace() { assertFalse(NumberUtils.isNumber(" ")); }`
	got, err := sel.Select(unit)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if filepath.Base(got.Path) != "NumberUtilsTest.java" {
		t.Errorf("selected %s, want NumberUtilsTest.java", got.Path)
	}
	if got.Score <= 0 || got.Score > 1 {
		t.Errorf("score %v out of (0, 1]", got.Score)
	}
}

func TestSelectDeterministic(t *testing.T) {
	root := newCheckout(t)
	unit := `public void testWhitespace() { assertFalse(NumberUtils.isNumber(" ")); }`

	sel1, err := NewSelector(root, nil)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	first, err := sel1.Select(unit)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	sel2, err := NewSelector(root, nil)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	second, err := sel2.Select(unit)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if first != second {
		t.Errorf("selection not deterministic: %+v vs %+v", first, second)
	}
}

func TestSelectSubsetScoresOne(t *testing.T) {
	root := newCheckout(t)
	sel, err := NewSelector(root, nil)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	// Every token already occurs in NumberUtilsTest.java.
	got, err := sel.Select(`public void testIsNumber() { assertTrue(NumberUtils.isNumber("1")); }`)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got.Score != 1.0 {
		t.Errorf("score = %v, want 1.0", got.Score)
	}
}

func TestSelectNoOverlapIsFailure(t *testing.T) {
	root := newCheckout(t)
	sel, err := NewSelector(root, nil)
	if err != nil {
		t.Fatalf("NewSelector: %v", err)
	}
	if _, err := sel.Select(`public void zzz() { qqqq(wwww); }`); err != ErrNoHost {
		t.Errorf("err = %v, want ErrNoHost", err)
	}
}

func TestSelectorNoTestFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "src", "main", "java", "Foo.java"), "public class Foo {}")
	if _, err := NewSelector(root, nil); err != ErrNoTestFiles {
		t.Errorf("err = %v, want ErrNoTestFiles", err)
	}
}
