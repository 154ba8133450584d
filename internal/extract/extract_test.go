package extract

import (
	"strings"
	"testing"
)

const validUnit = `public void testIsNumber() {
    assertFalse(NumberUtils.isNumber(" "));
    assertTrue(NumberUtils.isNumber("12.3"));
}`

func TestUnitBasic(t *testing.T) {
	raw := "Here is a reproduction:\n```java\n" + validUnit + "\n```"
	unit, ok := Unit(raw, "")
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if unit != validUnit {
		t.Errorf("unit mismatch:\ngot:  %q\nwant: %q", unit, validUnit)
	}
}

func TestUnitStripsPrompt(t *testing.T) {
	prompt := "# Some bug\n## Reproduction\n```java\npublic void testOld() { fail(); }\n```\n"
	raw := prompt + "\n" + validUnit
	unit, ok := Unit(raw, prompt)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if strings.Contains(unit, "testOld") {
		t.Errorf("prompt example leaked into unit: %q", unit)
	}
}

func TestUnitTakesLastSignature(t *testing.T) {
	raw := "public void testFirst() { assertEquals(1, 1); }\n\n" + validUnit
	unit, ok := Unit(raw, "")
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if !strings.Contains(unit, "testIsNumber") {
		t.Errorf("expected last method, got %q", unit)
	}
}

func TestUnitGluesPromptStub(t *testing.T) {
	prompt := "## Reproduction\n```java\npublic void test"
	raw := "Whitespace() {\n    assertFalse(NumberUtils.isNumber(\" \"));\n}"
	unit, ok := Unit(raw, prompt)
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if MethodName(unit) != "testWhitespace" {
		t.Errorf("method name = %q, want testWhitespace", MethodName(unit))
	}
}

func TestUnitFailures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"no signature", "the bug happens when parsing whitespace"},
		{"truncated braces", "public void testTruncated() {\n    if (x) {\n        fail();"},
		{"degenerate body", "public void testEmpty() { }"},
		{"tiny body", "public void testTiny() { ; }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if unit, ok := Unit(tt.raw, ""); ok {
				t.Errorf("expected failure, got %q", unit)
			}
		})
	}
}

func TestUnitNestedBraces(t *testing.T) {
	raw := `public void testLoop() {
    for (int i = 0; i < 3; i++) {
        if (i == 2) { assertTrue(flags[i]); }
    }
}
// trailing commentary from the model } } }`
	unit, ok := Unit(raw, "")
	if !ok {
		t.Fatal("expected extraction to succeed")
	}
	if strings.Contains(unit, "commentary") {
		t.Errorf("unit overran the closing brace: %q", unit)
	}
	if strings.Count(unit, "{") != strings.Count(unit, "}") {
		t.Errorf("unbalanced unit: %q", unit)
	}
}

func TestUnitIdempotent(t *testing.T) {
	raw := "noise before\n" + validUnit + "\nnoise after"
	first, ok := Unit(raw, "")
	if !ok {
		t.Fatal("first extraction failed")
	}
	second, ok := Unit(first, "")
	if !ok {
		t.Fatal("second extraction failed")
	}
	if first != second {
		t.Errorf("extraction not idempotent:\nfirst:  %q\nsecond: %q", first, second)
	}
}

func TestMethodName(t *testing.T) {
	if got := MethodName(validUnit); got != "testIsNumber" {
		t.Errorf("MethodName = %q, want testIsNumber", got)
	}
	if got := MethodName("void helper() {}"); got != "" {
		t.Errorf("MethodName on non-test = %q, want empty", got)
	}
}
