package gen

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

var report = types.BugReport{
	ID:          "Lang-51",
	Project:     "Lang",
	Title:       "isNumber returns true for whitespace",
	Description: "NumberUtils.isNumber(\" \") should return false.",
}

func TestBuildZeroShot(t *testing.T) {
	pb, err := NewPromptBuilder(0, "")
	require.NoError(t, err)

	prompt := pb.Build(report)
	assert.Contains(t, prompt, report.Title)
	assert.Contains(t, prompt, report.Description)
	assert.True(t, strings.HasSuffix(prompt, "public void test"),
		"prompt must end with the completion stub")
	assert.NotContains(t, prompt, "---", "zero-shot prompt has no example separator")
}

func TestBuildFewShotPrefersSameProject(t *testing.T) {
	examples := []Example{
		{Project: "Math", Title: "math bug", Description: "d", Test: "public void testMath() { fail(); }"},
		{Project: "Lang", Title: "lang bug one", Description: "d", Test: "public void testLang1() { fail(); }"},
		{Project: "Lang", Title: "lang bug two", Description: "d", Test: "public void testLang2() { fail(); }"},
	}
	path := filepath.Join(t.TempDir(), "examples.json")
	data, err := json.Marshal(examples)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(path, data, 0644))

	pb, err := NewPromptBuilder(2, path)
	require.NoError(t, err)

	prompt := pb.Build(report)
	assert.Contains(t, prompt, "lang bug one")
	assert.Contains(t, prompt, "lang bug two")
	assert.NotContains(t, prompt, "math bug")
	assert.Contains(t, prompt, "---")
}

func TestStaticGeneratorCycles(t *testing.T) {
	g := &Static{Samples: []string{"a", "b"}}
	ctx := context.Background()
	for _, want := range []string{"a", "b", "a"} {
		got, err := g.Sample(ctx, "prompt")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}
