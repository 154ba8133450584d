package gen

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/AnuParkACar/libro-replication/internal/types"
)

// Example is one few-shot (report, test) pair shown before the target bug.
type Example struct {
	Project     string `json:"project"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Test        string `json:"test"`
}

// PromptBuilder formats the generation prompt: few-shot examples, the target
// report, and an open ```java block ending in the "public void test" stub
// the model is expected to complete.
type PromptBuilder struct {
	NumExamples int
	examples    []Example
}

// NewPromptBuilder loads few-shot examples from a JSON file; examplesFile may
// be empty for a zero-shot prompt.
func NewPromptBuilder(numExamples int, examplesFile string) (*PromptBuilder, error) {
	pb := &PromptBuilder{NumExamples: numExamples}
	if examplesFile == "" || numExamples == 0 {
		return pb, nil
	}
	data, err := os.ReadFile(examplesFile)
	if err != nil {
		return nil, fmt.Errorf("reading examples: %w", err)
	}
	if err := json.Unmarshal(data, &pb.examples); err != nil {
		return nil, fmt.Errorf("parsing examples: %w", err)
	}
	return pb, nil
}

// Build returns the prompt for one bug report. Examples from the same
// project are preferred when enough exist; otherwise the first N are used,
// keeping prompts deterministic.
func (pb *PromptBuilder) Build(report types.BugReport) string {
	var b strings.Builder
	for _, ex := range pb.selectExamples(report.Project) {
		b.WriteString("# " + ex.Title + "\n")
		b.WriteString("## Description\n" + ex.Description + "\n\n")
		b.WriteString("## Reproduction\n")
		b.WriteString(">Provide a self-contained example that reproduces this issue.\n")
		b.WriteString("```java\n" + ex.Test + "\n```\n\n")
	}
	if pb.NumExamples > 0 && len(pb.examples) > 0 {
		b.WriteString("---\n\n")
	}
	b.WriteString("# " + report.Title + "\n")
	b.WriteString("## Description\n" + report.Description + "\n\n")
	b.WriteString("## Reproduction\n")
	b.WriteString(">Provide a self-contained example that reproduces this issue.\n")
	b.WriteString("```java\npublic void test")
	return b.String()
}

func (pb *PromptBuilder) selectExamples(project string) []Example {
	if pb.NumExamples <= 0 || len(pb.examples) == 0 {
		return nil
	}
	var same []Example
	for _, ex := range pb.examples {
		if ex.Project == project {
			same = append(same, ex)
		}
	}
	if len(same) >= pb.NumExamples {
		return same[:pb.NumExamples]
	}
	if len(pb.examples) >= pb.NumExamples {
		return pb.examples[:pb.NumExamples]
	}
	return pb.examples
}
