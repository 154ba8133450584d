package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AnuParkACar/libro-replication/internal/pipeline"
	"github.com/AnuParkACar/libro-replication/internal/types"
)

var (
	runProject     string
	runBugNumber   string
	runTitle       string
	runDescription string
	runReportFile  string
)

// runCmd processes a single bug
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full pipeline for one bug",
	Long: `Runs one bug end to end: sample candidate tests, inject each into
the checkout, execute on both revisions, classify and rank.

The bug report comes either from --report (a YAML file holding one
report) or from the --project/--bug/--title/--description flags.`,
	RunE: runOneBug,
}

func init() {
	runCmd.Flags().StringVar(&runProject, "project", "", "project identifier (e.g. Lang)")
	runCmd.Flags().StringVar(&runBugNumber, "bug", "", "bug number within the project")
	runCmd.Flags().StringVar(&runTitle, "title", "", "bug report title")
	runCmd.Flags().StringVar(&runDescription, "description", "", "bug report body")
	runCmd.Flags().StringVar(&runReportFile, "report", "", "YAML file holding the bug report")
}

func loadReport() (types.BugReport, error) {
	var report types.BugReport
	if runReportFile != "" {
		data, err := os.ReadFile(runReportFile)
		if err != nil {
			return report, fmt.Errorf("reading report: %w", err)
		}
		if err := yaml.Unmarshal(data, &report); err != nil {
			return report, fmt.Errorf("parsing report: %w", err)
		}
	} else {
		report = types.BugReport{
			Project:     runProject,
			BugNumber:   runBugNumber,
			Title:       runTitle,
			Description: runDescription,
		}
	}
	if report.Project == "" || report.BugNumber == "" {
		return report, fmt.Errorf("a bug needs at least --project and --bug (or a --report file)")
	}
	if report.ID == "" {
		report.ID = report.Project + "-" + report.BugNumber
	}
	return report, nil
}

func runOneBug(cmd *cobra.Command, args []string) error {
	report, err := loadReport()
	if err != nil {
		return err
	}
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	p, st, err := newPipeline(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	res, err := p.RunBug(ctx, report)
	if err != nil {
		return err
	}
	printResult(res)
	return nil
}

func printResult(res *pipeline.BugResult) {
	m := res.Metrics
	fmt.Printf("%s: %d sampled, %d extracted, %d executed, %d BRT, %d FIB\n",
		res.Report.ID, m.Generated, m.Extracted, m.Executed, m.BRTs, m.FIBs)
	if len(res.Ranked) == 0 {
		fmt.Println("no candidate failed on the buggy revision")
		return
	}
	fmt.Println("ranked candidates:")
	for i, c := range res.Ranked {
		fmt.Printf("%3d. [%s] %s.%s (%s: %s)\n",
			i+1, c.Classification,
			fullClass(c), c.MethodName,
			c.ErrorKind, firstLine(c.ErrorMessage))
	}
}

func fullClass(c *types.Candidate) string {
	if c.InjectedPackage == "" {
		return c.InjectedClass
	}
	return c.InjectedPackage + "." + c.InjectedClass
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
