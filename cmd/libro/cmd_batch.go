package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnuParkACar/libro-replication/internal/pipeline"
)

// batchCmd processes a list of bugs with resume support
var batchCmd = &cobra.Command{
	Use:   "batch <bugs.yaml>",
	Short: "Run the pipeline over a YAML list of bugs",
	Long: `Runs every bug in the list, one bug at a time. Bugs already
finished in the result database are skipped, so an interrupted batch
picks up where it stopped when re-run with the same --db.`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func runBatch(cmd *cobra.Command, args []string) error {
	bugs, err := pipeline.LoadBugs(args[0])
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

	sum, err := p.RunBatch(ctx, bugs)
	if sum != nil {
		fmt.Printf("batch: %d run, %d skipped, %d failed, %d reproduced (of %d bugs)\n",
			sum.Run, sum.Skipped, sum.Failed, sum.Reproduced, len(bugs))
		for _, res := range sum.Results {
			printResult(res)
		}
	}
	return err
}
