package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AnuParkACar/libro-replication/internal/rank"
	"github.com/AnuParkACar/libro-replication/internal/store"
	"github.com/AnuParkACar/libro-replication/internal/types"
)

var rankThreshold int

// rankCmd re-ranks stored candidates without re-running anything
var rankCmd = &cobra.Command{
	Use:   "rank <bug-id>",
	Short: "Re-rank a finished bug's candidates from the result database",
	Long: `Loads a bug's stored candidates and re-runs clustering and ranking,
so the agreement threshold can be tuned without repeating any checkout,
compilation or test execution.`,
	Args: cobra.ExactArgs(1),
	RunE: rerank,
}

func init() {
	rankCmd.Flags().IntVar(&rankThreshold, "threshold", -1, "agreement threshold (overrides config)")
}

func rerank(cmd *cobra.Command, args []string) error {
	bugID := args[0]
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if rankThreshold >= 0 {
		cfg.Ranking.AgreementThreshold = rankThreshold
	}

	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		return err
	}
	defer st.Close()

	bug, err := st.GetBug(bugID)
	if err != nil {
		return err
	}
	cands, err := st.ListCandidates(bugID)
	if err != nil {
		return err
	}

	var failed []*types.Candidate
	for _, c := range cands {
		if c.Classification.FailedOnBuggy() {
			failed = append(failed, c)
		}
	}
	if len(failed) == 0 {
		fmt.Printf("%s: no stored candidate failed on the buggy revision\n", bugID)
		return nil
	}

	ranker := rank.New(cfg.Ranking.AgreementThreshold, logger)
	ranked := ranker.Rank(failed, bug.Report)
	clusters := ranker.Clusters(failed)

	fmt.Printf("%s: %d failing candidates in %d clusters\n", bugID, len(failed), len(clusters))
	if len(ranked) == 0 {
		fmt.Println("all clusters fell below the agreement threshold")
		return nil
	}
	for i, c := range ranked {
		fmt.Printf("%3d. [%s] %s.%s (%s: %s)\n",
			i+1, c.Classification,
			fullClass(c), c.MethodName,
			c.ErrorKind, firstLine(c.ErrorMessage))
	}
	return nil
}
