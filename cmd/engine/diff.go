package main

import (
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"hiringscan-engine/internal/ioformats"
)

func newDiffCmd(a *app) *cobra.Command {
	var jobsPath, outDir, runID string
	cmd := &cobra.Command{
		Use:   "diff",
		Short: "Classify a jobs.jsonl against the known-jobs store and write diff.xlsx",
		RunE: func(cmd *cobra.Command, _ []string) error {
			jobs, err := ioformats.ReadJobsJSONL(jobsPath)
			if err != nil {
				return err
			}
			if runID == "" {
				runID = uuid.NewString()
			}
			log := a.log.With(zap.String("run_id", runID))
			return a.diffAndWrite(cmd.Context(), log, jobs, outDir, runID)
		},
	}
	cmd.Flags().StringVar(&jobsPath, "jobs", "out/"+ioformats.JobsJSONL, "postings to classify")
	cmd.Flags().StringVar(&outDir, "out", "out", "output directory")
	cmd.Flags().StringVar(&runID, "run-id", "", "run id recorded in the store (default: random uuid)")
	return cmd
}
