package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/job"
	"github.com/sridarsri23/BrainBridge/internal/logger"
)

var scoreCmd = &cobra.Command{
	Use:   "score <candidate-id> <job-file>",
	Short: "Compute the match score of one candidate against one job posting",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		jobID, _ := cmd.Flags().GetString("job-id")
		score(args[0], args[1], jobID)
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)

	scoreCmd.Flags().String("job-id", "", "pick this posting from a jobs file instead of reading a single posting")
}

func score(candidateID, jobFile, jobID string) {
	ctx := context.Background()

	d := mustDeps(ctx, true)
	defer d.close()

	posting, err := readPosting(jobFile, jobID)
	if err != nil {
		d.logger.Fatal("reading the job posting", zap.String("file", jobFile), zap.Error(err))
	}

	result := d.engine().ComputeMatchScore(ctx, candidateID, *posting)

	d.logger.Info("match score computed",
		append(logger.MatchFields(candidateID, posting.ID),
			zap.Int("score", result.Score),
			zap.String("branch", string(result.Branch)),
			zap.String("model", result.ModelUsed),
		)...,
	)

	if err := printJSON(result); err != nil {
		d.logger.Fatal("printing the result", zap.Error(err))
	}
}

func readPosting(path, id string) (*job.Posting, error) {
	if id == "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		return job.Decode(data)
	}

	postings, err := job.LoadFile(path)
	if err != nil {
		return nil, err
	}
	posting := postings.FindByID(id)
	if posting == nil {
		return nil, fmt.Errorf("posting %s not found among %d postings", id, postings.Len())
	}
	return posting, nil
}
