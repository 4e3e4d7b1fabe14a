package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/job"
	"github.com/sridarsri23/BrainBridge/internal/normalize"
)

var normalizeCmd = &cobra.Command{
	Use:   "normalize <job-file>",
	Short: "Extract cognitive demands and accommodation rules from a job posting",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		normalizeJob(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(normalizeCmd)

	normalizeCmd.Flags().String("context", "", "additional context passed to the analysis, e.g. team size or work environment")
}

func normalizeJob(cmd *cobra.Command, jobFile string) {
	ctx := context.Background()

	d := mustDeps(ctx, false)
	defer d.close()

	data, err := os.ReadFile(jobFile)
	if err != nil {
		d.logger.Fatal("reading the job posting", zap.Error(err))
	}
	posting, err := job.Decode(data)
	if err != nil {
		d.logger.Fatal("parsing the job posting", zap.String("file", jobFile), zap.Error(err))
	}

	extra, _ := cmd.Flags().GetString("context")
	n := normalize.New(d.reasoner, normalize.WithLogger(d.logger), normalize.WithMetrics(d.metrics))

	result := n.Normalize(ctx, normalize.Request{
		Title:       posting.Title,
		Description: joinNonEmpty("\n\n", posting.Description, posting.Requirements),
		Company:     posting.Company,
		Context:     joinNonEmpty("; ", extra, posting.Location, posting.EmploymentType),
	})

	if err := printJSON(result); err != nil {
		d.logger.Fatal("printing the result", zap.Error(err))
	}
}

func joinNonEmpty(sep string, parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, sep)
}
