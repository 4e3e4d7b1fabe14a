package cmd

import (
	"context"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/logger"
	"github.com/sridarsri23/BrainBridge/internal/synth"
)

var synthesizeCmd = &cobra.Command{
	Use:   "synthesize <candidate-id>",
	Short: "Build or refresh a candidate's cognitive profile from quiz results and history",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		synthesize(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(synthesizeCmd)

	synthesizeCmd.Flags().StringP("quiz-results", "q", "", "YAML or JSON file with quiz results keyed by quiz id")
	synthesizeCmd.Flags().StringP("behavior", "b", "", "YAML or JSON file with behavioral metrics")
	synthesizeCmd.Flags().StringP("history", "p", "", "YAML or JSON file with past work or academic data")
	synthesizeCmd.Flags().StringP("work-setup", "w", "", "record the candidate's preferred work setup, e.g. remote or on-site")
}

func synthesize(cmd *cobra.Command, candidateID string) {
	ctx := context.Background()

	d := mustDeps(ctx, true)
	defer d.close()

	var in synth.Input
	for flag, dst := range map[string]*map[string]any{
		"quiz-results": &in.QuizResults,
		"behavior":     &in.BehaviorData,
		"history":      &in.PastData,
	} {
		path, _ := cmd.Flags().GetString(flag)
		data, err := readMap(path)
		if err != nil {
			d.logger.Fatal("reading synthesis input", zap.String("flag", flag), zap.Error(err))
		}
		*dst = data
	}

	if setup, _ := cmd.Flags().GetString("work-setup"); strings.TrimSpace(setup) != "" {
		if err := d.store.SetWorkSetup(ctx, candidateID, setup); err != nil {
			d.logger.Fatal("recording work setup", zap.Error(err))
		}
	}

	analysis := synthesizeAndStore(ctx, d, candidateID, in)

	if err := printJSON(analysis); err != nil {
		d.logger.Fatal("printing the analysis", zap.Error(err))
	}
}

// synthesizeAndStore merges a real analysis into the store. Placeholders are returned but never stored.
func synthesizeAndStore(ctx context.Context, d *deps, candidateID string, in synth.Input) *synth.Analysis {
	s := synth.New(d.reasoner, synth.WithLogger(d.logger), synth.WithMetrics(d.metrics))
	analysis := s.SynthesizeOrFallback(ctx, in)

	update, ok := analysis.Update()
	if !ok {
		d.logger.Info("profile not updated",
			zap.String(logger.FieldCandidate, candidateID),
			zap.String("reason", "placeholder analysis"),
		)
		return analysis
	}

	p, err := d.store.Merge(ctx, candidateID, update)
	if err != nil {
		d.logger.Fatal("storing the profile", zap.String(logger.FieldCandidate, candidateID), zap.Error(err))
	}

	d.logger.Info("profile updated",
		zap.String(logger.FieldCandidate, candidateID),
		zap.String("profile_id", p.ProfileID),
		zap.Float64("confidence", p.ConfidenceScore),
	)
	return analysis
}
