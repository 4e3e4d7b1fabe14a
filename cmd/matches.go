package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/sridarsri23/BrainBridge/internal/job"
	"github.com/sridarsri23/BrainBridge/internal/listing"
)

const (
	PromptDetails      = "Show match details"
	PromptDumpToFile   = "Dump matches to file"
	PromptFilterStatus = "Show filter status"
	PromptExit         = "Exit"
	PromptBack         = "back"
)

var errExit = errors.New("exit requested")

var matchesPrompt = promptui.Select{
	Label: "What next?",
	Items: []string{PromptDetails, PromptDumpToFile, PromptFilterStatus, PromptExit},
}

var matchesCmd = &cobra.Command{
	Use:   "matches <candidate-id> <jobs-file>",
	Short: "Score every posting in a file for a candidate and list the matches",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		listMatches(cmd, args[0], args[1])
	},
}

func init() {
	rootCmd.AddCommand(matchesCmd)

	matchesCmd.Flags().Float64P("threshold", "t", 0, "minimum score to list; 0 lists every active posting (preview mode)")
	matchesCmd.Flags().BoolP("include-inactive", "a", false, "also list postings that are no longer active")
	matchesCmd.Flags().BoolP("no-interactive", "y", false, "print the matches and exit without prompting")
	matchesCmd.Flags().StringP("exclude-file", "e", "", "YAML or JSON list of posting ids (or a matches dump) to hide")
	matchesCmd.Flags().String("metrics-file", "", "write match metrics in the node-exporter textfile format")

	viper.BindPFlag("match.threshold", matchesCmd.Flags().Lookup("threshold"))
	viper.BindPFlag("match.exclude-file", matchesCmd.Flags().Lookup("exclude-file"))
}

func listMatches(cmd *cobra.Command, candidateID, jobsFile string) {
	ctx := context.Background()

	d := mustDeps(ctx, true)
	defer d.close()

	postings, err := job.LoadFile(jobsFile)
	if err != nil {
		d.logger.Fatal("loading job postings", zap.Error(err))
	}
	d.logger.Info("loaded job postings", zap.Int("count", postings.Len()))

	if postings.Len() == 0 {
		d.logger.Info("exiting", zap.String("reason", "no postings found"))
		return
	}

	results, err := d.engine().ScoreAll(ctx, candidateID, postings.Items, d.config.Match.Workers)
	if err != nil {
		d.logger.Fatal("scoring postings", zap.Error(err))
	}

	matches, err := listing.Pair(postings.Items, results)
	if err != nil {
		d.logger.Fatal("pairing results", zap.Error(err))
	}

	steps := listing.Default()
	if flagBool(cmd, "include-inactive") {
		listing.DisableByName(steps, "active_only", "include-inactive flag is set")
	}

	matches, err = listing.Run(ctx, &listing.Config{
		Threshold:   d.config.Match.Threshold,
		ExcludeFile: d.config.Match.ExcludeFile,
	}, listing.Deps{Logger: d.logger}, steps, matches)
	if err != nil {
		d.logger.Fatal("filtering matches", zap.Error(err))
	}

	if metricsFile, _ := cmd.Flags().GetString("metrics-file"); metricsFile != "" {
		if err := d.metrics.WriteTextfile(metricsFile); err != nil {
			d.logger.Warn("writing metrics textfile", zap.String("filename", metricsFile), zap.Error(err))
		} else {
			d.logger.Info("metrics written", zap.String("filename", metricsFile))
		}
	}

	if matches.Len() == 0 {
		d.logger.Info("exiting", zap.String("reason", "no matches left after filters"))
		return
	}

	printMatches(matches)

	if flagBool(cmd, "no-interactive") {
		return
	}

	for {
		_, action, err := matchesPrompt.Run()
		if err != nil {
			d.logger.Fatal("exiting", zap.Error(err))
		}

		if err := handleAction(action, d, matches, steps); err != nil {
			if errors.Is(err, errExit) {
				return
			}
			d.logger.Fatal("exiting", zap.Error(err))
		}
	}
}

func handleAction(action string, d *deps, matches *listing.Matches, steps []listing.Filter) error {
	switch action {
	case PromptDetails:
		return showDetails(matches)
	case PromptDumpToFile:
		filename, err := job.DumpToTmpFile("brainbridge-matches-*.json", matches.Items)
		if err != nil {
			return fmt.Errorf("dump matches to file: %w", err)
		}
		d.logger.Info("dumping matches to file", zap.String("filename", filename))
		return nil
	case PromptFilterStatus:
		return printJSON(listing.Describe(steps))
	case PromptExit:
		d.logger.Info("exiting", zap.String("reason", "got exit from prompt"))
		return errExit
	default:
		return fmt.Errorf("invalid action: %s", action)
	}
}

func showDetails(matches *listing.Matches) error {
	for {
		items := make([]string, 0, matches.Len()+1)
		for _, m := range matches.Items {
			items = append(items, matchLabel(m))
		}

		detailsPrompt := promptui.Select{
			Label: "Choose a posting and press ENTER",
			Items: append(items, PromptBack),
		}

		_, selected, err := detailsPrompt.Run()
		if err != nil {
			return err
		}
		if selected == PromptBack {
			return nil
		}

		id := strings.Fields(selected)[1]
		for _, m := range matches.Items {
			if m.Posting.ID == id {
				if err := printJSON(m); err != nil {
					return err
				}
			}
		}
	}
}

func printMatches(matches *listing.Matches) {
	for _, m := range matches.Items {
		fmt.Println(matchLabel(m))
	}
}

func matchLabel(m *listing.Match) string {
	return fmt.Sprintf("%3d %s %s / %s / %s",
		m.Result.Score, m.Posting.ID, m.Posting.Title, m.Posting.Company, m.Posting.Location,
	)
}

func flagBool(cmd *cobra.Command, name string) bool {
	if cmd == nil {
		return false
	}
	flag := cmd.Flag(name)
	return flag != nil && strings.EqualFold(flag.Value.String(), "true")
}
