package cmd

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/sridarsri23/BrainBridge/internal/logger"
	"github.com/sridarsri23/BrainBridge/internal/synth"
)

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Generate and take cognitive strengths quizzes",
}

var quizGenerateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate a themed quiz",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		generateQuiz(cmd)
	},
}

var quizTakeCmd = &cobra.Command{
	Use:   "take <candidate-id>",
	Short: "Answer a quiz interactively and update the candidate's profile",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		takeQuiz(cmd, args[0])
	},
}

func init() {
	rootCmd.AddCommand(quizCmd)
	quizCmd.AddCommand(quizGenerateCmd, quizTakeCmd)

	quizGenerateCmd.Flags().String("activity-type", synth.DefaultActivityType, "kind of activity, e.g. interactive_quiz, game or scenario")
	quizGenerateCmd.Flags().StringSlice("target", nil, "cognitive demand categories to focus on (default all)")
	quizGenerateCmd.Flags().String("theme", synth.DefaultTheme, "title theme")
	quizGenerateCmd.Flags().StringP("output", "o", "", "write the quiz as YAML to this file instead of printing JSON")

	quizTakeCmd.Flags().StringP("quiz", "q", "", "quiz file written by 'quiz generate' (default is the built-in quiz)")
}

func generateQuiz(cmd *cobra.Command) {
	ctx := context.Background()

	d := mustDeps(ctx, false)
	defer d.close()

	activity, _ := cmd.Flags().GetString("activity-type")
	targets, _ := cmd.Flags().GetStringSlice("target")
	theme, _ := cmd.Flags().GetString("theme")

	s := synth.New(d.reasoner, synth.WithLogger(d.logger), synth.WithMetrics(d.metrics))
	quiz := s.GenerateQuiz(ctx, synth.QuizRequest{ActivityType: activity, TargetCDCs: targets, Theme: theme})

	output, _ := cmd.Flags().GetString("output")
	if output == "" {
		if err := printJSON(quiz); err != nil {
			d.logger.Fatal("printing the quiz", zap.Error(err))
		}
		return
	}

	data, err := yaml.Marshal(quiz)
	if err != nil {
		d.logger.Fatal("encoding the quiz", zap.Error(err))
	}
	if err := os.WriteFile(output, data, 0o644); err != nil {
		d.logger.Fatal("writing the quiz", zap.String("filename", output), zap.Error(err))
	}
	d.logger.Info("quiz written", zap.String("quiz_id", quiz.ID), zap.String("filename", output))
}

func takeQuiz(cmd *cobra.Command, candidateID string) {
	ctx := context.Background()

	d := mustDeps(ctx, true)
	defer d.close()

	quiz := synth.FallbackQuiz()
	if path, _ := cmd.Flags().GetString("quiz"); path != "" {
		loaded, err := readQuiz(path)
		if err != nil {
			d.logger.Fatal("loading the quiz", zap.String("filename", path), zap.Error(err))
		}
		quiz = loaded
	}

	fmt.Printf("%s\n%s\n\n", quiz.Title, quiz.Description)

	answers := make(map[string]string, len(quiz.Questions))
	for i, q := range quiz.Questions {
		answer, err := ask(i+1, len(quiz.Questions), q)
		if err != nil {
			d.logger.Fatal("exiting", zap.Error(err))
		}
		answers[q.ID] = answer
	}

	if err := d.store.RecordAssessment(ctx, candidateID, quiz.ID); err != nil {
		d.logger.Fatal("recording the assessment", zap.Error(err))
	}
	d.logger.Info("assessment recorded",
		zap.String(logger.FieldCandidate, candidateID),
		zap.String("quiz_id", quiz.ID),
		zap.Int("answers", len(answers)),
	)

	analysis := synthesizeAndStore(ctx, d, candidateID, synth.Input{QuizResults: quiz.Results(answers)})

	fmt.Printf("\n%s\n", analysis.Summary)
	for _, r := range analysis.Recommendations {
		fmt.Printf("  - %s\n", r)
	}
}

func ask(n, total int, q synth.Question) (string, error) {
	label := fmt.Sprintf("[%d/%d] %s", n, total, q.Text)

	if len(q.Options) == 0 {
		prompt := promptui.Prompt{
			Label: label,
			Validate: func(s string) error {
				if strings.TrimSpace(s) == "" {
					return fmt.Errorf("an answer is required")
				}
				return nil
			},
		}
		return prompt.Run()
	}

	prompt := promptui.Select{
		Label: label,
		Items: q.Options,
		Size:  len(q.Options),
	}
	_, answer, err := prompt.Run()
	return answer, err
}

func readQuiz(path string) (*synth.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var quiz synth.Quiz
	if err := yaml.Unmarshal(data, &quiz); err != nil {
		return nil, err
	}
	if quiz.ID == "" || len(quiz.Questions) == 0 {
		return nil, fmt.Errorf("quiz must have an id and at least one question")
	}
	return &quiz, nil
}
