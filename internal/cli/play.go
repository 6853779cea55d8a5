package cli

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"quizbattle/internal/app"
	"quizbattle/internal/domain"
	"quizbattle/internal/shell"
)

// NewPlayCmd runs a timed attempt at a challenge.
func NewPlayCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "play <challenge-id>",
		Short: "Play a challenge against the clock",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid challenge id %q", args[0])
			}

			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			term := shell.New(cmd.InOrStdin(), cmd.OutOrStdout())
			session := app.NewChallengeSession(id, app.SessionConfig{
				Provider:     rt.client,
				Auth:         rt.auth,
				Notifier:     term,
				Navigator:    term,
				Refresher:    rt.leaderboards(),
				RefreshDelay: rt.refreshDelay(),
				Logger:       rt.log,
			})
			if err := session.Load(ctx); err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return nil
				}
				return err
			}

			err = playInteractive(cmd, term, session)
			session.WaitBackground()
			return err
		},
	}
}

// NewPracticeCmd runs an unranked practice quiz.
func NewPracticeCmd(configPath *string) *cobra.Command {
	opts := app.DefaultPracticeOptions()
	cmd := &cobra.Command{
		Use:   "practice",
		Short: "Practice with random questions, one minute per question",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()

			term := shell.New(cmd.InOrStdin(), cmd.OutOrStdout())
			session, err := app.NewPracticeSession(rt.client, opts, app.SessionConfig{
				Auth:      rt.auth,
				Notifier:  term,
				Navigator: term,
				Logger:    rt.log,
			})
			if err != nil {
				return err
			}
			if err := session.Load(ctx); err != nil {
				if errors.Is(err, domain.ErrUnauthenticated) {
					return nil
				}
				return err
			}
			return playInteractive(cmd, term, session)
		},
	}
	cmd.Flags().StringVar(&opts.ExamType, "exam-type", opts.ExamType, "exam type")
	cmd.Flags().StringVar(&opts.Difficulty, "difficulty", opts.Difficulty, "easy, medium or tough")
	cmd.Flags().IntVar(&opts.QuestionCount, "questions", opts.QuestionCount, "number of questions")
	return cmd
}

func playInteractive(cmd *cobra.Command, term *shell.Terminal, session *app.ChallengeSession) error {
	interrupts := make(chan os.Signal, 1)
	signal.Notify(interrupts, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(interrupts)

	return shell.Play(cmd.Context(), term, session, interrupts)
}
