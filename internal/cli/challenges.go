package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quizbattle/internal/app"
	"quizbattle/internal/domain"
	"quizbattle/internal/shell"
)

// NewChallengesCmd groups the challenge lobby commands.
func NewChallengesCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenges",
		Short: "List, create and join challenges",
	}
	cmd.AddCommand(newChallengesListCmd(configPath))
	cmd.AddCommand(newChallengesCreateCmd(configPath))
	cmd.AddCommand(newChallengesJoinCmd(configPath))
	return cmd
}

func newChallengesListCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Show active and completed challenges",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.requireUser(); err != nil {
				return err
			}

			list, err := app.NewChallengeService(rt.client, rt.log).List(ctx)
			if err != nil {
				return errors.New(domain.UserMessage(err, "Failed to load challenges"))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ACTIVE\t\t\t\t\t")
			fmt.Fprintln(w, "ID\tNAME\tCODE\tEXAM\tDIFFICULTY\tQUESTIONS\tTIME")
			for _, c := range list.Active {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%d\t%dm\n", c.ID, c.Name, c.Code, c.ExamType, c.Difficulty, c.QuestionCount, c.TimeLimit)
			}
			if len(list.Active) == 0 {
				fmt.Fprintln(w, "-\tno active challenges\t\t\t\t\t")
			}
			fmt.Fprintln(w, "\t\t\t\t\t\t")
			fmt.Fprintln(w, "COMPLETED\t\t\t\t\t\t")
			fmt.Fprintln(w, "ID\tNAME\tSCORE\tCORRECT\tWRONG\tTIME TAKEN\t")
			for _, c := range list.Completed {
				r := c.Result
				fmt.Fprintf(w, "%d\t%s\t%d\t%d/%d\t%d\t%s\t\n", c.ID, c.Name, r.Score, r.CorrectAnswers, r.TotalQuestions, r.WrongAnswers, shell.FormatSeconds(r.TimeTaken))
			}
			return w.Flush()
		},
	}
}

func newChallengesCreateCmd(configPath *string) *cobra.Command {
	req := domain.CreateChallengeRequest{}
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a challenge and print its join code",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.requireUser(); err != nil {
				return err
			}

			c, err := app.NewChallengeService(rt.client, rt.log).Create(ctx, req)
			if err != nil {
				var verr *domain.ValidationError
				if errors.As(err, &verr) {
					printFieldErrors(cmd, verr)
				}
				return errors.New(domain.UserMessage(err, "Failed to create challenge"))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Challenge created! Code: %s (id %d)\n", c.Code, c.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Name, "name", "", "challenge name")
	cmd.Flags().StringVar(&req.ExamType, "exam-type", "JEE", "exam type")
	cmd.Flags().StringVar(&req.Difficulty, "difficulty", "mixed", "easy, medium, tough or mixed")
	cmd.Flags().IntVar(&req.QuestionCount, "questions", 10, "number of questions")
	cmd.Flags().IntVar(&req.TimeLimit, "time-limit", 30, "time limit in minutes")
	return cmd
}

func newChallengesJoinCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "join <code>",
		Short: "Join a challenge by its 6-character code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			rt, err := bootstrap(ctx, *configPath)
			if err != nil {
				return err
			}
			defer rt.Close()
			if err := rt.requireUser(); err != nil {
				return err
			}

			res, err := app.NewChallengeService(rt.client, rt.log).Join(ctx, args[0])
			if err != nil {
				return errors.New(domain.UserMessage(err, "Failed to join challenge"))
			}
			out := cmd.OutOrStdout()
			if res.AlreadyJoined {
				fmt.Fprintf(out, "You already joined %s.\n", res.Challenge.Code)
			} else {
				fmt.Fprintf(out, "Successfully joined %s!\n", res.Challenge.Name)
			}
			if res.Challenge.ID > 0 {
				fmt.Fprintf(out, "Start with: quizbattle play %d\n", res.Challenge.ID)
			}
			return nil
		},
	}
}
