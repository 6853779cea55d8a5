package cli

import (
	"errors"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quizbattle/internal/domain"
)

// NewLeaderboardCmd prints a leaderboard.
func NewLeaderboardCmd(configPath *string) *cobra.Command {
	var challengeID int
	var boardType string
	cmd := &cobra.Command{
		Use:   "leaderboard",
		Short: "Show the global or a challenge leaderboard",
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

			query := domain.LeaderboardQuery{Type: boardType, ChallengeID: challengeID}
			if challengeID > 0 && boardType == "" {
				query.Type = domain.LeaderboardChallenge
			}
			board, err := rt.leaderboards().Get(ctx, query)
			if err != nil {
				return errors.New(domain.UserMessage(err, "Failed to load leaderboard"))
			}

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "RANK\tPLAYER\tSCORE\tCHALLENGES\tCORRECT\tWRONG")
			for _, e := range board.Entries {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\n", e.Rank, e.Username, e.Score, e.ChallengesCompleted, e.CorrectAnswers, e.WrongAnswers)
			}
			if len(board.Entries) == 0 {
				fmt.Fprintln(w, "-\tno entries yet\t\t\t\t")
			}
			return w.Flush()
		},
	}
	cmd.Flags().IntVar(&challengeID, "challenge", 0, "challenge id")
	cmd.Flags().StringVar(&boardType, "type", "", "global or challenge")
	return cmd
}
