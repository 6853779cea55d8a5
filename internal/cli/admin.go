package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quizbattle/internal/domain"
	"quizbattle/internal/validation"
)

// NewAdminCmd groups the administrator commands. All of them need admin-login.
func NewAdminCmd(configPath *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "admin",
		Short: "Administrator tools",
	}
	cmd.AddCommand(newAdminDashboardCmd(configPath))
	cmd.AddCommand(newAdminUsersCmd(configPath))
	cmd.AddCommand(newAdminQuestionsCmd(configPath))
	cmd.AddCommand(newAdminAddQuestionCmd(configPath))
	cmd.AddCommand(newAdminDeleteQuestionCmd(configPath))
	cmd.AddCommand(newAdminDeleteQuestionsCmd(configPath))
	cmd.AddCommand(newAdminUploadPDFCmd(configPath))
	return cmd
}

// adminRun bootstraps, checks the admin role and runs fn.
func adminRun(cmd *cobra.Command, configPath string, fn func(rt *runtime) error) error {
	rt, err := bootstrap(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.requireAdmin(); err != nil {
		return err
	}
	if err := fn(rt); err != nil {
		if errors.Is(err, domain.ErrForbidden) {
			return errors.New("Admin privileges required")
		}
		return err
	}
	return nil
}

func newAdminDashboardCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show platform statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, *configPath, func(rt *runtime) error {
				d, err := rt.client.AdminDashboard(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintf(w, "Users\t%d\n", d.TotalUsers)
				fmt.Fprintf(w, "Questions\t%d\n", d.TotalQuestions)
				fmt.Fprintf(w, "Challenges\t%d\n", d.TotalChallenges)
				fmt.Fprintf(w, "Results\t%d\n", d.TotalResults)
				return w.Flush()
			})
		},
	}
}

func newAdminUsersCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "users",
		Short: "List registered players",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, *configPath, func(rt *runtime) error {
				users, err := rt.client.AdminUsers(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tUSERNAME\tEMAIL\tJOINED")
				for _, u := range users {
					joined := ""
					if !u.CreatedAt.IsZero() {
						joined = u.CreatedAt.Format("2006-01-02")
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", u.ID, u.Username, u.Email, joined)
				}
				return w.Flush()
			})
		},
	}
}

func newAdminQuestionsCmd(configPath *string) *cobra.Command {
	var examType, difficulty string
	cmd := &cobra.Command{
		Use:   "questions",
		Short: "List questions",
		RunE: func(cmd *cobra.Command, args []string) error {
			return adminRun(cmd, *configPath, func(rt *runtime) error {
				questions, err := rt.client.AdminQuestions(cmd.Context())
				if err != nil {
					return err
				}
				w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(w, "ID\tEXAM\tDIFFICULTY\tANSWER\tTEXT")
				for _, q := range questions {
					if examType != "" && q.ExamType != examType {
						continue
					}
					if difficulty != "" && q.Difficulty != difficulty {
						continue
					}
					fmt.Fprintf(w, "%d\t%s\t%s\t%c\t%s\n", q.ID, q.ExamType, q.Difficulty, 'A'+rune(q.CorrectIndex), truncate(q.Text, 60))
				}
				return w.Flush()
			})
		},
	}
	cmd.Flags().StringVar(&examType, "exam-type", "", "only this exam type")
	cmd.Flags().StringVar(&difficulty, "difficulty", "", "only this difficulty")
	return cmd
}

func newAdminAddQuestionCmd(configPath *string) *cobra.Command {
	q := domain.NewQuestion{}
	cmd := &cobra.Command{
		Use:   "add-question",
		Short: "Add a multiple-choice question with four options",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := validation.Question(&q); err != nil {
				var verr *domain.ValidationError
				if errors.As(err, &verr) {
					printFieldErrors(cmd, verr)
				}
				return errors.New("Please fill in all fields")
			}
			return adminRun(cmd, *configPath, func(rt *runtime) error {
				created, err := rt.client.CreateQuestion(cmd.Context(), q)
				if err != nil {
					return errors.New(domain.UserMessage(err, "Failed to add question"))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Question added (id %d).\n", created.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&q.Text, "text", "", "question text")
	cmd.Flags().StringSliceVar(&q.Options, "option", nil, "answer option (repeat four times)")
	cmd.Flags().IntVar(&q.Answer, "answer", 0, "index of the correct option (0-3)")
	cmd.Flags().StringVar(&q.Difficulty, "difficulty", "easy", "easy, medium or tough")
	cmd.Flags().StringVar(&q.ExamType, "exam-type", "JEE", "exam type")
	cmd.Flags().StringVar(&q.Hint, "hint", "", "optional hint")
	return cmd
}

func newAdminDeleteQuestionCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-question <id>",
		Short: "Delete one question",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid question id %q", args[0])
			}
			return adminRun(cmd, *configPath, func(rt *runtime) error {
				if err := rt.client.DeleteQuestion(cmd.Context(), id); err != nil {
					return errors.New(domain.UserMessage(err, "Failed to delete question"))
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Question deleted.")
				return nil
			})
		},
	}
}

func newAdminDeleteQuestionsCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-questions <id>...",
		Short: "Delete several questions at once",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return adminRun(cmd, *configPath, func(rt *runtime) error {
				res, err := rt.client.DeleteQuestions(cmd.Context(), ids)
				if err != nil {
					return errors.New(domain.UserMessage(err, "Failed to delete questions"))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d question(s).\n", res.SuccessCount)
				if res.FailedCount > 0 {
					fmt.Fprintf(cmd.OutOrStdout(), "Failed to delete %d question(s).\n", res.FailedCount)
				}
				return nil
			})
		},
	}
}

func newAdminUploadPDFCmd(configPath *string) *cobra.Command {
	var examType, difficulty string
	cmd := &cobra.Command{
		Use:   "upload-pdf <file.pdf>",
		Short: "Extract questions from a PDF",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !strings.EqualFold(filepath.Ext(path), ".pdf") {
				return errors.New("Please select a PDF file")
			}
			return adminRun(cmd, *configPath, func(rt *runtime) error {
				f, err := os.Open(path)
				if err != nil {
					return err
				}
				defer f.Close()

				fmt.Fprintln(cmd.OutOrStdout(), "Uploading, this can take a couple of minutes...")
				res, err := rt.client.UploadPDF(cmd.Context(), filepath.Base(path), f, examType, difficulty)
				if err != nil {
					return errors.New(domain.UserMessage(err, "Failed to upload PDF"))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Successfully added %d questions.\n", res.QuestionsAdded)
				keys := make([]string, 0, len(res.Breakdown))
				for k := range res.Breakdown {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				for _, k := range keys {
					fmt.Fprintf(cmd.OutOrStdout(), "  %s: %d\n", k, res.Breakdown[k])
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&examType, "exam-type", "JEE", "exam type")
	cmd.Flags().StringVar(&difficulty, "difficulty", "mixed", "easy, medium, tough or mixed")
	return cmd
}

func parseIDs(args []string) ([]int, error) {
	ids := make([]int, 0, len(args))
	for _, a := range args {
		for _, part := range strings.Split(a, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := strconv.Atoi(part)
			if err != nil {
				return nil, fmt.Errorf("invalid question id %q", part)
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
