package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dipesh37/quiz1/internal/models"
	"github.com/dipesh37/quiz1/internal/services"

	"github.com/spf13/cobra"
)

const answerPreview = 60

// withService connects, runs fn against a SubmissionService and closes the
// store afterwards.
func withService(cmd *cobra.Command, opts *RootOptions, fn func(*services.SubmissionService) error) error {
	store, cfg, err := opts.connect(cmd.Context())
	if err != nil {
		return fmt.Errorf("connect: %w", err)
	}
	defer store.Close()

	return fn(services.NewSubmissionService(store, cfg.AllowedDomain))
}

func newMigrateCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the submissions schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(*services.SubmissionService) error {
				fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
				return nil
			})
		},
	}
}

func newListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "Print all submissions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(svc *services.SubmissionService) error {
				subs, err := svc.List(cmd.Context())
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), subs)
				}
				return writeTable(cmd.OutOrStdout(), subs)
			})
		},
	}
}

func newCountCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "count",
		Short: "Print the number of submissions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(svc *services.SubmissionService) error {
				n, err := svc.Count(cmd.Context())
				if err != nil {
					return err
				}
				if opts.Format == "json" {
					return writeJSON(cmd.OutOrStdout(), map[string]int64{"count": n})
				}
				fmt.Fprintln(cmd.OutOrStdout(), n)
				return nil
			})
		},
	}
}

func newDeleteCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <email>",
		Short: "Delete the submission for an email address",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withService(cmd, opts, func(svc *services.SubmissionService) error {
				email := services.NormalizeEmail(args[0])
				if err := svc.Delete(cmd.Context(), email); err != nil {
					if errors.Is(err, services.ErrSubmissionNotFound) {
						return fmt.Errorf("no submission for %s", email)
					}
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", email)
				return nil
			})
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeTable(w io.Writer, subs []models.Submission) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SUBMITTED AT\tEMAIL\tIP\tANSWER")
	for _, s := range subs {
		ip := "-"
		if s.IPAddress != nil {
			ip = *s.IPAddress
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", s.SubmittedAt.Format(time.RFC3339), s.Email, ip, preview(s.Answer))
	}
	return tw.Flush()
}

func preview(answer string) string {
	answer = strings.Join(strings.Fields(answer), " ")
	r := []rune(answer)
	if len(r) <= answerPreview {
		return answer
	}
	return string(r[:answerPreview-3]) + "..."
}
