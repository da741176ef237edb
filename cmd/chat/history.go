package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/ashureev/edubot/internal/domain"
)

const timeLayout = "2006-01-02 15:04"

func newHistoryCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List saved chats, most recent first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd.Context(), func() error {
				printHistory(cmd.OutOrStdout(), a.archive.Entries())
				return nil
			})
		},
	}
}

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show <number|id>",
		Short: "Print a saved chat",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd.Context(), func() error {
				session, ok := resolveSession(a.archive.Entries(), args[0])
				if !ok {
					return fmt.Errorf("no saved chat matches %q", args[0])
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%s (%s)\n", session.Title, session.SavedAt.Local().Format(timeLayout))
				printTranscript(out, session.Messages)
				return nil
			})
		},
	}
}

// resolveSession finds a session by its 1-based position in entries or by id.
func resolveSession(entries []domain.ChatSession, ref string) (domain.ChatSession, bool) {
	if n, err := strconv.Atoi(ref); err == nil && n >= 1 && n <= len(entries) {
		return entries[n-1], true
	}
	for _, e := range entries {
		if e.ID == ref {
			return e, true
		}
	}
	return domain.ChatSession{}, false
}

func printHistory(w io.Writer, entries []domain.ChatSession) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No saved chats yet.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tTITLE\tSAVED\tID")
	for i, e := range entries {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", i+1, e.Title, e.SavedAt.Local().Format(timeLayout), e.ID)
	}
	_ = tw.Flush()
}

func printTranscript(w io.Writer, messages []domain.ChatMessage) {
	for _, m := range messages {
		who := "You"
		if m.Sender == domain.SenderBot {
			who = "EduBot"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", m.Timestamp.Local().Format("15:04"), who, m.Text)
	}
	fmt.Fprintln(w)
}
