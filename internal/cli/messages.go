package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/oauth"
)

func init() {
	messages := &cobra.Command{
		Use:   "messages",
		Short: "List and process collected messages",
		RunE:  runMessagesList,
	}
	addMessageListFlags(messages)

	list := &cobra.Command{
		Use:   "list",
		Short: "List messages",
		RunE:  runMessagesList,
	}
	addMessageListFlags(list)

	show := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one message",
		Args:  cobra.ExactArgs(1),
		RunE:  runMessagesShow,
	}

	read := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a message as read",
		Args:  cobra.ExactArgs(1),
		RunE:  runMessagesRead,
	}

	summarize := &cobra.Command{
		Use:   "summarize <id>",
		Short: "Ask the server to summarize a message",
		Args:  cobra.ExactArgs(1),
		RunE:  runMessagesSummarize,
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a message",
		Args:  cobra.ExactArgs(1),
		RunE:  runMessagesRm,
	}

	messages.AddCommand(list, show, read, summarize, rm)
	RootCmd.AddCommand(messages)
}

func addMessageListFlags(cmd *cobra.Command) {
	cmd.Flags().BoolP("unread", "u", false, "Only unread messages")
	cmd.Flags().Bool("unprocessed", false, "Only messages not yet processed")
}

func runMessagesList(cmd *cobra.Command, args []string) error {
	unread, _ := cmd.Flags().GetBool("unread")
	unprocessed, _ := cmd.Flags().GetBool("unprocessed")

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	ctx := cmd.Context()
	var msgs []model.Message
	switch {
	case unread:
		r := rt.gw.FetchUnreadMessages(ctx)
		if err := resultErr("listing messages", r); err != nil {
			return err
		}
		msgs = r.Value
	case unprocessed:
		r := rt.gw.FetchUnprocessedMessages(ctx)
		if err := resultErr("listing messages", r); err != nil {
			return err
		}
		msgs = r.Value
	default:
		if err := resultErr("listing messages", rt.gw.FetchMessages(ctx)); err != nil {
			return err
		}
		msgs = rt.store.Messages.Items()
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), msgs)
	}
	writeMessages(cmd.OutOrStdout(), msgs)
	return nil
}

func writeMessages(w io.Writer, msgs []model.Message) {
	if len(msgs) == 0 {
		fmt.Fprintln(w, "No messages.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tREAD\tSOURCE\tTITLE")
	for _, m := range msgs {
		read := "no"
		if m.IsRead {
			read = "yes"
		}
		source := "-"
		if m.SourceAccount != nil {
			source = oauth.DisplayName(m.SourceAccount.ServiceName)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", m.ID, read, source, m.Title)
	}
	tw.Flush()
}

func runMessagesShow(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.FetchMessage(cmd.Context(), model.ID(args[0]))
	if err := resultErr("loading message", r); err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), r.Value)
	}

	m := r.Value
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "%s\n\n%s\n", m.Title, m.Content)
	if m.Summary != "" {
		fmt.Fprintf(w, "\nSummary: %s\n", m.Summary)
	}
	return nil
}

func runMessagesRead(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.MarkMessageRead(cmd.Context(), model.ID(args[0]))
	if err := resultErr("marking message read", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read\n", r.Value.ID)
	return nil
}

func runMessagesSummarize(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.SummarizeMessage(cmd.Context(), model.ID(args[0]))
	if err := resultErr("summarizing message", r); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), r.Value.Summary)
	return nil
}

func runMessagesRm(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.DeleteMessage(cmd.Context(), model.ID(args[0]))
	if err := resultErr("deleting message", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted message %s\n", r.Value)
	return nil
}
