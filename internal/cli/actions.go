package cli

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/nhle/taskpilot/internal/model"
)

func init() {
	actions := &cobra.Command{
		Use:   "actions",
		Short: "List and run automation actions",
		RunE:  runActionsList,
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List available actions",
		RunE:  runActionsList,
	}

	run := &cobra.Command{
		Use:   "run <action-id>",
		Short: "Execute an action",
		Args:  cobra.ExactArgs(1),
		RunE:  runActionsRun,
	}
	run.Flags().String("task", "", "Task that triggers the action")
	run.Flags().StringArray("set", nil, "Config value as key=value (repeatable)")

	history := &cobra.Command{
		Use:   "history",
		Short: "List your action executions",
		RunE:  runActionsHistory,
	}
	history.Flags().IntP("limit", "l", 20, "Max results")

	actions.AddCommand(list, run, history)
	RootCmd.AddCommand(actions)
}

func runActionsList(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	if err := resultErr("listing actions", rt.gw.FetchActions(cmd.Context())); err != nil {
		return err
	}
	actions := rt.store.Actions.Items()

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), actions)
	}
	writeActions(cmd.OutOrStdout(), actions)
	return nil
}

func writeActions(w io.Writer, actions []model.Action) {
	if len(actions) == 0 {
		fmt.Fprintln(w, "No actions.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTYPE\tCONFIG\tNAME")
	for _, a := range actions {
		cfg := "-"
		if a.RequiresConfig {
			cfg = "required"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", a.ID, a.ActionType, cfg, a.Name)
	}
	tw.Flush()
}

// parseConfigPairs turns key=value flags into an action config. Values
// that parse as booleans or numbers are stored as such.
func parseConfigPairs(pairs []string) (map[string]any, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	cfg := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("invalid config %q: want key=value", p)
		}
		switch {
		case v == "true" || v == "false":
			cfg[k] = v == "true"
		default:
			if n, err := strconv.ParseFloat(v, 64); err == nil {
				cfg[k] = n
			} else {
				cfg[k] = v
			}
		}
	}
	return cfg, nil
}

func runActionsRun(cmd *cobra.Command, args []string) error {
	pairs, _ := cmd.Flags().GetStringArray("set")
	cfg, err := parseConfigPairs(pairs)
	if err != nil {
		return err
	}
	task, _ := cmd.Flags().GetString("task")

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	ctx := cmd.Context()
	// Config is validated against the action's schema, which needs the
	// action list in the store.
	if err := resultErr("listing actions", rt.gw.FetchActions(ctx)); err != nil {
		return err
	}

	r := rt.gw.ExecuteAction(ctx, model.ExecuteActionInput{
		ActionID:   model.ID(args[0]),
		ConfigData: cfg,
		TaskID:     model.ID(task),
	})
	if err := resultErr("running action", r); err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), r.Value)
	}

	exec := r.Value
	fmt.Fprintf(cmd.OutOrStdout(), "Execution %s: %s\n", exec.ID, exec.Status)
	if exec.ErrorMessage != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Error: %s\n", exec.ErrorMessage)
	}
	return nil
}

func runActionsHistory(cmd *cobra.Command, args []string) error {
	limit, _ := cmd.Flags().GetInt("limit")

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	if err := resultErr("listing executions", rt.gw.FetchExecutions(cmd.Context())); err != nil {
		return err
	}
	execs := rt.store.RecentExecutions(limit)

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), execs)
	}
	if len(execs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No executions.")
		return nil
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tSTARTED\tACTION")
	for _, e := range execs {
		name := "-"
		if e.Action != nil {
			name = e.Action.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", e.ID, e.Status, e.StartedAt.Format("2006-01-02 15:04"), name)
	}
	return tw.Flush()
}
