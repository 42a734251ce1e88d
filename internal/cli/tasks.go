package cli

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/state"
)

func init() {
	tasks := &cobra.Command{
		Use:   "tasks",
		Short: "List and change tasks",
		RunE:  runTasksList,
	}
	addTaskFilterFlags(tasks)

	list := &cobra.Command{
		Use:   "list",
		Short: "List tasks",
		RunE:  runTasksList,
	}
	addTaskFilterFlags(list)

	add := &cobra.Command{
		Use:   "add <title>",
		Short: "Create a task",
		Args:  cobra.ExactArgs(1),
		RunE:  runTasksAdd,
	}
	add.Flags().String("description", "", "Description")
	add.Flags().String("priority", "", "Priority: low, medium, high or urgent")
	add.Flags().String("due", "", "Due date (YYYY-MM-DD or RFC 3339)")

	done := &cobra.Command{
		Use:   "done <id>",
		Short: "Toggle a task between completed and active",
		Args:  cobra.ExactArgs(1),
		RunE:  runTasksDone,
	}

	rm := &cobra.Command{
		Use:   "rm <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE:  runTasksRm,
	}

	stats := &cobra.Command{
		Use:   "stats",
		Short: "Show task, message and account statistics",
		RunE:  runTasksStats,
	}

	tasks.AddCommand(list, add, done, rm, stats)
	RootCmd.AddCommand(tasks)
}

func addTaskFilterFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("status", "s", "", "Filter by status")
	cmd.Flags().StringP("priority", "p", "", "Filter by priority")
	cmd.Flags().StringP("query", "q", "", "Filter by text in title or description")
	cmd.Flags().Bool("overdue", false, "Only overdue tasks")
}

func runTasksList(cmd *cobra.Command, args []string) error {
	status, _ := cmd.Flags().GetString("status")
	priority, _ := cmd.Flags().GetString("priority")
	query, _ := cmd.Flags().GetString("query")
	overdue, _ := cmd.Flags().GetBool("overdue")

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	f := state.TaskFilter{Priority: model.TaskPriority(priority), Query: query}
	if overdue {
		f.OverdueAt = rt.store.Now()
	}

	ctx := cmd.Context()
	var tasks []model.Task
	if status != "" {
		// Filtered on the server and not kept in the store.
		r := rt.gw.FetchTasksByStatus(ctx, model.TaskStatus(status))
		if err := resultErr("listing tasks", r); err != nil {
			return err
		}
		for _, t := range r.Value {
			if f.Match(t) {
				tasks = append(tasks, t)
			}
		}
	} else {
		if err := resultErr("listing tasks", rt.gw.FetchTasks(ctx)); err != nil {
			return err
		}
		tasks = rt.store.FilterTasks(f).Items()
	}

	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), tasks)
	}
	writeTasks(cmd.OutOrStdout(), tasks, rt.store.Now())
	return nil
}

func writeTasks(w io.Writer, tasks []model.Task, now time.Time) {
	if len(tasks) == 0 {
		fmt.Fprintln(w, "No tasks.")
		return
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPRIORITY\tDUE\tTITLE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Format("2006-01-02")
			if t.IsOverdue(now) {
				due += " (overdue)"
			}
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", t.ID, t.Status, t.Priority, due, t.Title)
	}
	tw.Flush()
}

func runTasksAdd(cmd *cobra.Command, args []string) error {
	in := model.TaskInput{Title: args[0]}
	in.Description, _ = cmd.Flags().GetString("description")
	priority, _ := cmd.Flags().GetString("priority")
	in.Priority = model.TaskPriority(priority)

	if due, _ := cmd.Flags().GetString("due"); due != "" {
		t, err := parseDue(due)
		if err != nil {
			return err
		}
		in.DueDate = &t
	}

	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.CreateTask(cmd.Context(), in)
	if err := resultErr("creating task", r); err != nil {
		return err
	}
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), r.Value)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created task %s\n", r.Value.ID)
	return nil
}

// parseDue accepts a calendar date or a full RFC 3339 timestamp.
func parseDue(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid due date %q: use YYYY-MM-DD", s)
	}
	return t, nil
}

func runTasksDone(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	ctx := cmd.Context()
	id := model.ID(args[0])
	// Toggling reads the current task from the store.
	if err := resultErr("loading task", rt.gw.FetchTask(ctx, id)); err != nil {
		return err
	}
	r := rt.gw.ToggleTaskCompletion(ctx, id)
	if err := resultErr("updating task", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Task %s is now %s\n", r.Value.ID, r.Value.Status)
	return nil
}

func runTasksRm(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	r := rt.gw.DeleteTask(cmd.Context(), model.ID(args[0]))
	if err := resultErr("deleting task", r); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %s\n", r.Value)
	return nil
}

func runTasksStats(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	ctx := cmd.Context()
	if err := resultErr("listing tasks", rt.gw.FetchTasks(ctx)); err != nil {
		return err
	}
	if err := resultErr("listing messages", rt.gw.FetchMessages(ctx)); err != nil {
		return err
	}
	if err := resultErr("listing accounts", rt.gw.FetchLinkedAccounts(ctx)); err != nil {
		return err
	}
	if err := resultErr("listing executions", rt.gw.FetchExecutions(ctx)); err != nil {
		return err
	}

	stats := rt.store.DashboardStats()
	if jsonOutput() {
		return printJSON(cmd.OutOrStdout(), stats)
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Tasks:      %d total, %d pending, %d completed, %d overdue (%.0f%% done)\n",
		stats.Tasks.Total, stats.Tasks.Pending, stats.Tasks.Completed, stats.Tasks.Overdue, stats.Tasks.CompletionRate)
	fmt.Fprintf(w, "Messages:   %d total, %d unread\n", stats.Messages.Total, stats.Messages.Unread)
	fmt.Fprintf(w, "Accounts:   %d total, %d connected\n", stats.Accounts.Total, stats.Accounts.Connected)
	fmt.Fprintf(w, "Executions: %d total, %d failed\n", stats.Executions.Total, stats.Executions.Failed)
	return nil
}
