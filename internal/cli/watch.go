package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/nhle/taskpilot/internal/app"
)

func init() {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Live view of tasks, messages and accounts",
		RunE:  runWatch,
	}
	RootCmd.AddCommand(cmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime()
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.session(cmd.Context()); err != nil {
		return err
	}

	// Provider redirects land here while a connect is pending in the view.
	if len(rt.cfg.OAuth.Clients) > 0 {
		stop, err := rt.startCallback()
		if err != nil {
			rt.logger.Warn("account linking unavailable", "err", err)
		} else {
			defer stop()
		}
	}

	m := app.New(rt.store, rt.gw, rt.newPoller())
	defer m.Shutdown()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running live view: %w", err)
	}
	return nil
}
