package app

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/nhle/taskpilot/internal/model"
	"github.com/nhle/taskpilot/internal/oauth"
	"github.com/nhle/taskpilot/internal/theme"
)

// View renders the live view.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	header := m.layout.RenderHeader("TaskPilot", m.headerStatus())

	var content string
	if m.help.ShowAll {
		content = m.help.View(m.keys)
	} else {
		content = m.renderList()
	}

	return m.layout.RenderWithFrame(header, m.renderTabs(), content, m.renderStatusBar())
}

func (m Model) headerStatus() string {
	var parts []string
	if u, ok := m.store.CurrentUser(); ok {
		parts = append(parts, u.Name())
	}
	if m.store.Loading() {
		parts = append(parts, "syncing")
	}
	conn := "offline"
	if m.store.Connected() {
		conn = "online"
	}
	parts = append(parts, theme.ConnectionStyle(m.store.Connected()).Render(conn))
	return strings.Join(parts, "  ")
}

func (m Model) renderTabs() string {
	counts := [paneCount]int{
		m.store.Tasks.Len(),
		m.store.Messages.Len(),
		m.store.Accounts.Len(),
	}

	tabs := make([]string, 0, paneCount)
	for p := Pane(0); p < paneCount; p++ {
		label := fmt.Sprintf("%s (%d)", p, counts[p])
		if p == m.pane {
			tabs = append(tabs, theme.ActiveTabStyle.Render(label))
		} else {
			tabs = append(tabs, theme.TabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderList() string {
	var rows []string
	switch m.pane {
	case PaneTasks:
		rows = m.taskRows()
	case PaneMessages:
		rows = m.messageRows()
	case PaneAccounts:
		rows = m.accountRows()
	}

	if len(rows) == 0 {
		return theme.DimmedStyle.Render("  Nothing here yet. Press r to refresh.")
	}

	cursor := m.cursors[m.pane]
	height := m.layout.ContentHeight()
	start := 0
	if cursor >= height {
		start = cursor - height + 1
	}
	end := min(start+height, len(rows))

	var b strings.Builder
	for i := start; i < end; i++ {
		if i > start {
			b.WriteByte('\n')
		}
		if i == cursor {
			b.WriteString(theme.SelectedItemStyle.Render("> " + rows[i]))
		} else {
			b.WriteString(theme.ListItemStyle.Render("  " + rows[i]))
		}
	}
	return b.String()
}

func (m Model) taskRows() []string {
	now := m.store.Now()
	tasks := m.store.Tasks.Items()
	rows := make([]string, len(tasks))
	for i, t := range tasks {
		check := "[ ]"
		if t.Status == model.TaskStatusCompleted {
			check = "[x]"
		}
		row := fmt.Sprintf("%s %s  %s %s", check, t.Title,
			theme.PriorityStyle(t.Priority).Render(string(t.Priority)),
			theme.StatusStyle(t.Status).Render(string(t.Status)))
		if t.IsOverdue(now) {
			row += " " + theme.OverdueStyle.Render("overdue")
		}
		rows[i] = row
	}
	return rows
}

func (m Model) messageRows() []string {
	msgs := m.store.Messages.Items()
	rows := make([]string, len(msgs))
	for i, msg := range msgs {
		marker := "*"
		if msg.IsRead {
			marker = " "
		}
		row := marker + " " + msg.Title
		if msg.SourceAccount != nil {
			row += theme.DimmedStyle.Render("  via " + oauth.DisplayName(msg.SourceAccount.ServiceName))
		}
		if msg.Summary != "" {
			row += theme.DimmedStyle.Render("  " + msg.Summary)
		}
		rows[i] = row
	}
	return rows
}

func (m Model) accountRows() []string {
	rows := make([]string, len(model.ServiceNames))
	for i, svc := range model.ServiceNames {
		name := oauth.DisplayName(svc)
		if acct, ok := m.store.ConnectedAccount(svc); ok {
			rows[i] = name + "  " + theme.ConnectionStyle(true).Render(acct.AccountIdentifier)
			continue
		}
		if m.flow != nil && m.flow.Service == svc {
			rows[i] = name + "  " + m.spinner.View() + " connecting"
			continue
		}
		rows[i] = name + "  " + theme.ConnectionStyle(false).Render("not connected")
	}
	return rows
}

func (m Model) renderStatusBar() string {
	if notes := m.store.Notifications.Items(); len(notes) > 0 {
		n := notes[0]
		text := n.Message
		if n.Title != "" {
			text = n.Title + ": " + n.Message
		}
		return m.layout.RenderBar(theme.SeverityStyle(n.Type), text, "")
	}

	if m.flow != nil {
		return m.layout.RenderStatusBar(fmt.Sprintf("%s Authorize %s at %s (esc to cancel)",
			m.spinner.View(), oauth.DisplayName(m.flow.Service), m.authURL))
	}

	return m.layout.RenderStatusBar(m.help.View(m.keys))
}
