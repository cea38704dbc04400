package main

import (
	"context"
	"fmt"
	"strings"

	// Packages
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	schema "github.com/mutablelogic/go-mcp/pkg/schema"
)

///////////////////////////////////////////////////////////////////////////////
// TYPES

// inspectItem is one row in the left-hand catalog list: a tool, resource
// or prompt, rendered to Markdown on selection.
type inspectItem struct {
	section string // "Tools", "Resources", "Prompts"
	name    string
	detail  string // rendered as Markdown in the right-hand pane
}

// inspectModel is the bubbletea model driving `mcp-client inspect`
// (SPEC_FULL supplement 4), grounded on pkg/ui/bubbletea/bubbletea.go's
// viewport + glamour rendering idiom, simplified to a static catalog
// browser rather than a streaming chat.
type inspectModel struct {
	server   string
	items    []inspectItem
	cursor   int
	detail   viewport.Model
	renderer *glamour.TermRenderer
	width    int
	height   int
	ready    bool
}

var (
	inspectSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	inspectSectionStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	inspectDimStyle      = lipgloss.NewStyle().Faint(true)
)

///////////////////////////////////////////////////////////////////////////////
// LIFECYCLE

func (cmd *InspectCommand) Run(g *Globals) error {
	if err := g.connect(cmd.URL); err != nil {
		return err
	}
	defer g.close()

	items, err := collectInspectItems(g.ctx, g.client)
	if err != nil {
		return err
	}

	info := g.client.ServerInfo()
	m := &inspectModel{
		server: fmt.Sprintf("%s %s", info.ServerInfo.Name, info.ServerInfo.Version),
		items:  items,
	}

	_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// collectInspectItems pages through tools, resources and prompts up
// front so the TUI never blocks on network I/O while browsing.
func collectInspectItems(ctx context.Context, c interface {
	ListTools(ctx context.Context) ([]schema.Tool, error)
	ListResources(ctx context.Context) ([]schema.Resource, error)
	ListPrompts(ctx context.Context) ([]schema.Prompt, error)
	ServerInfo() schema.InitializeResult
}) ([]inspectItem, error) {
	var items []inspectItem

	info := c.ServerInfo()
	if info.Capabilities.Tools != nil {
		tools, err := c.ListTools(ctx)
		if err != nil {
			return nil, err
		}
		for _, t := range tools {
			detail := "# " + t.Name + "\n\n" + t.Description
			items = append(items, inspectItem{section: "Tools", name: t.Name, detail: detail})
		}
	}
	if info.Capabilities.Resources != nil {
		resources, err := c.ListResources(ctx)
		if err != nil {
			return nil, err
		}
		for _, r := range resources {
			detail := "# " + r.Name + "\n\n" + r.Description + "\n\n`" + r.URI + "`"
			items = append(items, inspectItem{section: "Resources", name: r.URI, detail: detail})
		}
	}
	if info.Capabilities.Prompts != nil {
		prompts, err := c.ListPrompts(ctx)
		if err != nil {
			return nil, err
		}
		for _, p := range prompts {
			var b strings.Builder
			b.WriteString("# " + p.Name + "\n\n" + p.Description + "\n")
			for _, arg := range p.Arguments {
				b.WriteString(fmt.Sprintf("\n- `%s` %s", arg.Name, arg.Description))
			}
			items = append(items, inspectItem{section: "Prompts", name: p.Name, detail: b.String()})
		}
	}

	return items, nil
}

///////////////////////////////////////////////////////////////////////////////
// BUBBLETEA MODEL

func (m *inspectModel) Init() tea.Cmd {
	return nil
}

func (m *inspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
				m.renderDetail()
			}
		case "down", "j":
			if m.cursor < len(m.items)-1 {
				m.cursor++
				m.renderDetail()
			}
		}
		var cmd tea.Cmd
		m.detail, cmd = m.detail.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		listWidth := m.width / 3
		if !m.ready {
			m.detail = viewport.New(m.width-listWidth-2, m.height-2)
			m.ready = true
		} else {
			m.detail.Width = m.width - listWidth - 2
			m.detail.Height = m.height - 2
		}
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(m.detail.Width))
		if err == nil {
			m.renderer = r
		}
		m.renderDetail()
		return m, nil
	}
	return m, nil
}

func (m *inspectModel) renderDetail() {
	if !m.ready || len(m.items) == 0 {
		return
	}
	item := m.items[m.cursor]
	text := item.detail
	if m.renderer != nil {
		if out, err := m.renderer.Render(item.detail); err == nil {
			text = strings.TrimSpace(out)
		}
	}
	m.detail.SetContent(text)
	m.detail.GotoTop()
}

func (m *inspectModel) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	var list strings.Builder
	list.WriteString(inspectDimStyle.Render(m.server) + "\n\n")
	section := ""
	for i, item := range m.items {
		if item.section != section {
			section = item.section
			list.WriteString(inspectSectionStyle.Render(section) + "\n")
		}
		prefix := "  "
		name := item.name
		if i == m.cursor {
			prefix = "> "
			name = inspectSelectedStyle.Render(name)
		}
		list.WriteString(prefix + name + "\n")
	}

	listWidth := m.width / 3
	leftPane := lipgloss.NewStyle().Width(listWidth).Height(m.height - 1).Render(list.String())
	rightPane := m.detail.View()
	footer := inspectDimStyle.Render("↑/↓ navigate · q to quit")

	return lipgloss.JoinHorizontal(lipgloss.Top, leftPane, rightPane) + "\n" + footer
}
