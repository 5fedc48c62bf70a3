// Package tui provides a Bubble Tea monitor showing live editing sessions.
package tui

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fakeyudi/ghostedit/internal/session"
)

// ── Styles ────────────

var (
	// Title bar at the very top
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	// Section heading inside the viewport
	sectionHeader = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	openDotStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true)
	closedDotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	failedDotStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	statusBarStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("235")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)
)

// ── Messages ───────────────────

type sessionOpenedMsg struct {
	info session.Info
	at   time.Time
}

type sessionClosedMsg struct {
	id  string
	err error
	at  time.Time
}

type snapshotSentMsg struct{ id string }

type requestAppliedMsg struct{ id string }

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// ── Model ────────────────────

type row struct {
	info      session.Info
	openedAt  time.Time
	closedAt  time.Time
	err       error
	snapshots int
	applied   int
	open      bool
}

// Model is the root Bubble Tea model for the session monitor.
type Model struct {
	rows   map[string]*row
	order  []string
	vp     viewport.Model
	width  int
	height int
	ready  bool
}

// NewModel creates an empty monitor model.
func NewModel() Model {
	return Model{rows: make(map[string]*row)}
}

// ── Bubble Tea interface ───────────────

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "c":
			m.clearFinished()
			m.rebuild()
			return m, nil
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.initViewport()
		m.ready = true
		return m, nil

	case sessionOpenedMsg:
		m.rows[msg.info.ID] = &row{info: msg.info, openedAt: msg.at, open: true}
		m.order = append(m.order, msg.info.ID)
		m.rebuild()
		return m, nil

	case sessionClosedMsg:
		if r, ok := m.rows[msg.id]; ok {
			r.open = false
			r.closedAt = msg.at
			r.err = msg.err
			m.rebuild()
		}
		return m, nil

	case snapshotSentMsg:
		if r, ok := m.rows[msg.id]; ok {
			r.snapshots++
			m.rebuild()
		}
		return m, nil

	case requestAppliedMsg:
		if r, ok := m.rows[msg.id]; ok {
			r.applied++
			m.rebuild()
		}
		return m, nil

	case tickMsg:
		// Keeps the open-session durations counting.
		m.rebuild()
		return m, tick()
	}
	return m, nil
}

func (m Model) View() string {
	if !m.ready {
		return "Loading…"
	}

	title := titleStyle.Width(m.width).Render("  ghostedit  live sessions")
	content := m.vp.View()

	hint := "  ↑/↓ scroll  c clear finished  q quit"
	right := fmt.Sprintf("%d open / %d total", m.openCount(), len(m.order))
	pad := m.width - lipgloss.Width(hint) - len(right) - 2
	if pad < 1 {
		pad = 1
	}
	statusBar := statusBarStyle.Width(m.width).Render(
		hint + strings.Repeat(" ", pad) + right,
	)

	return lipgloss.JoinVertical(lipgloss.Left, title, content, statusBar)
}

// ── Viewport management ───────────────────────────────────────────────────────

func (m *Model) initViewport() {
	// title(1) + statusBar(1) = 2 fixed rows
	vpHeight := m.height - 2
	if vpHeight < 1 {
		vpHeight = 1
	}
	vp := viewport.New(m.width, vpHeight)
	vp.SetContent(m.renderSessions())
	m.vp = vp
}

func (m *Model) rebuild() {
	m.vp.SetContent(m.renderSessions())
}

func (m *Model) clearFinished() {
	var kept []string
	for _, id := range m.order {
		if r, ok := m.rows[id]; ok && r.open {
			kept = append(kept, id)
		} else {
			delete(m.rows, id)
		}
	}
	m.order = kept
}

func (m *Model) openCount() int {
	n := 0
	for _, r := range m.rows {
		if r.open {
			n++
		}
	}
	return n
}

// ── Rendering ─────────────────────────────────────────────────────────────────

func heading(s string) string {
	return "\n" + sectionHeader.Render("  "+s) + "\n\n"
}

func (m *Model) renderSessions() string {
	var sb strings.Builder
	sb.WriteString(heading(fmt.Sprintf("Sessions (%d open)", m.openCount())))

	if len(m.order) == 0 {
		sb.WriteString(dimStyle.Render("  (waiting for browser connections)") + "\n")
		return sb.String()
	}

	for _, id := range m.order {
		r, ok := m.rows[id]
		if !ok {
			continue
		}
		sb.WriteString(m.renderRow(r))
	}
	return sb.String()
}

func (m *Model) renderRow(r *row) string {
	var dot, age string
	switch {
	case r.open:
		dot = openDotStyle.Render("●")
		age = fmtDuration(time.Since(r.openedAt))
	case r.err != nil:
		dot = failedDotStyle.Render("✗")
		age = fmtDuration(r.closedAt.Sub(r.openedAt))
	default:
		dot = closedDotStyle.Render("●")
		age = fmtDuration(r.closedAt.Sub(r.openedAt))
	}

	title := r.info.Title
	if title == "" {
		title = "(untitled)"
	}
	ts := timeStyle.Render(r.openedAt.Format("15:04:05"))

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("  %s %s  %s — %s  %s\n",
		dot, ts, title, hostOf(r.info.URL), dimStyle.Render(age)))
	sb.WriteString(dimStyle.Render("      "+shortID(r.info.ID)+"  "+r.info.Path) + "\n")
	sb.WriteString(countStyle.Render(fmt.Sprintf("      %d snapshots sent  ·  %d updates applied",
		r.snapshots, r.applied)) + "\n")
	if r.err != nil {
		sb.WriteString(failedDotStyle.Render("      "+r.err.Error()) + "\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// shortID truncates a session id for display; logs carry the full one.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return rawURL
	}
	return u.Hostname()
}

func fmtDuration(d time.Duration) string {
	d = d.Truncate(time.Second)
	if d < 0 {
		d = 0
	}
	return d.String()
}

// ── Monitor ───────────────────────────────────────────────────────────────────

// Monitor runs the TUI and feeds it session notifications. It implements
// session.Observer, so it can be handed straight to the server.
type Monitor struct {
	program *tea.Program
}

// NewMonitor builds the monitor program in alt-screen mode.
func NewMonitor() *Monitor {
	return &Monitor{program: tea.NewProgram(NewModel(), tea.WithAltScreen())}
}

// Run blocks until the user quits or Stop is called.
func (m *Monitor) Run() error {
	_, err := m.program.Run()
	return err
}

// Stop asks the program to quit.
func (m *Monitor) Stop() {
	m.program.Quit()
}

func (m *Monitor) SessionOpened(info session.Info) {
	m.program.Send(sessionOpenedMsg{info: info, at: time.Now()})
}

func (m *Monitor) SessionClosed(id string, err error) {
	m.program.Send(sessionClosedMsg{id: id, err: err, at: time.Now()})
}

func (m *Monitor) SnapshotSent(id string) {
	m.program.Send(snapshotSentMsg{id: id})
}

func (m *Monitor) RequestApplied(id string) {
	m.program.Send(requestAppliedMsg{id: id})
}
