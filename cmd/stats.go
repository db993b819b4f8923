package cmd

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"

	"github.com/nvali/chronotap/internal/report"
	"github.com/nvali/chronotap/internal/store"
	"github.com/nvali/chronotap/internal/track"
)

var statsPlain bool

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Live view of today's time by project and language",
	RunE: func(cmd *cobra.Command, args []string) error {
		st, err := openStore()
		if err != nil {
			return err
		}

		if statsPlain || !term.IsTerminal(os.Stdout.Fd()) {
			r := buildReport(st, time.Now())
			cmd.Print(renderPlain(r))
			return nil
		}

		p := tea.NewProgram(newStatsModel(st), tea.WithAltScreen())
		_, err = p.Run()
		return err
	},
}

func init() {
	statsCmd.Flags().BoolVar(&statsPlain, "plain", false, "print once without the interactive view")
	rootCmd.AddCommand(statsCmd)
}

func buildReport(st *store.Store, now time.Time) report.Report {
	rec := st.LoadDay(track.DateKey(now))
	return report.Build(rec, st.AggregateTotals(now))
}

// ── Styles ────────────

var (
	statsTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("15")).
			Background(lipgloss.Color("62")).
			Padding(0, 2)

	statsSectionStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("86"))

	statsLabelStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33")).
			Bold(true)

	statsDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))

	statsTimeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("178"))

	statsHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// ── Model ────────────

const statsRefreshInterval = 2 * time.Second

type statsTickMsg time.Time

type statsModel struct {
	store    *store.Store
	rep      report.Report
	viewport viewport.Model
	width    int
	height   int
	ready    bool
}

func newStatsModel(st *store.Store) statsModel {
	return statsModel{store: st, rep: buildReport(st, time.Now())}
}

func statsTick() tea.Cmd {
	return tea.Tick(statsRefreshInterval, func(t time.Time) tea.Msg {
		return statsTickMsg(t)
	})
}

func (m statsModel) Init() tea.Cmd { return statsTick() }

func (m statsModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.rep = buildReport(m.store, time.Now())
			m.refreshContent()
			return m, nil
		}
		var cmd tea.Cmd
		m.viewport, cmd = m.viewport.Update(msg)
		return m, cmd

	case statsTickMsg:
		m.rep = buildReport(m.store, time.Now())
		m.refreshContent()
		return m, statsTick()

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.viewport = viewport.New(msg.Width, msg.Height-3)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width
			m.viewport.Height = msg.Height - 3
		}
		m.refreshContent()
		return m, nil
	}
	return m, nil
}

func (m *statsModel) refreshContent() {
	if m.ready {
		m.viewport.SetContent(renderSections(m.rep))
	}
}

func (m statsModel) View() string {
	if !m.ready {
		return "Loading…"
	}
	title := statsTitleStyle.Width(m.width).Render("  chronotap  " + m.rep.Date)
	hint := statsHintStyle.Render("  ↑/↓ scroll  r refresh  q quit")
	return title + "\n" + m.viewport.View() + "\n" + hint
}

// ── Rendering ────────────

func renderSections(r report.Report) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(fmt.Sprintf("  %s %s    %s %s    %s %s    %s %d\n\n",
		statsLabelStyle.Render("total"), statsTimeStyle.Render(fmtDur(r.TotalTime)),
		statsLabelStyle.Render("active"), statsTimeStyle.Render(fmtDur(r.ActiveTime)),
		statsLabelStyle.Render("idle"), statsTimeStyle.Render(fmtDur(r.IdleTime)),
		statsLabelStyle.Render("sessions"), r.SessionCount))

	b.WriteString(statsSectionStyle.Render("  Repositories") + "\n")
	if len(r.Repositories) == 0 {
		b.WriteString(statsDimStyle.Render("    nothing tracked yet") + "\n")
	}
	for _, repo := range r.Repositories {
		name := repo.Name
		if name == "" {
			name = repo.Path
		}
		b.WriteString(fmt.Sprintf("    %-28s %10s  %s  %s\n",
			name,
			statsTimeStyle.Render(fmtDur(repo.TimeSpent)),
			statsDimStyle.Render(fmt.Sprintf("%d files", repo.FileCount)),
			statsDimStyle.Render(strings.Join(repo.Branches, ", "))))
	}

	b.WriteString("\n" + statsSectionStyle.Render("  Languages") + "\n")
	for _, lang := range r.Languages {
		b.WriteString(fmt.Sprintf("    %-20s %10s  %5.1f%%\n",
			lang.Language, statsTimeStyle.Render(fmtDur(lang.TimeSpent)), lang.Percent))
	}

	b.WriteString("\n" + statsSectionStyle.Render("  Windows") + "\n")
	b.WriteString(fmt.Sprintf("    %-14s %s\n", "this week", fmtDur(r.Totals.WeekToDate)))
	b.WriteString(fmt.Sprintf("    %-14s %s\n", "this month", fmtDur(r.Totals.MonthToDate)))
	b.WriteString(fmt.Sprintf("    %-14s %s\n", "this year", fmtDur(r.Totals.YearToDate)))
	b.WriteString(fmt.Sprintf("    %-14s %s\n", "last 7 days", fmtDur(r.Totals.Last7Days)))
	b.WriteString(fmt.Sprintf("    %-14s %s\n", "all time", fmtDur(r.Totals.Overall)))

	return b.String()
}

func renderPlain(r report.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s  total %s  active %s  idle %s  sessions %d\n",
		r.Date, fmtDur(r.TotalTime), fmtDur(r.ActiveTime), fmtDur(r.IdleTime), r.SessionCount)
	for _, repo := range r.Repositories {
		fmt.Fprintf(&b, "repo  %-30s %10s  %d files  %s\n",
			repo.Path, fmtDur(repo.TimeSpent), repo.FileCount, strings.Join(repo.Branches, ","))
	}
	for _, lang := range r.Languages {
		fmt.Fprintf(&b, "lang  %-20s %10s  %5.1f%%\n", lang.Language, fmtDur(lang.TimeSpent), lang.Percent)
	}
	fmt.Fprintf(&b, "week %s  month %s  year %s  last7 %s  all %s\n",
		fmtDur(r.Totals.WeekToDate), fmtDur(r.Totals.MonthToDate),
		fmtDur(r.Totals.YearToDate), fmtDur(r.Totals.Last7Days), fmtDur(r.Totals.Overall))
	return b.String()
}

// fmtDur renders a duration as h:mm or m:ss for short spans.
func fmtDur(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %02dm", h, m)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
