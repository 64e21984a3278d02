// Package tui is the interactive mode: a live connection table with
// sorting, substring filtering, and pause, refreshed on a fixed tick.
package tui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/djdarcy/open-ports-and-programs/internal/scan"
	"github.com/djdarcy/open-ports-and-programs/pkg/model"
)

var baseStyle = lipgloss.NewStyle().
	BorderStyle(lipgloss.NormalBorder()).
	BorderForeground(lipgloss.Color("240"))

type tickMsg time.Time

type recordsMsg []model.Record

const (
	colProto = iota
	colPort
	colLocal
	colRemote
	colState
	colPID
	colProgram
)

type tuiModel struct {
	source   scan.Source
	filter   scan.Filter
	interval time.Duration

	table       table.Model
	filterInput textinput.Model
	filtering   bool
	records     []model.Record
	paused      bool
	sortColumn  int
	sortAsc     bool
	err         error
	height      int
}

func newModel(source scan.Source, filter scan.Filter, interval time.Duration) tuiModel {
	ti := textinput.New()
	ti.Placeholder = "Filter..."
	ti.CharLimit = 50
	ti.Width = 30

	m := tuiModel{
		source:      source,
		filter:      filter,
		interval:    interval,
		filterInput: ti,
		sortColumn:  colPort,
		sortAsc:     true,
	}
	m.initTable()
	return m
}

func (m *tuiModel) initTable() {
	columns := []table.Column{
		{Title: "Proto", Width: 6},
		{Title: "Port", Width: 8},
		{Title: "Local Address", Width: 24},
		{Title: "Remote Address", Width: 28},
		{Title: "State", Width: 12},
		{Title: "PID", Width: 8},
		{Title: "Program", Width: 28},
	}

	indicator := " ↑"
	if !m.sortAsc {
		indicator = " ↓"
	}
	columns[m.sortColumn].Title += indicator

	height := m.height - 8
	if height < 5 {
		height = 5
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(false)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(true)
	t.SetStyles(s)

	m.table = t
}

func (m tuiModel) Init() tea.Cmd {
	return tea.Batch(m.tick(), m.refresh())
}

func (m tuiModel) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) refresh() tea.Cmd {
	if m.paused {
		return nil
	}
	source, filter := m.source, m.filter
	return func() tea.Msg {
		records, err := source.Snapshot()
		if err != nil {
			return err
		}
		return recordsMsg(filter.Apply(records))
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.filtering {
		switch msg := msg.(type) {
		case tea.KeyMsg:
			switch msg.String() {
			case "enter", "esc":
				m.filtering = false
				m.filterInput.Blur()
				m.updateRows()
				return m, nil
			}
		}
		m.filterInput, cmd = m.filterInput.Update(msg)
		m.updateRows()
		return m, cmd
	}

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "p":
			m.paused = !m.paused
			return m, nil
		case "/":
			m.filtering = true
			m.filterInput.Focus()
			return m, nil
		case "s":
			m.sortColumn = (m.sortColumn + 1) % len(m.table.Columns())
			m.sortAsc = true
			m.initTable()
			m.updateRows()
			return m, nil
		case "r":
			m.sortAsc = !m.sortAsc
			m.initTable()
			m.updateRows()
			return m, nil
		}
	case tickMsg:
		return m, tea.Batch(m.tick(), m.refresh())
	case recordsMsg:
		m.records = msg
		m.err = nil
		m.updateRows()
	case error:
		m.err = msg
	case tea.WindowSizeMsg:
		m.height = msg.Height
		m.initTable()
		m.updateRows()
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m *tuiModel) updateRows() {
	filterValue := strings.ToLower(m.filterInput.Value())

	var rows []table.Row
	for _, r := range m.records {
		program := r.Program
		if program == "" {
			program = "<unknown>"
		}
		pid := "-"
		if r.PID > 0 {
			pid = strconv.Itoa(r.PID)
		}
		remote := "-"
		if r.RemoteAddr != "" {
			remote = fmt.Sprintf("%s:%d", r.RemoteAddr, r.RemotePort)
		}
		state := string(r.State)
		if state == "" {
			state = "-"
		}

		row := table.Row{
			string(r.Protocol),
			strconv.Itoa(r.LocalPort),
			fmt.Sprintf("%s:%d", r.LocalAddr, r.LocalPort),
			remote,
			state,
			pid,
			program,
		}

		if filterValue != "" {
			match := false
			for _, f := range row {
				if strings.Contains(strings.ToLower(f), filterValue) {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}

		rows = append(rows, row)
	}

	sortRows(rows, m.sortColumn, m.sortAsc)
	m.table.SetRows(rows)
}

func sortRows(rows []table.Row, column int, asc bool) {
	numeric := column == colPort || column == colPID

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i][column], rows[j][column]
		if numeric {
			ai, _ := strconv.Atoi(a)
			bi, _ := strconv.Atoi(b)
			if asc {
				return ai < bi
			}
			return ai > bi
		}
		if asc {
			return a < b
		}
		return a > b
	})
}

func (m tuiModel) View() string {
	var b strings.Builder

	b.WriteString(baseStyle.Render(m.table.View()))
	b.WriteString("\n")

	if m.filtering {
		b.WriteString("Filter: " + m.filterInput.View() + "\n")
	} else {
		status := "q quit · p pause · / filter · s sort column · r reverse"
		if m.paused {
			status = "PAUSED · " + status
		}
		if m.err != nil {
			status = "error: " + m.err.Error() + " · " + status
		}
		b.WriteString(status + "\n")
	}

	return b.String()
}

// Run blocks in the interactive table until the user quits.
func Run(source scan.Source, filter scan.Filter, interval time.Duration) error {
	p := tea.NewProgram(newModel(source, filter, interval), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
