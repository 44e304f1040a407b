// Package viz renders a live terminal view of a single propagating
// candidate: per-step readouts and an energy history graph.
package viz

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/mlindner/cosray/internal/core"
)

const historyCapacity = 600

var (
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("86")).Bold(true).MarginBottom(1)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(14)
	valueStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	graphStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("49")).Padding(1, 0)
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240")).MarginTop(1)
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

type TickMsg time.Time

// Model steps one candidate through the module pipeline on every tick and
// renders its state.
type Model struct {
	modules   []core.Module
	candidate *core.Candidate

	running       bool
	err           error
	steps         int
	energyHistory []float64
}

func NewModel(candidate *core.Candidate, modules []core.Module) Model {
	return Model{
		modules:       modules,
		candidate:     candidate,
		running:       true,
		energyHistory: make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/30, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		}
	case TickMsg:
		if m.running && m.err == nil && m.candidate.Active {
			m.step()
		}
		return m, tick()
	}
	return m, nil
}

func (m *Model) step() {
	for _, mod := range m.modules {
		if err := mod.Process(m.candidate); err != nil {
			m.err = err
			return
		}
		if !m.candidate.Active {
			break
		}
	}
	m.steps++
	m.energyHistory = append(m.energyHistory, m.candidate.Current.Energy/core.EeV)
	if len(m.energyHistory) > historyCapacity {
		m.energyHistory = m.energyHistory[1:]
	}
}

func (m Model) View() string {
	c := m.candidate
	var b strings.Builder

	b.WriteString(headerStyle.Render("cosray live"))
	b.WriteString("\n")

	rows := []struct {
		label string
		value string
	}{
		{"species", fmt.Sprintf("id %d (A=%d Z=%d)", c.Current.ID, core.MassNumber(c.Current.ID), core.ChargeNumber(c.Current.ID))},
		{"energy", fmt.Sprintf("%.4g EeV", c.Current.Energy/core.EeV)},
		{"gamma", fmt.Sprintf("%.4g", c.Current.LorentzFactor())},
		{"radius", fmt.Sprintf("%.4g Mpc", c.Current.Position.R()/core.Megaparsec)},
		{"distance", fmt.Sprintf("%.4g Mpc", c.TrajectoryLength()/core.Megaparsec)},
		{"step", fmt.Sprintf("%.4g Mpc", c.CurrentStep()/core.Megaparsec)},
		{"secondaries", fmt.Sprintf("%d", len(c.Secondaries))},
		{"steps", fmt.Sprintf("%d", m.steps)},
	}
	for _, r := range rows {
		b.WriteString(labelStyle.Render(r.label))
		b.WriteString(valueStyle.Render(r.value))
		b.WriteString("\n")
	}

	if len(m.energyHistory) > 1 {
		graph := asciigraph.Plot(m.energyHistory,
			asciigraph.Height(10),
			asciigraph.Width(70),
			asciigraph.Caption("energy [EeV]"))
		b.WriteString(graphStyle.Render(graph))
		b.WriteString("\n")
	}

	if m.err != nil {
		b.WriteString(errStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	} else if !c.Active {
		b.WriteString(valueStyle.Render("candidate deactivated: " + c.DeactivateReason()))
		b.WriteString("\n")
	}

	b.WriteString(helpStyle.Render("space pause/resume · q quit"))
	return b.String()
}

// Run starts the live view and blocks until it exits.
func Run(candidate *core.Candidate, modules []core.Module) error {
	_, err := tea.NewProgram(NewModel(candidate, modules)).Run()
	return err
}
