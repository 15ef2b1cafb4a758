package board

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

type pickerModel struct {
	title   string
	detail  string
	options []string
	cursor  int
	chosen  int // -1 = no choice yet or quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			m.chosen = -1
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.options)-1 {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	var b strings.Builder
	b.WriteString(pickerTitleStyle.Render(m.title))
	b.WriteByte('\n')
	if m.detail != "" {
		b.WriteString(pickerItemStyle.Render(hintStyle.Render(m.detail)))
		b.WriteString("\n\n")
	}
	for i, opt := range m.options {
		if i == m.cursor {
			b.WriteString(pickerSelectedStyle.Render("> " + opt))
		} else {
			b.WriteString(pickerItemStyle.Render(opt))
		}
		b.WriteByte('\n')
	}
	b.WriteString(pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit"))
	return b.String()
}

// RunChoicePicker shows title, an optional detail line and options, and
// returns the chosen index or -1 if the user quit.
func RunChoicePicker(title, detail string, options []string) (int, error) {
	m := pickerModel{
		title:   title,
		detail:  detail,
		options: options,
		chosen:  -1,
	}

	result, err := tea.NewProgram(m).Run()
	if err != nil {
		return -1, err
	}
	return result.(pickerModel).chosen, nil
}
