package board

import (
	"context"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/fairchance/jobintake/internal/model"
)

// Submission times are shown in the program's local time.
var pacific = time.FixedZone("PT", -8*60*60)

// Lines per job item in the list view (title + subtitle + blank separator).
const jobItemHeight = 3

type viewState int

const (
	viewList viewState = iota
	viewDetail
)

var (
	activeBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("39"))

	inactiveBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("240"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Padding(0, 1)

	activeHeaderStyle   = headerStyle.Foreground(lipgloss.Color("39"))
	inactiveHeaderStyle = headerStyle.Foreground(lipgloss.Color("240"))

	statusBarStyle = lipgloss.NewStyle().
			Padding(0, 1).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("236"))

	jobTitleStyle    = lipgloss.NewStyle().Bold(true)
	jobSubtitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))

	selectedJobTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("24"))

	selectedJobSubtitleStyle = lipgloss.NewStyle().
					Foreground(lipgloss.Color("252")).
					Background(lipgloss.Color("24"))

	detailLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Width(16)

	detailTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				MarginBottom(1)

	dividerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
)

// gradeColors follow the board's best-to-poor palette.
var gradeColors = map[model.Grade]lipgloss.Color{
	model.GradeBest:   lipgloss.Color("42"),
	model.GradeBetter: lipgloss.Color("39"),
	model.GradeGood:   lipgloss.Color("226"),
	model.GradeFair:   lipgloss.Color("208"),
	model.GradePoor:   lipgloss.Color("196"),
}

// Reviewer clears the needs-review flag of a stored job.
type Reviewer func(ctx context.Context, id string) error

type reviewedMsg struct {
	id  string
	err error
}

type boardModel struct {
	allJobs       []model.Job
	boardJobs     []model.Job
	leftViewport  viewport.Model
	rightViewport viewport.Model
	activePane    int // 0=left, 1=right
	leftCursor    int
	rightCursor   int
	width         int
	height        int
	ready         bool

	view           viewState
	detailJob      model.Job
	detailViewport viewport.Model
	statusMsg      string

	reviewer   Reviewer
	hirerLabel func(slug string) string
}

func newBoardModel(allJobs, boardJobs []model.Job, reviewer Reviewer) boardModel {
	return boardModel{
		allJobs:   allJobs,
		boardJobs: boardJobs,
		reviewer:  reviewer,
	}
}

func (m boardModel) Init() tea.Cmd {
	return nil
}

func (m boardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.recalcLayout()
		if m.view == viewDetail {
			m.detailViewport.Width = m.width - 4
			m.detailViewport.Height = m.height - 4
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case reviewedMsg:
		if msg.err != nil {
			m.statusMsg = fmt.Sprintf("mark reviewed failed: %v", msg.err)
		} else {
			m.statusMsg = "marked as reviewed"
			m.markReviewed(msg.id)
		}
		m.recalcContent()
		if m.view == viewDetail {
			m.detailViewport.SetContent(m.renderDetail())
		}
		return m, nil

	case tea.KeyMsg:
		if m.view == viewDetail {
			return m.updateDetailView(msg)
		}
		return m.updateListView(msg)
	}

	return m, nil
}

func (m boardModel) updateListView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "esc":
		return m, tea.Quit
	case "tab", "left", "right":
		m.activePane = 1 - m.activePane
		m.recalcContent()
		return m, nil
	case "up", "k":
		m.moveCursor(-1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "down", "j":
		m.moveCursor(1)
		m.recalcContent()
		m.ensureCursorVisible()
		return m, nil
	case "enter":
		return m.openDetailView()
	}

	var cmd tea.Cmd
	if m.activePane == 0 {
		m.leftViewport, cmd = m.leftViewport.Update(msg)
	} else {
		m.rightViewport, cmd = m.rightViewport.Update(msg)
	}
	return m, cmd
}

func (m boardModel) updateDetailView(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc", "backspace":
		m.view = viewList
		m.statusMsg = ""
		return m, nil
	case "o":
		openURL(applyURL(m.detailJob))
		return m, nil
	case "v":
		if m.reviewer != nil && m.detailJob.NeedsReview {
			return m, m.reviewCmd(m.detailJob.ID)
		}
		return m, nil
	}

	var cmd tea.Cmd
	m.detailViewport, cmd = m.detailViewport.Update(msg)
	return m, cmd
}

func (m boardModel) reviewCmd(id string) tea.Cmd {
	reviewer := m.reviewer
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return reviewedMsg{id: id, err: reviewer(ctx, id)}
	}
}

func (m *boardModel) markReviewed(id string) {
	for _, jobs := range [][]model.Job{m.allJobs, m.boardJobs} {
		for i := range jobs {
			if jobs[i].ID == id {
				jobs[i].NeedsReview = false
			}
		}
	}
	if m.detailJob.ID == id {
		m.detailJob.NeedsReview = false
	}
}

func (m *boardModel) moveCursor(delta int) {
	if m.activePane == 0 {
		m.leftCursor = clamp(m.leftCursor+delta, 0, max(len(m.allJobs)-1, 0))
	} else {
		m.rightCursor = clamp(m.rightCursor+delta, 0, max(len(m.boardJobs)-1, 0))
	}
}

func (m *boardModel) ensureCursorVisible() {
	vp, cursor := &m.leftViewport, m.leftCursor
	if m.activePane == 1 {
		vp, cursor = &m.rightViewport, m.rightCursor
	}

	cursorTop := cursor * jobItemHeight
	cursorBottom := cursorTop + jobItemHeight - 1

	if cursorTop < vp.YOffset {
		vp.SetYOffset(cursorTop)
	} else if cursorBottom >= vp.YOffset+vp.Height {
		vp.SetYOffset(cursorBottom - vp.Height + 1)
	}
}

func (m boardModel) openDetailView() (tea.Model, tea.Cmd) {
	jobs := m.activeJobs()
	if len(jobs) == 0 {
		return m, nil
	}
	m.view = viewDetail
	m.detailJob = jobs[m.activeCursor()]
	m.statusMsg = ""
	m.detailViewport = viewport.New(m.width-4, m.height-4)
	m.detailViewport.SetContent(m.renderDetail())
	return m, nil
}

func (m *boardModel) recalcLayout() {
	// 2 border chars per pane + 1 gap between panes.
	paneWidth := max((m.width-5)/2, 20)
	// Header + border top/bottom + status bar.
	paneHeight := max(m.height-4, 5)

	if !m.ready {
		m.leftViewport = viewport.New(paneWidth, paneHeight)
		m.rightViewport = viewport.New(paneWidth, paneHeight)
		m.ready = true
	} else {
		m.leftViewport.Width = paneWidth
		m.leftViewport.Height = paneHeight
		m.rightViewport.Width = paneWidth
		m.rightViewport.Height = paneHeight
	}
	m.recalcContent()
}

func (m *boardModel) recalcContent() {
	m.leftViewport.SetContent(renderJobs(m.allJobs, m.leftCursor, m.activePane == 0))
	m.rightViewport.SetContent(renderJobs(m.boardJobs, m.rightCursor, m.activePane == 1))
}

func (m boardModel) activeJobs() []model.Job {
	if m.activePane == 0 {
		return m.allJobs
	}
	return m.boardJobs
}

func (m boardModel) activeCursor() int {
	if m.activePane == 0 {
		return m.leftCursor
	}
	return m.rightCursor
}

func (m boardModel) View() string {
	if !m.ready {
		return "Initializing..."
	}
	if m.view == viewDetail {
		return m.viewDetail()
	}
	return m.viewList()
}

func (m boardModel) viewList() string {
	paneWidth := m.leftViewport.Width

	leftHeader := fmt.Sprintf(" All Jobs (%d)", len(m.allJobs))
	rightHeader := fmt.Sprintf(" On the Board (%d)", len(m.boardJobs))

	leftHeaderStyle, rightHeaderStyle := activeHeaderStyle, inactiveHeaderStyle
	leftBorder, rightBorder := activeBorderStyle, inactiveBorderStyle
	if m.activePane == 1 {
		leftHeaderStyle, rightHeaderStyle = inactiveHeaderStyle, activeHeaderStyle
		leftBorder, rightBorder = inactiveBorderStyle, activeBorderStyle
	}

	headerRow := lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth+2).Render(leftHeaderStyle.Render(leftHeader)),
		" ",
		lipgloss.NewStyle().Width(paneWidth+2).Render(rightHeaderStyle.Render(rightHeader)),
	)
	panes := lipgloss.JoinHorizontal(lipgloss.Top,
		leftBorder.Width(paneWidth).Render(m.leftViewport.View()),
		" ",
		rightBorder.Width(paneWidth).Render(m.rightViewport.View()),
	)

	hidden := len(m.allJobs) - len(m.boardJobs)
	statusText := fmt.Sprintf(" %d total | %d on board | %d hidden    ←/→/Tab switch  ↑/↓ cursor  Enter detail  q quit",
		len(m.allJobs), len(m.boardJobs), hidden)
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return headerRow + "\n" + panes + "\n" + statusBar
}

func (m boardModel) viewDetail() string {
	title := detailTitleStyle.Render("Job Details")
	if m.statusMsg != "" {
		title += "  " + hintStyle.Render(m.statusMsg)
	}

	content := activeBorderStyle.Width(m.width - 2).Render(m.detailViewport.View())

	statusText := " o open apply link  esc/backspace back  ↑/↓ scroll  q quit"
	if m.reviewer != nil && m.detailJob.NeedsReview {
		statusText = " o open apply link  v mark reviewed  esc/backspace back  ↑/↓ scroll  q quit"
	}
	statusBar := statusBarStyle.Width(m.width).Render(statusText)

	return title + "\n" + content + "\n" + statusBar
}

func (m boardModel) renderDetail() string {
	j := m.detailJob
	var b strings.Builder

	addField := func(label, value string) {
		if value == "" {
			return
		}
		b.WriteString(detailLabelStyle.Render(label))
		b.WriteString(value)
		b.WriteByte('\n')
	}

	addField("Title", j.Title)
	addField("Company", j.Company)
	addField("Location", j.Location)
	addField("Grade", gradeBadge(j.Grade))
	addField("Category", string(j.Category))
	addField("Salary", j.Salary)
	addField("Diploma", yesNo(j.RequiresDiploma))
	addField("License", yesNo(j.RequiresLicense))
	if j.FrequentHirerTag != nil {
		hirer := *j.FrequentHirerTag
		if m.hirerLabel != nil {
			hirer = m.hirerLabel(hirer)
		}
		addField("Frequent Hirer", hirer)
	}

	b.WriteByte('\n')
	addField("Posted", j.DatePosted)
	if j.ExpirationDate != nil {
		addField("Closes", *j.ExpirationDate)
	}
	if !j.SubmittedAt.IsZero() {
		addField("Submitted", j.SubmittedAt.In(pacific).Format("2006-01-02 15:04 MST"))
	}
	addField("Submitted By", j.SubmittedBy)
	addField("Apply Time", j.ApplyTimeEstimate)

	b.WriteByte('\n')
	addField("Job URL", j.URL)
	if j.DirectURL != "" && j.DirectURL != j.URL {
		addField("Apply URL", j.DirectURL)
	}

	if j.NeedsReview {
		b.WriteByte('\n')
		b.WriteString(warnStyle.Render("⚠ Needs review: added without a full analysis") + "\n")
	}

	wrapWidth := max(m.width-8, 20)
	divider := func(label string) string {
		fill := strings.Repeat("─", max(wrapWidth-len(label), 3))
		return dividerStyle.Render(label + fill)
	}
	if j.GradeReason != "" {
		b.WriteByte('\n')
		b.WriteString(divider("── Why this grade ") + "\n\n")
		b.WriteString(wordWrap(j.GradeReason, wrapWidth) + "\n")
	}
	if j.CEOMatch != "" {
		b.WriteByte('\n')
		b.WriteString(divider("── Program match ") + "\n\n")
		b.WriteString(wordWrap(j.CEOMatch, wrapWidth) + "\n")
	}

	return b.String()
}

func renderJobs(jobs []model.Job, cursor int, isActive bool) string {
	if len(jobs) == 0 {
		return "  (no jobs)"
	}

	var b strings.Builder
	for i, j := range jobs {
		titleSt, subtitleSt, prefix := jobTitleStyle, jobSubtitleStyle, "  "
		if isActive && i == cursor {
			titleSt, subtitleSt, prefix = selectedJobTitleStyle, selectedJobSubtitleStyle, "> "
		}

		title := j.Title
		if j.NeedsReview {
			title = "📝 " + title
		}
		b.WriteString(prefix)
		b.WriteString(titleSt.Render(title))
		b.WriteByte('\n')

		b.WriteString(prefix)
		b.WriteString(subtitleSt.Render(fmt.Sprintf("%s · %s · %s", j.Company, j.Location, strings.ToUpper(string(j.Grade)))))
		b.WriteByte('\n')

		if i < len(jobs)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

func gradeBadge(g model.Grade) string {
	if g == "" {
		return ""
	}
	color, ok := gradeColors[g]
	if !ok {
		return string(g)
	}
	return lipgloss.NewStyle().Bold(true).Foreground(color).Render(strings.ToUpper(string(g)))
}

func applyURL(j model.Job) string {
	if j.DirectURL != "" {
		return j.DirectURL
	}
	return j.URL
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}

func wordWrap(text string, width int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}
	var lines []string
	line := words[0]
	for _, w := range words[1:] {
		if len(line)+1+len(w) <= width {
			line += " " + w
		} else {
			lines = append(lines, line)
			line = w
		}
	}
	lines = append(lines, line)
	return strings.Join(lines, "\n")
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// openURL opens url in the default system browser, fire-and-forget.
func openURL(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("cmd", "/c", "start", url)
	default:
		return
	}
	_ = cmd.Start()
}

// RunBoard launches the split-pane board browser. allJobs includes expired
// entries; boardJobs is what the public board shows. reviewer may be nil,
// in which case jobs cannot be marked reviewed from the detail view.
// hirerLabel renders frequent hirer slugs; nil shows the bare slug.
func RunBoard(allJobs, boardJobs []model.Job, reviewer Reviewer, hirerLabel func(slug string) string) error {
	m := newBoardModel(allJobs, boardJobs, reviewer)
	m.hirerLabel = hirerLabel
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
