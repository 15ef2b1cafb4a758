package board

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/fairchance/jobintake/internal/model"
)

func strPtr(s string) *string { return &s }

func sampleJobs() []model.Job {
	return []model.Job{
		{
			ID: "1", Title: "Line Cook", Company: "Taco Bell", Location: "Fresno, CA",
			Grade: model.GradeBest, Category: model.CategoryFoodService, Salary: "$17/hr",
			URL: "https://jobs.example.com/1", DirectURL: "https://apply.example.com/1",
			GradeReason: "Fair chance employer", CEOMatch: "Food service crews",
			FrequentHirerTag: strPtr("taco_bell"),
			SubmittedAt:      time.Date(2025, 3, 14, 20, 0, 0, 0, time.UTC),
		},
		{
			ID: "2", Title: "Needs Review", Company: "Unknown", Location: "Unknown",
			Grade: model.GradeGood, URL: "https://jobs.example.com/2", NeedsReview: true,
		},
	}
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sized(m boardModel) boardModel {
	next, _ := m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return next.(boardModel)
}

func press(t *testing.T, m boardModel, keys ...string) boardModel {
	t.Helper()
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(boardModel)
	}
	return m
}

func TestBoard_ListShowsCounts(t *testing.T) {
	jobs := sampleJobs()
	m := sized(newBoardModel(jobs, jobs[:1], nil))

	view := m.View()
	if !strings.Contains(view, "All Jobs (2)") || !strings.Contains(view, "On the Board (1)") {
		t.Errorf("view missing headers:\n%s", view)
	}
	if !strings.Contains(view, "1 hidden") {
		t.Errorf("view missing hidden count:\n%s", view)
	}
}

func TestBoard_CursorClampsAndOpensDetail(t *testing.T) {
	jobs := sampleJobs()
	m := sized(newBoardModel(jobs, jobs, nil))

	m = press(t, m, "j", "j", "j")
	if m.leftCursor != 1 {
		t.Fatalf("leftCursor = %d, want 1", m.leftCursor)
	}
	m = press(t, m, "enter")
	if m.view != viewDetail || m.detailJob.ID != "2" {
		t.Fatalf("view = %v, detail = %q", m.view, m.detailJob.ID)
	}
	m = press(t, m, "esc")
	if m.view != viewList {
		t.Error("esc should return to the list")
	}
}

func TestBoard_TabSwitchesPane(t *testing.T) {
	jobs := sampleJobs()
	m := sized(newBoardModel(jobs, jobs[:1], nil))
	m = press(t, m, "tab")
	if m.activePane != 1 {
		t.Fatalf("activePane = %d", m.activePane)
	}
	m = press(t, m, "j", "enter")
	if m.detailJob.ID != "1" {
		t.Errorf("detail = %q, want 1", m.detailJob.ID)
	}
}

func TestBoard_RenderDetail(t *testing.T) {
	jobs := sampleJobs()
	m := sized(newBoardModel(jobs, jobs, nil))
	m = press(t, m, "enter")

	out := m.renderDetail()
	for _, want := range []string{"Line Cook", "Taco Bell", "$17/hr", "taco_bell", "https://apply.example.com/1", "Fair chance employer", "Food service crews", "2025-03-14 12:00 PT"} {
		if !strings.Contains(out, want) {
			t.Errorf("detail missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Needs review") {
		t.Error("reviewed job must not carry the review warning")
	}
}

func TestBoard_RenderDetailHirerLabel(t *testing.T) {
	jobs := sampleJobs()
	m := newBoardModel(jobs, jobs, nil)
	m.hirerLabel = func(slug string) string { return "🌮 Taco Bell (" + slug + ")" }
	m = press(t, sized(m), "enter")

	if out := m.renderDetail(); !strings.Contains(out, "🌮 Taco Bell (taco_bell)") {
		t.Errorf("detail missing hirer label:\n%s", out)
	}
}

func TestBoard_MarkReviewed(t *testing.T) {
	jobs := sampleJobs()
	var got string
	reviewer := func(_ context.Context, id string) error {
		got = id
		return nil
	}
	m := sized(newBoardModel(jobs, jobs, reviewer))
	m = press(t, m, "j", "enter")

	_, cmd := m.Update(key("v"))
	if cmd == nil {
		t.Fatal("expected a review command")
	}
	msg := cmd()
	if got != "2" {
		t.Errorf("reviewer called with %q", got)
	}
	next, _ := m.Update(msg)
	m = next.(boardModel)
	if m.detailJob.NeedsReview || m.allJobs[1].NeedsReview {
		t.Error("job still flagged for review")
	}
}

func TestBoard_MarkReviewedError(t *testing.T) {
	jobs := sampleJobs()
	m := sized(newBoardModel(jobs, jobs, nil))
	next, _ := m.Update(reviewedMsg{id: "2", err: errors.New("locked")})
	m = next.(boardModel)
	if !strings.Contains(m.statusMsg, "locked") || !m.allJobs[1].NeedsReview {
		t.Errorf("statusMsg = %q", m.statusMsg)
	}
}

func TestRenderJobs_Empty(t *testing.T) {
	if got := renderJobs(nil, 0, true); got != "  (no jobs)" {
		t.Errorf("got %q", got)
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("one two three four", 9)
	if got != "one two\nthree\nfour" {
		t.Errorf("got %q", got)
	}
}

func TestPicker(t *testing.T) {
	m := pickerModel{title: "Add anyway?", options: []string{"Add for review", "Skip"}, chosen: -1}
	next, _ := m.Update(key("j"))
	next, _ = next.Update(key("j"))
	next, _ = next.Update(key("enter"))
	if got := next.(pickerModel).chosen; got != 1 {
		t.Errorf("chosen = %d, want 1", got)
	}

	next, _ = m.Update(key("q"))
	if got := next.(pickerModel).chosen; got != -1 {
		t.Errorf("chosen after quit = %d", got)
	}
}

func TestLoader_DoneAndCancel(t *testing.T) {
	m := loaderModel[int]{label: "Analyzing"}
	next, cmd := m.Update(loadDoneMsg[int]{value: 7})
	final := next.(loaderModel[int])
	if final.result != 7 || !final.done || cmd == nil {
		t.Errorf("final = %+v", final)
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	if err := next.(loaderModel[int]).err; !errors.Is(err, ErrCancelled) {
		t.Errorf("err = %v", err)
	}
}
