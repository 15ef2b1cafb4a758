package source

import (
	"testing"

	"github.com/fairchance/jobintake/internal/model"
)

func TestClassify(t *testing.T) {
	c := NewDefaultClassifier()

	tests := []struct {
		name string
		url  string
		want model.HandlingMode
	}{
		{"indeed viewjob", "https://www.indeed.com/viewjob?jk=abc123", model.ModeQuickEntry},
		{"indeed canada", "https://ca.indeed.ca/viewjob?jk=1", model.ModeQuickEntry},
		{"indeed uk", "https://uk.indeed.co.uk/jobs?q=forklift", model.ModeQuickEntry},
		{"upper case host", "HTTPS://WWW.INDEED.COM/viewjob?jk=X", model.ModeQuickEntry},
		{"adp", "https://workforcenow.adp.com/mascsr/default/mdf/recruitment/recruitment.html?cid=1", model.ModeManualPaste},
		{"workday", "https://acme.wd5.myworkdayjobs.com/en-US/careers/job/123", model.ModeManualPaste},
		{"greenhouse", "https://boards.greenhouse.io/acme/jobs/12345", model.ModeManualPaste},
		{"lever", "https://jobs.lever.co/acme/uuid", model.ModeManualPaste},
		{"icims", "https://careers-acme.icims.com/jobs/1/job", model.ModeManualPaste},
		{"employer site", "https://acme.example/job/123", model.ModeAuto},
		{"empty", "", model.ModeAuto},
		{"garbage", "not a url at all", model.ModeAuto},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := c.Classify(tt.url); got != tt.want {
				t.Errorf("Classify(%q) = %q, want %q", tt.url, got, tt.want)
			}
		})
	}
}

func TestClassify_QuickEntryWinsOverManualOnly(t *testing.T) {
	c := NewDefaultClassifier()

	urls := []string{
		"https://www.indeed.com/rc/clk?jk=1&from=greenhouse.io",
		"https://www.indeed.com/viewjob?jk=2&src=myworkday",
		"https://indeed.co/redirect?to=https://jobs.lever.co/acme/1",
	}
	for _, u := range urls {
		got := c.Classify(u)
		if got == model.ModeManualPaste {
			t.Errorf("Classify(%q) = manual-paste, quick entry must take precedence", u)
		}
		if got != model.ModeQuickEntry {
			t.Errorf("Classify(%q) = %q, want quick-entry", u, got)
		}
	}
}

func TestClassify_SubstituteTables(t *testing.T) {
	c := NewClassifier([]string{"Board.Example"}, []string{"ats.example"})

	if got := c.Classify("https://board.example/j/1"); got != model.ModeQuickEntry {
		t.Errorf("custom quick entry = %q", got)
	}
	if got := c.Classify("https://ats.example/j/1"); got != model.ModeManualPaste {
		t.Errorf("custom manual only = %q", got)
	}
	// Default patterns are not consulted.
	if got := c.Classify("https://www.indeed.com/viewjob?jk=1"); got != model.ModeAuto {
		t.Errorf("indeed with substitute tables = %q, want auto", got)
	}
}

func TestTrackingKey(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://www.indeed.com/viewjob?jk=abc123", "abc123"},
		{"https://www.indeed.com/jobs?q=cook&vjk=def456", "def456"},
		{"https://www.indeed.com/viewjob?jk=first&vjk=second", "first"},
		{"https://www.indeed.com/viewjob", ""},
		{"https://acme.example/job/123", ""},
		{"%zz://bad", ""},
	}
	for _, tt := range tests {
		if got := TrackingKey(tt.url); got != tt.want {
			t.Errorf("TrackingKey(%q) = %q, want %q", tt.url, got, tt.want)
		}
	}
}
