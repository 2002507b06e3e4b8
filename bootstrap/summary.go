package bootstrap

import (
	"fmt"
	"io"
	"time"
)

// SummaryItem is one key/value line of a summary section.
type SummaryItem struct {
	Key   string
	Value string
}

// SummarySection groups related lines under a title.
type SummarySection struct {
	Title string
	Items []SummaryItem
}

// Summary collects what a run is about to do and prints it as a tree.
type Summary struct {
	appName         string
	version         string
	startupDuration time.Duration
	sections        []*SummarySection
}

// NewSummary creates a new summary tracker.
func NewSummary(appName, version string) *Summary {
	return &Summary{
		appName:  appName,
		version:  version,
		sections: make([]*SummarySection, 0),
	}
}

// SetStartupDuration records the time spent before the task started.
func (s *Summary) SetStartupDuration(d time.Duration) {
	s.startupDuration = d
}

// Track adds a line to the named section, creating it on first use.
// Sections print in first-use order.
func (s *Summary) Track(section, key string, value any) {
	sec := s.section(section)
	sec.Items = append(sec.Items, SummaryItem{Key: key, Value: fmt.Sprint(value)})
}

// Sections returns the collected sections.
func (s *Summary) Sections() []*SummarySection {
	return s.sections
}

func (s *Summary) section(title string) *SummarySection {
	for _, sec := range s.sections {
		if sec.Title == title {
			return sec
		}
	}
	sec := &SummarySection{Title: title}
	s.sections = append(s.sections, sec)
	return sec
}

// Display writes the summary to w.
func (s *Summary) Display(w io.Writer) {
	fmt.Fprintf(w, "\n%s %s ready in %.2fs\n", s.appName, s.version, s.startupDuration.Seconds())

	for _, sec := range s.sections {
		fmt.Fprintf(w, "\n%s\n", sec.Title)
		width := 0
		for _, it := range sec.Items {
			width = max(width, len(it.Key))
		}
		for i, it := range sec.Items {
			fmt.Fprintf(w, "   %s %-*s  %s\n", treePrefix(i, len(sec.Items)), width, it.Key, it.Value)
		}
	}
	fmt.Fprintln(w)
}

func treePrefix(i, n int) string {
	if i == n-1 {
		return "└──"
	}
	return "├──"
}
