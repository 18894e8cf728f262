package report

import (
	"fmt"
	"sort"
	"strings"

	"github.com/therealutkarshpriyadarshi/logcat/internal/analyzer"
	"github.com/therealutkarshpriyadarshi/logcat/pkg/types"
)

const (
	reportWidth       = 80
	sectionWidth      = 40
	anrMessageLimit   = 200
	previewLimit      = 100
	topTagsPerSection = 5
	samplesPerTag     = 10
	categoryShowLimit = 10
	truncationMarker  = "..."
	missingPID        = "N/A"
)

type textWriter struct {
	sb strings.Builder
}

func (w *textWriter) raw(s string) {
	w.sb.WriteString(s)
	w.sb.WriteByte('\n')
}

func (w *textWriter) line(format string, args ...interface{}) {
	fmt.Fprintf(&w.sb, format, args...)
	w.sb.WriteByte('\n')
}

// RenderText renders the human-readable report
func RenderText(state *analyzer.State) []byte {
	w := &textWriter{}
	banner := strings.Repeat("=", reportWidth)
	rule := strings.Repeat("-", reportWidth)

	w.raw(banner)
	w.raw("ANDROID LOGCAT ANALYSIS REPORT")
	w.raw(banner)
	w.raw("")

	w.raw("SUMMARY")
	w.raw(rule)
	w.line("Total log entries: %d", state.TotalEntries())
	w.line("Total errors: %d", state.ErrorCount)
	w.line("ANR occurrences: %d", len(state.ANREvents))
	w.raw("")

	categories := state.Categories()

	w.raw("ERROR BREAKDOWN BY CATEGORY")
	w.raw(rule)
	for _, category := range categories {
		w.line("%s: %d errors", strings.ToUpper(string(category)), len(state.ErrorsByCategory[category]))
	}
	w.raw("")

	if len(state.ANREvents) > 0 {
		w.raw("APPLICATION NOT RESPONDING (ANR) ERRORS")
		w.raw(rule)
		for i, record := range state.ANREvents {
			pid := record.PID
			if pid == "" {
				pid = missingPID
			}
			w.raw("")
			w.line("ANR #%d:", i+1)
			w.line("  Time: %s", record.Timestamp)
			w.line("  Tag: %s", record.Tag)
			w.line("  PID: %s", pid)
			w.line("  Message: %s%s", truncate(record.Message, anrMessageLimit), truncationMarker)
		}
		w.raw("")
	}

	w.raw("DETAILED ERROR ANALYSIS")
	w.raw(rule)
	for _, category := range categories {
		writeCategoryDetail(w, category, state.ErrorsByCategory[category])
	}

	w.raw("")
	w.raw(banner)

	return []byte(w.sb.String())
}

type tagGroup struct {
	tag    string
	errors []types.CategorizedError
}

func writeCategoryDetail(w *textWriter, category types.Category, errs []types.CategorizedError) {
	w.raw("")
	w.line("%s ERRORS (%d total):", strings.ToUpper(string(category)), len(errs))
	w.raw(strings.Repeat("-", sectionWidth))

	for _, group := range topTags(errs, topTagsPerSection) {
		w.raw("")
		w.line("  %s (%d errors):", group.tag, len(group.errors))

		samples := group.errors
		if len(samples) > samplesPerTag {
			samples = samples[:samplesPerTag]
		}

		seen := make(map[string]bool, len(samples))
		for _, e := range samples {
			preview := truncate(e.Record.Message, previewLimit)
			if seen[preview] {
				continue
			}
			seen[preview] = true
			w.line("    - %s%s", preview, truncationMarker)
		}
	}

	if len(errs) > categoryShowLimit {
		w.line("    ... and %d more errors", len(errs)-categoryShowLimit)
	}
}

// topTags groups errors by tag and returns the n largest groups. Groups with equal
// counts keep the order in which their tag was first seen.
func topTags(errs []types.CategorizedError, n int) []tagGroup {
	index := make(map[string]int)
	var groups []tagGroup
	for _, e := range errs {
		i, ok := index[e.Record.Tag]
		if !ok {
			i = len(groups)
			index[e.Record.Tag] = i
			groups = append(groups, tagGroup{tag: e.Record.Tag})
		}
		groups[i].errors = append(groups[i].errors, e)
	}

	sort.SliceStable(groups, func(i, j int) bool {
		return len(groups[i].errors) > len(groups[j].errors)
	})

	if len(groups) > n {
		groups = groups[:n]
	}
	return groups
}

// truncate cuts s to at most n characters. Invalid UTF-8 bytes count as one
// character each and are kept as is.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
