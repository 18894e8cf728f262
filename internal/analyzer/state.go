package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/therealutkarshpriyadarshi/logcat/internal/parser"
	"github.com/therealutkarshpriyadarshi/logcat/pkg/types"
)

var (
	anrPIDPattern     = regexp.MustCompile(`PID:` + parser.SpaceClass + `*(\d+)`)
	anrProcessPattern = regexp.MustCompile(`ANR in` + parser.SpaceClass + `+(` + parser.NonSpaceClass + `+)`)
)

// UnknownProcess is reported when an ANR message does not name its process
const UnknownProcess = "Unknown"

// State is the completed result of one analysis pass
type State struct {
	Records          []*types.LogRecord
	ErrorsByCategory map[types.Category][]types.CategorizedError
	ANREvents        []*types.LogRecord
	ErrorCount       int
}

// TotalEntries returns the number of parsed records
func (s *State) TotalEntries() int {
	return len(s.Records)
}

// Categories returns the populated categories in alphabetical order
func (s *State) Categories() []types.Category {
	categories := make([]types.Category, 0, len(s.ErrorsByCategory))
	for category, errs := range s.ErrorsByCategory {
		if len(errs) > 0 {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i] < categories[j] })
	return categories
}

// CategoryCounts returns the number of errors per populated category
func (s *State) CategoryCounts() map[types.Category]int {
	counts := make(map[types.Category]int, len(s.ErrorsByCategory))
	for category, errs := range s.ErrorsByCategory {
		if len(errs) > 0 {
			counts[category] = len(errs)
		}
	}
	return counts
}

// ANRDetails extracts pid and process name from every ANR event, in input order.
// The pid comes from a "PID: n" marker in the message, falling back to the record's
// own pid; it is nil when neither is present.
func (s *State) ANRDetails() []types.ANRDetail {
	details := make([]types.ANRDetail, 0, len(s.ANREvents))
	for _, record := range s.ANREvents {
		detail := types.ANRDetail{
			Timestamp: record.Timestamp,
			Process:   UnknownProcess,
			Message:   record.Message,
		}

		if m := anrPIDPattern.FindStringSubmatch(record.Message); m != nil {
			pid := m[1]
			detail.PID = &pid
		} else if record.PID != "" {
			pid := record.PID
			detail.PID = &pid
		}

		if m := anrProcessPattern.FindStringSubmatch(record.Message); m != nil {
			// "ANR in com.example.app: ..." names the process before the colon
			if process := strings.TrimSuffix(m[1], ":"); process != "" {
				detail.Process = process
			}
		}

		details = append(details, detail)
	}
	return details
}
