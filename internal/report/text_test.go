package report

import (
	"fmt"
	"strings"
	"testing"
)

func TestRenderText_Full(t *testing.T) {
	state := buildState(t,
		"01-15 10:23:45.123 E/Bluetooth( 1234): BLE_ connection failed",
		"01-15 10:23:45.200 I/ActivityManager(  ): ANR in com.example.app",
		"01-15 10:23:45.300 E/Netd( 55): socket closed",
		"garbage",
	)

	banner := strings.Repeat("=", 80)
	rule := strings.Repeat("-", 80)
	section := strings.Repeat("-", 40)

	want := strings.Join([]string{
		banner,
		"ANDROID LOGCAT ANALYSIS REPORT",
		banner,
		"",
		"SUMMARY",
		rule,
		"Total log entries: 3",
		"Total errors: 2",
		"ANR occurrences: 1",
		"",
		"ERROR BREAKDOWN BY CATEGORY",
		rule,
		"BLUETOOTH: 1 errors",
		"NETWORK: 1 errors",
		"",
		"APPLICATION NOT RESPONDING (ANR) ERRORS",
		rule,
		"",
		"ANR #1:",
		"  Time: 01-15 10:23:45.200",
		"  Tag: ActivityManager",
		"  PID: N/A",
		"  Message: ANR in com.example.app...",
		"",
		"DETAILED ERROR ANALYSIS",
		rule,
		"",
		"BLUETOOTH ERRORS (1 total):",
		section,
		"",
		"  Bluetooth (1 errors):",
		"    - BLE_ connection failed...",
		"",
		"NETWORK ERRORS (1 total):",
		section,
		"",
		"  Netd (1 errors):",
		"    - socket closed...",
		"",
		banner,
		"",
	}, "\n")

	got := string(RenderText(state))
	if got != want {
		t.Errorf("RenderText() mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestRenderText_EmptyInput(t *testing.T) {
	got := string(RenderText(buildState(t)))

	for _, want := range []string{
		"Total log entries: 0",
		"Total errors: 0",
		"ANR occurrences: 0",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("report missing %q", want)
		}
	}

	if strings.Contains(got, "APPLICATION NOT RESPONDING") {
		t.Error("empty report should not contain an ANR section")
	}
	if strings.Contains(got, "ERRORS (") {
		t.Error("empty report should not contain category details")
	}
}

func TestRenderText_MoreErrorsNote(t *testing.T) {
	var lines []string
	tags := []string{"MyApp", "Other", "Third"}
	for i := 0; i < 12; i++ {
		lines = append(lines, fmt.Sprintf("01-15 10:23:45.%03d E/%s( 1): failure %d", i, tags[i%3], i))
	}

	got := string(RenderText(buildState(t, lines...)))

	if !strings.Contains(got, "OTHER ERRORS (12 total):") {
		t.Errorf("missing category header:\n%s", got)
	}
	if strings.Count(got, "    ... and 2 more errors\n") != 1 {
		t.Errorf("expected exactly one '... and 2 more errors' line:\n%s", got)
	}
}

func TestRenderText_NoMoreErrorsNoteAtTen(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("01-15 10:23:45.%03d E/MyApp( 1): failure %d", i, i))
	}

	got := string(RenderText(buildState(t, lines...)))
	if strings.Contains(got, "more errors") {
		t.Errorf("unexpected overflow note for exactly 10 errors:\n%s", got)
	}
}

func TestRenderText_TopTagsStableAndLimited(t *testing.T) {
	var lines []string
	add := func(tag string, n int) {
		for i := 0; i < n; i++ {
			lines = append(lines, fmt.Sprintf("01-15 10:23:45.000 E/%s( 1): msg %d", tag, i))
		}
	}
	add("Alpha", 1)
	add("Beta", 2)
	add("Gamma", 1)
	add("Delta", 2)
	add("Eps", 1)
	add("Zeta", 1)

	got := string(RenderText(buildState(t, lines...)))

	order := []string{"  Beta (2 errors):", "  Delta (2 errors):", "  Alpha (1 errors):", "  Gamma (1 errors):", "  Eps (1 errors):"}
	last := -1
	for _, header := range order {
		idx := strings.Index(got, header)
		if idx < 0 {
			t.Fatalf("missing %q in:\n%s", header, got)
		}
		if idx < last {
			t.Errorf("%q out of order", header)
		}
		last = idx
	}

	if strings.Contains(got, "  Zeta (") {
		t.Error("only the top 5 tags should be shown")
	}
}

func TestRenderText_PreviewDedupAndTruncation(t *testing.T) {
	prefix := strings.Repeat("a", 100)
	state := buildState(t,
		"01-15 10:23:45.000 E/MyApp( 1): "+prefix+"first tail",
		"01-15 10:23:45.001 E/MyApp( 1): "+prefix+"second tail",
		"01-15 10:23:45.002 E/MyApp( 1): short",
		"01-15 10:23:45.003 E/MyApp( 1): short",
	)

	got := string(RenderText(state))

	if n := strings.Count(got, "    - "+prefix+"...\n"); n != 1 {
		t.Errorf("truncated preview appears %d times, want 1", n)
	}
	if n := strings.Count(got, "    - short...\n"); n != 1 {
		t.Errorf("short preview appears %d times, want 1", n)
	}
	if strings.Contains(got, "first tail") {
		t.Error("preview should be truncated to 100 characters")
	}
}

func TestRenderText_SamplesOnlyFirstTenPerTag(t *testing.T) {
	var lines []string
	for i := 0; i < 11; i++ {
		lines = append(lines, fmt.Sprintf("01-15 10:23:45.000 E/MyApp( 1): unique message %02d", i))
	}

	got := string(RenderText(buildState(t, lines...)))
	if !strings.Contains(got, "unique message 09...") {
		t.Error("tenth sample missing")
	}
	if strings.Contains(got, "unique message 10...") {
		t.Error("eleventh sample should not be shown")
	}
	if !strings.Contains(got, "    ... and 1 more errors") {
		t.Error("missing overflow note")
	}
}

func TestRenderText_ANRMessageTruncated(t *testing.T) {
	long := "ANR in com.example.app " + strings.Repeat("é", 300)
	got := string(RenderText(buildState(t, "01-15 10:23:45.000 I/ActivityManager( 7): "+long)))

	want := "  Message: " + string([]rune(long)[:200]) + "...\n"
	if !strings.Contains(got, want) {
		t.Errorf("ANR message not truncated to 200 characters:\n%s", got)
	}
	if !strings.Contains(got, "  PID: 7\n") {
		t.Error("ANR block should show the record pid")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input string
		n     int
		want  string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello", 3, "hel"},
		{"héllo", 2, "hé"},
		{"", 3, ""},
		{"ab\xffcd", 3, "ab\xff"},
		{"\xff\xfe\xfd\xfc", 2, "\xff\xfe"},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.n, got, tt.want)
		}
	}
}
