package parser

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestBacktrackingEngine_MatchesRE2(t *testing.T) {
	lines := []string{
		"01-15 10:23:45.123 E/Bluetooth( 1234): BLE_ connection failed",
		"01-15 10:23:45.200 I/ActivityManager(  ): ANR in com.example.app",
		"01-15 10:23:45.300 W/Netd(55): dns timeout",
		"--------- beginning of main",
		"01-15 10:23:45.400 X/Bad( 1): unknown level",
	}

	for _, typ := range []ParserType{ParserTypeTime, ParserTypeThreadtime} {
		re2, err := New(&ParserConfig{Type: typ})
		if err != nil {
			t.Fatalf("New(%s, re2) error = %v", typ, err)
		}
		bt, err := New(&ParserConfig{Type: typ, Engine: EngineBacktracking})
		if err != nil {
			t.Fatalf("New(%s, backtracking) error = %v", typ, err)
		}

		for _, line := range lines {
			want, wantErr := re2.Parse(line)
			got, gotErr := bt.Parse(line)

			if !errors.Is(gotErr, wantErr) && (gotErr != nil || wantErr != nil) {
				t.Errorf("%s %q: error = %v, want %v", typ, line, gotErr, wantErr)
				continue
			}
			if want == nil {
				if got != nil {
					t.Errorf("%s %q: got record, want none", typ, line)
				}
				continue
			}
			if *got != *want {
				t.Errorf("%s %q: got %+v, want %+v", typ, line, *got, *want)
			}
		}
	}
}

func TestBacktrackingEngine_Lookaround(t *testing.T) {
	// Skip lines whose tag starts with "chatty"; RE2 has no lookahead.
	pattern := `^%{LOGCAT_TIMESTAMP:timestamp}\s+%{LOGCAT_LEVEL:level}/(?!chatty)(?P<tag>\S+)\(\s*(?P<pid>\d*)\s*\):\s+(?P<message>.+)$`

	if _, err := New(&ParserConfig{Type: ParserTypeRegex, Pattern: pattern}); err == nil {
		t.Fatal("re2 engine should reject lookahead")
	}

	p, err := New(&ParserConfig{Type: ParserTypeRegex, Pattern: pattern, Engine: EngineBacktracking})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	record, err := p.Parse("01-15 10:23:45.123 E/Bluetooth( 1234): BLE_ connection failed")
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if record.Tag != "Bluetooth" || record.PID != "1234" {
		t.Errorf("unexpected record: %+v", record)
	}

	if _, err := p.Parse("01-15 10:23:45.123 I/chatty( 1234): uid=1000 expire 3 lines"); !errors.Is(err, ErrNoMatch) {
		t.Errorf("chatty line should not match, got %v", err)
	}
}

func TestBacktrackingEngine_Timeout(t *testing.T) {
	p, err := New(&ParserConfig{
		Type:         ParserTypeRegex,
		Pattern:      `^(?P<timestamp>(a|aa)+)b(?P<level>E)(?P<tag>x)(?P<message>y)$`,
		Engine:       EngineBacktracking,
		MatchTimeout: 10 * time.Millisecond,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	start := time.Now()
	_, err = p.Parse(strings.Repeat("a", 60))
	elapsed := time.Since(start)

	if elapsed > 2*time.Second {
		t.Errorf("match took %v, timeout was not enforced", elapsed)
	}
	if err != nil && !errors.Is(err, ErrMatchTimeout) && !errors.Is(err, ErrNoMatch) {
		t.Errorf("Parse() error = %v, want ErrMatchTimeout or ErrNoMatch", err)
	}
}

func TestCompileLayout_UnknownEngine(t *testing.T) {
	if _, err := New(&ParserConfig{Type: ParserTypeTime, Engine: "pcre"}); err == nil {
		t.Error("expected error for unknown engine")
	}
}
