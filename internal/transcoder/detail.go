package transcoder

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"media-transcoder/internal/process"
)

const (
	tailLines    = 20
	tailMaxBytes = 4096
)

// tail keeps the last lines of encoder output that were not progress.
type tail struct {
	lines []string
}

func (t *tail) add(line string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return
	}
	t.lines = append(t.lines, line)
	if len(t.lines) > tailLines {
		t.lines = t.lines[len(t.lines)-tailLines:]
	}
}

func (t *tail) String() string {
	s := strings.Join(t.lines, "\n")
	if len(s) > tailMaxBytes {
		cut := len(s) - tailMaxBytes
		for cut < len(s) && !utf8.RuneStart(s[cut]) {
			cut++
		}
		s = s[cut:]
	}
	return s
}

// redact replaces local paths in s with their base names. Longer paths are
// replaced first so a directory never shadows a file inside it.
func redact(s string, paths ...string) string {
	var ps []string
	for _, p := range paths {
		if p != "" && p != "." && p != string(filepath.Separator) {
			ps = append(ps, p)
		}
	}
	sort.Slice(ps, func(i, j int) bool { return len(ps[i]) > len(ps[j]) })

	for _, p := range ps {
		base := filepath.Base(p)
		s = strings.ReplaceAll(s, p, base)
	}
	return s
}

// exitDetail describes a failed encoder run for the job record.
func exitDetail(err error, stderr string) string {
	var ee *process.ExitError
	msg := err.Error()
	if errors.As(err, &ee) {
		if ee.Code < 0 {
			msg = "encoder terminated by signal"
		} else {
			msg = fmt.Sprintf("encoder exited with code %d", ee.Code)
		}
	}
	if stderr == "" {
		return msg
	}
	return msg + ": " + stderr
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
