package process

import (
	"bufio"
	"io"
	"strings"
	"sync"

	"hy2core/pkg/hy2"
)

// pump forwards each output line as a log record. Lines also land in tail
// when it is non-nil.
func (e *Engine) pump(r io.Reader, tail *tailBuffer) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 1024*1024)
	for sc.Scan() {
		line := sc.Text()
		if tail != nil {
			tail.WriteLine(line)
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		e.Logf(sniffLevel(line, tail != nil), "%s", line)
	}
	// drain whatever is left so the child never blocks on a full pipe
	_, _ = io.Copy(io.Discard, r)
}

// sniffLevel guesses a level from common engine log prefixes such as
// "ERROR[0000]", "level=warn" or "[Warn]". Unmarked stderr is warn.
func sniffLevel(line string, stderr bool) string {
	head := strings.ToLower(line)
	if len(head) > 48 {
		head = head[:48]
	}
	switch {
	case strings.Contains(head, "fatal"), strings.Contains(head, "panic"), strings.Contains(head, "error"):
		return hy2.LevelError
	case strings.Contains(head, "warn"):
		return hy2.LevelWarn
	case strings.Contains(head, "debug"), strings.Contains(head, "trace"):
		return hy2.LevelDebug
	case strings.Contains(head, "info"):
		return hy2.LevelInfo
	case stderr:
		return hy2.LevelWarn
	default:
		return hy2.LevelInfo
	}
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	buf []byte
	max int
}

func newTailBuffer(limit int) *tailBuffer { return &tailBuffer{max: limit} }

func (t *tailBuffer) WriteLine(line string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.buf = append(t.buf, line...)
	t.buf = append(t.buf, '\n')
	if over := len(t.buf) - t.max; over > 0 {
		t.buf = append(t.buf[:0:0], t.buf[over:]...)
	}
}

func (t *tailBuffer) String() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return string(t.buf)
}
