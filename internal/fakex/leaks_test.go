package fakex

import (
	"bytes"
	"regexp"
	"runtime"
	"strconv"
	"strings"
	"testing"
	"time"
)

// stack returns a formatted stack trace of all goroutines.
func stack() []byte {
	buf := make([]byte, 1024)
	for {
		n := runtime.Stack(buf, true)
		if n < len(buf) {
			return buf[:n]
		}
		buf = make([]byte, 2*len(buf))
	}
}

type goroutine struct {
	id    int
	name  string
	stack []byte
}

type leaks struct {
	name       string
	goroutines map[int]goroutine
}

func leaksMonitor(name string) leaks {
	return leaks{name, collectGoroutines()}
}

var goroutineID = regexp.MustCompile(`^\s*goroutine\s*(\d+)`)

func collectGoroutines() map[int]goroutine {
	res := make(map[int]goroutine)
	for _, st := range bytes.Split(stack(), []byte{'\n', '\n'}) {
		lines := bytes.Split(st, []byte{'\n'})
		if len(lines) < 2 {
			continue
		}
		m := goroutineID.FindSubmatch(lines[0])
		if len(m) < 2 {
			continue
		}
		id, err := strconv.Atoi(string(m[1]))
		if err != nil {
			continue
		}
		res[id] = goroutine{id, strings.TrimSpace(string(lines[1])), st}
	}
	return res
}

// leakingGoroutines lists goroutines started since the monitor was made.
func (l leaks) leakingGoroutines() []goroutine {
	var res []goroutine
	for id, gr := range collectGoroutines() {
		if _, ok := l.goroutines[id]; !ok {
			res = append(res, gr)
		}
	}
	return res
}

func (l leaks) checkTesting(t *testing.T) {
	t.Helper()
	if len(l.leakingGoroutines()) == 0 {
		return
	}
	leakTimeout := time.Second
	t.Logf("%s: possible goroutine leakage, waiting %v", l.name, leakTimeout)
	time.Sleep(leakTimeout)
	grs := l.leakingGoroutines()
	if len(grs) == 0 {
		return
	}
	t.Errorf("%s: %d leaking goroutines", l.name, len(grs))
	for _, gr := range grs {
		t.Log(gr.name, "\n", string(gr.stack))
	}
}
