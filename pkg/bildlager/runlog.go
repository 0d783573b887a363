package bildlager

import (
	"fmt"
	"io"
	"time"

	"k8s.io/klog/v2"
)

// RunLogTimeFormat prefixes every run log line.
const RunLogTimeFormat = "2006-01-02 15:04:05"

type flusher interface {
	Flush()
}

// RunLog writes the human readable, timestamped progress of a run.
// Every line is also sent to klog.
type RunLog struct {
	w   io.Writer
	now func() time.Time
}

// NewRunLog returns a RunLog writing to w. A nil w only logs to klog.
func NewRunLog(w io.Writer) *RunLog {
	return &RunLog{w: w, now: time.Now}
}

// Printf writes one line.
func (l *RunLog) Printf(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	klog.InfoDepth(1, msg)
	if l == nil || l.w == nil {
		return
	}

	if _, err := fmt.Fprintf(l.w, "%s - %s\n", l.now().Format(RunLogTimeFormat), msg); err != nil {
		klog.V(1).Infof("run log write: %v", err)
		return
	}
	if f, ok := l.w.(flusher); ok {
		f.Flush()
	}
}
