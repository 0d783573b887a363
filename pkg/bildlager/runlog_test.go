package bildlager

import (
	"bytes"
	"testing"
	"time"
)

func TestRunLogFormat(t *testing.T) {
	var b bytes.Buffer
	l := NewRunLog(&b)
	l.now = func() time.Time { return time.Date(2024, 3, 9, 7, 5, 1, 0, time.UTC) }

	l.Printf("processing image: %s", "a.jpg")
	l.Printf("done")

	want := "2024-03-09 07:05:01 - processing image: a.jpg\n2024-03-09 07:05:01 - done\n"
	if got := b.String(); got != want {
		t.Errorf("run log = %q, want %q", got, want)
	}
}

func TestRunLogNilWriter(t *testing.T) {
	NewRunLog(nil).Printf("only klog")
}
