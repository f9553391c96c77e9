package main

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type recordingInvalidator struct {
	mu    sync.Mutex
	paths []string
}

func (r *recordingInvalidator) InvalidatePath(path string) {
	r.mu.Lock()
	r.paths = append(r.paths, path)
	r.mu.Unlock()
}

func (r *recordingInvalidator) invalidated() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.paths...)
}

func Test_Watcher_DebouncesBursts(t *testing.T) {
	inv := &recordingInvalidator{}
	w := NewWatcher(discardLogger(), t.TempDir(), 20*time.Millisecond, inv)

	// A save typically fires several events back to back.
	w.schedule("/docs/resume.txt")
	w.schedule("/docs/resume.txt")
	w.schedule("/docs/resume.txt")

	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, []string{"/docs/resume.txt"}, inv.invalidated())
}

func Test_Watcher_SeparatePathsInvalidateSeparately(t *testing.T) {
	inv := &recordingInvalidator{}
	w := NewWatcher(discardLogger(), t.TempDir(), 10*time.Millisecond, inv)

	w.schedule("/docs/a.txt")
	w.schedule("/docs/b.txt")

	time.Sleep(100 * time.Millisecond)
	assert.ElementsMatch(t, []string{"/docs/a.txt", "/docs/b.txt"}, inv.invalidated())
}
