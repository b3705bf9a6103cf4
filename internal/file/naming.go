package file

import (
	"fmt"
	"path"
	"strings"
	"sync"
	"time"
)

const fallbackFilename = "upload"

// NameGenerator issues stored names of the form "{prefix}-{original}".
// The prefix is a Unix millisecond timestamp that never repeats and never
// decreases within one generator, even when the clock stalls or steps back.
type NameGenerator struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewNameGenerator returns a generator driven by the wall clock.
func NewNameGenerator() *NameGenerator {
	return &NameGenerator{now: time.Now}
}

// Next returns a fresh stored name for the given client-supplied filename.
func (g *NameGenerator) Next(original string) string {
	return fmt.Sprintf("%d-%s", g.nextPrefix(), sanitizeFilename(original))
}

func (g *NameGenerator) nextPrefix() int64 {
	ts := g.now().UnixMilli()

	g.mu.Lock()
	defer g.mu.Unlock()
	if ts <= g.last {
		ts = g.last + 1
	}
	g.last = ts
	return ts
}

// sanitizeFilename keeps only the base name of what the client sent.
func sanitizeFilename(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	switch name {
	case "", ".", "..", "/":
		return fallbackFilename
	}
	return name
}

// ValidateName rejects anything that is not a single flat path element.
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, "/\\\x00") {
		return ErrInvalidName
	}
	if strings.HasPrefix(name, tempFilePrefix) {
		return ErrInvalidName
	}
	return nil
}
