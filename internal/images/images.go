// Package images normalizes the image fields attached to instruction steps
// and tracks their async load state for the UI.
//
// Catalog files have accumulated three shapes over the years: a proper
// list, a comma-separated string, and the singular legacy keys image /
// image_url. Resolve collapses all of them at the boundary so nothing
// downstream ever sees the drift.
package images

import (
	"strings"

	"github.com/zhaksylykov/wistep/internal/models"
)

// Resolve returns the canonical ordered image list for a step. Entries are
// trimmed, empties dropped, and duplicates removed preserving first
// occurrence. Precedence: the images field (any shape) first, then the
// legacy singular fields appended as fallbacks.
func Resolve(step models.Step) []string {
	var raw []string
	switch v := step.Images.(type) {
	case nil:
		// fall through to legacy fields
	case string:
		raw = append(raw, strings.Split(v, ",")...)
	case []string:
		raw = append(raw, v...)
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok {
				raw = append(raw, s)
			}
		}
	}
	raw = append(raw, step.Image, step.ImageURL)

	seen := make(map[string]bool)
	var out []string
	for _, u := range raw {
		u = strings.TrimSpace(u)
		if u == "" || seen[u] {
			continue
		}
		seen[u] = true
		out = append(out, u)
	}
	return out
}

// LoadState is the async load state of one image.
type LoadState int

const (
	LoadPending LoadState = iota
	Loaded
	LoadFailed
)

type imageKey struct {
	step  int
	image string
}

// Tracker records load outcomes per step/image so views can render
// placeholders for anything pending or failed instead of breaking the
// whole step.
type Tracker struct {
	states map[imageKey]LoadState
}

// NewTracker returns an empty tracker; every image starts pending.
func NewTracker() *Tracker {
	return &Tracker{states: make(map[imageKey]LoadState)}
}

// MarkLoaded records a successful load.
func (t *Tracker) MarkLoaded(step int, image string) {
	t.states[imageKey{step, image}] = Loaded
}

// MarkFailed records a failed load. A later MarkLoaded overrides it.
func (t *Tracker) MarkFailed(step int, image string) {
	t.states[imageKey{step, image}] = LoadFailed
}

// State returns the recorded state, LoadPending when nothing was recorded.
func (t *Tracker) State(step int, image string) LoadState {
	return t.states[imageKey{step, image}]
}

// AllLoaded reports whether every given image for a step loaded.
func (t *Tracker) AllLoaded(step int, imgs []string) bool {
	for _, img := range imgs {
		if t.states[imageKey{step, img}] != Loaded {
			return false
		}
	}
	return true
}
