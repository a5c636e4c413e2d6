package listing

import (
	"errors"
	"fmt"
	"slices"

	"coconet/internal/models"
)

var (
	ErrUnknownPosition = errors.New("unknown position")
	ErrEmptyStack      = errors.New("stack value is empty")
)

// Positions is the closed role set a position filter may take.
var Positions = []string{"FRONTEND", "BACKEND", "DESIGNER", "PM", "ANDROID", "IOS", "DEVOPS"}

func ValidPosition(p string) bool {
	return p == "" || slices.Contains(Positions, p)
}

// FilterState holds the multi-select stack filter and the single-select
// position filter. Stacks keep selection order for display; the set has no
// duplicates.
type FilterState struct {
	stacks   []string
	position string
	dirty    bool
}

// Toggle removes v if selected, otherwise appends it. It reports whether v is
// selected afterwards. Values are kept verbatim; only "" is rejected.
func (f *FilterState) Toggle(v string) (bool, error) {
	if v == "" {
		return false, ErrEmptyStack
	}
	f.dirty = true
	if i := slices.Index(f.stacks, v); i >= 0 {
		f.stacks = slices.Delete(slices.Clone(f.stacks), i, i+1)
		return false, nil
	}
	f.stacks = append(slices.Clone(f.stacks), v)
	return true, nil
}

// SelectPosition replaces the position wholesale. The empty string clears it.
func (f *FilterState) SelectPosition(p string) error {
	if !ValidPosition(p) {
		return fmt.Errorf("%w: %q", ErrUnknownPosition, p)
	}
	f.dirty = true
	f.position = p
	return nil
}

func (f FilterState) Stacks() []string {
	if f.stacks == nil {
		return []string{}
	}
	return slices.Clone(f.stacks)
}

func (f FilterState) Position() string { return f.position }

func (f FilterState) Has(v string) bool { return slices.Contains(f.stacks, v) }

// Request is the list-query payload for the current selection. The position
// is always sent as a one-element roles list, empty or not.
func (f FilterState) Request() models.ArticleFilter {
	return models.ArticleFilter{
		Stacks: f.Stacks(),
		Roles:  []string{f.position},
	}
}

// RefreshRequest is the payload for mount and token-change fetches: the empty
// filter until the user has touched a filter, the current selection after.
func (f FilterState) RefreshRequest() models.ArticleFilter {
	if !f.dirty {
		return models.ArticleFilter{}
	}
	return f.Request()
}
