package health

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidViewMode is returned for view strings that cannot be parsed
var ErrInvalidViewMode = errors.New("invalid view mode")

// ViewKind selects whose figures a health computation reports
type ViewKind string

const (
	ViewSelf     ViewKind = "self"
	ViewMerged   ViewKind = "merged"
	ViewSpecific ViewKind = "specific"
)

const specificPrefix = "specific:"

// ViewMode is the explicit view passed into every computation
type ViewMode struct {
	Kind     ViewKind
	MemberID string
}

// Self is the caller's own records only
func Self() ViewMode { return ViewMode{Kind: ViewSelf} }

// Merged is the caller's records plus every other member's published totals
func Merged() ViewMode { return ViewMode{Kind: ViewMerged} }

// Specific is one other member's published totals only
func Specific(memberID string) ViewMode {
	return ViewMode{Kind: ViewSpecific, MemberID: memberID}
}

// ParseViewMode parses "self", "merged" or "specific:<memberId>". Empty means self.
func ParseViewMode(s string) (ViewMode, error) {
	switch s {
	case "", string(ViewSelf):
		return Self(), nil
	case string(ViewMerged):
		return Merged(), nil
	}
	if strings.HasPrefix(s, specificPrefix) {
		id := strings.TrimSpace(strings.TrimPrefix(s, specificPrefix))
		if id == "" {
			return ViewMode{}, fmt.Errorf("%w: missing member id in %q", ErrInvalidViewMode, s)
		}
		return Specific(id), nil
	}
	return ViewMode{}, fmt.Errorf("%w: %q", ErrInvalidViewMode, s)
}

func (v ViewMode) String() string {
	if v.Kind == ViewSpecific {
		return specificPrefix + v.MemberID
	}
	if v.Kind == "" {
		return string(ViewSelf)
	}
	return string(v.Kind)
}
