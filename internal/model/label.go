package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrEmptySeatList is returned by NormalizeLabels when no labels are given.
var ErrEmptySeatList = errors.New("seats must not be empty")

// MaxLabelLength is the width of the seat_label column.
const MaxLabelLength = 16

// NormalizeLabel trims surrounding whitespace and upper-cases a raw seat
// label, so " a1 " and "A1" address the same seat.
func NormalizeLabel(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// NormalizeLabels normalizes, de-duplicates and sorts raw labels.  The
// sorted order is the processing order for every multi-seat operation.
// A label that is blank after trimming, or longer than MaxLabelLength,
// is rejected.
func NormalizeLabels(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, ErrEmptySeatList
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for i, r := range raw {
		l := NormalizeLabel(r)
		if l == "" {
			return nil, fmt.Errorf("seat at position %d is blank", i)
		}
		if len(l) > MaxLabelLength {
			return nil, fmt.Errorf("seat %q is longer than %d characters", l, MaxLabelLength)
		}
		if _, ok := seen[l]; ok {
			continue
		}
		seen[l] = struct{}{}
		out = append(out, l)
	}
	sort.Strings(out)
	return out, nil
}

// HoldKey is the hold store key for one seat of a show.  A single key
// per seat holds the claimant id as its value.
func HoldKey(showID uint64, label string) string {
	return fmt.Sprintf("hold:show:%d:%s", showID, label)
}

// SessionKey is the hold store key of a checkout session snapshot.
func SessionKey(sessionID string) string {
	return "pay:session:" + sessionID
}
