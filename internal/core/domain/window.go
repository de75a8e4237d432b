package domain

import (
	"fmt"
	"time"

	"github.com/spendsense/persona-engine/internal/apperrors"
)

// Window is a half-open trailing date range (Start, End] over which
// signals are aggregated. Start is exclusive, End is inclusive.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
	Days  int       `json:"days"`
}

// NewWindow resolves an as-of date and a window length into a concrete
// date range. Dates are truncated to UTC midnight so that window
// membership is a pure calendar-day comparison.
func NewWindow(asOf time.Time, days int) (Window, error) {
	if days <= 0 {
		return Window{}, fmt.Errorf("window days must be positive, got %d: %w", days, apperrors.ErrValidation)
	}
	end := TruncateToDay(asOf)
	return Window{
		Start: end.AddDate(0, 0, -days),
		End:   end,
		Days:  days,
	}, nil
}

// Contains reports whether a date falls inside the window.
func (w Window) Contains(d time.Time) bool {
	d = TruncateToDay(d)
	return d.After(w.Start) && !d.After(w.End)
}

// Months returns the window length expressed in 30-day months.
func (w Window) Months() float64 {
	return float64(w.Days) / 30.0
}

// TruncateToDay normalizes a timestamp to UTC midnight.
func TruncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
