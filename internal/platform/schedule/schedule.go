package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
)

// Time conversion constants.
const (
	hoursPerDay            = 24
	daysEveryThreeDays     = 3
	daysPerWeek            = 7
	errFmtUnknownFrequency = "%w: %q"
)

// Keyboard labels offered by the /schedule menu.
const (
	LabelDaily          = "Daily"
	LabelEveryThreeDays = "Every three days"
	LabelWeekly         = "Weekly"
)

// Day is a calendar-independent 24 hour interval.
const Day = hoursPerDay * time.Hour

// ParseFrequency validates a persisted frequency value.
func ParseFrequency(value string) (domain.Frequency, error) {
	f := domain.Frequency(strings.TrimSpace(value))

	if _, err := Interval(f); err != nil {
		return "", err
	}

	return f, nil
}

// Interval returns the cadence length for a frequency.
func Interval(f domain.Frequency) (time.Duration, error) {
	switch f {
	case domain.FrequencyDaily:
		return Day, nil
	case domain.FrequencyEveryThreeDays:
		return daysEveryThreeDays * Day, nil
	case domain.FrequencyWeekly:
		return daysPerWeek * Day, nil
	default:
		return 0, fmt.Errorf(errFmtUnknownFrequency, apperrors.ErrUnknownFrequency, string(f))
	}
}

// Next advances nextRun by exactly one interval. The base is the previous
// next_run, never the observation time, so late ticks do not shift the cadence.
func Next(f domain.Frequency, nextRun time.Time) (time.Time, error) {
	interval, err := Interval(f)
	if err != nil {
		return nextRun, err
	}

	return nextRun.Add(interval), nil
}

// Label returns the human readable name of a frequency.
func Label(f domain.Frequency) string {
	switch f {
	case domain.FrequencyDaily:
		return LabelDaily
	case domain.FrequencyEveryThreeDays:
		return LabelEveryThreeDays
	case domain.FrequencyWeekly:
		return LabelWeekly
	default:
		return string(f)
	}
}

// ParseChoice maps a keyboard label (case-insensitive) to a frequency.
func ParseChoice(text string) (domain.Frequency, bool) {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case strings.ToLower(LabelDaily):
		return domain.FrequencyDaily, true
	case strings.ToLower(LabelEveryThreeDays):
		return domain.FrequencyEveryThreeDays, true
	case strings.ToLower(LabelWeekly):
		return domain.FrequencyWeekly, true
	default:
		return "", false
	}
}

// Choices returns the keyboard labels in menu order.
func Choices() [][]string {
	return [][]string{
		{LabelDaily, LabelEveryThreeDays},
		{LabelWeekly},
	}
}
