package schedule

import (
	"errors"
	"testing"
	"time"

	"github.com/lueurxax/chat-digest-bot/internal/core/domain"
	apperrors "github.com/lueurxax/chat-digest-bot/internal/core/errors"
)

const (
	testErrNext     = "Next(%s) returned error: %v"
	testErrNextWant = "Next(%s) = %s, want %s"
)

func TestNextAdvancesByExactInterval(t *testing.T) {
	base := time.Date(2026, 3, 28, 23, 59, 59, 0, time.UTC)

	tests := []struct {
		freq domain.Frequency
		want time.Time
	}{
		{domain.FrequencyDaily, base.Add(24 * time.Hour)},
		{domain.FrequencyEveryThreeDays, base.Add(72 * time.Hour)},
		{domain.FrequencyWeekly, base.Add(168 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(string(tt.freq), func(t *testing.T) {
			got, err := Next(tt.freq, base)
			if err != nil {
				t.Fatalf(testErrNext, tt.freq, err)
			}

			if !got.Equal(tt.want) {
				t.Errorf(testErrNextWant, tt.freq, got, tt.want)
			}
		})
	}
}

func TestNextIsRelativeToNextRunNotNow(t *testing.T) {
	past := time.Now().Add(-10 * 24 * time.Hour).Truncate(time.Second)

	got, err := Next(domain.FrequencyDaily, past)
	if err != nil {
		t.Fatalf(testErrNext, domain.FrequencyDaily, err)
	}

	if want := past.Add(24 * time.Hour); !got.Equal(want) {
		t.Errorf(testErrNextWant, domain.FrequencyDaily, got, want)
	}
}

func TestNextUnknownFrequency(t *testing.T) {
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	got, err := Next(domain.Frequency("monthly"), base)
	if !errors.Is(err, apperrors.ErrUnknownFrequency) {
		t.Fatalf("expected ErrUnknownFrequency, got %v", err)
	}

	if !got.Equal(base) {
		t.Errorf("next run changed on error: %s", got)
	}
}

func TestParseFrequency(t *testing.T) {
	tests := []struct {
		input   string
		want    domain.Frequency
		wantErr bool
	}{
		{"daily", domain.FrequencyDaily, false},
		{" every_three_days ", domain.FrequencyEveryThreeDays, false},
		{"weekly", domain.FrequencyWeekly, false},
		{"Weekly", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFrequency(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFrequency(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}

			if got != tt.want {
				t.Errorf("ParseFrequency(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestParseChoice(t *testing.T) {
	tests := []struct {
		input string
		want  domain.Frequency
		ok    bool
	}{
		{"Daily", domain.FrequencyDaily, true},
		{"every three days", domain.FrequencyEveryThreeDays, true},
		{"  WEEKLY ", domain.FrequencyWeekly, true},
		{"hourly", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseChoice(tt.input)
			if ok != tt.ok || got != tt.want {
				t.Errorf("ParseChoice(%q) = (%q, %v), want (%q, %v)", tt.input, got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestChoicesRoundTrip(t *testing.T) {
	for _, row := range Choices() {
		for _, label := range row {
			f, ok := ParseChoice(label)
			if !ok {
				t.Fatalf("label %q is not parseable", label)
			}

			if Label(f) != label {
				t.Errorf("Label(%q) = %q, want %q", f, Label(f), label)
			}
		}
	}
}
