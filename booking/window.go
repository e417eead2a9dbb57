package booking

import (
	"fmt"
	"time"
)

const (
	DefaultTickInterval = time.Second
	// LowTimeThreshold marks the point where the countdown is shown as urgent.
	LowTimeThreshold = 5 * time.Minute
)

// PaymentWindow is the server-configured time allowed to pay after booking.
// The zero value is an unknown window; nothing assumes a default.
type PaymentWindow struct {
	duration time.Duration
	known    bool
}

// WindowFromSeconds builds a window from the settings value. Non-positive
// values yield an unknown window.
func WindowFromSeconds(seconds int) PaymentWindow {
	if seconds <= 0 {
		return PaymentWindow{}
	}
	return PaymentWindow{duration: time.Duration(seconds) * time.Second, known: true}
}

func (w PaymentWindow) Known() bool {
	return w.known
}

func (w PaymentWindow) Duration() time.Duration {
	return w.duration
}

// Deadline returns bookedAt plus the window, or false when the window is
// unknown.
func Deadline(bookedAt time.Time, window PaymentWindow) (time.Time, bool) {
	if !window.known {
		return time.Time{}, false
	}
	return bookedAt.Add(window.duration), true
}

// Remaining is max(0, deadline-now).
func Remaining(deadline time.Time, now time.Time) time.Duration {
	d := deadline.Sub(now)
	if d <= 0 {
		return 0
	}
	return d
}

func Urgent(remaining time.Duration) bool {
	return remaining < LowTimeThreshold
}

// FormatRemaining renders h:mm:ss from one hour up and m:ss below. Partial
// seconds are dropped.
func FormatRemaining(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	total := int64(d / time.Second)
	hours := total / 3600
	minutes := (total % 3600) / 60
	secs := total % 60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, secs)
	}
	return fmt.Sprintf("%d:%02d", minutes, secs)
}
