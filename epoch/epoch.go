// Package epoch implements the timestamp codec used by dataless volumes.
//
// Dataless dumps print times as "YYYY,DDD,HH:MM:SS" (year, day of year and an
// optional time of day, sometimes with a fractional second). The canonical
// form produced by Format zero-pads every component, so canonical strings
// sort lexicographically in chronological order and can be used directly as
// map keys and ordering keys.
package epoch

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/dataless/errs"
)

// Key is a canonical epoch string ("2011,045,12:30:00").
type Key string

// Time is a parsed dataless timestamp.
type Time struct {
	Year   int
	Day    int // day of year, 1-based
	Hour   int
	Minute int
	Second int
}

// Parse parses a dataless timestamp.
//
// The text must hold two or three comma separated components: year, day of year
// and an optional time of day. The time of day holds up to three colon separated
// parts (hour, minute, second); missing parts default to zero. A fractional
// second ("00.0000") is truncated.
//
// Parameters:
//   - text: Timestamp text, surrounding whitespace is ignored
//
// Returns:
//   - Time: Parsed timestamp
//   - error: ErrInvalidTimestamp (wrapped) when the text is not a valid timestamp
func Parse(text string) (Time, error) {
	var t Time

	text = strings.TrimSpace(text)
	parts := strings.Split(text, ",")
	if len(parts) < 2 || len(parts) > 3 {
		return t, fmt.Errorf("%w: %q", errs.ErrInvalidTimestamp, text)
	}

	var err error
	if t.Year, err = component(parts[0], 0, 9999); err != nil {
		return t, fmt.Errorf("%w: year in %q", errs.ErrInvalidTimestamp, text)
	}
	if t.Day, err = component(parts[1], 1, 366); err != nil {
		return t, fmt.Errorf("%w: day in %q", errs.ErrInvalidTimestamp, text)
	}

	if len(parts) == 3 {
		clock := strings.Split(parts[2], ":")
		if len(clock) > 3 {
			return t, fmt.Errorf("%w: time in %q", errs.ErrInvalidTimestamp, text)
		}

		// seconds may carry a fraction
		if len(clock) == 3 {
			if dot := strings.IndexByte(clock[2], '.'); dot >= 0 {
				clock[2] = clock[2][:dot]
			}
		}

		fields := []*int{&t.Hour, &t.Minute, &t.Second}
		limits := []int{23, 59, 60}
		for i, c := range clock {
			if *fields[i], err = component(c, 0, limits[i]); err != nil {
				return t, fmt.Errorf("%w: time in %q", errs.ErrInvalidTimestamp, text)
			}
		}
	}

	return t, nil
}

// ParseKey parses text and returns its canonical key.
func ParseKey(text string) (Key, error) {
	t, err := Parse(text)
	if err != nil {
		return "", err
	}

	return t.Key(), nil
}

// Format renders t in canonical form, zero-padded to 4/3/2/2/2 digits.
func Format(t Time) string {
	return fmt.Sprintf("%04d,%03d,%02d:%02d:%02d", t.Year, t.Day, t.Hour, t.Minute, t.Second)
}

// Key returns the canonical key of t.
func (t Time) Key() Key {
	return Key(Format(t))
}

func (t Time) String() string {
	return Format(t)
}

// Time converts t to a UTC time.Time.
func (t Time) Time() time.Time {
	return time.Date(t.Year, time.January, 1, t.Hour, t.Minute, t.Second, 0, time.UTC).
		AddDate(0, 0, t.Day-1)
}

// FromTime converts a time.Time to a dataless timestamp, dropping sub-second precision.
func FromTime(tm time.Time) Time {
	tm = tm.UTC()

	return Time{
		Year:   tm.Year(),
		Day:    tm.YearDay(),
		Hour:   tm.Hour(),
		Minute: tm.Minute(),
		Second: tm.Second(),
	}
}

// Compare returns -1, 0 or +1 depending on whether t is before, equal to or after u.
func (t Time) Compare(u Time) int {
	return strings.Compare(Format(t), Format(u))
}

func (t Time) Before(u Time) bool { return t.Compare(u) < 0 }

func (t Time) After(u Time) bool { return t.Compare(u) > 0 }

// Time parses the key back into a Time.
func (k Key) Time() (Time, error) {
	return Parse(string(k))
}

// IsOpen reports whether text marks an open-ended epoch, as rdseed prints
// a missing end time.
func IsOpen(text string) bool {
	switch strings.ToLower(strings.TrimSpace(text)) {
	case "", "(null)", "null", "no ending time", "none":
		return true
	default:
		return false
	}
}

func component(s string, lo, hi int) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, err
	}
	if n < lo || n > hi {
		return 0, fmt.Errorf("%d out of range [%d, %d]", n, lo, hi)
	}

	return n, nil
}
