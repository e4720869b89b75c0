package zvalue

import (
	"errors"
	"fmt"
	"math"
	"time"
)

var errDurationRange = errors.New("duration out of range")

const nsPerSecond int64 = 1e9

const (
	day  = 24 * time.Hour
	week = 7 * day
	year = 365 * day
)

var durationUnits = map[string]time.Duration{
	"ns": time.Nanosecond,
	"us": time.Microsecond,
	"µs": time.Microsecond,
	"ms": time.Millisecond,
	"s":  time.Second,
	"m":  time.Minute,
	"h":  time.Hour,
	"d":  day,
	"w":  week,
	"y":  year,
}

// ParseDuration parses the textual duration grammar: an optional sign
// followed by one or more decimal numbers, each with an optional fraction and
// a unit suffix, e.g. "5m30s", "-1.5h", "2d12h". "0" alone is zero.
func ParseDuration(s string) (time.Duration, error) {
	orig := s
	neg := false
	if s != "" && (s[0] == '-' || s[0] == '+') {
		neg = s[0] == '-'
		s = s[1:]
	}
	if s == "0" {
		return 0, nil
	}
	if s == "" {
		return 0, fmt.Errorf("invalid duration %q", orig)
	}
	var total uint64
	for s != "" {
		var whole, frac, scale uint64
		i := 0
		for i < len(s) && isDigit(s[i]) {
			if whole > (math.MaxInt64-9)/10 {
				return 0, errDurationRange
			}
			whole = whole*10 + uint64(s[i]-'0')
			i++
		}
		digits := i
		scale = 1
		if i < len(s) && s[i] == '.' {
			i++
			for i < len(s) && isDigit(s[i]) {
				// Digits past nanosecond resolution of the smallest unit
				// cannot change the result.
				if scale < 1e9 {
					frac = frac*10 + uint64(s[i]-'0')
					scale *= 10
				}
				digits++
				i++
			}
		}
		if digits == 0 {
			return 0, fmt.Errorf("invalid duration %q", orig)
		}
		s = s[i:]
		j := 0
		for j < len(s) && s[j] != '.' && !isDigit(s[j]) {
			j++
		}
		unit, ok := durationUnits[s[:j]]
		if !ok {
			if j == 0 {
				return 0, fmt.Errorf("missing unit in duration %q", orig)
			}
			return 0, fmt.Errorf("unknown unit %q in duration %q", s[:j], orig)
		}
		s = s[j:]
		u := uint64(unit)
		if whole > math.MaxInt64/u {
			return 0, errDurationRange
		}
		v := whole * u
		if frac > 0 {
			v += uint64(float64(frac) * (float64(u) / float64(scale)))
		}
		total += v
		if total > math.MaxInt64 {
			return 0, errDurationRange
		}
	}
	if neg {
		return -time.Duration(total), nil
	}
	return time.Duration(total), nil
}

// ParseSeconds parses decimal seconds with an optional fraction, e.g.
// "1589489000.123456", into nanoseconds. Fraction digits beyond nanosecond
// precision are truncated.
func ParseSeconds(s string) (int64, error) {
	if s == "" {
		return 0, errors.New("empty seconds value")
	}
	neg := false
	k := 0
	if s[0] == '-' {
		neg, k = true, 1
	}
	var sec, frac int64
	scale := nsPerSecond
	digits := 0
	for ; k < len(s) && s[k] != '.'; k++ {
		if !isDigit(s[k]) {
			return 0, fmt.Errorf("invalid seconds value %q", s)
		}
		if sec > (math.MaxInt64/nsPerSecond-9)/10 {
			return 0, fmt.Errorf("seconds value %q out of range", s)
		}
		sec = sec*10 + int64(s[k]-'0')
		digits++
	}
	if k < len(s) {
		for k++; k < len(s); k++ {
			if !isDigit(s[k]) {
				return 0, fmt.Errorf("invalid seconds value %q", s)
			}
			if scale > 1 {
				scale /= 10
				frac += int64(s[k]-'0') * scale
			}
			digits++
		}
	}
	if digits == 0 {
		return 0, fmt.Errorf("invalid seconds value %q", s)
	}
	ns := sec*nsPerSecond + frac
	if neg {
		ns = -ns
	}
	return ns, nil
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
