package format

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/golang-sql/civil"
	"github.com/jinzhu/now"
	"github.com/spf13/cast"
)

// strictLayouts are tried after civil.ParseDate. Slash, dash and dot
// separated numeric dates are day-first, matching the default display pattern.
var strictLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"02/01/2006",
	"02-01-2006",
	"02.01.2006",
	"2/1/2006",
	"2 January 2006",
	"2 Jan 2006",
	"January 2, 2006",
	"Jan 2, 2006",
	time.RFC1123Z,
	time.RFC1123,
}

// StoreDate converts v into the canonical YYYY-MM-DD form.
func StoreDate(v any, o Options) (string, bool) {
	t, ok := ParseDate(v, o)
	if !ok {
		return "", false
	}
	return civil.DateOf(t).String(), true
}

// DisplayDate converts v into o.DatePattern.
func DisplayDate(v any, o Options) (string, bool) {
	o = o.WithDefaults()
	t, ok := ParseDate(v, o)
	if !ok {
		return "", false
	}
	return Render(t, o.DatePattern), true
}

// ParseDate interprets v as a point in time. Numeric input is only accepted as
// a Unix timestamp between 0 and MaxTimestampHorizon years from now; strings are
// parsed strictly first and loosely second.
func ParseDate(v any, o Options) (time.Time, bool) {
	o = o.WithDefaults()

	switch x := v.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if x.IsZero() {
			return time.Time{}, false
		}
		return inLocation(x, o.Location), true
	case *time.Time:
		if x == nil || x.IsZero() {
			return time.Time{}, false
		}
		return inLocation(*x, o.Location), true
	case civil.Date:
		if !x.IsValid() {
			return time.Time{}, false
		}
		return x.In(o.Location), true
	}

	if ts, numeric := timestamp(v); numeric {
		maxTS := o.Now().AddDate(MaxTimestampHorizon, 0, 0).Unix()
		if ts < 0 || ts > maxTS {
			return time.Time{}, false
		}
		return time.Unix(ts, 0).In(o.Location), true
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return time.Time{}, false
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	if t, ok := parseStrict(s, o.Location); ok {
		return t, true
	}
	return parseLoose(s, o.Location)
}

// inLocation moves t into loc. Midnight UTC is how drivers scan DATE columns,
// so such a value keeps its calendar day instead of being shifted.
func inLocation(t time.Time, loc *time.Location) time.Time {
	if t.Location() == time.UTC && t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return civil.DateOf(t).In(loc)
	}
	return t.In(loc)
}

// timestamp reports whether v is numeric and, if it is integral, its value.
// Non-integral numbers report numeric with an out-of-range value.
func timestamp(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint:
		return clampUint(uint64(x)), true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint64:
		return clampUint(x), true
	case float32:
		return integral(float64(x))
	case float64:
		return integral(x)
	case string:
		return integerString(x)
	case []byte:
		return integerString(string(x))
	}
	return 0, false
}

func clampUint(u uint64) int64 {
	if u > math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(u)
}

func integral(f float64) (int64, bool) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f > math.MaxInt64 || f < math.MinInt64 {
		return -1, true
	}
	return int64(f), true
}

// integerString accepts an optionally signed run of digits. Anything else,
// including decimals, is left to the string parsers.
func integerString(s string) (int64, bool) {
	s = strings.TrimSpace(s)
	digits := strings.TrimPrefix(strings.TrimPrefix(s, "-"), "+")
	if digits == "" || strings.Trim(digits, "0123456789") != "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return -1, true
	}
	return n, true
}

func parseStrict(s string, loc *time.Location) (time.Time, bool) {
	if d, err := civil.ParseDate(s); err == nil {
		return d.In(loc), true
	}
	for _, layout := range strictLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseLoose(s string, loc *time.Location) (time.Time, bool) {
	cfg := &now.Config{WeekStartDay: time.Monday, TimeLocation: loc}
	t, err := cfg.Parse(s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Render formats t with a PHP date() style pattern. Supported tokens:
// d j D l N w m n M F Y y H G h g i s A a U; a backslash escapes the next
// character and any other character is copied through.
func Render(t time.Time, pattern string) string {
	var b strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch r {
		case '\\':
			if i+1 < len(runes) {
				i++
				b.WriteRune(runes[i])
			}
		case 'd':
			b.WriteString(pad2(t.Day()))
		case 'j':
			b.WriteString(strconv.Itoa(t.Day()))
		case 'D':
			b.WriteString(t.Weekday().String()[:3])
		case 'l':
			b.WriteString(t.Weekday().String())
		case 'N':
			wd := int(t.Weekday())
			if wd == 0 {
				wd = 7
			}
			b.WriteString(strconv.Itoa(wd))
		case 'w':
			b.WriteString(strconv.Itoa(int(t.Weekday())))
		case 'm':
			b.WriteString(pad2(int(t.Month())))
		case 'n':
			b.WriteString(strconv.Itoa(int(t.Month())))
		case 'M':
			b.WriteString(t.Month().String()[:3])
		case 'F':
			b.WriteString(t.Month().String())
		case 'Y':
			b.WriteString(strconv.Itoa(t.Year()))
		case 'y':
			b.WriteString(pad2(t.Year() % 100))
		case 'H':
			b.WriteString(pad2(t.Hour()))
		case 'G':
			b.WriteString(strconv.Itoa(t.Hour()))
		case 'h':
			b.WriteString(pad2(hour12(t.Hour())))
		case 'g':
			b.WriteString(strconv.Itoa(hour12(t.Hour())))
		case 'i':
			b.WriteString(pad2(t.Minute()))
		case 's':
			b.WriteString(pad2(t.Second()))
		case 'A':
			b.WriteString(t.Format("PM"))
		case 'a':
			b.WriteString(t.Format("pm"))
		case 'U':
			b.WriteString(strconv.FormatInt(t.Unix(), 10))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func hour12(h int) int {
	h %= 12
	if h == 0 {
		return 12
	}
	return h
}

func pad2(n int) string {
	if n < 10 && n >= 0 {
		return "0" + strconv.Itoa(n)
	}
	return strconv.Itoa(n)
}
