package harvest

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// TimeFormat is the wire format of time.Time query parameters. Values are converted to UTC first.
const TimeFormat = "2006-01-02T15:04:05Z"

// ErrInvalidParam is returned by ParseParams for pairs without '='.
var ErrInvalidParam = errors.New("invalid parameter, expected key=value")

// Params are query parameters accumulated on a resource handle.
// Values may be strings, bools, integers, floats, time.Time, fmt.Stringer,
// or slices of those (sent comma-joined). Nil values are dropped.
type Params map[string]any

// Merge copies other into p, overriding existing keys, and returns p.
// A nil receiver is allocated.
func (p Params) Merge(other Params) Params {
	if p == nil {
		p = make(Params, len(other))
	}

	for key, value := range other {
		p[key] = value
	}

	return p
}

// Clone returns a shallow copy.
func (p Params) Clone() Params {
	return Params{}.Merge(p)
}

// Values serialises the parameters for a request URL.
func (p Params) Values() url.Values {
	values := url.Values{}

	for key, value := range p {
		text, ok := formatParam(value)
		if !ok {
			continue
		}

		values.Set(key, text)
	}

	return values
}

func formatParam(value any) (string, bool) {
	switch typed := value.(type) {
	case nil:
		return "", false
	case string:
		return typed, true
	case time.Time:
		return typed.UTC().Format(TimeFormat), true
	case *time.Time:
		if typed == nil {
			return "", false
		}

		return typed.UTC().Format(TimeFormat), true
	case bool:
		return strconv.FormatBool(typed), true
	case int:
		return strconv.Itoa(typed), true
	case int64:
		return strconv.FormatInt(typed, 10), true
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64), true
	case []string:
		return strings.Join(typed, ","), true
	case []int:
		parts := make([]string, len(typed))
		for i, n := range typed {
			parts[i] = strconv.Itoa(n)
		}

		return strings.Join(parts, ","), true
	case []int64:
		parts := make([]string, len(typed))
		for i, n := range typed {
			parts[i] = strconv.FormatInt(n, 10)
		}

		return strings.Join(parts, ","), true
	case fmt.Stringer:
		return typed.String(), true
	default:
		return fmt.Sprint(typed), true
	}
}

// ParseParams builds Params from "key=value" pairs, as given on a command line.
func ParseParams(pairs []string) (Params, error) {
	params := make(Params, len(pairs))

	for _, pair := range pairs {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidParam, pair)
		}

		params[key] = value
	}

	return params, nil
}
