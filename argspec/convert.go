package argspec

import (
	"fmt"
	"net"
	"net/url"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Converter turns one raw command-line string into a typed value
type Converter interface {
	Convert(value string) (any, error)
}

// ConverterFunc adapts a function to the Converter interface
type ConverterFunc func(value string) (any, error)

// Convert calls f(value)
func (f ConverterFunc) Convert(value string) (any, error) {
	return f(value)
}

// Registry maps target types to converters. Each CommandLine owns one;
// converters registered on it apply to the whole command tree
type Registry struct {
	converters map[reflect.Type]Converter
}

var (
	typeString   = reflect.TypeFor[string]()
	typeBool     = reflect.TypeFor[bool]()
	typeDuration = reflect.TypeFor[time.Duration]()
	typeTime     = reflect.TypeFor[time.Time]()
	typeURL      = reflect.TypeFor[*url.URL]()
	typeIP       = reflect.TypeFor[net.IP]()
	typeRegexp   = reflect.TypeFor[*regexp.Regexp]()
	typeAnySlice = reflect.TypeFor[[]any]()
	typeStrSlice = reflect.TypeFor[[]string]()
)

var timeLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"15:04:05",
	"15:04",
}

// NewRegistry returns a registry pre-populated with the built-in converters
func NewRegistry() *Registry {
	r := &Registry{converters: make(map[reflect.Type]Converter)}

	for _, t := range []reflect.Type{
		typeString, typeBool,
		reflect.TypeFor[int](), reflect.TypeFor[int8](), reflect.TypeFor[int16](),
		reflect.TypeFor[int32](), reflect.TypeFor[int64](),
		reflect.TypeFor[uint](), reflect.TypeFor[uint8](), reflect.TypeFor[uint16](),
		reflect.TypeFor[uint32](), reflect.TypeFor[uint64](),
		reflect.TypeFor[float32](), reflect.TypeFor[float64](),
	} {
		r.converters[t] = kindConverter(t)
	}

	r.converters[typeDuration] = ConverterFunc(func(s string) (any, error) { return parseDuration(s) })
	r.converters[typeTime] = ConverterFunc(parseTime)
	r.converters[typeURL] = ConverterFunc(func(s string) (any, error) { return url.Parse(s) })
	r.converters[typeIP] = ConverterFunc(func(s string) (any, error) {
		ip := net.ParseIP(s)
		if ip == nil {
			return nil, fmt.Errorf("invalid IP address")
		}
		return ip, nil
	})
	r.converters[typeRegexp] = ConverterFunc(func(s string) (any, error) { return regexp.Compile(s) })
	return r
}

// Register installs c for values of type t, replacing any previous converter
func (r *Registry) Register(t reflect.Type, c Converter) *Registry {
	r.converters[t] = c
	return r
}

// Lookup returns the converter registered for exactly t
func (r *Registry) Lookup(t reflect.Type) (Converter, bool) {
	c, ok := r.converters[t]
	return c, ok
}

// Clone returns an independent copy of the registry
func (r *Registry) Clone() *Registry {
	c := &Registry{converters: make(map[reflect.Type]Converter, len(r.converters))}
	for t, conv := range r.converters {
		c.converters[t] = conv
	}
	return c
}

// Convert converts s to t. Resolution order: exact registration, pointer
// to a convertible element, a named type whose kind is a built-in scalar,
// and finally raw string pass-through for anything else
func (r *Registry) Convert(t reflect.Type, s string) (any, error) {
	if t == nil {
		return s, nil
	}
	if c, ok := r.converters[t]; ok {
		return wrapConversion(t, s, c)
	}

	switch t.Kind() { //nolint:exhaustive // remaining kinds pass the raw string through
	case reflect.Interface:
		return s, nil
	case reflect.Ptr:
		v, err := r.Convert(t.Elem(), s)
		if err != nil {
			return nil, err
		}
		rv := reflect.ValueOf(v)
		if !rv.Type().AssignableTo(t.Elem()) {
			return s, nil
		}
		p := reflect.New(t.Elem())
		p.Elem().Set(rv)
		return p.Interface(), nil
	case reflect.String, reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return wrapConversion(t, s, kindConverter(t))
	}
	return s, nil
}

func wrapConversion(t reflect.Type, s string, c Converter) (any, error) {
	v, err := c.Convert(s)
	if err != nil {
		return nil, &ConversionError{Type: t, Value: s, Cause: err}
	}
	return v, nil
}

// kindConverter parses by reflect kind and converts the result to t, so
// named types such as `type Port uint16` work without registration
func kindConverter(t reflect.Type) Converter {
	return ConverterFunc(func(s string) (any, error) {
		var v any
		var err error

		switch t.Kind() { //nolint:exhaustive // callers only pass scalar kinds
		case reflect.String:
			v = s
		case reflect.Bool:
			v, err = parseBool(s)
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if t == typeDuration {
				v, err = parseDuration(s)
				break
			}
			var n int64
			n, err = parseInt(s, t.Bits())
			v = n
		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			var n uint64
			n, err = parseUint(s, t.Bits())
			v = n
		case reflect.Float32, reflect.Float64:
			v, err = strconv.ParseFloat(strings.TrimSpace(s), t.Bits())
		default:
			return nil, fmt.Errorf("unsupported type conversion to %s", t)
		}
		if err != nil {
			return nil, err
		}
		return reflect.ValueOf(v).Convert(t).Interface(), nil
	})
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "yes", "y", "1", "on":
		return true, nil
	case "false", "f", "no", "n", "0", "off":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean value: %s", s)
	}
}

func isBoolLiteral(s string) bool {
	return strings.EqualFold(s, "true") || strings.EqualFold(s, "false")
}

func splitNumberPrefix(s string) (sign, digits string, base int) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "-") || strings.HasPrefix(s, "+") {
		sign, s = s[:1], s[1:]
	}
	if len(s) > 2 && s[0] == '0' && (s[1] == 'x' || s[1] == 'X') {
		return sign, s[2:], 16
	}
	return sign, s, 10
}

func parseInt(s string, bits int) (int64, error) {
	sign, digits, base := splitNumberPrefix(s)
	return strconv.ParseInt(sign+digits, base, bits)
}

func parseUint(s string, bits int) (uint64, error) {
	sign, digits, base := splitNumberPrefix(s)
	if sign == "-" {
		return 0, fmt.Errorf("negative value for unsigned type")
	}
	return strconv.ParseUint(digits, base, bits)
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}

func parseTime(s string) (any, error) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return nil, fmt.Errorf("unrecognized time format")
}

// parseDuration accepts "MM:SS", "HH:MM:SS", "1d", "2w", "1M", "1Y" and
// everything time.ParseDuration accepts
func parseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, fmt.Errorf("empty duration")
	}
	if strings.Contains(s, ":") {
		return parseColonDuration(s)
	}
	if d, ok := parseExtendedDuration(s); ok {
		return d, nil
	}
	return time.ParseDuration(s)
}

func parseColonDuration(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 2 && len(parts) != 3 {
		return 0, fmt.Errorf("invalid colon duration format: %s", s)
	}

	units := []time.Duration{time.Minute, time.Second}
	if len(parts) == 3 {
		units = []time.Duration{time.Hour, time.Minute, time.Second}
	}

	var total time.Duration
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil {
			return 0, fmt.Errorf("invalid duration component: %s", part)
		}
		total += time.Duration(n) * units[i]
	}
	return total, nil
}

func parseExtendedDuration(s string) (time.Duration, bool) {
	if len(s) < 2 {
		return 0, false
	}

	var unit time.Duration
	switch last := s[len(s)-1]; last {
	case 'd', 'D':
		unit = 24 * time.Hour
	case 'w', 'W':
		unit = 7 * 24 * time.Hour
	case 'M':
		// lowercase m is minutes and belongs to time.ParseDuration
		unit = 30 * 24 * time.Hour
	case 'y', 'Y':
		unit = 365 * 24 * time.Hour
	default:
		return 0, false
	}

	n, err := strconv.Atoi(s[:len(s)-1])
	if err != nil {
		return 0, false
	}
	return time.Duration(n) * unit, true
}
