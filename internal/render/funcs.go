package render

import (
	"encoding/json"
	"html/template"
	"reflect"
	"strings"
	"time"
	"unicode/utf8"
)

// Funcs returns the helper functions available to every template.
// now backs the year helper so output stays reproducible.
func Funcs(now func() time.Time) template.FuncMap {
	return template.FuncMap{
		"lower":      strings.ToLower,
		"upper":      strings.ToUpper,
		"limit":      limit,
		"formatDate": formatDate,
		"json":       toJSON,
		"size":       size,
		"year":       func() int { return now().Year() },
	}
}

// limit truncates text to n runes and appends an ellipsis when cut.
func limit(text string, n int) string {
	if n < 0 || utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return string(runes[:n]) + "..."
}

var dateTokens = strings.NewReplacer(
	"YYYY", "2006",
	"MM", "01",
	"DD", "02",
	"HH", "15",
	"mm", "04",
	"ss", "05",
)

// formatDate formats t with a YYYY-MM-DD HH:mm:ss style pattern.
// Strings are parsed as RFC 3339 or plain dates; unparsable input yields "".
func formatDate(v any, pattern string) string {
	var t time.Time
	switch d := v.(type) {
	case time.Time:
		t = d
	case string:
		parsed, err := time.Parse(time.RFC3339, d)
		if err != nil {
			parsed, err = time.Parse(time.DateOnly, d)
			if err != nil {
				return ""
			}
		}
		t = parsed
	default:
		return ""
	}
	if t.IsZero() {
		return ""
	}
	if pattern == "" {
		pattern = "YYYY-MM-DD"
	}
	return t.Format(dateTokens.Replace(pattern))
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// size reports the length of strings, slices, arrays and maps, else 0.
func size(v any) int {
	if v == nil {
		return 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.String:
		return utf8.RuneCountInString(rv.String())
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len()
	default:
		return 0
	}
}
