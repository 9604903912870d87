package flatten

import (
	"regexp"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/mcncl/jsonshape/internal/models"
)

// Detectors for values that look like personal data. Each must match the
// whole (trimmed) string.
var valueDetectors = map[string]*regexp.Regexp{
	"email": regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}$`),
	"phone": regexp.MustCompile(`^\+?(?:[0-9]{1,3}[-. ]?)?(?:\([0-9]{2,4}\)|[0-9]{2,4})[-. ][0-9]{3,4}[-. ][0-9]{4}$`),
	// Korean resident registration number: YYMMDD-GNNNNNN.
	"rrn": regexp.MustCompile(`^[0-9]{2}(?:0[1-9]|1[0-2])(?:0[1-9]|[12][0-9]|3[01])-?[1-8][0-9]{6}$`),
}

// Words that mark a field name as holding personal data.
var sensitiveKeyWords = map[string]struct{}{
	"email":     {},
	"mail":      {},
	"phone":     {},
	"tel":       {},
	"mobile":    {},
	"cellphone": {},
	"ssn":       {},
	"rrn":       {},
	"jumin":     {},
}

// Detect returns the name of the detector matching s, if any.
func Detect(s string) (string, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	for _, name := range []string{"email", "phone", "rrn"} {
		if valueDetectors[name].MatchString(s) {
			return name, true
		}
	}
	return "", false
}

// IsSensitiveKey reports whether a field name suggests personal data,
// e.g. "email", "userPhone" or "mobile_no".
func IsSensitiveKey(name string) bool {
	for _, word := range strings.Split(strcase.ToSnake(name), "_") {
		if _, ok := sensitiveKeyWords[word]; ok {
			return true
		}
	}
	return false
}

// mask replaces v with the mask literal when either the value or the name
// of the field holding it looks sensitive. Only strings are checked by
// value; strings and numbers are checked by field name. Null and booleans
// are never masked.
func mask(key models.PathKey, v models.Value, literal string) models.Value {
	switch v.Kind {
	case models.String:
		if _, ok := Detect(v.Str); ok || IsSensitiveKey(key.LastName()) {
			return models.StringValue(literal)
		}
	case models.Number:
		if IsSensitiveKey(key.LastName()) {
			return models.StringValue(literal)
		}
	}
	return v
}
