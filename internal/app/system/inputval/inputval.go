// Package inputval holds the field-level checks used by registration and
// profile editing: email, phone, national identity number, education level,
// birth date and document URLs.
package inputval

import (
	"net/url"
	"regexp"
	"strings"
	"time"
)

// MinPasswordLength is the server-side password floor. The mobile client
// enforces a stricter policy of its own.
const MinPasswordLength = 6

// MaxPasswordBytes is the bcrypt input limit, counted in bytes.
const MaxPasswordBytes = 72

// Age bounds for membership, inclusive.
const (
	MinAge = 18
	MaxAge = 120
)

// DateLayout is the layout of stored birth dates.
const DateLayout = "2006-01-02"

var (
	emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneRe = regexp.MustCompile(`^(\+90|0)?[0-9]{10}$`)
)

// Education levels accepted on the detail step.
const (
	EducationPrimary   = "ilkogretim"
	EducationHigh      = "lise"
	EducationAssociate = "on_lisans"
	EducationBachelor  = "lisans"
	EducationMaster    = "yuksek_lisans"
	EducationDoctorate = "doktora"
)

var educationLevels = []string{
	EducationPrimary,
	EducationHigh,
	EducationAssociate,
	EducationBachelor,
	EducationMaster,
	EducationDoctorate,
}

// EducationLevels returns the accepted education levels in order.
func EducationLevels() []string {
	out := make([]string, len(educationLevels))
	copy(out, educationLevels)
	return out
}

// IsValidEmail reports whether s looks like local@domain.tld.
func IsValidEmail(s string) bool {
	return emailRe.MatchString(strings.TrimSpace(s))
}

// IsValidPhone accepts ten digits with an optional +90 or 0 prefix.
// Spaces are ignored.
func IsValidPhone(s string) bool {
	return phoneRe.MatchString(strings.ReplaceAll(s, " ", ""))
}

// IsValidNationalID validates an 11-digit national identity number and its
// two check digits:
//
//	d10 = ((d1+d3+d5+d7+d9)*7 - (d2+d4+d6+d8)) mod 10, the difference non-negative
//	d11 = (d1+...+d10) mod 10
func IsValidNationalID(s string) bool {
	if len(s) != 11 {
		return false
	}
	var d [11]int
	for i := 0; i < 11; i++ {
		c := s[i]
		if c < '0' || c > '9' {
			return false
		}
		d[i] = int(c - '0')
	}
	odd := d[0] + d[2] + d[4] + d[6] + d[8]
	even := d[1] + d[3] + d[5] + d[7]
	// A negative weighted difference never matches a check digit.
	if v := odd*7 - even; v < 0 || v%10 != d[9] {
		return false
	}
	return (odd+even+d[9])%10 == d[10]
}

// IsValidEducation reports whether s is an accepted education level.
func IsValidEducation(s string) bool {
	for _, e := range educationLevels {
		if s == e {
			return true
		}
	}
	return false
}

// IsValidGender accepts "male" or "female".
func IsValidGender(s string) bool {
	return s == "male" || s == "female"
}

// ParseBirthDate accepts YYYY-MM-DD or a full RFC 3339 timestamp and returns
// the calendar date.
func ParseBirthDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(DateLayout, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		y, m, d := t.Date()
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// AgeOn returns the age in whole years of someone born on birth at the date now.
func AgeOn(birth, now time.Time) int {
	age := now.Year() - birth.Year()
	if now.Month() < birth.Month() || (now.Month() == birth.Month() && now.Day() < birth.Day()) {
		age--
	}
	return age
}

// IsEligibleAge reports whether birth falls within the membership age bounds at now.
func IsEligibleAge(birth, now time.Time) bool {
	age := AgeOn(birth, now)
	return age >= MinAge && age <= MaxAge
}

// IsValidHTTPURL reports whether s is an absolute http or https URL with a host.
func IsValidHTTPURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" {
		return false
	}
	u, err := url.Parse(s)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
