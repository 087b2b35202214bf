package inputval

import (
	"testing"
	"time"
)

func TestIsValidNationalID(t *testing.T) {
	tests := []struct {
		id   string
		want bool
	}{
		{"10000000146", true},
		{"10000000147", false},
		{"12345678950", true},
		{"19090909018", false},  // weighted difference is negative
		{"1000000014", false},   // ten digits
		{"100000001460", false}, // twelve digits
		{"1000000014a", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			if got := IsValidNationalID(tt.id); got != tt.want {
				t.Errorf("IsValidNationalID(%q) = %v, want %v", tt.id, got, tt.want)
			}
		})
	}
}

func TestIsValidPhone(t *testing.T) {
	tests := []struct {
		phone string
		want  bool
	}{
		{"5321234567", true},
		{"05321234567", true},
		{"+905321234567", true},
		{"0532 123 45 67", true},
		{"532123456", false},
		{"+15321234567", false},
		{"05321234567x", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.phone, func(t *testing.T) {
			if got := IsValidPhone(tt.phone); got != tt.want {
				t.Errorf("IsValidPhone(%q) = %v, want %v", tt.phone, got, tt.want)
			}
		})
	}
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"user.name+tag@sub.example.org", true},
		{"a@b.co", true},
		{"user@localhost", false},
		{"user@", false},
		{"@example.com", false},
		{"user @example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.email, func(t *testing.T) {
			if got := IsValidEmail(tt.email); got != tt.want {
				t.Errorf("IsValidEmail(%q) = %v, want %v", tt.email, got, tt.want)
			}
		})
	}
}

func TestIsValidEducation(t *testing.T) {
	for _, e := range EducationLevels() {
		if !IsValidEducation(e) {
			t.Errorf("IsValidEducation(%q) = false", e)
		}
	}
	if IsValidEducation("university") {
		t.Error("IsValidEducation(university) = true")
	}
}

func TestIsEligibleAge(t *testing.T) {
	now := time.Date(2026, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		name  string
		birth time.Time
		want  bool
	}{
		{"exactly 18 today", time.Date(2008, 6, 15, 0, 0, 0, 0, time.UTC), true},
		{"18 tomorrow", time.Date(2008, 6, 16, 0, 0, 0, 0, time.UTC), false},
		{"forty", time.Date(1986, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"120", time.Date(1906, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"121", time.Date(1905, 1, 1, 0, 0, 0, 0, time.UTC), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsEligibleAge(tt.birth, now); got != tt.want {
				t.Errorf("IsEligibleAge(%s) = %v, want %v", tt.birth.Format(DateLayout), got, tt.want)
			}
		})
	}
}

func TestParseBirthDate(t *testing.T) {
	if _, ok := ParseBirthDate("1990-04-23"); !ok {
		t.Error("date-only layout rejected")
	}
	got, ok := ParseBirthDate("1990-04-23T10:00:00+03:00")
	if !ok || got.Format(DateLayout) != "1990-04-23" {
		t.Errorf("RFC 3339 layout: got %v, %v", got, ok)
	}
	if _, ok := ParseBirthDate("23/04/1990"); ok {
		t.Error("unexpected layout accepted")
	}
}

func TestIsValidHTTPURL(t *testing.T) {
	tests := []struct {
		url  string
		want bool
	}{
		{"https://cdn.example.com/docs/form.pdf", true},
		{"http://localhost:8080/file", true},
		{"  https://example.com  ", true},
		{"ftp://example.com/file", false},
		{"javascript:alert(1)", false},
		{"/relative/path", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			if got := IsValidHTTPURL(tt.url); got != tt.want {
				t.Errorf("IsValidHTTPURL(%q) = %v, want %v", tt.url, got, tt.want)
			}
		})
	}
}

type signup struct {
	Email     string  `json:"email" validate:"required,email_simple"`
	Password  string  `json:"password" validate:"required,min=6"`
	Gender    string  `json:"gender" validate:"required,gender"`
	BirthDate string  `json:"birthDate" validate:"required,birthdate,adult"`
	Phone     *string `json:"phone" validate:"omitempty,phone_tr"`
}

func TestStruct_CollectsAllViolations(t *testing.T) {
	bad := "123"
	fields := Struct(signup{
		Email:     "not-an-email",
		Password:  "12345",
		Gender:    "other",
		BirthDate: time.Now().AddDate(-10, 0, 0).Format(DateLayout),
		Phone:     &bad,
	})

	for _, f := range []string{"email", "password", "gender", "birthDate", "phone"} {
		if _, ok := fields[f]; !ok {
			t.Errorf("expected violation for %q, got %v", f, fields)
		}
	}
}

func TestStruct_Valid(t *testing.T) {
	fields := Struct(signup{
		Email:     "member@example.com",
		Password:  "123456",
		Gender:    "female",
		BirthDate: "1990-01-01",
	})
	if fields != nil {
		t.Errorf("expected no violations, got %v", fields)
	}
}
