// Package policy implements the account and password policy as pure,
// deterministic functions. Nothing in here touches storage or the
// clock; identical input always produces an identical verdict.
package policy

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxEmailLength    = 254 // RFC 5321
	MaxLocalPartLen   = 64  // RFC 5321
)

var (
	usernameCharsRe = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	usernameStartRe = regexp.MustCompile(`^[a-zA-Z0-9]`)

	// RFC 5322 compliant email pattern (simplified but robust)
	emailRe = regexp.MustCompile("^[a-zA-Z0-9.!#$%&'*+/=?^_`{|}~-]+@" +
		"[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?" +
		"(?:\\.[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?)*$")

	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile("[!@#$%^&*(),.?\":{}|<>_\\-+=\\[\\]\\\\;/~`]")

	seqNumbersRe = regexp.MustCompile(`(012|123|234|345|456|567|678|789|890)`)
	seqLettersRe = regexp.MustCompile(`(abc|bcd|cde|def|efg|fgh|ghi|hij|ijk|jkl|klm|lmn|mno|nop|opq|pqr|qrs|rst|stu|tuv|uvw|vwx|wxy|xyz)`)

	fullNameRe = regexp.MustCompile(`^[a-zA-Z\s\-'.]+$`)
)

// reservedUsernames may never be registered, regardless of case.
var reservedUsernames = map[string]bool{
	"admin": true, "root": true, "system": true, "administrator": true,
	"moderator": true, "null": true, "undefined": true, "api": true,
	"www": true, "ftp": true, "mail": true, "support": true,
}

// commonPasswordPatterns are rejected as substrings, case-insensitively.
var commonPasswordPatterns = []string{
	"password", "12345678", "qwerty", "abc123", "letmein",
	"welcome", "monkey", "1234567890", "password123",
}

// ValidateUsername checks length, charset, leading character, and the
// reserved-name set.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return NewValidationError("username", "username is required")
	}
	if utf8.RuneCountInString(username) < MinUsernameLength {
		return NewValidationError("username", "username must be at least 3 characters")
	}
	if utf8.RuneCountInString(username) > MaxUsernameLength {
		return NewValidationError("username", "username must be at most 30 characters")
	}
	if !usernameCharsRe.MatchString(username) {
		return NewValidationError("username", "username can only contain letters, numbers, underscores, and hyphens")
	}
	if !usernameStartRe.MatchString(username) {
		return NewValidationError("username", "username must start with a letter or number")
	}
	if reservedUsernames[strings.ToLower(username)] {
		return NewValidationError("username", "this username is reserved")
	}
	return nil
}

// ValidateEmail checks the address against an RFC-5322-approximate
// pattern plus the RFC 5321 length limits.
func ValidateEmail(email string) error {
	email = strings.TrimSpace(email)
	if email == "" {
		return NewValidationError("email", "email is required")
	}
	if !emailRe.MatchString(email) {
		return NewValidationError("email", "invalid email format")
	}
	if len(email) > MaxEmailLength {
		return NewValidationError("email", "email address is too long")
	}
	at := strings.LastIndex(email, "@")
	if len(email[:at]) > MaxLocalPartLen {
		return NewValidationError("email", "email local part is too long")
	}
	return nil
}

// ValidatePasswordStrength enforces the structural password policy:
// 8-128 characters, all four character classes, no common patterns,
// no 3-character ascending runs, no character repeated 3+ times in a row.
func ValidatePasswordStrength(password string) error {
	if password == "" {
		return NewValidationError("password", "password is required")
	}

	length := utf8.RuneCountInString(password)
	if length < MinPasswordLength {
		return NewValidationError("password", "password must be at least 8 characters")
	}
	if length > MaxPasswordLength {
		return NewValidationError("password", "password must be at most 128 characters")
	}

	if !upperRe.MatchString(password) {
		return NewValidationError("password", "password must contain at least one uppercase letter")
	}
	if !lowerRe.MatchString(password) {
		return NewValidationError("password", "password must contain at least one lowercase letter")
	}
	if !digitRe.MatchString(password) {
		return NewValidationError("password", "password must contain at least one number")
	}
	if !specialRe.MatchString(password) {
		return NewValidationError("password", "password must contain at least one special character (!@#$%^&*...)")
	}

	lowered := strings.ToLower(password)
	for _, pattern := range commonPasswordPatterns {
		if strings.Contains(lowered, pattern) {
			return NewValidationError("password", "password contains a common pattern, please choose a stronger password")
		}
	}

	if seqNumbersRe.MatchString(password) {
		return NewValidationError("password", "password should not contain sequential numbers")
	}
	if seqLettersRe.MatchString(lowered) {
		return NewValidationError("password", "password should not contain sequential letters")
	}
	if hasRepeatedRun(password, 3) {
		return NewValidationError("password", "password should not contain repeated characters (e.g. 'aaa')")
	}

	return nil
}

// hasRepeatedRun reports whether any rune appears n or more times
// consecutively. Regexp backreferences are unavailable in RE2, so this
// is a plain scan.
func hasRepeatedRun(s string, n int) bool {
	var prev rune
	run := 0
	for _, r := range s {
		if r == prev {
			run++
			if run >= n {
				return true
			}
		} else {
			prev = r
			run = 1
		}
	}
	return false
}

// PasswordStrengthScore rates a password from 0 to 100: length tiers
// (8/12/16 chars), character-class presence, and unique-rune tiers
// (8/12/16 distinct).
func PasswordStrengthScore(password string) int {
	if password == "" {
		return 0
	}

	score := 0

	length := utf8.RuneCountInString(password)
	if length >= 8 {
		score += 10
	}
	if length >= 12 {
		score += 10
	}
	if length >= 16 {
		score += 10
	}

	if lowerRe.MatchString(password) {
		score += 10
	}
	if upperRe.MatchString(password) {
		score += 10
	}
	if digitRe.MatchString(password) {
		score += 10
	}
	if specialRe.MatchString(password) {
		score += 10
	}

	unique := map[rune]bool{}
	for _, r := range password {
		unique[r] = true
	}
	if len(unique) >= 8 {
		score += 10
	}
	if len(unique) >= 12 {
		score += 10
	}
	if len(unique) >= 16 {
		score += 10
	}

	if score > 100 {
		score = 100
	}
	return score
}

// ValidateFullName checks the optional full name field: 2-100
// characters of letters, spaces, hyphens, apostrophes, and periods.
func ValidateFullName(fullName string) error {
	if fullName == "" {
		return nil // optional field
	}

	fullName = strings.TrimSpace(fullName)
	if utf8.RuneCountInString(fullName) < 2 {
		return NewValidationError("full_name", "full name must be at least 2 characters")
	}
	if utf8.RuneCountInString(fullName) > 100 {
		return NewValidationError("full_name", "full name must be at most 100 characters")
	}
	if !fullNameRe.MatchString(fullName) {
		return NewValidationError("full_name", "full name can only contain letters, spaces, hyphens, and apostrophes")
	}
	return nil
}

// SanitizeText trims, truncates to maxLen runes, and strips null bytes
// and control characters except newline and tab.
func SanitizeText(text string, maxLen int) string {
	text = strings.TrimSpace(text)

	if maxLen > 0 && utf8.RuneCountInString(text) > maxLen {
		runes := []rune(text)
		text = string(runes[:maxLen])
	}

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if r == '\n' || r == '\t' || r >= 32 {
			b.WriteRune(r)
		}
	}
	return b.String()
}
