// Package auth holds credential handling: password scoring and hashing,
// session tokens, and Google sign-in.
package auth

import (
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"
)

// MinStrength is the lowest PasswordStrength accepted at signup.
const MinStrength = 3

// PasswordStrength scores pw from 0 to 5, one point each for 8 or more characters, a
// lowercase letter, an uppercase letter, a digit, and any other character.
func PasswordStrength(pw string) int {
	var lower, upper, digit, other bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			other = true
		}
	}

	score := 0
	if utf8.RuneCountInString(pw) >= 8 {
		score++
	}
	for _, ok := range []bool{lower, upper, digit, other} {
		if ok {
			score++
		}
	}
	return score
}

// StrengthLabel buckets a strength score.
func StrengthLabel(score int) string {
	switch {
	case score <= 1:
		return "Weak"
	case score <= 3:
		return "Medium"
	default:
		return "Strong"
	}
}

// HashPassword bcrypt-hashes pw. cost outside bcrypt's range falls back to
// bcrypt.DefaultCost.
func HashPassword(pw string, cost int) (string, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(pw), cost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether pw matches hash.
func CheckPassword(hash, pw string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pw)) == nil
}
