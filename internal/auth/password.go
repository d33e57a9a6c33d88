package auth

import "unicode/utf8"

// Strength is a 0..5 password score with a label.
type Strength struct {
	Score int    `json:"score"`
	Label string `json:"label"`
}

var strengthLabels = []string{"Very Weak", "Very Weak", "Weak", "Fair", "Good", "Strong"}

// PasswordStrength awards one point each for a length of at least 8, an
// ASCII lower case letter, an upper case letter, a digit and any other
// character.
func PasswordStrength(pw string) Strength {
	var lower, upper, digit, special bool
	for _, r := range pw {
		switch {
		case r >= 'a' && r <= 'z':
			lower = true
		case r >= 'A' && r <= 'Z':
			upper = true
		case r >= '0' && r <= '9':
			digit = true
		default:
			special = true
		}
	}

	score := 0
	for _, ok := range []bool{utf8.RuneCountInString(pw) >= 8, lower, upper, digit, special} {
		if ok {
			score++
		}
	}
	return Strength{Score: score, Label: strengthLabels[score]}
}
