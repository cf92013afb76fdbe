package validation

import (
	"unicode"

	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

const (
	MinPasswordLength = 8
	// bcrypt молча обрезает всё длиннее 72 байт
	MaxPasswordLength = 72
)

var passwordClasses = []struct {
	is      func(rune) bool
	message string
}{
	{unicode.IsUpper, "пароль должен содержать хотя бы одну заглавную букву"},
	{unicode.IsLower, "пароль должен содержать хотя бы одну строчную букву"},
	{unicode.IsDigit, "пароль должен содержать хотя бы одну цифру"},
}

// ValidatePassword длина в байтах плюс по символу каждого класса из passwordClasses.
func ValidatePassword(password string) error {
	switch n := len(password); {
	case n < MinPasswordLength:
		return apperror.Validation("пароль должен быть не менее %d символов", MinPasswordLength)
	case n > MaxPasswordLength:
		return apperror.Validation("пароль должен быть не более %d байт", MaxPasswordLength)
	}

	for _, class := range passwordClasses {
		if !containsRune(password, class.is) {
			return apperror.New(apperror.ErrCodeValidation, class.message)
		}
	}
	return nil
}

func containsRune(s string, pred func(rune) bool) bool {
	for _, r := range s {
		if pred(r) {
			return true
		}
	}
	return false
}
