package validation

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/ignatzorin/cocreate-backend/internal/domain/geo"
	"github.com/ignatzorin/cocreate-backend/internal/pkg/apperror"
)

// Константы валидации
const (
	MinUsernameLength      = 3
	MaxUsernameLength      = 30
	MinProductTitleLength  = 3
	MaxProductTitleLength  = 200
	MaxDescriptionLength   = 5000
	MaxBusinessNameLength  = 200
	MaxLocationNameLength  = 200
	MaxAlertNameLength     = 100
	MaxProjectNameLength   = 200
	MaxCategoryNameLength  = 100
	MaxKeywordsLength      = 500
	MaxEvidenceLength      = 5000
	MaxAdminNotesLength    = 2000
	DefaultAlertRadiusKm   = 10
	MaxAlertRadiusKm       = 500
	MaxCartQuantityPerItem = 100000
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
	usernameRegex    = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	phoneRegex       = regexp.MustCompile(`^\+?[0-9 ()-]{7,20}$`)
	slugRegex        = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return apperror.Validation("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return apperror.Validation("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return apperror.Validation("email обязателен")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return apperror.Validation("некорректный формат email")
	}

	localPart, domainPart := parts[0], parts[1]
	if len(localPart) == 0 || len(localPart) > 64 {
		return apperror.Validation("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return apperror.Validation("доменная часть email должна быть от 1 до 255 символов")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return apperror.Validation("локальная часть email содержит недопустимые символы")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return apperror.Validation("доменная часть email имеет некорректный формат")
	}

	return nil
}

// ValidateNonEmpty проверяет, что строка не пустая.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return apperror.Validation("%s не может быть пустым", fieldName)
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return apperror.Validation("имя пользователя обязательно")
	}

	if err := ValidateLength("имя пользователя", username, MinUsernameLength, MaxUsernameLength); err != nil {
		return err
	}

	if !usernameRegex.MatchString(username) {
		return apperror.Validation("имя пользователя может содержать только буквы, цифры и подчеркивание")
	}

	if unicode.IsDigit(rune(username[0])) {
		return apperror.Validation("имя пользователя не может начинаться с цифры")
	}

	return nil
}

// ValidatePhone проверяет номер телефона, если он указан.
func ValidatePhone(phone *string) error {
	if phone == nil || *phone == "" {
		return nil
	}
	if !phoneRegex.MatchString(strings.TrimSpace(*phone)) {
		return apperror.Validation("некорректный номер телефона")
	}
	return nil
}

// ValidateProductTitle проверяет заголовок объявления.
func ValidateProductTitle(title string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return apperror.Validation("заголовок объявления обязателен")
	}
	return ValidateLength("заголовок объявления", title, MinProductTitleLength, MaxProductTitleLength)
}

// ValidateOptionalText проверяет максимальную длину необязательного текста.
func ValidateOptionalText(fieldName string, value *string, max int) error {
	if value == nil {
		return nil
	}
	return ValidateLength(fieldName, strings.TrimSpace(*value), 0, max)
}

// ValidateOneOf проверяет, что значение входит в допустимый набор.
func ValidateOneOf(fieldName, value string, allowed map[string]struct{}) error {
	if _, ok := allowed[value]; !ok {
		return apperror.Validation("недопустимое значение %s: %q", fieldName, value)
	}
	return nil
}

// ValidateCoordinates требует, чтобы широта и долгота были заданы парой и в допустимых пределах.
func ValidateCoordinates(lat, lng *float64) error {
	if lat == nil && lng == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return apperror.Validation("широта и долгота должны указываться вместе")
	}
	return geo.Point{Lat: *lat, Lng: *lng}.Validate()
}

// ValidateRadius проверяет радиус поиска в километрах.
func ValidateRadius(radiusKm int) error {
	if radiusKm <= 0 {
		return apperror.Validation("радиус должен быть положительным целым числом")
	}
	if radiusKm > MaxAlertRadiusKm {
		return apperror.Validation("радиус не может превышать %d км", MaxAlertRadiusKm)
	}
	return nil
}

// ValidateSlug проверяет человекочитаемый идентификатор набора.
func ValidateSlug(slug string) error {
	if !slugRegex.MatchString(slug) {
		return apperror.Validation("slug может содержать только строчные латинские буквы, цифры и дефисы")
	}
	return ValidateLength("slug", slug, 1, 200)
}
