package validation

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// Константы валидации
const (
	MinReasonLength      = 3
	MaxReasonLength      = 2000
	MinDescriptionLength = 3
	MaxDescriptionLength = 5000
	MinDisputeAmount     = 0.0
	MaxDisputeAmount     = 100000000.0 // 100 миллионов
	MinUsernameLength    = 3
	MaxUsernameLength    = 30
)

// ValidateLength проверяет длину строки.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s должен быть не менее %d символов", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s должен быть не более %d символов", fieldName, max)
	}
	return nil
}

// ValidateReason проверяет текст причины спора или действия.
func ValidateReason(reason string) error {
	if strings.TrimSpace(reason) == "" {
		return fmt.Errorf("причина обязательна")
	}
	return ValidateLength("reason", strings.TrimSpace(reason), MinReasonLength, MaxReasonLength)
}

// ValidateDescription проверяет описание спора для триажа.
func ValidateDescription(description string) error {
	if strings.TrimSpace(description) == "" {
		return fmt.Errorf("описание обязательно")
	}
	return ValidateLength("description", strings.TrimSpace(description), MinDescriptionLength, MaxDescriptionLength)
}

// ValidateAmount проверяет сумму сделки.
func ValidateAmount(amount float64) error {
	if amount <= MinDisputeAmount {
		return fmt.Errorf("сумма должна быть положительной")
	}
	if amount > MaxDisputeAmount {
		return fmt.Errorf("сумма превышает допустимый максимум")
	}
	return nil
}

// ValidateSplitAmount проверяет сумму раздела относительно суммы спора.
func ValidateSplitAmount(splitAmount, disputeAmount float64) error {
	if splitAmount < 0 {
		return fmt.Errorf("сумма раздела не может быть отрицательной")
	}
	if splitAmount > disputeAmount {
		return fmt.Errorf("сумма раздела не может превышать сумму спора")
	}
	return nil
}

// ValidatePassword проверяет минимальные требования к паролю.
func ValidatePassword(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("пароль должен быть не менее 8 символов")
	}
	if len(password) > 72 {
		// Ограничение bcrypt: хешируются только первые 72 байта.
		return fmt.Errorf("пароль должен быть не более 72 символов")
	}
	return nil
}

// ValidateUsername проверяет имя пользователя.
func ValidateUsername(username string) error {
	return ValidateLength("username", username, MinUsernameLength, MaxUsernameLength)
}

// ValidateEmail проверяет формат email.
func ValidateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("email обязателен")
	}

	email = strings.ToLower(strings.TrimSpace(email))
	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("некорректный формат email")
	}

	if len(parts[0]) == 0 || len(parts[0]) > 64 {
		return fmt.Errorf("локальная часть email должна быть от 1 до 64 символов")
	}
	if len(parts[1]) == 0 || len(parts[1]) > 255 || !strings.Contains(parts[1], ".") {
		return fmt.Errorf("доменная часть email некорректна")
	}

	return nil
}
