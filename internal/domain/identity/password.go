package identity

import (
	"regexp"

	appErrors "Ecotrack/internal/errors"

	"golang.org/x/crypto/bcrypt"
)

const defaultPasswordCost = 12

var (
	hasUpper  = regexp.MustCompile(`[A-Z]`)
	hasLower  = regexp.MustCompile(`[a-z]`)
	hasDigit  = regexp.MustCompile(`[0-9]`)
	hasSymbol = regexp.MustCompile(`[^A-Za-z0-9]`)
)

// dummyHash mantém o custo do login igual quando o email não existe.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("ecotrack-dummy-password"), bcrypt.MinCost)

func PasswordRequirements(field, password string) error {
	if len(password) < 8 {
		return appErrors.NewValidationError(field, "A senha deve conter no mínimo 8 caracteres")
	}
	if !hasUpper.MatchString(password) || !hasLower.MatchString(password) {
		return appErrors.NewValidationError(field, "A senha deve conter letras maiúsculas e minúsculas")
	}
	if !hasDigit.MatchString(password) {
		return appErrors.NewValidationError(field, "A senha deve conter ao menos um número")
	}
	if !hasSymbol.MatchString(password) {
		return appErrors.NewValidationError(field, "A senha deve conter ao menos um símbolo")
	}
	return nil
}

func (s *Service) hash(password string) (string, error) {
	cost := s.PasswordCost
	if cost == 0 {
		cost = defaultPasswordCost
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", appErrors.ErrInternalServer.WithError(err)
	}
	return string(hash), nil
}

func passwordMatches(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
