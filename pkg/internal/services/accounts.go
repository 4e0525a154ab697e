package services

import (
	"errors"

	"github.com/golang-jwt/jwt/v5"
	"github.com/nebulachat/messaging/pkg/internal/database"
	"github.com/nebulachat/messaging/pkg/internal/models"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Authenticate maps a presented token to an account. It fails closed: any
// parse, signature, or claim problem rejects the credential without touching
// state. Accounts are provisioned lazily on first successful verification.
func Authenticate(token string) (models.Account, error) {
	var account models.Account

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		return []byte(viper.GetString("secret")), nil
	}, jwt.WithValidMethods([]string{"HS256", "HS384", "HS512"}))
	if err != nil || !parsed.Valid {
		return account, ErrAuthFailure
	}

	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return account, ErrAuthFailure
	}
	name, _ := claims["sub"].(string)
	if len(name) == 0 {
		return account, ErrAuthFailure
	}
	nick, _ := claims["nick"].(string)
	if len(nick) == 0 {
		nick = name
	}

	if err := database.C.Where("name = ?", name).First(&account).Error; err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return account, err
		}
		account = models.Account{Name: name, Nick: nick}
		if err := database.C.Create(&account).Error; err != nil {
			return account, err
		}
	}

	return account, nil
}

func GetAccount(id uint) (models.Account, error) {
	var account models.Account
	if err := database.C.Where("id = ?", id).First(&account).Error; err != nil {
		return account, err
	}
	return account, nil
}

func GetAccountWithName(name string) (models.Account, error) {
	var account models.Account
	if err := database.C.Where("name = ?", name).First(&account).Error; err != nil {
		return account, err
	}
	return account, nil
}
