package common

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/config"
	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/log"
)

type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

type authUser struct{}

type AuthUser struct {
	ID    uuid.UUID
	Email string
}

func GenerateToken(
	c context.Context,
	userId uuid.UUID,
	email string,
	cfg config.Application,
) (string, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "GenerateToken").
		Str(log.KeyUserID, userId.String()).
		Logger()

	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userId.String(),
			Issuer:    AppServer,
			Audience:  jwt.ClaimStrings{AudienceShopper},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(7 * 24 * time.Hour)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).
		SignedString([]byte(cfg.SecretKey))
	if err != nil {
		err = fmt.Errorf("failed signing token with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return "", err
	}
	return token, nil
}

func VerifyToken(c context.Context, token string, cfg config.Application) (AuthUser, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "VerifyToken").
		Logger()

	claims := Claims{}
	jwtToken, err := jwt.ParseWithClaims(
		token,
		&claims,
		func(t *jwt.Token) (interface{}, error) {
			return []byte(cfg.SecretKey), nil
		},
		jwt.WithAudience(AudienceShopper),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Name}),
		jwt.WithExpirationRequired(),
		jwt.WithIssuedAt(),
		jwt.WithIssuer(AppServer),
	)
	if err != nil {
		err = fmt.Errorf("failed parsing with claims with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return AuthUser{}, inErrors.ErrTokenInvalid
	}
	if !jwtToken.Valid {
		logger.Error().Err(inErrors.ErrTokenInvalid).Msg(inErrors.ErrTokenInvalid.Error())
		return AuthUser{}, inErrors.ErrTokenInvalid
	}

	userId, err := uuid.Parse(claims.Subject)
	if err != nil {
		err = fmt.Errorf("failed parsing subject with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return AuthUser{}, inErrors.ErrTokenInvalid
	}

	return AuthUser{ID: userId, Email: claims.Email}, nil
}

func AttachAuthUserToContext(c context.Context, user AuthUser) context.Context {
	return context.WithValue(c, authUser{}, user)
}

func AuthUserFromContext(c context.Context) (AuthUser, error) {
	user, ok := c.Value(authUser{}).(AuthUser)
	if !ok {
		return AuthUser{}, inErrors.ErrEmptyAuth
	}
	return user, nil
}
