package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	inErrors "github.com/sportshop/ecommerce/internal/errors"
	"github.com/sportshop/ecommerce/internal/log"
	inOtel "github.com/sportshop/ecommerce/internal/otel"
	"github.com/sportshop/ecommerce/internal/repository"
	"github.com/sportshop/ecommerce/internal/user/otel"
	"github.com/sportshop/ecommerce/user/pkg/request"
	"github.com/sportshop/ecommerce/user/pkg/response"
)

const bcryptCost = 10

type UserService struct {
	users     repository.UserStore
	appConfig config.Application
}

func NewUserService(users repository.UserStore, appConfig config.Application) UserService {
	return UserService{users: users, appConfig: appConfig}
}

func (svc UserService) Register(
	c context.Context,
	param request.Register,
) (response.Auth, error) {
	c, span := otel.Tracer.Start(c, "UserService Register")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Register").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "checking email uniqueness").Logger()
	logger.Info().Msg("checking email uniqueness")
	_, err := svc.users.FindUserByEmail(c, param.Email)
	if err == nil {
		err = inErrors.ErrEmailAlreadyRegistered
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}
	if !errors.Is(err, inErrors.ErrInvalidCredentials) {
		err = fmt.Errorf("failed checking email uniqueness with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}

	logger = logger.With().Str(log.KeyProcess, "hashing password").Logger()
	logger.Trace().Msg("hashing password")
	hashed, err := bcrypt.GenerateFromPassword([]byte(param.Password), bcryptCost)
	if err != nil {
		err = fmt.Errorf("failed hashing password with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}
	logger.Trace().Msg("hashed password")

	logger = logger.With().Str(log.KeyProcess, "inserting user").Logger()
	logger.Info().Msg("inserting user")
	user, err := svc.users.InsertUser(c, repository.User{
		ID:        uuid.New(),
		Email:     param.Email,
		Password:  string(hashed),
		Name:      param.Name,
		Address:   param.Address,
		CreatedAt: time.Now(),
	})
	if err != nil {
		err = fmt.Errorf("failed inserting user with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("inserted user")

	logger = logger.With().Str(log.KeyProcess, "generating token").Logger()
	logger.Trace().Msg("generating token")
	token, err := common.GenerateToken(c, user.ID, user.Email, svc.appConfig)
	if err != nil {
		err = fmt.Errorf("failed generating token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}
	logger.Trace().Msg("generated token")

	return response.Auth{User: user, Token: token}, nil
}

func (svc UserService) Login(
	c context.Context,
	param request.Login,
) (response.Auth, error) {
	c, span := otel.Tracer.Start(c, "UserService Login")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(log.KeyTag, "UserService Login").
		Str(log.KeyEmail, param.Email).
		Logger()

	logger = logger.With().Str(log.KeyProcess, "finding user").Logger()
	logger.Info().Msg("finding user")
	user, err := svc.users.FindUserByEmail(c, param.Email)
	if err != nil {
		if !errors.Is(err, inErrors.ErrInvalidCredentials) {
			err = fmt.Errorf("failed finding user with error=%w", err)
		}
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}
	logger = logger.With().Str(log.KeyUserID, user.ID.String()).Logger()
	logger.Info().Msg("found user")

	logger = logger.With().Str(log.KeyProcess, "verifying password").Logger()
	logger.Trace().Msg("verifying password")
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(param.Password)); err != nil {
		err = inErrors.ErrInvalidCredentials
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}
	logger.Trace().Msg("verified password")

	logger = logger.With().Str(log.KeyProcess, "generating token").Logger()
	logger.Trace().Msg("generating token")
	token, err := common.GenerateToken(c, user.ID, user.Email, svc.appConfig)
	if err != nil {
		err = fmt.Errorf("failed generating token with error=%w", err)
		inOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Auth{}, err
	}
	logger.Trace().Msg("generated token")

	user.Password = ""
	return response.Auth{User: user, Token: token}, nil
}
