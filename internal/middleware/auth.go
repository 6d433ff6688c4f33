package middleware

import (
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/sportshop/ecommerce/internal/common"
	"github.com/sportshop/ecommerce/internal/config"
	inErrors "github.com/sportshop/ecommerce/internal/errors"
	inHttp "github.com/sportshop/ecommerce/internal/http"
	"github.com/sportshop/ecommerce/internal/log"
)

func Auth(cfg config.Application) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := zerolog.Ctx(r.Context()).
				With().
				Str(log.KeyTag, "middleware Auth").
				Logger()
			c := logger.WithContext(r.Context())

			authorization := r.Header.Get("Authorization")
			if authorization == "" {
				logger.Error().
					Err(inErrors.ErrEmptyAuth).
					Msg(inErrors.ErrEmptyAuth.Error())
				inHttp.WriteErrorResponse(
					c,
					w,
					http.StatusUnauthorized,
					inErrors.ErrEmptyAuth.Error(),
				)
				return
			}

			token := strings.TrimPrefix(authorization, "Bearer ")
			user, err := common.VerifyToken(c, token, cfg)
			if err != nil {
				logger.Error().Err(err).Msg(err.Error())
				inHttp.WriteErrorResponse(
					c,
					w,
					http.StatusUnauthorized,
					inErrors.ErrTokenInvalid.Error(),
				)
				return
			}

			logger = logger.With().
				Str(log.KeyUserID, user.ID.String()).
				Str(log.KeyEmail, user.Email).
				Logger()
			logger.Info().Msgf("user authenticated: %s", user.Email)

			c = common.AttachAuthUserToContext(c, user)
			c = logger.WithContext(c)
			next.ServeHTTP(w, r.WithContext(c))
		})
	}
}
