package middleware

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"marketplace/internal/domain/model"
	"marketplace/internal/logger"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
)

const (
	CtxUserIDKey   = "user_id"   // int64
	CtxUserRoleKey = "user_role" // model.Role
)

// bearerAuth用のJWT検証ミドルウェア。
func AuthJWT(secret string, log *logger.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			//Authorizationヘッダを取得
			authz := c.Request().Header.Get("Authorization")
			if authz == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "missing bearer token"))
			}

			//Bearer形式か確認してtokenを抜く
			parts := strings.SplitN(authz, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "missing bearer token"))
			}
			rawToken := strings.TrimSpace(parts[1])
			if rawToken == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "missing bearer token"))
			}

			//JWTをパースして検証する（exp もここで見る）
			token, err := jwt.Parse(rawToken, func(t *jwt.Token) (interface{}, error) {
				if t.Method != jwt.SigningMethodHS256 {
					return nil, errors.New("unexpected signing method")
				}
				return []byte(secret), nil
			})
			if err != nil || token == nil || !token.Valid {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "invalid token"))
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "invalid token"))
			}

			userID, err := parseUserID(claims["sub"])
			if err != nil || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "invalid token"))
			}

			//roleは小文字（buyer/seller/admin）
			role, ok := claims["role"].(string)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "invalid token"))
			}

			//contextへ保存
			c.Set(CtxUserIDKey, userID)
			c.Set(CtxUserRoleKey, model.Role(role))
			if log != nil {
				ctx := log.WithUser(c.Request().Context(), userID, role)
				c.SetRequest(c.Request().WithContext(ctx))
			}

			return next(c)
		}
	}
}

// IdentityFrom は AuthJWT が入れた値を取り出す
func IdentityFrom(c echo.Context) model.Identity {
	userID, _ := c.Get(CtxUserIDKey).(int64)
	role, _ := c.Get(CtxUserRoleKey).(model.Role)
	return model.Identity{UserID: userID, Role: role}
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Success bool   `json:"success"`
}

func errorJSON(kind, msg string) errorResponse {
	return errorResponse{Error: kind, Message: msg, Success: false}
}

// user_idをint64に変換する
func parseUserID(v interface{}) (int64, error) {
	switch t := v.(type) {
	case float64:
		return int64(t), nil
	case string:
		return strconv.ParseInt(t, 10, 64)
	default:
		return 0, errors.New("invalid sub")
	}
}
