package middleware

import (
	"net/http"

	"marketplace/internal/domain/model"

	"github.com/labstack/echo/v4"
)

// contextに入っているroleが許可リストにあるか確認します。
func RoleGuard(allowed ...model.Role) echo.MiddlewareFunc {
	set := make(map[model.Role]struct{}, len(allowed))
	for _, r := range allowed {
		set[r] = struct{}{}
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			role, ok := c.Get(CtxUserRoleKey).(model.Role)
			if !ok || role == "" {
				return c.JSON(http.StatusUnauthorized, errorJSON("Unauthorized", "unauthorized"))
			}

			if _, ok := set[role]; !ok {
				return c.JSON(http.StatusForbidden, errorJSON("Forbidden", "role "+string(role)+" is not allowed"))
			}

			return next(c)
		}
	}
}
