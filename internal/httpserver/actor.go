package httpserver

import (
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	mw "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

// actorOf returns the caller set by the auth middleware, or a guest.
func actorOf(c echo.Context) service.Actor {
	raw, _ := c.Get(mw.CtxUserID).(string)
	id, err := uuid.Parse(raw)
	if err != nil {
		return service.Actor{}
	}
	role, _ := c.Get(mw.CtxRole).(string)
	return service.Actor{ID: id, Role: role}
}

func uuidParam(c echo.Context, name string) (uuid.UUID, error) {
	return uuid.Parse(c.Param(name))
}
