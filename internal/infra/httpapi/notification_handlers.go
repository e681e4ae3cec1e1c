package httpapi

import (
	"net/http"

	"schoolbridge/internal/app"

	"github.com/labstack/echo/v4"
)

type notificationAPI struct {
	service *app.NotificationService
}

func registerNotificationAPI(g *echo.Group, parentOnly echo.MiddlewareFunc, svc *app.NotificationService) {
	api := notificationAPI{service: svc}

	ng := g.Group("/notifications", parentOnly)
	ng.GET("", api.list)
	ng.POST("/:id/read", api.markRead)
}

func (api *notificationAPI) list(c echo.Context) error {
	limit, skip := app.DefaultPageSize, 0
	if err := echo.QueryParamsBinder(c).
		Int("limit", &limit).
		Int("skip", &skip).
		BindError(); err != nil {
		return err
	}

	views, err := api.service.ListForParent(c.Request().Context(), callerID(c), limit, skip)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{
		"success":       true,
		"count":         len(views),
		"notifications": views,
	})
}

func (api *notificationAPI) markRead(c echo.Context) error {
	n, err := api.service.MarkRead(c.Request().Context(), c.Param("id"), callerID(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "notification": n})
}
