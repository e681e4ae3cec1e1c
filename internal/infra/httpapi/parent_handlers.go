package httpapi

import (
	"net/http"

	"schoolbridge/internal/app"
	"schoolbridge/internal/domain/parent"

	"github.com/labstack/echo/v4"
)

type parentAPI struct {
	service *app.ClassroomService
}

func registerParentAPI(g *echo.Group, teacherOnly, parentOnly echo.MiddlewareFunc, svc *app.ClassroomService) {
	api := parentAPI{service: svc}

	g.POST("/parents", api.register, teacherOnly)
	g.PUT("/parents/me/preferences", api.updatePreferences, parentOnly)
}

type registerParentRequest struct {
	Name      string `json:"name" validate:"required,max=120"`
	Email     string `json:"email" validate:"omitempty,email"`
	Phone     string `json:"phone" validate:"omitempty,max=32"`
	Language  string `json:"language" validate:"omitempty,min=2,max=10"`
	PushToken string `json:"pushToken" validate:"max=256"`
}

type preferencesRequest struct {
	Language  *string `json:"language" validate:"omitempty,min=2,max=10"`
	PushToken *string `json:"pushToken" validate:"omitempty,max=256"`
}

func (api *parentAPI) register(c echo.Context) error {
	req := new(registerParentRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	p := &parent.Parent{
		Name:      req.Name,
		Email:     req.Email,
		Phone:     req.Phone,
		Language:  req.Language,
		PushToken: req.PushToken,
	}
	if err := api.service.RegisterParent(c.Request().Context(), p); err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, echo.Map{"success": true, "parent": p})
}

func (api *parentAPI) updatePreferences(c echo.Context) error {
	req := new(preferencesRequest)
	if err := bindAndValidate(c, req); err != nil {
		return err
	}
	if req.Language == nil && req.PushToken == nil {
		return echo.NewHTTPError(http.StatusBadRequest, "nothing to update")
	}
	p, err := api.service.UpdateParentPreferences(c.Request().Context(), callerID(c), req.Language, req.PushToken)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true, "parent": p})
}
