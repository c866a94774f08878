package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/teletale/domain/entities"
)

type userHandler struct {
	documentHandler
}

// adminStatus reports whether the user with the given email is an admin.
// Unknown emails are not admins.
func (h *userHandler) adminStatus(c echo.Context) error {
	email, err := pathParam(c, "email")
	if err != nil {
		return err
	}

	user, err := h.repo.FindOne(c.Request().Context(), entities.Filter{"email": email})
	if err != nil {
		return fmt.Errorf("find user: %w", err)
	}
	return c.JSON(http.StatusOK, entities.AdminStatus{Admin: entities.IsAdmin(user)})
}

func (h *userHandler) insert(c echo.Context) error {
	user, err := bindDocument(c)
	if err != nil {
		return err
	}

	result, err := h.repo.InsertOne(c.Request().Context(), user)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}

	h.logger.Info("User inserted", zap.Any("inserted_id", result.InsertedID))
	return c.JSON(http.StatusOK, result)
}

// upsert writes the whole body onto the user keyed by its email
func (h *userHandler) upsert(c echo.Context) error {
	user, err := bindDocument(c)
	if err != nil {
		return err
	}

	filter := entities.Filter{"email": user["email"]}
	result, err := h.repo.UpdateOne(c.Request().Context(), filter, user, true)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return c.JSON(http.StatusOK, result)
}

// makeAdmin grants the admin role to an existing user only
func (h *userHandler) makeAdmin(c echo.Context) error {
	user, err := bindDocument(c)
	if err != nil {
		return err
	}

	filter := entities.Filter{"email": user["email"]}
	result, err := h.repo.UpdateOne(c.Request().Context(), filter,
		entities.Document{"role": entities.RoleAdmin}, false)
	if err != nil {
		return fmt.Errorf("make admin: %w", err)
	}

	h.logger.Info("Admin role granted",
		zap.Any("email", user["email"]),
		zap.Int64("matched", result.MatchedCount))
	return c.JSON(http.StatusOK, result)
}
