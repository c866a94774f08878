package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/teletale/domain/entities"
	"github.com/satriahrh/teletale/domain/repositories"
)

// documentHandler serves the plain CRUD routes shared by every collection
type documentHandler struct {
	repo   repositories.DocumentRepository
	logger *zap.Logger
}

func (h *documentHandler) list(c echo.Context) error {
	return h.listWhere(c, nil)
}

func (h *documentHandler) listWhere(c echo.Context, filter entities.Filter) error {
	docs, err := h.repo.Find(c.Request().Context(), filter)
	if err != nil {
		return fmt.Errorf("list: %w", err)
	}
	return c.JSON(http.StatusOK, docs)
}

// get answers null rather than 404 when the id is unknown
func (h *documentHandler) get(c echo.Context) error {
	id, err := entities.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	doc, err := h.repo.FindOne(c.Request().Context(), entities.ByID(id))
	if err != nil {
		return fmt.Errorf("get %s: %w", id.Hex(), err)
	}
	return c.JSON(http.StatusOK, doc)
}

func (h *documentHandler) insert(c echo.Context) error {
	doc, err := bindDocument(c)
	if err != nil {
		return err
	}

	result, err := h.repo.InsertOne(c.Request().Context(), doc)
	if err != nil {
		return fmt.Errorf("insert: %w", err)
	}
	return c.JSON(http.StatusOK, result)
}

func (h *documentHandler) delete(c echo.Context) error {
	id, err := entities.ParseID(c.Param("id"))
	if err != nil {
		return err
	}

	result, err := h.repo.DeleteOne(c.Request().Context(), entities.ByID(id))
	if err != nil {
		return fmt.Errorf("delete %s: %w", id.Hex(), err)
	}
	return c.JSON(http.StatusOK, result)
}
