package api

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/satriahrh/teletale/domain/entities"
	"github.com/satriahrh/teletale/domain/repositories"
)

// InitRoutes registers every route against the given store
func InitRoutes(e *echo.Echo, store repositories.DocumentStore, logger *zap.Logger) {
	e.GET("/", func(c echo.Context) error {
		return c.String(http.StatusOK, "Welcome to Teletale")
	})

	// Health check
	e.GET("/health", func(c echo.Context) error {
		return health(c, store, logger)
	})

	devices := &documentHandler{repo: store.Collection(entities.CollectionDevices), logger: logger}
	e.GET("/Devices", devices.list)
	e.GET("/Devices/:id", devices.get)
	e.POST("/Devices", devices.insert)
	e.DELETE("/Devices/:id", devices.delete)

	users := &userHandler{documentHandler{repo: store.Collection(entities.CollectionUsers), logger: logger}}
	e.GET("/users", users.list)
	e.GET("/users/:email", users.adminStatus)
	e.POST("/users", users.insert)
	e.PUT("/users", users.upsert)
	e.PUT("/users/admin", users.makeAdmin)

	bookings := &bookingHandler{documentHandler{repo: store.Collection(entities.CollectionBookings), logger: logger}}
	e.GET("/bookings", bookings.list)
	e.GET("/bookings/:id", bookings.get)
	e.POST("/bookings", bookings.insert)
	e.PUT("/bookings/:id", bookings.updateStatus)
	e.DELETE("/bookings/:id", bookings.delete)

	testimonials := &documentHandler{repo: store.Collection(entities.CollectionTestimonials), logger: logger}
	e.GET("/testimonials", testimonials.list)
	e.POST("/testimonials", testimonials.insert)
}

func health(c echo.Context, store repositories.DocumentStore, logger *zap.Logger) error {
	if err := store.Ping(c.Request().Context()); err != nil {
		logger.Warn("Health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error:   KindStoreUnavailable,
			Message: "Document store is unreachable",
		})
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "teletale-server",
	})
}

// pathParam returns a path parameter percent-decoded. echo matches on the
// raw path when the client escaped characters such as @ or +, and leaves
// those params escaped.
func pathParam(c echo.Context, name string) (string, error) {
	value := c.Param(name)
	if c.Request().URL.RawPath == "" {
		return value, nil
	}

	unescaped, err := url.PathUnescape(value)
	if err != nil {
		return "", echo.NewHTTPError(http.StatusBadRequest,
			fmt.Sprintf("malformed %s path parameter", name)).SetInternal(err)
	}
	return unescaped, nil
}

// bindBody decodes the request body only; path and query parameters
// never leak into stored documents
func bindBody(c echo.Context, v interface{}) error {
	return new(echo.DefaultBinder).BindBody(c, v)
}

// bindDocument decodes the body as a document. An empty or null body is an
// empty document.
func bindDocument(c echo.Context) (entities.Document, error) {
	var doc entities.Document
	if err := bindBody(c, &doc); err != nil {
		return nil, err
	}
	if doc == nil {
		doc = entities.Document{}
	}
	return doc, nil
}
