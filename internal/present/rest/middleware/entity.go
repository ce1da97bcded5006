package middleware

import (
	"context"

	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/totegamma/tentd/internal/domain"
	"github.com/totegamma/tentd/internal/present/rest/presenter"
)

var tracer = otel.Tracer("middleware")

const entityKey = "tentd.entity"

// EntityLookup resolves a local entity by its url name.
type EntityLookup interface {
	Get(ctx context.Context, name string) (domain.Entity, error)
}

type EntityMiddleware struct {
	entities EntityLookup
}

func NewEntityMiddleware(entities EntityLookup) *EntityMiddleware {
	return &EntityMiddleware{
		entities: entities,
	}
}

// ResolveEntity loads the entity named by the :entity path parameter and
// answers 404 when there is none.
func (m *EntityMiddleware) ResolveEntity(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx, span := tracer.Start(c.Request().Context(), "Middleware.ResolveEntity")
		defer span.End()

		name := c.Param("entity")
		span.SetAttributes(attribute.String("entity", name))

		entity, err := m.entities.Get(ctx, name)
		if err != nil {
			span.RecordError(err)
			return presenter.Error(c, err)
		}

		c.Set(entityKey, entity)
		return next(c)
	}
}

// Entity returns the entity resolved for this request.
func Entity(c echo.Context) domain.Entity {
	entity, _ := c.Get(entityKey).(domain.Entity)
	return entity
}
