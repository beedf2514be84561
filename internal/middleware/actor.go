package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/jwalitptl/scheduler-api/internal/model"
	"github.com/jwalitptl/scheduler-api/pkg/errors"
)

const (
	HeaderActorID   = "X-Actor-ID"
	HeaderActorRole = "X-Actor-Role"
	ContextActor    = "actor"
)

// Actor resolves the calling identity from the gateway-supplied headers and
// stores it on the request context. Authentication itself happens upstream;
// this service only consumes the resulting identity and role.
func Actor() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := uuid.Parse(c.GetHeader(HeaderActorID))
		if err != nil {
			c.Next()
			return
		}

		role := model.Role(c.GetHeader(HeaderActorRole))
		switch role {
		case model.RoleAdmin, model.RoleStaff, model.RolePatient:
		default:
			c.Next()
			return
		}

		c.Set(ContextActor, model.Actor{UserID: id, Role: role})
		c.Next()
	}
}

// ActorFrom returns the actor resolved for this request, or a forbidden
// error when the headers were missing or malformed.
func ActorFrom(c *gin.Context) (model.Actor, error) {
	v, ok := c.Get(ContextActor)
	if !ok {
		return model.Actor{}, errors.Forbidden("missing or invalid actor identity")
	}
	actor, ok := v.(model.Actor)
	if !ok {
		return model.Actor{}, errors.Forbidden("missing or invalid actor identity")
	}
	return actor, nil
}
