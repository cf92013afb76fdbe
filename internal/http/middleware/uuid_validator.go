package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const paramKeyPrefix = "param."

// UUIDValidator отсекает запросы с не-UUID в параметрах пути до хэндлера
// и кладёт разобранные значения в контекст (см. ParsedUUID).
func UUIDValidator(params ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		for _, p := range params {
			id, err := uuid.Parse(c.Param(p))
			if err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "параметр " + p + " должен быть UUID"})
				return
			}
			c.Set(paramKeyPrefix+p, id)
		}
		c.Next()
	}
}

// ParsedUUID значение, уже разобранное UUIDValidator.
func ParsedUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	v, ok := c.Get(paramKeyPrefix + param)
	if !ok {
		return uuid.Nil, false
	}
	id, ok := v.(uuid.UUID)
	return id, ok
}
