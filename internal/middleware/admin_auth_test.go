package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"chatdesk-go/internal/apperr"
	"chatdesk-go/internal/identity"
	"chatdesk-go/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type userLookup map[string]*model.User

func (l userLookup) GetUser(ctx context.Context, userID string) (*model.User, error) {
	if userID == "broken" {
		return nil, errors.New("db down")
	}
	u, ok := l[userID]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "user not found")
	}
	return u, nil
}

func TestAdminAuthMiddleware(t *testing.T) {
	users := userLookup{
		"admin-1": {ID: "admin-1", Role: model.RoleAdmin},
		"user-1":  {ID: "user-1", Role: model.RoleUser},
	}

	tests := []struct {
		name   string
		userID string
		want   int
	}{
		{"anonymous", "", http.StatusUnauthorized},
		{"deleted user", "ghost", http.StatusUnauthorized},
		{"plain user", "user-1", http.StatusForbidden},
		{"lookup failure", "broken", http.StatusInternalServerError},
		{"admin", "admin-1", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := gin.New()
			r.Use(func(c *gin.Context) {
				if tt.userID != "" {
					c.Request = c.Request.WithContext(identity.NewContext(c.Request.Context(), identity.Identity{UserID: tt.userID}))
				}
				c.Next()
			})
			r.GET("/admin/users", AdminAuthMiddleware(users), func(c *gin.Context) {
				c.Status(http.StatusOK)
			})

			w := httptest.NewRecorder()
			r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/admin/users", nil))
			assert.Equal(t, tt.want, w.Code)
		})
	}
}
