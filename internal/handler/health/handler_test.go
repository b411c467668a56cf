package health

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) PingContext(ctx context.Context) error { return f(ctx) }

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	h.RegisterRoutes(r.Group(""))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, path, nil))
	return w
}

func TestReadiness(t *testing.T) {
	ok := pingFunc(func(context.Context) error { return nil })
	down := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	w := serve(NewHandler(map[string]Pinger{"database": ok, "redis": ok}, nil), "/health/ready")
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(NewHandler(map[string]Pinger{"database": ok, "redis": down}, nil), "/health/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.JSONEq(t, `{"status":false,"message":"DOWN","data":{"redis":"connection refused"}}`, w.Body.String())
}

func TestLiveness(t *testing.T) {
	w := serve(NewHandler(nil, nil), "/health/live")
	assert.Equal(t, http.StatusOK, w.Code)
}
