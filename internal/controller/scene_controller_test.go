package controller

import (
	"context"
	"encoding/json"
	"io"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vr-scene-sync/internal/dto"
	"vr-scene-sync/internal/pkg/serverutils"
	"vr-scene-sync/internal/service"
)

type fakeQuery struct {
	stopped bool
}

func (f *fakeQuery) err() error {
	if f.stopped {
		return service.ErrLoopStopped
	}
	return nil
}

func (f *fakeQuery) ListEntities(context.Context) ([]*dto.EntityResponse, error) {
	return []*dto.EntityResponse{{Id: "n1", Kind: "note", Text: "hello"}}, f.err()
}

func (f *fakeQuery) GetEntity(_ context.Context, id string) (*dto.EntityResponse, error) {
	if id != "n1" {
		return nil, service.ErrEntityNotFound
	}
	return &dto.EntityResponse{Id: "n1", Kind: "note"}, f.err()
}

func (f *fakeQuery) Session(context.Context) (*dto.SessionResponse, error) {
	return &dto.SessionResponse{SpatialAudio: true}, f.err()
}

func (f *fakeQuery) Interactables(context.Context) ([]*dto.InteractableResponse, error) {
	return []*dto.InteractableResponse{{Id: "n1", State: "idle"}}, f.err()
}

func (f *fakeQuery) Stats(context.Context) (*dto.StatsResponse, error) {
	return &dto.StatsResponse{Sync: dto.SyncStatsResponse{Applied: 3}}, f.err()
}

func newTestApp(q service.ISceneQueryService, secret string) *fiber.App {
	app := fiber.New()
	app.Use(serverutils.ErrorHandlerMiddleware())
	NewSceneController(q, serverutils.NewJwtMiddleware(secret)).RegisterRoutes(app.Group("/api"))
	return app
}

func decode(t *testing.T, body io.Reader) serverutils.Response {
	t.Helper()
	var res serverutils.Response
	require.NoError(t, json.NewDecoder(body).Decode(&res))
	return res
}

func TestSceneRoutes(t *testing.T) {
	app := newTestApp(&fakeQuery{}, "")

	tests := []struct {
		path string
		code int
	}{
		{"/api/scene/v1/entities", 200},
		{"/api/scene/v1/entities/n1", 200},
		{"/api/scene/v1/entities/missing", 404},
		{"/api/scene/v1/session", 200},
		{"/api/scene/v1/interactables", 200},
		{"/api/scene/v1/stats", 200},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.code, resp.StatusCode)
			res := decode(t, resp.Body)
			assert.Equal(t, tt.code == 200, res.Success)
		})
	}
}

func TestSceneRoutesLoopStopped(t *testing.T) {
	app := newTestApp(&fakeQuery{stopped: true}, "")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/scene/v1/stats", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
}

func TestSceneRoutesRequireToken(t *testing.T) {
	app := newTestApp(&fakeQuery{}, "s3cret")

	resp, err := app.Test(httptest.NewRequest("GET", "/api/scene/v1/entities", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "observer-1"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)

	req := httptest.NewRequest("GET", "/api/scene/v1/entities", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/scene/v1/entities?token="+token, nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, err = app.Test(httptest.NewRequest("GET", "/api/scene/v1/entities?token=garbage", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
