package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gitlab.tepseg.com/ai/imagegen-backend/internal/auth"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/middleware"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/service"
	"gitlab.tepseg.com/ai/imagegen-backend/internal/store"
)

type fakeProvider struct {
	image []byte
	err   error
}

func (p *fakeProvider) TextToImage(ctx context.Context, prompt string) ([]byte, error) {
	if p.err != nil {
		return nil, p.err
	}
	return p.image, nil
}

type testAPI struct {
	router *chi.Mux
	users  *store.MemoryUserStore
	images *store.MemoryImageStore
	prov   *fakeProvider
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	users := store.NewMemoryUserStore()
	images := store.NewMemoryImageStore()
	prov := &fakeProvider{image: []byte{0xFF, 0xD8, 0xFF}}

	sessions := auth.NewSessionManager("test-secret")
	accounts := service.NewAccountService(users, sessions, 10)
	generations := service.NewGenerationService(users, images, prov)

	authHandler := NewAuthHandler(accounts)
	imageHandler := NewImageHandler(generations)
	userHandler := NewUserHandler(accounts)
	authMiddleware := middleware.NewAuthMiddleware(sessions)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Handler)
			r.Post("/generate-image", imageHandler.Generate)
			r.Get("/images", imageHandler.History)
			r.Get("/user", userHandler.Profile)
		})
	})

	return &testAPI{router: r, users: users, images: images, prov: prov}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var decoded map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &decoded))
	}
	return rec, decoded
}

func (a *testAPI) register(t *testing.T, email, password, username string) string {
	t.Helper()
	rec, body := a.do(t, http.MethodPost, "/api/register", "", map[string]string{
		"email": email, "password": password, "username": username,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	return body["token"].(string)
}

func TestRegister(t *testing.T) {
	t.Run("returns token and profile with 10 tokens", func(t *testing.T) {
		api := newTestAPI(t)

		rec, body := api.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"email": "a@x.com", "password": "pw", "username": "alice",
		})

		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, body["token"])

		user := body["user"].(map[string]any)
		assert.Equal(t, "a@x.com", user["email"])
		assert.Equal(t, "alice", user["username"])
		assert.Equal(t, float64(10), user["tokens"])
		assert.NotContains(t, user, "password")
	})

	t.Run("second registration with same email conflicts", func(t *testing.T) {
		api := newTestAPI(t)
		api.register(t, "a@x.com", "pw", "alice")

		rec, body := api.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"email": "a@x.com", "password": "pw2", "username": "alice2",
		})

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "User already exists", body["error"])
	})

	t.Run("missing fields are rejected", func(t *testing.T) {
		api := newTestAPI(t)

		rec, _ := api.do(t, http.MethodPost, "/api/register", "", map[string]string{
			"email": "a@x.com",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("malformed body is rejected", func(t *testing.T) {
		api := newTestAPI(t)

		req := httptest.NewRequest(http.MethodPost, "/api/register", strings.NewReader("{nope"))
		rec := httptest.NewRecorder()
		api.router.ServeHTTP(rec, req)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestLogin(t *testing.T) {
	t.Run("correct password yields a working token", func(t *testing.T) {
		api := newTestAPI(t)
		api.register(t, "a@x.com", "pw", "alice")

		rec, body := api.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "a@x.com", "password": "pw",
		})
		require.Equal(t, http.StatusOK, rec.Code)

		token := body["token"].(string)
		profileRec, _ := api.do(t, http.MethodGet, "/api/user", token, nil)
		assert.Equal(t, http.StatusOK, profileRec.Code)
	})

	t.Run("wrong password", func(t *testing.T) {
		api := newTestAPI(t)
		api.register(t, "a@x.com", "pw", "alice")

		rec, body := api.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "a@x.com", "password": "wrong",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid credentials", body["error"])
	})

	t.Run("unknown email", func(t *testing.T) {
		api := newTestAPI(t)

		rec, body := api.do(t, http.MethodPost, "/api/login", "", map[string]string{
			"email": "nobody@x.com", "password": "pw",
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Invalid credentials", body["error"])
	})
}

func TestProfile(t *testing.T) {
	t.Run("without token", func(t *testing.T) {
		api := newTestAPI(t)

		rec, body := api.do(t, http.MethodGet, "/api/user", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "Access token required", body["error"])
	})

	t.Run("with malformed token", func(t *testing.T) {
		api := newTestAPI(t)

		rec, body := api.do(t, http.MethodGet, "/api/user", "garbage", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "Invalid token", body["error"])
	})

	t.Run("reflects current balance", func(t *testing.T) {
		api := newTestAPI(t)
		token := api.register(t, "a@x.com", "pw", "alice")

		rec, _ := api.do(t, http.MethodPost, "/api/generate-image", token, map[string]string{"prompt": "a cat"})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, body := api.do(t, http.MethodGet, "/api/user", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		user := body["user"].(map[string]any)
		assert.Equal(t, float64(9), user["tokens"])
	})
}

func TestGenerateImage(t *testing.T) {
	t.Run("success returns data URI, remaining balance and record id", func(t *testing.T) {
		api := newTestAPI(t)
		token := api.register(t, "a@x.com", "pw", "alice")

		rec, body := api.do(t, http.MethodPost, "/api/generate-image", token, map[string]string{"prompt": "a cat"})
		require.Equal(t, http.StatusOK, rec.Code)

		assert.True(t, strings.HasPrefix(body["imageUrl"].(string), "data:image/jpeg;base64,"))
		assert.Equal(t, float64(9), body["remainingTokens"])
		assert.NotEmpty(t, body["imageId"])
	})

	t.Run("requires auth", func(t *testing.T) {
		api := newTestAPI(t)

		rec, _ := api.do(t, http.MethodPost, "/api/generate-image", "", map[string]string{"prompt": "a cat"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("empty prompt is rejected without charge", func(t *testing.T) {
		api := newTestAPI(t)
		token := api.register(t, "a@x.com", "pw", "alice")

		rec, _ := api.do(t, http.MethodPost, "/api/generate-image", token, map[string]string{"prompt": "  "})
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		_, body := api.do(t, http.MethodGet, "/api/user", token, nil)
		assert.Equal(t, float64(10), body["user"].(map[string]any)["tokens"])
	})

	t.Run("provider failure is 500 with no debit", func(t *testing.T) {
		api := newTestAPI(t)
		token := api.register(t, "a@x.com", "pw", "alice")
		api.prov.err = assert.AnError

		rec, body := api.do(t, http.MethodPost, "/api/generate-image", token, map[string]string{"prompt": "a cat"})
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.Equal(t, "Image generation failed", body["error"])

		_, profile := api.do(t, http.MethodGet, "/api/user", token, nil)
		assert.Equal(t, float64(10), profile["user"].(map[string]any)["tokens"])

		count, err := api.images.Count(context.Background())
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("prepaid balance is exhausted after ten generations", func(t *testing.T) {
		api := newTestAPI(t)
		token := api.register(t, "a@x.com", "pw", "alice")

		for i := 0; i < 10; i++ {
			rec, body := api.do(t, http.MethodPost, "/api/generate-image", token, map[string]string{
				"prompt": fmt.Sprintf("a cat %d", i),
			})
			require.Equal(t, http.StatusOK, rec.Code, "generation %d", i+1)
			assert.Equal(t, float64(9-i), body["remainingTokens"])
		}

		count, err := api.images.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 10, count)

		rec, body := api.do(t, http.MethodPost, "/api/generate-image", token, map[string]string{"prompt": "one more"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "Insufficient tokens", body["error"])

		_, profile := api.do(t, http.MethodGet, "/api/user", token, nil)
		assert.Equal(t, float64(0), profile["user"].(map[string]any)["tokens"])
	})
}

func TestImageHistory(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "a@x.com", "pw", "alice")
	otherToken := api.register(t, "b@x.com", "pw", "bob")

	for i := 0; i < 3; i++ {
		rec, _ := api.do(t, http.MethodPost, "/api/generate-image", token, map[string]string{"prompt": "a cat"})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	t.Run("lists only the caller's generations", func(t *testing.T) {
		rec, body := api.do(t, http.MethodGet, "/api/images", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["images"], 3)

		rec, body = api.do(t, http.MethodGet, "/api/images", otherToken, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, body["images"])
	})

	t.Run("requires auth", func(t *testing.T) {
		rec, _ := api.do(t, http.MethodGet, "/api/images", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
