package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"roombooking/internal/config"
	"roombooking/internal/database"
	jwtsvc "roombooking/internal/pkg/jwt"
	"roombooking/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"
)

// reply is a decoded response: the raw body, and for failures its
// top-level code and message.
type reply struct {
	Body  json.RawMessage
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
}

type session struct {
	Token string `json:"token"`
	User  struct {
		ID   int64  `json:"id"`
		Role string `json:"role"`
	} `json:"user"`
}

type bookingBody struct {
	ID           int64     `json:"id"`
	RoomID       int64     `json:"roomId"`
	CreatorID    int64     `json:"creatorId"`
	StartTime    time.Time `json:"startTime"`
	EndTime      time.Time `json:"endTime"`
	Participants []int64   `json:"participants"`
}

const testSecret = "integration-secret-that-is-long-enough"

var day = time.Date(2030, 6, 3, 0, 0, 0, 0, time.UTC)

func slot(from, to int) gin.H {
	return gin.H{
		"startTime": day.Add(time.Duration(from) * time.Hour).Format(time.RFC3339),
		"endTime":   day.Add(time.Duration(to) * time.Hour).Format(time.RFC3339),
	}
}

func newTestRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := database.Connect(":memory:")
	require.NoError(t, err)
	require.NoError(t, repository.Migrate(db))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})

	cfg := &config.Config{
		AppEnv:     "test",
		JWTSecret:  testSecret,
		BcryptCost: bcrypt.MinCost,
	}
	return NewRouter(cfg, db)
}

func do(t *testing.T, r http.Handler, method, path, token string, body any) (int, reply) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	env := reply{Body: w.Body.Bytes()}
	if w.Code >= http.StatusBadRequest {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env.Error))
	}
	return w.Code, env
}

func register(t *testing.T, r http.Handler, email string) session {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     "Test",
		"email":    email,
		"password": "secret1",
	})
	require.Equal(t, http.StatusCreated, code)

	var s session
	require.NoError(t, json.Unmarshal(env.Body, &s))
	return s
}

func createRoom(t *testing.T, r http.Handler, token, title string) int64 {
	t.Helper()
	code, env := do(t, r, http.MethodPost, "/api/rooms", token, gin.H{"title": title})
	require.Equal(t, http.StatusCreated, code)

	var room struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(env.Body, &room))
	return room.ID
}

func book(roomID int64, from, to int) gin.H {
	body := slot(from, to)
	body["roomId"] = roomID
	return body
}

func TestHealthz(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodGet, "/healthz", "", nil)

	assert.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `{"status":"ok"}`, string(env.Body))
}

func TestSessionTokenExpiresAfterOneHour(t *testing.T) {
	r := newTestRouter(t)
	s := register(t, r, "ann@example.com")

	claims, err := jwtsvc.New(testSecret, time.Minute).ValidateToken(s.Token)
	require.NoError(t, err)

	require.NotNil(t, claims.IssuedAt)
	require.NotNil(t, claims.ExpiresAt)
	assert.Equal(t, time.Hour, claims.ExpiresAt.Sub(claims.IssuedAt.Time))
	assert.Equal(t, s.User.ID, claims.UserID)
	assert.Equal(t, "Admin", claims.Role)
}

func TestResponseBodiesAreUnwrapped(t *testing.T) {
	r := newTestRouter(t)

	code, env := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ann", "email": "ann@example.com", "password": "secret1"})
	require.Equal(t, http.StatusCreated, code)
	var top map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(env.Body, &top))
	assert.Contains(t, top, "token")
	assert.Contains(t, top, "user")
	assert.NotContains(t, top, "data")

	var s session
	require.NoError(t, json.Unmarshal(env.Body, &s))

	code, env = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ann@example.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Body, &top))
	assert.Contains(t, top, "token")

	roomID := createRoom(t, r, s.Token, "Blue")
	code, env = do(t, r, http.MethodGet, "/api/rooms", s.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var rooms []map[string]any
	require.NoError(t, json.Unmarshal(env.Body, &rooms))
	require.Len(t, rooms, 1)
	assert.EqualValues(t, roomID, rooms[0]["id"])

	code, env = do(t, r, http.MethodGet, "/api/bookings", s.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Body))

	code, env = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ann@example.com", "password": "wrong-one"})
	require.Equal(t, http.StatusUnauthorized, code)
	var failure map[string]any
	require.NoError(t, json.Unmarshal(env.Body, &failure))
	assert.Equal(t, "Email or password is incorrect", failure["message"])
	assert.Equal(t, "INVALID_CREDENTIALS", failure["code"])
}

func TestRoleBootstrapAndRoomManagement(t *testing.T) {
	r := newTestRouter(t)

	admin := register(t, r, "admin@example.com")
	user := register(t, r, "user@example.com")
	assert.Equal(t, "Admin", admin.User.Role)
	assert.Equal(t, "User", user.User.Role)

	code, env := do(t, r, http.MethodPost, "/api/rooms", user.Token, gin.H{"title": "Blue"})
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "FORBIDDEN", env.Error.Code)

	roomID := createRoom(t, r, admin.Token, "Blue")

	code, _ = do(t, r, http.MethodGet, "/api/rooms", user.Token, nil)
	assert.Equal(t, http.StatusOK, code)

	code, _ = do(t, r, http.MethodPut, fmt.Sprintf("/api/rooms/%d", roomID), admin.Token, gin.H{"title": "Green"})
	assert.Equal(t, http.StatusOK, code)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/rooms/%d", roomID), user.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.Contains(t, string(env.Body), `"title":"Green"`)

	code, _ = do(t, r, http.MethodPut, "/api/rooms/999", admin.Token, gin.H{"title": "Green"})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestAuthErrors(t *testing.T) {
	r := newTestRouter(t)
	register(t, r, "ann@example.com")

	code, env := do(t, r, http.MethodPost, "/api/auth/register", "", gin.H{"name": "Ann", "email": "ann@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "EMAIL_EXISTS", env.Error.Code)

	code, _ = do(t, r, http.MethodPost, "/api/auth/login", "", gin.H{"email": "ann@example.com", "password": "wrong-one"})
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, r, http.MethodGet, "/api/bookings", "", nil)
	assert.Equal(t, http.StatusUnauthorized, code)

	code, _ = do(t, r, http.MethodGet, "/api/bookings", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, code)
}

func TestBookingRoundTrip(t *testing.T) {
	r := newTestRouter(t)
	admin := register(t, r, "admin@example.com")
	alice := register(t, r, "alice@example.com")
	roomID := createRoom(t, r, admin.Token, "Blue")

	code, env := do(t, r, http.MethodPost, "/api/bookings", alice.Token, book(roomID, 10, 11))
	require.Equal(t, http.StatusCreated, code)
	var created bookingBody
	require.NoError(t, json.Unmarshal(env.Body, &created))
	assert.Equal(t, alice.User.ID, created.CreatorID)
	assert.True(t, created.StartTime.Equal(day.Add(10*time.Hour)))

	// adjacent slot is free
	code, _ = do(t, r, http.MethodPost, "/api/bookings", admin.Token, book(roomID, 11, 12))
	require.Equal(t, http.StatusCreated, code)

	code, env = do(t, r, http.MethodPost, "/api/bookings", admin.Token, book(roomID, 9, 12))
	assert.Equal(t, http.StatusConflict, code)
	assert.Equal(t, "BOOKING_CONFLICT", env.Error.Code)

	code, env = do(t, r, http.MethodGet, "/api/bookings", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var list []bookingBody
	require.NoError(t, json.Unmarshal(env.Body, &list))
	require.Len(t, list, 2)
	assert.Equal(t, created.ID, list[0].ID)

	code, env = do(t, r, http.MethodGet, fmt.Sprintf("/api/rooms/%d/bookings", roomID), alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	require.NoError(t, json.Unmarshal(env.Body, &list))
	assert.Len(t, list, 2)

	path := fmt.Sprintf("/api/bookings/%d", created.ID)
	code, _ = do(t, r, http.MethodDelete, path, alice.Token, nil)
	assert.Equal(t, http.StatusNoContent, code)

	code, _ = do(t, r, http.MethodDelete, path, alice.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func TestBookingValidation(t *testing.T) {
	r := newTestRouter(t)
	admin := register(t, r, "admin@example.com")
	roomID := createRoom(t, r, admin.Token, "Blue")

	code, env := do(t, r, http.MethodPost, "/api/bookings", admin.Token, book(roomID, 12, 11))
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "VALIDATION_ERROR", env.Error.Code)

	code, _ = do(t, r, http.MethodPost, "/api/bookings", admin.Token, book(999, 10, 11))
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = do(t, r, http.MethodPost, "/api/bookings", admin.Token, gin.H{"roomId": roomID})
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestNonOwnerCannotChangeBooking(t *testing.T) {
	r := newTestRouter(t)
	admin := register(t, r, "admin@example.com")
	alice := register(t, r, "alice@example.com")
	mallory := register(t, r, "mallory@example.com")
	roomID := createRoom(t, r, admin.Token, "Blue")

	code, env := do(t, r, http.MethodPost, "/api/bookings", alice.Token, book(roomID, 10, 11))
	require.Equal(t, http.StatusCreated, code)
	var created bookingBody
	require.NoError(t, json.Unmarshal(env.Body, &created))
	path := fmt.Sprintf("/api/bookings/%d", created.ID)

	code, _ = do(t, r, http.MethodPut, path, mallory.Token, book(roomID, 14, 15))
	assert.Equal(t, http.StatusForbidden, code)

	code, _ = do(t, r, http.MethodDelete, path, mallory.Token, nil)
	assert.Equal(t, http.StatusForbidden, code)

	code, env = do(t, r, http.MethodGet, "/api/bookings", alice.Token, nil)
	require.Equal(t, http.StatusOK, code)
	var list []bookingBody
	require.NoError(t, json.Unmarshal(env.Body, &list))
	require.Len(t, list, 1)
	assert.True(t, list[0].StartTime.Equal(day.Add(10*time.Hour)))

	// admins may change anyone's booking
	code, _ = do(t, r, http.MethodPut, path, admin.Token, book(roomID, 14, 15))
	assert.Equal(t, http.StatusOK, code)
}

func TestConcurrentBookingsForSameSlot(t *testing.T) {
	r := newTestRouter(t)
	admin := register(t, r, "admin@example.com")
	alice := register(t, r, "alice@example.com")
	roomID := createRoom(t, r, admin.Token, "Blue")

	tokens := []string{admin.Token, alice.Token}
	codes := make([]int, len(tokens))

	var g errgroup.Group
	for i, token := range tokens {
		g.Go(func() error {
			req := httptest.NewRequest(http.MethodPost, "/api/bookings", bytes.NewReader(mustJSON(book(roomID, 10, 11))))
			req.Header.Set("Content-Type", "application/json")
			req.Header.Set("Authorization", "Bearer "+token)
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			codes[i] = w.Code
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.ElementsMatch(t, []int{http.StatusCreated, http.StatusConflict}, codes)
}

func TestDeleteRoomRemovesItsBookings(t *testing.T) {
	r := newTestRouter(t)
	admin := register(t, r, "admin@example.com")
	roomID := createRoom(t, r, admin.Token, "Blue")

	code, _ := do(t, r, http.MethodPost, "/api/bookings", admin.Token, book(roomID, 10, 11))
	require.Equal(t, http.StatusCreated, code)

	code, _ = do(t, r, http.MethodDelete, fmt.Sprintf("/api/rooms/%d", roomID), admin.Token, nil)
	require.Equal(t, http.StatusNoContent, code)

	code, env := do(t, r, http.MethodGet, "/api/bookings", admin.Token, nil)
	require.Equal(t, http.StatusOK, code)
	assert.JSONEq(t, `[]`, string(env.Body))

	code, _ = do(t, r, http.MethodGet, fmt.Sprintf("/api/rooms/%d/bookings", roomID), admin.Token, nil)
	assert.Equal(t, http.StatusNotFound, code)
}

func mustJSON(v any) []byte {
	b, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return b
}
