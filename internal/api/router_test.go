package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/dnoice/roachtrack/internal/api"
	"github.com/dnoice/roachtrack/internal/api/handlers"
	"github.com/dnoice/roachtrack/internal/auth"
	"github.com/dnoice/roachtrack/internal/config"
	"github.com/dnoice/roachtrack/internal/db"
	"github.com/dnoice/roachtrack/internal/db/repository"
	"github.com/dnoice/roachtrack/internal/models"
	"github.com/dnoice/roachtrack/internal/security"
)

type apiFixture struct {
	router *gin.Engine
	users  *repository.UserRepository
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	database, err := db.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	require.NoError(t, db.RunMigrations(database))

	cfg := config.Default()
	cfg.Auth.BcryptCost = bcrypt.MinCost

	users := repository.NewUserRepository(database.DB, bcrypt.MinCost)
	propertyRepo := repository.NewPropertyRepository(database.DB)
	sightingRepo := repository.NewSightingRepository(database.DB)
	auditRepo := repository.NewAuditRepository(database.DB)

	auditor := security.NewAuditor(auditRepo)
	limiter := security.NewRateLimiter(5, 300*time.Second, 900*time.Second, auditor)
	sessions := auth.NewSessionStore(time.Hour)
	authSvc := auth.NewService(users, limiter, auditor, sessions)

	server := api.NewServer(cfg, authSvc, sessions, auditor, users, propertyRepo, sightingRepo, auditRepo)

	return &apiFixture{router: server.Router(), users: users}
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Buffer
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewBuffer(data)
	} else {
		reader = bytes.NewBuffer(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.RemoteAddr = "192.0.2.1:12345"
	if token != "" {
		req.Header.Set("X-Session-Token", token)
	}

	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

// login registers nothing; the account must already exist.
func (f *apiFixture) login(t *testing.T, username, password string) string {
	t.Helper()
	w := f.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"username": username,
		"password": password,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotEmpty(t, resp.Token)
	return resp.Token
}

func (f *apiFixture) createUser(t *testing.T, username, role string) {
	t.Helper()
	_, err := f.users.Create(repository.CreateUserParams{
		Username: username,
		Email:    username + "@example.com",
		Password: "Tr0ub4dor&3",
		Role:     role,
	})
	require.NoError(t, err)
}

func TestHealthEndpoint(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestRegisterAndLoginFlow(t *testing.T) {
	f := newAPIFixture(t)

	w := f.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "Tr0ub4dor&3",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Duplicate registration collides on username
	w = f.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"username": "alice",
		"email":    "other@example.com",
		"password": "Tr0ub4dor&3",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	// Weak password is a validation error
	w = f.do(t, http.MethodPost, "/v1/auth/register", "", gin.H{
		"username": "bob",
		"email":    "bob@example.com",
		"password": "Password123!",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	token := f.login(t, "alice", "Tr0ub4dor&3")

	// The session works against a protected endpoint
	w = f.do(t, http.MethodGet, "/v1/sightings", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	// Logout invalidates it
	w = f.do(t, http.MethodPost, "/v1/auth/logout", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = f.do(t, http.MethodGet, "/v1/sightings", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginFailuresAreGeneric(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)

	w := f.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "WrongPass#9x",
	})
	require.Equal(t, http.StatusUnauthorized, w.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Invalid username or password", resp.Message)

	// Unknown user yields the identical body
	w2 := f.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"username": "nobody",
		"password": "WrongPass#9x",
	})
	assert.Equal(t, w.Body.String(), w2.Body.String())
}

func TestLoginLockoutReturns429(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)

	for i := 0; i < 5; i++ {
		w := f.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
			"username": "alice",
			"password": "WrongPass#9x",
		})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	}

	w := f.do(t, http.MethodPost, "/v1/auth/login", "", gin.H{
		"username": "alice",
		"password": "Tr0ub4dor&3",
	})
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	var resp handlers.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "locked_out", resp.Error)
}

func TestProtectedEndpointsRequireSession(t *testing.T) {
	f := newAPIFixture(t)

	for _, path := range []string{"/v1/sightings", "/v1/properties", "/v1/admin/users"} {
		w := f.do(t, http.MethodGet, path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
	}
}

func TestAdminEndpointsRequireAdminRole(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)
	f.createUser(t, "root1", models.RoleAdmin)

	residentToken := f.login(t, "alice", "Tr0ub4dor&3")
	w := f.do(t, http.MethodGet, "/v1/admin/users", residentToken, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	adminToken := f.login(t, "root1", "Tr0ub4dor&3")
	w = f.do(t, http.MethodGet, "/v1/admin/users", adminToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestPropertyMutationsRequireManagerRole(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)
	f.createUser(t, "carol", models.RolePropertyManager)

	residentToken := f.login(t, "alice", "Tr0ub4dor&3")
	w := f.do(t, http.MethodPost, "/v1/properties", residentToken, gin.H{"name": "Maple Court"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	managerToken := f.login(t, "carol", "Tr0ub4dor&3")
	w = f.do(t, http.MethodPost, "/v1/properties", managerToken, gin.H{"name": "Maple Court"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// Residents can still read
	w = f.do(t, http.MethodGet, "/v1/properties", residentToken, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSightingLifecycleOverHTTP(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)
	token := f.login(t, "alice", "Tr0ub4dor&3")

	w := f.do(t, http.MethodPost, "/v1/sightings", token, gin.H{
		"location":    "Kitchen",
		"roach_count": 3,
		"notes":       "behind the fridge",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		SightingID int64 `json:"sighting_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(t, http.MethodGet, "/v1/sightings/search?q=fridge", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Kitchen")

	w = f.do(t, http.MethodGet, "/v1/sightings/statistics", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total_sightings":1`)

	// Invalid payload is rejected before the store sees it
	w = f.do(t, http.MethodPost, "/v1/sightings", token, gin.H{"roach_count": 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(t, http.MethodDelete, "/v1/sightings/999", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSightingCountDefaultsToOne(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)
	token := f.login(t, "alice", "Tr0ub4dor&3")

	// roach_count left out entirely
	w := f.do(t, http.MethodPost, "/v1/sightings", token, gin.H{"location": "Pantry"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		SightingID int64 `json:"sighting_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	w = f.do(t, http.MethodGet, "/v1/sightings/"+strconv.FormatInt(created.SightingID, 10), token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"roach_count":1`)

	// An explicit zero is still rejected
	w = f.do(t, http.MethodPost, "/v1/sightings", token, gin.H{"location": "Pantry", "roach_count": 0})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSightingUpdateKeepsOriginalReporter(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)
	f.createUser(t, "bob", models.RoleResident)

	aliceToken := f.login(t, "alice", "Tr0ub4dor&3")
	w := f.do(t, http.MethodPost, "/v1/sightings", aliceToken, gin.H{
		"location":    "Kitchen",
		"roach_count": 3,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var created struct {
		SightingID int64 `json:"sighting_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	alice, err := f.users.GetByUsername("alice")
	require.NoError(t, err)

	bobToken := f.login(t, "bob", "Tr0ub4dor&3")
	path := "/v1/sightings/" + strconv.FormatInt(created.SightingID, 10)
	w = f.do(t, http.MethodPut, path, bobToken, gin.H{
		"location":    "Pantry",
		"roach_count": 2,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, path, bobToken, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fetched struct {
		Location string `json:"location"`
		UserID   *int64 `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fetched))
	assert.Equal(t, "Pantry", fetched.Location)
	require.NotNil(t, fetched.UserID)
	assert.Equal(t, alice.ID, *fetched.UserID)
}

func TestDeactivatedUserLosesSession(t *testing.T) {
	f := newAPIFixture(t)
	f.createUser(t, "alice", models.RoleResident)
	f.createUser(t, "root1", models.RoleAdmin)

	aliceToken := f.login(t, "alice", "Tr0ub4dor&3")
	adminToken := f.login(t, "root1", "Tr0ub4dor&3")

	user, err := f.users.GetByUsername("alice")
	require.NoError(t, err)

	w := f.do(t, http.MethodPut,
		"/v1/admin/users/"+strconv.FormatInt(user.ID, 10)+"/toggle-active", adminToken, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = f.do(t, http.MethodGet, "/v1/sightings", aliceToken, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
