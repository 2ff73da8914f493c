package handlers

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/anonto42/socialpulse/backend/internal/middleware"
	"github.com/anonto42/socialpulse/backend/internal/models"
	"github.com/anonto42/socialpulse/backend/internal/notify"
	"github.com/anonto42/socialpulse/backend/internal/validators"
)

const (
	userAda   uint = 1
	userBob   uint = 2
	userAdmin uint = 9
)

type testEnv struct {
	e             *echo.Echo
	notifications *fakeNotifications
	users         *fakeUsers
	follows       *fakeFollows
	conversations *fakeConversations
	messages      *fakeMessages
	posts         *fakePosts
	likes         *fakeLikes
	comments      *fakeComments
	publisher     *recordingPublisher
	presence      fakePresence
}

// testAuth authenticates requests as the user named in the X-Test-User header.
func testAuth(users *fakeUsers) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			id, err := strconv.ParseUint(c.Request().Header.Get("X-Test-User"), 10, 32)
			if err == nil {
				claims := &models.JwtCustomClaims{UserID: uint(id), Role: models.RoleUser}
				if u, err := users.GetUserByID(uint(id)); err == nil {
					claims.Role = u.Role
				}
				c.Set(middleware.UserContextKey, claims)
			}
			return next(c)
		}
	}
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		e:             echo.New(),
		notifications: &fakeNotifications{},
		users: newFakeUsers(
			&models.User{ID: userAda, Name: "ada", DisplayName: "Ada", Role: models.RoleUser},
			&models.User{ID: userBob, Name: "bob", DisplayName: "Bob", Role: models.RoleUser},
			&models.User{ID: userAdmin, Name: "root", Role: models.RoleAdmin},
		),
		follows:       &fakeFollows{},
		conversations: &fakeConversations{byID: make(map[primitive.ObjectID]*models.Conversation)},
		messages:      &fakeMessages{},
		posts:         &fakePosts{posts: make(map[string]*models.Post)},
		likes:         &fakeLikes{},
		comments:      &fakeComments{},
		publisher:     &recordingPublisher{},
		presence:      fakePresence{"1": true},
	}
	env.e.Validator = validators.NewValidator()

	notifier := notify.NewService(env.notifications, env.publisher, env.users, time.Hour)

	api := env.e.Group("/api/v1", testAuth(env.users))
	NewNotificationHandler(env.notifications, env.users).RegisterNotificationRoutes(api)
	NewMessageHandler(env.conversations, env.messages, env.notifications, env.users, env.publisher, notifier).RegisterMessageRoutes(api)
	NewFollowHandler(env.follows, env.users, notifier).RegisterFollowRoutes(api)
	NewPostHandler(env.posts, env.users, env.follows, notifier).RegisterPostRoutes(api)
	NewLikeHandler(env.likes, env.posts, env.users, notifier).RegisterLikeRoutes(api)
	NewCommentHandler(env.comments, env.posts, env.users, notifier).RegisterCommentRoutes(api)
	NewUserHandler(env.users).RegisterProfileRoutes(api)
	NewPresenceHandler(env.presence).RegisterPresenceRoutes(api)

	admin := api.Group("/admin", middleware.RequireRole(models.RoleAdmin))
	NewAdminHandler(env.users, notifier).RegisterAdminRoutes(admin)
	return env
}

func (env *testEnv) request(t *testing.T, method, path, body string, as uint) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if as != 0 {
		req.Header.Set("X-Test-User", strconv.FormatUint(uint64(as), 10))
	}
	rec := httptest.NewRecorder()
	env.e.ServeHTTP(rec, req)
	return rec
}

// decodeData unmarshals the "data" member of a success envelope into out.
func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	var envelope struct {
		Success bool            `json:"success"`
		Data    json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	require.True(t, envelope.Success, rec.Body.String())
	require.NoError(t, json.Unmarshal(envelope.Data, out))
}
