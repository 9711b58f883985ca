package service

import (
	"context"
	"testing"
	"time"

	"health_track_backend/internal/config"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func newAuthFixture() (*AuthService, *mockUserStore, *mockSessionStore) {
	users, sessions := new(mockUserStore), new(mockSessionStore)
	cfg := &config.Config{
		JWT:     config.JWTConfig{Secret: testSecret, ExpireTime: time.Hour},
		Session: config.SessionConfig{TTLHours: 24},
	}
	svc := NewAuthService(users, sessions, cfg)
	svc.Now = clock
	return svc, users, sessions
}

func hashed(t *testing.T, password string) string {
	h, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	return string(h)
}

func TestRegister_Validation(t *testing.T) {
	svc, users, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), RegisterInput{Name: "", Email: "not-an-email", Password: "short"})

	var ve *util.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, []string{"name", "email", "password"}, ve.Fields)
	users.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestRegister_HashesPassword(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()
	users.On("Create", ctx, mock.MatchedBy(func(u *model.User) bool {
		return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte("correct horse")) == nil &&
			u.Role == model.Patient
	})).Return(nil)

	user, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "correct horse"})
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", user.Password)
	users.AssertExpectations(t)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()
	users.On("Create", ctx, mock.Anything).Return(util.ErrEmailRegistered)

	_, err := svc.Register(ctx, RegisterInput{Name: "Jane", Email: "jane@example.com", Password: "correct horse"})
	assert.ErrorIs(t, err, util.ErrEmailRegistered)
}

func TestLogin_WrongPassword(t *testing.T) {
	svc, users, sessions := newAuthFixture()
	ctx := context.Background()
	users.On("FindByEmail", ctx, "jane@example.com").Return(&model.User{Email: "jane@example.com", Password: hashed(t, "right password")}, nil)

	_, err := svc.Login(ctx, "jane@example.com", "wrong password")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
	sessions.AssertNotCalled(t, "Save", mock.Anything, mock.Anything, mock.Anything)
}

func TestLogin_UnknownEmail(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()
	users.On("FindByEmail", ctx, "ghost@example.com").Return(nil, util.ErrNotFound)

	_, err := svc.Login(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, util.ErrInvalidCredentials)
}

func TestLogin_IssuesTokenBoundToSession(t *testing.T) {
	svc, users, sessions := newAuthFixture()
	ctx := context.Background()
	user := &model.User{Email: "jane@example.com", Password: hashed(t, "right password"), Role: model.Patient}
	user.ID = 7
	users.On("FindByEmail", ctx, "jane@example.com").Return(user, nil)
	users.On("UpdateLastLogin", ctx, uint(7), fixedNow).Return(nil)

	var saved Session
	sessions.On("Save", ctx, mock.AnythingOfType("service.Session"), 24*time.Hour).
		Run(func(args mock.Arguments) { saved = args.Get(1).(Session) }).
		Return(nil)

	result, err := svc.Login(ctx, "jane@example.com", "right password")
	require.NoError(t, err)

	claims, err := util.ParseJWT(result.Token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, uint(7), claims.UserID)
	assert.NotEmpty(t, claims.SessionID)
	assert.Equal(t, saved.SessionID, claims.SessionID)
	assert.Equal(t, fixedNow.Add(time.Hour), result.ExpiresAt)
	users.AssertExpectations(t)
}

func TestLogin_DisabledUser(t *testing.T) {
	svc, users, _ := newAuthFixture()
	ctx := context.Background()
	users.On("FindByEmail", ctx, "jane@example.com").Return(&model.User{Password: hashed(t, "right password"), Disabled: true}, nil)

	_, err := svc.Login(ctx, "jane@example.com", "right password")
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
}

func TestAuthenticate(t *testing.T) {
	svc, _, sessions := newAuthFixture()
	ctx := context.Background()
	user := &model.User{Email: "jane@example.com", Role: model.Patient}
	user.ID = 7
	token, err := util.GenerateJWT(user, "sid-1", testSecret, time.Hour)
	require.NoError(t, err)

	t.Run("live session", func(t *testing.T) {
		sessions.On("Load", ctx, "sid-1").Return(&patient, nil).Once()
		sess, err := svc.Authenticate(ctx, token)
		require.NoError(t, err)
		assert.Equal(t, patient, *sess)
	})

	t.Run("logged out", func(t *testing.T) {
		sessions.On("Load", ctx, "sid-1").Return(nil, util.ErrSessionExpired).Once()
		_, err := svc.Authenticate(ctx, token)
		assert.ErrorIs(t, err, util.ErrSessionExpired)
	})

	t.Run("bad signature", func(t *testing.T) {
		_, err := svc.Authenticate(ctx, token+"x")
		assert.ErrorIs(t, err, util.ErrSessionExpired)
	})
}

func TestLogoutDeletesSession(t *testing.T) {
	svc, _, sessions := newAuthFixture()
	ctx := context.Background()
	sessions.On("Delete", ctx, "sid-1").Return(nil)

	require.NoError(t, svc.Logout(ctx, patient))
	sessions.AssertExpectations(t)
}
