package service

import (
	"context"
	"errors"
	"health_track_backend/internal/config"
	"health_track_backend/internal/model"
	"health_track_backend/internal/util"
	"health_track_backend/pkg/logger"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

type AuthService struct {
	Users    UserStore
	Sessions SessionStore
	Cfg      *config.Config
	Now      func() time.Time
}

func NewAuthService(users UserStore, sessions SessionStore, cfg *config.Config) *AuthService {
	return &AuthService{
		Users:    users,
		Sessions: sessions,
		Cfg:      cfg,
		Now:      time.Now,
	}
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult 登录或刷新后返回给客户端
type LoginResult struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expiresAt"`
	User      *model.User `json:"user"`
}

func (in RegisterInput) missing() []string {
	var fields []string
	if strings.TrimSpace(in.Name) == "" {
		fields = append(fields, "name")
	}
	if _, err := mail.ParseAddress(strings.TrimSpace(in.Email)); err != nil {
		fields = append(fields, "email")
	}
	if len(in.Password) < minPasswordLength {
		fields = append(fields, "password")
	}
	return fields
}

func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, error) {
	if missing := in.missing(); len(missing) > 0 {
		return nil, util.NewValidationError(missing...)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	user := &model.User{
		Name:     strings.TrimSpace(in.Name),
		Email:    strings.TrimSpace(in.Email),
		Password: string(hashedPassword),
		Role:     model.Patient,
	}
	if err := s.Users.Create(ctx, user); err != nil {
		return nil, util.Persistence("create user", err)
	}
	logger.Log.Info("user registered", zap.Uint("userID", user.ID))
	return user, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	user, err := s.Users.FindByEmail(ctx, email)
	if errors.Is(err, util.ErrNotFound) {
		return nil, util.ErrInvalidCredentials
	}
	if err != nil {
		return nil, util.Persistence("find user", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, util.ErrInvalidCredentials
	}
	if user.Disabled {
		return nil, util.ErrPermissionDenied
	}

	result, err := s.issue(ctx, user, uuid.NewString())
	if err != nil {
		return nil, err
	}
	// 登录时间更新失败不影响登录
	if err := s.Users.UpdateLastLogin(ctx, user.ID, s.Now()); err != nil {
		logger.Log.Warn("update last login failed", zap.Uint("userID", user.ID), zap.Error(err))
	}
	return result, nil
}

// issue 保存会话并签发 JWT
func (s *AuthService) issue(ctx context.Context, user *model.User, sessionID string) (*LoginResult, error) {
	sess := Session{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		SessionID: sessionID,
	}
	if err := s.Sessions.Save(ctx, sess, s.Cfg.Session.TTL()); err != nil {
		return nil, util.Persistence("save session", err)
	}
	token, err := util.GenerateJWT(user, sessionID, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		Token:     token,
		ExpiresAt: s.Now().Add(s.Cfg.JWT.ExpireTime),
		User:      user,
	}, nil
}

// Refresh 延长会话并签发新 token，会话 id 不变
func (s *AuthService) Refresh(ctx context.Context, sess Session) (*LoginResult, error) {
	user, err := s.Users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, util.Persistence("find user", err)
	}
	if err := s.Sessions.Refresh(ctx, sess.SessionID, s.Cfg.Session.TTL()); err != nil {
		return nil, util.Persistence("refresh session", err)
	}
	token, err := util.GenerateJWT(user, sess.SessionID, s.Cfg.JWT.Secret, s.Cfg.JWT.ExpireTime)
	if err != nil {
		return nil, err
	}
	return &LoginResult{Token: token, ExpiresAt: s.Now().Add(s.Cfg.JWT.ExpireTime), User: user}, nil
}

func (s *AuthService) Logout(ctx context.Context, sess Session) error {
	return util.Persistence("delete session", s.Sessions.Delete(ctx, sess.SessionID))
}

// Authenticate 校验 token 且会话仍然存在
func (s *AuthService) Authenticate(ctx context.Context, token string) (*Session, error) {
	claims, err := util.ParseJWT(token, s.Cfg.JWT.Secret)
	if err != nil {
		return nil, util.ErrSessionExpired
	}
	if claims.SessionID == "" {
		return nil, util.ErrSessionExpired
	}
	sess, err := s.Sessions.Load(ctx, claims.SessionID)
	if err != nil {
		return nil, util.Persistence("load session", err)
	}
	if sess.UserID != claims.UserID {
		return nil, util.ErrSessionExpired
	}
	return sess, nil
}

func (s *AuthService) Profile(ctx context.Context, sess Session) (*model.User, error) {
	user, err := s.Users.FindByID(ctx, sess.UserID)
	if err != nil {
		return nil, util.Persistence("find user", err)
	}
	return user, nil
}
