package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/auth"
	"github.com/FleetGuardian/FleetGuardian/internal/common/config"
	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Registry 引擎消费的身份服务最小接口。
type Registry interface {
	UserExists(ctx context.Context, userID string) (bool, error)
	RolesOf(ctx context.Context, userID string) ([]string, error)
}

// Service 身份服务适配层（登录发 token + 存在性/角色查询）。
type Service struct {
	repo    *Repo
	authCfg config.AuthConfig
}

func NewService(repo *Repo, authCfg config.AuthConfig) *Service {
	return &Service{repo: repo, authCfg: authCfg}
}

var _ Registry = (*Service)(nil)

func (s *Service) UserExists(ctx context.Context, userID string) (bool, error) {
	if s == nil || s.repo == nil {
		return false, fmt.Errorf("service not initialized")
	}
	return s.repo.Exists(ctx, strings.TrimSpace(userID))
}

func (s *Service) RolesOf(ctx context.Context, userID string) ([]string, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	return s.repo.RolesOf(ctx, strings.TrimSpace(userID))
}

// LoginResult 登录结果
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	UserID    string
	Roles     []string
}

// Login 校验用户名密码并签发 access token。
func (s *Service) Login(ctx context.Context, username, password string) (*LoginResult, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errs.InvalidInput("username and password required")
	}

	u, err := s.repo.FindByUsername(ctx, username)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, errs.Unauthorized("invalid credentials")
	}
	if err != nil {
		return nil, errs.Storage(err, "query user")
	}
	if !VerifyPassword(password, u.PasswordSalt, u.PasswordHash) {
		return nil, errs.Unauthorized("invalid credentials")
	}

	token, exp, err := auth.GenerateAccessToken(s.authCfg, u.ID, u.RolesSlice(), 24*time.Hour)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}
	return &LoginResult{Token: token, ExpiresAt: exp, UserID: u.ID, Roles: u.RolesSlice()}, nil
}

// CreateUser 管理用途的建用户入口（运维脚本/种子数据）。
func (s *Service) CreateUser(ctx context.Context, username, password string, roles []string) (*User, error) {
	if s == nil || s.repo == nil {
		return nil, fmt.Errorf("service not initialized")
	}
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, errs.InvalidInput("username and password required")
	}

	salt, err := GenerateSaltHex()
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password, salt)
	if err != nil {
		return nil, err
	}

	u := &User{
		ID:           uuid.NewString(),
		Username:     username,
		PasswordHash: hash,
		PasswordSalt: salt,
		Roles:        RolesJoin(roles),
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, errs.Storage(err, "create user")
	}
	return u, nil
}
