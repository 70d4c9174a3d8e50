package auth

import (
	"net/http"
	"strings"

	"github.com/FleetGuardian/FleetGuardian/internal/common/config"
	"github.com/FleetGuardian/FleetGuardian/internal/common/logger"
	"github.com/gin-gonic/gin"
)

const ginAuthKey = "auth_info"

// FromGinContext 从 gin.Context 中取出鉴权信息。
func FromGinContext(c *gin.Context) (AuthInfo, bool) {
	v, ok := c.Get(ginAuthKey)
	if !ok {
		return AuthInfo{}, false
	}
	ai, ok := v.(AuthInfo)
	return ai, ok
}

// routeKey 使用 gin 的路由模板（/api/v1/defects/:id）而非真实 URL，
// 保证 RBAC/public 配置不随路径参数变化。
func routeKey(c *gin.Context) string {
	path := c.FullPath()
	if path == "" {
		path = c.Request.URL.Path
	}
	return c.Request.Method + " " + path
}

// Middleware JWT 鉴权中间件：
// - 从 `Authorization: Bearer <token>` 读取 token
// - 校验签名与标准字段，解析结果写入 gin.Context
// - public_paths 命中的路由直接放行
func Middleware(cfg config.AuthConfig, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || c.Request.URL.Path == "/healthz" || isPublicPath(cfg.PublicPaths, routeKey(c)) {
			c.Next()
			return
		}
		if strings.TrimSpace(cfg.JWTSecret) == "" {
			if log != nil {
				log.Warn("auth enabled but jwt_secret is empty")
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "auth not configured"})
			return
		}

		raw := strings.TrimSpace(c.GetHeader("Authorization"))
		if raw == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing authorization"})
			return
		}
		tokenStr := raw
		if strings.HasPrefix(strings.ToLower(tokenStr), "bearer ") {
			tokenStr = strings.TrimSpace(tokenStr[len("bearer "):])
		}

		ai, err := VerifyAccessToken(cfg, tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}

		c.Set(ginAuthKey, ai)
		c.Next()
	}
}

// RBACMiddleware 基于 "METHOD /path" -> roles 的简单 RBAC：
// - 若配置了要求角色，则 token roles 与之有交集才放行
// - 未配置要求角色的路由默认放行（即“只鉴权，不限权”）
func RBACMiddleware(cfg config.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !cfg.Enabled || c.Request.URL.Path == "/healthz" || isPublicPath(cfg.PublicPaths, routeKey(c)) {
			c.Next()
			return
		}

		required := cfg.RBAC[routeKey(c)]
		if len(required) == 0 {
			c.Next()
			return
		}

		ai, ok := FromGinContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing auth context"})
			return
		}
		if !HasAnyRole(ai.Roles, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "permission denied"})
			return
		}
		c.Next()
	}
}

// HasAnyRole 判断 got 与 required 是否有交集（大小写不敏感）。
func HasAnyRole(got, required []string) bool {
	if len(got) == 0 || len(required) == 0 {
		return false
	}
	set := make(map[string]struct{}, len(got))
	for _, r := range got {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		set[r] = struct{}{}
	}
	for _, r := range required {
		r = strings.TrimSpace(strings.ToLower(r))
		if r == "" {
			continue
		}
		if _, ok := set[r]; ok {
			return true
		}
	}
	return false
}

func isPublicPath(public []string, key string) bool {
	if key == "" {
		return false
	}
	for _, p := range public {
		if strings.TrimSpace(p) == key {
			return true
		}
	}
	return false
}
