package identity

import (
	"net/http"

	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
	"github.com/gin-gonic/gin"
)

// HTTPServer 身份相关路由（登录）。
type HTTPServer struct {
	svc *Service
}

func NewHTTPServer(svc *Service) *HTTPServer {
	return &HTTPServer{svc: svc}
}

func (h *HTTPServer) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.POST("/auth/login", h.login)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token     string   `json:"token"`
	ExpiresAt int64    `json:"expires_at"`
	UserID    string   `json:"user_id"`
	Roles     []string `json:"roles"`
}

func (h *HTTPServer) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		// 登录失败统一 401，避免泄露用户是否存在
		if errs.IsKind(err, errs.KindUnauthorized) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, loginResponse{
		Token:     res.Token,
		ExpiresAt: res.ExpiresAt.Unix(),
		UserID:    res.UserID,
		Roles:     res.Roles,
	})
}
