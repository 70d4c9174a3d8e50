package vehicle

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// HTTPServer 车辆登记的只读查询 + 管理种子入口。
type HTTPServer struct {
	repo *Repo
}

func NewHTTPServer(repo *Repo) *HTTPServer {
	return &HTTPServer{repo: repo}
}

func (h *HTTPServer) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.GET("/vehicles/:id", h.get)
	g.GET("/vehicles", h.list)
	g.PUT("/vehicles", h.upsert)
}

type vehicleDTO struct {
	ID          string `json:"id"`
	PlateNumber string `json:"plate_number"`
	VIN         string `json:"vin"`
	Model       string `json:"model"`
	OwnerID     string `json:"owner_id"`
	Status      string `json:"status"`
	CreatedAt   int64  `json:"created_at"`
	UpdatedAt   int64  `json:"updated_at"`
}

func toDTO(v *Vehicle) vehicleDTO {
	return vehicleDTO{
		ID:          v.ID,
		PlateNumber: v.PlateNumber,
		VIN:         v.VIN,
		Model:       v.Model,
		OwnerID:     v.OwnerID,
		Status:      v.Status,
		CreatedAt:   v.CreatedAt.Unix(),
		UpdatedAt:   v.UpdatedAt.Unix(),
	}
}

func (h *HTTPServer) get(c *gin.Context) {
	id := strings.TrimSpace(c.Param("id"))
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "id required"})
		return
	}
	v, err := h.repo.FindByID(c.Request.Context(), id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, toDTO(v))
}

func (h *HTTPServer) list(c *gin.Context) {
	owner := strings.TrimSpace(c.Query("owner_id"))
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	if page <= 0 {
		page = 1
	}
	if size <= 0 || size > 200 {
		size = 20
	}

	vs, total, err := h.repo.List(c.Request.Context(), owner, (page-1)*size, size)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	out := make([]vehicleDTO, 0, len(vs))
	for i := range vs {
		out = append(out, toDTO(&vs[i]))
	}
	c.JSON(http.StatusOK, gin.H{"vehicles": out, "total": total})
}

type upsertVehicleRequest struct {
	ID          string `json:"id"`
	PlateNumber string `json:"plate_number"`
	VIN         string `json:"vin"`
	Model       string `json:"model"`
	OwnerID     string `json:"owner_id"`
	Status      string `json:"status"`
}

func (h *HTTPServer) upsert(c *gin.Context) {
	var req upsertVehicleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	plate := strings.TrimSpace(req.PlateNumber)
	if plate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "plate_number required"})
		return
	}

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = uuid.NewString()
	}
	st := strings.TrimSpace(req.Status)
	if st == "" {
		st = StatusActive
	}

	v := &Vehicle{
		ID:          id,
		PlateNumber: plate,
		VIN:         strings.TrimSpace(req.VIN),
		Model:       strings.TrimSpace(req.Model),
		OwnerID:     strings.TrimSpace(req.OwnerID),
		Status:      st,
	}
	if err := h.repo.Upsert(c.Request.Context(), v); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	// 回读拿 DB 写入的时间戳
	latest, err := h.repo.FindByID(c.Request.Context(), v.ID)
	if err != nil {
		latest = v
	}
	c.JSON(http.StatusOK, toDTO(latest))
}
