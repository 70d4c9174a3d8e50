package defect

import (
	"net/http"
	"strings"
	"time"

	"github.com/FleetGuardian/FleetGuardian/internal/common/auth"
	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
	"github.com/FleetGuardian/FleetGuardian/internal/identity"
	"github.com/gin-gonic/gin"
)

// HTTPServer 缺陷台账的 HTTP 绑定。字段语义与领域模型一致，
// 传输层只做 DTO 映射和错误码翻译。
type HTTPServer struct {
	svc *Service
}

func NewHTTPServer(svc *Service) *HTTPServer {
	return &HTTPServer{svc: svc}
}

func (h *HTTPServer) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.GET("/defects/:id", h.get)
	g.PATCH("/defects/:id/status", h.updateStatus)
	g.DELETE("/defects/:id", h.hardDelete)
	g.GET("/vehicles/:id/defects/uncorrected", h.listUncorrected)
}

// DefectDTO 对外暴露的缺陷表示
type DefectDTO struct {
	ID                 string `json:"id"`
	VehicleID          string `json:"vehicle_id"`
	OriginInspectionID string `json:"origin_inspection_id"`
	Description        string `json:"description"`
	Location           string `json:"location,omitempty"`
	Severity           string `json:"severity"`
	Status             string `json:"status"`
	IdentifiedBy       string `json:"identified_by"`
	IdentifiedAt       int64  `json:"identified_at"`
	CorrectedBy        string `json:"corrected_by,omitempty"`
	CorrectedAt        *int64 `json:"corrected_at,omitempty"`
	CorrectionNotes    string `json:"correction_notes,omitempty"`
	DeferralReason     string `json:"deferral_reason,omitempty"`
	DeferralApprover   string `json:"deferral_approver,omitempty"`
	CarriedOverCount   int64  `json:"carried_over_count"`
}

// ToDTO 领域模型 -> DTO
func ToDTO(d *Defect) DefectDTO {
	dto := DefectDTO{
		ID:                 d.ID,
		VehicleID:          d.VehicleID,
		OriginInspectionID: d.OriginInspectionID,
		Description:        d.Description,
		Location:           d.Location,
		Severity:           string(d.Severity),
		Status:             string(d.Status),
		IdentifiedBy:       d.IdentifiedBy,
		IdentifiedAt:       d.IdentifiedAt.Unix(),
		CorrectedBy:        d.CorrectedBy,
		CorrectionNotes:    d.CorrectionNotes,
		DeferralReason:     d.DeferralReason,
		DeferralApprover:   d.DeferralApprover,
		CarriedOverCount:   d.CarriedOverCount,
	}
	if d.CorrectedAt != nil {
		ts := d.CorrectedAt.Unix()
		dto.CorrectedAt = &ts
	}
	return dto
}

func actorFrom(c *gin.Context) identity.Actor {
	ai, _ := auth.FromGinContext(c)
	return identity.ActorFromAuthInfo(ai)
}

func writeErr(c *gin.Context, err error) {
	c.JSON(errs.HTTPStatus(err), gin.H{"error": err.Error()})
}

func (h *HTTPServer) get(c *gin.Context) {
	d, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ToDTO(d))
}

type updateStatusRequest struct {
	Status           string `json:"status"`
	CorrectedAt      *int64 `json:"corrected_at"` // 可选：unix 秒
	CorrectionNotes  string `json:"correction_notes"`
	DeferralReason   string `json:"deferral_reason"`
	DeferralApprover string `json:"deferral_approver"`
}

func (h *HTTPServer) updateStatus(c *gin.Context) {
	var req updateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := UpdateStatusInput{
		DefectID:         c.Param("id"),
		NewStatus:        Status(strings.TrimSpace(req.Status)),
		CorrectionNotes:  req.CorrectionNotes,
		DeferralReason:   req.DeferralReason,
		DeferralApprover: req.DeferralApprover,
	}
	if req.CorrectedAt != nil {
		t := time.Unix(*req.CorrectedAt, 0)
		in.CorrectedAt = &t
	}

	d, err := h.svc.UpdateStatus(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, ToDTO(d))
}

func (h *HTTPServer) hardDelete(c *gin.Context) {
	if err := h.svc.HardDelete(c.Request.Context(), actorFrom(c), c.Param("id")); err != nil {
		writeErr(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// listUncorrected 行前查询：车辆当前全部未解决缺陷（司机端出车前展示）。
func (h *HTTPServer) listUncorrected(c *gin.Context) {
	defects, err := h.svc.ListUnresolved(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	out := make([]DefectDTO, 0, len(defects))
	for i := range defects {
		out = append(out, ToDTO(&defects[i]))
	}
	c.JSON(http.StatusOK, gin.H{"defects": out, "total": len(out)})
}
