package inspection

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/FleetGuardian/FleetGuardian/internal/common/auth"
	"github.com/FleetGuardian/FleetGuardian/internal/common/errs"
	"github.com/FleetGuardian/FleetGuardian/internal/defect"
	"github.com/FleetGuardian/FleetGuardian/internal/identity"
	"github.com/gin-gonic/gin"
)

// HTTPServer 检查单流水线的 HTTP 绑定。
type HTTPServer struct {
	svc *Service
}

func NewHTTPServer(svc *Service) *HTTPServer {
	return &HTTPServer{svc: svc}
}

func (h *HTTPServer) RegisterRoutes(r *gin.Engine) {
	g := r.Group("/api/v1")
	g.POST("/inspections", h.create)
	g.GET("/inspections", h.list)
	g.GET("/inspections/:id", h.get)
	g.POST("/inspections/:id/review", h.review)
}

type checklistItemDTO struct {
	Category  string `json:"category"`
	Condition string `json:"condition,omitempty"`
	Notes     string `json:"notes,omitempty"`
}

type carriedDefectDTO struct {
	DefectID                string `json:"defect_id"`
	CarriedFromInspectionID string `json:"carried_from_inspection_id"`
}

// RecordDTO 对外暴露的检查单表示
type RecordDTO struct {
	ID                string             `json:"id"`
	VehicleID         string             `json:"vehicle_id"`
	InspectorID       string             `json:"inspector_id"`
	Type              string             `json:"type"`
	Status            string             `json:"status"`
	InspectedAt       int64              `json:"inspected_at"`
	Odometer          *int64             `json:"odometer,omitempty"`
	HasDefects        bool               `json:"has_defects"`
	SafeToOperate     bool               `json:"safe_to_operate"`
	CarryOverDegraded bool               `json:"carry_over_degraded,omitempty"`
	ReviewedBy        string             `json:"reviewed_by,omitempty"`
	ReviewedAt        *int64             `json:"reviewed_at,omitempty"`
	ReviewNotes       string             `json:"review_notes,omitempty"`
	Checklist         []checklistItemDTO `json:"checklist,omitempty"`
	CarriedDefects    []carriedDefectDTO `json:"carried_defects,omitempty"`
	NewDefectIDs      []string           `json:"new_defect_ids,omitempty"`
}

func toRecordDTO(rec *Record) RecordDTO {
	dto := RecordDTO{
		ID:                rec.ID,
		VehicleID:         rec.VehicleID,
		InspectorID:       rec.InspectorID,
		Type:              string(rec.Type),
		Status:            string(rec.Status),
		InspectedAt:       rec.InspectedAt.Unix(),
		Odometer:          rec.Odometer,
		HasDefects:        rec.HasDefects,
		SafeToOperate:     rec.SafeToOperate,
		CarryOverDegraded: rec.CarryOverDegraded,
		ReviewedBy:        rec.ReviewedBy,
		ReviewNotes:       rec.ReviewNotes,
		NewDefectIDs:      rec.NewDefectIDs,
	}
	if rec.ReviewedAt != nil {
		ts := rec.ReviewedAt.Unix()
		dto.ReviewedAt = &ts
	}
	for i := range rec.Checklist {
		item := rec.Checklist[i]
		dto.Checklist = append(dto.Checklist, checklistItemDTO{
			Category:  item.Category,
			Condition: item.Condition,
			Notes:     item.Notes,
		})
	}
	for i := range rec.Carried {
		e := rec.Carried[i]
		dto.CarriedDefects = append(dto.CarriedDefects, carriedDefectDTO{
			DefectID:                e.DefectID,
			CarriedFromInspectionID: e.CarriedFromInspectionID,
		})
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

type newDefectRequest struct {
	Description string `json:"description"`
	Location    string `json:"location"`
	Severity    string `json:"severity"`
}

type createRequest struct {
	VehicleID     string             `json:"vehicle_id"`
	InspectorID   string             `json:"inspector_id"`
	Type          string             `json:"type"`
	Odometer      *int64             `json:"odometer"`
	Checklist     []checklistItemDTO `json:"checklist"`
	NewDefects    []newDefectRequest `json:"new_defects"`
	SafeToOperate bool               `json:"safe_to_operate"`
}

func (h *HTTPServer) create(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	in := CreateInput{
		VehicleID:     req.VehicleID,
		InspectorID:   req.InspectorID,
		Type:          Type(strings.TrimSpace(req.Type)),
		Odometer:      req.Odometer,
		SafeToOperate: req.SafeToOperate,
	}
	for _, item := range req.Checklist {
		in.Checklist = append(in.Checklist, ChecklistItemInput{
			Category:  item.Category,
			Condition: item.Condition,
			Notes:     item.Notes,
		})
	}
	for _, nd := range req.NewDefects {
		in.NewDefects = append(in.NewDefects, NewDefectDescriptor{
			Description: nd.Description,
			Location:    nd.Location,
			Severity:    defect.Severity(strings.TrimSpace(nd.Severity)),
		})
	}

	rec, err := h.svc.CreateInspection(c.Request.Context(), actorFrom(c), in)
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusCreated, toRecordDTO(rec))
}

func (h *HTTPServer) get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordDTO(rec))
}

func (h *HTTPServer) list(c *gin.Context) {
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	records, total, err := h.svc.List(c.Request.Context(),
		c.Query("vehicle_id"), Status(c.Query("status")), offset, limit)
	if err != nil {
		writeErr(c, err)
		return
	}

	out := make([]RecordDTO, 0, len(records))
	for i := range records {
		out = append(out, toRecordDTO(&records[i]))
	}
	c.JSON(http.StatusOK, gin.H{"inspections": out, "total": total})
}

type reviewRequest struct {
	ReviewerID string `json:"reviewer_id"`
	Decision   string `json:"decision"` // reviewed / approved
	Notes      string `json:"notes"`
}

func (h *HTTPServer) review(c *gin.Context) {
	var req reviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	rec, err := h.svc.Review(c.Request.Context(), actorFrom(c), ReviewInput{
		InspectionID: c.Param("id"),
		ReviewerID:   req.ReviewerID,
		Decision:     Status(strings.TrimSpace(req.Decision)),
		Notes:        req.Notes,
	})
	if err != nil {
		writeErr(c, err)
		return
	}
	c.JSON(http.StatusOK, toRecordDTO(rec))
}
