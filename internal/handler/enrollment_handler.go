package handler

import (
	"encoding/json"
	"mime/multipart"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/almanara-academy/courses-api/internal/service"
	appErrors "github.com/almanara-academy/courses-api/pkg/errors"
	"github.com/almanara-academy/courses-api/pkg/response"
)

// EnrollmentHandler exposes the enrollment request endpoints. POST is
// dual-mode to match the public site and the dashboard: an `action` field
// selects the admin transition, anything else is a student submission
// (JSON or multipart with a receipt file).
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollment requests, newest first
// @Tags Enrollments
// @Produce json
// @Param status query string false "Filter by lifecycle status"
// @Success 200 {object} response.Envelope
// @Router /enrollments [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	requests, served, err := h.enrollments.List(c.Request.Context(), c.Query("status"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم جلب طلبات التسجيل بنجاح", requests, tierMeta(served))
}

type enrollmentAction struct {
	Action         string `json:"action"`
	ID             int64  `json:"id"`
	Status         string `json:"status"`
	AdditionalData struct {
		Notes          string `json:"notes"`
		WelcomeMessage string `json:"welcome_message"`
		ContactLink    string `json:"contact_link"`
	} `json:"additionalData"`
}

// Submit godoc
// @Summary Submit an enrollment or apply an admin transition
// @Tags Enrollments
// @Accept json
// @Accept mpfd
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /enrollments [post]
func (h *EnrollmentHandler) Submit(c *gin.Context) {
	contentType := c.ContentType()
	if strings.HasPrefix(contentType, "multipart/form-data") {
		h.submitMultipart(c)
		return
	}

	body, err := c.GetRawData()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "البيانات المرسلة غير صالحة"))
		return
	}

	var action enrollmentAction
	if err := json.Unmarshal(body, &action); err == nil && action.Action == "update_status" {
		request, served, err := h.enrollments.UpdateStatus(c.Request.Context(), service.UpdateEnrollmentStatusRequest{
			ID:             action.ID,
			Status:         action.Status,
			Notes:          action.AdditionalData.Notes,
			WelcomeMessage: action.AdditionalData.WelcomeMessage,
			ContactLink:    action.AdditionalData.ContactLink,
		})
		if err != nil {
			response.Error(c, err)
			return
		}
		response.OK(c, "تم تحديث حالة الطلب بنجاح", request, tierMeta(served))
		return
	}

	var req service.SubmitEnrollmentRequest
	if err := json.Unmarshal(body, &req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "البيانات المرسلة غير صالحة"))
		return
	}
	h.submit(c, req, nil)
}

func (h *EnrollmentHandler) submitMultipart(c *gin.Context) {
	req := service.SubmitEnrollmentRequest{
		StudentName:   c.PostForm("student_name"),
		Email:         c.PostForm("email"),
		Phone:         c.PostForm("phone"),
		CourseID:      c.PostForm("course_id"),
		CourseName:    c.PostForm("course_name"),
		PaymentMethod: c.PostForm("payment_method"),
		Amount:        c.PostForm("amount"),
		TransactionID: c.PostForm("transaction_id"),
	}
	if notes := c.PostForm("notes"); notes != "" {
		req.Notes = notes
	}
	var receipt *multipart.FileHeader
	if file, err := c.FormFile("receipt"); err == nil {
		receipt = file
	}
	h.submit(c, req, receipt)
}

func (h *EnrollmentHandler) submit(c *gin.Context, req service.SubmitEnrollmentRequest, receipt *multipart.FileHeader) {
	request, served, err := h.enrollments.Submit(c.Request.Context(), req, receipt)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم استلام طلب التسجيل بنجاح", request, tierMeta(served))
}

// Delete godoc
// @Summary Delete an enrollment request from every tier
// @Tags Enrollments
// @Produce json
// @Param id query int true "Request ID"
// @Success 200 {object} response.Envelope
// @Router /enrollments [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	id, err := parseID(c.Query("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	served, err := h.enrollments.Delete(c.Request.Context(), id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, "تم حذف طلب التسجيل بنجاح", nil, tierMeta(served))
}
