package handlers

import (
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"report-logger/database"
	"report-logger/models"
	"report-logger/rabbitmq"

	"github.com/gin-gonic/gin"
)

// maxMultipartMemory bounds the form parts kept in memory; the rest spills to disk.
const maxMultipartMemory = 32 << 20

// ListReports handles GET /reports
func (h *Handlers) ListReports(c *gin.Context) {
	filter, err := database.ParseReportFilter(c.Request.URL.Query())
	if err != nil {
		respondError(c, err, "fetch reports")
		return
	}
	reports, err := h.service.ListReports(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err, "fetch reports")
		return
	}
	c.JSON(http.StatusOK, reports)
}

// GetReport handles GET /reports/:id
func (h *Handlers) GetReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	report, err := h.service.GetReport(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "fetch report")
		return
	}
	c.JSON(http.StatusOK, report)
}

// CreateReport handles POST /reports, as JSON or multipart with picture files.
func (h *Handlers) CreateReport(c *gin.Context) {
	req, files, err := bindReport(c)
	if err != nil {
		respondError(c, err, "create report")
		return
	}
	report, err := h.service.CreateReport(c.Request.Context(), req, files)
	if err != nil {
		respondError(c, err, "create report")
		return
	}
	h.publish(rabbitmq.ReportCreated, report.ID)
	c.JSON(http.StatusCreated, report)
}

// UpdateReport handles PUT /reports/:id
func (h *Handlers) UpdateReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	req, files, err := bindReport(c)
	if err != nil {
		respondError(c, err, "update report")
		return
	}
	report, err := h.service.UpdateReport(c.Request.Context(), id, req, files)
	if err != nil {
		respondError(c, err, "update report")
		return
	}
	h.publish(rabbitmq.ReportUpdated, id)
	c.JSON(http.StatusOK, report)
}

// DeleteReport handles DELETE /reports/:id
func (h *Handlers) DeleteReport(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteReport(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete report")
		return
	}
	h.publish(rabbitmq.ReportDeleted, id)
	c.Status(http.StatusNoContent)
}

// DeletePicture handles DELETE /reports/:id/pictures/:slot?path=
func (h *Handlers) DeletePicture(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	path := c.Query("path")
	if path == "" {
		badRequest(c, "path is required")
		return
	}
	report, err := h.service.DeletePicture(c.Request.Context(), id, c.Param("slot"), path)
	if err != nil {
		respondError(c, err, "delete picture")
		return
	}
	h.publish(rabbitmq.ReportPictureDeleted, id)
	c.JSON(http.StatusOK, report)
}

// bindReport reads a report from a JSON body or from multipart form fields,
// in which case files holds the uploaded picture per slot.
func bindReport(c *gin.Context) (models.ReportRequest, map[string]*multipart.FileHeader, error) {
	var req models.ReportRequest
	if !strings.HasPrefix(c.ContentType(), gin.MIMEMultipartPOSTForm) {
		if err := c.ShouldBindJSON(&req); err != nil {
			return req, nil, models.NewValidationError("invalid request body")
		}
		return req, nil, nil
	}

	form, err := c.MultipartForm()
	if err != nil {
		return req, nil, models.NewValidationError("invalid multipart form")
	}
	if req.CategoryID, err = formID(form, "category_id"); err != nil {
		return req, nil, err
	}
	if req.IssueID, err = formID(form, "issue_id"); err != nil {
		return req, nil, err
	}
	if req.SolutionID, err = formID(form, "solution_id"); err != nil {
		return req, nil, err
	}
	req.Notes = formString(form, "notes")
	req.EscalateName = formString(form, "escalate_name")
	if v := formString(form, "status"); v != nil {
		req.Status = *v
	}
	if v := formString(form, "priority"); v != nil {
		req.Priority = *v
	}

	files := map[string]*multipart.FileHeader{}
	for name, headers := range form.File {
		if !models.IsPictureSlot(name) {
			return req, nil, models.NewValidationError("unknown picture slot %q", name)
		}
		if len(headers) > 0 {
			files[name] = headers[0]
		}
	}
	return req, files, nil
}

func formString(form *multipart.Form, key string) *string {
	values := form.Value[key]
	if len(values) == 0 {
		return nil
	}
	v := values[0]
	return &v
}

// formID treats a missing or blank field as absent.
func formID(form *multipart.Form, key string) (*int64, error) {
	v := formString(form, key)
	if v == nil || strings.TrimSpace(*v) == "" {
		return nil, nil
	}
	id, err := strconv.ParseInt(strings.TrimSpace(*v), 10, 64)
	if err != nil {
		return nil, models.NewValidationError("%s must be an integer", key)
	}
	return &id, nil
}
