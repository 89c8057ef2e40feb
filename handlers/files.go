package handlers

import (
	"fmt"
	"net/http"

	"report-logger/export"
	"report-logger/models"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ExportReports handles POST /export-reports-excel
func (h *Handlers) ExportReports(c *gin.Context) {
	var req models.ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	if len(req.ReportIDs) == 0 {
		badRequest(c, "reportIds must not be empty")
		return
	}

	reports, err := h.service.GetReportsByIDs(c.Request.Context(), req.ReportIDs)
	if err != nil {
		respondError(c, err, "export reports")
		return
	}
	if len(reports) == 0 {
		respondError(c, fmt.Errorf("reports %v: %w", req.ReportIDs, models.ErrNotFound), "export reports")
		return
	}

	data, err := export.ReportsWorkbook(reports)
	if err != nil {
		respondError(c, err, "export reports")
		return
	}

	filename := export.Filename(h.now())
	log.Infof("Exported %d report(s) to %s", len(reports), filename)
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// UploadImage handles POST /upload-image
func (h *Handlers) UploadImage(c *gin.Context) {
	file, err := c.FormFile("image")
	if err != nil {
		badRequest(c, "No file uploaded")
		return
	}
	resp, err := h.uploads.SaveUpload(file, h.now())
	if err != nil {
		respondError(c, err, "upload image")
		return
	}
	c.JSON(http.StatusCreated, resp)
}

// DeleteImage handles DELETE /delete-image/:filename
func (h *Handlers) DeleteImage(c *gin.Context) {
	if err := h.uploads.Delete(c.Param("filename")); err != nil {
		respondError(c, err, "delete image")
		return
	}
	c.Status(http.StatusNoContent)
}

// FileSizes handles GET /file-sizes
func (h *Handlers) FileSizes(c *gin.Context) {
	resp, err := h.uploads.List()
	if err != nil {
		respondError(c, err, "list files")
		return
	}
	c.JSON(http.StatusOK, resp)
}
