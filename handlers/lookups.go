package handlers

import (
	"net/http"

	"report-logger/models"

	"github.com/gin-gonic/gin"
)

func (h *Handlers) ListCategories(c *gin.Context) {
	categories, err := h.service.ListCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch categories")
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (h *Handlers) CreateCategory(c *gin.Context) {
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	category, err := h.service.CreateCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err, "create category")
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (h *Handlers) UpdateCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.CategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	category, err := h.service.UpdateCategory(c.Request.Context(), id, req.Name)
	if err != nil {
		respondError(c, err, "update category")
		return
	}
	c.JSON(http.StatusOK, category)
}

func (h *Handlers) ListIssues(c *gin.Context) {
	issues, err := h.service.ListIssues(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch issues")
		return
	}
	c.JSON(http.StatusOK, issues)
}

// IssuesByCategory handles GET /issues/category/:id and returns descriptions only.
func (h *Handlers) IssuesByCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	descriptions, err := h.service.IssuesByCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "fetch issues")
		return
	}
	c.JSON(http.StatusOK, descriptions)
}

func (h *Handlers) IssuesWithCategories(c *gin.Context) {
	issues, err := h.service.IssuesWithCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch issues")
		return
	}
	c.JSON(http.StatusOK, issues)
}

func (h *Handlers) CreateIssue(c *gin.Context) {
	var req models.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	issue, err := h.service.CreateIssue(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "create issue")
		return
	}
	c.JSON(http.StatusCreated, issue)
}

func (h *Handlers) UpdateIssue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.IssueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	issue, err := h.service.UpdateIssue(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "update issue")
		return
	}
	c.JSON(http.StatusOK, issue)
}

func (h *Handlers) DeleteIssue(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteIssue(c.Request.Context(), id); err != nil {
		respondError(c, err, "delete issue")
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handlers) ListSolutions(c *gin.Context) {
	solutions, err := h.service.ListSolutions(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch solutions")
		return
	}
	c.JSON(http.StatusOK, solutions)
}

func (h *Handlers) SolutionsByCategory(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	descriptions, err := h.service.SolutionsByCategory(c.Request.Context(), id)
	if err != nil {
		respondError(c, err, "fetch solutions")
		return
	}
	c.JSON(http.StatusOK, descriptions)
}

func (h *Handlers) SolutionsWithCategories(c *gin.Context) {
	solutions, err := h.service.SolutionsWithCategories(c.Request.Context())
	if err != nil {
		respondError(c, err, "fetch solutions")
		return
	}
	c.JSON(http.StatusOK, solutions)
}

func (h *Handlers) CreateSolution(c *gin.Context) {
	var req models.SolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	solution, err := h.service.CreateSolution(c.Request.Context(), req)
	if err != nil {
		respondError(c, err, "create solution")
		return
	}
	c.JSON(http.StatusCreated, solution)
}

func (h *Handlers) UpdateSolution(c *gin.Context) {
	id, ok := pathID(c, "id")
	if !ok {
		return
	}
	var req models.SolutionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	solution, err := h.service.UpdateSolution(c.Request.Context(), id, req)
	if err != nil {
		respondError(c, err, "update solution")
		return
	}
	c.JSON(http.StatusOK, solution)
}
