package handler

import (
	"net/http"

	"tussles/internal/middleware"
	"tussles/internal/service"
	"tussles/pkg/response"

	"github.com/gin-gonic/gin"
)

type CompanyHandler struct {
	companyService service.CompanyService
}

func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

func (h *CompanyHandler) RegisterRoutes(router *gin.RouterGroup) {
	companies := router.Group("/companies")
	{
		companies.GET("", h.ListCompanies)
		companies.POST("", h.CreateCompany)
	}
}

// ListCompanies returns all companies alphabetically
// @Summary      List companies
// @Tags         companies
// @Security     BearerAuth
// @Produce      json
// @Success      200  {object}  response.Response{data=[]model.Company}
// @Router       /api/companies [get]
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	companies, err := h.companyService.ListCompanies(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, response.Success(companies))
}

// CreateCompany creates a company or returns the one with the same name
// @Summary      Create a company
// @Description  Names are unique ignoring case. An existing match is returned with 200 instead of 201.
// @Tags         companies
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        payload  body      service.CreateCompanyRequest  true  "Company"
// @Success      200      {object}  response.Response{data=model.Company}
// @Success      201      {object}  response.Response{data=model.Company}
// @Failure      400      {object}  response.Response
// @Router       /api/companies [post]
func (h *CompanyHandler) CreateCompany(c *gin.Context) {
	var req service.CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, bindError(err))
		return
	}

	company, created, err := h.companyService.CreateCompany(c.Request.Context(), middleware.CurrentUser(c), req)
	if err != nil {
		respondError(c, err)
		return
	}

	if !created {
		c.JSON(http.StatusOK, response.SuccessMessage("Company already exists", company))
		return
	}
	c.JSON(http.StatusCreated, response.SuccessMessage("Company created", company))
}
