package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"dataridge/internal/model"
	"dataridge/internal/service"
)

// CompanyHandler handles company endpoints.
type CompanyHandler struct {
	companyService service.CompanyService
}

// NewCompanyHandler creates a new company handler.
func NewCompanyHandler(companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{companyService: companyService}
}

// CreateCompanyRequest represents a company creation request.
type CreateCompanyRequest struct {
	Name         string  `json:"name" validate:"required,max=255"`
	ContactEmail string  `json:"contact_email" validate:"required,email,max=255"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=50"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
}

// UpdateCompanyRequest is a partial update; omitted fields are unchanged.
type UpdateCompanyRequest struct {
	Name         *string `json:"name" validate:"omitempty,max=255"`
	ContactEmail *string `json:"contact_email" validate:"omitempty,email,max=255"`
	ContactPhone *string `json:"contact_phone" validate:"omitempty,max=50"`
	Address      *string `json:"address" validate:"omitempty,max=500"`
}

// CreateCompany godoc
// @Summary Create a company owned by the caller
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body CreateCompanyRequest true "Company data"
// @Success 201 {object} model.Company
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /companies [post]
func (h *CompanyHandler) CreateCompany(c echo.Context) error {
	ownerID, err := requesterID(c)
	if err != nil {
		return err
	}

	var req CreateCompanyRequest
	if err := bindAndValidate(c, &req, ""); err != nil {
		return err
	}

	company, err := h.companyService.CreateCompany(c.Request().Context(), model.CompanyInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
	}, ownerID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, company)
}

// ListCompanies godoc
// @Summary List the caller's companies
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Success 200 {array} model.Company
// @Failure 401 {object} errors.ErrorResponse
// @Failure 500 {object} errors.ErrorResponse
// @Router /companies [get]
func (h *CompanyHandler) ListCompanies(c echo.Context) error {
	ownerID, err := requesterID(c)
	if err != nil {
		return err
	}

	companies, err := h.companyService.ListCompanies(c.Request().Context(), ownerID)
	if err != nil {
		return err
	}
	if companies == nil {
		companies = []model.Company{}
	}
	return c.JSON(http.StatusOK, companies)
}

// GetCompany godoc
// @Summary Get a company by id
// @Tags companies
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 200 {object} model.Company
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /companies/{id} [get]
func (h *CompanyHandler) GetCompany(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	company, err := h.companyService.GetCompanyByID(c.Request().Context(), id, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

// UpdateCompany godoc
// @Summary Partially update a company
// @Tags companies
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Param request body UpdateCompanyRequest true "Fields to change"
// @Success 200 {object} model.Company
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Router /companies/{id} [patch]
func (h *CompanyHandler) UpdateCompany(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	var req UpdateCompanyRequest
	if err := bindAndValidate(c, &req, ""); err != nil {
		return err
	}

	company, err := h.companyService.UpdateCompany(c.Request().Context(), id, model.CompanyPatch{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		ContactPhone: req.ContactPhone,
		Address:      req.Address,
	}, userID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, company)
}

// DeleteCompany godoc
// @Summary Delete a company
// @Tags companies
// @Security BearerAuth
// @Param id path string true "Company ID"
// @Success 204
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /companies/{id} [delete]
func (h *CompanyHandler) DeleteCompany(c echo.Context) error {
	userID, err := requesterID(c)
	if err != nil {
		return err
	}
	id, err := pathID(c)
	if err != nil {
		return err
	}

	if err := h.companyService.DeleteCompany(c.Request().Context(), id, userID); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
