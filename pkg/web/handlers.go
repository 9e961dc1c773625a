// Package web provides HTTP handlers and REST API endpoints for draft management.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/renoflow/renoflow/pkg/persistence"
	"github.com/renoflow/renoflow/pkg/registry"
	"github.com/renoflow/renoflow/pkg/services"
)

type APIHandlers struct {
	draftService *services.Drafts
	validator    *validator.Validate
	registry     *registry.Registry
}

func NewAPIHandlers(
	draftService *services.Drafts,
	validator *validator.Validate,
	registry *registry.Registry,
) *APIHandlers {
	return &APIHandlers{
		draftService: draftService,
		validator:    validator,
		registry:     registry,
	}
}

func (h *APIHandlers) GetDrafts(c fiber.Ctx) error {
	req, err := h.parseListDraftsRequest(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.draftService.List(c.Context(), *req)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(ListDraftsResponse{
		Items: result.Drafts,
		Total: result.TotalCount,
	})
}

// parseListDraftsRequest parses and validates query parameters for listing
// drafts. Callers paginate with page/pageSize; the service layer works in
// limit/offset.
func (h *APIHandlers) parseListDraftsRequest(c fiber.Ctx) (*services.ListDraftsRequest, error) {
	req := &services.ListDraftsRequest{}

	page := 1

	if pageStr := c.Query("page"); pageStr != "" {
		parsed, err := strconv.Atoi(pageStr)
		if err != nil {
			return nil, err
		}

		if parsed > 0 {
			page = parsed
		}
	}

	pageSize := 20

	if pageSizeStr := c.Query("pageSize"); pageSizeStr != "" {
		parsed, err := strconv.Atoi(pageSizeStr)
		if err != nil {
			return nil, err
		}

		if parsed > 0 {
			pageSize = parsed
		}
	}

	req.Limit = pageSize
	req.Offset = (page - 1) * pageSize

	req.ModuleCode = c.Query("module_code")
	req.ClientID = c.Query("client_id")

	if activeStr := c.Query("active"); activeStr != "" {
		active, err := strconv.ParseBool(activeStr)
		if err != nil {
			return nil, err
		}

		req.ActiveOnly = active
	}

	req.SortBy = c.Query("sort_by")
	req.SortOrder = c.Query("sort_order")

	return req, nil
}

func (h *APIHandlers) GetDraft(c fiber.Ctx) error {
	id := c.Params("id")

	if id == "" {
		return badRequest(c, "Draft ID is required")
	}

	draft, err := h.draftService.FetchByID(c.Context(), id)
	if err != nil {
		if persistence.IsDraftNotFound(err) {
			return notFound(c, "Draft not found")
		}

		return internalError(c, err)
	}

	return c.JSON(draft)
}

func (h *APIHandlers) CreateDraft(c fiber.Ctx) error {
	var req CreateDraftRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	created, err := h.draftService.Create(c.Context(), services.CreateDraftRequest{
		ModuleCode:  req.ModuleCode,
		ClientID:    req.ClientID,
		CurrentStep: req.CurrentStep,
		Data:        req.Data,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(created)
}

func (h *APIHandlers) UpdateDraft(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Draft ID is required")
	}

	var req UpdateDraftRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	updated, err := h.draftService.Update(c.Context(), id, services.UpdateDraftRequest{
		Data:        req.Data,
		CurrentStep: req.CurrentStep,
		ClientID:    req.ClientID,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(updated)
}

func (h *APIHandlers) ArchiveDraft(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Draft ID is required")
	}

	var req ArchiveDraftRequest
	if len(c.Body()) > 0 {
		if err := c.Bind().JSON(&req); err != nil {
			return badRequest(c, "Invalid JSON format")
		}
	}

	err := h.draftService.Archive(c.Context(), id, req.Reason)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) FinalizeDraft(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Draft ID is required")
	}

	folder, err := h.draftService.Finalize(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(folder)
}

func (h *APIHandlers) GetFolder(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Folder ID is required")
	}

	folder, err := h.draftService.FetchFolder(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(folder)
}

func (h *APIHandlers) GetModules(c fiber.Ctx) error {
	return c.JSON(h.registry.Modules())
}

func (h *APIHandlers) GetStepSchema(c fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return badRequest(c, "Module code is required")
	}

	step, err := strconv.Atoi(c.Params("step"))
	if err != nil || step < 1 {
		return badRequest(c, "Step must be a positive integer")
	}

	schema, err := h.registry.StepSchema(code, step)
	if err != nil {
		return notFound(c, "Module not found")
	}

	return c.JSON(StepSchemaResponse{
		ModuleCode: code,
		Step:       step,
		Schema:     schema,
	})
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	registryCheck, regOk := h.registry.HealthCheck()
	repositoryCheck, repOk := h.draftService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Renoflow API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if regOk && repOk {
		status = "healthy"
		message = "Renoflow API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"registry":   registryCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}
