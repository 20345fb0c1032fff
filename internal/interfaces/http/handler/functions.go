package handler

import (
	"context"

	functionsapp "github.com/farmmarket/backend/internal/application/functions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FunctionHandler starts backend functions and reports on their jobs.
// Functions run on the worker pool, so starting one answers 202 with the job.
type FunctionHandler struct {
	BaseHandler
	functionService *functionsapp.FunctionService
}

// NewFunctionHandler creates a new FunctionHandler
func NewFunctionHandler(functionService *functionsapp.FunctionService) *FunctionHandler {
	return &FunctionHandler{functionService: functionService}
}

func (h *FunctionHandler) start(c *gin.Context, request func(context.Context, uuid.UUID) (*functionsapp.JobResponse, error)) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	resp, err := request(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, resp)
}

// DataExport godoc
// @ID           requestDataExport
// @Summary      Export my data
// @Description  Builds a JSON document of the caller's profile, orders, messages and farm content
// @Tags         functions
// @Produce      json
// @Success      202 {object} APIResponse[functionsapp.JobResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /functions/data-export [post]
func (h *FunctionHandler) DataExport(c *gin.Context) {
	h.start(c, h.functionService.RequestDataExport)
}

// InventoryExport godoc
// @ID           requestInventoryExport
// @Summary      Export my inventory
// @Description  Builds a CSV of the farmer's stock levels and movement ledger
// @Tags         functions
// @Produce      json
// @Success      202 {object} APIResponse[functionsapp.JobResponse]
// @Failure      403 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /functions/inventory-export [post]
func (h *FunctionHandler) InventoryExport(c *gin.Context) {
	h.start(c, h.functionService.RequestInventoryExport)
}

// AccountDeletion godoc
// @ID           requestAccountDeletion
// @Summary      Delete my account
// @Description  Archives the caller's products, cancels the subscription, revokes sessions and anonymizes the account
// @Tags         functions
// @Accept       json
// @Produce      json
// @Param        request body functionsapp.AccountDeletionRequest true "Current password"
// @Success      202 {object} APIResponse[functionsapp.JobResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /functions/account-deletion [post]
func (h *FunctionHandler) AccountDeletion(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req functionsapp.AccountDeletionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.functionService.RequestAccountDeletion(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Accepted(c, resp)
}

// ListJobs godoc
// @ID           listFunctionJobs
// @Summary      List my jobs
// @Tags         functions
// @Produce      json
// @Success      200 {object} APIResponse[[]functionsapp.JobResponse]
// @Security     BearerAuth
// @Router       /functions/jobs [get]
func (h *FunctionHandler) ListJobs(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	jobs, err := h.functionService.ListJobs(c.Request.Context(), userID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, jobs)
}

// GetJob godoc
// @ID           getFunctionJob
// @Summary      Get a job
// @Description  Finished exports carry a short lived download URL
// @Tags         functions
// @Produce      json
// @Param        id path string true "Job ID" format(uuid)
// @Success      200 {object} APIResponse[functionsapp.JobResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /functions/jobs/{id} [get]
func (h *FunctionHandler) GetJob(c *gin.Context) {
	userID, jobID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.functionService.GetJob(c.Request.Context(), userID, jobID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
