package handler

import (
	"context"

	moderationapp "github.com/farmmarket/backend/internal/application/moderation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// DisputeHandler handles buyer disputes and their review by admins
type DisputeHandler struct {
	BaseHandler
	disputeService *moderationapp.DisputeService
}

// NewDisputeHandler creates a new DisputeHandler
func NewDisputeHandler(disputeService *moderationapp.DisputeService) *DisputeHandler {
	return &DisputeHandler{disputeService: disputeService}
}

func (h *DisputeHandler) listRequest(c *gin.Context) (moderationapp.ListDisputesRequest, bool) {
	var req moderationapp.ListDisputesRequest
	return req, h.bindQuery(c, &req)
}

func (h *DisputeHandler) close(c *gin.Context, action func(context.Context, uuid.UUID, uuid.UUID, moderationapp.CloseDisputeRequest) (*moderationapp.DisputeResponse, error)) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req moderationapp.CloseDisputeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := action(c.Request.Context(), adminID, id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Open godoc
// @ID           openOrderDispute
// @Summary      Open a dispute
// @Description  One open dispute per order. The farmer and the admins are notified.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        id      path string                           true "Order ID" format(uuid)
// @Param        request body moderationapp.OpenDisputeRequest true "Complaint"
// @Success      201 {object} APIResponse[moderationapp.DisputeResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      409 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /orders/{id}/disputes [post]
func (h *DisputeHandler) Open(c *gin.Context) {
	buyerID, orderID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req moderationapp.OpenDisputeRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.disputeService.Open(c.Request.Context(), buyerID, orderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMine godoc
// @ID           listBuyerDisputes
// @Summary      List my disputes
// @Tags         orders
// @Produce      json
// @Param        status    query string false "Status filter" Enums(open, under_review, resolved, rejected)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]moderationapp.DisputeResponse]
// @Security     BearerAuth
// @Router       /disputes [get]
func (h *DisputeHandler) ListMine(c *gin.Context) {
	buyerID, ok := h.userID(c)
	if !ok {
		return
	}
	req, ok := h.listRequest(c)
	if !ok {
		return
	}
	page, err := h.disputeService.ListMine(c.Request.Context(), buyerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// List godoc
// @ID           listAdminDisputes
// @Summary      List disputes
// @Tags         admin-disputes
// @Produce      json
// @Param        status    query string false "Status filter" Enums(open, under_review, resolved, rejected)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]moderationapp.DisputeResponse]
// @Security     BearerAuth
// @Router       /admin/disputes [get]
func (h *DisputeHandler) List(c *gin.Context) {
	req, ok := h.listRequest(c)
	if !ok {
		return
	}
	page, err := h.disputeService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @ID           getAdminDispute
// @Summary      Get a dispute
// @Tags         admin-disputes
// @Produce      json
// @Param        id path string true "Dispute ID" format(uuid)
// @Success      200 {object} APIResponse[moderationapp.DisputeResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/disputes/{id} [get]
func (h *DisputeHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	resp, err := h.disputeService.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Review godoc
// @ID           reviewAdminDispute
// @Summary      Start reviewing a dispute
// @Tags         admin-disputes
// @Produce      json
// @Param        id path string true "Dispute ID" format(uuid)
// @Success      200 {object} APIResponse[moderationapp.DisputeResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/disputes/{id}/review [post]
func (h *DisputeHandler) Review(c *gin.Context) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.disputeService.Review(c.Request.Context(), adminID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Resolve godoc
// @ID           resolveAdminDispute
// @Summary      Resolve a dispute
// @Description  Closes the dispute in the buyer's favour and notifies both parties
// @Tags         admin-disputes
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Dispute ID" format(uuid)
// @Param        request body moderationapp.CloseDisputeRequest true "Resolution"
// @Success      200 {object} APIResponse[moderationapp.DisputeResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/disputes/{id}/resolve [post]
func (h *DisputeHandler) Resolve(c *gin.Context) {
	h.close(c, h.disputeService.Resolve)
}

// Reject godoc
// @ID           rejectAdminDispute
// @Summary      Reject a dispute
// @Description  Closes the dispute without action and notifies both parties
// @Tags         admin-disputes
// @Accept       json
// @Produce      json
// @Param        id      path string                            true "Dispute ID" format(uuid)
// @Param        request body moderationapp.CloseDisputeRequest true "Resolution"
// @Success      200 {object} APIResponse[moderationapp.DisputeResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/disputes/{id}/reject [post]
func (h *DisputeHandler) Reject(c *gin.Context) {
	h.close(c, h.disputeService.Reject)
}

// MessageHandler handles user messaging and the admin moderation queue
type MessageHandler struct {
	BaseHandler
	messageService *moderationapp.MessageService
}

// NewMessageHandler creates a new MessageHandler
func NewMessageHandler(messageService *moderationapp.MessageService) *MessageHandler {
	return &MessageHandler{messageService: messageService}
}

func (h *MessageHandler) single(c *gin.Context, action func(context.Context, uuid.UUID, uuid.UUID) (*moderationapp.MessageResponse, error)) {
	userID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := action(c.Request.Context(), userID, id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Send godoc
// @ID           sendMessage
// @Summary      Send a message
// @Description  Support messages land in the admin queue. Direct messages need a recipient.
// @Tags         messages
// @Accept       json
// @Produce      json
// @Param        request body moderationapp.SendMessageRequest true "Message"
// @Success      201 {object} APIResponse[moderationapp.MessageResponse]
// @Failure      400 {object} ErrorResponse
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages [post]
func (h *MessageHandler) Send(c *gin.Context) {
	senderID, ok := h.userID(c)
	if !ok {
		return
	}
	var req moderationapp.SendMessageRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.messageService.Send(c.Request.Context(), senderID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// Inbox godoc
// @ID           listMessages
// @Summary      List my messages
// @Tags         messages
// @Produce      json
// @Param        box       query string false "Mailbox" Enums(inbox, sent) default(inbox)
// @Param        status    query string false "Status filter" Enums(unread, read, archived)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]moderationapp.MessageResponse]
// @Security     BearerAuth
// @Router       /messages [get]
func (h *MessageHandler) Inbox(c *gin.Context) {
	userID, ok := h.userID(c)
	if !ok {
		return
	}
	var req moderationapp.InboxRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.messageService.Inbox(c.Request.Context(), userID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Get godoc
// @ID           getMessage
// @Summary      Read a message
// @Tags         messages
// @Produce      json
// @Param        id path string true "Message ID" format(uuid)
// @Success      200 {object} APIResponse[moderationapp.MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id} [get]
func (h *MessageHandler) Get(c *gin.Context) {
	h.single(c, h.messageService.Get)
}

// MarkRead godoc
// @ID           markMessageRead
// @Summary      Mark a message read
// @Tags         messages
// @Produce      json
// @Param        id path string true "Message ID" format(uuid)
// @Success      200 {object} APIResponse[moderationapp.MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id}/read [post]
func (h *MessageHandler) MarkRead(c *gin.Context) {
	h.single(c, h.messageService.MarkRead)
}

// Archive godoc
// @ID           archiveMessage
// @Summary      Archive a message
// @Tags         messages
// @Produce      json
// @Param        id path string true "Message ID" format(uuid)
// @Success      200 {object} APIResponse[moderationapp.MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /messages/{id}/archive [post]
func (h *MessageHandler) Archive(c *gin.Context) {
	h.single(c, h.messageService.Archive)
}

// List godoc
// @ID           listAdminMessages
// @Summary      List all messages
// @Tags         admin-messages
// @Produce      json
// @Param        kind      query string  false "Kind filter" Enums(support, notification, direct)
// @Param        status    query string  false "Status filter" Enums(unread, read, archived)
// @Param        flagged   query boolean false "Flagged only"
// @Param        page      query int     false "Page number" default(1)
// @Param        page_size query int     false "Page size" default(20)
// @Success      200 {object} APIResponse[[]moderationapp.MessageResponse]
// @Security     BearerAuth
// @Router       /admin/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	var req moderationapp.ListMessagesRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.messageService.List(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// Flag godoc
// @ID           flagAdminMessage
// @Summary      Flag a message
// @Tags         admin-messages
// @Produce      json
// @Param        id path string true "Message ID" format(uuid)
// @Success      200 {object} APIResponse[moderationapp.MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/messages/{id}/flag [post]
func (h *MessageHandler) Flag(c *gin.Context) {
	h.single(c, h.messageService.Flag)
}

// Unflag godoc
// @ID           unflagAdminMessage
// @Summary      Clear a message flag
// @Tags         admin-messages
// @Produce      json
// @Param        id path string true "Message ID" format(uuid)
// @Success      200 {object} APIResponse[moderationapp.MessageResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/messages/{id}/unflag [post]
func (h *MessageHandler) Unflag(c *gin.Context) {
	h.single(c, h.messageService.Unflag)
}

// Delete godoc
// @ID           deleteAdminMessage
// @Summary      Delete a message
// @Tags         admin-messages
// @Param        id path string true "Message ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /admin/messages/{id} [delete]
func (h *MessageHandler) Delete(c *gin.Context) {
	adminID, id, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	if err := h.messageService.Delete(c.Request.Context(), adminID, id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}
