package handler

import (
	"context"

	contentapp "github.com/farmmarket/backend/internal/application/content"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ContentHandler handles farm blog posts and events, both the farmer's
// authoring endpoints and the public listings.
type ContentHandler struct {
	BaseHandler
	postService  *contentapp.PostService
	eventService *contentapp.EventService
}

// NewContentHandler creates a new ContentHandler
func NewContentHandler(postService *contentapp.PostService, eventService *contentapp.EventService) *ContentHandler {
	return &ContentHandler{
		postService:  postService,
		eventService: eventService,
	}
}

func (h *ContentHandler) post(c *gin.Context, action func(context.Context, uuid.UUID, uuid.UUID) (*contentapp.PostResponse, error)) {
	farmerID, postID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := action(c.Request.Context(), farmerID, postID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CreatePost godoc
// @ID           createFarmerPost
// @Summary      Write a blog post
// @Description  Posts start as drafts
// @Tags         farmer-content
// @Accept       json
// @Produce      json
// @Param        request body contentapp.CreatePostRequest true "Post"
// @Success      201 {object} APIResponse[contentapp.PostResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/posts [post]
func (h *ContentHandler) CreatePost(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req contentapp.CreatePostRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.postService.Create(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMyPosts godoc
// @ID           listFarmerPosts
// @Summary      List my posts
// @Tags         farmer-content
// @Produce      json
// @Param        status    query string false "Status filter" Enums(draft, published)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]contentapp.PostResponse]
// @Security     BearerAuth
// @Router       /farmer/posts [get]
func (h *ContentHandler) ListMyPosts(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req contentapp.ListPostsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.postService.ListMine(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// GetMyPost godoc
// @ID           getFarmerPost
// @Summary      Get my post
// @Tags         farmer-content
// @Produce      json
// @Param        id path string true "Post ID" format(uuid)
// @Success      200 {object} APIResponse[contentapp.PostResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/posts/{id} [get]
func (h *ContentHandler) GetMyPost(c *gin.Context) {
	h.post(c, h.postService.Get)
}

// UpdatePost godoc
// @ID           updateFarmerPost
// @Summary      Edit my post
// @Tags         farmer-content
// @Accept       json
// @Produce      json
// @Param        id      path string                       true "Post ID" format(uuid)
// @Param        request body contentapp.UpdatePostRequest true "Changes"
// @Success      200 {object} APIResponse[contentapp.PostResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/posts/{id} [put]
func (h *ContentHandler) UpdatePost(c *gin.Context) {
	farmerID, postID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req contentapp.UpdatePostRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.postService.Update(c.Request.Context(), farmerID, postID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// PublishPost godoc
// @ID           publishFarmerPost
// @Summary      Publish my post
// @Tags         farmer-content
// @Produce      json
// @Param        id path string true "Post ID" format(uuid)
// @Success      200 {object} APIResponse[contentapp.PostResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/posts/{id}/publish [post]
func (h *ContentHandler) PublishPost(c *gin.Context) {
	h.post(c, h.postService.Publish)
}

// UnpublishPost godoc
// @ID           unpublishFarmerPost
// @Summary      Unpublish my post
// @Tags         farmer-content
// @Produce      json
// @Param        id path string true "Post ID" format(uuid)
// @Success      200 {object} APIResponse[contentapp.PostResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/posts/{id}/unpublish [post]
func (h *ContentHandler) UnpublishPost(c *gin.Context) {
	h.post(c, h.postService.Unpublish)
}

// DeletePost godoc
// @ID           deleteFarmerPost
// @Summary      Delete my post
// @Tags         farmer-content
// @Param        id path string true "Post ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/posts/{id} [delete]
func (h *ContentHandler) DeletePost(c *gin.Context) {
	farmerID, postID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	if err := h.postService.Delete(c.Request.Context(), farmerID, postID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// CreateEvent godoc
// @ID           createFarmerEvent
// @Summary      Schedule a farm event
// @Tags         farmer-content
// @Accept       json
// @Produce      json
// @Param        request body contentapp.EventRequest true "Event"
// @Success      201 {object} APIResponse[contentapp.EventResponse]
// @Failure      400 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/events [post]
func (h *ContentHandler) CreateEvent(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req contentapp.EventRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.eventService.Create(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// ListMyEvents godoc
// @ID           listFarmerEvents
// @Summary      List my events
// @Tags         farmer-content
// @Produce      json
// @Param        status    query string false "Status filter" Enums(scheduled, cancelled)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]contentapp.EventResponse]
// @Security     BearerAuth
// @Router       /farmer/events [get]
func (h *ContentHandler) ListMyEvents(c *gin.Context) {
	farmerID, ok := h.userID(c)
	if !ok {
		return
	}
	var req contentapp.ListEventsRequest
	if !h.bindQuery(c, &req) {
		return
	}
	page, err := h.eventService.ListMine(c.Request.Context(), farmerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// GetMyEvent godoc
// @ID           getFarmerEvent
// @Summary      Get my event
// @Tags         farmer-content
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      200 {object} APIResponse[contentapp.EventResponse]
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/events/{id} [get]
func (h *ContentHandler) GetMyEvent(c *gin.Context) {
	farmerID, eventID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.eventService.Get(c.Request.Context(), farmerID, eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// UpdateEvent godoc
// @ID           updateFarmerEvent
// @Summary      Reschedule my event
// @Tags         farmer-content
// @Accept       json
// @Produce      json
// @Param        id      path string                  true "Event ID" format(uuid)
// @Param        request body contentapp.EventRequest true "Event"
// @Success      200 {object} APIResponse[contentapp.EventResponse]
// @Failure      404 {object} ErrorResponse
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/events/{id} [put]
func (h *ContentHandler) UpdateEvent(c *gin.Context) {
	farmerID, eventID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	var req contentapp.EventRequest
	if !h.bindJSON(c, &req) {
		return
	}
	resp, err := h.eventService.Update(c.Request.Context(), farmerID, eventID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// CancelEvent godoc
// @ID           cancelFarmerEvent
// @Summary      Cancel my event
// @Tags         farmer-content
// @Produce      json
// @Param        id path string true "Event ID" format(uuid)
// @Success      200 {object} APIResponse[contentapp.EventResponse]
// @Failure      422 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/events/{id}/cancel [post]
func (h *ContentHandler) CancelEvent(c *gin.Context) {
	farmerID, eventID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	resp, err := h.eventService.Cancel(c.Request.Context(), farmerID, eventID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// DeleteEvent godoc
// @ID           deleteFarmerEvent
// @Summary      Delete my event
// @Tags         farmer-content
// @Param        id path string true "Event ID" format(uuid)
// @Success      204
// @Failure      404 {object} ErrorResponse
// @Security     BearerAuth
// @Router       /farmer/events/{id} [delete]
func (h *ContentHandler) DeleteEvent(c *gin.Context) {
	farmerID, eventID, ok := h.userAndPathID(c, "id")
	if !ok {
		return
	}
	if err := h.eventService.Delete(c.Request.Context(), farmerID, eventID); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// ListPublishedPosts godoc
// @ID           listContentPosts
// @Summary      List published posts
// @Tags         content
// @Produce      json
// @Param        farmer_id query string false "Farmer ID" format(uuid)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]contentapp.PostResponse]
// @Router       /content/posts [get]
func (h *ContentHandler) ListPublishedPosts(c *gin.Context) {
	var req contentapp.ListPostsRequest
	if !h.bindQuery(c, &req) || !h.queryUUID(c, "farmer_id", &req.FarmerID) {
		return
	}
	page, err := h.postService.ListPublished(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}

// GetPublishedPost godoc
// @ID           getContentPost
// @Summary      Read a published post
// @Tags         content
// @Produce      json
// @Param        slug path string true "Post slug"
// @Success      200 {object} APIResponse[contentapp.PostResponse]
// @Failure      404 {object} ErrorResponse
// @Router       /content/posts/{slug} [get]
func (h *ContentHandler) GetPublishedPost(c *gin.Context) {
	resp, err := h.postService.GetPublished(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListUpcomingEvents godoc
// @ID           listContentEvents
// @Summary      List upcoming events
// @Tags         content
// @Produce      json
// @Param        farmer_id query string false "Farmer ID" format(uuid)
// @Param        page      query int    false "Page number" default(1)
// @Param        page_size query int    false "Page size" default(20)
// @Success      200 {object} APIResponse[[]contentapp.EventResponse]
// @Router       /content/events [get]
func (h *ContentHandler) ListUpcomingEvents(c *gin.Context) {
	var req contentapp.ListEventsRequest
	if !h.bindQuery(c, &req) || !h.queryUUID(c, "farmer_id", &req.FarmerID) {
		return
	}
	page, err := h.eventService.ListUpcoming(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	Paginated(c, page)
}
