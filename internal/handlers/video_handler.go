package handlers

import (
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/dto"
	"github.com/ahmetcoskunkizilkaya/ytpulse/internal/services"
	"github.com/gofiber/fiber/v2"
)

type VideoHandler struct {
	videoService   *services.VideoService
	commentService *services.CommentService
}

func NewVideoHandler(videoService *services.VideoService, commentService *services.CommentService) *VideoHandler {
	return &VideoHandler{videoService: videoService, commentService: commentService}
}

// List serves /channels/:id/videos?sort=views|likes|published|engagement.
func (h *VideoHandler) List(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	channelID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	videos, total, err := h.videoService.List(userID, channelID, c.Query("sort"), page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list videos")
	}
	return paged(c, videos, total, page, limit)
}

func (h *VideoHandler) Create(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	channelID, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	v, err := h.videoService.Create(userID, channelID, &req)
	if err != nil {
		return serviceError(c, err, "Failed to create video")
	}
	return created(c, v)
}

func (h *VideoHandler) Get(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	v, err := h.videoService.Get(userID, id)
	if err != nil {
		return serviceError(c, err, "Failed to load video")
	}
	return ok(c, v)
}

func (h *VideoHandler) Update(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.UpdateVideoRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	v, err := h.videoService.Update(userID, id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to update video")
	}
	return ok(c, v)
}

func (h *VideoHandler) Delete(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.videoService.Delete(userID, id); err != nil {
		return serviceError(c, err, "Failed to delete video")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Comments serves /videos/:id/comments?class=spam|toxic|question|clean.
func (h *VideoHandler) Comments(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	page, limit := pageParams(c)
	comments, total, err := h.commentService.List(userID, id, c.Query("class"), page, limit)
	if err != nil {
		return serviceError(c, err, "Failed to list comments")
	}
	return paged(c, comments, total, page, limit)
}

func (h *VideoHandler) AddComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return badBody(c)
	}
	comment, err := h.commentService.Create(userID, id, &req)
	if err != nil {
		return serviceError(c, err, "Failed to create comment")
	}
	return created(c, comment)
}

func (h *VideoHandler) DeleteComment(c *fiber.Ctx) error {
	userID, err := currentUser(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}
	if err := h.commentService.Delete(userID, id); err != nil {
		return serviceError(c, err, "Failed to delete comment")
	}
	return c.SendStatus(fiber.StatusNoContent)
}
