package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/middleware"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/service"
)

type ReviewHandler struct {
	svc service.ReviewService
}

func NewReviewHandler(svc service.ReviewService) *ReviewHandler {
	return &ReviewHandler{svc: svc}
}

type ReviewResponse struct {
	ID          uint64 `json:"id"`
	OrderID     uint64 `json:"orderId"`
	ReviewerUID string `json:"reviewerUid"`
	RevieweeUID string `json:"revieweeUid"`
	Rating      int    `json:"rating"`
	Comment     string `json:"comment"`
	EditCount   int    `json:"editCount"`
	CreatedAt   string `json:"createdAt"`
	UpdatedAt   string `json:"updatedAt"`
}

func toReviewResponse(r *model.Review) ReviewResponse {
	return ReviewResponse{
		ID:          r.ID,
		OrderID:     r.OrderID,
		ReviewerUID: r.ReviewerUID,
		RevieweeUID: r.RevieweeUID,
		Rating:      r.Rating,
		Comment:     r.Comment,
		EditCount:   r.EditCount,
		CreatedAt:   r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   r.UpdatedAt.Format(time.RFC3339),
	}
}

type CreateReviewRequest struct {
	OrderID uint64 `json:"orderId"`
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) Create(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	var req CreateReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	review, err := h.svc.Create(c.Request().Context(), actor, service.CreateReviewInput{
		OrderID: req.OrderID,
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		// A missing order is the caller's bad reference, not a missing
		// review resource.
		if errors.Is(err, service.ErrNotFound) {
			return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", err.Error()))
		}
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResponse(review))
}

type EditReviewRequest struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (h *ReviewHandler) Update(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid review id"))
	}
	var req EditReviewRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	review, err := h.svc.Edit(c.Request().Context(), actor, id, service.EditReviewInput{
		Rating:  req.Rating,
		Comment: req.Comment,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResponse(review))
}

func (h *ReviewHandler) Delete(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid review id"))
	}
	if err := h.svc.Delete(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ReviewHandler) Get(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid review id"))
	}
	review, err := h.svc.Get(c.Request().Context(), actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toReviewResponse(review))
}

// ListForUser is the public ratings view: no auth, no comment redaction.
func (h *ReviewHandler) ListForUser(c echo.Context) error {
	uid := c.Param("uid")
	if uid == "" {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid user id"))
	}
	reviews, err := h.svc.ListForReviewee(c.Request().Context(), uid)
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]ReviewResponse, 0, len(reviews))
	for i := range reviews {
		resp = append(resp, toReviewResponse(&reviews[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
