package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/middleware"
	"github.com/nmbt2910/iheartev/internal/service"
)

type FavoriteHandler struct {
	svc service.FavoriteService
}

func NewFavoriteHandler(svc service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{svc: svc}
}

type FavoriteStatusResponse struct {
	ListingID  uint64  `json:"listingId"`
	IsFavorite bool    `json:"isFavorite"`
	FavoriteID *uint64 `json:"favoriteId,omitempty"`
}

func (h *FavoriteHandler) Add(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	id, err := parseID(c, "listingId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	if err := h.svc.Add(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}
	status, err := h.svc.Check(c.Request().Context(), &actor, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, FavoriteStatusResponse{
		ListingID:  id,
		IsFavorite: status.IsFavorite,
		FavoriteID: status.FavoriteID,
	})
}

func (h *FavoriteHandler) Remove(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	id, err := parseID(c, "listingId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	if err := h.svc.Remove(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *FavoriteHandler) Check(c echo.Context) error {
	id, err := parseID(c, "listingId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	status, err := h.svc.Check(c.Request().Context(), middleware.OptionalActorFrom(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, FavoriteStatusResponse{
		ListingID:  id,
		IsFavorite: status.IsFavorite,
		FavoriteID: status.FavoriteID,
	})
}
