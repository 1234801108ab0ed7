package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/service"
)

// AdminHandler exposes the moderation surface. Role gating happens in the
// RequireAdmin middleware; handlers only translate between HTTP and the
// service.
type AdminHandler struct {
	svc service.ListingService
}

func NewAdminHandler(svc service.ListingService) *AdminHandler {
	return &AdminHandler{svc: svc}
}

func (h *AdminHandler) Approve(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	listing, err := h.svc.Approve(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *AdminHandler) Reject(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	listing, err := h.svc.Reject(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *AdminHandler) Verify(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	listing, err := h.svc.Verify(c.Request().Context(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *AdminHandler) ListPending(c echo.Context) error {
	listings, err := h.svc.ListPending(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	items := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		items = append(items, toListingResponse(&listings[i]))
	}
	return c.JSON(http.StatusOK, items)
}

type SummaryResponse struct {
	ApprovedListings int64 `json:"approvedListings"`
	PendingListings  int64 `json:"pendingListings"`
	RejectedListings int64 `json:"rejectedListings"`
	SoldListings     int64 `json:"soldListings"`
}

func (h *AdminHandler) Summary(c echo.Context) error {
	sum, err := h.svc.Summary(c.Request().Context())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, SummaryResponse{
		ApprovedListings: sum.Approved,
		PendingListings:  sum.Pending,
		RejectedListings: sum.Rejected,
		SoldListings:     sum.Sold,
	})
}
