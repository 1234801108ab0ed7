package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/middleware"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/service"
)

type OrderHandler struct {
	svc service.OrderService
}

func NewOrderHandler(svc service.OrderService) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type OrderResponse struct {
	ID                      uint64  `json:"id"`
	ListingID               uint64  `json:"listingId"`
	BuyerUID                string  `json:"buyerUid"`
	SellerUID               string  `json:"sellerUid"`
	Amount                  float64 `json:"amount"`
	Status                  string  `json:"status"`
	BuyerPaymentConfirmed   bool    `json:"buyerPaymentConfirmed"`
	BuyerPaymentConfirmedAt *string `json:"buyerPaymentConfirmedAt,omitempty"`
	SellerPaymentReceived   bool    `json:"sellerPaymentReceived"`
	SellerPaymentReceivedAt *string `json:"sellerPaymentReceivedAt,omitempty"`
	CancelledBy             string  `json:"cancelledBy,omitempty"`
	CancellationReason      string  `json:"cancellationReason,omitempty"`
	BuyerReviewID           *uint64 `json:"buyerReviewId,omitempty"`
	SellerReviewID          *uint64 `json:"sellerReviewId,omitempty"`
	CreatedAt               string  `json:"createdAt"`
	UpdatedAt               string  `json:"updatedAt"`
	ClosedAt                *string `json:"closedAt,omitempty"`
	CancelledAt             *string `json:"cancelledAt,omitempty"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	val := t.Format(time.RFC3339)
	return &val
}

func toOrderResponse(o *model.Order) OrderResponse {
	return OrderResponse{
		ID:                      o.ID,
		ListingID:               o.ListingID,
		BuyerUID:                o.BuyerUID,
		SellerUID:               o.SellerUID,
		Amount:                  o.Amount,
		Status:                  string(o.Status),
		BuyerPaymentConfirmed:   o.BuyerPaymentConfirmed,
		BuyerPaymentConfirmedAt: formatTimePtr(o.BuyerPaymentConfirmedAt),
		SellerPaymentReceived:   o.SellerPaymentReceived,
		SellerPaymentReceivedAt: formatTimePtr(o.SellerPaymentReceivedAt),
		CancelledBy:             string(o.CancelledBy),
		CancellationReason:      o.CancellationReason,
		BuyerReviewID:           o.BuyerReviewID,
		SellerReviewID:          o.SellerReviewID,
		CreatedAt:               o.CreatedAt.Format(time.RFC3339),
		UpdatedAt:               o.UpdatedAt.Format(time.RFC3339),
		ClosedAt:                formatTimePtr(o.ClosedAt),
		CancelledAt:             formatTimePtr(o.CancelledAt),
	}
}

func (h *OrderHandler) BuyNow(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	listingID, err := parseID(c, "listingId")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	order, err := h.svc.Purchase(c.Request().Context(), actor, listingID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

func (h *OrderHandler) Cancel(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	var req CancelOrderRequest
	_ = c.Bind(&req)
	order, err := h.svc.Cancel(c.Request().Context(), actor, orderID, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) ConfirmPayment(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	order, err := h.svc.ConfirmPayment(c.Request().Context(), actor, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

func (h *OrderHandler) ConfirmReceived(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	order, err := h.svc.ConfirmReceived(c.Request().Context(), actor, orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toOrderResponse(order))
}

type PartyInfoResponse struct {
	UID      string `json:"uid"`
	FullName string `json:"fullName"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
}

type OrderDetailResponse struct {
	Order       OrderResponse     `json:"order"`
	Listing     *ListingResponse  `json:"listing"`
	Buyer       PartyInfoResponse `json:"buyer"`
	Seller      PartyInfoResponse `json:"seller"`
	PaymentInfo PaymentInfoDTO    `json:"paymentInfo"`
	IsBuyer     bool              `json:"isBuyer"`
	IsSeller    bool              `json:"isSeller"`
}

func toPartyInfoResponse(p service.PartyInfo) PartyInfoResponse {
	return PartyInfoResponse{UID: p.UID, FullName: p.FullName, Email: p.Email, Phone: p.Phone}
}

func (h *OrderHandler) GetDetail(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	orderID, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid order id"))
	}
	detail, err := h.svc.GetDetail(c.Request().Context(), actor, orderID)
	if err != nil {
		return respondError(c, err)
	}
	resp := OrderDetailResponse{
		Order:       toOrderResponse(detail.Order),
		Buyer:       toPartyInfoResponse(detail.Buyer),
		Seller:      toPartyInfoResponse(detail.Seller),
		PaymentInfo: toPaymentInfoDTO(detail.Payment),
		IsBuyer:     detail.IsBuyer,
		IsSeller:    detail.IsSeller,
	}
	if detail.Listing != nil {
		lr := toListingResponse(detail.Listing)
		resp.Listing = &lr
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *OrderHandler) ListMine(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	orders, err := h.svc.ListMine(c.Request().Context(), actor)
	if err != nil {
		return respondError(c, err)
	}
	resp := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		resp = append(resp, toOrderResponse(&orders[i]))
	}
	return c.JSON(http.StatusOK, resp)
}
