package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/nmbt2910/iheartev/internal/middleware"
	"github.com/nmbt2910/iheartev/internal/model"
	"github.com/nmbt2910/iheartev/internal/repository"
	"github.com/nmbt2910/iheartev/internal/service"
)

type ListingHandler struct {
	svc service.ListingService
}

func NewListingHandler(svc service.ListingService) *ListingHandler {
	return &ListingHandler{svc: svc}
}

type PaymentInfoDTO struct {
	Method          string   `json:"paymentMethod"`
	AccountHolder   string   `json:"accountHolder,omitempty"`
	BankCode        string   `json:"bankCode,omitempty"`
	BankName        string   `json:"bankName,omitempty"`
	AccountNumber   string   `json:"accountNumber,omitempty"`
	Amount          *float64 `json:"amount,omitempty"`
	TransactionMemo string   `json:"transactionMemo,omitempty"`
}

func (d PaymentInfoDTO) toModel() model.PaymentInfo {
	return model.PaymentInfo{
		Method:          model.PaymentMethod(d.Method),
		AccountHolder:   d.AccountHolder,
		BankCode:        d.BankCode,
		BankName:        d.BankName,
		AccountNumber:   d.AccountNumber,
		Amount:          d.Amount,
		TransactionMemo: d.TransactionMemo,
	}
}

func toPaymentInfoDTO(p model.PaymentInfo) PaymentInfoDTO {
	return PaymentInfoDTO{
		Method:          string(p.Method),
		AccountHolder:   p.AccountHolder,
		BankCode:        p.BankCode,
		BankName:        p.BankName,
		AccountNumber:   p.AccountNumber,
		Amount:          p.Amount,
		TransactionMemo: p.TransactionMemo,
	}
}

type ListingResponse struct {
	ID                   uint64         `json:"id"`
	Type                 string         `json:"type"`
	Brand                string         `json:"brand"`
	Model                string         `json:"model"`
	Year                 int            `json:"year"`
	MileageKm            *int           `json:"mileageKm,omitempty"`
	BatteryCapacityKWh   *int           `json:"batteryCapacityKWh,omitempty"`
	ConditionLabel       string         `json:"conditionLabel,omitempty"`
	Description          string         `json:"description"`
	Price                float64        `json:"price"`
	Status               string         `json:"status"`
	SellerUID            string         `json:"sellerUid"`
	EditedAfterRejection bool           `json:"editedAfterRejection"`
	PaymentInfo          PaymentInfoDTO `json:"paymentInfo"`
	CreatedAt            string         `json:"createdAt"`
	UpdatedAt            string         `json:"updatedAt"`
}

func toListingResponse(l *model.Listing) ListingResponse {
	return ListingResponse{
		ID:                   l.ID,
		Type:                 string(l.Type),
		Brand:                l.Brand,
		Model:                l.Model,
		Year:                 l.Year,
		MileageKm:            l.MileageKm,
		BatteryCapacityKWh:   l.BatteryCapacityKWh,
		ConditionLabel:       l.ConditionLabel,
		Description:          l.Description,
		Price:                l.Price,
		Status:               string(model.NormalizeListingStatus(l.Status)),
		SellerUID:            l.SellerUID,
		EditedAfterRejection: l.EditedAfterRejection,
		PaymentInfo:          toPaymentInfoDTO(l.Payment),
		CreatedAt:            l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:            l.UpdatedAt.Format(time.RFC3339),
	}
}

type CreateListingRequest struct {
	Type               string         `json:"type"`
	Brand              string         `json:"brand"`
	Model              string         `json:"model"`
	Year               int            `json:"year"`
	MileageKm          *int           `json:"mileageKm"`
	BatteryCapacityKWh *int           `json:"batteryCapacityKWh"`
	ConditionLabel     string         `json:"conditionLabel"`
	Description        string         `json:"description"`
	Price              float64        `json:"price"`
	PaymentInfo        PaymentInfoDTO `json:"paymentInfo"`
}

type UpdateListingRequest struct {
	Brand              string         `json:"brand"`
	Model              string         `json:"model"`
	Year               int            `json:"year"`
	MileageKm          *int           `json:"mileageKm"`
	BatteryCapacityKWh *int           `json:"batteryCapacityKWh"`
	ConditionLabel     string         `json:"conditionLabel"`
	Description        string         `json:"description"`
	Price              float64        `json:"price"`
	PaymentInfo        PaymentInfoDTO `json:"paymentInfo"`
}

func (h *ListingHandler) Create(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	var req CreateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	listing, err := h.svc.Submit(c.Request().Context(), actor, service.SubmitListingInput{
		Type:               model.ListingType(req.Type),
		Brand:              req.Brand,
		Model:              req.Model,
		Year:               req.Year,
		MileageKm:          req.MileageKm,
		BatteryCapacityKWh: req.BatteryCapacityKWh,
		ConditionLabel:     req.ConditionLabel,
		Description:        req.Description,
		Price:              req.Price,
		Payment:            req.PaymentInfo.toModel(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) Update(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	var req UpdateListingRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid body"))
	}
	listing, err := h.svc.Edit(c.Request().Context(), actor, id, service.EditListingInput{
		Brand:              req.Brand,
		Model:              req.Model,
		Year:               req.Year,
		MileageKm:          req.MileageKm,
		BatteryCapacityKWh: req.BatteryCapacityKWh,
		ConditionLabel:     req.ConditionLabel,
		Description:        req.Description,
		Price:              req.Price,
		Payment:            req.PaymentInfo.toModel(),
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

func (h *ListingHandler) Delete(c echo.Context) error {
	actor, ok := middleware.ActorFrom(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, NewErrorResponse("unauthorized", "missing actor"))
	}
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	if err := h.svc.Withdraw(c.Request().Context(), actor, id); err != nil {
		return respondError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *ListingHandler) Get(c echo.Context) error {
	id, err := parseID(c, "id")
	if err != nil {
		return c.JSON(http.StatusBadRequest, NewErrorResponse("bad_request", "invalid listing id"))
	}
	var viewer *model.Actor
	if actor, ok := middleware.ActorFrom(c); ok {
		viewer = &actor
	}
	listing, err := h.svc.View(c.Request().Context(), viewer, id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, toListingResponse(listing))
}

type ListingPageResponse struct {
	Items []ListingResponse `json:"items"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Size  int               `json:"size"`
}

func (h *ListingHandler) Search(c echo.Context) error {
	var f repository.ListingSearchFilter
	if v := c.QueryParam("type"); v != "" {
		t := model.ListingType(v)
		f.Type = &t
	}
	f.Brand = c.QueryParam("brand")
	if v := c.QueryParam("status"); v != "" {
		st := model.ListingStatus(v)
		f.Status = &st
	}
	f.MinYear = intQuery(c, "minYear")
	f.MaxYear = intQuery(c, "maxYear")
	f.MinCapacity = intQuery(c, "minCapacity")
	f.MinPrice = floatQuery(c, "minPrice")
	f.MaxPrice = floatQuery(c, "maxPrice")

	page, _ := strconv.Atoi(c.QueryParam("page"))
	size, _ := strconv.Atoi(c.QueryParam("size"))
	size = service.ClampPageSize(size)
	if page < 0 {
		page = 0
	}

	listings, total, err := h.svc.Search(c.Request().Context(), f, size, page*size)
	if err != nil {
		return respondError(c, err)
	}
	items := make([]ListingResponse, 0, len(listings))
	for i := range listings {
		items = append(items, toListingResponse(&listings[i]))
	}
	return c.JSON(http.StatusOK, ListingPageResponse{Items: items, Total: total, Page: page, Size: size})
}

func parseID(c echo.Context, param string) (uint64, error) {
	return strconv.ParseUint(c.Param(param), 10, 64)
}

func intQuery(c echo.Context, name string) *int {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &n
}

func floatQuery(c echo.Context, name string) *float64 {
	v := c.QueryParam(name)
	if v == "" {
		return nil
	}
	n, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &n
}
