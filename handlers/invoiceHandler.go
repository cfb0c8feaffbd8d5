package handlers

import (
	"ClinicDesk/middlewares"
	"ClinicDesk/services"
	"ClinicDesk/utils"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// ReceiptSender delivers payment receipts. utils.Mailer implements it.
type ReceiptSender interface {
	SendPaymentReceipt(receipt utils.PaymentReceipt) error
}

type InvoiceHandler struct {
	service  services.InvoiceService
	receipts ReceiptSender
	pending  *sync.WaitGroup
	log      *zap.Logger
}

// NewInvoiceHandler builds the handler. pending counts receipts still being
// sent, so the server can wait for them on shutdown; nil uses a private group.
func NewInvoiceHandler(service services.InvoiceService, receipts ReceiptSender, pending *sync.WaitGroup, log *zap.Logger) *InvoiceHandler {
	if pending == nil {
		pending = &sync.WaitGroup{}
	}
	return &InvoiceHandler{service: service, receipts: receipts, pending: pending, log: log}
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	var req services.CreateInvoiceRequest
	if !bindJSON(c, &req) {
		return
	}
	invoice, err := h.service.Create(c.Request.Context(), facility, req)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusCreated, "Invoice created", invoice)
}

func (h *InvoiceHandler) GetInvoiceByID(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	invoice, err := h.service.GetByID(c.Request.Context(), c.Param("id"), facility)
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}
	middlewares.RespondJSON(c, http.StatusOK, "", invoice)
}

// PayInvoice settles the invoice from the patient's wallet, then sends a
// receipt in the background. Receipt failures never affect the response.
func (h *InvoiceHandler) PayInvoice(c *gin.Context) {
	facility, ok := facilityID(c)
	if !ok {
		return
	}
	result, err := h.service.Pay(c.Request.Context(), facility, c.Param("id"))
	if err != nil {
		middlewares.RespondError(c, h.log, err)
		return
	}

	if h.receipts != nil && result.PatientEmail != "" {
		receipt := utils.PaymentReceipt{
			PatientName:   result.Invoice.PatientName,
			PatientEmail:  result.PatientEmail,
			InvoiceNumber: result.Invoice.InvoiceNumber,
			Amount:        result.Transaction.Amount.StringFixed(2),
			Currency:      result.Currency,
			BalanceAfter:  result.Transaction.BalanceAfter.StringFixed(2),
		}
		if result.Invoice.PaidAt != nil {
			receipt.PaidAt = *result.Invoice.PaidAt
		}
		h.pending.Add(1)
		go func() {
			defer h.pending.Done()
			if err := h.receipts.SendPaymentReceipt(receipt); err != nil {
				h.log.Warn("failed to send payment receipt",
					zap.String("invoice_number", receipt.InvoiceNumber),
					zap.Error(err))
			}
		}()
	}

	middlewares.RespondJSON(c, http.StatusOK, "Invoice paid", result)
}
