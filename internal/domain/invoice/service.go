package invoice

import (
	"context"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"invoicehub/internal/core/apperror"
	"invoicehub/internal/core/numerator"
	"invoicehub/internal/core/security"
	"invoicehub/internal/core/tenant"
	"invoicehub/internal/core/tx"
	"invoicehub/internal/core/types"
	"invoicehub/internal/domain"
	"invoicehub/internal/domain/audit"
	"invoicehub/internal/domain/events"
	"invoicehub/pkg/logger"
)

const createFailedMessage = "Failed to create invoice"

// clientErrorCodes pass through Create unchanged; they describe the request, not the store.
var clientErrorCodes = []string{
	apperror.CodePermissionDenied,
	apperror.CodeValidation,
	apperror.CodeInvalidQuantity,
	apperror.CodeProductNotFound,
	apperror.CodeInsufficientStock,
	apperror.CodeNotFound,
	apperror.CodeShopInactive,
}

// CreateRequest is the input of invoice creation.
// ShopID is honored for super admins only; shop admins always bill their own shop.
type CreateRequest struct {
	ShopID        *int64
	CustomerName  string
	CustomerEmail *string
	Items         []LineRequest
	DiscountType  *string
	DiscountValue types.Money
	TaxRate       types.Money
	PaymentMethod *string
	PaymentStatus *string
}

// Validate checks the request shape. Line quantities are checked by the stock validator.
func (r CreateRequest) Validate() error {
	if strings.TrimSpace(r.CustomerName) == "" {
		return apperror.NewValidation("customer_name is required").WithDetail("field", "customer_name")
	}
	if len(r.Items) == 0 {
		return apperror.NewValidation("at least one item is required").WithDetail("field", "items")
	}
	if r.DiscountValue.IsNegative() {
		return apperror.NewValidation("discount_value must not be negative").WithDetail("field", "discount_value")
	}
	if !types.InPercentRange(r.TaxRate) {
		return apperror.NewValidation("tax_rate must be between 0 and 100").WithDetail("field", "tax_rate")
	}
	if r.PaymentStatus != nil {
		if _, err := ParsePaymentStatus(*r.PaymentStatus); err != nil {
			return err
		}
	}
	return nil
}

// Service provides invoice operations.
type Service struct {
	repo      Repository
	stock     StockRepository
	validator *StockValidator
	numbers   numerator.Generator
	txManager tx.Manager
	hooks     *domain.HookRegistry[*Invoice]
	cfg       ServiceConfig
	now       func() time.Time
	tracer    trace.Tracer
}

// Option customizes a Service.
type Option func(*Service)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new invoice service.
func NewService(
	repo Repository,
	stock StockRepository,
	numbers numerator.Generator,
	txManager tx.Manager,
	cfg ServiceConfig,
	opts ...Option,
) *Service {
	s := &Service{
		repo:      repo,
		stock:     stock,
		validator: NewStockValidator(stock),
		numbers:   numbers,
		txManager: txManager,
		hooks:     domain.NewHookRegistry[*Invoice](),
		cfg:       cfg.normalized(),
		now:       time.Now,
		tracer:    otel.Tracer("invoicehub/invoice"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Hooks returns the lifecycle hooks. AfterCreate hooks run inside the creation transaction.
func (s *Service) Hooks() *domain.HookRegistry[*Invoice] {
	return s.hooks
}

// AuditHook records every created invoice through rec.
func AuditHook(rec audit.Recorder) domain.Hook[*Invoice] {
	return func(ctx context.Context, inv *Invoice) error {
		return rec.Record(ctx, "invoice", inv.ID, audit.ActionCreate, inv.auditState())
	}
}

// Create issues an invoice: it resolves the shop, validates and locks stock, takes the next
// number, prices the lines and writes invoice, items and stock decrement in one transaction.
//
// Contention with a concurrent creation in the same shop rolls the attempt back and retries it
// up to MaxAttempts times. Exhausted retries and storage failures are returned as a generic
// persistence error.
func (s *Service) Create(ctx context.Context, caller security.Caller, req CreateRequest) (*Invoice, error) {
	ctx, span := s.tracer.Start(ctx, "invoice.Create")
	defer span.End()

	shopID, err := tenant.ResolveShop(caller, req.ShopID)
	if err != nil {
		return nil, err
	}
	span.SetAttributes(attribute.Int64("shop_id", shopID), attribute.Int("lines", len(req.Items)))

	if err := req.Validate(); err != nil {
		return nil, err
	}

	var inv *Invoice
	for attempt := 1; ; attempt++ {
		inv, err = s.createOnce(ctx, caller, shopID, req)
		if err == nil || !apperror.IsConcurrentModification(err) || attempt >= s.cfg.MaxAttempts {
			span.SetAttributes(attribute.Int("attempts", attempt))
			break
		}

		logger.Warn(ctx, "invoice creation contended, retrying", "shop_id", shopID, "attempt", attempt, "error", err)
		if werr := s.wait(ctx, attempt); werr != nil {
			err = werr
			break
		}
	}

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if apperror.HasCode(err, clientErrorCodes...) {
			return nil, err
		}
		logger.Error(ctx, "invoice creation failed", "shop_id", shopID, "error", err)
		return nil, apperror.NewPersistence(createFailedMessage, err)
	}

	logger.Info(ctx, "invoice created",
		"invoice_id", inv.ID,
		"invoice_number", inv.InvoiceNumber,
		"shop_id", shopID,
		"grand_total", inv.GrandTotal.String(),
	)
	return inv, nil
}

// createOnce is a single attempt. Nothing it writes survives an error.
func (s *Service) createOnce(ctx context.Context, caller security.Caller, shopID int64, req CreateRequest) (*Invoice, error) {
	var created *Invoice

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock order is products (ascending id), then the shop row in numbers.Next.
		// Every path that takes both must keep this order.
		lines, err := s.validator.ValidateAndPrice(ctx, shopID, req.Items)
		if err != nil {
			return err
		}

		now := s.now().UTC()
		number, err := s.numbers.Next(ctx, shopID, now)
		if err != nil {
			return err
		}

		discount := ParseDiscount(req.DiscountType, req.DiscountValue)
		totals := ComputeTotals(lines, discount, req.TaxRate)

		inv := &Invoice{
			InvoiceNumber:  number,
			CustomerName:   strings.TrimSpace(req.CustomerName),
			CustomerEmail:  req.CustomerEmail,
			SubTotal:       totals.SubTotal,
			DiscountType:   discount.Kind,
			DiscountValue:  discount.Value,
			DiscountAmount: totals.DiscountAmount,
			TaxRate:        req.TaxRate,
			TaxAmount:      totals.TaxAmount,
			GrandTotal:     totals.GrandTotal,
			PaymentMethod:  req.PaymentMethod,
			PaymentStatus:  s.paymentStatus(req.PaymentStatus),
			ShopID:         shopID,
			CreatedByID:    caller.UserID,
			CreatedAt:      now,
		}
		if err := s.repo.Create(ctx, inv); err != nil {
			return err
		}

		items := make([]Item, len(lines))
		for i, l := range lines {
			items[i] = Item{
				InvoiceID:  inv.ID,
				LineNo:     l.LineNo,
				ProductID:  l.ProductID,
				Quantity:   l.Quantity,
				Price:      l.UnitPrice,
				TotalPrice: l.LineTotal,
			}
		}
		if err := s.repo.SaveItems(ctx, inv.ID, items); err != nil {
			return err
		}
		inv.Items = items

		ids, demand := demandByProduct(lines)
		for _, productID := range ids {
			ok, err := s.stock.DecrementStock(ctx, shopID, productID, demand[productID])
			if err != nil {
				return err
			}
			if !ok {
				return apperror.NewConcurrentModification("product", productID)
			}
		}

		if err := s.hooks.Run(ctx, domain.AfterCreate, inv); err != nil {
			return err
		}

		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

func (s *Service) paymentStatus(raw *string) PaymentStatus {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return s.cfg.DefaultPaymentStatus
	}
	status, err := ParsePaymentStatus(*raw)
	if err != nil {
		return s.cfg.DefaultPaymentStatus
	}
	return status
}

func (s *Service) wait(ctx context.Context, attempt int) error {
	if s.cfg.RetryBackoff == 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(s.cfg.RetryBackoff * time.Duration(attempt))
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// GetByID returns an invoice with its items. Invoices of other shops are reported as not found.
func (s *Service) GetByID(ctx context.Context, caller security.Caller, id int64) (*Invoice, error) {
	inv, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !tenant.CanAccessShop(caller, inv.ShopID) {
		return nil, apperror.NewNotFound("invoice", id)
	}
	return inv, nil
}

// List returns invoices visible to the caller, newest first.
func (s *Service) List(ctx context.Context, caller security.Caller, filter ListFilter) (domain.ListResult[*Invoice], error) {
	shopID, err := tenant.ScopeFilter(caller, filter.ShopID)
	if err != nil {
		return domain.ListResult[*Invoice]{}, err
	}
	filter.ShopID = shopID
	filter.Normalize()
	return s.repo.List(ctx, filter)
}

// InvoiceCreatedPayload is the body of the invoice.created event.
type InvoiceCreatedPayload struct {
	ID            int64       `json:"id"`
	InvoiceNumber string      `json:"invoiceNumber"`
	ShopID        int64       `json:"shopId"`
	CreatedByID   int64       `json:"createdById"`
	GrandTotal    types.Money `json:"grandTotal"`
	PaymentStatus string      `json:"paymentStatus"`
	ItemCount     int         `json:"itemCount"`
	CreatedAt     time.Time   `json:"createdAt"`
}

// OutboxHook publishes invoice.created for every created invoice through pub.
func OutboxHook(pub events.Publisher) domain.Hook[*Invoice] {
	return func(ctx context.Context, inv *Invoice) error {
		return pub.Publish(ctx, events.Event{
			AggregateType: "invoice",
			AggregateID:   inv.ID,
			EventType:     events.InvoiceCreated,
			Payload: InvoiceCreatedPayload{
				ID:            inv.ID,
				InvoiceNumber: inv.InvoiceNumber,
				ShopID:        inv.ShopID,
				CreatedByID:   inv.CreatedByID,
				GrandTotal:    inv.GrandTotal,
				PaymentStatus: string(inv.PaymentStatus),
				ItemCount:     len(inv.Items),
				CreatedAt:     inv.CreatedAt,
			},
		})
	}
}
