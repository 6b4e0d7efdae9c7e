package order

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/minicart/fulfillment/internal/application"
	"github.com/minicart/fulfillment/internal/domain/catalog"
	domain "github.com/minicart/fulfillment/internal/domain/order"
	domoutbox "github.com/minicart/fulfillment/internal/domain/outbox"
	"github.com/minicart/fulfillment/internal/observability"
	"github.com/minicart/fulfillment/internal/observability/logctx"
)

const (
	orderService      = "order-service"
	useCaseOrderPlace = "order.place"
	spanPrefix        = "UC."
	publishPeer       = "outbox"
	publishEndpoint   = "order.placed"
	publishTimeout    = 300 * time.Millisecond
)

var (
	ErrNotFound = domain.ErrNotFound
	// ErrRepository marks a commit-time conflict, timeout, or backend failure.
	// Safe to retry: a failed PlaceOrder leaves no partial state behind.
	ErrRepository = errors.New("order: repository failure")
)

// PlaceOrderUseCase orchestrates validation, the atomic commit, total
// computation, and post-commit notification of a new order.
type PlaceOrderUseCase struct {
	repo        domain.Repository
	catalog     catalog.Catalog
	atomic      Atomic
	idGenerator IDGenerator
	publisher   domoutbox.Publisher
	tel         observability.Observability

	// Base logger with fixed fields prebound (vendor must remain hidden).
	log observability.Logger
	// RED metrics (supplied via DI; do not instantiate inside methods).
	reqCounter   observability.Counter   // usecase_requests_total{use_case,outcome}
	durHistogram observability.Histogram // usecase_duration_seconds{use_case}

	extCounter   observability.Counter   // external_requests_total{peer,endpoint,outcome}
	extHistogram observability.Histogram // external_request_duration_seconds{peer,endpoint}
}

var _ application.UseCase[PlaceOrderCommand, *domain.Order] = (*PlaceOrderUseCase)(nil)

// NewPlaceOrderUseCase wires the dependencies required to execute the use case.
func NewPlaceOrderUseCase(
	repo domain.Repository,
	cat catalog.Catalog,
	atomic Atomic,
	idGen IDGenerator,
	publisher domoutbox.Publisher,
	tel observability.Observability,
) *PlaceOrderUseCase {
	if tel == nil {
		tel = observability.Nop()
	}
	baseLog := tel.Logger().With(
		observability.F("service", orderService),
	)
	metrics := tel.Metrics()

	return &PlaceOrderUseCase{
		repo:         repo,
		catalog:      cat,
		atomic:       atomic,
		idGenerator:  idGen,
		publisher:    publisher,
		tel:          tel,
		log:          baseLog,
		reqCounter:   metrics.Counter(observability.MUsecaseRequests),
		durHistogram: metrics.Histogram(observability.MUsecaseDuration),
		extCounter:   metrics.Counter(observability.MExternalRequests),
		extHistogram: metrics.Histogram(observability.MExternalRequestDuration),
	}
}

type PlaceOrderCommand struct {
	OwnerID string
	Lines   []domain.Line
}

// Execute performs the order placement flow:
// snapshot -> validate -> atomic commit (order + placements + decrement)
// -> best-effort notification.
func (uc *PlaceOrderUseCase) Execute(ctx context.Context, cmd PlaceOrderCommand) (_ *domain.Order, err error) {
	logger := logctx.FromOr(ctx, uc.log).With(observability.F("use_case", useCaseOrderPlace))

	var orderID string
	var publishErr error

	ctx, span := uc.tel.Tracer().Start(ctx, spanPrefix+"PlaceOrder",
		attribute.String("use_case", useCaseOrderPlace),
		attribute.String("order.owner_id", cmd.OwnerID),
		attribute.Int("order.lines", len(cmd.Lines)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		lat := time.Since(start).Seconds()

		if span != nil {
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, statusText)
			} else {
				span.SetStatus(codes.Ok, statusText)
			}
			span.End()
		}

		uc.reqCounter.Add(1,
			observability.L("use_case", useCaseOrderPlace),
			observability.L("outcome", outcome),
		)
		uc.durHistogram.Observe(lat,
			observability.L("use_case", useCaseOrderPlace),
		)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", lat),
		}
		if sc := trace.SpanContextFromContext(ctx); sc.IsValid() {
			fields = append(fields,
				observability.F("trace_id", sc.TraceID().String()),
				observability.F("span_id", sc.SpanID().String()),
			)
		}
		if orderID != "" {
			fields = append(fields, observability.F("order_id", orderID))
		}
		if publishErr != nil {
			fields = append(fields, observability.F("event_publish_error", publishErr.Error()))
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}

		logger.Info("use_case_done", fields...)
	}()

	if cmd.OwnerID == "" {
		outcome, statusText = "error", "OWNER_ID_REQUIRED"
		return nil, domain.NewValidationError("", "owner id is required")
	}
	if err := ctx.Err(); err != nil {
		outcome, statusText = "error", "CONTEXT_CANCELED"
		return nil, err
	}

	// Unknown ids fail the whole call before any validation runs.
	snap, err := uc.catalog.Snapshot(ctx, distinctProductIDs(cmd.Lines))
	if err != nil {
		var nf *catalog.NotFoundError
		if errors.As(err, &nf) {
			outcome, statusText = "error", "PRODUCT_NOT_FOUND"
			return nil, err
		}
		outcome, statusText = "error", "SNAPSHOT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, err)
	}

	if verr := domain.Validate(cmd.Lines, snap); verr != nil {
		outcome, statusText = "error", "VALIDATION_FAILED"
		return nil, verr
	}

	orderID = uc.idGenerator.NewID()
	entity, derr := domain.New(orderID, cmd.OwnerID, cmd.Lines)
	if derr != nil {
		outcome, statusText = "error", "DOMAIN_CONSTRUCTION_FAILED"
		return nil, fmt.Errorf("order: construct: %w", derr)
	}

	// Price from the snapshot, not a fresh read: the total the caller is
	// quoted is the total that validation saw.
	total := totalFromSnapshot(cmd.Lines, snap)

	commitErr := uc.atomic.RunInTx(ctx, func(ctx context.Context) error {
		if err := uc.catalog.DecrementAll(ctx, decrementsFor(cmd.Lines)); err != nil {
			return err
		}
		if err := entity.Place(total); err != nil {
			return err
		}
		return uc.repo.Insert(ctx, entity)
	})
	if commitErr != nil {
		_ = entity.Reject()

		// A stock race between snapshot and commit surfaces exactly like a
		// validation failure: from the caller's view the causes are the same.
		var short *catalog.InsufficientStockError
		if errors.As(commitErr, &short) {
			outcome, statusText = "error", "STOCK_RACE_LOST"
			return nil, domain.NewValidationError(short.ProductID, fmt.Sprintf("only %d left", short.Remaining))
		}

		outcome, statusText = "error", "COMMIT_FAILED"
		return nil, fmt.Errorf("%w: %w", ErrRepository, commitErr)
	}

	if uc.publisher != nil {
		pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
		pubStart := time.Now()
		pubOutcome := "success"

		publishErr = uc.publisher.Publish(pubCtx, domain.NewPlacedEvent(entity))
		if publishErr != nil {
			pubOutcome = "error"
		}
		cancel()

		uc.extCounter.Add(1,
			observability.L("peer", publishPeer),
			observability.L("endpoint", publishEndpoint),
			observability.L("outcome", pubOutcome),
		)
		uc.extHistogram.Observe(time.Since(pubStart).Seconds(),
			observability.L("peer", publishPeer),
			observability.L("endpoint", publishEndpoint),
		)
	}

	span.SetAttributes(
		attribute.String("order.status", string(entity.Status)),
		attribute.String("order.total", entity.Total.String()),
	)
	span.AddEvent("order.placed",
		trace.WithAttributes(attribute.String("order.id", orderID)),
	)

	return entity, nil
}

func distinctProductIDs(lines []domain.Line) []string {
	seen := make(map[string]bool, len(lines))
	ids := make([]string, 0, len(lines))
	for _, l := range lines {
		if l.ProductID == "" || seen[l.ProductID] {
			continue
		}
		seen[l.ProductID] = true
		ids = append(ids, l.ProductID)
	}
	return ids
}

func decrementsFor(lines []domain.Line) []catalog.DecrementRequest {
	reqs := make([]catalog.DecrementRequest, 0, len(lines))
	for _, l := range lines {
		reqs = append(reqs, catalog.DecrementRequest{ProductID: l.ProductID, Quantity: l.Quantity})
	}
	return reqs
}

func totalFromSnapshot(lines []domain.Line, snap catalog.Snapshot) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		view := snap[l.ProductID]
		total = total.Add(view.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}
