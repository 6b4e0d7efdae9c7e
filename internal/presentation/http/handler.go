package httppresentation

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"

	appOrder "github.com/minicart/fulfillment/internal/application/order"
	domainCatalog "github.com/minicart/fulfillment/internal/domain/catalog"
	domainOrder "github.com/minicart/fulfillment/internal/domain/order"
	"github.com/minicart/fulfillment/internal/observability"
	"github.com/minicart/fulfillment/internal/observability/logctx"
)

type Handler struct {
	placeOrder *appOrder.PlaceOrderUseCase
	queries    *appOrder.Queries
	log        observability.Logger
	tel        observability.Observability
}

const (
	componentHTTPHandler = "http_server"
	headerRequestID      = "X-Request-ID"
)

func NewHandler(placeOrder *appOrder.PlaceOrderUseCase, queries *appOrder.Queries, logger observability.Logger,
	tel observability.Observability,
) *Handler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = observability.NopLogger()
	}
	if tel == nil {
		tel = observability.Nop()
	}
	return &Handler{
		placeOrder: placeOrder,
		queries:    queries,
		log:        baseLogger.With(observability.F("component", componentHTTPHandler)),
		tel:        tel,
	}
}

func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// Wire each route with middlewares:
	// Trace → ObservabilityMiddleware (request logger) → Access log → Metrics → Handler
	h.muxHandle(mux, http.MethodPost, "/orders", h.requireOwner(h.handlePlaceOrder))
	h.muxHandle(mux, http.MethodGet, "/orders", h.requireOwner(h.handleListOrders))
	h.muxHandle(mux, http.MethodGet, "/orders/{id}", h.requireOwner(h.handleGetOrder))
	h.muxHandle(mux, http.MethodGet, "/health", h.handleHealth)

	return mux
}

func (h *Handler) muxHandle(mux *http.ServeMux, method, route string, handler http.HandlerFunc) {
	mux.HandleFunc(method+" "+route, func(w http.ResponseWriter, r *http.Request) {
		// Store stable route template for low-cardinality labels
		ctx := contextWithRoute(r.Context(), method+" "+route)
		r = r.WithContext(ctx)

		wrapped := h.withTrace(
			ObservabilityMiddleware(
				logctx.FromOr(ctx, h.log),
				func(r *http.Request) string {
					return r.Header.Get(headerRequestID)
				},
				h.tel,
			)(
				h.withAccessLog(
					h.withHTTPMetrics(http.HandlerFunc(handler)),
				),
			),
		)
		wrapped.ServeHTTP(w, r)
	})
}

type placeOrderLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type placeOrderRequest struct {
	Items []placeOrderLine `json:"items"`
	// Accepted on the wire for client compatibility; the total is always
	// recomputed server-side and this value is never read.
	TotalPrice string `json:"total_price,omitempty"`
}

type orderResponse struct {
	OrderID    string           `json:"order_id"`
	Status     string           `json:"status"`
	TotalPrice string           `json:"total_price"`
	Items      []placeOrderLine `json:"items"`
	CreatedAt  time.Time        `json:"created_at"`
}

func toOrderResponse(o *domainOrder.Order) orderResponse {
	items := make([]placeOrderLine, 0, len(o.Placements))
	for _, p := range o.Placements {
		items = append(items, placeOrderLine{ProductID: p.ProductID, Quantity: p.Quantity})
	}
	return orderResponse{
		OrderID:    o.ID,
		Status:     string(o.Status),
		TotalPrice: o.Total.String(),
		Items:      items,
		CreatedAt:  o.CreatedAt,
	}
}

func (h *Handler) handlePlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := decodeJSON(r.Context(), r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	lines := make([]domainOrder.Line, 0, len(req.Items))
	for _, item := range req.Items {
		lines = append(lines, domainOrder.Line{ProductID: item.ProductID, Quantity: item.Quantity})
	}

	result, err := h.placeOrder.Execute(r.Context(), appOrder.PlaceOrderCommand{
		OwnerID: ownerFromContext(r.Context()),
		Lines:   lines,
	})
	if err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toOrderResponse(result))
}

func (h *Handler) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	result, err := h.queries.GetOrder(r.Context(), ownerFromContext(r.Context()), r.PathValue("id"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toOrderResponse(result))
}

type listOrdersResponse struct {
	Orders []orderResponse `json:"orders"`
}

func (h *Handler) handleListOrders(w http.ResponseWriter, r *http.Request) {
	results, err := h.queries.ListOrders(r.Context(), ownerFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}

	resp := listOrdersResponse{Orders: make([]orderResponse, 0, len(results))}
	for _, o := range results {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// withAccessLog writes a single access log after the handler completes.
// It relies on the request-scoped logger already injected by ObservabilityMiddleware.
func (h *Handler) withAccessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		logctx.FromOr(r.Context(), h.log).Info("http_access",
			observability.F("method", r.Method),
			observability.F("route", routeFromContext(r.Context())),
			observability.F("path", r.URL.Path),
			observability.F("status", lrw.status),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	})
}

// withTrace creates a server span for the request using OTel and W3C propagation.
func (h *Handler) withTrace(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tracer := otel.Tracer("fulfillment.http")
		parentCtx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))

		route := routeFromContext(parentCtx)
		spanName := route
		if spanName == "unknown" {
			spanName = r.Method + " " + r.URL.Path
		}
		template := route
		if idx := strings.Index(template, " "); idx >= 0 {
			template = template[idx+1:]
		}
		if template == "unknown" || template == "" {
			template = r.URL.Path
		}

		ctxWithSpan, span := tracer.Start(parentCtx,
			spanName,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", template),
				attribute.String("http.target", r.URL.Path),
				attribute.String("http.user_agent", r.UserAgent()),
			),
		)
		defer span.End()

		next.ServeHTTP(w, r.WithContext(ctxWithSpan))
	})
}

// withHTTPMetrics records RED-ish HTTP metrics using injected vectors.
func (h *Handler) withHTTPMetrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		lrw := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(lrw, r)

		statusLabel := http.StatusText(lrw.status)
		route := routeFromContext(r.Context())
		h.tel.Metrics().Counter(observability.MHTTPRequests).Add(1,
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", statusLabel),
		)
		h.tel.Metrics().Histogram(observability.MHTTPRequestDuration).Observe(time.Since(start).Seconds(),
			observability.L("method", r.Method),
			observability.L("route", route),
			observability.L("status", statusLabel),
		)
	})
}

type routeKey struct{}

func contextWithRoute(ctx context.Context, route string) context.Context {
	return context.WithValue(ctx, routeKey{}, route)
}

func routeFromContext(ctx context.Context) string {
	if route, ok := ctx.Value(routeKey{}).(string); ok && route != "" {
		return route
	}
	return "unknown"
}

func decodeJSON(ctx context.Context, r *http.Request, dst any) error {
	_ = ctx
	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

type violationPayload struct {
	ProductID string `json:"product_id,omitempty"`
	Message   string `json:"message"`
}

func writeDomainError(w http.ResponseWriter, err error) {
	var verr *domainOrder.ValidationError
	switch {
	case errors.As(err, &verr):
		violations := make([]violationPayload, 0, len(verr.Violations))
		for _, v := range verr.Violations {
			violations = append(violations, violationPayload{ProductID: v.ProductID, Message: v.Message})
		}
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error":      "validation failed",
			"violations": violations,
		})
	case errors.Is(err, domainOrder.ErrNotFound),
		errors.Is(err, domainCatalog.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
	case errors.Is(err, appOrder.ErrRepository):
		// No partial state exists; the caller may retry the whole call.
		writeError(w, http.StatusServiceUnavailable, err)
	default:
		writeError(w, http.StatusInternalServerError, err)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
