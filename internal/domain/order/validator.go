package order

import (
	"fmt"
	"strings"

	"github.com/minicart/fulfillment/internal/domain/catalog"
)

// Violation names one offending product (or the order itself when ProductID
// is empty) with a message safe to report verbatim to the caller.
type Violation struct {
	ProductID string
	Message   string
}

// ValidationError aggregates every rule violation found in one request so the
// caller sees all out-of-stock products in a single response.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		if v.ProductID == "" {
			parts = append(parts, v.Message)
			continue
		}
		parts = append(parts, fmt.Sprintf("%s: %s", v.ProductID, v.Message))
	}
	return "order: validation failed: " + strings.Join(parts, "; ")
}

// NewValidationError builds an aggregate error for a single violation. Used
// where a commit-time stock race has to surface the same way validation does.
func NewValidationError(productID, message string) *ValidationError {
	return &ValidationError{Violations: []Violation{{ProductID: productID, Message: message}}}
}

// Validate checks the requested lines against a catalog snapshot. It collects
// every violation instead of failing fast, and never mutates state: the
// snapshot is the only input it reads.
func Validate(lines []Line, snap catalog.Snapshot) *ValidationError {
	var violations []Violation

	if len(lines) == 0 {
		violations = append(violations, Violation{Message: "order must contain at least one line"})
		return &ValidationError{Violations: violations}
	}

	seen := make(map[string]bool, len(lines))
	for _, l := range lines {
		if l.ProductID == "" {
			violations = append(violations, Violation{Message: "product id is required"})
			continue
		}
		if seen[l.ProductID] {
			violations = append(violations, Violation{ProductID: l.ProductID, Message: "product listed more than once"})
			continue
		}
		seen[l.ProductID] = true

		if l.Quantity <= 0 {
			violations = append(violations, Violation{ProductID: l.ProductID, Message: "quantity must be greater than zero"})
			continue
		}

		view, ok := snap[l.ProductID]
		if !ok {
			violations = append(violations, Violation{ProductID: l.ProductID, Message: "unknown product"})
			continue
		}
		if l.Quantity > view.Available {
			violations = append(violations, Violation{
				ProductID: l.ProductID,
				Message:   fmt.Sprintf("only %d left", view.Available),
			})
		}
	}

	if len(violations) == 0 {
		return nil
	}
	return &ValidationError{Violations: violations}
}
