package shared

import "errors"

// Error kinds shared by the pricing, catalog and estimating packages. Callers wrap
// them with fmt.Errorf("%w: detail", kind) and match with errors.Is.
var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput rejects malformed or out-of-range request data.
	ErrInvalidInput = errors.New("invalid input")
	// ErrRuleNotFound reports a pricing rule id with no row behind it.
	ErrRuleNotFound = errors.New("pricing rule not found")
	// ErrRuleInactive reports a pricing rule that exists but is switched off.
	ErrRuleInactive = errors.New("pricing rule inactive")
	// ErrLineItemSourceNotFound reports a line referencing a missing catalog entry.
	ErrLineItemSourceNotFound = errors.New("line item source not found")
	// ErrInvalidState rejects an operation the current status does not allow.
	ErrInvalidState = errors.New("invalid state")
	// ErrConcurrencyConflict reports a number collision or an aborted transaction.
	ErrConcurrencyConflict = errors.New("concurrency conflict")
	// ErrStoreUnavailable reports a failing store collaborator.
	ErrStoreUnavailable = errors.New("store unavailable")
)

var kinds = []struct {
	err  error
	name string
}{
	{ErrInvalidInput, "InvalidInput"},
	{ErrRuleNotFound, "RuleNotFound"},
	{ErrRuleInactive, "RuleInactive"},
	{ErrLineItemSourceNotFound, "LineItemSourceNotFound"},
	{ErrInvalidState, "InvalidState"},
	{ErrConcurrencyConflict, "ConcurrencyConflict"},
	{ErrStoreUnavailable, "StoreUnavailable"},
	{ErrNotFound, "NotFound"},
}

// KindOf returns the name of the first error kind err wraps, or "Internal".
func KindOf(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.err) {
			return k.name
		}
	}
	return "Internal"
}
