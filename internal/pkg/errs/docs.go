// Package errs provides the structured error types shared by the dispatcher's
// domain, application and adapter layers.
//
// Every error type follows the same shape:
//   - a sentinel (ErrObjectNotFound, ErrValueIsInvalid, ...) usable with errors.Is
//   - a struct carrying the offending parameter and an optional cause
//   - constructors with and without a cause
//   - Unwrap returning the sentinel, so callers classify without string matching
//
// The HTTP adapter relies on these sentinels to map failures onto stable error
// kinds (InvalidRequest, OrderNotFound, ...), so new failure modes should reuse
// one of them rather than introduce ad-hoc errors.New values.
package errs
