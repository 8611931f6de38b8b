// Package errors provides the structured error model used throughout the
// content aggregation engine.
//
// Every error produced by the engine carries an ErrorCode that places it in
// the engine's taxonomy, a classification telling callers whether backing off
// and retrying can help, optional context metadata, and the wrapped cause.
// The package stays compatible with the standard library (errors.Is,
// errors.As, errors.Unwrap).
//
// # Taxonomy
//
//   - CodeNotFound: content is absent. A valid outcome, never fatal.
//   - CodeTransportFailure: a remote origin was unreachable or failed.
//   - CodeResolution: group membership is cyclic or references a missing store.
//   - CodeSuitability: no hosted member of a group may accept a write.
//   - CodePolicyDenied: a path mask or readonly flag rejected the operation.
//   - CodeOverloaded: the worker pool refused new work.
//
// # Usage
//
//	if err := mgr.Store(ctx, key, path, r); err != nil {
//	    switch {
//	    case errors.IsOverloaded(err):
//	        // back off
//	    case errors.IsPolicyDenied(err):
//	        // report to caller
//	    }
//	}
//
// Wrapping keeps the classification of the wrapped PlatformError:
//
//	return errors.Wrapf(err, errors.CodeTransportFailure, "fetch %s from %s", path, key)
//
// Context fields are attached immutably:
//
//	err = errors.WithContext(err, "store", key.String())
package errors
