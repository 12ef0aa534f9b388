// Package errors provides the typed errors returned by the resolution pipeline.
//
// Errors are categorized by Kind:
//
//   - KindConfiguration: the container cannot be used at all (unsupported file
//     type, missing path, unreadable archive). Raised during loader selection.
//   - KindDecompile: the transform failed for one type. Always carries the
//     internal type name and the original cause.
//   - KindSource: the real-source probe failed with an I/O error.
//
// "Not found" is never an error; resolvers report it through a boolean.
//
// Use the Builder for structured construction:
//
//	err := errors.New(errors.KindDecompile).
//		Op("transform").
//		TypeName("a/B").
//		Cause(cause).
//		Build()
//
// All errors support errors.Is against ErrConfiguration, ErrDecompile and
// ErrSource, and errors.Unwrap exposes the cause.
package errors
