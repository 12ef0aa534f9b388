// Package host holds the long-lived state around the stateless resolver:
// the active configuration, a cache of synthesized text, an event bus for
// render option changes and a file watcher.
//
// A Session is created once by the command and passed explicitly to
// whatever needs it. Each Resolve takes a snapshot of the render options,
// so option changes never affect a resolution already in flight.
package host
