// Package classify normalizes arbitrary failures into a closed set of kinds,
// each with a user-facing message and a recovery hint.
//
// Typed errors are matched first with errors.Is/As. Anything else falls back
// to ordered substring signatures over the lower-cased error text, with more
// specific signatures checked before generic ones. Classification never
// panics; on any trouble it degrades to Unknown.
package classify
