// Package memory implements every store capability in process memory. It is
// used by tests and by local runs without a database URL.
package memory
