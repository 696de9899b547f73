// Package internal holds identifier generation shared by the engine and its
// subpackages. Nothing here is part of the public API.
package internal
