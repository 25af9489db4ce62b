// Package api
// Author: lennyferrell
//
// Dependency-free contracts shared by every layer of the library: the
// connection and builder capabilities consumed by the pool, the pool and
// executor surfaces, and the common error vocabulary.
package api
