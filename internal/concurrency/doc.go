// Package concurrency implements the worker-pool executor used as the
// execution context for connection establishment.
// Author: lennyferrell
package concurrency
