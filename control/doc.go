// Package control
// Author: lennyferrell
//
// Control plane for the library: dynamic configuration with TOML loading and
// file-watch hot reload, a runtime metrics registry, and a prometheus
// collector over pool statistics.
package control
