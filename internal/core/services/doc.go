// Package services implements the driving port interfaces.
// Services contain the core business logic and orchestrate
// calls to driven ports (adapters).
//
// Services depend only on domain, the ports and a few small libraries
// (errgroup, golang-lru); they never import an adapter.
package services
