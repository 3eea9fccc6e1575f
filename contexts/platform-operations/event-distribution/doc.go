// Package eventdistribution contains the asynchronous event distribution
// subsystem: the process-wide bus that decouples producers of domain
// lifecycle events from consumers performing side effects.
//
// The module keeps dispatch/persistence logic decoupled from runtime/platform
// concerns through ports and adapter composition.
package eventdistribution
