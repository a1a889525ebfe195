// Package bus implements the in-process event dispatcher that decouples the
// push transport from its consumers. Ordering is only guaranteed within a
// single event type; there is no cross-type ordering promise.
package bus
