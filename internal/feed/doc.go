// Package feed reconciles one feed view's state under three concurrent
// inputs: paginated REST fetches, the viewer's own optimistic actions, and
// pushed events from other sessions. Server-pushed counters always win;
// local arithmetic only ever bridges the gap until the next push arrives.
package feed
