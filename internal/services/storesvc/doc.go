// Package storesvc is the application service over the runtime facades. It
// validates requests against configured limits, routes ingested messages
// into per-channel sessions with closed-session recovery, and executes
// predicate searches with optional CEL post-filtering.
package storesvc
