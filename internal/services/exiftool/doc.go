// Package exiftool drives a long-lived exiftool worker through its
// line-oriented -stay_open protocol. It supervises one persistent process per
// executable name, falls back to single-shot invocations when the persistent
// channel fails or cannot carry a value safely, and exposes typed tag
// descriptors plus a per-file batching session so callers fold many logical
// metadata operations into one round trip.
package exiftool
