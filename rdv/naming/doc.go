// Package naming derives directory names for a rendezvous session.
//
// Every name is the hex SHA-256 digest of its input, so the directory
// operator only ever sees opaque identifiers. The first exchange slot is
// derived from the shared-secret label; each later slot from the exact frame
// that was last sent or received. Because a frame is stored and retrieved
// verbatim, sender and receiver always agree on the next name without an
// extra round trip.
package naming
