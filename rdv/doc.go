// Package rdv implements a two-party rendezvous over an untrusted directory.
//
// Two participants that only share a session name meet through a public
// add/list/remove store. They swap X25519 public keys, derive a NaCl box from
// the shared secret, and then exchange sealed messages at names that each
// side computes independently: the first from the shared secret, every later
// one from the hash of the last frame. The directory only ever sees opaque
// hex strings under names that change after every message.
//
// The building blocks live in sub-packages (crypto, identity, naming,
// directory, session); Peer wires them together with sensible defaults.
package rdv
