// Package crypto provides the cryptographic primitives of a rendezvous exchange.
//
// Design goals:
//   - Static X25519 identities, published in the clear through the directory
//   - NaCl box sealing (XSalsa20-Poly1305), interoperable with other box clients
//   - Nonces derived with keyed BLAKE2b over the message and fresh randomness
//   - No process-wide state: all randomness is drawn from an explicit Context
package crypto
