// Package tlsutil provides TLS material that follows PEM files on disk.
//
// [KeyPair] serves a certificate+key pair and [TrustStore] serves a CA
// bundle, both reloaded lazily on access whenever the file modification
// times change. A failed reload keeps the previously loaded material
// serving, so a half-rotated pair on disk never breaks running handshakes.
package tlsutil
