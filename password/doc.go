// Package password hashes and verifies account passwords with Argon2id.
//
// Hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Verification reads the parameters from the encoded hash, so stored hashes
// stay valid when the configured cost changes.
//
// # What this package must NOT do
//
//   - Store or look up accounts.
//   - Log plaintext passwords.
package password
