// Package password implements the one-way password function collaborators:
// [Argon2] (default) and [Bcrypt] (legacy compatibility).
//
// # Output format
//
// Argon2 hashes are encoded in PHC string format:
//
//	$argon2id$v=19$m=<memory>,t=<time>,p=<threads>$<salt>$<hash>
//
// Both hashers support transparent parameter upgrades: if the stored hash was
// produced with weaker parameters or a foreign algorithm, NeedsRehash returns
// true so the caller can re-hash on the next successful login.
//
// # What this package must NOT do
//
//   - Store or retrieve passwords; callers supply plaintext and receive hashes.
//   - Import any other authcore package.
//   - Log plaintext passwords.
package password
