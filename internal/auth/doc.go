// Package auth provides authentication for the library.
//
// It supports two modes:
//   - "none": no authentication (default); every request is the anonymous
//     reader, documents render but positions and annotations never persist
//   - "local": local user database with session cookies
//
// # Configuration
//
// Set AUTH_MODE to select the mode:
//
//	AUTH_MODE=none   # Default, no accounts
//	AUTH_MODE=local  # Requires registration and login
//
// For local mode, additional configuration:
//
//	AUTH_SESSION_LIFETIME=24h  # Session duration
//	AUTH_BCRYPT_COST=12        # bcrypt cost factor
//	AUTH_SECURE_COOKIES=true   # HTTPS-only cookies
//
// Extract the reader in handlers:
//
//	userID := auth.GetUserID(c)  // entities.AnonymousUserID when not signed in
package auth
