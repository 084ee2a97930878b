// Package auth provides pluggable authentication for glam's admin endpoints.
//
// Authentication uses a chain-of-responsibility pattern with three-outcome
// voting: each authenticator returns Yes (identity found), No (credentials
// invalid), or Abstain (can't handle). A configurable default voter decides
// when all authenticators abstain.
//
// Auth is implemented as HTTP middleware, keeping it decoupled from the
// enhancement pipeline. The middleware also injects the authenticated
// subject as the storage actor so activity records written through admin
// calls are attributed.
package auth
