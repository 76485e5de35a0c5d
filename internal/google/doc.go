// Package google runs the Google OAuth bootstrap for the Gmail API.
//
// An Authenticator reuses a stored token when it still works and otherwise
// drives the installed-app consent flow: it opens the browser on the
// Google consent page, receives the authorization code on a loopback
// CallbackServer, exchanges it and stores the result in a credstore.Store.
//
// Stored tokens are handed out through a token source that writes every
// refreshed token back to the store.
package google
