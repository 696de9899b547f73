// Package jwt issues and parses the compact signed session tokens the
// engine hands to the host UI alongside a new session. Tokens are HS256 and
// carry only the session/user identifiers; the session store in Redis stays
// authoritative for lifetime decisions.
package jwt
