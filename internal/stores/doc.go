// Package stores contains the Redis-backed profile store: the JSON user
// table and the current-user pointer. The store owns exactly these two keys
// and never reaches into session or snapshot storage.
package stores
