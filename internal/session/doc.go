// Package session groups persisted messages into per-channel collection
// windows.
//
// A session opens against a channel, collects messages at consecutive
// positions starting from zero, and closes either explicitly or when its
// buffer period elapses. Sessions on the same channel form an append-only
// chain: each new session links to the channel's previous latest session,
// so the full history of a channel is reachable from its most recent
// session backwards.
//
// Closing is terminal. Appending to a closed session fails with
// ErrSessionClosed; callers recover by opening a fresh session on the same
// channel, which automatically links to the closed one.
package session
