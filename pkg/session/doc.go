/*
Package session keeps the live navigator sessions of a process.

Sessions are addressed by UUID. Each one owns an independent navigator and
trace, so concurrent sessions share no mutable state. Per-session locks are
reference counted and disappear once nobody holds them.
*/
package session
