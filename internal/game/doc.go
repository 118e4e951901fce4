// Package game holds the static game vocabulary the client speaks: quality
// grades, call targets, and the read-only organism/tool registry.
package game
