// Package history provides transcript storage for executed engine commands.
// The in-memory implementation suits tests and interactive sessions; durable
// backends can implement core.HistoryStore.
package history
