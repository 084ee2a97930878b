// Package storage defines the team activity store contract shared by the
// storage adapters, along with sentinel errors and actor context helpers.
//
// Adapters (memory, postgres) implement the ActivityStore interface. The
// team activity enhancer reads from the store; tool handlers write to it
// after git operations complete.
package storage
