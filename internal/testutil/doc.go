// Package testutil contains helper builders used across tests to reduce
// boilerplate when constructing Conversation States and tool traffic. Not
// intended for production usage.
package testutil
