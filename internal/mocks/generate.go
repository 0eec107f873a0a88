// Package mocks provides generated mock implementations for testing.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// the auth ports. Hand-written lightweight doubles live in mocks/auth; the
// generated mocks here are for tests that need call expectations.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
package mocks

// Generate mock for UserDirectory interface from internal/ports.
// This creates MockUserDirectory with FindByUsername and Create.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=user_directory_mock.go github.com/curbmap/curbmap-api/internal/ports UserDirectory

// Generate mock for SessionStore interface from internal/ports.
// This creates MockSessionStore with Save, Get, and Delete.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=session_store_mock.go github.com/curbmap/curbmap-api/internal/ports SessionStore
