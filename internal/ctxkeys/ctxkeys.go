// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package ctxkeys defines typed context keys used across packages.
package ctxkeys

// Admin is the context key for the authenticated admin.
type Admin struct{}

// RequestID is the context key for the request ID assigned by the server.
type RequestID struct{}
