package graph

import (
	"context"
	"errors"
	"time"
)

// Client is the read-only contract the family repository needs from the
// graph store. Family records are maintained elsewhere; this module never
// writes them.
type Client interface {
	ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error)
	VerifyConnectivity(ctx context.Context) error
	Close(ctx context.Context) error
}

// Result is a simplified representation of a query response.
type Result struct {
	Records []Record
}

// Record groups key-value pairs returned from the graph engine.
type Record map[string]any

// Options configures a graph client implementation.
type Options struct {
	URI            string
	Database       string
	Username       string
	Password       string
	MaxConnections int
	// QueryTimeout is sent to the server as the transaction timeout. Zero
	// defers to the server default.
	QueryTimeout time.Duration
}

// ErrMissingURI indicates the graph URI is not provided.
var ErrMissingURI = errors.New("graph URI is required")
