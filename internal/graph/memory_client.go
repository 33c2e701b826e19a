package graph

import (
	"context"
	"sync"
)

// MemoryClient is an in-memory Client answering statements registered with
// Respond. It lets repository logic run without a graph database.
type MemoryClient struct {
	mu           sync.Mutex
	responses    map[string]Result
	calls        []ExecutedQuery
	err          error
	connectivity error
	closed       bool
}

// ExecutedQuery captures a cypher statement and parameters executed against the graph.
type ExecutedQuery struct {
	Query  string
	Params map[string]any
}

// NewMemoryClient returns a client that answers every statement with an empty result.
func NewMemoryClient() *MemoryClient {
	return &MemoryClient{responses: make(map[string]Result)}
}

// Respond registers the result returned whenever cypher is executed.
func (m *MemoryClient) Respond(cypher string, res Result) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[cypher] = res
	return m
}

// WithError configures the client to return the provided error for subsequent reads.
func (m *MemoryClient) WithError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
	return m
}

// WithConnectivityError forces VerifyConnectivity to return the supplied error.
func (m *MemoryClient) WithConnectivityError(err error) *MemoryClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.connectivity = err
	return m
}

func (m *MemoryClient) ExecuteRead(ctx context.Context, cypher string, params map[string]any) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return Result{}, err
	}
	if m.err != nil {
		return Result{}, m.err
	}

	m.calls = append(m.calls, ExecutedQuery{
		Query:  cypher,
		Params: cloneMap(params),
	})
	return m.responses[cypher], nil
}

func (m *MemoryClient) VerifyConnectivity(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.connectivity
}

func (m *MemoryClient) Close(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Closed reports whether Close has been called.
func (m *MemoryClient) Closed() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closed
}

// ReadCalls returns a snapshot of executed read queries.
func (m *MemoryClient) ReadCalls() []ExecutedQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]ExecutedQuery(nil), m.calls...)
}

func cloneMap(src map[string]any) map[string]any {
	if src == nil {
		return nil
	}
	dst := make(map[string]any, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
