package rag

import "fmt"

// Per-stage pipeline errors. The service layer catches all of them at the
// pipeline boundary and downgrades them to a single assistant-role message;
// nothing here is allowed to terminate a session.

type EmbeddingError struct {
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embedding stage failed: %v", e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

type RetrievalError struct {
	Err error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("retrieval stage failed: %v", e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

type CompletionError struct {
	Err error
}

func (e *CompletionError) Error() string {
	return fmt.Sprintf("completion stage failed: %v", e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }
