package domain

import "errors"

var (
	// ErrNotFound indicates resource not found
	ErrNotFound = errors.New("resource not found")
	// ErrValidation indicates invalid request input
	ErrValidation = errors.New("invalid request")
	// ErrUpstreamFetch indicates the content source failed for a page
	ErrUpstreamFetch = errors.New("content source fetch failed")
	// ErrEmbedding indicates the embedding service is unavailable
	ErrEmbedding = errors.New("embedding service failed")
	// ErrVectorIndex indicates the vector index is unavailable
	ErrVectorIndex = errors.New("vector index failed")
	// ErrGeneration indicates the generation service failed
	ErrGeneration = errors.New("generation service failed")
)
