// Package reembed precomputes title embeddings and serves them back to searches.
//
// The Reembedder walks every stored page title in batches, embeds the titles
// with a model variant, normalizes the vectors and stores them in a
// VectorRepository. Embedding calls are retried with exponential backoff.
//
// StoredEmbedder is the read side: an ai.Embedder that answers from the
// vector store and falls back to a live embedder for labels it has not seen,
// writing the new vectors back. StoredProvider wraps an ai.AIProvider so every
// variant gets one.
package reembed
