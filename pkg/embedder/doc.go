// Package embedder provides query embedding clients: a hosted OpenAI
// implementation, a local EmbedEverything implementation, and a
// Badger-backed caching decorator.
package embedder
