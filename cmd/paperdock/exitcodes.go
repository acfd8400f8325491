package main

// Exit codes shared by all commands.
const (
	ExitSuccess       = 0 // Success
	ExitError         = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError   = 2 // Configuration error / index not found
	ExitDataError     = 3 // Backend not available (arXiv API, Ollama)
	ExitNotIndexed    = 4 // Paper is not in the semantic index
	ExitModelNotFound = 5 // Embedding model not found
	ExitIndexStale    = 6 // Semantic index is stale
)
