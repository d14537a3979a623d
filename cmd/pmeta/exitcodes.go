package main

// Exit codes
const (
	ExitSuccess     = 0 // Success
	ExitError       = 1 // General error (invalid arguments, runtime failure)
	ExitConfigError = 2 // Configuration error (missing library, invalid config)
	ExitDataError   = 3 // Data error (malformed JSONL, unreadable input)
	ExitNotFound    = 4 // Lookup or paper not found
)
