// Package startup handles configuration loading, directory validation,
// and the structured startup/shutdown log output for camwatch.
package startup
