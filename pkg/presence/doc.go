// Package presence tracks which users currently hold a live transport
// connection. The registry is per-process: in a clustered deployment each
// process only knows about the connections it directly holds.
package presence
