// Package server implements the MCP (Model Context Protocol) server for the
// sprite cropping tools.
//
// This package provides a JSON-RPC 2.0 server that exposes the croppers and
// the batch runner so that an assistant can inspect sprites, preview frame
// layouts and trim assets without shelling out to the CLI.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Inspection:
//   - sprite_info: Dimensions, format, alpha channel and content bounding box
//   - sprite_bounds: Per-frame and unified bounding boxes of a spritesheet
//
// Cropping:
//   - sprite_crop: Trim a standalone sprite in place
//   - spritesheet_crop: Trim every frame of a sheet to one shared box
//   - spritesheet_guides: Render frame boundaries and the shared box as PNG
//
// Batch:
//   - manifest_run: Process a JSON or YAML manifest in order
//
// The cropping tools accept dry_run to report the result without writing.
//
// # Image Caching
//
// Decoded sprites are cached by path for the lifetime of the process.
// Tools that overwrite a file evict it so later calls see the new pixels.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: Additional error details (typically the Go error string)
//
// A sprite that is skipped (missing, no alpha channel, nothing visible) is
// not an error; the tool returns an outcome with status "skipped".
//
// # Usage
//
//	srv := server.New(version)
//	if err := srv.Run(); err != nil {
//	    glog.Exit(err)
//	}
package server
