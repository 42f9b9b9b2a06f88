package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var pathProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to the sprite image file",
}

var dryRunProperty = map[string]interface{}{
	"type":        "boolean",
	"description": "Compute the crop and report it without writing the file. Default false",
	"default":     false,
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Inspection
		{
			Name:        "sprite_info",
			Description: "Load a sprite and return its dimensions, format, whether it has an alpha channel, and the bounding box of its visible content.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "sprite_bounds",
			Description: "Split a horizontal spritesheet into equal-width frames and return each frame's content bounding box plus the unified box covering all of them. Coordinates are frame-local.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"frames": map[string]interface{}{
						"type":        "integer",
						"description": "Number of frames laid out left to right. Default 1",
						"default":     1,
						"minimum":     1,
					},
				},
				"required": []string{"path"},
			},
		},

		// Cropping
		{
			Name:        "sprite_crop",
			Description: "Trim a standalone sprite to the bounding box of its non-transparent pixels and overwrite the file. Images without alpha or without visible content are skipped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path":    pathProperty,
					"dry_run": dryRunProperty,
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "spritesheet_crop",
			Description: "Trim every frame of a horizontal spritesheet to one shared bounding box and reassemble the sheet so all frames keep identical dimensions. Overwrites the file.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"frames": map[string]interface{}{
						"type":        "integer",
						"description": "Number of frames laid out left to right",
						"minimum":     1,
					},
					"dry_run": dryRunProperty,
				},
				"required": []string{"path", "frames"},
			},
		},
		{
			Name:        "spritesheet_guides",
			Description: "Render a spritesheet with frame boundaries and the unified content box drawn on top. Returns a base64-encoded PNG and a data URL. Use this to check a frame count before cropping.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": pathProperty,
					"frames": map[string]interface{}{
						"type":        "integer",
						"description": "Number of frames laid out left to right",
						"minimum":     1,
					},
					"frame_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex color for frame boundaries. Default #FF00FF",
						"default":     "#FF00FF",
					},
					"box_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex color for the content box. Default #00FFFF",
						"default":     "#00FFFF",
					},
					"labels": map[string]interface{}{
						"type":        "boolean",
						"description": "Draw frame indices. Default true",
						"default":     true,
					},
				},
				"required": []string{"path", "frames"},
			},
		},

		// Batch
		{
			Name:        "manifest_run",
			Description: "Process every sprite listed in a manifest file (JSON or YAML), in order, and return one outcome per entry. Without a manifest path the built-in default list is used.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"manifest": map[string]interface{}{
						"type":        "string",
						"description": "Path to a .json, .yaml or .yml manifest. Optional",
					},
					"sprites_dir": map[string]interface{}{
						"type":        "string",
						"description": "Overrides the sprites directory named in the manifest. Optional",
					},
					"dry_run": dryRunProperty,
				},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
