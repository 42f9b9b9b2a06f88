package server

import (
	"encoding/base64"
	"encoding/json"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/vincent-petithory/dataurl"

	"github.com/ironsheep/sprite-crop/internal/batch"
	"github.com/ironsheep/sprite-crop/internal/imaging"
	"github.com/ironsheep/sprite-crop/internal/manifest"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "sprite_info", "spritesheet_crop").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Skipped sprites are not errors; they come back as results with
// status "skipped".
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	switch name {
	// Inspection
	case "sprite_info":
		return s.handleSpriteInfo(args)
	case "sprite_bounds":
		return s.handleSpriteBounds(args)

	// Cropping
	case "sprite_crop":
		return s.handleSpriteCrop(args)
	case "spritesheet_crop":
		return s.handleSpritesheetCrop(args)
	case "spritesheet_guides":
		return s.handleSpritesheetGuides(args)

	// Batch
	case "manifest_run":
		return s.handleManifestRun(args)

	default:
		return nil, errors.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message, data string) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// unmarshalArgs decodes tool arguments, treating missing arguments as an
// empty object.
func unmarshalArgs(args json.RawMessage, v interface{}) error {
	if len(args) == 0 {
		return nil
	}
	if err := json.Unmarshal(args, v); err != nil {
		return errors.Wrap(err, "invalid arguments")
	}
	return nil
}

// === Inspection Handlers ===

type spriteInfoArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleSpriteInfo(args json.RawMessage) (interface{}, error) {
	var a spriteInfoArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return imaging.LoadImageInfo(s.cache, a.Path)
}

type spriteBoundsArgs struct {
	Path   string `json:"path"`
	Frames int    `json:"frames"`
}

// SpriteBoundsResult describes the content boxes of a sprite or sheet.
type SpriteBoundsResult struct {
	Width       int                  `json:"width"`
	Height      int                  `json:"height"`
	HasAlpha    bool                 `json:"has_alpha"`
	Frames      int                  `json:"frames"`
	FrameWidth  int                  `json:"frame_width"`
	Remainder   int                  `json:"remainder"`
	FrameBoxes  []imaging.FrameBox   `json:"frame_boxes,omitempty"`
	UnifiedBox  *imaging.BoundingBox `json:"unified_bbox,omitempty"`
	UnifiedSize *imaging.Size        `json:"unified_size,omitempty"`
}

func (s *Server) handleSpriteBounds(args json.RawMessage) (interface{}, error) {
	var a spriteBoundsArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Frames == 0 {
		a.Frames = 1
	}
	if a.Frames < 1 {
		return nil, imaging.ErrFrameCount
	}

	asset, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	size := imaging.SizeOf(asset.Image)
	frameW := size.Width / a.Frames

	result := &SpriteBoundsResult{
		Width:      size.Width,
		Height:     size.Height,
		HasAlpha:   asset.HasAlpha,
		Frames:     a.Frames,
		FrameWidth: frameW,
		Remainder:  size.Width - frameW*a.Frames,
	}
	if !asset.HasAlpha {
		return result, nil
	}

	result.FrameBoxes = imaging.FrameBounds(asset.Image, a.Frames)
	if box, ok := imaging.UnifiedBounds(asset.Image, a.Frames); ok {
		result.UnifiedBox = &box
		boxSize := box.Size()
		result.UnifiedSize = &boxSize
	}
	return result, nil
}

// === Cropping Handlers ===

type spriteCropArgs struct {
	Path   string `json:"path"`
	Frames int    `json:"frames"`
	DryRun bool   `json:"dry_run"`
}

func (s *Server) handleSpriteCrop(args json.RawMessage) (interface{}, error) {
	var a spriteCropArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	return s.cropEntry(a.Path, manifest.Entry{Kind: manifest.KindSingle}, a.DryRun)
}

func (s *Server) handleSpritesheetCrop(args json.RawMessage) (interface{}, error) {
	var a spriteCropArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}
	if a.Frames < 1 {
		return nil, imaging.ErrFrameCount
	}
	return s.cropEntry(a.Path, manifest.Entry{Kind: manifest.KindSheet, Frames: a.Frames}, a.DryRun)
}

// cropEntry runs one file through the batch runner so the tools and the
// CLI share skip classification and save behavior.
func (s *Server) cropEntry(path string, e manifest.Entry, dryRun bool) (*batch.Outcome, error) {
	if path == "" {
		return nil, errors.New("path is required")
	}
	e.Name = filepath.Base(path)

	o := batch.NewRunner(batch.Options{DryRun: dryRun}).Process(filepath.Dir(path), e)
	if o.Written {
		s.cache.Evict(path)
	}
	if o.Status == batch.StatusFailed {
		return nil, o.Err
	}
	return &o, nil
}

type spritesheetGuidesArgs struct {
	Path       string `json:"path"`
	Frames     int    `json:"frames"`
	FrameColor string `json:"frame_color"`
	BoxColor   string `json:"box_color"`
	Labels     *bool  `json:"labels"`
}

// SpritesheetGuidesResult adds a data URL to imaging.GuidesResult so
// clients can display the image directly.
type SpritesheetGuidesResult struct {
	*imaging.GuidesResult
	DataURL string `json:"data_url"`
}

func (s *Server) handleSpritesheetGuides(args json.RawMessage) (interface{}, error) {
	var a spritesheetGuidesArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	style := imaging.DefaultGuideStyle
	if a.FrameColor != "" {
		style.FrameColor = a.FrameColor
	}
	if a.BoxColor != "" {
		style.BoxColor = a.BoxColor
	}
	if a.Labels != nil {
		style.Labels = *a.Labels
	}

	asset, err := s.cache.Load(a.Path)
	if err != nil {
		return nil, err
	}
	guides, err := imaging.FrameGuides(asset.Image, a.Frames, style)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(guides.ImageBase64)
	if err != nil {
		return nil, errors.Wrap(err, "failed to build data URL")
	}
	return &SpritesheetGuidesResult{
		GuidesResult: guides,
		DataURL:      dataurl.New(data, guides.MimeType).String(),
	}, nil
}

// === Batch Handlers ===

type manifestRunArgs struct {
	Manifest   string `json:"manifest"`
	SpritesDir string `json:"sprites_dir"`
	DryRun     bool   `json:"dry_run"`
}

func (s *Server) handleManifestRun(args json.RawMessage) (interface{}, error) {
	var a manifestRunArgs
	if err := unmarshalArgs(args, &a); err != nil {
		return nil, err
	}

	m := manifest.Default()
	if a.Manifest != "" {
		var err error
		if m, err = manifest.LoadFromFile(a.Manifest); err != nil {
			return nil, err
		}
	}
	if a.SpritesDir != "" {
		m.Dir = a.SpritesDir
	}

	report := batch.NewRunner(batch.Options{DryRun: a.DryRun}).Run(m)
	if cropped, _, _ := report.Counts(); cropped > 0 && !a.DryRun {
		// Paths in the report may be spelled differently from the ones
		// earlier tools were called with.
		s.cache.Clear()
	}
	return report, nil
}
