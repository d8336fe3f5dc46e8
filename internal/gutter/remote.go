package gutter

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"net/http"
	"strings"
	"time"

	"lightplan/internal/fixture"
	limage "lightplan/internal/image"
	"lightplan/pkg/geometry"
)

// Space is the coordinate system of line endpoints in a service response.
type Space int

const (
	SpaceAuto Space = iota
	SpaceFraction
	SpacePercent
	SpacePixels
)

// ParseSpace maps a response "units" value to a Space.
func ParseSpace(s string) Space {
	switch strings.ToLower(s) {
	case "fraction", "normalized", "relative", "unit":
		return SpaceFraction
	case "percent", "percentage", "%":
		return SpacePercent
	case "pixel", "pixels", "px", "absolute":
		return SpacePixels
	}
	return SpaceAuto
}

// maxResponseBytes bounds how much of a service response is read.
const maxResponseBytes = 4 << 20

// RemoteStage posts the image to an HTTP line-detection service.
type RemoteStage struct {
	name       string
	url        string
	apiKey     string
	httpClient *http.Client
}

// NewRemoteStage creates a stage calling url. An empty apiKey sends no
// Authorization header.
func NewRemoteStage(name, url, apiKey string, timeout time.Duration) *RemoteStage {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &RemoteStage{
		name:       name,
		url:        url,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Name returns the stage tag reported with its results.
func (s *RemoteStage) Name() string {
	return s.name
}

type detectRequest struct {
	ImageBase64 string `json:"imageBase64"`
	MimeType    string `json:"mimeType"`
	MaxLines    int    `json:"maxLines"`
}

// Detect sends the image and parses the returned lines.
func (s *RemoteStage) Detect(ctx context.Context, img image.Image, maxLines int) ([]fixture.MountingLine, error) {
	if s.url == "" {
		return nil, fmt.Errorf("%s: no endpoint configured", s.name)
	}
	data, err := limage.Encode(img, limage.FormatJPEG, 85)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(detectRequest{
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    limage.FormatJPEG.MIMEType(),
		MaxLines:    maxLines,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.apiKey)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", s.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s returned status %d", s.name, resp.StatusCode)
	}
	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read %s response: %w", s.name, err)
	}

	b := img.Bounds()
	return ParseLines(raw, b.Dx(), b.Dy())
}

// lineKeys are the response fields that may hold the line list.
var lineKeys = []string{"lines", "mountingLines", "gutterLines", "gutters", "segments", "detections", "results"}

// ParseLines extracts mounting lines from a service response. It accepts a
// bare list or an object holding the list under one of several keys
// (possibly nested under "data"), with each line given as start/end
// objects, x1/y1/x2/y2 fields, startX/startY/endX/endY fields, a point
// list, a pair of [x, y] arrays or a flat [x1, y1, x2, y2] array.
// Coordinates may be fractions, percent or pixels of a w x h image.
func ParseLines(raw []byte, w, h int) ([]fixture.MountingLine, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("malformed detector response: %w", err)
	}

	space := SpaceAuto
	items, ok := findList(doc, &space)
	if !ok {
		return nil, fmt.Errorf("detector response has no line list")
	}

	type seg struct {
		id   string
		a, b geometry.Point2D
	}
	var segs []seg
	maxCoord := 0.0
	for _, it := range items {
		a, b, ok := endpoints(it)
		if !ok {
			continue
		}
		id := ""
		if m, isMap := it.(map[string]any); isMap {
			id, _ = m["id"].(string)
		}
		segs = append(segs, seg{id: id, a: a, b: b})
		for _, v := range []float64{a.X, a.Y, b.X, b.Y} {
			maxCoord = max(maxCoord, v)
		}
	}

	if space == SpaceAuto {
		switch {
		case maxCoord <= 1:
			space = SpaceFraction
		case maxCoord <= 100:
			space = SpacePercent
		default:
			space = SpacePixels
		}
	}

	lines := make([]fixture.MountingLine, 0, len(segs))
	for _, s := range segs {
		a := toPercent(s.a, space, w, h)
		b := toPercent(s.b, space, w, h)
		lines = append(lines, fixture.MountingLine{
			ID:     s.id,
			StartX: a.X, StartY: a.Y,
			EndX: b.X, EndY: b.Y,
		})
	}
	return lines, nil
}

// findList locates the line array, recording any declared units.
func findList(doc any, space *Space) ([]any, bool) {
	switch v := doc.(type) {
	case []any:
		return v, true
	case map[string]any:
		for _, k := range []string{"units", "coordinateSpace", "coordinates", "space"} {
			if s, ok := v[k].(string); ok {
				if sp := ParseSpace(s); sp != SpaceAuto {
					*space = sp
				}
			}
		}
		for _, k := range lineKeys {
			if list, ok := v[k].([]any); ok {
				return list, true
			}
		}
		if inner, ok := v["data"]; ok {
			return findList(inner, space)
		}
	}
	return nil, false
}

// endpoints reads the two ends of one line item in any accepted shape.
func endpoints(it any) (geometry.Point2D, geometry.Point2D, bool) {
	switch v := it.(type) {
	case []any:
		if len(v) == 4 {
			if n, ok := numbers(v); ok {
				return geometry.Point2D{X: n[0], Y: n[1]}, geometry.Point2D{X: n[2], Y: n[3]}, true
			}
		}
		return pointList(v)
	case map[string]any:
		if a, ok := point(v["start"]); ok {
			if b, ok := point(v["end"]); ok {
				return a, b, true
			}
		}
		if a, ok := point(v["p1"]); ok {
			if b, ok := point(v["p2"]); ok {
				return a, b, true
			}
		}
		for _, keys := range [][4]string{
			{"x1", "y1", "x2", "y2"},
			{"startX", "startY", "endX", "endY"},
			{"start_x", "start_y", "end_x", "end_y"},
		} {
			if n, ok := fields(v, keys[:]...); ok {
				return geometry.Point2D{X: n[0], Y: n[1]}, geometry.Point2D{X: n[2], Y: n[3]}, true
			}
		}
		for _, k := range []string{"points", "line", "coords"} {
			if list, ok := v[k].([]any); ok {
				return endpoints(list)
			}
		}
	}
	return geometry.Point2D{}, geometry.Point2D{}, false
}

// pointList uses the first and last points of a polyline.
func pointList(v []any) (geometry.Point2D, geometry.Point2D, bool) {
	if len(v) < 2 {
		return geometry.Point2D{}, geometry.Point2D{}, false
	}
	a, ok := point(v[0])
	if !ok {
		return geometry.Point2D{}, geometry.Point2D{}, false
	}
	b, ok := point(v[len(v)-1])
	if !ok {
		return geometry.Point2D{}, geometry.Point2D{}, false
	}
	return a, b, true
}

// point reads {x, y} or [x, y].
func point(v any) (geometry.Point2D, bool) {
	switch p := v.(type) {
	case map[string]any:
		if n, ok := fields(p, "x", "y"); ok {
			return geometry.Point2D{X: n[0], Y: n[1]}, true
		}
	case []any:
		if len(p) == 2 {
			if n, ok := numbers(p); ok {
				return geometry.Point2D{X: n[0], Y: n[1]}, true
			}
		}
	}
	return geometry.Point2D{}, false
}

func fields(m map[string]any, keys ...string) ([]float64, bool) {
	out := make([]float64, len(keys))
	for i, k := range keys {
		f, ok := m[k].(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}

func numbers(v []any) ([]float64, bool) {
	out := make([]float64, len(v))
	for i, x := range v {
		f, ok := x.(float64)
		if !ok {
			return nil, false
		}
		out[i] = f
	}
	return out, true
}
