package roadmap

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

const (
	defaultWidth         = 200
	defaultSubtopicWidth = 150
	defaultHeight        = 40
	// Unconnected nodes with labels longer than this are prose blocks.
	maxLooseLabel = 35
)

var skipTypes = map[string]bool{
	"group": true, "label": true, "section": true, "column": true, "title": true,
	"vertical": true, "horizontal": true, "divider": true, "spacer": true,
	"text": true, "note": true, "annotation": true,
}

var skipPhrases = []string{
	"visit ", "roadmap.sh", "beginner friendly",
	"check out", "more details", "for more", "https://",
	"vertical node", "horizontal node",
}

type Node struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Type    string  `json:"type"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
	Content string  `json:"content"`
	Known   bool    `json:"known"`
	// Skipped mirrors Known for the roadmap viewer.
	Skipped bool `json:"skipped"`
}

type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`
	Dashed bool   `json:"dashed"`
}

type Roadmap struct {
	Role   string   `json:"role"`
	Folder string   `json:"folder"`
	Nodes  []Node   `json:"nodes"`
	Edges  []Edge   `json:"edges"`
	Known  []string `json:"known"`
}

type rawDocument struct {
	Nodes []rawNode `json:"nodes"`
	Edges []rawEdge `json:"edges"`
}

type rawNode struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Position map[string]any `json:"position"`
	Style    map[string]any `json:"style"`
	Data     map[string]any `json:"data"`
	Width    any            `json:"width"`
	Height   any            `json:"height"`
}

type rawEdge struct {
	ID     *string        `json:"id"`
	Source string         `json:"source"`
	Target string         `json:"target"`
	Type   any            `json:"type"`
	Style  map[string]any `json:"style"`
}

// contentLookup returns the markdown for a node id, or "".
type contentLookup func(nodeID string) (string, error)

// extract turns a raw roadmap.sh document into the trimmed graph the viewer
// draws. known must already be lowercased and trimmed.
func extract(raw []byte, known map[string]bool, content contentLookup) ([]Node, []Edge, error) {
	var doc rawDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to parse roadmap: %w", err)
	}

	connected := make(map[string]bool, len(doc.Edges)*2)
	for _, e := range doc.Edges {
		connected[endpoint(e.Source)] = true
		connected[endpoint(e.Target)] = true
	}

	nodes := make([]Node, 0, len(doc.Nodes))
	kept := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		label := nodeLabel(n.Data)
		if label == "" {
			continue
		}
		ntype := strings.ToLower(n.Type)
		if skipTypes[ntype] || isAnnotation(label) {
			continue
		}
		if !connected[n.ID] && len([]rune(label)) > maxLooseLabel {
			continue
		}

		w, h := nodeSize(n, ntype)
		md, err := content(n.ID)
		if err != nil {
			return nil, nil, err
		}

		isKnown := known[strings.ToLower(label)]
		nodes = append(nodes, Node{
			ID:      n.ID,
			Label:   label,
			Type:    ntype,
			X:       number(n.Position["x"]),
			Y:       number(n.Position["y"]),
			W:       w,
			H:       h,
			Content: md,
			Known:   isKnown,
			Skipped: isKnown,
		})
		kept[n.ID] = true
	}

	edges := make([]Edge, 0, len(doc.Edges))
	for _, e := range doc.Edges {
		src, tgt := endpoint(e.Source), endpoint(e.Target)
		if !kept[src] || !kept[tgt] {
			continue
		}
		id := src + "-" + tgt
		if e.ID != nil {
			id = *e.ID
		}
		edges = append(edges, Edge{
			ID:     id,
			Source: src,
			Target: tgt,
			Dashed: truthy(e.Style["strokeDasharray"]) ||
				strings.Contains(strings.ToLower(stringify(e.Type)), "dashed"),
		})
	}
	return nodes, edges, nil
}

// endpoint drops the handle suffix roadmap.sh appends after "__".
func endpoint(s string) string {
	id, _, _ := strings.Cut(s, "__")
	return id
}

func nodeLabel(data map[string]any) string {
	for _, key := range []string{"label", "title", "text"} {
		if v, ok := data[key]; ok {
			return stripTags(stringify(v))
		}
	}
	return ""
}

func isAnnotation(label string) bool {
	low := strings.ToLower(label)
	for _, p := range skipPhrases {
		if strings.Contains(low, p) {
			return true
		}
	}
	return false
}

func nodeSize(n rawNode, ntype string) (float64, float64) {
	var w any = defaultWidth
	if ntype == "subtopic" {
		w = defaultSubtopicWidth
	}
	var h any = defaultHeight

	w = firstTruthy(n.Style["width"], n.Data["width"], n.Width, w)
	h = firstTruthy(n.Style["height"], n.Data["height"], n.Height, h)

	wf, errW := dimension(w)
	hf, errH := dimension(h)
	if errW != nil || errH != nil {
		return defaultWidth, defaultHeight
	}
	return wf, hf
}

func firstTruthy(values ...any) any {
	for _, v := range values {
		if truthy(v) {
			return v
		}
	}
	return values[len(values)-1]
}

func dimension(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case int:
		return float64(t), nil
	case string:
		return strconv.ParseFloat(strings.TrimSpace(strings.ReplaceAll(t, "px", "")), 64)
	default:
		return 0, fmt.Errorf("unsupported dimension %v", v)
	}
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	case string:
		return t != ""
	case []any:
		return len(t) > 0
	case map[string]any:
		return len(t) > 0
	default:
		return true
	}
}

func number(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, _ := strconv.ParseFloat(t, 64)
		return f
	default:
		return 0
	}
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}
