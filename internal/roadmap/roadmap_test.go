package roadmap

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const backendJSON = `{
  "nodes": [
    {"id": "intro", "type": "topic", "position": {"x": 10, "y": 20}, "data": {"label": "<b>Internet</b>"}},
    {"id": "http-", "type": "subtopic", "position": {"x": 30, "y": 40}, "data": {"label": "HTTP"}},
    {"id": "dns", "type": "subtopic", "position": {"x": 50, "y": 60}, "style": {"width": "180px", "height": 50}, "data": {"label": "DNS &amp; Domains"}},
    {"id": "title1", "type": "title", "data": {"label": "Backend"}},
    {"id": "ad", "type": "topic", "data": {"label": "Visit roadmap.sh for more"}},
    {"id": "prose", "type": "paragraph", "data": {"label": "This is a long explanation that is not a skill at all"}},
    {"id": "blank", "type": "topic", "data": {"label": "   "}},
    {"id": "lang", "type": "Topic", "data": {"title": "Go"}, "width": 0},
    {"id": "weird", "type": "topic", "data": {"label": "Caching", "width": "wide"}}
  ],
  "edges": [
    {"id": "e1", "source": "intro__bottom", "target": "http-__top"},
    {"source": "http-", "target": "dns", "style": {"strokeDasharray": "0.8 8"}},
    {"id": "e3", "source": "dns", "target": "title1"},
    {"id": "e4", "source": "intro", "target": "lang", "type": "smoothstep-dashed"}
  ]
}`

func testSource() *FSSource {
	return NewFSSource(fstest.MapFS{
		"src/data/roadmaps/backend/backend.json":              {Data: []byte(backendJSON)},
		"src/data/roadmaps/backend/content/internet@intro.md": {Data: []byte("# Internet")},
		"src/data/roadmaps/backend/content/http@http.md":      {Data: []byte("# HTTP")},
		"src/data/roadmaps/backend/content/readme.md":         {Data: []byte("ignored")},
		"src/data/roadmaps/broken/broken.json":                {Data: []byte("{")},
		"src/data/roadmaps/frontend/frontend.json":            {Data: []byte(`{"nodes":[],"edges":[]}`)},
	})
}

func nodeByID(r *Roadmap, id string) *Node {
	for i := range r.Nodes {
		if r.Nodes[i].ID == id {
			return &r.Nodes[i]
		}
	}
	return nil
}

func TestBuild(t *testing.T) {
	svc := NewService(testSource(), nil)

	r, err := svc.Build(context.Background(), " Software Engineer ", []string{"http", " GO ", ""})
	require.NoError(t, err)
	assert.Equal(t, "Software Engineer", r.Role)
	assert.Equal(t, "backend", r.Folder)
	assert.Equal(t, []string{"go", "http"}, r.Known)

	ids := make([]string, 0, len(r.Nodes))
	for _, n := range r.Nodes {
		ids = append(ids, n.ID)
	}
	assert.Equal(t, []string{"intro", "http-", "dns", "lang", "weird"}, ids)

	intro := nodeByID(r, "intro")
	assert.Equal(t, "Internet", intro.Label)
	assert.Equal(t, "# Internet", intro.Content)
	assert.Equal(t, 10.0, intro.X)
	assert.Equal(t, 20.0, intro.Y)
	assert.Equal(t, 200.0, intro.W)
	assert.Equal(t, 40.0, intro.H)
	assert.False(t, intro.Known)

	http := nodeByID(r, "http-")
	assert.Equal(t, "# HTTP", http.Content, "trailing dash is ignored for content lookup")
	assert.Equal(t, 150.0, http.W)
	assert.True(t, http.Known)
	assert.True(t, http.Skipped)

	dns := nodeByID(r, "dns")
	assert.Equal(t, "DNS & Domains", dns.Label)
	assert.Equal(t, 180.0, dns.W)
	assert.Equal(t, 50.0, dns.H)
	assert.Equal(t, "", dns.Content)

	lang := nodeByID(r, "lang")
	assert.Equal(t, "topic", lang.Type)
	assert.True(t, lang.Known)

	weird := nodeByID(r, "weird")
	assert.Equal(t, 200.0, weird.W)
	assert.Equal(t, 40.0, weird.H)

	require.Len(t, r.Edges, 3)
	assert.Equal(t, Edge{ID: "e1", Source: "intro", Target: "http-"}, r.Edges[0])
	assert.Equal(t, Edge{ID: "http--dns", Source: "http-", Target: "dns", Dashed: true}, r.Edges[1])
	assert.Equal(t, Edge{ID: "e4", Source: "intro", Target: "lang", Dashed: true}, r.Edges[2])
}

func TestBuildNotFound(t *testing.T) {
	svc := NewService(testSource(), nil)

	_, err := svc.Build(context.Background(), "Game Developer", nil)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = svc.Build(context.Background(), "../secrets", nil)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestBuildMalformedDataset(t *testing.T) {
	svc := NewService(testSource(), nil)

	_, err := svc.Build(context.Background(), "broken", nil)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestBuildEmptyRoadmap(t *testing.T) {
	svc := NewService(testSource(), nil)

	r, err := svc.Build(context.Background(), "Front End Developer", nil)
	require.NoError(t, err)
	assert.Empty(t, r.Nodes)
	assert.NotNil(t, r.Nodes)
	assert.NotNil(t, r.Edges)
	assert.Equal(t, []string{}, r.Known)
}

func TestStripTags(t *testing.T) {
	assert.Equal(t, "Go", stripTags("  Go "))
	assert.Equal(t, "Version Control", stripTags(`<span class="x">Version</span> <i>Control</i>`))
	assert.Equal(t, "C & C++", stripTags("C &amp; C++"))
	assert.Equal(t, "", stripTags("<br/>"))
}

func TestFSSourceListFiles(t *testing.T) {
	src := testSource()

	names, err := src.ListFiles(context.Background(), "src/data/roadmaps/backend/content")
	require.NoError(t, err)
	assert.Equal(t, []string{"http@http.md", "internet@intro.md", "readme.md"}, names)

	names, err = src.ListFiles(context.Background(), "src/data/roadmaps/missing/content")
	require.NoError(t, err)
	assert.Empty(t, names)
}
