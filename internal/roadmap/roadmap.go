// Package roadmap builds learning roadmaps for a target role from the
// roadmap.sh dataset, marking the skills the user already has.
package roadmap

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"

	"github.com/baxromumarov/velocity/internal/observability"
)

const dataRoot = "src/data/roadmaps"

var ErrNotFound = errors.New("roadmap not found")

type Service struct {
	source Source
	roles  *RoleTable
}

func NewService(source Source, roles *RoleTable) *Service {
	if roles == nil {
		roles = DefaultRoles()
	}
	return &Service{source: source, roles: roles}
}

func (s *Service) Roles() []RoleFolder {
	return s.roles.List()
}

// Build loads the roadmap for role. Unknown roles and missing datasets
// return ErrNotFound.
func (s *Service) Build(ctx context.Context, role string, known []string) (*Roadmap, error) {
	observability.IncRoadmapRequest()

	role = strings.TrimSpace(role)
	folder, err := s.roles.ResolveFolder(role)
	if err != nil {
		return nil, fmt.Errorf("%w for role '%s': %w", ErrNotFound, role, err)
	}

	dir := path.Join(dataRoot, folder)
	raw, err := s.source.ReadFile(ctx, path.Join(dir, folder+".json"))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w for role '%s' (folder: '%s')", ErrNotFound, role, folder)
	}
	if err != nil {
		observability.IncError("roadmap_source", "roadmap")
		return nil, fmt.Errorf("failed to read roadmap %s: %w", folder, err)
	}

	knownSet := make(map[string]bool, len(known))
	for _, k := range known {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			knownSet[k] = true
		}
	}

	lookup, err := s.contentLookup(ctx, path.Join(dir, "content"))
	if err != nil {
		return nil, err
	}

	nodes, edges, err := extract(raw, knownSet, lookup)
	if err != nil {
		observability.IncError(observability.ErrorParsing, "roadmap")
		return nil, fmt.Errorf("extraction failed for %s: %w", folder, err)
	}

	knownList := make([]string, 0, len(knownSet))
	for k := range knownSet {
		knownList = append(knownList, k)
	}
	sort.Strings(knownList)

	return &Roadmap{
		Role:   role,
		Folder: folder,
		Nodes:  nodes,
		Edges:  edges,
		Known:  knownList,
	}, nil
}

// contentLookup indexes the content directory once. Markdown files are named
// "<slug>@<node id>.md"; the first file in name order wins a given id.
func (s *Service) contentLookup(ctx context.Context, dir string) (contentLookup, error) {
	names, err := s.source.ListFiles(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list roadmap content: %w", err)
	}

	byID := make(map[string]string)
	for _, name := range names {
		stem, ok := strings.CutSuffix(name, ".md")
		if !ok {
			continue
		}
		at := strings.LastIndex(stem, "@")
		if at < 0 {
			continue
		}
		if id := stem[at+1:]; id != "" {
			if _, seen := byID[id]; !seen {
				byID[id] = name
			}
		}
	}

	return func(nodeID string) (string, error) {
		name, ok := byID[nodeID]
		if !ok {
			name, ok = byID[strings.TrimRight(nodeID, "-")]
		}
		if !ok {
			return "", nil
		}
		data, err := s.source.ReadFile(ctx, path.Join(dir, name))
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", name, err)
		}
		return string(data), nil
	}, nil
}
