package roadmap

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"gopkg.in/yaml.v3"
)

var ErrInvalidRole = errors.New("role does not map to a roadmap folder")

var folderPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

type RoleFolder struct {
	Role   string `json:"role" yaml:"role"`
	Folder string `json:"folder" yaml:"folder"`
}

var defaultRoles = []RoleFolder{
	{"front end developer", "frontend"},
	{"back end developer", "backend"},
	{"full stack developer", "full-stack"},
	{"devops engineer", "devops"},
	{"platform engineer", "devops"},
	{"cloud engineer", "aws"},
	{"cloud solutions architect", "aws"},
	{"software engineer", "backend"},
	{"data analyst", "data-analyst"},
	{"business intelligence analyst", "bi-analyst"},
	{"data scientist", "ai-data-scientist"},
	{"machine learning engineer", "machine-learning"},
	{"mlops engineer", "mlops"},
	{"artificial intelligence engineer", "ai-engineer"},
	{"cybersecurity analyst", "cyber-security"},
	{"network security engineer", "cyber-security"},
	{"ux designer", "ux-design"},
	{"game developer", "game-developer"},
	{"product manager", "product-manager"},
}

// RoleTable maps quiz roles to dataset folders, keeping insertion order.
type RoleTable struct {
	entries []RoleFolder
	index   map[string]int
}

func DefaultRoles() *RoleTable {
	t := &RoleTable{index: map[string]int{}}
	for _, rf := range defaultRoles {
		t.set(rf.Role, rf.Folder)
	}
	return t
}

// LoadRoles reads a YAML override file on top of the default table.
// Entries for known roles replace the folder; new roles are appended.
//
//	roles:
//	  - role: site reliability engineer
//	    folder: devops
func LoadRoles(path string) (*RoleTable, error) {
	t := DefaultRoles()
	if path == "" {
		return t, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read roles file: %w", err)
	}

	var doc struct {
		Roles []RoleFolder `yaml:"roles"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse roles file %s: %w", path, err)
	}

	for i, rf := range doc.Roles {
		folder := strings.TrimSpace(rf.Folder)
		if strings.TrimSpace(rf.Role) == "" || !folderPattern.MatchString(folder) {
			return nil, fmt.Errorf("roles file %s: entry %d needs a role and a folder matching %s", path, i, folderPattern)
		}
		t.set(rf.Role, folder)
	}
	return t, nil
}

func (t *RoleTable) set(role, folder string) {
	key := normalizeRole(role)
	if i, ok := t.index[key]; ok {
		t.entries[i].Folder = folder
		return
	}
	t.index[key] = len(t.entries)
	t.entries = append(t.entries, RoleFolder{Role: key, Folder: folder})
}

// ResolveFolder returns the folder for role. Unknown roles are used as the
// folder name directly when they look like one.
func (t *RoleTable) ResolveFolder(role string) (string, error) {
	key := normalizeRole(role)
	if i, ok := t.index[key]; ok {
		return t.entries[i].Folder, nil
	}
	if folderPattern.MatchString(key) {
		return key, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, strings.TrimSpace(role))
}

// List returns the table in order with display-cased role names.
func (t *RoleTable) List() []RoleFolder {
	title := cases.Title(language.Und)
	out := make([]RoleFolder, 0, len(t.entries))
	for _, rf := range t.entries {
		out = append(out, RoleFolder{Role: title.String(rf.Role), Folder: rf.Folder})
	}
	return out
}

func normalizeRole(role string) string {
	return strings.ToLower(strings.TrimSpace(role))
}
