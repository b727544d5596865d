package roadmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveFolder(t *testing.T) {
	roles := DefaultRoles()

	tests := []struct {
		role    string
		want    string
		wantErr bool
	}{
		{role: "Front End Developer", want: "frontend"},
		{role: "  platform engineer ", want: "devops"},
		{role: "MLOps Engineer", want: "mlops"},
		{role: "golang", want: "golang"},
		{role: "Rust-Lang", want: "rust-lang"},
		{role: "../../etc", wantErr: true},
		{role: "Chief Vibes Officer", wantErr: true},
		{role: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got, err := roles.ResolveFolder(tt.role)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRole)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleListIsOrderedAndTitleCased(t *testing.T) {
	list := DefaultRoles().List()
	require.Len(t, list, 19)
	assert.Equal(t, RoleFolder{Role: "Front End Developer", Folder: "frontend"}, list[0])
	assert.Equal(t, RoleFolder{Role: "Ux Designer", Folder: "ux-design"}, list[16])
	assert.Equal(t, RoleFolder{Role: "Product Manager", Folder: "product-manager"}, list[18])
}

func TestLoadRoles(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "roles.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
roles:
  - role: Software Engineer
    folder: computer-science
  - role: Site Reliability Engineer
    folder: devops
`), 0o644))

	roles, err := LoadRoles(file)
	require.NoError(t, err)

	folder, err := roles.ResolveFolder("software engineer")
	require.NoError(t, err)
	assert.Equal(t, "computer-science", folder)

	folder, err = roles.ResolveFolder("Site Reliability Engineer")
	require.NoError(t, err)
	assert.Equal(t, "devops", folder)

	list := roles.List()
	require.Len(t, list, 20)
	assert.Equal(t, "Site Reliability Engineer", list[19].Role)
}

func TestLoadRolesErrors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadRoles(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("roles:\n  - role: x\n    folder: ../etc\n"), 0o644))
	_, err = LoadRoles(bad)
	assert.Error(t, err)

	roles, err := LoadRoles("")
	require.NoError(t, err)
	assert.Len(t, roles.List(), 19)
}
