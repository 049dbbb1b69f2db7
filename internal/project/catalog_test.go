package project

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func newTestCatalog(t *testing.T) (*Catalog, string) {
	t.Helper()
	root := filepath.Join(t.TempDir(), "projects")
	return NewCatalog(StaticRoot(root)), root
}

func TestListCreatesRootAndDescribesProjects(t *testing.T) {
	t.Parallel()
	c, root := newTestCatalog(t)

	projects, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, projects)
	assert.DirExists(t, root)

	writeFile(t, filepath.Join(root, "shop", "package.json"), `{"scripts":{"dev":"next dev"}}`)
	writeFile(t, filepath.Join(root, "shop", "pnpm-lock.yaml"), "")
	writeFile(t, filepath.Join(root, "blog", SettingsFile), "{}")
	writeFile(t, filepath.Join(root, "notes.txt"), "not a project")

	c.Invalidate()
	projects, err = c.List()
	require.NoError(t, err)
	require.Len(t, projects, 2)

	assert.Equal(t, "blog", projects[0].Name)
	assert.True(t, projects[0].HasSettings)
	assert.Empty(t, projects[0].Commands)

	assert.Equal(t, "shop", projects[1].Name)
	assert.Equal(t, filepath.Join(root, "shop"), projects[1].Path)
	assert.False(t, projects[1].HasSettings)
	assert.Equal(t, "pnpm", projects[1].PackageManager)
	assert.Equal(t, []string{"pnpm run dev"}, projects[1].Commands)
}

func TestListIsCached(t *testing.T) {
	t.Parallel()
	root := filepath.Join(t.TempDir(), "projects")
	c := NewCatalog(StaticRoot(root), WithTTL(time.Hour))

	_, err := c.List()
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "late"), 0o755))

	projects, err := c.List()
	require.NoError(t, err)
	assert.Empty(t, projects, "cached list should not see the new directory")

	c.Invalidate()
	projects, err = c.List()
	require.NoError(t, err)
	assert.Len(t, projects, 1)
}

func TestListRootError(t *testing.T) {
	t.Parallel()
	boom := errors.New("settings unavailable")
	c := NewCatalog(func() (string, error) { return "", boom })
	_, err := c.List()
	assert.ErrorIs(t, err, boom)
}

func TestDir(t *testing.T) {
	t.Parallel()
	c, root := newTestCatalog(t)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "site"), 0o755))
	writeFile(t, filepath.Join(root, "file"), "x")

	dir, err := c.Dir("site")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "site"), dir)

	for _, id := range []string{"", ".", "..", "../etc", "a/b", `a\b`} {
		_, err := c.Dir(id)
		assert.ErrorIs(t, err, ErrInvalidPath, "id %q", id)
	}
	for _, id := range []string{"missing", "file"} {
		_, err := c.Dir(id)
		assert.ErrorIs(t, err, ErrProjectNotFound, "id %q", id)
	}
}

func TestPages(t *testing.T) {
	t.Parallel()
	c, root := newTestCatalog(t)
	site := filepath.Join(root, "site")
	writeFile(t, filepath.Join(site, "app", "page.tsx"), "home")
	writeFile(t, filepath.Join(site, "app", "about", "page.tsx"), "about")
	writeFile(t, filepath.Join(site, "app", "blog", "[slug]", "page.tsx"), "post")
	writeFile(t, filepath.Join(site, "apple", "page.tsx"), "fruit")
	writeFile(t, filepath.Join(site, "page.tsx"), "top")
	writeFile(t, filepath.Join(site, "node_modules", "pkg", "page.tsx"), "ignored")
	writeFile(t, filepath.Join(site, "app", "layout.tsx"), "ignored")

	pages, err := c.Pages("site")
	require.NoError(t, err)
	assert.Equal(t, []Page{
		{Path: "/app/about/page.tsx", Name: "about"},
		{Path: "/app/blog/[slug]/page.tsx", Name: "blog/[slug]"},
		{Path: "/app/page.tsx", Name: "root"},
		{Path: "/apple/page.tsx", Name: "/apple"},
		{Path: "/page.tsx", Name: "root"},
	}, pages)
}

func TestPagesUnknownProject(t *testing.T) {
	t.Parallel()
	c, _ := newTestCatalog(t)
	_, err := c.Pages("ghost")
	assert.ErrorIs(t, err, ErrProjectNotFound)
}

func TestPageContent(t *testing.T) {
	t.Parallel()
	c, root := newTestCatalog(t)
	writeFile(t, filepath.Join(root, "site", "app", "page.tsx"), "export default function Home() {}")
	writeFile(t, filepath.Join(root, "secret.txt"), "nope")

	got, err := c.PageContent("site", "/app/page.tsx")
	require.NoError(t, err)
	assert.Equal(t, "export default function Home() {}", got)

	_, err = c.PageContent("site", "")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = c.PageContent("site", "../secret.txt")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = c.PageContent("site", "/app/missing.tsx")
	assert.ErrorIs(t, err, ErrPageNotFound)
}
