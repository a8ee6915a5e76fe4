package catalog

import (
	"errors"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/require"
)

func TestDefaultCatalogMatchesStorefront(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Equal(t, 8, c.Len())

	all := c.All()
	ids := make([]int, 0, len(all))
	for _, p := range all {
		ids = append(ids, p.ID)
		require.NotEmpty(t, p.Images, "product %d should have images", p.ID)
	}
	require.Equal(t, []int{1, 2, 3, 4, 5, 6, 8, 9}, ids)

	red, err := c.Get(1)
	require.NoError(t, err)
	require.Equal(t, "Kingship Unfazed (Red)", red.Name)
	require.EqualValues(t, 23000, red.Price)
	require.Len(t, red.Images, 2)
	require.Contains(t, string(red.DescriptionHTML), "<strong>royal red</strong>")

	tee, err := c.Get(3)
	require.NoError(t, err)
	require.Len(t, tee.Images, 3)
}

func TestGetUnknownProduct(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	_, err = c.Get(7)
	require.ErrorIs(t, err, ErrNotFound)
	require.True(t, IsNotFound(err))
}

func TestAllReturnsCopies(t *testing.T) {
	c, err := New([]Product{{ID: 1, Name: "A", Price: 10, Images: []string{"/a.jpg"}}})
	require.NoError(t, err)

	all := c.All()
	all[0].Images[0] = "/mutated.jpg"
	all[0].Name = "B"

	p, err := c.Get(1)
	require.NoError(t, err)
	require.Equal(t, "A", p.Name)
	require.Equal(t, "/a.jpg", p.Images[0])
}

func TestNewRejectsInvalidProducts(t *testing.T) {
	cases := map[string][]Product{
		"duplicate id": {
			{ID: 1, Name: "A", Images: []string{"/a.jpg"}},
			{ID: 1, Name: "B", Images: []string{"/b.jpg"}},
		},
		"no images":      {{ID: 1, Name: "A"}},
		"negative price": {{ID: 1, Name: "A", Price: -1, Images: []string{"/a.jpg"}}},
		"blank name":     {{ID: 1, Name: "  ", Images: []string{"/a.jpg"}}},
		"zero id":        {{ID: 0, Name: "A", Images: []string{"/a.jpg"}}},
	}
	for name, products := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := New(products)
			if !errors.Is(err, ErrInvalidProduct) {
				t.Fatalf("expected ErrInvalidProduct, got %v", err)
			}
		})
	}
}

func TestLoadFromFS(t *testing.T) {
	fsys := fstest.MapFS{
		"shop/b.md": {Data: []byte("---\nid: 2\nname: Cap\nprice: 5000\nimages:\n  - /cap.jpg\n---\n")},
		"shop/a.md": {Data: []byte("---\nid: 10\nname: Hoodie\nprice: 30000\nimages: [/h1.jpg, /h2.jpg]\n---\nWarm <script>alert(1)</script> *fleece*.\n")},
		"shop/notes.txt": {Data: []byte("ignored")},
	}
	c, err := Load(fsys, "shop")
	require.NoError(t, err)
	require.Equal(t, 2, c.Len())

	all := c.All()
	require.Equal(t, 2, all[0].ID)
	require.Equal(t, 10, all[1].ID)

	hoodie := all[1]
	require.Equal(t, []string{"/h1.jpg", "/h2.jpg"}, hoodie.Images)
	html := string(hoodie.DescriptionHTML)
	require.Contains(t, html, "<em>fleece</em>")
	require.False(t, strings.Contains(html, "<script"), "description must be sanitized: %s", html)
}

func TestLoadRequiresFrontMatter(t *testing.T) {
	fsys := fstest.MapFS{
		"p/x.md": {Data: []byte("just a body")},
	}
	_, err := Load(fsys, "p")
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestLoadEmptyDirectory(t *testing.T) {
	fsys := fstest.MapFS{"p/readme.txt": {Data: []byte("x")}}
	_, err := Load(fsys, "p")
	require.Error(t, err)
}
