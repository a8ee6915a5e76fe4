package catalog

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"gopkg.in/yaml.v3"
)

//go:embed products/*.md
var embeddedProducts embed.FS

type productFrontMatter struct {
	ID     int      `yaml:"id"`
	Name   string   `yaml:"name"`
	Price  int64    `yaml:"price"`
	Images []string `yaml:"images"`
}

var descriptionPolicy = newDescriptionPolicy()

// Default loads the product set compiled into the binary.
func Default() (*Catalog, error) {
	return Load(embeddedProducts, "products")
}

// LoadDir loads product files from a directory on disk.
func LoadDir(dir string) (*Catalog, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		return Default()
	}
	return Load(os.DirFS(dir), ".")
}

// Load reads every *.md file under dir in fsys. Each file carries YAML front
// matter with the product fields and an optional markdown description body.
func Load(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", dir, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".md") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, fmt.Errorf("catalog: no product files under %s", dir)
	}

	products := make([]Product, 0, len(names))
	for _, name := range names {
		file := path.Join(dir, name)
		raw, err := fs.ReadFile(fsys, file)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", file, err)
		}
		p, err := parseProduct(raw)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", file, err)
		}
		products = append(products, p)
	}
	return New(products)
}

func parseProduct(raw []byte) (Product, error) {
	fm, body := splitFrontMatter(string(raw))
	if strings.TrimSpace(fm) == "" {
		return Product{}, fmt.Errorf("%w: missing front matter", ErrInvalidProduct)
	}
	var front productFrontMatter
	if err := yaml.Unmarshal([]byte(fm), &front); err != nil {
		return Product{}, fmt.Errorf("parse front matter: %w", err)
	}
	images := make([]string, 0, len(front.Images))
	for _, img := range front.Images {
		images = append(images, strings.TrimSpace(img))
	}
	desc := strings.TrimSpace(body)
	rendered, err := RenderDescription(desc)
	if err != nil {
		return Product{}, err
	}
	return Product{
		ID:              front.ID,
		Name:            strings.TrimSpace(front.Name),
		Price:           front.Price,
		Images:          images,
		Description:     desc,
		DescriptionHTML: rendered,
	}, nil
}

// RenderDescription converts markdown to sanitized HTML.
func RenderDescription(markdown string) (template.HTML, error) {
	if strings.TrimSpace(markdown) == "" {
		return "", nil
	}
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render description: %w", err)
	}
	return template.HTML(strings.TrimSpace(descriptionPolicy.Sanitize(buf.String()))), nil
}

func newDescriptionPolicy() *bluemonday.Policy {
	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").OnElements("p", "span", "ul", "li")
	policy.RequireNoFollowOnLinks(true)
	return policy
}

func splitFrontMatter(input string) (string, string) {
	input = strings.TrimLeft(input, "\ufeff")
	lines := strings.Split(input, "\n")
	if strings.TrimSpace(lines[0]) != "---" {
		return "", input
	}
	for i := 1; i < len(lines); i++ {
		if strings.TrimSpace(lines[i]) == "---" {
			fm := strings.Join(lines[1:i], "\n")
			body := strings.Join(lines[i+1:], "\n")
			return fm, strings.TrimLeft(body, "\n\r")
		}
	}
	return "", input
}

// IsNotFound reports whether err is ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
