// Package fixture seeds the row store from YAML documents describing a note
// tree. It is a development tool: the cache itself never writes.
package fixture

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"

	"github.com/starford/notegraph/internal/apperr"
	"github.com/starford/notegraph/internal/storage"
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Document is one fixture file.
type Document struct {
	// Root is the parent of the top-level notes. Empty means they are
	// written without a parent branch.
	Root  string `yaml:"root"`
	Notes []Note `yaml:"notes"`
}

// Note describes a note and, through Children, its subtree.
type Note struct {
	ID          string       `yaml:"id"`
	Title       string       `yaml:"title"`
	Type        string       `yaml:"type"`
	Mime        string       `yaml:"mime"`
	Content     string       `yaml:"content"`
	ContentFile string       `yaml:"content_file"`
	Prefix      string       `yaml:"prefix"`
	Protected   bool         `yaml:"protected"`
	Expanded    bool         `yaml:"expanded"`
	Labels      []Label      `yaml:"labels"`
	Relations   []Relation   `yaml:"relations"`
	Attachments []Attachment `yaml:"attachments"`
	Children    []Note       `yaml:"children"`
	// AlsoUnder lists extra parents the note is cloned into.
	AlsoUnder []string `yaml:"also_under"`
}

// Validate checks the note itself; children are validated by the caller.
func (n *Note) Validate() error {
	return validation.ValidateStruct(n,
		validation.Field(&n.ID, validation.Required, validation.Match(idPattern)),
		validation.Field(&n.Title, validation.Required),
		validation.Field(&n.ContentFile, validation.When(n.Content != "", validation.Empty.Error("cannot be combined with content"))),
		validation.Field(&n.AlsoUnder, validation.Each(validation.Required)),
		validation.Field(&n.Labels),
		validation.Field(&n.Relations),
		validation.Field(&n.Attachments),
	)
}

type Label struct {
	Name        string `yaml:"name"`
	Value       string `yaml:"value"`
	Inheritable bool   `yaml:"inheritable"`
}

func (l Label) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Name, validation.Required),
	)
}

type Relation struct {
	Name        string `yaml:"name"`
	Target      string `yaml:"target"`
	Inheritable bool   `yaml:"inheritable"`
}

func (r Relation) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Name, validation.Required),
		validation.Field(&r.Target, validation.Required),
	)
}

type Attachment struct {
	ID          string `yaml:"id"`
	Title       string `yaml:"title"`
	Role        string `yaml:"role"`
	Mime        string `yaml:"mime"`
	Content     string `yaml:"content"`
	ContentFile string `yaml:"content_file"`
}

func (a Attachment) Validate() error {
	return validation.ValidateStruct(&a,
		validation.Field(&a.ID, validation.Required, validation.Match(idPattern)),
		validation.Field(&a.Title, validation.Required),
		validation.Field(&a.ContentFile, validation.When(a.Content != "", validation.Empty.Error("cannot be combined with content"))),
	)
}

// Validate checks every note in the document and reports all problems at
// once, wrapped in apperr.ErrInvalidFixture.
func (d *Document) Validate() error {
	var result *multierror.Error
	notes := make(map[string]struct{})
	attachments := make(map[string]struct{})

	var walk func(path string, list []Note)
	walk = func(path string, list []Note) {
		for i := range list {
			n := &list[i]
			where := fmt.Sprintf("%s[%d]", path, i)
			if n.ID != "" {
				where = fmt.Sprintf("%s(%s)", where, n.ID)
			}
			if err := n.Validate(); err != nil {
				result = multierror.Append(result, fmt.Errorf("%s: %w", where, err))
			}
			if n.ID != "" {
				if _, dup := notes[n.ID]; dup {
					result = multierror.Append(result, fmt.Errorf("%s: duplicate note id %q", where, n.ID))
				}
				notes[n.ID] = struct{}{}
			}
			for _, a := range n.Attachments {
				if a.ID == "" {
					continue
				}
				if _, dup := attachments[a.ID]; dup {
					result = multierror.Append(result, fmt.Errorf("%s: duplicate attachment id %q", where, a.ID))
				}
				attachments[a.ID] = struct{}{}
			}
			walk(where+".children", n.Children)
		}
	}
	walk("notes", d.Notes)

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %w", apperr.ErrInvalidFixture, err)
	}
	return nil
}

// Parse decodes and validates a fixture document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %w", apperr.ErrInvalidFixture, err)
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Open reads the fixture at path, which is either a YAML file or a directory
// searched recursively for *.yaml and *.yml files. The returned provider is
// rooted at the fixture directory and resolves content_file references.
func Open(path string) ([]*Document, storage.Provider, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("fixture: %w", err)
	}

	dir, files := path, []string(nil)
	if !info.IsDir() {
		dir, files = filepath.Dir(path), []string{filepath.Base(path)}
	}
	fs, err := storage.NewFS(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("fixture: %w", err)
	}
	if files == nil {
		if files, err = fs.List("", ".yaml", ".yml"); err != nil {
			return nil, nil, fmt.Errorf("fixture: %w", err)
		}
	}

	docs := make([]*Document, 0, len(files))
	for _, f := range files {
		data, err := fs.Read(f)
		if err != nil {
			return nil, nil, fmt.Errorf("fixture: %w", err)
		}
		doc, err := Parse(data)
		if err != nil {
			return nil, nil, fmt.Errorf("fixture %s: %w", f, err)
		}
		docs = append(docs, doc)
	}
	return docs, fs, nil
}
