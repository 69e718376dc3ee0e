package docstore

import (
	"context"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/violation-portal/internal/model"
)

// FileStore reads collections from a YAML (or JSON) file shaped as
// {collection: [{id: ..., field: value}, ...]}. The file is re-read on every
// List so each load cycle sees its current contents.
type FileStore struct {
	path string
}

// NewFile returns a store over the file at path.
func NewFile(path string) *FileStore {
	return &FileStore{path: path}
}

// List implements Store.
func (s *FileStore) List(ctx context.Context, collection string) ([]model.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(s.path)
	if err != nil {
		return nil, eris.Wrapf(err, "file: read %s", s.path)
	}

	var collections map[string][]map[string]any
	if err := yaml.Unmarshal(data, &collections); err != nil {
		return nil, eris.Wrapf(err, "file: parse %s", s.path)
	}

	raw := collections[collection]
	docs := make([]model.Document, 0, len(raw))
	for i, fields := range raw {
		id := fmt.Sprintf("doc-%d", i+1)
		if v, ok := fields["id"]; ok {
			id = fmt.Sprint(v)
			delete(fields, "id")
		}
		if fields == nil {
			fields = map[string]any{}
		}
		docs = append(docs, model.Document{ID: id, Fields: fields})
	}
	return docs, nil
}

// Close implements Store.
func (s *FileStore) Close() error { return nil }
