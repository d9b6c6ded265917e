package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/tidwall/jsonc"

	"led-json-bridge/internal/domain/patch"
	"led-json-bridge/internal/ports"
)

// JSONPresetRepository keeps presets in one presets.json object keyed by id.
// Hand-edited files may carry comments and trailing commas.
type JSONPresetRepository struct {
	filepath string
	mu       sync.Mutex
}

func NewJSONPresetRepository(filepath string) *JSONPresetRepository {
	return &JSONPresetRepository{filepath: filepath}
}

func (r *JSONPresetRepository) Get(ctx context.Context, id int) (patch.Object, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	presets, err := r.load()
	if err != nil {
		return nil, err
	}
	raw, ok := presets[strconv.Itoa(id)]
	if !ok {
		return nil, fmt.Errorf("preset %d: %w", id, ports.ErrPresetNotFound)
	}
	doc, err := patch.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("preset %d: %w", id, err)
	}
	return doc, nil
}

func (r *JSONPresetRepository) Save(ctx context.Context, id int, doc patch.Object) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("preset %d: %w", id, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	presets, err := r.load()
	if err != nil {
		return err
	}
	presets[strconv.Itoa(id)] = raw
	return r.store(presets)
}

func (r *JSONPresetRepository) Delete(ctx context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	presets, err := r.load()
	if err != nil {
		return err
	}
	key := strconv.Itoa(id)
	if _, ok := presets[key]; !ok {
		return fmt.Errorf("preset %d: %w", id, ports.ErrPresetNotFound)
	}
	delete(presets, key)
	return r.store(presets)
}

func (r *JSONPresetRepository) Raw(ctx context.Context) ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	presets, err := r.load()
	if err != nil {
		return nil, err
	}
	return json.Marshal(presets)
}

// load reads the file. Entry "0" is always present and empty, as clients
// expect.
func (r *JSONPresetRepository) load() (map[string]json.RawMessage, error) {
	presets := make(map[string]json.RawMessage)
	data, err := os.ReadFile(r.filepath)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, err
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &presets); err != nil {
			return nil, fmt.Errorf("parsing %s: %w", r.filepath, err)
		}
	}
	presets["0"] = json.RawMessage(`{}`)
	return presets, nil
}

// store replaces the file through a rename.
func (r *JSONPresetRepository) store(presets map[string]json.RawMessage) error {
	data, err := json.Marshal(presets)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(r.filepath), ".presets-*.json")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), r.filepath)
}
