// Package instructions loads work-instruction definitions from a YAML
// catalog directory and serves them with a lazy per-ID cache.
package instructions

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zhaksylykov/wistep/internal/models"
)

// ErrNotFound is returned when no catalog file defines the requested id.
var ErrNotFound = errors.New("work instruction not found")

// ParseInstructionYAML decodes and validates a single instruction payload.
func ParseInstructionYAML(data []byte) (models.WorkInstruction, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return models.WorkInstruction{}, fmt.Errorf("catalog: instruction payload is empty")
	}
	var wi models.WorkInstruction
	if err := yaml.Unmarshal(data, &wi); err != nil {
		return models.WorkInstruction{}, fmt.Errorf("catalog: decode instruction: %w", err)
	}
	if err := validate(wi); err != nil {
		return models.WorkInstruction{}, err
	}
	return wi, nil
}

func validate(wi models.WorkInstruction) error {
	if strings.TrimSpace(wi.ID) == "" {
		return fmt.Errorf("catalog: instruction is missing an id")
	}
	if strings.TrimSpace(wi.Title) == "" {
		return fmt.Errorf("catalog: instruction %s is missing a title", wi.ID)
	}
	if len(wi.Steps) == 0 {
		return fmt.Errorf("catalog: instruction %s has no steps", wi.ID)
	}
	for i, step := range wi.Steps {
		if strings.TrimSpace(step.Title) == "" {
			return fmt.Errorf("catalog: instruction %s step %d is missing a title", wi.ID, i+1)
		}
		if step.MaxTime < 0 {
			return fmt.Errorf("catalog: instruction %s step %d has a negative target time", wi.ID, i+1)
		}
	}
	return nil
}

// Catalog serves instructions from a directory of *.yaml files, one
// instruction per file. Files are read lazily and cached per id for the
// life of the catalog.
type Catalog struct {
	dir   string
	cache map[string]*models.WorkInstruction
}

// NewCatalog returns a catalog over a directory. The directory is not read
// until an instruction is requested.
func NewCatalog(dir string) *Catalog {
	return &Catalog{dir: dir, cache: make(map[string]*models.WorkInstruction)}
}

// Get returns the instruction with the given id, from cache when already
// loaded. Returns ErrNotFound when no file defines it.
func (c *Catalog) Get(id string) (*models.WorkInstruction, error) {
	if wi, ok := c.cache[id]; ok {
		return wi, nil
	}
	all, err := c.loadAll()
	if err != nil {
		return nil, err
	}
	for i := range all {
		c.cache[all[i].ID] = &all[i]
	}
	if wi, ok := c.cache[id]; ok {
		return wi, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

// List returns every instruction in the catalog, sorted by id. A missing
// directory reads as an empty catalog.
func (c *Catalog) List() ([]models.WorkInstruction, error) {
	return c.loadAll()
}

// FindForMO returns the instructions whose mo_pattern glob matches the
// given MO number. Instructions without a pattern never match.
func (c *Catalog) FindForMO(mo string) ([]models.WorkInstruction, error) {
	all, err := c.loadAll()
	if err != nil {
		return nil, err
	}
	var out []models.WorkInstruction
	for _, wi := range all {
		if wi.MOPattern == "" {
			continue
		}
		if ok, err := path.Match(wi.MOPattern, mo); err == nil && ok {
			out = append(out, wi)
		}
	}
	return out, nil
}

func (c *Catalog) loadAll() ([]models.WorkInstruction, error) {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("catalog: read %s: %w", c.dir, err)
	}
	var out []models.WorkInstruction
	for _, entry := range entries {
		if entry.IsDir() || !isYAMLFile(entry.Name()) {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("catalog: read %s: %w", path, err)
		}
		wi, err := ParseInstructionYAML(data)
		if err != nil {
			return nil, fmt.Errorf("catalog: %s: %w", path, err)
		}
		out = append(out, wi)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func isYAMLFile(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	return strings.HasSuffix(lower, ".yaml") || strings.HasSuffix(lower, ".yml")
}
