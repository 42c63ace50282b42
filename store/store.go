package store

import (
	"bufio"
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Go-routine-4595/aquavigil/model"
)

//go:embed modules.jsonl
var defaultModules []byte

// Store is the read-only set of module baselines. It is built once at startup and
// never mutated; every accessor hands out copies.
type Store struct {
	order   []string
	modules map[string]model.SensorModule
}

func New(modules []model.SensorModule) (*Store, error) {
	var (
		s   *Store
		err error
	)

	if len(modules) == 0 {
		return nil, errors.Join(model.ErrEmptyInput, errors.New("fixture has no modules"))
	}

	s = &Store{
		order:   make([]string, 0, len(modules)),
		modules: make(map[string]model.SensorModule, len(modules)),
	}

	for i, m := range modules {
		if m.ID == "" {
			err = errors.Join(err, fmt.Errorf("module #%d: empty id: %w", i, model.ErrValidation))
			continue
		}
		if !m.Status.Valid() {
			err = errors.Join(err, fmt.Errorf("module %s: unknown status %q: %w", m.ID, m.Status, model.ErrValidation))
			continue
		}
		if _, ok := s.modules[m.ID]; ok {
			err = errors.Join(err, fmt.Errorf("module %s: duplicate id: %w", m.ID, model.ErrValidation))
			continue
		}
		s.order = append(s.order, m.ID)
		s.modules[m.ID] = m
	}
	if err != nil {
		return nil, err
	}

	return s, nil
}

// Default returns the store built from the embedded fixture.
func Default() (*Store, error) {
	return Decode(bytes.NewReader(defaultModules))
}

// Load reads a json lines fixture (one module per line). An empty path loads the
// embedded fixture.
func Load(path string) (*Store, error) {
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(err, errors.New("open module definition file"))
	}
	defer f.Close()

	return Decode(f)
}

func Decode(r io.Reader) (*Store, error) {
	var (
		modules []model.SensorModule
		line    int
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		var item model.SensorModule

		line++
		if len(bytes.TrimSpace(scanner.Bytes())) == 0 {
			continue
		}
		if err := json.Unmarshal(scanner.Bytes(), &item); err != nil {
			return nil, fmt.Errorf("module definition line %d: %w", line, err)
		}
		modules = append(modules, item)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Join(err, errors.New("read module definition"))
	}

	return New(modules)
}

func (s *Store) Get(id string) (model.SensorModule, error) {
	m, ok := s.modules[id]
	if !ok {
		return model.SensorModule{}, fmt.Errorf("module %s %w", id, model.ErrNotFound)
	}
	return m, nil
}

// All returns every baseline in fixture order.
func (s *Store) All() []model.SensorModule {
	out := make([]model.SensorModule, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.modules[id])
	}
	return out
}

func (s *Store) Len() int {
	return len(s.order)
}

func (s *Store) CountByStatus(status model.Status) int {
	var n int
	for _, m := range s.modules {
		if m.Status == status {
			n++
		}
	}
	return n
}
