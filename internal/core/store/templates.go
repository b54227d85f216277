package store

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"dayplan/internal/core/models"
)

func (s *Store) templatePath(name string) string {
	return filepath.Join(s.templatesDir, name+".json")
}

// SaveTemplate atomically persists a template document.
func (s *Store) SaveTemplate(tpl *models.DayTemplate) error {
	if err := tpl.Validate(); err != nil {
		return err
	}
	data, err := json.MarshalIndent(tpl, "", "  ")
	if err != nil {
		return &IOError{Op: "serialize template", Path: tpl.Name, Err: err}
	}
	return writeAtomic(s.templatePath(tpl.Name), data)
}

// LoadTemplate reads one template by name.
func (s *Store) LoadTemplate(name string) (*models.DayTemplate, error) {
	path := s.templatePath(name)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &models.NotFoundError{Kind: "template", Ref: name}
		}
		return nil, &IOError{Op: "read", Path: path, Err: err}
	}
	var tpl models.DayTemplate
	if err := json.Unmarshal(data, &tpl); err != nil {
		return nil, &IOError{Op: "decode template", Path: path, Err: err}
	}
	return &tpl, nil
}

// TemplateExists reports whether a template with this name is saved.
func (s *Store) TemplateExists(name string) bool {
	_, err := os.Stat(s.templatePath(name))
	return err == nil
}

// ListTemplates returns every saved template, sorted by name.
// Templates are small and few, so full documents are returned.
func (s *Store) ListTemplates() ([]*models.DayTemplate, error) {
	entries, err := os.ReadDir(s.templatesDir)
	if err != nil {
		return nil, &IOError{Op: "read directory", Path: s.templatesDir, Err: err}
	}
	var tpls []*models.DayTemplate
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") || strings.Contains(name, ".tmp-") {
			continue
		}
		tpl, err := s.LoadTemplate(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		tpls = append(tpls, tpl)
	}
	sort.Slice(tpls, func(i, j int) bool { return tpls[i].Name < tpls[j].Name })
	return tpls, nil
}

// DeleteTemplate removes a saved template.
func (s *Store) DeleteTemplate(name string) error {
	path := s.templatePath(name)
	if err := os.Remove(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &models.NotFoundError{Kind: "template", Ref: name}
		}
		return &IOError{Op: "delete", Path: path, Err: err}
	}
	return nil
}
