package admincfg

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// ModelConfig — переопределения admin-опций для одной таблицы.
// Всё опционально: пустые значения = поведение по умолчанию.
type ModelConfig struct {
	Table        string   `yaml:"table"`
	Name         string   `yaml:"name,omitempty"`
	NamePlural   string   `yaml:"name_plural,omitempty"`
	StrTemplate  string   `yaml:"str_template,omitempty"`
	PKColumn     string   `yaml:"pk_column,omitempty"`
	ListDisplay  []string `yaml:"list_display,omitempty"`
	SearchFields []string `yaml:"search_fields,omitempty"`
	ListFilter   []string `yaml:"list_filter,omitempty"`
	Fields       []string `yaml:"fields,omitempty"`
	ReadOnly     bool     `yaml:"read_only,omitempty"`
}

type catalog struct {
	Models []ModelConfig `yaml:"models"`
}

// Load читает yaml-каталог admin-переопределений.
// Возвращает карту по имени таблицы (в нижнем регистре).
// Пустой путь — пустая карта: всё по умолчанию.
func Load(path string) (map[string]ModelConfig, error) {
	result := make(map[string]ModelConfig)
	if strings.TrimSpace(path) == "" {
		return result, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var cat catalog
	if err := yaml.Unmarshal(data, &cat); err != nil {
		return nil, fmt.Errorf("admin catalog %s: %w", path, err)
	}

	for _, mc := range cat.Models {
		key := strings.ToLower(strings.TrimSpace(mc.Table))
		if key == "" {
			return nil, fmt.Errorf("admin catalog %s: entry without table", path)
		}
		if _, dup := result[key]; dup {
			return nil, fmt.Errorf("admin catalog %s: duplicate table %q", path, mc.Table)
		}
		result[key] = mc
	}
	return result, nil
}
