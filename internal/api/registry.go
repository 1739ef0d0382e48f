package api

import (
	"strings"
	"sync"

	"revizor/internal/admincfg"
	"revizor/internal/model"
)

// Entry — модель вместе с её admin-опциями.
type Entry struct {
	Model   *model.Model
	Options AdminOptions
}

// Registry хранит синтезированные модели. Перестраивается целиком
// при _reload, поэтому под RW-замком.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]*Entry // ключ — имя модели в нижнем регистре
	order  []string          // стабильный порядок для /meta
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]*Entry)}
}

// Replace атомарно подменяет весь набор моделей.
// readOnly запрещает запись для всех моделей разом (глобальный флаг
// конфига), поверх пер-модельного read_only из каталога.
func (r *Registry) Replace(models []*model.Model, cfg map[string]admincfg.ModelConfig, readOnly bool) {
	byName := make(map[string]*Entry, len(models))
	order := make([]string, 0, len(models))
	for _, m := range models {
		e := &Entry{
			Model:   m,
			Options: buildOptions(m, cfg[strings.ToLower(m.Table())]),
		}
		if readOnly {
			e.Options.ReadOnly = true
		}
		byName[strings.ToLower(m.Name)] = e
		order = append(order, m.Name)
	}

	r.mu.Lock()
	r.byName = byName
	r.order = order
	r.mu.Unlock()
}

// Lookup ищет модель по имени или по имени таблицы (регистронезависимо):
// admin-клиенту удобнее адресоваться именем таблицы, /meta отдаёт оба.
func (r *Registry) Lookup(name string) (*Entry, bool) {
	nl := strings.ToLower(strings.TrimSpace(name))
	if nl == "" {
		return nil, false
	}

	r.mu.RLock()
	defer r.mu.RUnlock()

	if e, ok := r.byName[nl]; ok {
		return e, true
	}
	for _, e := range r.byName {
		if strings.EqualFold(e.Model.Table(), nl) {
			return e, true
		}
	}
	return nil, false
}

// All возвращает модели в стабильном порядке.
func (r *Registry) All() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entry, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, r.byName[strings.ToLower(name)])
	}
	return out
}
