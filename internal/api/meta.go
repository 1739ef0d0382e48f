package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"revizor/internal/model"
)

// ===== META HANDLERS =====

type metaModelListItem struct {
	Model  string `json:"model"`
	Table  string `json:"table"`
	Schema string `json:"schema"`
	PK     string `json:"pk"`
}

func MetaListHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		entries := reg.All()
		out := make([]metaModelListItem, 0, len(entries))
		for _, e := range entries {
			item := metaModelListItem{
				Model:  e.Model.Name,
				Table:  e.Model.Table(),
				Schema: e.Model.Schema(),
			}
			if pk := e.Model.PK(); pk != nil {
				item.PK = pk.Name
			}
			out = append(out, item)
		}
		c.JSON(http.StatusOK, out)
	}
}

type metaField struct {
	Name       string   `json:"name"`
	Column     string   `json:"column"`
	Kind       string   `json:"kind"`
	Null       bool     `json:"null"`
	Editable   bool     `json:"editable"`
	PrimaryKey bool     `json:"primary_key"`
	MaxLength  int      `json:"max_length,omitempty"`
	Choices    []string `json:"choices,omitempty"`
	Default    string   `json:"default,omitempty"`
	Ref        string   `json:"ref,omitempty"`        // модель-цель связи
	RefField   string   `json:"ref_field,omitempty"`  // терминальная колонка
	KeyColumns []string `json:"key_columns,omitempty"`
}

type metaModel struct {
	Model         string       `json:"model"`
	Table         string       `json:"table"`
	Schema        string       `json:"schema"`
	VerboseName   string       `json:"verbose_name"`
	VerbosePlural string       `json:"verbose_name_plural"`
	Fields        []metaField  `json:"fields"`
	Options       AdminOptions `json:"options"`
	ChangeFields  []string     `json:"change_fields"`
}

func MetaModelHandler(reg *Registry) gin.HandlerFunc {
	return func(c *gin.Context) {
		e, ok := reg.Lookup(c.Param("model"))
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "Model not found"})
			return
		}
		m := e.Model

		fields := make([]metaField, 0, len(m.Fields))
		for i := range m.Fields {
			f := &m.Fields[i]
			mf := metaField{
				Name:       f.Name,
				Column:     f.Column,
				Kind:       string(f.Kind),
				Null:       f.Null,
				Editable:   f.Editable,
				PrimaryKey: f.PrimaryKey,
				MaxLength:  f.MaxLength,
				Choices:    append([]string(nil), f.Choices...),
				Default:    f.Default,
				KeyColumns: append([]string(nil), f.KeyColumns...),
			}
			if f.Kind == model.KindCompositeKey {
				mf.Column = "" // реальной колонки за ним нет
			}
			if f.IsRelation() {
				mf.Ref = f.Relation.Model
				mf.RefField = f.Relation.ToField
			}
			fields = append(fields, mf)
		}

		c.JSON(http.StatusOK, metaModel{
			Model:         m.Name,
			Table:         m.Table(),
			Schema:        m.Schema(),
			VerboseName:   m.VerboseName,
			VerbosePlural: m.VerboseNamePlural,
			Fields:        fields,
			Options:       e.Options,
			ChangeFields:  changeFields(m, e.Options),
		})
	}
}
