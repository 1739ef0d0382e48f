package model

import (
	"strings"

	"revizor/internal/meta"
)

// Kind — вид поля модели (аналог таблицы соответствия типов из §admin).
type Kind string

const (
	KindChar         Kind = "char"    // строка с ограничением длины
	KindText         Kind = "text"    // строка без ограничения
	KindInt          Kind = "integer"
	KindBigInt       Kind = "bigint"
	KindDate         Kind = "date"
	KindDateTime     Kind = "datetime"
	KindDecimal      Kind = "decimal"
	KindBool         Kind = "boolean"
	KindUUID         Kind = "uuid"
	KindJSON         Kind = "json" // именно json, не jsonb: формы admin рендерят текст
	KindCompositeKey Kind = "composite_key"
)

// Relation описывает связь поля с другой таблицей (внешний ключ).
type Relation struct {
	Model   string // имя модели-цели
	Table   string // таблица-цель
	ToField string // терминальная колонка цели (после прохода по цепочке FK)
}

// Field — синтезированное поле модели.
type Field struct {
	Name       string // имя поля модели (для FK отличается от колонки)
	Column     string // db-колонка; для composite_key — первая составляющая
	Kind       Kind
	Null       bool
	Blank      bool // необязательно в формах; по умолчанию = Null
	Editable   bool // PK не редактируем: смена PK в admin = новая запись
	PrimaryKey bool
	MaxLength  int
	Choices    []string
	HasDefault bool
	Default    string // текст default-выражения из БД, как есть
	Relation   *Relation
	KeyColumns []string // составляющие composite_key в порядке таблицы
}

// IsRelation — поле ссылается на другую таблицу.
func (f *Field) IsRelation() bool { return f.Relation != nil }

// Concrete — поле соответствует реальной колонке
// (composite_key — вычисляемый дескриптор, колонки за ним нет).
func (f *Field) Concrete() bool { return f.Kind != KindCompositeKey }

// Model — синтезированная из метаданных таблицы модель.
type Model struct {
	Name              string
	VerboseName       string
	VerboseNamePlural string
	StrTemplate       string // шаблон для строкового представления записи
	Fields            []Field
	Meta              *meta.Table
}

// Table возвращает имя таблицы-источника.
func (m *Model) Table() string { return m.Meta.Name }

// Schema возвращает схему таблицы-источника.
func (m *Model) Schema() string { return m.Meta.Schema }

// PK возвращает поле первичного ключа (синтетическое для composite).
func (m *Model) PK() *Field {
	for i := range m.Fields {
		if m.Fields[i].PrimaryKey {
			return &m.Fields[i]
		}
	}
	return nil
}

// Field ищет поле по имени (регистронезависимо).
func (m *Model) Field(name string) *Field {
	for i := range m.Fields {
		if strings.EqualFold(m.Fields[i].Name, name) {
			return &m.Fields[i]
		}
	}
	return nil
}

// FieldByColumn ищет поле по db-колонке.
func (m *Model) FieldByColumn(column string) *Field {
	for i := range m.Fields {
		if m.Fields[i].Concrete() && strings.EqualFold(m.Fields[i].Column, column) {
			return &m.Fields[i]
		}
	}
	return nil
}

// ConcreteFields — поля с реальными колонками, в порядке таблицы.
func (m *Model) ConcreteFields() []*Field {
	out := make([]*Field, 0, len(m.Fields))
	for i := range m.Fields {
		if m.Fields[i].Concrete() {
			out = append(out, &m.Fields[i])
		}
	}
	return out
}

// PKColumns — колонки, составляющие первичный ключ.
func (m *Model) PKColumns() []string {
	pk := m.PK()
	if pk == nil {
		return nil
	}
	if pk.Kind == KindCompositeKey {
		return pk.KeyColumns
	}
	return []string{pk.Column}
}
