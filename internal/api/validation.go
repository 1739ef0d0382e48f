package api

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"

	"revizor/internal/model"
)

type FieldError struct {
	Code    string `json:"code"`
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Коды ошибок, которыми будем пользоваться
const (
	ErrRequired     = "required"
	ErrTypeMismatch = "type_mismatch"
	ErrEnumInvalid  = "enum_invalid"
	ErrReadOnly     = "readonly_field"
	ErrUnknownField = "unknown_field"
	ErrNotFoundCode = "not_found"
)

func ferr(code, field, msg string) FieldError {
	return FieldError{Code: code, Field: field, Message: msg}
}

var decimalRe = regexp.MustCompile(`^-?\d+(\.\d+)?$`)

// ValidateWrite проверяет и НОРМАЛИЗУЕТ payload под модель.
// Возвращает карту колонка -> значение для Store.
// partial=true (PATCH) отключает проверку обязательности.
// create=true разрешает задавать ключевые поля: auto-колонок у
// отражённых таблиц нет, ключ приходится вводить руками.
func ValidateWrite(e *Entry, obj map[string]any, partial, create bool) (map[string]any, []FieldError) {
	m := e.Model
	var errs []FieldError
	colVals := make(map[string]any, len(obj))

	for name, val := range obj {
		f := m.Field(name)
		if f == nil {
			errs = append(errs, ferr(ErrUnknownField, name, "Unknown field '"+name+"'"))
			continue
		}
		if !f.Concrete() {
			// синтетический id вычисляется из составляющих, его не пишут
			errs = append(errs, ferr(ErrReadOnly, name, "Field '"+name+"' is computed and read-only"))
			continue
		}
		if !create && !f.Editable {
			// смена первичного ключа означала бы новую запись
			errs = append(errs, ferr(ErrReadOnly, name, "Field '"+name+"' is part of the primary key"))
			continue
		}

		if val == nil {
			if !f.Null {
				errs = append(errs, ferr(ErrTypeMismatch, name, "Field '"+name+"' is not nullable"))
				continue
			}
			colVals[f.Column] = nil
			continue
		}

		norm, err := coerceValue(f, val)
		if err != nil {
			code := ErrTypeMismatch
			if strings.Contains(err.Error(), "not a valid choice") {
				code = ErrEnumInvalid
			}
			errs = append(errs, ferr(code, name, "Field '"+name+"' "+err.Error()))
			continue
		}
		colVals[f.Column] = norm
	}

	// обязательность: not null без default и без значения
	if create && !partial {
		for _, f := range m.ConcreteFields() {
			if f.Null || f.HasDefault {
				continue
			}
			if _, ok := colVals[f.Column]; ok {
				continue
			}
			if generatedPK(m, f) {
				continue // Store подставит ULID/uuid
			}
			errs = append(errs, ferr(ErrRequired, f.Name, "Field '"+f.Name+"' is required"))
		}
	}

	return colVals, errs
}

// generatedPK — одиночный строковый/uuid первичный ключ без default:
// его значение генерирует Store при вставке.
func generatedPK(m *model.Model, f *model.Field) bool {
	pk := m.PK()
	if pk == nil || pk.Kind == model.KindCompositeKey {
		return false
	}
	if !strings.EqualFold(pk.Column, f.Column) || f.HasDefault {
		return false
	}
	switch f.Kind {
	case model.KindChar, model.KindText, model.KindUUID:
		return true
	}
	return false
}

// coerceValue приводит значение из JSON-тела к виду, пригодному
// для параметра запроса, попутно проверяя тип.
func coerceValue(f *model.Field, v any) (any, error) {
	switch f.Kind {
	case model.KindChar, model.KindText:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected string")
		}
		if f.MaxLength > 0 && utf8.RuneCountInString(s) > f.MaxLength {
			return nil, fmt.Errorf("is longer than %d characters", f.MaxLength)
		}
		if len(f.Choices) > 0 && !contains(f.Choices, s) {
			return nil, fmt.Errorf("value %q is not a valid choice", s)
		}
		return s, nil

	case model.KindInt, model.KindBigInt:
		switch n := v.(type) {
		case float64:
			if n != float64(int64(n)) {
				return nil, fmt.Errorf("expected integer")
			}
			return int64(n), nil
		case int64:
			return n, nil
		case json.Number:
			return n.Int64()
		case string:
			i, err := strconv.ParseInt(n, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("expected integer")
			}
			return i, nil
		}
		return nil, fmt.Errorf("expected integer")

	case model.KindBool:
		b, ok := v.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool")
		}
		return b, nil

	case model.KindDecimal:
		switch d := v.(type) {
		case string:
			if !decimalRe.MatchString(d) {
				return nil, fmt.Errorf("expected decimal string")
			}
			return d, nil
		case float64:
			return strconv.FormatFloat(d, 'f', -1, 64), nil
		}
		return nil, fmt.Errorf("expected decimal")

	case model.KindDate:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected date string")
		}
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, fmt.Errorf("expected date YYYY-MM-DD")
		}
		return s, nil

	case model.KindDateTime:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected datetime string")
		}
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return nil, fmt.Errorf("expected RFC 3339 datetime")
		}
		return s, nil

	case model.KindUUID:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("expected uuid string")
		}
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("expected uuid")
		}
		return u.String(), nil

	case model.KindJSON:
		// строку принимаем как готовый JSON-текст, прочее маршалим
		if s, ok := v.(string); ok {
			if !json.Valid([]byte(s)) {
				return nil, fmt.Errorf("expected valid JSON text")
			}
			return s, nil
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("expected JSON-serializable value")
		}
		return string(b), nil
	}
	return nil, fmt.Errorf("unsupported kind %q", f.Kind)
}

// coerceFromString — то же для значений из URL (ключи, фильтры, поиск).
func coerceFromString(f *model.Field, s string) (any, error) {
	if f == nil {
		return nil, fmt.Errorf("unknown field")
	}
	switch f.Kind {
	case model.KindInt, model.KindBigInt:
		i, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("expected integer")
		}
		return i, nil
	case model.KindBool:
		switch strings.ToLower(s) {
		case "true", "1":
			return true, nil
		case "false", "0":
			return false, nil
		}
		return nil, fmt.Errorf("expected bool")
	case model.KindUUID:
		u, err := uuid.Parse(s)
		if err != nil {
			return nil, fmt.Errorf("expected uuid")
		}
		return u.String(), nil
	case model.KindDecimal:
		if !decimalRe.MatchString(s) {
			return nil, fmt.Errorf("expected decimal")
		}
		return s, nil
	case model.KindDate:
		if _, err := time.Parse("2006-01-02", s); err != nil {
			return nil, fmt.Errorf("expected date YYYY-MM-DD")
		}
		return s, nil
	case model.KindDateTime:
		if _, err := time.Parse(time.RFC3339, s); err != nil {
			return nil, fmt.Errorf("expected RFC 3339 datetime")
		}
		return s, nil
	}
	return s, nil
}
