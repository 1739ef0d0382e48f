package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// recordStr — строковое представление записи для ответов и list-колонки.
// Шаблон из каталога поддерживает {model_name} и {pk};
// по умолчанию — "<Model> object(<pk>)".
func recordStr(e *Entry, rec map[string]any) string {
	m := e.Model
	pkVal := ""
	if pk := m.PK(); pk != nil {
		if v, ok := rec[pk.Name]; ok && v != nil {
			pkVal = fmt.Sprintf("%v", v)
		}
	}

	tpl := m.StrTemplate
	if tpl == "" {
		return fmt.Sprintf("%s object(%s)", m.Name, pkVal)
	}
	out := strings.ReplaceAll(tpl, "{model_name}", m.Name)
	out = strings.ReplaceAll(out, "{pk}", pkVal)
	// {поле} — значение поля записи
	for name, v := range rec {
		out = strings.ReplaceAll(out, "{"+name+"}", fmt.Sprintf("%v", v))
	}
	return out
}

// statusForDBError превращает известные ошибки Postgres в понятные
// HTTP-статусы; остальное — 500 как есть.
func statusForDBError(err error) (int, string) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return http.StatusConflict, "duplicate value: " + pgErr.ConstraintName
		case "23503": // foreign_key_violation
			return http.StatusConflict, "foreign key violation: " + pgErr.ConstraintName
		case "23502": // not_null_violation
			return http.StatusBadRequest, "null value in column " + pgErr.ColumnName
		case "22P02", "22007", "22008": // invalid text representation / datetime
			return http.StatusBadRequest, strings.TrimSpace(pgErr.Message)
		}
	}
	return http.StatusInternalServerError, err.Error()
}
