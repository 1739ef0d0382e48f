package api

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/oklog/ulid/v2"

	"revizor/internal/model"
)

// ErrNotFound — записи с таким ключом нет (или её уже удалили).
var ErrNotFound = errors.New("record not found")

// ErrBadQuery — параметры запроса не ложатся на модель
// (неизвестный фильтр, кривой ключ, неразборный токен).
var ErrBadQuery = errors.New("bad query")

// Store выполняет admin-CRUD поверх отражённых таблиц.
// Никакого собственного состояния, кроме пула и энтропии для ULID:
// консистентность — целиком на стороне Postgres.
type Store struct {
	db      *sql.DB
	entropy io.Reader
}

func NewStore(db *sql.DB) *Store {
	// энтропию читают конкурентные хендлеры — нужен замок
	src := rand.New(rand.NewSource(time.Now().UnixNano()))
	entropy := &ulid.LockedMonotonicReader{MonotonicReader: ulid.Monotonic(src, 0)}
	return &Store{db: db, entropy: entropy}
}

func (s *Store) newID() string {
	return ulid.MustNew(ulid.Timestamp(time.Now()), s.entropy).String()
}

// ==== Идентификаторы и ссылки на таблицу ====

func qident(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func tableRef(m *model.Model) string {
	return qident(m.Schema()) + "." + qident(m.Table())
}

// ==== Условие по первичному ключу ====

// pkWhere разбирает значение :pk из URL в условие WHERE.
// Составной ключ — это не колонка: токен раскладывается на
// поколоночные равенства, соединённые AND.
func pkWhere(e *Entry, pk string, argn int) (string, []any, error) {
	m := e.Model
	pkField := m.PK()
	if pkField == nil {
		return "", nil, fmt.Errorf("model %s has no primary key", m.Name)
	}

	if pkField.Kind != model.KindCompositeKey {
		f := m.FieldByColumn(pkField.Column)
		v, err := coerceFromString(f, pk)
		if err != nil {
			return "", nil, fmt.Errorf("primary key: %w", err)
		}
		return fmt.Sprintf("%s = $%d", qident(pkField.Column), argn), []any{v}, nil
	}

	key, err := model.DecodeKey(pk)
	if err != nil {
		return "", nil, err
	}

	var conds []string
	var args []any
	for _, col := range pkField.KeyColumns {
		v, ok := key[col]
		if !ok {
			return "", nil, fmt.Errorf("composite key: missing column %q", col)
		}
		f := m.FieldByColumn(col)
		cv, err := coerceValue(f, v)
		if err != nil {
			return "", nil, fmt.Errorf("composite key %q: %w", col, err)
		}
		conds = append(conds, fmt.Sprintf("%s = $%d", qident(col), argn))
		args = append(args, cv)
		argn++
	}
	return strings.Join(conds, " and "), args, nil
}

// ==== Листинг ====

func selectColumns(m *model.Model) string {
	fields := m.ConcreteFields()
	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, qident(f.Column))
	}
	return strings.Join(parts, ", ")
}

// buildWhere собирает фильтры и поиск в одно условие.
// Фильтровать можно только по полям из list_filter; поиск идёт
// по search_fields ("=pk" — точное совпадение первичного ключа,
// "=name" — точное по полю, голое имя — ILIKE-подстрока).
func buildWhere(e *Entry, lp ListParams) (string, []any, error) {
	m := e.Model
	var conds []string
	var args []any
	argn := 1

	// фильтры — стабильный порядок ключей
	keys := make([]string, 0, len(lp.Filters))
	for k := range lp.Filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !contains(e.Options.ListFilter, k) {
			return "", nil, fmt.Errorf("field %q is not filterable", k)
		}
		f := m.Field(k)
		if f == nil || !f.Concrete() {
			return "", nil, fmt.Errorf("unknown filter field %q", k)
		}
		vals := lp.Filters[k]
		ph := make([]string, 0, len(vals))
		for _, raw := range vals {
			v, err := coerceFromString(f, raw)
			if err != nil {
				return "", nil, fmt.Errorf("filter %q: %w", k, err)
			}
			ph = append(ph, fmt.Sprintf("$%d", argn))
			args = append(args, v)
			argn++
		}
		if len(ph) == 1 {
			conds = append(conds, fmt.Sprintf("%s = %s", qident(f.Column), ph[0]))
		} else {
			conds = append(conds, fmt.Sprintf("%s in (%s)", qident(f.Column), strings.Join(ph, ", ")))
		}
	}

	// поиск
	if lp.Q != "" {
		var or []string
		for _, sf := range e.Options.SearchFields {
			switch {
			case sf == "=pk":
				cond, pkArgs, err := pkWhere(e, lp.Q, argn)
				if err != nil {
					continue // не похоже на ключ — просто не матчится
				}
				or = append(or, "("+cond+")")
				args = append(args, pkArgs...)
				argn += len(pkArgs)
			case strings.HasPrefix(sf, "="):
				f := m.Field(strings.TrimPrefix(sf, "="))
				if f == nil || !f.Concrete() {
					continue
				}
				v, err := coerceFromString(f, lp.Q)
				if err != nil {
					continue
				}
				or = append(or, fmt.Sprintf("%s = $%d", qident(f.Column), argn))
				args = append(args, v)
				argn++
			default:
				f := m.Field(sf)
				if f == nil || !f.Concrete() {
					continue
				}
				or = append(or, fmt.Sprintf("%s::text ilike $%d", qident(f.Column), argn))
				args = append(args, "%"+escapeLike(lp.Q)+"%")
				argn++
			}
		}
		if len(or) == 0 {
			// поиск задан, но ни одно поле не подошло — пустой результат
			conds = append(conds, "false")
		} else {
			conds = append(conds, "("+strings.Join(or, " or ")+")")
		}
	}

	if len(conds) == 0 {
		return "", args, nil
	}
	return " where " + strings.Join(conds, " and "), args, nil
}

func buildOrder(e *Entry, lp ListParams) string {
	m := e.Model
	var parts []string
	for _, k := range lp.Sort {
		name := k.Field
		if strings.EqualFold(name, "pk") || strings.EqualFold(name, "id") {
			if pk := m.PK(); pk != nil {
				name = pk.Name
			}
		}
		f := m.Field(name)
		if f == nil {
			continue // неизвестное поле сортировки молча пропускаем
		}
		// для composite_key f.Column — первая составляющая: порядок по умолчанию
		col := f.Column
		dir := "asc"
		if k.Desc {
			dir = "desc"
		}
		parts = append(parts, fmt.Sprintf("%s %s nulls %s", qident(col), dir, lp.Nulls))
	}
	if len(parts) == 0 {
		if pk := m.PK(); pk != nil {
			parts = append(parts, qident(pk.Column)+" asc")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " order by " + strings.Join(parts, ", ")
}

// List возвращает страницу записей и общее число под фильтром.
func (s *Store) List(ctx context.Context, e *Entry, lp ListParams) ([]map[string]any, int, error) {
	m := e.Model
	where, args, err := buildWhere(e, lp)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}

	var total int
	countSQL := "select count(*) from " + tableRef(m) + where
	if err := s.db.QueryRowContext(ctx, countSQL, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count %s: %w", m.Table(), err)
	}

	query := fmt.Sprintf("select %s from %s%s%s limit %d offset %d",
		selectColumns(m), tableRef(m), where, buildOrder(e, lp), lp.Limit, lp.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s: %w", m.Table(), err)
	}
	defer rows.Close()

	var out []map[string]any
	for rows.Next() {
		rec, err := scanRecord(m, rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, rec)
	}
	return out, total, rows.Err()
}

// Get читает одну запись по первичному ключу (или токену составного).
func (s *Store) Get(ctx context.Context, e *Entry, pk string) (map[string]any, error) {
	m := e.Model
	where, args, err := pkWhere(e, pk, 1)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}

	query := fmt.Sprintf("select %s from %s where %s", selectColumns(m), tableRef(m), where)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", m.Table(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanRecord(m, rows)
}

// Insert создаёт запись. Строковому первичному ключу без default
// в БД генерируем ULID (uuid-ключу — uuid): admin обязан что-то
// подставить, раз auto-колонки у чужих таблиц не наши.
func (s *Store) Insert(ctx context.Context, e *Entry, colVals map[string]any) (map[string]any, error) {
	m := e.Model

	if pk := m.PK(); pk != nil && pk.Kind != model.KindCompositeKey {
		f := m.FieldByColumn(pk.Column)
		if _, given := colVals[pk.Column]; !given && !f.HasDefault {
			switch f.Kind {
			case model.KindChar, model.KindText:
				colVals[pk.Column] = s.newID()
			case model.KindUUID:
				colVals[pk.Column] = uuid.NewString()
			}
		}
	}

	var cols, ph []string
	var args []any
	argn := 1
	// порядок — по полям модели, чтобы SQL был детерминирован
	for _, f := range m.ConcreteFields() {
		v, ok := colVals[f.Column]
		if !ok {
			continue
		}
		cols = append(cols, qident(f.Column))
		ph = append(ph, fmt.Sprintf("$%d", argn))
		args = append(args, v)
		argn++
	}
	if len(cols) == 0 {
		return nil, fmt.Errorf("insert %s: empty record", m.Table())
	}

	query := fmt.Sprintf("insert into %s (%s) values (%s) returning %s",
		tableRef(m), strings.Join(cols, ", "), strings.Join(ph, ", "), selectColumns(m))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert %s: %w", m.Table(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("insert %s: no row returned", m.Table())
	}
	return scanRecord(m, rows)
}

// Update изменяет запись по ключу. Ключевые колонки сюда не попадают —
// их отфильтровала валидация (readonly).
func (s *Store) Update(ctx context.Context, e *Entry, pk string, colVals map[string]any) (map[string]any, error) {
	m := e.Model
	if len(colVals) == 0 {
		return s.Get(ctx, e, pk)
	}

	var sets []string
	var args []any
	argn := 1
	for _, f := range m.ConcreteFields() {
		v, ok := colVals[f.Column]
		if !ok {
			continue
		}
		sets = append(sets, fmt.Sprintf("%s = $%d", qident(f.Column), argn))
		args = append(args, v)
		argn++
	}

	where, pkArgs, err := pkWhere(e, pk, argn)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	args = append(args, pkArgs...)

	query := fmt.Sprintf("update %s set %s where %s returning %s",
		tableRef(m), strings.Join(sets, ", "), where, selectColumns(m))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("update %s: %w", m.Table(), err)
	}
	defer rows.Close()

	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNotFound
	}
	return scanRecord(m, rows)
}

// Delete удаляет запись по ключу. Для составного ключа условие —
// равенство ВСЕХ составляющих: удаляются ровно совпавшие строки.
func (s *Store) Delete(ctx context.Context, e *Entry, pk string) (int64, error) {
	m := e.Model
	where, args, err := pkWhere(e, pk, 1)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}

	res, err := s.db.ExecContext(ctx, "delete from "+tableRef(m)+" where "+where, args...)
	if err != nil {
		return 0, fmt.Errorf("delete %s: %w", m.Table(), err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

// Count — общее число записей под фильтром.
func (s *Store) Count(ctx context.Context, e *Entry, lp ListParams) (int, error) {
	where, args, err := buildWhere(e, lp)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrBadQuery, err)
	}
	var total int
	if err := s.db.QueryRowContext(ctx, "select count(*) from "+tableRef(e.Model)+where, args...).Scan(&total); err != nil {
		return 0, fmt.Errorf("count %s: %w", e.Model.Table(), err)
	}
	return total, nil
}

// ==== Чтение строк ====

// scanRecord читает текущую строку rows в плоскую карту по именам полей
// и достраивает токен составного ключа (он собирается на каждое чтение).
func scanRecord(m *model.Model, rows *sql.Rows) (map[string]any, error) {
	fields := m.ConcreteFields()
	raw := make([]any, len(fields))
	ptrs := make([]any, len(fields))
	for i := range raw {
		ptrs[i] = &raw[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, fmt.Errorf("scan %s: %w", m.Table(), err)
	}

	byColumn := make(map[string]any, len(fields))
	out := make(map[string]any, len(m.Fields)+1)
	for i, f := range fields {
		v := readValue(f, raw[i])
		byColumn[f.Column] = raw[i]
		out[f.Name] = v
	}

	if pk := m.PK(); pk != nil && pk.Kind == model.KindCompositeKey {
		key := model.CompositeKey{}
		for _, col := range pk.KeyColumns {
			f := m.FieldByColumn(col)
			key[col] = model.Canonical(byColumn[col], f.Kind)
		}
		token, err := key.Encode()
		if err != nil {
			return nil, err
		}
		out["id"] = token
	}
	return out, nil
}

// readValue нормализует сырое значение драйвера для JSON-ответа.
func readValue(f *model.Field, v any) any {
	if v == nil {
		return nil
	}
	switch f.Kind {
	case model.KindJSON:
		var s string
		switch b := v.(type) {
		case []byte:
			s = string(b)
		case string:
			s = b
		default:
			return v
		}
		var decoded any
		if err := json.Unmarshal([]byte(s), &decoded); err != nil {
			// не смогли разобрать — отдаём сырое значение как есть
			return s
		}
		return decoded
	case model.KindDate, model.KindDateTime, model.KindDecimal, model.KindUUID:
		return model.Canonical(v, f.Kind)
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// ==== Мелочи ====

func contains(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
