package model

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"hash/fnv"
	"sort"
	"time"

	"github.com/google/uuid"
)

// CompositeKey — синтетический первичный ключ: колонка -> каноническое
// значение. В БД такой колонки нет, токен собирается на каждое чтение
// записи и живёт только в рамках запроса.
type CompositeKey map[string]any

// Encode упаковывает ключ в base64(JSON). json.Marshal сортирует ключи
// карты, поэтому кодирование детерминировано: одинаковые ключи дают
// одинаковый токен независимо от порядка вставки.
func (k CompositeKey) Encode() (string, error) {
	b, err := json.Marshal(k)
	if err != nil {
		return "", fmt.Errorf("composite key encode: %w", err)
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeKey — обратная операция: decode(encode(x)) == x.
func DecodeKey(token string) (CompositeKey, error) {
	b, err := base64.StdEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("composite key decode: %w", err)
	}
	var k CompositeKey
	if err := json.Unmarshal(b, &k); err != nil {
		return nil, fmt.Errorf("composite key decode: %w", err)
	}
	return k, nil
}

// JSONString — читаемое представление для __str__-подобного вывода.
func (k CompositeKey) JSONString() string {
	b, err := json.Marshal(k)
	if err != nil {
		return ""
	}
	return string(b)
}

// Hash не зависит от порядка вставки ключей: обходим отсортированно.
func (k CompositeKey) Hash() uint64 {
	keys := make([]string, 0, len(k))
	for key := range k {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	h := fnv.New64a()
	for _, key := range keys {
		h.Write([]byte(key))
		h.Write([]byte{0})
		vb, _ := json.Marshal(k[key])
		h.Write(vb)
		h.Write([]byte{0})
	}
	return h.Sum64()
}

// Canonical приводит скалярное значение к канонической JSON-форме
// для упаковки в токен: даты/время — к ISO-строкам, decimal и uuid —
// к строкам, остальное — как есть.
func Canonical(v any, kind Kind) any {
	if v == nil {
		return nil
	}
	switch kind {
	case KindDate:
		if t, ok := v.(time.Time); ok {
			return t.Format("2006-01-02")
		}
	case KindDateTime:
		if t, ok := v.(time.Time); ok {
			return canonicalTime(t)
		}
	case KindDecimal:
		switch d := v.(type) {
		case []byte:
			return string(d)
		case string:
			return d
		default:
			return fmt.Sprintf("%v", d)
		}
	case KindUUID:
		switch u := v.(type) {
		case string:
			if parsed, err := uuid.Parse(u); err == nil {
				return parsed.String()
			}
			return u
		case [16]byte:
			return uuid.UUID(u).String()
		}
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// canonicalTime: ISO 8601, микросекунды режем до миллисекунд,
// нулевые доли опускаем; +00:00 схлопывается в Z.
func canonicalTime(t time.Time) string {
	t = t.Truncate(time.Millisecond)
	if t.Nanosecond() == 0 {
		return t.Format("2006-01-02T15:04:05Z07:00")
	}
	return t.Format("2006-01-02T15:04:05.000Z07:00")
}
