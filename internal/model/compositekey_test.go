package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompositeKeyRoundTrip(t *testing.T) {
	key := CompositeKey{"a": float64(1), "b": "x"}

	token, err := key.Encode()
	require.NoError(t, err)

	decoded, err := DecodeKey(token)
	require.NoError(t, err)
	assert.Equal(t, key, decoded)
}

func TestCompositeKeyEncodeDeterministic(t *testing.T) {
	// порядок вставки не должен влиять ни на токен, ни на хеш
	k1 := CompositeKey{}
	k1["order_id"] = float64(7)
	k1["item_no"] = float64(2)

	k2 := CompositeKey{}
	k2["item_no"] = float64(2)
	k2["order_id"] = float64(7)

	t1, err := k1.Encode()
	require.NoError(t, err)
	t2, err := k2.Encode()
	require.NoError(t, err)

	assert.Equal(t, t1, t2)
	assert.Equal(t, k1.Hash(), k2.Hash())
}

func TestCompositeKeyHashDiffers(t *testing.T) {
	k1 := CompositeKey{"a": "x", "b": "y"}
	k2 := CompositeKey{"a": "y", "b": "x"}
	assert.NotEqual(t, k1.Hash(), k2.Hash())
}

func TestDecodeKeyRejectsGarbage(t *testing.T) {
	_, err := DecodeKey("не base64 вовсе")
	assert.Error(t, err)

	// валидный base64, но не JSON
	_, err = DecodeKey("bm90IGpzb24=")
	assert.Error(t, err)
}

func TestCompositeKeyJSONString(t *testing.T) {
	key := CompositeKey{"b": "x", "a": float64(1)}
	assert.Equal(t, `{"a":1,"b":"x"}`, key.JSONString())
}

func TestCanonicalDateTime(t *testing.T) {
	loc := time.UTC

	// микросекунды режутся до миллисекунд, UTC рендерится как Z
	ts := time.Date(2024, 3, 5, 10, 20, 30, 123456000, loc)
	assert.Equal(t, "2024-03-05T10:20:30.123Z", Canonical(ts, KindDateTime))

	// без долей секунды — без точки
	ts = time.Date(2024, 3, 5, 10, 20, 30, 0, loc)
	assert.Equal(t, "2024-03-05T10:20:30Z", Canonical(ts, KindDateTime))

	// не-UTC зона сохраняет смещение
	msk := time.FixedZone("MSK", 3*3600)
	ts = time.Date(2024, 3, 5, 10, 20, 30, 0, msk)
	assert.Equal(t, "2024-03-05T10:20:30+03:00", Canonical(ts, KindDateTime))
}

func TestCanonicalDate(t *testing.T) {
	d := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-05", Canonical(d, KindDate))
}

func TestCanonicalUUID(t *testing.T) {
	assert.Equal(t,
		"1b4e28ba-2fa1-11d2-883f-0016d3cca427",
		Canonical("1B4E28BA-2FA1-11D2-883F-0016D3CCA427", KindUUID))
}

func TestCanonicalDecimal(t *testing.T) {
	assert.Equal(t, "12.50", Canonical([]byte("12.50"), KindDecimal))
	assert.Equal(t, "12.50", Canonical("12.50", KindDecimal))
}

func TestCanonicalNil(t *testing.T) {
	assert.Nil(t, Canonical(nil, KindDateTime))
}
