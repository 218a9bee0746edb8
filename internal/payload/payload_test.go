package payload

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMalformedDegradesToEmpty(t *testing.T) {
	assert.Empty(t, Parse([]byte("{not json")))
	assert.Empty(t, Parse([]byte(`[1,2,3]`)))
	assert.Empty(t, Parse(nil))
	assert.Equal(t, "x", Parse([]byte(`{"a":"x"}`)).String("a"))
}

func TestParseObject(t *testing.T) {
	obj, ok := ParseObject([]byte("garbage"))
	assert.True(t, ok)
	assert.Empty(t, obj)

	_, ok = ParseObject([]byte(`["a"]`))
	assert.False(t, ok)

	obj, ok = ParseObject([]byte(`{"k": 1}`))
	assert.True(t, ok)
	assert.Len(t, obj, 1)
}

func TestTruthy(t *testing.T) {
	assert.False(t, Truthy(nil))
	assert.False(t, Truthy(""))
	assert.False(t, Truthy(0.0))
	assert.False(t, Truthy(map[string]any{}))
	assert.False(t, Truthy([]any{}))
	assert.True(t, Truthy("x"))
	assert.True(t, Truthy(map[string]any{"a": 1.0}))
}

func TestFieldAliases(t *testing.T) {
	o := Parse([]byte(`{"order_type":"takeaway","address":"","address_text":"12 Main St"}`))
	assert.Equal(t, "takeaway", o.String("type", "order_type"))
	assert.Equal(t, "12 Main St", o.String("address", "address_text"))
	assert.Equal(t, "", o.String("missing"))
}

func TestDecimal(t *testing.T) {
	o := Parse([]byte(`{"n": 12.5, "s": "40.25", "bad": "abc", "obj": {}}`))

	d, present, err := o.Decimal("n")
	require.NoError(t, err)
	assert.True(t, present)
	assert.Equal(t, "12.5", d.String())

	d, _, err = o.Decimal("s")
	require.NoError(t, err)
	assert.Equal(t, "40.25", d.String())

	_, present, err = o.Decimal("absent")
	require.NoError(t, err)
	assert.False(t, present)

	_, _, err = o.Decimal("bad")
	assert.Error(t, err)

	_, _, err = o.Decimal("obj")
	assert.Error(t, err)
}

func TestNumberIgnoresStrings(t *testing.T) {
	o := Parse([]byte(`{"lat": 13.75, "lng": "100.5"}`))
	require.NotNil(t, o.Number("lat"))
	assert.Equal(t, 13.75, *o.Number("lat"))
	assert.Nil(t, o.Number("lng"))
}

func TestIntAndID(t *testing.T) {
	o := Parse([]byte(`{"q": 3, "qs": "2", "zero": 0, "id": "7", "neg": -1}`))

	n, err := o.Int(1, "q")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = o.Int(1, "qs")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = o.Int(1, "zero")
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NotNil(t, o.ID("id"))
	assert.Equal(t, uint(7), *o.ID("id"))
	assert.Nil(t, o.ID("neg"))
}

func TestNestedObjects(t *testing.T) {
	o := Parse([]byte(`{"order": {"items": [{"name": "a"}, 5, {"name": "b"}]}}`))
	inner, ok := o.Object("order")
	require.True(t, ok)
	items := inner.Objects("items")
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[1].String("name"))
}
