package post

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_SortsKeys(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"zebra": 1, "apple": "a", "Mango": true})
	require.NoError(t, err)
	assert.Equal(t, `{"Mango":true,"apple":"a","zebra":1}`, string(data))
}

func TestMarshalCanonical_NoHTMLEscaping(t *testing.T) {
	data, err := MarshalCanonical("<a & b>")
	require.NoError(t, err)
	assert.Equal(t, `"<a & b>"`, string(data))
}

func TestMarshalCanonical_NFCNormalizes(t *testing.T) {
	decomposed := "e\u0301"
	data, err := MarshalCanonical(decomposed)
	require.NoError(t, err)
	assert.Equal(t, "\"\u00e9\"", string(data))
}

func TestMarshalCanonical_RejectsFloats(t *testing.T) {
	_, err := MarshalCanonical(1.5)
	assert.Error(t, err)

	_, err = MarshalCanonical(json.Number("1.5"))
	assert.Error(t, err)

	_, err = MarshalCanonical(Blob(`{"score":0.5}`))
	assert.Error(t, err)
}

func TestMarshalCanonical_BlobIsReencoded(t *testing.T) {
	data, err := MarshalCanonical(Blob(`{ "b": 2, "a": [1, null] }`))
	require.NoError(t, err)
	assert.Equal(t, `{"a":[1,null],"b":2}`, string(data))
}

func TestMarshalCanonical_Post(t *testing.T) {
	p := Post{ID: 1, CreatedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}.WithDefaults()

	data, err := MarshalCanonical(p)
	require.NoError(t, err)
	assert.Equal(t,
		`{"body":"","caption":"","comments":[],"id":1,"imageUrl":"","isSynced":false,"likes":0,`+
			`"profilePicture":"https://i.imgur.com/abc123.jpg","reactions":{"likes":0},`+
			`"timestamp":"2024-01-01T00:00:00.000000000Z","title":"","userId":1,"username":"User"}`,
		string(data))
}

func TestMarshalCanonical_UnsupportedType(t *testing.T) {
	_, err := MarshalCanonical(struct{}{})
	assert.Error(t, err)
}

func TestDigest_StableAndOrderSensitive(t *testing.T) {
	a := Post{ID: 1}.WithDefaults()
	b := Post{ID: 2}.WithDefaults()

	d1, err := Digest([]Post{a, b})
	require.NoError(t, err)
	d2, err := Digest([]Post{a.Clone(), b.Clone()})
	require.NoError(t, err)
	d3, err := Digest([]Post{b, a})
	require.NoError(t, err)

	assert.Equal(t, d1, d2)
	assert.NotEqual(t, d1, d3)
	assert.Len(t, d1, 64)
}

func TestDigest_NilEqualsEmpty(t *testing.T) {
	d1, err := Digest(nil)
	require.NoError(t, err)
	d2, err := Digest([]Post{})
	require.NoError(t, err)
	assert.Equal(t, d1, d2)
}
