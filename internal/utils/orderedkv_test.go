package utils

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderedMapKeepsInsertionOrder(t *testing.T) {
	om := NewOrderedMap[any]()
	om.Set("zeta", 1)
	om.Set("alpha", map[string]string{"a": "b"})
	om.Set("mid", nil)

	out, err := json.Marshal(om)
	require.NoError(t, err)
	assert.Equal(t, `{"zeta":1,"alpha":{"a":"b"},"mid":null}`, string(out))
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, om.Keys())
}

func TestOrderedMapReplaceKeepsPosition(t *testing.T) {
	om := NewOrderedMap[int]()
	om.Set("a", 1)
	om.Set("b", 2)
	om.Set("a", 3)

	out, err := json.Marshal(om)
	require.NoError(t, err)
	assert.Equal(t, `{"a":3,"b":2}`, string(out))
	assert.Equal(t, 2, om.Len())

	v, ok := om.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 3, v)
}

func TestOrderedMapEmpty(t *testing.T) {
	out, err := json.Marshal(NewOrderedMap[string]())
	require.NoError(t, err)
	assert.Equal(t, `{}`, string(out))
}
