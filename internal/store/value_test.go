package store

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestToInt(t *testing.T) {
	tests := []struct {
		name   string
		in     any
		want   int64
		wantOK bool
	}{
		{"int", 7, 7, true},
		{"int64", int64(1700000000000), 1700000000000, true},
		{"float", float64(12), 12, true},
		{"json number", json.Number("42"), 42, true},
		{"numeric string", " 15 ", 15, true},
		{"float string", "3.9", 3, true},
		{"text", "many", 0, false},
		{"nil", nil, 0, false},
		{"nan", math.NaN(), 0, false},
		{"bool", true, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ToInt(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValue_String(t *testing.T) {
	v := Value{"title": "Expo", "n": float64(3), "flag": true, "obj": map[string]any{}}

	assert.Equal(t, "Expo", v.String("title"))
	assert.Equal(t, "3", v.String("n"))
	assert.Equal(t, "true", v.String("flag"))
	assert.Equal(t, "", v.String("obj"))
	assert.Equal(t, "", v.String("missing"))
}

func TestValue_Has(t *testing.T) {
	v := Value{"a": 1, "b": nil}
	assert.True(t, v.Has("a"))
	assert.False(t, v.Has("b"))
	assert.False(t, v.Has("c"))
}
