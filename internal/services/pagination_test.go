package services

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func TestAssemble(t *testing.T) {
	tests := []struct {
		name      string
		total     int64
		wantPages int64
	}{
		{"ninety five", 95, 10},
		{"exact multiple", 100, 10},
		{"one", 1, 1},
		{"empty", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Assemble([]int{1, 2}, tt.total, 1, 10)
			assert.Equal(t, tt.wantPages, p.TotalPages)
			assert.Equal(t, tt.total, p.Total)
			assert.Equal(t, 10, p.ItemsPerPage)
		})
	}
}

func TestAssemble_NilItemsEncodeAsArray(t *testing.T) {
	data, err := json.Marshal(Assemble[string](nil, 0, 1, 10))
	require.NoError(t, err)
	assert.JSONEq(t, `{"items":[],"total":0,"page":1,"totalPages":0,"itemsPerPage":10}`, string(data))
}

func TestAssemble_TotalPagesProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		total := rapid.Int64Range(0, 1_000_000).Draw(t, "total")
		size := rapid.IntRange(1, 200).Draw(t, "size")

		pages := Assemble[int](nil, total, 1, size).TotalPages
		if pages*int64(size) < total {
			t.Fatalf("%d pages of %d cannot hold %d", pages, size, total)
		}
		if pages > 0 && (pages-1)*int64(size) >= total {
			t.Fatalf("%d pages of %d is one too many for %d", pages, size, total)
		}
	})
}
