package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStringSliceUnion(t *testing.T) {
	tests := []struct {
		name      string
		existing  StringSlice
		add       []string
		want      StringSlice
		wantAdded bool
	}{
		{
			name:      "case insensitive duplicates collapse",
			existing:  StringSlice{"resume"},
			add:       []string{"Resume", "resume", "cv"},
			want:      StringSlice{"resume", "cv"},
			wantAdded: true,
		},
		{
			name:      "empty entries are dropped",
			existing:  StringSlice{},
			add:       []string{"", "  ", "invoice"},
			want:      StringSlice{"invoice"},
			wantAdded: true,
		},
		{
			name:      "first spelling wins",
			existing:  nil,
			add:       []string{"Acme Corp", "acme corp"},
			want:      StringSlice{"Acme Corp"},
			wantAdded: true,
		},
		{
			name:      "comma separated entries are split",
			existing:  StringSlice{"q3"},
			add:       []string{"finance, q3 ,tax"},
			want:      StringSlice{"q3", "finance", "tax"},
			wantAdded: true,
		},
		{
			name:      "nothing new",
			existing:  StringSlice{"a", "b"},
			add:       []string{"A", "B"},
			want:      StringSlice{"a", "b"},
			wantAdded: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, added := tt.existing.Union(tt.add...)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantAdded, added)
		})
	}
}

func TestStringSliceValueScan(t *testing.T) {
	v, err := StringSlice{"acme corp", "q3 2024"}.Value()
	require.NoError(t, err)
	assert.Equal(t, "acme corp,q3 2024", v)

	_, err = StringSlice{"a,b"}.Value()
	assert.Error(t, err)

	var s StringSlice
	require.NoError(t, s.Scan([]byte("x,y")))
	assert.Equal(t, StringSlice{"x", "y"}, s)

	require.NoError(t, s.Scan(nil))
	assert.Empty(t, s)

	assert.Error(t, s.Scan(42))
}
