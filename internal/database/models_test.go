package database_test

import (
	"testing"

	"github.com/mveiga/prospector/internal/database"
)

func TestStringListValueNil(t *testing.T) {
	t.Parallel()

	var list database.StringList
	value, err := list.Value()
	if err != nil {
		t.Fatalf("Value: %v", err)
	}
	if value != "[]" {
		t.Errorf("nil list should store as empty array, got %v", value)
	}
}

func TestStringListScan(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		src     any
		want    int
		wantErr bool
	}{
		{name: "string source", src: `["a","b"]`, want: 2},
		{name: "byte source", src: []byte(`["a"]`), want: 1},
		{name: "null column", src: nil, want: 0},
		{name: "unsupported type", src: 42, wantErr: true},
		{name: "invalid json", src: "not json", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var list database.StringList
			err := list.Scan(tt.src)
			if tt.wantErr {
				if err == nil {
					t.Error("expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Scan: %v", err)
			}
			if len(list) != tt.want {
				t.Errorf("got %d elements, want %d", len(list), tt.want)
			}
		})
	}
}
