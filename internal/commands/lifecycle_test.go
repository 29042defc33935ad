package commands

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveCommandID(t *testing.T) {
	tests := []struct {
		path   string
		wantID string
		wantOK bool
	}{
		{path: "sync", wantID: "sync", wantOK: true},
		{path: "roots add", wantID: "roots_add", wantOK: true},
		{path: " roots list ", wantID: "roots_list", wantOK: true},
		{path: "not a real command", wantID: "", wantOK: false},
		{path: "", wantID: "", wantOK: false},
	}

	for _, tt := range tests {
		gotID, gotOK := ResolveCommandID(tt.path)
		assert.Equal(t, tt.wantOK, gotOK, tt.path)
		assert.Equal(t, tt.wantID, gotID, tt.path)
	}
}

func TestMutates(t *testing.T) {
	cases := map[string]bool{
		"sync":        true,
		"delete":      true,
		"roots add":   true,
		"automigrate": true,
		"list":        false,
		"status":      false,
		"roots list":  false,
		"history":     false,
		"completion":  false,
	}
	for path, want := range cases {
		assert.Equal(t, want, Mutates(path), path)
	}
}
