package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/hackcrew/service_layer/internal/app/storage"
	"github.com/hackcrew/service_layer/internal/errors"
)

func TestFromStore(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code errors.ErrorCode
	}{
		{"not found", fmt.Errorf("get: %w", storage.ErrNotFound), errors.ErrCodeNotFound},
		{"conflict", fmt.Errorf("insert: %w", storage.ErrConflict), errors.ErrCodeConflict},
		{"timeout", context.DeadlineExceeded, errors.ErrCodeUpstream},
		{"passthrough", errors.Validation("bad"), errors.ErrCodeValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := FromStore("project", tc.err); !errors.IsCode(got, tc.code) {
				t.Fatalf("FromStore(%v) = %v, want code %s", tc.err, got, tc.code)
			}
		})
	}
	if FromStore("project", nil) != nil {
		t.Fatalf("nil error must stay nil")
	}
}

func TestFound(t *testing.T) {
	if ok, err := Found("row", nil); !ok || err != nil {
		t.Fatalf("Found(nil) = %v, %v", ok, err)
	}
	if ok, err := Found("row", storage.ErrNotFound); ok || err != nil {
		t.Fatalf("Found(ErrNotFound) = %v, %v", ok, err)
	}
	if _, err := Found("row", fmt.Errorf("boom")); !errors.IsUpstream(err) {
		t.Fatalf("expected upstream error, got %v", err)
	}
}

func TestWithCapabilities(t *testing.T) {
	d := Descriptor{Name: "projects", Capabilities: []string{"create"}}
	e := d.WithCapabilities("update-stage")
	if len(d.Capabilities) != 1 || len(e.Capabilities) != 2 {
		t.Fatalf("WithCapabilities must copy: %v %v", d.Capabilities, e.Capabilities)
	}
}
