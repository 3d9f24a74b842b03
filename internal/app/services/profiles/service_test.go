package profiles

import (
	"context"
	"strings"
	"testing"

	"github.com/hackcrew/service_layer/internal/app/domain/profile"
	"github.com/hackcrew/service_layer/internal/app/storage/memory"
	"github.com/hackcrew/service_layer/internal/errors"
	"github.com/hackcrew/service_layer/internal/logging"
)

func TestUpsertAndGet(t *testing.T) {
	store := memory.New()
	svc := New(store, logging.Discard())
	ctx := context.Background()

	err := svc.Upsert(ctx, profile.Profile{UserID: "u1", Username: "ada", Role: profile.LabelRole("backend")})
	if err != nil {
		t.Fatalf("upsert: %v", err)
	}
	stored, _ := store.GetProfile(ctx, "u1")
	if stored.Availability != "student" {
		t.Fatalf("availability default = %q", stored.Availability)
	}

	got, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Username != "ada" || got.Role.Display() != "backend" || got.Skills == nil {
		t.Fatalf("unexpected summary: %+v", got)
	}

	if err := svc.Upsert(ctx, profile.Profile{UserID: "u1", Username: "ada2"}); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	got, _ = svc.Get(ctx, "u1")
	if got.Username != "ada2" {
		t.Fatalf("upsert must replace, got %q", got.Username)
	}
}

func TestCreateDuplicateIsConflict(t *testing.T) {
	svc := New(memory.New(), logging.Discard())
	ctx := context.Background()
	if err := svc.Create(ctx, profile.Profile{UserID: "u1"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	err := svc.Create(ctx, profile.Profile{UserID: "u1"})
	if !errors.IsCode(err, errors.ErrCodeConflict) || errors.HTTPStatus(err) != 400 {
		t.Fatalf("expected 400 conflict, got %v", err)
	}
}

func TestValidation(t *testing.T) {
	store := memory.New()
	svc := New(store, logging.Discard())
	ctx := context.Background()
	if err := svc.Upsert(ctx, profile.Profile{}); !errors.IsValidation(err) {
		t.Fatalf("missing user_id: %v", err)
	}
	if err := svc.Create(ctx, profile.Profile{UserID: "u", FullName: strings.Repeat("x", 101)}); !errors.IsValidation(err) {
		t.Fatalf("long name: %v", err)
	}
	if _, err := svc.Get(ctx, "ghost"); !errors.IsNotFound(err) {
		t.Fatalf("missing profile: %v", err)
	}
	if store.Calls("InsertProfile")+store.Calls("UpsertProfile") != 0 {
		t.Fatalf("invalid input must not reach the store")
	}
}
