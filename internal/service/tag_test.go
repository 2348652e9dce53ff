package service

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"expense-manager/internal/apperr"
	"expense-manager/internal/model"
)

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(jan10)

	c, err := fx.tags.CreateCategory(ctx, fx.user.ID, model.TagRequest{Name: "Pets"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fx.tags.CreateCategory(ctx, fx.user.ID, model.TagRequest{Name: "Pets"}); !errors.Is(err, apperr.ErrCategoryExists) {
		t.Fatalf("duplicate: err = %v", err)
	}

	color := "#123456"
	updated, err := fx.tags.UpdateCategory(ctx, fx.user.ID, c.ID, model.TagRequest{Name: "Pets and Vet", Color: &color})
	if err != nil {
		t.Fatal(err)
	}
	if updated.Name != "Pets and Vet" || updated.Color == nil || *updated.Color != color {
		t.Fatalf("updated = %+v", updated)
	}

	stranger := uuid.New()
	if _, err := fx.tags.UpdateCategory(ctx, stranger, c.ID, model.TagRequest{Name: "x"}); !errors.Is(err, apperr.ErrCategoryNotFound) {
		t.Fatalf("foreign update: err = %v", err)
	}
	if err := fx.tags.DeleteCategory(ctx, stranger, c.ID); !errors.Is(err, apperr.ErrCategoryNotFound) {
		t.Fatalf("foreign delete: err = %v", err)
	}

	if err := fx.tags.DeleteCategory(ctx, fx.user.ID, c.ID); err != nil {
		t.Fatal(err)
	}
	list, err := fx.tags.ListCategories(ctx, fx.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != fx.category.ID {
		t.Fatalf("categories = %+v", list)
	}
}

func TestServicesVisibility(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(jan10)

	global := model.TransactionService{ID: uuid.New(), Name: "Netflix"}
	fx.db.services[global.ID] = global

	own, err := fx.tags.CreateService(ctx, fx.user.ID, model.TagRequest{Name: "Gym"})
	if err != nil {
		t.Fatal(err)
	}

	other := uuid.New()
	if _, err := fx.tags.CreateService(ctx, other, model.TagRequest{Name: "Bakery"}); err != nil {
		t.Fatal(err)
	}

	list, err := fx.tags.ListServices(ctx, fx.user.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("visible services = %+v", list)
	}

	if _, err := fx.tags.UpdateService(ctx, fx.user.ID, global.ID, model.TagRequest{Name: "Hulu"}); !errors.Is(err, apperr.ErrServiceNotFound) {
		t.Fatalf("global update: err = %v", err)
	}
	if err := fx.tags.DeleteService(ctx, fx.user.ID, global.ID); !errors.Is(err, apperr.ErrServiceNotFound) {
		t.Fatalf("global delete: err = %v", err)
	}

	renamed, err := fx.tags.UpdateService(ctx, fx.user.ID, own.ID, model.TagRequest{Name: "Gym and Pool"})
	if err != nil {
		t.Fatal(err)
	}
	if renamed.Name != "Gym and Pool" || renamed.UserID == nil || *renamed.UserID != fx.user.ID {
		t.Fatalf("renamed = %+v", renamed)
	}
	if err := fx.tags.DeleteService(ctx, fx.user.ID, own.ID); err != nil {
		t.Fatal(err)
	}
}
