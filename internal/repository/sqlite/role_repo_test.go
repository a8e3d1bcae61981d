package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/custos-id/custos/internal/domain"
)

func createRight(t *testing.T, db *DB, name string) *domain.Right {
	t.Helper()
	right := domain.NewRight(name, "")
	if err := NewRightRepository(db).Create(context.Background(), right); err != nil {
		t.Fatalf("failed to create right %q: %v", name, err)
	}
	return right
}

func TestRoleRepository_CreateAndGet(t *testing.T) {
	db := testDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	role := createRole(t, repo, "auditor")

	got, err := repo.GetByID(ctx, role.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Name != "auditor" {
		t.Errorf("unexpected role %+v", got)
	}

	got, err = repo.GetByName(ctx, "auditor")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != role.ID {
		t.Errorf("expected id %d, got %d", role.ID, got.ID)
	}

	if _, err := repo.GetByName(ctx, "nobody"); !errors.Is(err, domain.ErrRoleNotFound) {
		t.Errorf("expected ErrRoleNotFound, got %v", err)
	}

	dup := domain.NewRole("auditor", "", "")
	if err := repo.Create(ctx, dup); !errors.Is(err, domain.ErrRoleAlreadyExists) {
		t.Errorf("expected ErrRoleAlreadyExists, got %v", err)
	}
}

func TestRoleRepository_RightAttachments(t *testing.T) {
	db := testDB(t)
	repo := NewRoleRepository(db)
	ctx := context.Background()

	role := createRole(t, repo, "auditor")
	view := createRight(t, db, "view_user")
	list := createRight(t, db, "list_users")

	if err := repo.AttachRight(ctx, role.ID, view.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := repo.AttachRight(ctx, role.ID, view.ID); err != nil {
		t.Fatalf("re-attach must be a no-op, got %v", err)
	}
	if err := repo.AttachRight(ctx, role.ID, list.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names, err := repo.ListRightNames(ctx, role.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 2 {
		t.Fatalf("expected 2 rights, got %v", names)
	}

	if err := repo.DetachRight(ctx, role.ID, view.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	names, _ = repo.ListRightNames(ctx, role.ID)
	if len(names) != 1 || names[0] != "list_users" {
		t.Errorf("expected [list_users], got %v", names)
	}
}

func TestRoleRepository_RightDeleteCascadesAttachments(t *testing.T) {
	db := testDB(t)
	roleRepo := NewRoleRepository(db)
	rightRepo := NewRightRepository(db)
	ctx := context.Background()

	role := createRole(t, roleRepo, "auditor")
	right := createRight(t, db, "view_user")
	if err := roleRepo.AttachRight(ctx, role.ID, right.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := rightRepo.Delete(ctx, right.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	names, err := roleRepo.ListRightNames(ctx, role.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(names) != 0 {
		t.Errorf("expected attachments cascaded away with the right, got %v", names)
	}
}

func TestRoleRepository_ListUserIDs(t *testing.T) {
	db := testDB(t)
	userRepo := NewUserRepository(db)
	roleRepo := NewRoleRepository(db)
	ctx := context.Background()

	role := createRole(t, roleRepo, "auditor")
	alice := createUser(t, userRepo, "alice")
	bob := createUser(t, userRepo, "bob")
	for _, id := range []int64{alice.ID, bob.ID} {
		if err := userRepo.AttachRole(ctx, id, role.ID); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	ids, err := roleRepo.ListUserIDs(ctx, role.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("expected 2 holders, got %v", ids)
	}
}
