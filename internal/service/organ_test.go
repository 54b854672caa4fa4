package service

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
)

func newTestOrganService() (*OrganService, *fakeOrganRepo, *fakeUserRepo) {
	organs := newFakeOrganRepo()
	users := newFakeUserRepo()
	return NewOrganService(organs, users, testLogger()), organs, users
}

func TestOrganCreate_Success(t *testing.T) {
	svc, _, users := newTestOrganService()
	donor := seedUser(users, "Alice", "alice@example.com")

	organ, err := svc.Create(context.Background(), donor, " kidney ", "O+", "Male")
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if organ.ID == "" {
		t.Error("expected organ to have an ID")
	}
	if organ.Type != "kidney" {
		t.Errorf("Type = %q, want kidney", organ.Type)
	}
	if organ.AvailabilityStatus != model.OrganAvailable {
		t.Errorf("AvailabilityStatus = %q, want available", organ.AvailabilityStatus)
	}
	if organ.DonorID != donor {
		t.Errorf("DonorID = %q, want %q", organ.DonorID, donor)
	}
}

func TestOrganCreate_Validation(t *testing.T) {
	tests := []struct {
		name       string
		organType  string
		bloodGroup string
		gender     string
		wantMsg    string
	}{
		{"missing type", "", "O+", "Male", MsgOrganFieldsRequired},
		{"missing blood group", "kidney", " ", "Male", MsgOrganFieldsRequired},
		{"missing gender", "kidney", "O+", "", MsgOrganFieldsRequired},
		{"unknown gender", "kidney", "O+", "male", MsgInvalidGender},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, organs, users := newTestOrganService()
			donor := seedUser(users, "Alice", "alice@example.com")

			_, err := svc.Create(context.Background(), donor, tt.organType, tt.bloodGroup, tt.gender)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Fatalf("error = %v, want ErrValidation", err)
			}
			if err.Error() != tt.wantMsg {
				t.Errorf("message = %q, want %q", err.Error(), tt.wantMsg)
			}
			if len(organs.organs) != 0 {
				t.Errorf("stored %d organs, want 0", len(organs.organs))
			}
		})
	}
}

func TestOrganCreate_UnknownDonor(t *testing.T) {
	svc, organs, _ := newTestOrganService()

	_, err := svc.Create(context.Background(), "ghost", "kidney", "O+", "Male")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Fatalf("error = %v, want ErrNotFound", err)
	}
	if len(organs.organs) != 0 {
		t.Errorf("stored %d organs, want 0", len(organs.organs))
	}
}

func TestListAvailable_NewestFirstWithDonor(t *testing.T) {
	svc, organs, users := newTestOrganService()
	ctx := context.Background()
	alice := seedUser(users, "Alice", "alice@example.com")
	bob := seedUser(users, "Bob", "bob@example.com")

	first, _ := svc.Create(ctx, alice, "kidney", "O+", "Male")
	second, _ := svc.Create(ctx, bob, "liver", "A-", "Female")
	donated, _ := svc.Create(ctx, alice, "heart", "B+", "Other")
	if err := organs.UpdateStatus(ctx, donated.ID, model.OrganDonated); err != nil {
		t.Fatal(err)
	}

	views, err := svc.ListAvailable(ctx)
	if err != nil {
		t.Fatalf("ListAvailable() error = %v", err)
	}
	if len(views) != 2 {
		t.Fatalf("got %d organs, want 2", len(views))
	}
	if views[0].ID != second.ID || views[1].ID != first.ID {
		t.Errorf("order = [%s %s], want [%s %s]", views[0].ID, views[1].ID, second.ID, first.ID)
	}
	if views[0].Donor == nil || views[0].Donor.Name != "Bob" {
		t.Errorf("donor = %+v, want Bob", views[0].Donor)
	}
	if views[1].Donor == nil || views[1].Donor.Email != "alice@example.com" {
		t.Errorf("donor = %+v, want alice@example.com", views[1].Donor)
	}
}

func TestListAvailable_Empty(t *testing.T) {
	svc, _, _ := newTestOrganService()

	views, err := svc.ListAvailable(context.Background())
	if err != nil {
		t.Fatalf("ListAvailable() error = %v", err)
	}
	if views == nil || len(views) != 0 {
		t.Errorf("views = %v, want empty non-nil slice", views)
	}
}

func TestListByDonor_AllStatuses(t *testing.T) {
	svc, organs, users := newTestOrganService()
	ctx := context.Background()
	alice := seedUser(users, "Alice", "alice@example.com")
	bob := seedUser(users, "Bob", "bob@example.com")

	kidney, _ := svc.Create(ctx, alice, "kidney", "O+", "Male")
	_, _ = svc.Create(ctx, bob, "liver", "A-", "Female")
	if err := organs.UpdateStatus(ctx, kidney.ID, model.OrganDonated); err != nil {
		t.Fatal(err)
	}

	mine, err := svc.ListByDonor(ctx, alice)
	if err != nil {
		t.Fatalf("ListByDonor() error = %v", err)
	}
	if len(mine) != 1 || mine[0].ID != kidney.ID {
		t.Fatalf("got %+v, want only %s", mine, kidney.ID)
	}
	if mine[0].AvailabilityStatus != model.OrganDonated {
		t.Errorf("status = %q, want donated", mine[0].AvailabilityStatus)
	}
}
