package sqlite

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sakif/organlink/internal/apperror"
	"github.com/sakif/organlink/internal/model"
)

// TESTING WITH IN-MEMORY SQLITE:
// ":memory:" creates a fresh database that exists only during the test.
// Each test gets its own database, and t.Cleanup closes it afterwards.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// createTestUser creates a user and fails the test if it errors.
func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{
		Name:         "Test " + email,
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Phone:        "555-0100",
		Address:      "1 Main St",
	}
	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// =========================================================================
// CREATE TESTS
// =========================================================================

func TestUserCreate(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{
		Name:         "Ada",
		Email:        "ada@example.com",
		PasswordHash: "hash",
		Phone:        "555-0101",
		Address:      "2 Side St",
	}

	if err := db.Users().Create(context.Background(), user); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if user.ID == "" {
		t.Error("Create() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("Create() did not set user.CreatedAt")
	}
	if user.UpdatedAt.IsZero() {
		t.Error("Create() did not set user.UpdatedAt")
	}
}

func TestUserCreate_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "dup@example.com")

	duplicate := &model.User{Name: "Other", Email: "dup@example.com", PasswordHash: "x", Phone: "1", Address: "a"}
	err := db.Users().Create(context.Background(), duplicate)

	if err == nil {
		t.Fatal("Create() should have returned an error for duplicate email")
	}
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("Create() error = %v, want ErrConflict", err)
	}
}

// =========================================================================
// GET TESTS
// =========================================================================

func TestUserGetByID(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "byid@example.com")

	found, err := db.Users().GetByID(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}

	if found.Email != "byid@example.com" {
		t.Errorf("Email = %q, want %q", found.Email, "byid@example.com")
	}
	if found.PasswordHash != "$2a$04$hash" {
		t.Errorf("PasswordHash = %q, want stored hash", found.PasswordHash)
	}
	if found.Phone != "555-0100" || found.Address != "1 Main St" {
		t.Errorf("contact fields not persisted: %+v", found)
	}
}

func TestUserGetByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.Users().GetByID(context.Background(), "nonexistent-id")

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByID() error = %v, want ErrNotFound", err)
	}
}

func TestUserGetByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "lookup@example.com")

	found, err := db.Users().GetByEmail(context.Background(), "lookup@example.com")
	if err != nil {
		t.Fatalf("GetByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}

	_, err = db.Users().GetByEmail(context.Background(), "missing@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetByEmail(missing) error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// CHAT HISTORY TESTS
// =========================================================================

func TestChatHistory_Empty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "quiet@example.com")

	history, err := db.Users().ChatHistory(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}

	// Must be an empty slice, not nil: it encodes as [] rather than null.
	if history == nil {
		t.Error("ChatHistory() returned nil, want empty slice")
	}
	if len(history) != 0 {
		t.Errorf("len(history) = %d, want 0", len(history))
	}
}

func TestAppendChatTurns_PreservesOrder(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "chatty@example.com")
	ts := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	err := db.Users().AppendChatTurns(ctx, user.ID,
		model.ChatTurn{Role: model.ChatRoleUser, Message: "hello", Timestamp: ts},
		model.ChatTurn{Role: model.ChatRoleBot, Message: "hi there", Timestamp: ts},
	)
	if err != nil {
		t.Fatalf("AppendChatTurns() error = %v", err)
	}
	err = db.Users().AppendChatTurns(ctx, user.ID,
		model.ChatTurn{Role: model.ChatRoleUser, Message: "second", Timestamp: ts.Add(time.Minute)},
	)
	if err != nil {
		t.Fatalf("AppendChatTurns() second call error = %v", err)
	}

	history, err := db.Users().ChatHistory(ctx, user.ID)
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}

	want := []struct {
		role model.ChatRole
		msg  string
	}{
		{model.ChatRoleUser, "hello"},
		{model.ChatRoleBot, "hi there"},
		{model.ChatRoleUser, "second"},
	}
	if len(history) != len(want) {
		t.Fatalf("len(history) = %d, want %d", len(history), len(want))
	}
	for i, w := range want {
		if history[i].Role != w.role || history[i].Message != w.msg {
			t.Errorf("history[%d] = {%s %q}, want {%s %q}", i, history[i].Role, history[i].Message, w.role, w.msg)
		}
	}
	if !history[0].Timestamp.Equal(ts) {
		t.Errorf("history[0].Timestamp = %v, want %v", history[0].Timestamp, ts)
	}
}

func TestAppendChatTurns_UnknownUser(t *testing.T) {
	db := newTestDB(t)

	err := db.Users().AppendChatTurns(context.Background(), "ghost",
		model.ChatTurn{Role: model.ChatRoleUser, Message: "anyone?", Timestamp: time.Now()},
	)

	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("AppendChatTurns() error = %v, want ErrNotFound", err)
	}
}

func TestChatHistory_IsPerUser(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	a := createTestUser(t, db, "a@example.com")
	b := createTestUser(t, db, "b@example.com")

	if err := db.Users().AppendChatTurns(ctx, a.ID,
		model.ChatTurn{Role: model.ChatRoleUser, Message: "from a", Timestamp: time.Now()},
	); err != nil {
		t.Fatalf("AppendChatTurns() error = %v", err)
	}

	history, err := db.Users().ChatHistory(ctx, b.ID)
	if err != nil {
		t.Fatalf("ChatHistory() error = %v", err)
	}
	if len(history) != 0 {
		t.Errorf("user b sees %d turns from user a", len(history))
	}
}
