package hub

import (
	"testing"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("correct horse battery")
	if err != nil {
		t.Fatalf("HashPassword failed: %v", err)
	}
	if hash == "correct horse battery" {
		t.Fatal("password stored in the clear")
	}

	if !CheckPassword("correct horse battery", hash) {
		t.Error("correct password rejected")
	}
	if CheckPassword("wrong", hash) {
		t.Error("wrong password accepted")
	}
}

func TestValidatePassword(t *testing.T) {
	if err := ValidatePassword("short"); err == nil {
		t.Error("short password accepted")
	}
	if err := ValidatePassword("long enough pw"); err != nil {
		t.Errorf("valid password rejected: %v", err)
	}
}

func TestValidateUsername(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"ab", false},
		{"alice", true},
		{"alice_99", true},
		{"bad name", false},
		{"bad-name", false},
	}
	for _, tc := range cases {
		err := ValidateUsername(tc.name)
		if tc.valid && err != nil {
			t.Errorf("ValidateUsername(%q) = %v, want nil", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ValidateUsername(%q) accepted", tc.name)
		}
	}
}

func TestValidateTenant(t *testing.T) {
	cases := []struct {
		name  string
		valid bool
	}{
		{"", false},
		{"home", true},
		{"my-team_2", true},
		{"has space", false},
		{"has/slash", false},
	}
	for _, tc := range cases {
		err := ValidateTenant(tc.name)
		if tc.valid && err != nil {
			t.Errorf("ValidateTenant(%q) = %v, want nil", tc.name, err)
		}
		if !tc.valid && err == nil {
			t.Errorf("ValidateTenant(%q) accepted", tc.name)
		}
	}
}

func TestCreateAndAuthenticateUser(t *testing.T) {
	cleanup := setupTestHub(t)
	defer cleanup()

	user, err := CreateUser(UserRegisterInput{
		Tenant:   "t1",
		Username: "alice",
		Password: "password123",
	})
	if err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	if user.GUID == "" {
		t.Error("created user has no guid")
	}

	// Same username in the same tenant is rejected
	if _, err := CreateUser(UserRegisterInput{Tenant: "t1", Username: "alice", Password: "password123"}); err == nil {
		t.Error("duplicate username in tenant accepted")
	}
	// Same username in another tenant is fine
	if _, err := CreateUser(UserRegisterInput{Tenant: "t2", Username: "alice", Password: "password123"}); err != nil {
		t.Errorf("same username in other tenant rejected: %v", err)
	}

	got, err := AuthenticateUser(UserLoginInput{Tenant: "t1", Username: "alice", Password: "password123"})
	if err != nil {
		t.Fatalf("AuthenticateUser failed: %v", err)
	}
	if got == nil || got.GUID != user.GUID {
		t.Error("authentication did not return the created user")
	}

	got, err = AuthenticateUser(UserLoginInput{Tenant: "t1", Username: "alice", Password: "wrong"})
	if err != nil {
		t.Fatalf("AuthenticateUser errored on bad password: %v", err)
	}
	if got != nil {
		t.Error("wrong password authenticated")
	}

	got, _ = AuthenticateUser(UserLoginInput{Tenant: "t2", Username: "nobody", Password: "password123"})
	if got != nil {
		t.Error("unknown user authenticated")
	}
}
