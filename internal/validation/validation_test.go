package validation

import (
	"errors"
	"strings"
	"testing"
)

func validRegister() RegisterInput {
	return RegisterInput{
		Username:        "alice_1",
		FirstName:       "Alice",
		LastName:        "Lastname",
		Password:        "Passw0rd",
		ConfirmPassword: "Passw0rd",
	}
}

func TestRegisterInput_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*RegisterInput)
		want   string // 空文字は成功を期待
	}{
		{"valid", func(*RegisterInput) {}, ""},
		{"short username", func(in *RegisterInput) { in.Username = "abcd" }, "Username must be at least 5 characters"},
		{"long username", func(in *RegisterInput) { in.Username = strings.Repeat("a", 51) }, "Username must be less than 50 characters"},
		{"username charset", func(in *RegisterInput) { in.Username = "alice-1" }, "Username can only contain letters, numbers, and underscores"},
		{"missing first name", func(in *RegisterInput) { in.FirstName = "" }, "First name is required"},
		{"long last name", func(in *RegisterInput) { in.LastName = strings.Repeat("b", 51) }, "Last name must be less than 50 characters"},
		{"short password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "Pa1", "Pa1" }, "Password must be at least 8 characters"},
		{"weak password", func(in *RegisterInput) { in.Password, in.ConfirmPassword = "password1", "password1" }, "Password must contain at least one lowercase letter, one uppercase letter, and one number"},
		{"mismatch", func(in *RegisterInput) { in.ConfirmPassword = "Passw0rd!" }, "Passwords do not match"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validRegister()
			tt.mutate(&in)

			err := in.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v, want nil", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			details := Details(err)
			if !contains(details, tt.want) {
				t.Errorf("Details() = %v, want to contain %q", details, tt.want)
			}
		})
	}
}

func TestRegisterInput_Normalize(t *testing.T) {
	in := RegisterInput{Username: "  alice_1 ", FirstName: " Alice", LastName: "Lastname ", Password: " Passw0rd "}
	in.Normalize()

	if in.Username != "alice_1" || in.FirstName != "Alice" || in.LastName != "Lastname" {
		t.Errorf("Normalize() = %+v", in)
	}
	if in.Password != " Passw0rd " {
		t.Error("Normalize() must not alter the password")
	}
}

func TestLoginInput_Validate(t *testing.T) {
	if err := (LoginInput{Username: "alice", Password: "x"}).Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}

	details := Details(LoginInput{}.Validate())
	if !contains(details, "Username is required") || !contains(details, "Password is required") {
		t.Errorf("Details() = %v", details)
	}
}

func TestMessageInput_Validate(t *testing.T) {
	tests := []struct {
		name string
		in   MessageInput
		want string
	}{
		{"valid", MessageInput{Title: "Hello", Content: strings.Repeat("x", 20)}, ""},
		{"missing title", MessageInput{Content: strings.Repeat("x", 20)}, "Title is required"},
		{"long title", MessageInput{Title: strings.Repeat("t", 201), Content: strings.Repeat("x", 20)}, "Title must be less than 200 characters"},
		{"short content", MessageInput{Title: "Hi", Content: "too short"}, "Content must be at least 20 characters for clarity and detail"},
		{"long content", MessageInput{Title: "Hi", Content: strings.Repeat("x", 1001)}, "Content must be less than 1000 characters"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.in.Validate()
			if tt.want == "" {
				if err != nil {
					t.Fatalf("Validate() error = %v", err)
				}
				return
			}
			if !contains(Details(err), tt.want) {
				t.Errorf("Details() = %v, want %q", Details(err), tt.want)
			}
		})
	}
}

func TestPasswordChangeInput_Validate(t *testing.T) {
	in := PasswordChangeInput{CurrentPassword: "Old0pass", Password: "weakpass", ConfirmPassword: "other"}
	details := Details(in.Validate())

	if !contains(details, "New Password must contain at least one lowercase letter, one uppercase letter, and one number") {
		t.Errorf("missing strength error: %v", details)
	}
	if !contains(details, "New passwords do not match") {
		t.Errorf("missing mismatch error: %v", details)
	}
}

func TestProfileAndDeleteAndUpgrade_Validate(t *testing.T) {
	if err := (ProfileInput{Username: "alice_1", FirstName: "A", LastName: "B"}).Validate(); err != nil {
		t.Errorf("ProfileInput.Validate() error = %v", err)
	}
	if err := (DeleteAccountInput{}).Validate(); err == nil {
		t.Error("DeleteAccountInput.Validate() = nil, want error")
	}
	if err := (UpgradeInput{Answer: "object"}).Validate(); err != nil {
		t.Errorf("UpgradeInput.Validate() error = %v", err)
	}
}

func TestDetails_SortedAndNonValidationError(t *testing.T) {
	details := Details(RegisterInput{}.Validate())
	if len(details) != 5 {
		t.Fatalf("len(Details()) = %d, want 5: %v", len(details), details)
	}
	// confirmPassword < firstName < lastName < password < username
	if details[0] != "Confirm password is required" || details[4] != "Username is required" {
		t.Errorf("Details() order = %v", details)
	}

	if got := Details(errors.New("boom")); len(got) != 1 || got[0] != "boom" {
		t.Errorf("Details(plain error) = %v", got)
	}
	if Details(nil) != nil {
		t.Error("Details(nil) should be nil")
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
