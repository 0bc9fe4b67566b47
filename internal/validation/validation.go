// Package validation はHTTPリクエストボディの入力検証ルールを提供する。
package validation

import (
	"errors"
	"regexp"
	"sort"
	"strings"
	"unicode"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)

// RegisterInput はユーザー登録の入力。
type RegisterInput struct {
	Username        string `json:"username"`
	FirstName       string `json:"firstName"`
	LastName        string `json:"lastName"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// LoginInput はログインの入力。
type LoginInput struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// MessageInput はメッセージ投稿の入力。
type MessageInput struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// ProfileInput はプロフィール変更の入力。
type ProfileInput struct {
	Username  string `json:"username"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
}

// PasswordChangeInput はパスワード変更の入力。
type PasswordChangeInput struct {
	CurrentPassword string `json:"currentPassword"`
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirmPassword"`
}

// DeleteAccountInput はアカウント削除の確認入力。
type DeleteAccountInput struct {
	ConfirmUsername string `json:"confirmUsername"`
	ConfirmPassword string `json:"confirmPassword"`
}

// UpgradeInput はメンバー昇格の回答。
type UpgradeInput struct {
	Answer string `json:"answer"`
}

// Normalize は前後の空白を取り除く。パスワードは入力のまま扱う。
func (in *RegisterInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

func (in *LoginInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
}

func (in *ProfileInput) Normalize() {
	in.Username = strings.TrimSpace(in.Username)
	in.FirstName = strings.TrimSpace(in.FirstName)
	in.LastName = strings.TrimSpace(in.LastName)
}

func (in RegisterInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, usernameRules()...),
		validation.Field(&in.FirstName, nameRules("First name")...),
		validation.Field(&in.LastName, nameRules("Last name")...),
		validation.Field(&in.Password, passwordRules("")...),
		validation.Field(&in.ConfirmPassword,
			validation.Required.Error("Confirm password is required"),
			validation.By(matches(in.Password, "Passwords do not match")),
		),
	)
}

func (in LoginInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username,
			validation.Required.Error("Username is required"),
			validation.RuneLength(0, 50).Error("Username must be less than 50 characters"),
		),
		validation.Field(&in.Password,
			validation.Required.Error("Password is required"),
			validation.RuneLength(0, 100).Error("Password must be less than 100 characters"),
		),
	)
}

func (in MessageInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Title,
			validation.Required.Error("Title is required"),
			validation.RuneLength(0, 200).Error("Title must be less than 200 characters"),
		),
		validation.Field(&in.Content,
			validation.Required.Error("Content is required"),
			validation.RuneLength(20, 0).Error("Content must be at least 20 characters for clarity and detail"),
			validation.RuneLength(0, 1000).Error("Content must be less than 1000 characters"),
		),
	)
}

func (in ProfileInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Username, usernameRules()...),
		validation.Field(&in.FirstName, nameRules("First name")...),
		validation.Field(&in.LastName, nameRules("Last name")...),
	)
}

func (in PasswordChangeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.CurrentPassword, validation.Required.Error("Current password is required")),
		validation.Field(&in.Password, passwordRules("New ")...),
		validation.Field(&in.ConfirmPassword,
			validation.Required.Error("Confirm password is required"),
			validation.By(matches(in.Password, "New passwords do not match")),
		),
	)
}

func (in DeleteAccountInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.ConfirmUsername, validation.Required.Error("Username confirmation is required")),
		validation.Field(&in.ConfirmPassword, validation.Required.Error("Password confirmation is required")),
	)
}

func (in UpgradeInput) Validate() error {
	return validation.ValidateStruct(&in,
		validation.Field(&in.Answer, validation.Required.Error("Answer is required")),
	)
}

func usernameRules() []validation.Rule {
	return []validation.Rule{
		validation.Required.Error("Username is required"),
		validation.RuneLength(5, 0).Error("Username must be at least 5 characters"),
		validation.RuneLength(0, 50).Error("Username must be less than 50 characters"),
		validation.Match(usernamePattern).Error("Username can only contain letters, numbers, and underscores"),
	}
}

func nameRules(label string) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(label + " is required"),
		validation.RuneLength(0, 50).Error(label + " must be less than 50 characters"),
	}
}

// passwordRules はパスワード強度のルールを返す。prefixは "New " などメッセージの接頭辞。
func passwordRules(prefix string) []validation.Rule {
	return []validation.Rule{
		validation.Required.Error(prefix + "Password is required"),
		validation.RuneLength(8, 0).Error(prefix + "Password must be at least 8 characters"),
		validation.RuneLength(0, 100).Error(prefix + "Password must be less than 100 characters"),
		validation.By(passwordStrength(prefix)),
	}
}

// passwordStrength は小文字・大文字・数字をそれぞれ1文字以上含むことを検証する。
// RE2は先読みを扱えないため、正規表現ではなく文字種を数える。
func passwordStrength(prefix string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" {
			return nil
		}
		var lower, upper, digit bool
		for _, r := range s {
			switch {
			case unicode.IsLower(r):
				lower = true
			case unicode.IsUpper(r):
				upper = true
			case unicode.IsDigit(r):
				digit = true
			}
		}
		if lower && upper && digit {
			return nil
		}
		return errors.New(prefix + "Password must contain at least one lowercase letter, one uppercase letter, and one number")
	}
}

func matches(want, msg string) validation.RuleFunc {
	return func(value interface{}) error {
		s, _ := value.(string)
		if s == "" || s == want {
			return nil
		}
		return errors.New(msg)
	}
}

// Details は検証エラーをユーザー向けメッセージの一覧に変換する。
// フィールド名順に並べる。検証エラー以外のエラーはそのメッセージ1件を返す。
func Details(err error) []string {
	if err == nil {
		return nil
	}

	var errs validation.Errors
	if !errors.As(err, &errs) {
		return []string{err.Error()}
	}

	fields := make([]string, 0, len(errs))
	for field := range errs {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	details := make([]string, 0, len(fields))
	for _, field := range fields {
		details = append(details, errs[field].Error())
	}
	return details
}
