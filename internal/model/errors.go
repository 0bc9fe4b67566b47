package model

import (
	"errors"
	"fmt"
)

// ストア層・サービス層が返すセンチネルエラー。errors.Isで判定する。
var (
	// ErrDuplicateEntity は一意制約（ユーザー名）に違反した場合のエラー。
	ErrDuplicateEntity = errors.New("duplicate entity")
	// ErrNoFieldsProvided は部分更新に変更対象フィールドが1つもない場合のエラー。
	ErrNoFieldsProvided = errors.New("no fields provided")
)

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string   // エラーコード
	Message  string   // エラーメッセージ
	Category string   // カテゴリ: auth, validation, membership, message, system
	Action   string   // ユーザー向け対処方法
	Details  []string // 入力検証エラーの詳細（任意）
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized         = "UNAUTHORIZED"
	ErrCodeForbidden            = "FORBIDDEN"
	ErrCodeMembershipRequired   = "MEMBERSHIP_REQUIRED"
	ErrCodeAlreadyAuthenticated = "ALREADY_AUTHENTICATED"
	ErrCodeInvalidCredentials   = "INVALID_CREDENTIALS"
	ErrCodeValidationFailed     = "VALIDATION_FAILED"
	ErrCodeInvalidID            = "INVALID_ID"
	ErrCodeDuplicateEntity      = "DUPLICATE_ENTITY"
	ErrCodeNoFieldsProvided     = "NO_FIELDS_PROVIDED"
	ErrCodeNoChanges            = "NO_CHANGES"
	ErrCodeInvalidAnswer        = "INVALID_ANSWER"
	ErrCodeAlreadyMember        = "ALREADY_MEMBER"
	ErrCodeConfirmationMismatch = "CONFIRMATION_MISMATCH"
	ErrCodeUserNotFound         = "USER_NOT_FOUND"
	ErrCodeMessageNotFound      = "MESSAGE_NOT_FOUND"
	ErrCodeCSRFInvalid          = "CSRF_INVALID"
	ErrCodeRateLimited          = "RATE_LIMIT_EXCEEDED"
	ErrCodeInternal             = "INTERNAL_ERROR"
)

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewForbiddenError は権限不足エラーを生成する。
func NewForbiddenError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  reason,
		Category: "auth",
		Action:   "この操作は投稿者本人または管理者のみ実行できます。",
	}
}

// NewMembershipRequiredError はメンバー限定機能へのアクセスエラーを生成する。
func NewMembershipRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeMembershipRequired,
		Message:  "この機能はメンバー限定です。",
		Category: "membership",
		Action:   "メンバーにアップグレードしてください。",
	}
}

// NewAlreadyAuthenticatedError はログイン済みユーザーがゲスト専用操作を行った場合のエラーを生成する。
func NewAlreadyAuthenticatedError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyAuthenticated,
		Message:  "すでにログインしています。",
		Category: "auth",
		Action:   "別のアカウントを使う場合は一度ログアウトしてください。",
	}
}

// NewInvalidCredentialsError はログイン失敗エラーを生成する。
// ユーザー名とパスワードのどちらが誤っているかは区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "ユーザー名またはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認してください。",
	}
}

// NewValidationError は入力検証エラーを生成する。
func NewValidationError(details []string) *APIError {
	return &APIError{
		Code:     ErrCodeValidationFailed,
		Message:  "入力内容に誤りがあります。",
		Category: "validation",
		Action:   "エラー内容を確認して再入力してください。",
		Details:  details,
	}
}

// NewInvalidIDError は不正なIDパラメータのエラーを生成する。
func NewInvalidIDError(raw string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidID,
		Message:  fmt.Sprintf("無効なIDです: %s", raw),
		Category: "validation",
		Action:   "正しいIDを指定してください。",
	}
}

// NewDuplicateUsernameError はユーザー名重複エラーを生成する。
func NewDuplicateUsernameError(username string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEntity,
		Message:  fmt.Sprintf("ユーザー名はすでに使われています: %s", username),
		Category: "validation",
		Action:   "別のユーザー名を指定してください。",
	}
}

// NewNoFieldsProvidedError は更新項目が空の場合のエラーを生成する。
func NewNoFieldsProvidedError() *APIError {
	return &APIError{
		Code:     ErrCodeNoFieldsProvided,
		Message:  "更新する項目が指定されていません。",
		Category: "validation",
		Action:   "変更する項目を入力してください。",
	}
}

// NewNoChangesError はプロフィールが現在値と同一の場合のエラーを生成する。
func NewNoChangesError() *APIError {
	return &APIError{
		Code:     ErrCodeNoChanges,
		Message:  "変更はありませんでした。",
		Category: "validation",
		Action:   "現在と異なる値を入力してください。",
	}
}

// NewInvalidAnswerError はメンバー昇格の回答が誤っている場合のエラーを生成する。
func NewInvalidAnswerError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidAnswer,
		Message:  "回答が正しくありません。",
		Category: "membership",
		Action:   "もう一度考えてみてください。",
	}
}

// NewAlreadyMemberError はすでにメンバーであるユーザーが昇格を試みた場合のエラーを生成する。
func NewAlreadyMemberError() *APIError {
	return &APIError{
		Code:     ErrCodeAlreadyMember,
		Message:  "すでにメンバーです。",
		Category: "membership",
		Action:   "操作は不要です。",
	}
}

// NewConfirmationMismatchError はアカウント削除の確認入力が一致しない場合のエラーを生成する。
func NewConfirmationMismatchError() *APIError {
	return &APIError{
		Code:     ErrCodeConfirmationMismatch,
		Message:  "確認用のユーザー名またはパスワードが一致しません。",
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ユーザーIDを確認してください。",
	}
}

// NewMessageNotFoundError はメッセージが見つからない場合のエラーを生成する。
func NewMessageNotFoundError(messageID int64) *APIError {
	return &APIError{
		Code:     ErrCodeMessageNotFound,
		Message:  fmt.Sprintf("指定されたメッセージが見つかりません: %d", messageID),
		Category: "message",
		Action:   "メッセージIDを確認してください。",
	}
}

// NewCSRFError はCSRFトークン検証失敗のエラーを生成する。
func NewCSRFError() *APIError {
	return &APIError{
		Code:     ErrCodeCSRFInvalid,
		Message:  "CSRFトークンの検証に失敗しました。",
		Category: "auth",
		Action:   "ページを再読み込みしてから再度お試しください。",
	}
}

// NewRateLimitedError はレート制限超過のエラーを生成する。
func NewRateLimitedError() *APIError {
	return &APIError{
		Code:     ErrCodeRateLimited,
		Message:  "リクエストが多すぎます。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewInternalError は内部エラーを生成する。詳細はログのみに記録する。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	}
}
