package security

import (
	"strings"
	"testing"
)

func TestSanitize_StripsMarkup(t *testing.T) {
	sanitizer := NewTextSanitizer()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"プレーンテキストはそのまま", "hello everyone", "hello everyone"},
		{"タグは除去される", "<b>bold</b> and <i>italic</i>", "bold and italic"},
		{"scriptは中身ごと除去される", "<script>alert(1)</script>safe", "safe"},
		{"styleは中身ごと除去される", "<style>body{}</style>text", "text"},
		{"比較演算子は残る", "a < b && c > d", "a < b && c > d"},
		{"前後の空白は除去される", "  padded  ", "padded"},
		{"空文字列は空文字列", "", ""},
		{"on*属性付きタグも除去される", `<img src=x onerror="alert(1)">caption`, "caption"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := sanitizer.Sanitize(tt.input); got != tt.want {
				t.Errorf("Sanitize(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

// TestSanitize_Idempotent は同一入力を2回サニタイズしても結果が変わらないことを検証する。
func TestSanitize_Idempotent(t *testing.T) {
	sanitizer := NewTextSanitizer()
	input := "<p>Hello <a href=\"javascript:alert(1)\">there</a></p> & welcome"

	first := sanitizer.Sanitize(input)
	second := sanitizer.Sanitize(first)

	if first != second {
		t.Errorf("Sanitize is not idempotent: %q -> %q", first, second)
	}
	if strings.Contains(first, "<") {
		t.Errorf("Sanitize left markup: %q", first)
	}
}
