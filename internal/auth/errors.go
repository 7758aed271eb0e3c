package auth

import (
	"fmt"
	"strings"
)

// FieldError はリクエスト項目ごとの検証エラーです。
type FieldError struct {
	Type     string `json:"type"`
	Value    string `json:"value"`
	Msg      string `json:"msg"`
	Path     string `json:"path"`
	Location string `json:"location"`
}

// ValidationError は1つ以上の項目エラーをまとめたものです。
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	msgs := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		msgs = append(msgs, fmt.Sprintf("%s: %s", f.Path, f.Msg))
	}
	return "validation failed: " + strings.Join(msgs, ", ")
}

func missingUserError(value string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{
		Type:     "field",
		Value:    value,
		Msg:      "user required",
		Path:     "user",
		Location: "body",
	}}}
}
