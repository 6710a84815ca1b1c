package errors_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	. "racejudge/pkg/errors"
)

func TestErrorCode_Message(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want string
	}{
		{Success, "Success"},
		{CourseInvalid, "Invalid race course"},
		{SpawnFailed, "Failed to start player process"},
		{ErrorCode(99999), "Unknown error"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			if got := tt.code.Message(); got != tt.want {
				t.Errorf("Message() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorCode_ExitStatus(t *testing.T) {
	tests := []struct {
		code ErrorCode
		want int
	}{
		{Success, 0},
		{InternalError, 1},
		{ConfigLoadFailed, 2},
		{CourseLoadFailed, 2},
		{LogSinkOpenFailed, 2},
		{SpawnFailed, 3},
		{ProtocolWrite, 3},
		{MatchSetupFailed, 3},
	}

	for _, tt := range tests {
		t.Run(tt.code.Message(), func(t *testing.T) {
			if got := tt.code.ExitStatus(); got != tt.want {
				t.Errorf("ExitStatus() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	err := New(CourseInvalid)

	if err.Code != CourseInvalid {
		t.Errorf("Code = %v, want %v", err.Code, CourseInvalid)
	}
	if err.Error() != CourseInvalid.Message() {
		t.Errorf("Error() = %v, want %v", err.Error(), CourseInvalid.Message())
	}
	if err.Stack == "" {
		t.Error("Stack should be captured")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(CourseInvalid, "expected %d rows, got %d", 4, 3)

	want := "expected 4 rows, got 3"
	if err.Error() != want {
		t.Errorf("Error() = %v, want %v", err.Error(), want)
	}
}

func TestWrap(t *testing.T) {
	originalErr := errors.New("no such file or directory")
	wrappedErr := Wrap(originalErr, CourseLoadFailed)

	if wrappedErr.Code != CourseLoadFailed {
		t.Errorf("Code = %v, want %v", wrappedErr.Code, CourseLoadFailed)
	}
	if wrappedErr.Unwrap() != originalErr {
		t.Error("Unwrap() should return original error")
	}
	if !errors.Is(wrappedErr, originalErr) {
		t.Error("errors.Is should see the original error")
	}
	if want := "Failed to load race course: no such file or directory"; wrappedErr.Error() != want {
		t.Errorf("Error() = %v, want %v", wrappedErr.Error(), want)
	}
	if Wrap(nil, CourseLoadFailed) != nil {
		t.Error("Wrap(nil) should be nil")
	}
}

func TestWrapRecodesOwnErrors(t *testing.T) {
	inner := New(CourseInvalid)
	outer := Wrap(inner, MatchSetupFailed)

	if outer != inner {
		t.Error("Wrap should reuse an existing *Error")
	}
	if outer.Code != MatchSetupFailed {
		t.Errorf("Code = %v, want %v", outer.Code, MatchSetupFailed)
	}
}

func TestError_WithDetail(t *testing.T) {
	err := New(ConfigInvalid).
		WithDetail("field", "players").
		WithDetail("reason", "names must differ")

	if err.Details["field"] != "players" {
		t.Error("Field detail not set correctly")
	}
	if err.Details["reason"] != "names must differ" {
		t.Error("Reason detail not set correctly")
	}
}

func TestError_WithMessage(t *testing.T) {
	customMsg := "command is required"
	err := New(CommandInvalid).WithMessage(customMsg)

	if err.Error() != customMsg {
		t.Errorf("Error() = %v, want %v", err.Error(), customMsg)
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorCode
	}{
		{
			name: "nil error",
			err:  nil,
			want: Success,
		},
		{
			name: "custom error",
			err:  New(HookFailed),
			want: HookFailed,
		},
		{
			name: "wrapped custom error",
			err:  fmt.Errorf("match: %w", New(MatchSetupFailed)),
			want: MatchSetupFailed,
		},
		{
			name: "standard error",
			err:  errors.New("standard error"),
			want: InternalError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.want {
				t.Errorf("GetCode() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIs(t *testing.T) {
	err := New(TerminateFailed)

	if !Is(err, TerminateFailed) {
		t.Error("Is() should return true for matching code")
	}
	if Is(err, SpawnFailed) {
		t.Error("Is() should return false for non-matching code")
	}
	if Is(nil, TerminateFailed) {
		t.Error("Is() should return false for nil error")
	}
}

func TestConfigFieldError(t *testing.T) {
	err := ConfigFieldError("course", "is required")

	if err.Code != ConfigInvalid {
		t.Errorf("Code = %v, want %v", err.Code, ConfigInvalid)
	}
	if err.Error() != "config course: is required" {
		t.Errorf("Error() = %v", err.Error())
	}
	if err.Details["field"] != "course" {
		t.Error("Field detail not set")
	}
}

func TestLogFields(t *testing.T) {
	plain := LogFields(errors.New("boom"))
	if len(plain) != 1 || plain[0].Key != "error" {
		t.Fatalf("foreign error should only carry the error field, got %v", plain)
	}

	err := Wrap(New(CourseInvalid).WithDetail("row", 3), CourseLoadFailed).WithDetail("path", "a.course")
	fields := LogFields(fmt.Errorf("load: %w", err))
	keys := make([]string, 0, len(fields))
	for _, f := range fields {
		keys = append(keys, f.Key)
	}
	if got := strings.Join(keys, ","); got != "error,code,detail.path,detail.row,origin" {
		t.Fatalf("unexpected field keys %s", got)
	}
	if fields[1].Integer != int64(CourseLoadFailed) {
		t.Fatalf("code field = %d, want %d", fields[1].Integer, CourseLoadFailed)
	}
}
