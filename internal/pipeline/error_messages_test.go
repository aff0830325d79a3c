package pipeline

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "source error maps to SRC001",
			err:      &SourceError{SourceID: "x", Program: "Bridge Kenya", Err: errors.New("403 forbidden")},
			wantCode: "SRC001",
		},
		{
			name:     "unregistered source maps to SRC002",
			err:      &SourceError{SourceID: "x", Program: "EdoBEST", Err: fmt.Errorf("%w: x", ErrSourceNotFound)},
			wantCode: "SRC002",
		},
		{
			name:     "malformed row maps to ROW001",
			err:      fmt.Errorf("aggregate: %w", &RowError{Program: "EKOEXCEL", Line: 3, Width: 4}),
			wantCode: "ROW001",
		},
		{
			name:     "running refresh maps to RUN001",
			err:      errors.New("refresh already running"),
			wantCode: "RUN001",
		},
		{
			name:     "cancelled context maps to RUN002",
			err:      fmt.Errorf("fetch: %w", context.Canceled),
			wantCode: "RUN002",
		},
		{
			name:     "connection refused maps to DB004",
			err:      errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode: "DB004",
		},
		{
			name:     "deadline maps to DB006",
			err:      context.DeadlineExceeded,
			wantCode: "DB006",
		},
		{
			name:     "unknown maps to ERR000",
			err:      errors.New("something odd"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError(%v).Code = %q, want %q", tt.err, got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(&RowError{Program: "EdoBEST", Line: 1, Width: 3})
	want := "An error tracker row has fewer columns than expected (Code: ROW001). Restore the missing tracker columns (A..Q)"
	if got != want {
		t.Errorf("FormatUserError = %q, want %q", got, want)
	}
}

func TestMessageForCode(t *testing.T) {
	for _, code := range []string{"SRC001", "SRC002", "ROW001", "RUN001", "RUN002", "DB004", "DB005", "DB006", "ERR000"} {
		if got := MessageForCode(code); got.Code != code {
			t.Errorf("MessageForCode(%q).Code = %q", code, got.Code)
		}
	}
	if got := MessageForCode("XYZ999"); got.Code != "ERR000" {
		t.Errorf("MessageForCode(unknown).Code = %q, want ERR000", got.Code)
	}
	if got := MessageForCode(""); got != (UserMessage{}) {
		t.Errorf("MessageForCode(\"\") = %+v, want zero", got)
	}
}
