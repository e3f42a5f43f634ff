package errors

import (
	"errors"
	"fmt"
	"testing"
	"time"
)

func TestDomainFactories(t *testing.T) {
	tests := []struct {
		name     string
		err      MCPError
		wantCode int
		wantCat  Category
	}{
		{
			name:     "session not found",
			err:      SessionNotFound("s-1"),
			wantCode: CodeSessionNotFound,
			wantCat:  CategoryNotFound,
		},
		{
			name:     "session disconnected",
			err:      SessionDisconnected("s-1"),
			wantCode: CodeSessionDisconnected,
			wantCat:  CategoryTransport,
		},
		{
			name:     "round-trip failed",
			err:      RoundTripFailed("sampling/createMessage", "s-1", errors.New("boom")),
			wantCode: CodeRoundTripFailed,
			wantCat:  CategoryRoundTrip,
		},
		{
			name:     "round-trip timeout",
			err:      RoundTripTimeout("elicitation/create", "s-1"),
			wantCode: CodeRoundTripTimeout,
			wantCat:  CategoryTimeout,
		},
		{
			name:     "provider not configured",
			err:      ProviderNotConfigured("tools"),
			wantCode: CodeProviderNotConfigured,
			wantCat:  CategoryProvider,
		},
		{
			name:     "capability required",
			err:      CapabilityRequired("resources.subscribe"),
			wantCode: CodeCapabilityRequired,
			wantCat:  CategoryValidation,
		},
		{
			name:     "missing parameter",
			err:      MissingParameter("uri"),
			wantCode: CodeMissingParameter,
			wantCat:  CategoryValidation,
		},
		{
			name:     "method not found",
			err:      MethodNotFound("tools/destroy"),
			wantCode: CodeMethodNotFound,
			wantCat:  CategoryProtocol,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Code(); got != tt.wantCode {
				t.Errorf("Code() = %v, want %v", got, tt.wantCode)
			}
			if got := tt.err.Category(); got != tt.wantCat {
				t.Errorf("Category() = %v, want %v", got, tt.wantCat)
			}
			if msg := tt.err.Error(); msg == "" {
				t.Error("Error() returned empty string")
			}
		})
	}
}

func TestWrapErrorPreservesCause(t *testing.T) {
	cause := errors.New("connection reset")
	err := RoundTripFailed("roots/list", "s-9", cause)

	if !errors.Is(err, cause) {
		t.Error("wrapped cause should be reachable via errors.Is")
	}

	data, ok := err.Data().(*RoundTripErrorData)
	if !ok {
		t.Fatalf("unexpected data type %T", err.Data())
	}
	if data.Method != "roots/list" || data.SessionID != "s-9" {
		t.Errorf("wrong data: %+v", data)
	}
}

func TestWithContextAndDetail(t *testing.T) {
	err := MissingParameter("level").
		WithContext(&Context{
			Method:    "logging/setLevel",
			Component: "Server",
			Timestamp: time.Now(),
		}).
		WithDetail("params were empty")

	if err.Context() == nil {
		t.Fatal("Context() should never return nil")
	}
	if err.Context().Method != "logging/setLevel" {
		t.Errorf("wrong method: %s", err.Context().Method)
	}
	if err.Details() == "" {
		t.Error("detail was dropped")
	}
}

func TestIsHelpers(t *testing.T) {
	err := SessionNotFound("s-1")
	wrapped := fmt.Errorf("while broadcasting: %w", err)

	if !IsMCPError(wrapped) {
		t.Error("IsMCPError should see through wrapping")
	}
	if !IsCode(wrapped, CodeSessionNotFound) {
		t.Error("IsCode should match the wrapped error")
	}
	if !IsCategory(wrapped, CategoryNotFound) {
		t.Error("IsCategory should match the wrapped error")
	}
	if IsCategory(wrapped, CategoryTimeout) {
		t.Error("IsCategory matched the wrong category")
	}
	if IsMCPError(errors.New("plain")) {
		t.Error("plain errors are not MCP errors")
	}
}

func TestToJSONRPCResponse(t *testing.T) {
	t.Run("MCPError", func(t *testing.T) {
		resp, err := ToJSONRPCResponse(MethodNotFound("tools/destroy"), 3)
		if err != nil {
			t.Fatalf("conversion failed: %v", err)
		}
		if resp.Error == nil {
			t.Fatal("expected error payload")
		}
		if resp.Error.Code != CodeMethodNotFound {
			t.Errorf("wrong code: %d", resp.Error.Code)
		}
	})

	t.Run("PlainError", func(t *testing.T) {
		resp, err := ToJSONRPCResponse(errors.New("boom"), 4)
		if err != nil {
			t.Fatalf("conversion failed: %v", err)
		}
		if resp.Error.Code != CodeInternalError {
			t.Errorf("plain errors map to internal, got %d", resp.Error.Code)
		}
	})

	t.Run("NilError", func(t *testing.T) {
		if _, err := ToJSONRPCResponse(nil, 5); err == nil {
			t.Error("nil error must not convert")
		}
	})
}

func TestCategoryForCode(t *testing.T) {
	if got := CategoryForCode(CodeRoundTripTimeout); got != CategoryRoundTrip {
		t.Errorf("CategoryForCode(%d) = %s", CodeRoundTripTimeout, got)
	}
	if got := CategoryForCode(-99999); got != CategoryInternal {
		t.Errorf("unknown codes default to internal, got %s", got)
	}
}
