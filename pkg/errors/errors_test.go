package errors

import (
	"errors"
	"net/http"
	"testing"
)

func TestMetadataFor_KnownCodes(t *testing.T) {
	tests := []struct {
		code   Code
		status int
	}{
		{CodeValidation, http.StatusBadRequest},
		{CodeUnauthorized, http.StatusUnauthorized},
		{CodeForbidden, http.StatusForbidden},
		{CodeNotFound, http.StatusNotFound},
		{CodeCapExceeded, http.StatusConflict},
		{CodeCodeExhausted, http.StatusConflict},
		{CodeAlreadyRedeemed, http.StatusConflict},
		{CodeInternal, http.StatusInternalServerError},
		{CodeDependency, http.StatusServiceUnavailable},
	}

	for _, tc := range tests {
		if got := MetadataFor(tc.code).HTTPStatus; got != tc.status {
			t.Fatalf("MetadataFor(%s).HTTPStatus = %d, want %d", tc.code, got, tc.status)
		}
	}
}

func TestMetadataFor_UnknownCodeFallsBackToInternal(t *testing.T) {
	meta := MetadataFor(Code("NOT_A_CODE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal metadata, got status %d", meta.HTTPStatus)
	}
}

func TestBusinessCodesAllowDetails(t *testing.T) {
	for _, code := range []Code{CodeCapExceeded, CodeCodeExhausted, CodeAlreadyRedeemed} {
		if !MetadataFor(code).DetailsAllowed {
			t.Fatalf("expected %s to allow details", code)
		}
	}
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("root")
	err := Wrap(CodeCapExceeded, cause, "daily cap reached")

	if !errors.Is(err, cause) {
		t.Fatal("expected wrapped cause to be discoverable via errors.Is")
	}
	if err.Error() != "CAP_EXCEEDED: daily cap reached" {
		t.Fatalf("unexpected error string %q", err.Error())
	}
}

func TestAs_ExtractsTypedError(t *testing.T) {
	typed := New(CodeAlreadyRedeemed, "already redeemed").WithDetails(map[string]any{"code": "BW-AB12"})

	got := As(typed)
	if got == nil {
		t.Fatal("expected typed error")
	}
	if got.Code() != CodeAlreadyRedeemed {
		t.Fatalf("unexpected code %s", got.Code())
	}
	if got.Details() == nil {
		t.Fatal("expected details to survive")
	}

	if As(errors.New("plain")) != nil {
		t.Fatal("expected nil for untyped error")
	}
}
