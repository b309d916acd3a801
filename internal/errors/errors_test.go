package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestCategorizedErrorUnwrap(t *testing.T) {
	cause := fmt.Errorf("connection refused")
	err := NewExternalCallError("token transfer", cause)

	if err.Unwrap() != cause {
		t.Error("Unwrap should return the cause")
	}
	if GetHTTPStatusCode(err) != http.StatusInternalServerError {
		t.Errorf("unexpected status code %d", GetHTTPStatusCode(err))
	}
}

func TestPredicates(t *testing.T) {
	tests := []struct {
		name string
		err  error
		pred func(error) bool
		want bool
	}{
		{name: "not found", err: NewNotFoundError("tip", "42"), pred: IsNotFound, want: true},
		{name: "not found on validation", err: NewValidationError("bad"), pred: IsNotFound, want: false},
		{name: "unlinked wallet", err: NewUnlinkedWalletError("123"), pred: IsUnlinkedWallet, want: true},
		{name: "already claimed", err: NewAlreadyClaimedError("0xabc"), pred: IsAlreadyClaimed, want: true},
		{name: "faucet disabled", err: NewFaucetDisabledError(), pred: IsFaucetDisabled, want: true},
		{name: "validation", err: NewInvalidAmountError("-1"), pred: IsValidation, want: true},
		{name: "wrapped", err: fmt.Errorf("outer: %w", NewNotFoundError("tip", "7")), pred: IsNotFound, want: true},
		{name: "plain error", err: fmt.Errorf("boom"), pred: IsNotFound, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.pred(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStatusCodes(t *testing.T) {
	if GetHTTPStatusCode(NewNotFoundError("tip", "1")) != http.StatusNotFound {
		t.Error("not found should map to 404")
	}
	if GetHTTPStatusCode(NewFaucetDisabledError()) != http.StatusServiceUnavailable {
		t.Error("faucet disabled should map to 503")
	}
	if GetHTTPStatusCode(NewAlreadyClaimedError("0xabc")) != http.StatusBadRequest {
		t.Error("already claimed should map to 400")
	}
	if GetHTTPStatusCode(fmt.Errorf("boom")) != http.StatusInternalServerError {
		t.Error("uncategorized should map to 500")
	}
}
