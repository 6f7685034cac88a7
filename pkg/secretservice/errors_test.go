package secretservice

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"

	dbtypes "github.com/nikicat/go-secret-service/internal/dbus"
)

func TestTransportErrorIs(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"locked value", dbus.Error{Name: dbtypes.ErrIsLocked}, ErrLocked, true},
		{"locked pointer", dbtypes.NewError(dbtypes.ErrIsLocked, "locked"), ErrLocked, true},
		{"no such object", dbtypes.NewError(dbtypes.ErrNoSuchObject, ""), ErrNoResult, true},
		{"unknown object", dbtypes.NewError(dbtypes.ErrUnknownObject, ""), ErrNoResult, true},
		{"service unknown", dbtypes.NewError(dbtypes.ErrServiceUnknown, ""), ErrUnavailable, true},
		{"locked is not no result", dbtypes.NewError(dbtypes.ErrIsLocked, ""), ErrNoResult, false},
		{"no session is not locked", dbtypes.NewError(dbtypes.ErrNoSession, ""), ErrLocked, false},
		{"plain error", errors.New("broken pipe"), ErrLocked, false},
		{"wrapped dbus error", fmt.Errorf("call: %w", dbtypes.NewError(dbtypes.ErrIsLocked, "")), ErrLocked, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := &TransportError{Method: "m", Path: "/p", Err: tc.err}
			if got := errors.Is(err, tc.target); got != tc.want {
				t.Errorf("errors.Is = %v, expected %v", got, tc.want)
			}
		})
	}
}

func TestTransportErrorUnwrap(t *testing.T) {
	cause := context.DeadlineExceeded
	err := &TransportError{Method: "org.freedesktop.Secret.Item.GetSecret", Path: "/x", Err: cause}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Error("TransportError must unwrap to its cause")
	}
	var te *TransportError
	if !errors.As(fmt.Errorf("outer: %w", err), &te) || te.Path != "/x" {
		t.Errorf("errors.As failed: %v", te)
	}
}

func TestCryptoErrorKeepsCause(t *testing.T) {
	cause := errors.New("bad padding")
	err := cryptoError("decrypt", cause)
	if !errors.Is(err, ErrCrypto) || !errors.Is(err, cause) {
		t.Errorf("cryptoError lost a wrapped error: %v", err)
	}
}

func TestUnknownObjectIsNoResult(t *testing.T) {
	svc, _ := newTestService(t, AlgorithmPlain)
	item := newItem(svc, dbtypes.ItemPath("login", "missing"))
	if _, err := item.Secret(context.Background()); !errors.Is(err, ErrNoResult) {
		t.Errorf("Secret of missing item = %v, expected ErrNoResult", err)
	}
}
