package source

import (
	"context"
	"errors"
	"testing"
)

func TestWrapPreservesMarker(t *testing.T) {
	inner := errors.New("socket closed")
	err := Wrap(ErrTransient, "qobuz", "open stream", "request failed", inner)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("expected ErrTransient marker")
	}
	if !errors.Is(err, inner) {
		t.Fatal("expected inner error to survive wrapping")
	}
}

func TestWrapDefaultsToTransient(t *testing.T) {
	err := Wrap(nil, "tidal", "resolve", "", nil)
	if !errors.Is(err, ErrTransient) {
		t.Fatal("nil marker should default to ErrTransient")
	}
}

func TestPermanent(t *testing.T) {
	if !Permanent(Wrap(ErrAuth, "s", "op", "", nil)) {
		t.Fatal("auth errors are permanent")
	}
	if !Permanent(Wrap(ErrNotFound, "s", "op", "", nil)) {
		t.Fatal("not-found errors are permanent")
	}
	if Permanent(Wrap(ErrTransient, "s", "op", "", nil)) {
		t.Fatal("transient errors are not permanent")
	}
}

func TestRetryableClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"tagged transient", Wrap(ErrTransient, "s", "op", "", nil), true},
		{"auth", Wrap(ErrAuth, "s", "op", "", nil), false},
		{"not found", Wrap(ErrNotFound, "s", "op", "", nil), false},
		{"deadline", context.DeadlineExceeded, true},
		{"rate limited", errors.New("got HTTP 429 from upstream"), true},
		{"bad gateway", errors.New("status 502"), true},
		{"conn reset", errors.New("read tcp: connection reset by peer"), true},
		{"plain", errors.New("malformed playlist"), false},
	}
	for _, tc := range cases {
		if got := Retryable(tc.err); got != tc.want {
			t.Errorf("%s: Retryable = %v, want %v", tc.name, got, tc.want)
		}
	}
}

func TestDescriptorKeyAndValidate(t *testing.T) {
	d := ItemDescriptor{Source: "qobuz", ID: "123", Quality: QualityLossless}
	if d.Key() != "qobuz:123" {
		t.Fatalf("Key = %q", d.Key())
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("Validate failed: %v", err)
	}

	bad := []ItemDescriptor{
		{ID: "1", Quality: QualityLow},
		{Source: "s", Quality: QualityLow},
		{Source: "s", ID: "1", Quality: Quality(9)},
	}
	for i, d := range bad {
		if err := d.Validate(); err == nil {
			t.Errorf("case %d: expected validation error for %+v", i, d)
		}
	}
}
