package timezone

import (
	"testing"
	"time"
)

func TestNewResolverRejectsInvalidFallback(t *testing.T) {
	t.Parallel()

	if _, err := NewResolver("Not/AZone", nil); err == nil {
		t.Fatal("expected error for invalid fallback timezone")
	}
}

func TestResolve(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver("Asia/Yekaterinburg", nil)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}

	tests := []struct {
		name string
		zone string
		want string
	}{
		{name: "valid zone resolves", zone: "Europe/Moscow", want: "Europe/Moscow"},
		{name: "utc resolves", zone: "UTC", want: "UTC"},
		{name: "unknown zone falls back", zone: "Mars/Olympus", want: "Asia/Yekaterinburg"},
		{name: "empty zone falls back", zone: "", want: "Asia/Yekaterinburg"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := resolver.Resolve(tt.zone); got.String() != tt.want {
				t.Errorf("Resolve(%q) = %v, want %v", tt.zone, got, tt.want)
			}
		})
	}
}

func TestFallback(t *testing.T) {
	t.Parallel()

	resolver, err := NewResolver("UTC", nil)
	if err != nil {
		t.Fatalf("failed to create resolver: %v", err)
	}
	if resolver.Fallback() != time.UTC {
		t.Errorf("Fallback() = %v, want UTC", resolver.Fallback())
	}
}
