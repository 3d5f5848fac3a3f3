package backend

import (
	"errors"
	"log/slog"
	"testing"

	"github.com/gogpu/parcoords/internal/gputest"
)

type fakeDevice struct {
	*gputest.Adapter
	closed bool
}

func (d *fakeDevice) Close() { d.closed = true }

func withRegistry(t *testing.T, entries map[string]Factory) {
	t.Helper()
	registryMu.Lock()
	saved := factories
	factories = make(map[string]Factory)
	for k, v := range entries {
		factories[k] = v
	}
	registryMu.Unlock()
	t.Cleanup(func() {
		registryMu.Lock()
		factories = saved
		registryMu.Unlock()
	})
}

func ok(_ *slog.Logger) (Device, error) {
	return &fakeDevice{Adapter: gputest.New()}, nil
}

func failing(_ *slog.Logger) (Device, error) {
	return nil, errors.New("no GPU")
}

func TestRegistry(t *testing.T) {
	withRegistry(t, nil)

	Register("b", ok)
	Register("a", ok)
	if got := Available(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Available() = %v, want [a b]", got)
	}
	if !IsRegistered("a") {
		t.Error("IsRegistered(a) = false")
	}
	Unregister("a")
	if IsRegistered("a") {
		t.Error("IsRegistered(a) after Unregister = true")
	}

	if _, err := Open("missing", nil); !errors.Is(err, ErrBackendNotAvailable) {
		t.Errorf("Open(missing) error = %v, want ErrBackendNotAvailable", err)
	}
	dev, err := Open("b", nil)
	if err != nil || dev == nil {
		t.Fatalf("Open(b) = %v, %v", dev, err)
	}
	dev.Close()
	if !dev.(*fakeDevice).closed {
		t.Error("Close not forwarded")
	}
}

func TestDefaultPriority(t *testing.T) {
	tests := []struct {
		name    string
		entries map[string]Factory
		want    string
		wantErr bool
	}{
		{"vulkan first", map[string]Factory{Noop: ok, Vulkan: ok, "other": ok}, Vulkan, false},
		{"falls back to noop", map[string]Factory{Noop: ok, Vulkan: failing}, Noop, false},
		{"unknown names last", map[string]Factory{"other": ok, Vulkan: failing}, "other", false},
		{"nothing opens", map[string]Factory{Vulkan: failing}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			withRegistry(t, tt.entries)
			_, name, err := Default(nil)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Default() error = %v, wantErr %v", err, tt.wantErr)
			}
			if name != tt.want {
				t.Errorf("Default() backend = %q, want %q", name, tt.want)
			}
		})
	}
}
