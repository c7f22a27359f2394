package auth

import (
	"path/filepath"
	"testing"

	"github.com/zhaksylykov/wistep/internal/config"
)

func newTestProvider(t *testing.T) *ConfigProvider {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	return NewConfigProvider(path, cfg)
}

func TestSignInSignOutNotifiesListeners(t *testing.T) {
	p := newTestProvider(t)

	var seen []*Identity
	cancel := p.OnAuthChange(func(id *Identity) { seen = append(seen, id) })

	// Fires immediately with the signed-out state.
	if len(seen) != 1 || seen[0] != nil {
		t.Fatalf("initial callback = %+v, want one nil delivery", seen)
	}

	if err := p.SignIn("op-7", "Dana Melis", false); err != nil {
		t.Fatalf("SignIn: %v", err)
	}
	if len(seen) != 2 || seen[1] == nil || seen[1].ID != "op-7" {
		t.Fatalf("after sign-in seen = %+v", seen)
	}
	if p.Current() == nil || p.Current().Name != "Dana Melis" {
		t.Errorf("Current = %+v", p.Current())
	}

	if err := p.SignOut(); err != nil {
		t.Fatalf("SignOut: %v", err)
	}
	if len(seen) != 3 || seen[2] != nil {
		t.Fatalf("after sign-out seen = %+v", seen)
	}

	cancel()
	cancel() // idempotent
	p.SignIn("op-8", "Other", false)
	if len(seen) != 3 {
		t.Errorf("cancelled listener still notified: %+v", seen)
	}
}

func TestIdentityPersistsAcrossProviders(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg, _ := config.LoadFile(path)
	p := NewConfigProvider(path, cfg)

	if err := p.SignIn("adm-1", "G. Ruiz", true); err != nil {
		t.Fatalf("SignIn: %v", err)
	}

	cfg2, err := config.LoadFile(path)
	if err != nil {
		t.Fatalf("reload config: %v", err)
	}
	p2 := NewConfigProvider(path, cfg2)
	cur := p2.Current()
	if cur == nil || cur.ID != "adm-1" || !cur.Admin {
		t.Errorf("restored identity = %+v", cur)
	}
}
