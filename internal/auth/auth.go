// Package auth is the identity collaborator: who is signed in, change
// notifications, and sign-out. The core consumes this contract; it does
// not implement a real identity provider.
package auth

import (
	"errors"

	"github.com/zhaksylykov/wistep/internal/config"
)

// ErrNotSignedIn is returned when an operation needs a signed-in user.
var ErrNotSignedIn = errors.New("not signed in, run 'wistep login' first")

// Identity is the signed-in user.
type Identity struct {
	ID    string
	Name  string
	Admin bool
}

// Provider is the identity contract the rest of the tool depends on.
// OnAuthChange fires immediately with the current identity (nil when
// signed out) and again on every change.
type Provider interface {
	Current() *Identity
	OnAuthChange(fn func(*Identity)) (cancel func())
	SignOut() error
}

// ConfigProvider keeps the identity in the user config file.
type ConfigProvider struct {
	cfgPath   string
	current   *Identity
	listeners map[int]func(*Identity)
	nextID    int
}

// NewConfigProvider builds a provider from a loaded config.
func NewConfigProvider(cfgPath string, cfg config.Config) *ConfigProvider {
	p := &ConfigProvider{cfgPath: cfgPath, listeners: make(map[int]func(*Identity))}
	if cfg.Identity.ID != "" {
		p.current = &Identity{
			ID:    cfg.Identity.ID,
			Name:  cfg.Identity.Name,
			Admin: cfg.Identity.Admin,
		}
	}
	return p
}

// Current returns the signed-in identity, nil when signed out.
func (p *ConfigProvider) Current() *Identity { return p.current }

// OnAuthChange registers a listener and fires it once with the current
// state. The returned cancel is idempotent.
func (p *ConfigProvider) OnAuthChange(fn func(*Identity)) func() {
	id := p.nextID
	p.nextID++
	p.listeners[id] = fn
	fn(p.current)
	cancelled := false
	return func() {
		if cancelled {
			return
		}
		cancelled = true
		delete(p.listeners, id)
	}
}

// SignIn records an identity and persists it.
func (p *ConfigProvider) SignIn(id, name string, admin bool) error {
	p.current = &Identity{ID: id, Name: name, Admin: admin}
	if err := p.persist(); err != nil {
		return err
	}
	p.notify()
	return nil
}

// SignOut clears the identity and persists the change.
func (p *ConfigProvider) SignOut() error {
	p.current = nil
	if err := p.persist(); err != nil {
		return err
	}
	p.notify()
	return nil
}

func (p *ConfigProvider) notify() {
	for _, fn := range p.listeners {
		fn(p.current)
	}
}

func (p *ConfigProvider) persist() error {
	cfg, err := config.LoadFile(p.cfgPath)
	if err != nil {
		return err
	}
	if p.current != nil {
		cfg.Identity.ID = p.current.ID
		cfg.Identity.Name = p.current.Name
		cfg.Identity.Admin = p.current.Admin
	} else {
		cfg.Identity.ID = ""
		cfg.Identity.Name = ""
		cfg.Identity.Admin = false
	}
	return config.SaveFile(p.cfgPath, cfg)
}
