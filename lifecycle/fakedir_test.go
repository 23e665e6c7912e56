package lifecycle_test

import (
	"context"
	"strings"

	"adjanitor/lifecycle"
)

// fakeDirectory is an in-memory stand-in for the LDAP-backed directory.
// Errors can be injected per account name or per search root.
type fakeDirectory struct {
	accounts []*lifecycle.MachineAccount
	children map[string][]string // account name -> child DNs

	searchErr map[string]error // keyed by root
	moveErr   map[string]error // keyed by account name
	enableErr map[string]error
	descErr   map[string]error
	deleteErr map[string]error

	deleted         []string // account names, deletion order
	deletedChildren []string
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{
		children:  make(map[string][]string),
		searchErr: make(map[string]error),
		moveErr:   make(map[string]error),
		enableErr: make(map[string]error),
		descErr:   make(map[string]error),
		deleteErr: make(map[string]error),
	}
}

func (f *fakeDirectory) add(a lifecycle.MachineAccount) *lifecycle.MachineAccount {
	acct := a
	if acct.DN == "" {
		acct.DN = "CN=" + acct.Name
	}
	f.accounts = append(f.accounts, &acct)
	return &acct
}

func (f *fakeDirectory) find(name string) *lifecycle.MachineAccount {
	for _, a := range f.accounts {
		if strings.EqualFold(a.Name, name) {
			return a
		}
	}
	return nil
}

func (f *fakeDirectory) Search(ctx context.Context, root string, scope lifecycle.Scope, q lifecycle.Query) ([]lifecycle.MachineAccount, error) {
	if err := f.searchErr[root]; err != nil {
		return nil, err
	}
	var out []lifecycle.MachineAccount
	for _, a := range f.accounts {
		if !underRoot(*a, root, scope) {
			continue
		}
		if q.Enabled != nil && a.Enabled != *q.Enabled {
			continue
		}
		if !q.InactiveSince.IsZero() && !a.NeverActive() && a.LastActivity.After(q.InactiveSince) {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func underRoot(a lifecycle.MachineAccount, root string, scope lifecycle.Scope) bool {
	if scope == lifecycle.ScopeOneLevel {
		return a.Container() == root
	}
	return a.DN == root || strings.HasSuffix(a.DN, ","+root)
}

func (f *fakeDirectory) Move(ctx context.Context, account lifecycle.MachineAccount, container string) (lifecycle.MachineAccount, error) {
	if err := f.moveErr[account.Name]; err != nil {
		return account, err
	}
	a := f.find(account.Name)
	a.DN = "CN=" + a.Name + "," + container
	return *a, nil
}

func (f *fakeDirectory) SetEnabled(ctx context.Context, account lifecycle.MachineAccount, enabled bool) error {
	if err := f.enableErr[account.Name]; err != nil {
		return err
	}
	f.find(account.Name).Enabled = enabled
	return nil
}

func (f *fakeDirectory) SetDescription(ctx context.Context, account lifecycle.MachineAccount, text string) error {
	if err := f.descErr[account.Name]; err != nil {
		return err
	}
	f.find(account.Name).Description = text
	return nil
}

func (f *fakeDirectory) Delete(ctx context.Context, account lifecycle.MachineAccount, recursive bool) error {
	if err := f.deleteErr[account.Name]; err != nil {
		return err
	}
	if recursive {
		f.deletedChildren = append(f.deletedChildren, f.children[account.Name]...)
		delete(f.children, account.Name)
	}
	for i, a := range f.accounts {
		if a.Name == account.Name {
			f.accounts = append(f.accounts[:i], f.accounts[i+1:]...)
			break
		}
	}
	f.deleted = append(f.deleted, account.Name)
	return nil
}

var _ lifecycle.Directory = (*fakeDirectory)(nil)
