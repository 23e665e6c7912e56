// Package activedirectory implements the sweep's directory contract against a
// live Active Directory domain controller over LDAP.
package activedirectory

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-ldap/ldap/v3"

	"adjanitor/activedirectory/ldaphelpers"
	"adjanitor/lifecycle"
)

// accountDisabled is the ADS_UF_ACCOUNTDISABLE bit of userAccountControl.
const accountDisabled = 0x2

// machineAccountAttributes are the only attributes the sweep reads.
var machineAccountAttributes = []string{
	"cn",
	"description",
	"lastLogonTimestamp",
	"whenChanged",
	"userAccountControl",
}

type ActiveDirectoryInstance struct {
	BaseDn               string
	DomainControllerFQDN string
	PageSize             uint32
	ldapConnection       *ldap.Conn
}

var _ lifecycle.Directory = (*ActiveDirectoryInstance)(nil)

func NewActiveDirectoryInstance(baseDn string, domainControllerFQDN string, pageSize uint32) *ActiveDirectoryInstance {
	return &ActiveDirectoryInstance{
		BaseDn:               baseDn,
		DomainControllerFQDN: domainControllerFQDN,
		PageSize:             pageSize,
	}
}

// Connect dials the domain controller and binds with the given credentials.
func (ad *ActiveDirectoryInstance) Connect(username, password string) error {
	bindString := fmt.Sprintf("ldap://%s:389", ad.DomainControllerFQDN)
	conn, err := ldap.DialURL(bindString)
	if err != nil {
		return fmt.Errorf("failed to connect to LDAP server %s: %w", bindString, err)
	}

	// TODO: LDAPS, IWA/GSSAPI, etc
	if err := conn.Bind(username, password); err != nil {
		conn.Close()
		return fmt.Errorf("failed to bind to LDAP server %s: %w", bindString, err)
	}

	ad.ldapConnection = conn
	return nil
}

func (ad *ActiveDirectoryInstance) Close() {
	if ad.ldapConnection != nil {
		ad.ldapConnection.Close()
	}
}

// Search performs a paged search for machine accounts under root.
func (ad *ActiveDirectoryInstance) Search(ctx context.Context, root string, scope lifecycle.Scope, q lifecycle.Query) ([]lifecycle.MachineAccount, error) {
	req := ldap.NewSearchRequest(
		root,
		ldapScope(scope),
		ldap.NeverDerefAliases,
		0, 0, false,
		machineAccountFilter(q).String(),
		machineAccountAttributes,
		nil,
	)

	results, err := ad.ldapConnection.SearchWithPaging(req, ad.PageSize)
	if err != nil {
		return nil, fmt.Errorf("LDAP search under %s failed: %w", root, err)
	}

	accounts := make([]lifecycle.MachineAccount, 0, len(results.Entries))
	for _, entry := range results.Entries {
		accounts = append(accounts, entryToMachineAccount(entry))
	}
	return accounts, nil
}

// Move relocates the account into the target container, keeping its RDN.
func (ad *ActiveDirectoryInstance) Move(ctx context.Context, account lifecycle.MachineAccount, container string) (lifecycle.MachineAccount, error) {
	rdn, _, found := strings.Cut(account.DN, ",")
	if !found {
		return account, fmt.Errorf("cannot derive RDN from DN %q", account.DN)
	}

	req := ldap.NewModifyDNRequest(account.DN, rdn, true, container)
	if err := ad.ldapConnection.ModifyDN(req); err != nil {
		return account, fmt.Errorf("ModifyDN of %s into %s failed: %w", account.DN, container, err)
	}

	moved := account
	moved.DN = rdn + "," + container
	return moved, nil
}

// SetEnabled sets or clears the disable bit of userAccountControl. The flag
// word is re-read first so unrelated bits survive the write.
func (ad *ActiveDirectoryInstance) SetEnabled(ctx context.Context, account lifecycle.MachineAccount, enabled bool) error {
	control, err := ad.fetchAccountControl(account.DN)
	if err != nil {
		return err
	}

	updated := control | accountDisabled
	if enabled {
		updated = control &^ accountDisabled
	}
	if updated == control {
		return nil
	}

	mod := ldap.NewModifyRequest(account.DN, nil)
	mod.Replace("userAccountControl", []string{strconv.FormatInt(updated, 10)})
	if err := ad.ldapConnection.Modify(mod); err != nil {
		return fmt.Errorf("updating userAccountControl of %s failed: %w", account.DN, err)
	}
	return nil
}

func (ad *ActiveDirectoryInstance) SetDescription(ctx context.Context, account lifecycle.MachineAccount, text string) error {
	mod := ldap.NewModifyRequest(account.DN, nil)
	mod.Replace("description", []string{text})
	if err := ad.ldapConnection.Modify(mod); err != nil {
		return fmt.Errorf("updating description of %s failed: %w", account.DN, err)
	}
	return nil
}

// Delete removes the account object. With recursive set, nested child objects
// (service connection points and the like) are removed depth first.
func (ad *ActiveDirectoryInstance) Delete(ctx context.Context, account lifecycle.MachineAccount, recursive bool) error {
	if recursive {
		return ad.deleteSubtree(account.DN)
	}
	if err := ad.ldapConnection.Del(ldap.NewDelRequest(account.DN, nil)); err != nil {
		return fmt.Errorf("deleting %s failed: %w", account.DN, err)
	}
	return nil
}

func (ad *ActiveDirectoryInstance) deleteSubtree(dn string) error {
	req := ldap.NewSearchRequest(
		dn,
		ldap.ScopeSingleLevel,
		ldap.NeverDerefAliases,
		0, 0, false,
		"(objectClass=*)",
		[]string{"1.1"}, // DNs only
		nil,
	)
	children, err := ad.ldapConnection.Search(req)
	if err != nil {
		return fmt.Errorf("listing children of %s failed: %w", dn, err)
	}
	for _, child := range children.Entries {
		if err := ad.deleteSubtree(child.DN); err != nil {
			return err
		}
	}
	if err := ad.ldapConnection.Del(ldap.NewDelRequest(dn, nil)); err != nil {
		return fmt.Errorf("deleting %s failed: %w", dn, err)
	}
	return nil
}

func (ad *ActiveDirectoryInstance) fetchAccountControl(dn string) (int64, error) {
	req := ldap.NewSearchRequest(
		dn,
		ldap.ScopeBaseObject,
		ldap.NeverDerefAliases,
		0, 0, false,
		"(objectClass=*)",
		[]string{"userAccountControl"},
		nil,
	)
	res, err := ad.ldapConnection.Search(req)
	if err != nil {
		return 0, fmt.Errorf("reading userAccountControl of %s failed: %w", dn, err)
	}
	if len(res.Entries) == 0 {
		return 0, fmt.Errorf("object %s not found", dn)
	}
	control, err := strconv.ParseInt(res.Entries[0].GetAttributeValue("userAccountControl"), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing userAccountControl of %s: %w", dn, err)
	}
	return control, nil
}

func ldapScope(scope lifecycle.Scope) int {
	if scope == lifecycle.ScopeOneLevel {
		return ldap.ScopeSingleLevel
	}
	return ldap.ScopeWholeSubtree
}

// machineAccountFilter translates a lifecycle query into an LDAP filter over
// computer objects.
func machineAccountFilter(q lifecycle.Query) ldaphelpers.Filter {
	parts := []ldaphelpers.Filter{
		ldaphelpers.Eq("objectCategory", "computer"),
	}
	if q.Enabled != nil {
		disabledBit := ldaphelpers.BitSet("userAccountControl", accountDisabled)
		if *q.Enabled {
			parts = append(parts, ldaphelpers.Not(disabledBit))
		} else {
			parts = append(parts, disabledBit)
		}
	}
	if !q.InactiveSince.IsZero() {
		// No recorded logon counts as inactive forever.
		parts = append(parts, ldaphelpers.Or(
			ldaphelpers.Not(ldaphelpers.Present("lastLogonTimestamp")),
			ldaphelpers.Le("lastLogonTimestamp", TimeToFiletime(q.InactiveSince)),
		))
	}
	return ldaphelpers.And(parts...)
}

func entryToMachineAccount(entry *ldap.Entry) lifecycle.MachineAccount {
	acct := lifecycle.MachineAccount{
		Name:        entry.GetAttributeValue("cn"),
		DN:          entry.DN,
		Description: entry.GetAttributeValue("description"),
	}

	if raw := entry.GetAttributeValue("lastLogonTimestamp"); raw != "" {
		if ticks, err := strconv.ParseInt(raw, 10, 64); err == nil {
			acct.LastActivity = FiletimeToTime(ticks)
		}
	}
	if raw := entry.GetAttributeValue("whenChanged"); raw != "" {
		if changed, err := ParseGeneralizedTime(raw); err == nil {
			acct.LastChanged = changed
		}
	}
	if raw := entry.GetAttributeValue("userAccountControl"); raw != "" {
		if control, err := strconv.ParseInt(raw, 10, 64); err == nil {
			acct.Enabled = control&accountDisabled == 0
		}
	}
	return acct
}
