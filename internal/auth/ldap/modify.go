package ldap

import (
	"fmt"

	"passui/internal/config"

	ber "github.com/go-asn1-ber/asn1-ber"
	"github.com/go-ldap/ldap/v3"
	"github.com/pkg/errors"
	"golang.org/x/text/encoding/unicode"
)

const (
	controlTypeLdapServerPolicyHints           = "1.2.840.113556.1.4.2239"
	controlTypeLdapServerPolicyHintsDeprecated = "1.2.840.113556.1.4.2066"
)

// PasswordModifier issues the directory-specific password change on an
// already bound connection.
type PasswordModifier interface {
	ModifyPassword(conn Conn, userDN, oldPassword, newPassword string) error
}

// ModifierFor returns the modifier for the configured directory type.
func ModifierFor(cfg config.LdapProvider) (PasswordModifier, error) {
	switch cfg.Type {
	case config.DirectoryActiveDirectory:
		return &activeDirectory{policyHints: cfg.PolicyHints}, nil
	case config.DirectoryLDAP, "":
		return standard{}, nil
	default:
		return nil, errors.Errorf("unsupported directory type %q", cfg.Type)
	}
}

// standard uses the RFC 3062 password modify extended operation.
type standard struct{}

func (standard) ModifyPassword(conn Conn, userDN, oldPassword, newPassword string) error {
	_, err := conn.PasswordModify(ldap.NewPasswordModifyRequest(userDN, oldPassword, newPassword))
	return err
}

// activeDirectory changes unicodePwd with a delete of the old value followed
// by an add of the new one. AD treats that pair as a user password change
// and checks the old value, even though the bind already authenticated.
type activeDirectory struct {
	policyHints bool
}

func (m *activeDirectory) ModifyPassword(conn Conn, userDN, oldPassword, newPassword string) error {
	oldEncoded, err := encodePassword(oldPassword)
	if err != nil {
		return errors.Wrap(err, "encode old password")
	}
	newEncoded, err := encodePassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "encode new password")
	}

	var controls []ldap.Control
	if m.policyHints {
		control, err := policyHintsControl(conn)
		if err != nil {
			return err
		}
		if control != nil {
			controls = append(controls, control)
		}
	}

	req := ldap.NewModifyRequest(userDN, controls)
	req.Delete("unicodePwd", []string{oldEncoded})
	req.Add("unicodePwd", []string{newEncoded})
	return conn.Modify(req)
}

// encodePassword returns the quoted UTF-16LE form AD expects in unicodePwd.
func encodePassword(password string) (string, error) {
	utf16 := unicode.UTF16(unicode.LittleEndian, unicode.IgnoreBOM)
	return utf16.NewEncoder().String(fmt.Sprintf("\"%s\"", password))
}

type ldapControlServerPolicyHints struct {
	oid string
}

func (c *ldapControlServerPolicyHints) Encode() *ber.Packet {
	packet := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "Control")
	packet.AppendChild(ber.NewString(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, c.GetControlType(), "Control Type (LDAP_SERVER_POLICY_HINTS_OID)"))
	packet.AppendChild(ber.NewBoolean(ber.ClassUniversal, ber.TypePrimitive, ber.TagBoolean, true, "Criticality"))

	value := ber.Encode(ber.ClassUniversal, ber.TypePrimitive, ber.TagOctetString, nil, "Control Value (Policy Hints)")
	seq := ber.Encode(ber.ClassUniversal, ber.TypeConstructed, ber.TagSequence, nil, "PolicyHintsRequestValue")
	seq.AppendChild(ber.NewInteger(ber.ClassUniversal, ber.TypePrimitive, ber.TagInteger, 1, "Flags"))
	value.AppendChild(seq)
	packet.AppendChild(value)

	return packet
}

func (c *ldapControlServerPolicyHints) GetControlType() string {
	return c.oid
}

func (c *ldapControlServerPolicyHints) String() string {
	return "Enforce password policies during password change: " + c.GetControlType()
}

// policyHintsControl returns the policy hints control when the root DSE
// advertises it, nil otherwise.
func policyHintsControl(conn Conn) (ldap.Control, error) {
	req := ldap.NewSearchRequest("", ldap.ScopeBaseObject, ldap.NeverDerefAliases, 0, 0, false, "(objectClass=*)", []string{"supportedControl"}, nil)
	res, err := conn.Search(req)
	if err != nil {
		return nil, errors.Wrap(err, "read supportedControl from root DSE")
	}
	if len(res.Entries) == 0 {
		return nil, nil
	}

	for _, oid := range res.Entries[0].GetAttributeValues("supportedControl") {
		if oid == controlTypeLdapServerPolicyHints || oid == controlTypeLdapServerPolicyHintsDeprecated {
			return &ldapControlServerPolicyHints{oid: oid}, nil
		}
	}
	return nil, nil
}
