package ldap

import (
	"context"
	"sync"

	"github.com/go-ldap/ldap/v3"
)

type bindCall struct {
	dn, password string
}

// fakeConn records every call and answers from canned results.
type fakeConn struct {
	dir *fakeDialer

	binds    []bindCall
	searches []*ldap.SearchRequest
	modifies []*ldap.ModifyRequest
	exops    []*ldap.PasswordModifyRequest
	closed   int
}

func (c *fakeConn) Bind(username, password string) error {
	c.binds = append(c.binds, bindCall{username, password})
	if c.dir.bindErr != nil {
		return c.dir.bindErr(username, password)
	}
	return nil
}

func (c *fakeConn) Search(req *ldap.SearchRequest) (*ldap.SearchResult, error) {
	c.searches = append(c.searches, req)
	if req.BaseDN == "" && req.Scope == ldap.ScopeBaseObject {
		entries := []*ldap.Entry{}
		if c.dir.supportedControls != nil {
			entries = append(entries, ldap.NewEntry("", map[string][]string{"supportedControl": c.dir.supportedControls}))
		}
		return &ldap.SearchResult{Entries: entries}, nil
	}
	if c.dir.searchErr != nil {
		return nil, c.dir.searchErr
	}
	res := &ldap.SearchResult{}
	for _, dn := range c.dir.searchDNs {
		res.Entries = append(res.Entries, ldap.NewEntry(dn, nil))
	}
	return res, nil
}

func (c *fakeConn) Modify(req *ldap.ModifyRequest) error {
	c.modifies = append(c.modifies, req)
	return c.dir.modifyErr
}

func (c *fakeConn) PasswordModify(req *ldap.PasswordModifyRequest) (*ldap.PasswordModifyResult, error) {
	c.exops = append(c.exops, req)
	if c.dir.modifyErr != nil {
		return nil, c.dir.modifyErr
	}
	return &ldap.PasswordModifyResult{}, nil
}

func (c *fakeConn) Close() error {
	c.closed++
	return nil
}

type fakeDialer struct {
	mu    sync.Mutex
	conns []*fakeConn

	dialErr           error
	bindErr           func(dn, password string) error
	searchErr         error
	searchDNs         []string
	supportedControls []string
	modifyErr         error
}

func (d *fakeDialer) Dial(ctx context.Context) (Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.dialErr != nil {
		return nil, d.dialErr
	}
	c := &fakeConn{dir: d}
	d.conns = append(d.conns, c)
	return c, nil
}

func (d *fakeDialer) binds() []bindCall {
	var out []bindCall
	for _, c := range d.conns {
		out = append(out, c.binds...)
	}
	return out
}

func (d *fakeDialer) userSearches() []*ldap.SearchRequest {
	var out []*ldap.SearchRequest
	for _, c := range d.conns {
		for _, s := range c.searches {
			if s.BaseDN != "" {
				out = append(out, s)
			}
		}
	}
	return out
}
