// Package graph reads the signed-in principal and its group memberships from
// Microsoft Graph. Group IDs feed the ACLs and permission-filtered queries.
package graph

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
)

// DefaultBaseURL is the Graph v1.0 endpoint.
const DefaultBaseURL = "https://graph.microsoft.com/v1.0"

// maxPages bounds nextLink pagination.
const maxPages = 50

// User is the signed-in principal.
type User struct {
	ID                string `json:"id"`
	DisplayName       string `json:"displayName"`
	UserPrincipalName string `json:"userPrincipalName"`
}

// Group is a directory object the user is a member of.
type Group struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	ODataType   string `json:"@odata.type,omitempty"`
}

// Client reads from Graph.
type Client struct {
	rest *azrest.Client
}

// NewClient creates a Graph client. auth should be azrest.Bearer with the graph scope.
func NewClient(baseURL string, auth azrest.Authorizer, hc *http.Client) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	var opts []azrest.Option
	if hc != nil {
		opts = append(opts, azrest.WithHTTPClient(hc))
	}
	rest, err := azrest.New(baseURL, auth, opts...)
	if err != nil {
		return nil, fmt.Errorf("graph client: %w", err)
	}
	return &Client{rest: rest}, nil
}

// Me returns the signed-in user's profile.
func (c *Client) Me(ctx context.Context) (*User, error) {
	var u User
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodGet,
		Path:   "me",
		Query:  url.Values{"$select": []string{"id,displayName,userPrincipalName"}},
	}, &u)
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &u, nil
}

type groupPage struct {
	Value    []Group `json:"value"`
	NextLink string  `json:"@odata.nextLink"`
}

// MemberOf returns the groups and directory roles the user belongs to,
// following nextLink pagination.
func (c *Client) MemberOf(ctx context.Context) ([]Group, error) {
	var page groupPage
	_, err := c.rest.Do(ctx, azrest.Request{
		Method: http.MethodGet,
		Path:   "me/memberOf",
		Query:  url.Values{"$select": []string{"id,displayName"}},
	}, &page)
	if err != nil {
		return nil, fmt.Errorf("list group memberships: %w", err)
	}

	groups := page.Value
	for i := 0; page.NextLink != "" && i < maxPages; i++ {
		next := page.NextLink
		page = groupPage{}
		if err := c.rest.Fetch(ctx, next, &page); err != nil {
			return nil, fmt.Errorf("list group memberships (page %d): %w", i+2, err)
		}
		groups = append(groups, page.Value...)
	}
	return groups, nil
}

// GroupIDs returns the IDs of groups, preserving order.
func GroupIDs(groups []Group) []string {
	ids := make([]string, 0, len(groups))
	for _, g := range groups {
		ids = append(ids, g.ID)
	}
	return ids
}
