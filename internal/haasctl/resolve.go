package haasctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"

	"github.com/edvin/haas/internal/model"
)

// errNotFound is returned by the find helpers when nothing matches.
var errNotFound = errors.New("not found")

func (c *Client) FindEnvironmentByName(name string) (string, error) {
	var envs []model.Environment
	if err := c.list("/environments?search="+url.QueryEscape(name), &envs); err != nil {
		return "", err
	}
	for _, e := range envs {
		if e.Name == name {
			return e.ID, nil
		}
	}
	return "", fmt.Errorf("environment %q: %w", name, errNotFound)
}

func (c *Client) FindHerdByName(name string) (string, error) {
	var herds []model.Herd
	if err := c.list("/herds?search="+url.QueryEscape(name), &herds); err != nil {
		return "", err
	}
	for _, h := range herds {
		if h.Name == name {
			return h.ID, nil
		}
	}
	return "", fmt.Errorf("herd %q: %w", name, errNotFound)
}

func (c *Client) FindServerByHostname(hostname string) (string, error) {
	var servers []model.Server
	if err := c.list("/servers?search="+url.QueryEscape(hostname), &servers); err != nil {
		return "", err
	}
	for _, s := range servers {
		if s.Hostname == hostname {
			return s.ID, nil
		}
	}
	return "", fmt.Errorf("server %q: %w", hostname, errNotFound)
}

// HerdInstances lists every instance of a herd.
func (c *Client) HerdInstances(herdID string) ([]model.Instance, error) {
	var all []model.Instance
	cursor := ""
	for {
		path := "/instances?limit=200&herd_id=" + url.QueryEscape(herdID)
		if cursor != "" {
			path += "&cursor=" + url.QueryEscape(cursor)
		}
		resp, err := c.Get(path)
		if err != nil {
			return nil, err
		}
		var page struct {
			Items      []model.Instance `json:"items"`
			NextCursor string           `json:"next_cursor"`
			HasMore    bool             `json:"has_more"`
		}
		if err := json.Unmarshal(resp.Body, &page); err != nil {
			return nil, fmt.Errorf("parse instances: %w", err)
		}
		all = append(all, page.Items...)
		if !page.HasMore || page.NextCursor == "" {
			return all, nil
		}
		cursor = page.NextCursor
	}
}

func (c *Client) list(path string, out any) error {
	resp, err := c.Get(path)
	if err != nil {
		return err
	}
	items, err := resp.Items()
	if err != nil {
		return fmt.Errorf("parse resources from %s: %w", path, err)
	}
	if err := json.Unmarshal(items, out); err != nil {
		return fmt.Errorf("parse resources from %s: %w", path, err)
	}
	return nil
}
