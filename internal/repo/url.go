package repo

import (
	"fmt"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/transport"

	"github.com/rwx-research/flakeguard/internal/errors"
)

// defaultPorts are left out of the host. Any other port is part of it.
var defaultPorts = map[string]int{
	"ssh":   22,
	"git":   9418,
	"http":  80,
	"https": 443,
	"ftp":   21,
	"ftps":  990,
}

// Info identifies a repository by its host, owner and name.
type Info struct {
	Host  string `json:"host"`
	Owner string `json:"owner"`
	Name  string `json:"name"`
}

// FullName is `host/owner/name`. It is part of every test identity.
func (i Info) FullName() string {
	return fmt.Sprintf("%s/%s/%s", i.Host, i.Owner, i.Name)
}

// ParseURL extracts the repository identity from a remote URL. Both scheme URLs (`https://host/owner/name.git`) and
// scp-like URLs (`git@host:owner/name.git`) are supported. Everything but the last path segment is the owner, so nested
// groups stay part of it.
func ParseURL(url string) (Info, error) {
	url = strings.TrimSpace(url)

	endpoint, err := transport.NewEndpoint(url)
	if err != nil {
		return Info{}, errors.NewInputError("Invalid repository URL %q: %s", url, err)
	}

	if _, ok := defaultPorts[endpoint.Protocol]; !ok {
		return Info{}, errors.NewInputError("Invalid repository URL %q, unsupported protocol %q", url, endpoint.Protocol)
	}

	scpLike := !strings.Contains(url, "://")
	if scpLike && endpoint.User == "" {
		return Info{}, errors.NewInputError("Invalid repository URL %q, expected a user in scp-like URLs", url)
	}

	host := endpoint.Host
	if endpoint.Port != 0 && endpoint.Port != defaultPorts[endpoint.Protocol] {
		host = fmt.Sprintf("%s:%d", host, endpoint.Port)
	}

	path := strings.TrimSuffix(strings.Trim(endpoint.Path, "/"), ".git")
	separator := strings.LastIndex(path, "/")
	if host == "" || separator <= 0 || separator == len(path)-1 || strings.Contains(path, "//") {
		return Info{}, errors.NewInputError("Invalid repository URL %q, expected a host, an owner and a name", url)
	}

	return Info{
		Host:  host,
		Owner: path[:separator],
		Name:  path[separator+1:],
	}, nil
}
