package haasctl

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/edvin/haas/internal/api/request"
	"github.com/edvin/haas/internal/model"
)

// TopologyFile describes environments, servers and herds to register, plus
// optional actions to run once they exist.
type TopologyFile struct {
	APIURL       string                `yaml:"api_url"`
	APIKey       string                `yaml:"api_key"`
	Environments []EnvironmentDef      `yaml:"environments"`
	Servers      []ServerDef           `yaml:"servers"`
	Herds        []HerdDef             `yaml:"herds"`
	Actions      []request.ApplyAction `yaml:"actions"`
}

type EnvironmentDef struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

type ServerDef struct {
	Hostname    string `yaml:"hostname"`
	Environment string `yaml:"environment"`
}

// HerdDef lists the hosts the herd runs on. The first host registered
// becomes the primary, the rest replicate from it.
type HerdDef struct {
	Name        string        `yaml:"name"`
	Environment string        `yaml:"environment"`
	Description string        `yaml:"description"`
	Port        int           `yaml:"port"`
	PGData      string        `yaml:"pgdata"`
	VHost       string        `yaml:"vhost"`
	Instances   []InstanceDef `yaml:"instances"`
}

type InstanceDef struct {
	Host        string `yaml:"host"`
	Version     string `yaml:"version"`
	LocalPGData string `yaml:"local_pgdata"`
}

// LoadTopology reads and validates a topology file.
func LoadTopology(path string) (*TopologyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read topology: %w", err)
	}

	var topo TopologyFile
	if err := yaml.Unmarshal(data, &topo); err != nil {
		return nil, fmt.Errorf("parse topology: %w", err)
	}
	for i, a := range topo.Actions {
		if err := request.Validate(&a); err != nil {
			return nil, fmt.Errorf("action %d: %w", i+1, err)
		}
	}
	return &topo, nil
}

// Apply registers everything in topo that does not exist yet, then runs its
// actions. Existing records are matched by name and left unchanged.
func Apply(client *Client, topo *TopologyFile, confirm bool, out io.Writer) error {
	envIDs := map[string]string{}
	for _, def := range topo.Environments {
		id, err := findOrCreate(out, "environment", def.Name,
			func() (string, error) { return client.FindEnvironmentByName(def.Name) },
			func() (string, error) {
				return create(client, "/environments", request.CreateEnvironment{Name: def.Name, Description: def.Description})
			})
		if err != nil {
			return err
		}
		envIDs[def.Name] = id
	}

	envRef := func(name string) (*string, error) {
		if name == "" {
			return nil, nil
		}
		if id, ok := envIDs[name]; ok {
			return &id, nil
		}
		id, err := client.FindEnvironmentByName(name)
		if err != nil {
			return nil, err
		}
		envIDs[name] = id
		return &id, nil
	}

	serverIDs := map[string]string{}
	for _, def := range topo.Servers {
		envID, err := envRef(def.Environment)
		if err != nil {
			return fmt.Errorf("server %s: %w", def.Hostname, err)
		}
		id, err := findOrCreate(out, "server", def.Hostname,
			func() (string, error) { return client.FindServerByHostname(def.Hostname) },
			func() (string, error) {
				return create(client, "/servers", request.CreateServer{EnvironmentID: envID, Hostname: def.Hostname})
			})
		if err != nil {
			return err
		}
		serverIDs[def.Hostname] = id
	}

	for _, def := range topo.Herds {
		if err := applyHerd(client, def, envRef, serverIDs, out); err != nil {
			return err
		}
	}

	for _, a := range topo.Actions {
		kind, err := model.ParseActionKind(a.Action)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Running %s on %s\n", kind, a.Herd)
		if _, err := RunAction(client, ActionOptions{Action: kind, Herd: a.Herd, Hosts: a.Hosts, Confirm: confirm}, out); err != nil {
			return fmt.Errorf("%s %s: %w", kind, a.Herd, err)
		}
	}
	return nil
}

func applyHerd(client *Client, def HerdDef, envRef func(string) (*string, error), serverIDs map[string]string, out io.Writer) error {
	envID, err := envRef(def.Environment)
	if err != nil {
		return fmt.Errorf("herd %s: %w", def.Name, err)
	}
	herdID, err := findOrCreate(out, "herd", def.Name,
		func() (string, error) { return client.FindHerdByName(def.Name) },
		func() (string, error) {
			return create(client, "/herds", request.CreateHerd{
				EnvironmentID: envID,
				Name:          def.Name,
				Description:   def.Description,
				Port:          def.Port,
				PGData:        def.PGData,
				VHost:         def.VHost,
			})
		})
	if err != nil {
		return err
	}

	existing, err := client.HerdInstances(herdID)
	if err != nil {
		return fmt.Errorf("list instances of %s: %w", def.Name, err)
	}
	registered := map[string]bool{}
	for _, inst := range existing {
		registered[inst.Hostname] = true
	}

	for _, idef := range def.Instances {
		if registered[idef.Host] {
			fmt.Fprintf(out, "Instance %s on %s: exists\n", def.Name, idef.Host)
			continue
		}
		serverID, ok := serverIDs[idef.Host]
		if !ok {
			if serverID, err = client.FindServerByHostname(idef.Host); err != nil {
				return fmt.Errorf("herd %s: %w", def.Name, err)
			}
		}
		resp, err := client.Post("/instances", request.CreateInstance{
			HerdID:      herdID,
			ServerID:    serverID,
			Version:     idef.Version,
			LocalPGData: idef.LocalPGData,
		})
		if err != nil {
			return fmt.Errorf("register %s on %s: %w", def.Name, idef.Host, err)
		}
		var result struct {
			Instance model.Instance `json:"instance"`
			Warnings []string       `json:"warnings"`
		}
		if err := json.Unmarshal(resp.Body, &result); err != nil {
			return fmt.Errorf("parse instance: %w", err)
		}
		role := "primary"
		if !result.Instance.IsPrimary() {
			role = "replica"
		}
		fmt.Fprintf(out, "Instance %s on %s: registered as %s\n", def.Name, idef.Host, role)
		for _, w := range result.Warnings {
			fmt.Fprintf(out, "  ! %s\n", w)
		}
	}
	return nil
}

func findOrCreate(out io.Writer, kind, name string, find, create func() (string, error)) (string, error) {
	id, err := find()
	if err == nil {
		fmt.Fprintf(out, "%s %q: exists (%s)\n", kind, name, id)
		return id, nil
	}
	if !errors.Is(err, errNotFound) {
		return "", fmt.Errorf("%s %q: %w", kind, name, err)
	}
	id, err = create()
	if err != nil {
		return "", fmt.Errorf("create %s %q: %w", kind, name, err)
	}
	fmt.Fprintf(out, "%s %q: created (%s)\n", kind, name, id)
	return id, nil
}

func create(client *Client, path string, body any) (string, error) {
	resp, err := client.Post(path, body)
	if err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(resp.Body, &created); err != nil {
		return "", fmt.Errorf("parse response: %w", err)
	}
	return created.ID, nil
}
