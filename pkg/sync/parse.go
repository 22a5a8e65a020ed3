package sync

import (
	"bytes"
	"fmt"

	"github.com/BurntSushi/toml"

	"github.com/komodo-run/komodo-core/pkg/models"
)

// Declared is one resource declared in a TOML source file, matched against
// persisted resources by (kind, name).
type Declared struct {
	Kind   models.Kind
	Name   string
	Tags   []string
	Config map[string]any
}

// tomlResource is one entry of a kind's array-of-tables; Config stays a raw
// map so GenericAdapter can JSON-round-trip it into the kind's concrete
// Partial type without this package needing to know any kind's shape.
type tomlResource struct {
	Name   string         `toml:"name"`
	Tags   []string       `toml:"tags"`
	Config map[string]any `toml:"config"`
}

// tomlFile mirrors Komodo's resource-file layout: one array-of-tables per
// kind, keyed by its snake_case name.
type tomlFile struct {
	Server         []tomlResource `toml:"server"`
	Deployment     []tomlResource `toml:"deployment"`
	Build          []tomlResource `toml:"build"`
	Repo           []tomlResource `toml:"repo"`
	Procedure      []tomlResource `toml:"procedure"`
	Action         []tomlResource `toml:"action"`
	Stack          []tomlResource `toml:"stack"`
	ResourceSync   []tomlResource `toml:"resource_sync"`
	Builder        []tomlResource `toml:"builder"`
	Alerter        []tomlResource `toml:"alerter"`
	ServerTemplate []tomlResource `toml:"server_template"`
}

// Parse decodes a resource-file's raw TOML text into the flat list of
// declared resources across every kind, in models.AllKinds order.
func Parse(text string) ([]Declared, error) {
	var f tomlFile
	if _, err := toml.NewDecoder(bytes.NewReader([]byte(text))).Decode(&f); err != nil {
		return nil, fmt.Errorf("sync: invalid TOML: %w", err)
	}

	var out []Declared
	add := func(kind models.Kind, entries []tomlResource) {
		for _, e := range entries {
			out = append(out, Declared{Kind: kind, Name: e.Name, Tags: e.Tags, Config: e.Config})
		}
	}
	add(models.KindServer, f.Server)
	add(models.KindDeployment, f.Deployment)
	add(models.KindBuild, f.Build)
	add(models.KindRepo, f.Repo)
	add(models.KindProcedure, f.Procedure)
	add(models.KindAction, f.Action)
	add(models.KindStack, f.Stack)
	add(models.KindResourceSync, f.ResourceSync)
	add(models.KindBuilder, f.Builder)
	add(models.KindAlerter, f.Alerter)
	add(models.KindServerTemplate, f.ServerTemplate)
	return out, nil
}
