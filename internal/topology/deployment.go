package topology

import (
	"fmt"
	"strings"
)

// Status is the lifecycle state of a deployment.
type Status int

const (
	Stopped Status = iota
	Started
)

func (s Status) String() string {
	if s == Started {
		return "started"
	}
	return "stopped"
}

// MarshalText encodes the status by name in snapshots.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText decodes a status written by MarshalText.
func (s *Status) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "started":
		*s = Started
	case "stopped", "":
		*s = Stopped
	default:
		return fmt.Errorf("unknown deployment status %q", text)
	}
	return nil
}

// Deployment is a named, independently startable unit. Two records with the
// same Name denote the same deployment.
type Deployment struct {
	Name         string `json:"name" yaml:"name"`
	ManifestPath string `json:"manifest,omitempty" yaml:"manifest,omitempty"`
	Status       Status `json:"status" yaml:"status"`
}

// NewDeployment returns a stopped deployment.
func NewDeployment(name, manifestPath string) Deployment {
	return Deployment{Name: name, ManifestPath: manifestPath, Status: Stopped}
}

func (d Deployment) String() string {
	return d.Name
}

// Dependency means Source requires Target.
type Dependency struct {
	Source string `json:"source" yaml:"source"`
	Target string `json:"target" yaml:"target"`
}

func (d Dependency) String() string {
	return d.Source + " --> " + d.Target
}

// Touches reports whether name is either endpoint of the dependency.
func (d Dependency) Touches(name string) bool {
	return d.Source == name || d.Target == name
}
