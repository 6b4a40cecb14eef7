package hcltopology

import "github.com/hashicorp/hcl/v2"

// fileRoot decodes the top-level blocks of one file.
type fileRoot struct {
	Configurations []*configurationBlock `hcl:"configuration,block"`
	Remain         hcl.Body              `hcl:",remain"`
}

type configurationBlock struct {
	Name        string             `hcl:"name,label"`
	Deployments []*deploymentBlock `hcl:"deployment,block"`
}

type deploymentBlock struct {
	Name     string   `hcl:"name,label"`
	Manifest string   `hcl:"manifest,optional"`
	Requires []string `hcl:"requires,optional"`
}
