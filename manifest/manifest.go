// Package manifest drives mirror jobs from declarative configuration files.
package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/etnz/apt-mirror/apt"
)

// Job describes one mirror run: which distributions, components and
// architectures of a source repository to adopt into a target pool.
type Job struct {
	// Target is the base URI of the repository that will own the mirrored
	// pool. A bare path is taken as a local directory.
	Target string `json:"target" yaml:"target"`

	// Source is the base URI of the repository to mirror from.
	Source string `json:"source" yaml:"source"`

	// Distributions are the names under dists/ to mirror.
	Distributions []string `json:"distributions" yaml:"distributions"`

	// Components and Architectures select the package lists of each
	// distribution.
	Components    []string `json:"components" yaml:"components"`
	Architectures []string `json:"architectures" yaml:"architectures"`

	// Keyring is an optional path to the OpenPGP keyring used to verify the
	// source's release signatures. Without one, signatures are not checked.
	Keyring string `json:"keyring" yaml:"keyring"`
}

// Load reads a job description from path. Both JSON and YAML are supported,
// chosen by file extension.
func Load(path string) (*Job, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("manifest: reading %s: %w", path, err)
	}

	var job Job
	if strings.HasSuffix(path, ".json") {
		err = json.Unmarshal(content, &job)
	} else {
		err = yaml.Unmarshal(content, &job)
	}
	if err != nil {
		return nil, fmt.Errorf("manifest: parsing %s: %w", path, err)
	}

	if err := job.Validate(); err != nil {
		return nil, err
	}
	return &job, nil
}

// Validate checks that the job names everything a run needs.
func (j *Job) Validate() error {
	switch {
	case j.Target == "":
		return fmt.Errorf("manifest: job must specify 'target'")
	case j.Source == "":
		return fmt.Errorf("manifest: job must specify 'source'")
	case len(j.Distributions) == 0:
		return fmt.Errorf("manifest: job must specify 'distributions'")
	case len(j.Components) == 0:
		return fmt.Errorf("manifest: job must specify 'components'")
	case len(j.Architectures) == 0:
		return fmt.Errorf("manifest: job must specify 'architectures'")
	}
	return nil
}

// Report summarises a finished run.
type Report struct {
	// Lists is the number of package lists that were fetched and verified.
	Lists int
	// Adopted is the number of packages newly copied into the target pool.
	Adopted int
}

// Run mirrors every configured package list from the source into the
// target's pool. Packages already pooled on the target are skipped by
// their SHA256, and so are packages whose blob is already present at their
// pool path on the target (see Repository.HasBlob).
func (j *Job) Run() (*Report, error) {
	source, err := apt.NewRepository(j.Source)
	if err != nil {
		return nil, err
	}
	if j.Keyring != "" {
		verifier, err := apt.OpenKeyring(j.Keyring)
		if err != nil {
			return nil, err
		}
		source.Verifier = verifier
	}

	target, err := apt.NewRepository(j.Target)
	if err != nil {
		return nil, err
	}

	report := &Report{}
	for _, dist := range j.Distributions {
		d := source.Distribution(dist)
		ok, err := d.Exists()
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("manifest: distribution %s not found at %s", dist, j.Source)
		}

		for _, comp := range j.Components {
			for _, arch := range j.Architectures {
				list, err := d.PackageList(comp, arch)
				if err != nil {
					return nil, err
				}
				report.Lists++

				for _, pkg := range list.Packages() {
					sha, _ := pkg.Get("SHA256")
					if _, ok := target.PackageByHash(sha); ok {
						continue
					}
					if ok, err := target.HasBlob(pkg.Section(), pkg.Name(), pkg.Version(), pkg.Architecture()); err == nil && ok {
						continue
					}
					if _, err := target.AdoptPackage(pkg); err != nil {
						return nil, fmt.Errorf("manifest: adopting %s %s: %w",
							pkg.Name(), pkg.Version(), err)
					}
					report.Adopted++
				}
			}
		}
	}
	return report, nil
}
