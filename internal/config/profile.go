// Copyright (c) matt-FFFFFF 2025. All rights reserved.
// SPDX-License-Identifier: MIT

// Package config loads run profiles. A profile holds default values for the
// flags of the run command, so a set of hosts and options can be reused.
//
// Profiles are YAML, or HCL when the file name ends in .hcl. HCL profiles can
// use the variable cores, the number of cores of the local machine:
//
//	jobs    = cores - 1
//	retries = 2
//	sshlogin = ["4/build1", "build2"]
package config

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/hashicorp/go-multierror"
	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsimple"
	"github.com/matt-FFFFFF/spread/internal/ctxlog"
	"github.com/zclconf/go-cty/cty"
)

const (
	hclExt = ".hcl"

	// CancelPolicyTerminate stops running jobs on the second interrupt.
	CancelPolicyTerminate = "terminate"
	// CancelPolicyWait lets running jobs finish whatever happens.
	CancelPolicyWait = "wait"
)

var (
	// ErrInvalidYaml is returned when a YAML profile cannot be decoded.
	ErrInvalidYaml = errors.New("invalid YAML profile")
	// ErrInvalidHcl is returned when an HCL profile cannot be decoded.
	ErrInvalidHcl = errors.New("invalid HCL profile")
	// ErrInvalidProfile is returned when a decoded profile has invalid values.
	ErrInvalidProfile = errors.New("invalid profile")
)

// Profile holds defaults for the run command. Zero values mean not set.
type Profile struct {
	Jobs         string   `yaml:"jobs"          hcl:"jobs,optional"          docdesc:"Job slots per host: N, +N or -N relative to the cores, N% of the cores, or unbounded."`
	MaxArgs      int      `yaml:"max_args"      hcl:"max_args,optional"      docdesc:"Arguments per job."`
	KeepOrder    bool     `yaml:"keep_order"    hcl:"keep_order,optional"    docdesc:"Write output in input order."`
	Tag          bool     `yaml:"tag"           hcl:"tag,optional"           docdesc:"Prefix every output line with the arguments of the job."`
	Shell        string   `yaml:"shell"         hcl:"shell,optional"         docdesc:"Shell that runs local jobs."`
	EnvFile      string   `yaml:"env_file"      hcl:"env_file,optional"      docdesc:"Dotenv file with variables for local jobs."`
	Timeout      string   `yaml:"timeout"       hcl:"timeout,optional"       docdesc:"Kill jobs running longer than this duration."`
	Retries      int      `yaml:"retries"       hcl:"retries,optional"       docdesc:"Retries of a job after a transport failure."`
	SSHLogins    []string `yaml:"sshlogin"      hcl:"sshlogin,optional"      docdesc:"Hosts to run jobs on, as [N/][login@]host. A single colon is the local machine."`
	SSHLoginFile string   `yaml:"sshloginfile"  hcl:"sshloginfile,optional"  docdesc:"File with one host per line."`
	SSH          string   `yaml:"ssh"           hcl:"ssh,optional"           docdesc:"Command used to reach remote hosts."`
	Transfer     string   `yaml:"transfer"      hcl:"transfer,optional"      docdesc:"Files copied to the remote host before a job, a command template."`
	Return       string   `yaml:"return"        hcl:"return,optional"        docdesc:"Files copied back after a job, a command template."`
	Cleanup      bool     `yaml:"cleanup"       hcl:"cleanup,optional"       docdesc:"Remove transferred and returned files from the remote host."`
	JobLog       string   `yaml:"joblog"        hcl:"joblog,optional"        docdesc:"File that gets one line per finished job."`
	Results      string   `yaml:"results"       hcl:"results,optional"       docdesc:"Directory that gets the output of every job."`
	CancelPolicy string   `yaml:"cancel_policy" hcl:"cancel_policy,optional" docdesc:"What a second interrupt does to running jobs." docenum:"terminate,wait"`
}

// ExampleProfile returns a profile showing typical values.
func ExampleProfile() *Profile {
	return &Profile{
		Jobs:         "-1",
		KeepOrder:    true,
		Timeout:      "10m",
		Retries:      2,
		SSHLogins:    []string{"8/build1", "deploy@build2"},
		SSH:          "ssh -o BatchMode=yes",
		JobLog:       "spread.log",
		CancelPolicy: CancelPolicyTerminate,
	}
}

// TimeoutDuration returns the parsed timeout, 0 when unset.
func (p *Profile) TimeoutDuration() time.Duration {
	d, _ := time.ParseDuration(p.Timeout)
	return d
}

// Validate checks the values that can be checked without the rest of the run configuration.
// All problems are reported together.
func (p *Profile) Validate() error {
	var err error

	if p.MaxArgs < 0 {
		err = multierror.Append(err, fmt.Errorf("max_args must not be negative, got %d", p.MaxArgs))
	}

	if p.Retries < 0 {
		err = multierror.Append(err, fmt.Errorf("retries must not be negative, got %d", p.Retries))
	}

	if p.Timeout != "" {
		if d, perr := time.ParseDuration(p.Timeout); perr != nil || d < 0 {
			err = multierror.Append(err, fmt.Errorf("timeout %q is not a valid duration", p.Timeout))
		}
	}

	switch p.CancelPolicy {
	case "", CancelPolicyTerminate, CancelPolicyWait:
	default:
		err = multierror.Append(err, fmt.Errorf("cancel_policy must be %q or %q, got %q",
			CancelPolicyTerminate, CancelPolicyWait, p.CancelPolicy))
	}

	if err != nil {
		return errors.Join(ErrInvalidProfile, err)
	}

	return nil
}

// DecodeYAML decodes a YAML profile.
func DecodeYAML(data []byte) (*Profile, error) {
	var p Profile
	if err := yaml.UnmarshalWithOptions(data, &p, yaml.DisallowUnknownField()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidYaml, err)
	}

	return &p, nil
}

// DecodeHCL decodes an HCL profile. Expressions can refer to cores.
func DecodeHCL(filename string, data []byte, cores int) (*Profile, error) {
	evalCtx := &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"cores": cty.NumberIntVal(int64(cores)),
		},
	}

	var p Profile
	if err := hclsimple.Decode(filename, data, evalCtx, &p); err != nil {
		return nil, errors.Join(ErrInvalidHcl, err)
	}

	return &p, nil
}

// Decode picks the format from the file name: HCL for .hcl, YAML otherwise.
func Decode(filename string, data []byte, cores int) (*Profile, error) {
	if strings.EqualFold(path.Ext(filename), hclExt) {
		return DecodeHCL(filename, data, cores)
	}

	return DecodeYAML(data)
}

// Load fetches, decodes and validates the profile at url.
// The url uses go-getter syntax, see Fetch.
func Load(ctx context.Context, url string, cores int) (*Profile, error) {
	data, err := Fetch(ctx, url)
	if err != nil {
		return nil, err
	}

	name := url
	if i := strings.Index(name, "?"); i >= 0 {
		name = name[:i]
	}

	p, err := Decode(name, data, cores)
	if err != nil {
		return nil, err
	}

	if err := p.Validate(); err != nil {
		return nil, err
	}

	ctxlog.Debug(ctx, "profile loaded", "url", url)

	return p, nil
}
