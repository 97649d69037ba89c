/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package config

import (
	"fmt"
	"io"
	"net"

	yaml "gopkg.in/yaml.v2"
)

// Wildcard is the sentinel name meaning "use the first available resource".
const Wildcard = "*"

// ConnectionConfig :
type ConnectionConfig struct {
	Verify bool `yaml:"verify"`
}

// VCDConfig holds the endpoint, the identities and the names of the
// resources that make up the test environment.
type VCDConfig struct {
	Host string `yaml:"host"`

	SysOrg           string `yaml:"sysOrg"`
	SysAdminUsername string `yaml:"sysAdminUsername"`
	SysAdminPassword string `yaml:"sysAdminPassword"`

	// OrgUserPassword is shared by all the role users created in the test org.
	OrgUserPassword string `yaml:"orgUserPassword"`

	PvdcName           string `yaml:"pvdcName"`
	NetpoolName        string `yaml:"netpoolName"`
	StorageProfileName string `yaml:"storageProfileName"`
	StorageLimitMB     int64  `yaml:"storageLimitMB"`
	NetworkQuota       int    `yaml:"networkQuota"`

	OrgName      string `yaml:"org"`
	OvdcName     string `yaml:"vdc"`
	NetworkName  string `yaml:"network"`
	NetworkCIDR  string `yaml:"networkCIDR"`
	CatalogName  string `yaml:"catalog"`
	TemplateName string `yaml:"template"`
	TemplatePath string `yaml:"templatePath"`
	VAppName     string `yaml:"vapp"`
	VMName       string `yaml:"vm"`
}

// TasksConfig bounds the polling of asynchronous VCD tasks.
type TasksConfig struct {
	PollIntervalSeconds int `yaml:"pollIntervalSeconds"`
	TimeoutSeconds      int `yaml:"timeoutSeconds"`
}

// GlobalConfig :
type GlobalConfig struct {
	// DeveloperMode keeps provisioned resources around after a run so that
	// the next run can reuse them. Teardown becomes a no-op.
	DeveloperMode bool `yaml:"developerMode"`
}

// TestConfig is the full configuration of a test run.
type TestConfig struct {
	Connection ConnectionConfig `yaml:"connection"`
	VCD        VCDConfig        `yaml:"vcd"`
	Tasks      TasksConfig      `yaml:"tasks"`
	Global     GlobalConfig     `yaml:"global"`
}

// MissingFieldError flags a required configuration field that was left
// unset. It is raised before any remote call is attempted.
type MissingFieldError struct {
	Field string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("required configuration field [%s] is not set", e.Field)
}

// InvalidFieldError flags a configuration field whose value cannot be used.
type InvalidFieldError struct {
	Field  string
	Reason string
}

func (e *InvalidFieldError) Error() string {
	return fmt.Sprintf("configuration field [%s] is invalid: %s", e.Field, e.Reason)
}

// ParseTestConfig reads a yaml test configuration. Unknown keys are
// rejected so that typos in resource names surface immediately.
func ParseTestConfig(configReader io.Reader) (*TestConfig, error) {
	config := &TestConfig{
		VCD: VCDConfig{
			PvdcName:           Wildcard,
			NetpoolName:        Wildcard,
			StorageProfileName: Wildcard,
			NetworkQuota:       10,
		},
		Tasks: TasksConfig{
			PollIntervalSeconds: 3,
			TimeoutSeconds:      600,
		},
	}
	decoder := yaml.NewDecoder(configReader)
	decoder.SetStrict(true)

	if err := decoder.Decode(config); err != nil {
		return nil, fmt.Errorf("Unable to decode yaml file: [%v]", err)
	}

	return config, nil
}

// Validate fails fast on missing or unusable fields, before any network
// call is made with them.
func (c *TestConfig) Validate() error {
	required := []struct {
		field string
		value string
	}{
		{"vcd.host", c.VCD.Host},
		{"vcd.sysOrg", c.VCD.SysOrg},
		{"vcd.sysAdminUsername", c.VCD.SysAdminUsername},
		{"vcd.sysAdminPassword", c.VCD.SysAdminPassword},
		{"vcd.orgUserPassword", c.VCD.OrgUserPassword},
		{"vcd.pvdcName", c.VCD.PvdcName},
		{"vcd.netpoolName", c.VCD.NetpoolName},
		{"vcd.storageProfileName", c.VCD.StorageProfileName},
		{"vcd.org", c.VCD.OrgName},
		{"vcd.vdc", c.VCD.OvdcName},
		{"vcd.network", c.VCD.NetworkName},
		{"vcd.networkCIDR", c.VCD.NetworkCIDR},
		{"vcd.catalog", c.VCD.CatalogName},
		{"vcd.template", c.VCD.TemplateName},
		{"vcd.vapp", c.VCD.VAppName},
	}
	for _, r := range required {
		if r.value == "" {
			return &MissingFieldError{Field: r.field}
		}
	}

	if _, _, err := net.ParseCIDR(c.VCD.NetworkCIDR); err != nil {
		return &InvalidFieldError{Field: "vcd.networkCIDR", Reason: err.Error()}
	}
	if c.Tasks.PollIntervalSeconds <= 0 {
		return &InvalidFieldError{Field: "tasks.pollIntervalSeconds", Reason: "must be positive"}
	}
	if c.Tasks.TimeoutSeconds <= 0 {
		return &InvalidFieldError{Field: "tasks.timeoutSeconds", Reason: "must be positive"}
	}

	return nil
}
