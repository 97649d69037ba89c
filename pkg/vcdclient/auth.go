/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package vcdclient

import (
	"fmt"
	"net/url"
	"runtime"
	"strings"

	"github.com/vmware/go-vcloud-director/v2/govcd"
	"k8s.io/klog/v2"

	"github.com/vmware/vcd-system-test-framework/release"
)

const (
	VCloudApiVersion = "36.0"
)

// VCDAuthConfig : contains config related to vcd auth
type VCDAuthConfig struct {
	User     string `json:"user"`
	Password string `json:"password"`
	Org      string `json:"org"`
	Host     string `json:"host"`
	Insecure bool   `json:"insecure"`
}

func buildUserAgent() string {
	return fmt.Sprintf("vcd-system-test-framework/%s (%s/%s)",
		strings.TrimSuffix(release.Version, "\n"), runtime.GOOS, runtime.GOARCH)
}

// GetPlainClient authenticates against the VCD XML API with the basic
// credentials in the config and returns the govcd client.
func (config *VCDAuthConfig) GetPlainClient() (*govcd.VCDClient, error) {

	href := fmt.Sprintf("%s/api", config.Host)
	u, err := url.ParseRequestURI(href)
	if err != nil {
		return nil, fmt.Errorf("unable to parse url: [%s]: [%v]", href, err)
	}

	vcdClient := govcd.NewVCDClient(*u, config.Insecure, govcd.WithHttpUserAgent(buildUserAgent()))
	vcdClient.Client.APIVersion = VCloudApiVersion
	klog.V(4).Infof("Using VCD XML API version [%s]", vcdClient.Client.APIVersion)
	if err = vcdClient.Authenticate(config.User, config.Password, config.Org); err != nil {
		return nil, fmt.Errorf("cannot authenticate with vcd: [%v]", err)
	}

	return vcdClient, nil
}

// NewVCDAuthConfig :
func NewVCDAuthConfig(host string, user string, password string, org string,
	insecure bool) *VCDAuthConfig {
	return &VCDAuthConfig{
		Host:     host,
		User:     user,
		Password: password,
		Org:      org,
		Insecure: insecure,
	}
}
