/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package main

import (
	"flag"
	"fmt"
	"os"

	"k8s.io/klog/v2"

	"github.com/vmware/vcd-system-test-framework/pkg/config"
	"github.com/vmware/vcd-system-test-framework/pkg/testenv"
	"github.com/vmware/vcd-system-test-framework/pkg/vcdclient"
)

func main() {
	var configPath string
	var teardown bool

	klog.InitFlags(nil)
	flag.StringVar(&configPath, "config", "", "path to the yaml test configuration")
	flag.BoolVar(&teardown, "teardown", false, "tear the test environment down instead of provisioning it")
	flag.Parse()

	if err := run(configPath, teardown); err != nil {
		klog.Errorf("run failed: [%v]", err)
		os.Exit(1)
	}
}

func run(configPath string, teardown bool) error {
	if configPath == "" {
		return fmt.Errorf("--config is required")
	}

	configReader, err := os.Open(configPath)
	if err != nil {
		return fmt.Errorf("unable to open config file [%s]: [%v]", configPath, err)
	}
	defer configReader.Close()

	cfg, err := config.ParseTestConfig(configReader)
	if err != nil {
		return fmt.Errorf("unable to parse config file [%s]: [%v]", configPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	provider := vcdclient.NewProvider(cfg)
	env := testenv.New(cfg, provider)

	if teardown {
		// Teardown releases the provider's cached session itself.
		return env.Teardown()
	}

	defer func() {
		if err := provider.Close(); err != nil {
			klog.Errorf("unable to release sys admin session: [%v]", err)
		}
	}()

	if err := env.Provision(); err != nil {
		return err
	}

	klog.Infof("environment ready: org [%s], vdc [%s], vapp [%s]",
		env.OrgHREF(), env.VdcHREF(), env.VAppHREF())
	return nil
}
