/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package testenv

import (
	"strings"

	"k8s.io/klog/v2"
)

// Wildcard requests the first available resource of a kind instead of a
// named one.
const Wildcard = "*"

// FindByName picks the record whose name matches desired, ignoring case.
// Passing Wildcard picks the first record in the listing. An empty listing
// yields NoneAvailableError; a named miss yields NotFoundError.
//
// Every resource kind (provider VDC, netpool, org, VDC, catalog, catalog
// item) resolves through this one routine.
func FindByName(kind string, records []Record, desired string) (Record, error) {
	if len(records) == 0 {
		return Record{}, &NoneAvailableError{Kind: kind}
	}

	if desired == Wildcard {
		klog.V(4).Infof("defaulting to first %s in the system: [%s]", kind, records[0].Name)
		return records[0], nil
	}

	for _, record := range records {
		if strings.EqualFold(record.Name, desired) {
			return record, nil
		}
	}

	return Record{}, &NotFoundError{Kind: kind, Name: desired}
}
