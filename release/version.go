/*
   Copyright 2021 VMware, Inc.
   SPDX-License-Identifier: Apache-2.0
*/

package release

// Version is stamped by the build via -ldflags; local builds report the
// placeholder. It ends up in the user agent of every VCD request.
var Version = "unset"
