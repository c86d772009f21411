// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

//go:build !unix

package backends

import "os/exec"

func configureProcessGroup(*exec.Cmd) {}
