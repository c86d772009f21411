// Copyright (C) 2026 Noldarim
// SPDX-License-Identifier: AGPL-3.0-or-later

package relay

import (
	"os"
	"strconv"
	"strings"

	"github.com/samber/lo"
)

// DepthEnvVar carries the relay nesting level into backend processes.
const DepthEnvVar = "PHONE_A_FRIEND_DEPTH"

// DepthFromEnv reads the current nesting level. Missing or malformed values
// count as zero.
func DepthFromEnv() int {
	return ParseDepth(os.Getenv(DepthEnvVar))
}

// ParseDepth parses a depth value, returning 0 when raw is not an integer.
func ParseDepth(raw string) int {
	depth, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0
	}
	return depth
}

// childEnv refuses nested relays beyond MaxRelayDepth and otherwise returns a
// fresh copy of the environment with the depth incremented.
func (r *Relayer) childEnv() ([]string, error) {
	if r.Depth >= MaxRelayDepth {
		return nil, errorf("relay depth limit reached; refusing nested relay invocation")
	}

	var base []string
	if r.Environ != nil {
		base = r.Environ()
	}

	prefix := DepthEnvVar + "="
	env := lo.Filter(base, func(kv string, _ int) bool {
		return !strings.HasPrefix(kv, prefix)
	})
	return append(env, prefix+strconv.Itoa(r.Depth+1)), nil
}
