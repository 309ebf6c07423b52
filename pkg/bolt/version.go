package bolt

import (
	"strconv"
	"strings"
)

// serverVersion is the comparable "M.m.p" parsed out of the INIT success
// metadata's "server" field (e.g. "Neo4j/3.2.1"), per spec.md §4.3.
type serverVersion struct {
	major, minor, patch int
}

// parseServerVersion parses a "name/M.m.p" string. An unparseable or
// missing version is treated as version 0.0.0, the conservative choice
// that keeps byte arrays disabled.
func parseServerVersion(raw string) serverVersion {
	parts := strings.SplitN(raw, "/", 2)
	if len(parts) != 2 {
		return serverVersion{}
	}
	nums := strings.SplitN(parts[1], ".", 3)
	v := serverVersion{}
	if len(nums) > 0 {
		v.major, _ = strconv.Atoi(nums[0])
	}
	if len(nums) > 1 {
		v.minor, _ = strconv.Atoi(nums[1])
	}
	if len(nums) > 2 {
		v.patch, _ = strconv.Atoi(nums[2])
	}
	return v
}

// supportsByteArrays reports whether this version is >= 3.2.0, per
// spec.md §4.2/§4.3's byte-array gate.
func (v serverVersion) supportsByteArrays() bool {
	if v.major != 3 {
		return v.major > 3
	}
	return v.minor >= 2
}
