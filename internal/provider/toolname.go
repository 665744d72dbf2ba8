package provider

import "strings"

// Backend tool names are flat while tools are namespaced by server, so
// the two name components travel joined on the wire. The separator is
// safe for every backend's function-name charset.
const wireNameSeparator = "__"

// WireToolName joins a server and tool name into the single identifier
// sent to a backend.
func WireToolName(serverName, toolName string) string {
	return serverName + wireNameSeparator + toolName
}

// ParseWireToolName splits a backend-reported function name back into
// its server and tool components. Names without a separator map to an
// empty server, which the tool client reports as unknown.
func ParseWireToolName(name string) (serverName, toolName string) {
	if i := strings.Index(name, wireNameSeparator); i >= 0 {
		return name[:i], name[i+len(wireNameSeparator):]
	}
	return "", name
}
