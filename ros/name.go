package ros

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	sepName   = "/"
	globalNS  = "/"
	privateNS = "~"
)

// NameMap is a set of name -> name remappings, e.g. topic or parameter
// remaps supplied on the command line as "from:=to".
type NameMap map[string]string

func getNamespace(name string) string {
	if len(name) == 0 {
		return globalNS
	}
	if name[len(name)-1] == '/' {
		name = name[:len(name)-1]
	}
	result := name[:strings.LastIndex(name, sepName)+1]
	if len(result) == 0 {
		return sepName
	}
	return result
}

// qualifyNodeName splits a possibly-namespaced node name ("/ns/node" or
// "node") into its namespace and base name.
func qualifyNodeName(nodeName string) (string, string, error) {
	if nodeName == "" {
		return "", "", fmt.Errorf("rclgo: empty node name")
	}
	if strings.HasPrefix(nodeName, privateNS) {
		return "", "", fmt.Errorf("rclgo: node name must not contain '~'")
	}
	canonName := canonicalizeName(nodeName)

	var components []string
	for _, c := range strings.Split(canonName, sepName) {
		if len(c) > 0 {
			components = append(components, c)
		}
	}
	if len(components) == 0 {
		return "", "", fmt.Errorf("rclgo: empty node name")
	}
	if len(components) == 1 {
		return globalNS, components[0], nil
	}
	namespace := globalNS + strings.Join(components[:len(components)-1], sepName)
	return namespace, components[len(components)-1], nil
}

func resolveName(name string, namespace string, mappings NameMap) string {
	if len(name) == 0 {
		return getNamespace(namespace)
	}

	var resolvedName string
	canonName := canonicalizeName(name)
	switch {
	case isGlobalName(canonName):
		resolvedName = canonName
	case isPrivateName(canonName):
		resolvedName = canonicalizeName(namespace + sepName + canonName[1:])
	default:
		resolvedName = getNamespace(namespace) + canonName
	}

	if mappings == nil {
		return resolvedName
	}
	if remappedName, ok := mappings[resolvedName]; ok {
		return remappedName
	}
	return resolvedName
}

func isValidName(name string) bool {
	if len(name) == 0 {
		return true
	}
	if name == "/" || name == "~" {
		return true
	}
	matched, _ := regexp.MatchString(`^[~/]?([a-zA-Z]\w*/)*[a-zA-Z]\w*/?$`, name)
	return matched
}

func isValidNamespace(name string) bool {
	if len(name) == 0 {
		return false
	}
	matched, _ := regexp.MatchString(`^/([a-zA-Z]\w*/)*$`, name)
	return matched
}

func isGlobalName(name string) bool {
	return len(name) > 0 && name[0:1] == globalNS
}

func isPrivateName(name string) bool {
	return len(name) > 0 && name[0:1] == privateNS
}

// canonicalizeName collapses repeated separators out of name.
func canonicalizeName(name string) string {
	if name == globalNS {
		return name
	}
	components := []string{}
	for _, word := range strings.Split(name, sepName) {
		if len(word) > 0 {
			components = append(components, word)
		}
	}
	if strings.HasPrefix(name, globalNS) {
		return globalNS + strings.Join(components, sepName)
	}
	return strings.Join(components, sepName)
}

// NameResolver resolves and remaps topic/service/parameter names against
// a node's namespace, the way the teacher's node.go does for its
// publishers, subscribers and parameter calls.
type NameResolver struct {
	nodeName        string
	namespace       string
	mapping         NameMap
	resolvedMapping NameMap
}

func newNameResolver(namespace string, nodeName string, remapping NameMap) *NameResolver {
	// Names resolve against the node's fully qualified name: relative
	// names land in its namespace, private ("~") names beneath the node.
	n := &NameResolver{
		nodeName:        nodeName,
		namespace:       canonicalizeName(namespace + sepName + nodeName),
		mapping:         remapping,
		resolvedMapping: make(NameMap),
	}
	for k, v := range n.mapping {
		newKey := resolveName(k, n.namespace, nil)
		newValue := resolveName(v, n.namespace, nil)
		n.resolvedMapping[newKey] = newValue
	}
	return n
}

func (n *NameResolver) resolve(name string) string {
	return resolveName(name, n.namespace, n.resolvedMapping)
}

func (n *NameResolver) remap(name string) string {
	r := resolveName(name, n.namespace, n.resolvedMapping)
	if remapped, ok := n.mapping[r]; ok {
		return resolveName(remapped, n.namespace, n.resolvedMapping)
	}
	return r
}
