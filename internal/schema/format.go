package schema

import "fmt"

// Format identifies one configuration file format of the networkd family.
type Format string

const (
	FormatNetwork      Format = "network"       // systemd.network(5)
	FormatNetdev       Format = "netdev"        // systemd.netdev(5)
	FormatLink         Format = "link"          // systemd.link(5)
	FormatNetworkdConf Format = "networkd.conf" // networkd.conf(5)
)

// Formats lists every supported format in build order.
func Formats() []Format {
	return []Format{FormatNetwork, FormatNetdev, FormatLink, FormatNetworkdConf}
}

// ParseFormat resolves a format name as written in the manifest.
func ParseFormat(s string) (Format, error) {
	for _, f := range Formats() {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown format %q", s)
}

// Stem returns the document file stem, e.g. "systemd.network".
func (f Format) Stem() string {
	return "systemd." + string(f)
}

// RawFileName returns the generated schema file name for one release,
// e.g. "systemd.network.v257.schema.json".
func (f Format) RawFileName(v Version) string {
	return fmt.Sprintf("%s.%s.schema.json", f.Stem(), v)
}

// SchemaFileName returns the published schema file name, which carries no
// version (the directory does), e.g. "systemd.network.schema.json".
func (f Format) SchemaFileName() string {
	return f.Stem() + ".schema.json"
}

// FormatForExtension maps a configuration file extension (".network",
// ".netdev", ".link") to its format. networkd.conf has no extension
// convention and is matched by full name.
func FormatForExtension(ext string) (Format, bool) {
	switch ext {
	case ".network":
		return FormatNetwork, true
	case ".netdev":
		return FormatNetdev, true
	case ".link":
		return FormatLink, true
	}
	return "", false
}
