package bootstrap

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/DataSup-Engineer/nasdaq-agent/pkg/a2a"
	"github.com/DataSup-Engineer/nasdaq-agent/pkg/registry"
)

const logPrefix = "bootstrap:loader"

// LoadCapabilityFile loads a capability file. It tries paths in order: first
// any paths passed in, then CAPABILITIES_FILE, then the default locations.
// Missing files are skipped; a file that exists but cannot be parsed or fails
// validation is an error. With no file found the built-in set is returned.
func LoadCapabilityFile(paths ...string) (*CapabilityFile, error) {
	all := make([]string, 0, len(paths)+4)
	for _, p := range paths {
		if p != "" {
			all = append(all, p)
		}
	}
	if envPath := os.Getenv("CAPABILITIES_FILE"); envPath != "" {
		all = append(all, envPath)
	}
	all = append(all, "config/capabilities.yaml", "config/capabilities.json")

	for _, p := range all {
		data, err := os.ReadFile(p)
		if err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				slog.Warn(fmt.Sprintf("%s - Cannot read capability file %s: %v", logPrefix, p, err))
			}
			continue
		}

		file, err := ParseCapabilityFile(p, data)
		if err != nil {
			return nil, err
		}
		file.Source = p

		slog.Info(fmt.Sprintf("%s - Loaded %d capabilities from %s", logPrefix, len(file.Capabilities), p))
		return file, nil
	}

	slog.Info(fmt.Sprintf("%s - Using built-in capability set", logPrefix))
	return GetDefaultCapabilityFile(), nil
}

// ParseCapabilityFile decodes data as YAML when name ends in .yaml or .yml
// and as JSON otherwise, then validates every capability.
func ParseCapabilityFile(name string, data []byte) (*CapabilityFile, error) {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".yaml" || ext == ".yml" {
		converted, err := yamlToJSON(data)
		if err != nil {
			return nil, fmt.Errorf("%s - failed to parse %s: %w", logPrefix, name, err)
		}
		data = converted
	}

	var file CapabilityFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%s - failed to parse %s: %w", logPrefix, name, err)
	}
	if err := ValidateCapabilityFile(&file); err != nil {
		return nil, fmt.Errorf("%s - %s: %w", logPrefix, name, err)
	}
	return &file, nil
}

// ValidateCapabilityFile rejects invalid definitions and duplicate ids.
func ValidateCapabilityFile(file *CapabilityFile) error {
	seen := make(map[string]bool, len(file.Capabilities))
	for i, c := range file.Capabilities {
		if verr := registry.ValidateCapability(c); verr != nil {
			return fmt.Errorf("capability %d (%s): %w", i, c.ID, verr)
		}
		if seen[c.ID] {
			return fmt.Errorf("duplicate capability id %q", c.ID)
		}
		seen[c.ID] = true
	}
	return nil
}

// GetDefaultCapabilityFile returns the built-in stock agent capability set.
func GetDefaultCapabilityFile() *CapabilityFile {
	return &CapabilityFile{
		Name:         "nasdaq-stock-agent",
		Version:      a2a.DefaultCapabilityVersion,
		Description:  "Built-in NASDAQ stock agent capabilities",
		Capabilities: a2a.DefaultCapabilities(),
	}
}

// CreateResolvedCapabilities flattens a file into its final capability list:
// the built-in set (unless excluded) followed by the file's own entries, where
// a file entry replaces a built-in with the same id in place.
func CreateResolvedCapabilities(file *CapabilityFile) *ResolvedCapabilities {
	rc := &ResolvedCapabilities{
		name:    file.Name,
		version: file.Version,
		source:  file.Source,
		index:   make(map[string]int),
	}
	add := func(c a2a.Capability) {
		c = c.WithDefaults()
		if i, ok := rc.index[c.ID]; ok {
			rc.caps[i] = c
			return
		}
		rc.index[c.ID] = len(rc.caps)
		rc.caps = append(rc.caps, c)
	}
	if file.includeDefaults() {
		for _, c := range a2a.DefaultCapabilities() {
			add(c)
		}
	}
	for _, c := range file.Capabilities {
		add(c)
	}
	return rc
}

// MergeCapabilityFiles merges override into base. Capabilities with the same
// id are replaced in place; new ones are appended.
func MergeCapabilityFiles(base, override *CapabilityFile) *CapabilityFile {
	merged := *base
	merged.Capabilities = make([]a2a.Capability, len(base.Capabilities))
	copy(merged.Capabilities, base.Capabilities)

	pos := make(map[string]int, len(merged.Capabilities))
	for i, c := range merged.Capabilities {
		pos[c.ID] = i
	}
	for _, c := range override.Capabilities {
		if i, ok := pos[c.ID]; ok {
			merged.Capabilities[i] = c
			continue
		}
		pos[c.ID] = len(merged.Capabilities)
		merged.Capabilities = append(merged.Capabilities, c)
	}

	if override.Name != "" {
		merged.Name = override.Name
	}
	if override.Version != "" {
		merged.Version = override.Version
	}
	if override.IncludeDefaults != nil {
		merged.IncludeDefaults = override.IncludeDefaults
	}
	return &merged
}

// yamlToJSON re-encodes a YAML document as JSON, keeping mapping key order so
// schema property order survives.
func yamlToJSON(data []byte) ([]byte, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if len(doc.Content) == 0 {
		buf.WriteString("{}")
		return buf.Bytes(), nil
	}
	if err := writeNode(&buf, &doc); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func writeNode(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		return writeNode(buf, n.Content[0])
	case yaml.AliasNode:
		return writeNode(buf, n.Alias)
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := writeNode(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeNode(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		var v interface{}
		if err := n.Decode(&v); err != nil {
			return err
		}
		out, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(out)
	default:
		return fmt.Errorf("line %d: unsupported YAML node", n.Line)
	}
	return nil
}
