// Package project implements ProjectConfig (component C6: reads the .mcp
// INI descriptor) and Indexer (component C7: composes ProjectConfig with
// Document construction into a per-path DocumentType map).
package project

import (
	"strings"

	"gopkg.in/ini.v1"

	"github.com/pr1metine/ls-ccsc/internal/lspext"
)

// FileEntry is one [FILE_INFO] row plus its [OTHER_FILES]/[GENERATED_FILES]
// classification (spec §3 "ProjectConfig", §4.6).
type FileEntry struct {
	RelativePath string
	IsOther      bool
	IsGenerated  bool
}

// ToolSetting is one opaque (key, value) pair from [TOOL_SETTINGS].
type ToolSetting struct {
	Key, Value string
}

// Config is the parsed .mcp project descriptor (spec §4.6).
type Config struct {
	FileVersion  string
	Device       string
	SuiteGUID    string
	ToolSettings []ToolSetting
	Files        map[string]FileEntry
}

const generatedProjectDirMarker = "$(ProjectDir)"

// LoadConfig parses the INI text of a .mcp file per spec §4.6. A missing
// required section or header field, or an [OTHER_FILES]/[GENERATED_FILES]
// key absent from [FILE_INFO], aborts construction with CodeMcpParse.
func LoadConfig(raw []byte) (*Config, error) {
	cfg, err := ini.Load(raw)
	if err != nil {
		return nil, lspext.Newf(lspext.CodeMcpParse, "parsing .mcp: %v", err)
	}

	header, err := requireSection(cfg, "HEADER")
	if err != nil {
		return nil, err
	}
	fileVersion, err := requireKey(header, "HEADER", "file_version")
	if err != nil {
		return nil, err
	}
	device, err := requireKey(header, "HEADER", "device")
	if err != nil {
		return nil, err
	}

	suiteInfo, err := requireSection(cfg, "SUITE_INFO")
	if err != nil {
		return nil, err
	}
	suiteGUID, err := requireKey(suiteInfo, "SUITE_INFO", "suite_guid")
	if err != nil {
		return nil, err
	}

	toolSettingsSection, err := requireSection(cfg, "TOOL_SETTINGS")
	if err != nil {
		return nil, err
	}
	var toolSettings []ToolSetting
	for _, key := range toolSettingsSection.Keys() {
		toolSettings = append(toolSettings, ToolSetting{Key: key.Name(), Value: key.Value()})
	}

	fileInfo, err := requireSection(cfg, "FILE_INFO")
	if err != nil {
		return nil, err
	}
	files := make(map[string]FileEntry, len(fileInfo.Keys()))
	for _, key := range fileInfo.Keys() {
		files[key.Name()] = FileEntry{RelativePath: key.Value()}
	}

	otherFiles, err := requireSection(cfg, "OTHER_FILES")
	if err != nil {
		return nil, err
	}
	for _, key := range otherFiles.Keys() {
		entry, ok := files[key.Name()]
		if !ok {
			return nil, lspext.Newf(lspext.CodeMcpParse, "[OTHER_FILES] key %q not present in [FILE_INFO]", key.Name())
		}
		entry.IsOther = key.Value() == "yes"
		files[key.Name()] = entry
	}

	generatedFiles, err := requireSection(cfg, "GENERATED_FILES")
	if err != nil {
		return nil, err
	}
	for _, key := range generatedFiles.Keys() {
		entry, ok := files[key.Name()]
		if !ok {
			return nil, lspext.Newf(lspext.CodeMcpParse, "[GENERATED_FILES] key %q not present in [FILE_INFO]", key.Name())
		}
		entry.IsGenerated = strings.Contains(key.Value(), generatedProjectDirMarker)
		files[key.Name()] = entry
	}

	return &Config{
		FileVersion:  fileVersion,
		Device:       device,
		SuiteGUID:    suiteGUID,
		ToolSettings: toolSettings,
		Files:        files,
	}, nil
}

func requireSection(cfg *ini.File, name string) (*ini.Section, error) {
	if !cfg.HasSection(name) {
		return nil, lspext.Newf(lspext.CodeMcpParse, "section [%s] not found in .mcp", name)
	}
	return cfg.Section(name), nil
}

func requireKey(section *ini.Section, sectionName, key string) (string, error) {
	if !section.HasKey(key) {
		return "", lspext.Newf(lspext.CodeMcpParse, "field %q not found in [%s]", key, sectionName)
	}
	return section.Key(key).String(), nil
}
