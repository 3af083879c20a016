package project

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pr1metine/ls-ccsc/internal/lspext"
)

const fixtureMcp = `[HEADER]
file_version = 1
device = PIC18F4550

[SUITE_INFO]
suite_guid = {00000000-0000-0000-0000-000000000000}

[TOOL_SETTINGS]
optimization = 9

[FILE_INFO]
file_0 = main.c
file_1 = main.h
file_2 = gen.c

[OTHER_FILES]
file_1 = yes

[GENERATED_FILES]
file_2 = $(ProjectDir)\gen.c
`

func TestLoadConfigParsesFixture(t *testing.T) {
	cfg, err := LoadConfig([]byte(fixtureMcp))
	require.NoError(t, err)

	assert.Equal(t, "1", cfg.FileVersion)
	assert.Equal(t, "PIC18F4550", cfg.Device)
	assert.Equal(t, "{00000000-0000-0000-0000-000000000000}", cfg.SuiteGUID)
	require.Len(t, cfg.ToolSettings, 1)
	assert.Equal(t, ToolSetting{Key: "optimization", Value: "9"}, cfg.ToolSettings[0])

	require.Len(t, cfg.Files, 3)
	assert.Equal(t, FileEntry{RelativePath: "main.c"}, cfg.Files["file_0"])
	assert.Equal(t, FileEntry{RelativePath: "main.h", IsOther: true}, cfg.Files["file_1"])
	assert.Equal(t, FileEntry{RelativePath: "gen.c", IsGenerated: true}, cfg.Files["file_2"])
}

func TestLoadConfigRejectsMissingSection(t *testing.T) {
	_, err := LoadConfig([]byte("[HEADER]\nfile_version = 1\ndevice = X\n"))
	require.Error(t, err)
	var lspErr *lspext.Error
	require.ErrorAs(t, err, &lspErr)
	assert.Equal(t, lspext.CodeMcpParse, lspErr.Code)
}

func TestLoadConfigRejectsUnknownOtherFilesKey(t *testing.T) {
	bad := `[HEADER]
file_version = 1
device = X

[SUITE_INFO]
suite_guid = g

[TOOL_SETTINGS]

[FILE_INFO]
file_0 = main.c

[OTHER_FILES]
file_99 = yes

[GENERATED_FILES]
`
	_, err := LoadConfig([]byte(bad))
	require.Error(t, err)
}
