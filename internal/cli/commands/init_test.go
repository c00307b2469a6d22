package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/olistdw/internal/project"
)

func TestNewInitCommand(t *testing.T) {
	tests := []struct {
		name      string
		setupDir  func(t *testing.T, dir string) // setup before running
		args      []string
		wantErr   bool
		wantFiles []string
	}{
		{
			name:      "init empty directory",
			args:      []string{},
			wantFiles: []string{"olistdw.yaml", ".gitignore", "seeds", "seeds/README.md"},
		},
		{
			name: "init existing config without force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "olistdw.yaml"), []byte("existing"), 0600)
			},
			args:    []string{},
			wantErr: true,
		},
		{
			name: "init existing config with force",
			setupDir: func(_ *testing.T, dir string) {
				_ = os.WriteFile(filepath.Join(dir, "olistdw.yaml"), []byte("existing"), 0600)
			},
			args:      []string{"--force"},
			wantFiles: []string{"olistdw.yaml", "seeds"},
		},
		{
			name:      "init into subdirectory",
			args:      []string{"warehouse"},
			wantFiles: []string{"warehouse/olistdw.yaml", "warehouse/seeds"},
		},
		{
			name:      "init example",
			args:      []string{"--example"},
			wantFiles: []string{"olistdw.yaml", "seeds/olist_orders.csv", "seeds/olist_marketing_qualified_leads.csv"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir := t.TempDir()
			t.Chdir(tmpDir)

			if tt.setupDir != nil {
				tt.setupDir(t, tmpDir)
			}

			cmd := NewInitCommand()
			buf := new(bytes.Buffer)
			cmd.SetOut(buf)
			cmd.SetErr(buf)
			cmd.SetArgs(tt.args)

			err := cmd.Execute()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			for _, f := range tt.wantFiles {
				_, err := os.Stat(filepath.Join(tmpDir, f))
				assert.NoError(t, err, "expected file/dir %q to exist", f)
			}
		})
	}
}

func TestInitCommandMetadata(t *testing.T) {
	cmd := NewInitCommand()

	assert.Equal(t, "init [directory]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "--force flag should exist")
	assert.NotNil(t, cmd.Flags().Lookup("example"), "--example flag should exist")
}

func TestInitCreatesValidConfig(t *testing.T) {
	tmpDir := t.TempDir()
	t.Chdir(tmpDir)

	cmd := NewInitCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{})
	require.NoError(t, cmd.Execute())

	content, err := os.ReadFile("olistdw.yaml")
	require.NoError(t, err, "failed to read olistdw.yaml")

	for _, expected := range []string{
		"seeds_dir: seeds",
		"state_path:",
		"staging: data_staging",
		"target: data_target",
		"type: memory",
	} {
		assert.Contains(t, string(content), expected, "config should contain %q", expected)
	}
}

func TestExampleTemplateCoversEverySource(t *testing.T) {
	files, err := planTemplate("example")
	require.NoError(t, err)

	var seeds, other []string
	for _, f := range files {
		if f.seed {
			seeds = append(seeds, f.rel)
		} else {
			other = append(other, f.rel)
		}
	}
	for _, src := range project.Sources("") {
		assert.Contains(t, seeds, filepath.Join("seeds", src.Ref.Table+".csv"))
	}
	assert.ElementsMatch(t, []string{"olistdw.yaml", ".gitignore"}, other)
}

func TestPlanTemplate_Unknown(t *testing.T) {
	_, err := planTemplate("dbt")
	require.EqualError(t, err, `unknown template "dbt"`)
}

func TestWriteScaffold_KeepsExistingFiles(t *testing.T) {
	dir := t.TempDir()
	files, err := planTemplate("minimal")
	require.NoError(t, err)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".gitignore"), []byte("custom\n"), 0o600))

	written, kept, err := writeScaffold(files, dir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{".gitignore"}, kept)
	assert.Len(t, written, len(files)-1)

	got, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	require.NoError(t, err)
	assert.Equal(t, "custom\n", string(got))

	written, kept, err = writeScaffold(files, dir, true)
	require.NoError(t, err)
	assert.Empty(t, kept)
	assert.Len(t, written, len(files))
}
