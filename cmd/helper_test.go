package cmd

import (
	"os"
	"path/filepath"
	"testing"

	units "github.com/docker/go-units"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

func TestSizeIn(t *testing.T) {
	mb, err := sizeIn("memory", "2G", units.MiB)
	require.NoError(t, err)
	assert.Equal(t, 2048, mb)

	mb, err = sizeIn("memory", "512M", units.MiB)
	require.NoError(t, err)
	assert.Equal(t, 512, mb)

	gb, err := sizeIn("disk", "50G", units.GiB)
	require.NoError(t, err)
	assert.Equal(t, 50, gb)

	_, err = sizeIn("disk", "1500M", units.GiB)
	require.Error(t, err)
	_, err = sizeIn("disk", "lots", units.GiB)
	require.Error(t, err)
}

func newCreateFlags(t *testing.T, args ...string) *cobra.Command {
	t.Helper()
	cmd := &cobra.Command{}
	cmd.Flags().AddFlagSet(createCmd.Flags())
	require.NoError(t, cmd.Flags().Parse(args))
	return cmd
}

func TestCreateRequestFromFlags(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "id.pub")
	require.NoError(t, os.WriteFile(keyFile, []byte("ssh-ed25519 AAAA test\n"), 0o600))

	cmd := newCreateFlags(t, "--owner", "m-1", "--name", "web-1", "--cpu", "4", "--memory", "4G", "--disk", "40G", "--ssh-key-file", keyFile)
	req, err := createRequestFromFlags(cmd)
	require.NoError(t, err)
	assert.Equal(t, &types.CreateRequest{
		OwnerID:      "m-1",
		Name:         "web-1",
		CPUCores:     4,
		MemoryMB:     4096,
		DiskGB:       40,
		SSHPublicKey: "ssh-ed25519 AAAA test\n",
	}, req)
}

func TestCreateRequestBadSize(t *testing.T) {
	cmd := newCreateFlags(t, "--owner", "m-1", "--name", "web-1", "--memory", "huge")
	_, err := createRequestFromFlags(cmd)
	require.ErrorIs(t, err, types.ErrValidation)
}
