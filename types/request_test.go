package types

import (
	"crypto/ed25519"
	"crypto/rand"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/ssh"
)

func testKey(t *testing.T) string {
	t.Helper()
	pub, _, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)
	sshPub, err := ssh.NewPublicKey(pub)
	require.NoError(t, err)
	return string(ssh.MarshalAuthorizedKey(sshPub))
}

func validRequest() *CreateRequest {
	return &CreateRequest{OwnerID: "m-1", Name: "web-1", CPUCores: 2, MemoryMB: 2048, DiskGB: 20}
}

func TestCreateRequestValidate(t *testing.T) {
	require.NoError(t, validRequest().Validate())

	withKey := validRequest()
	withKey.SSHPublicKey = testKey(t)
	require.NoError(t, withKey.Validate())

	cases := map[string]func(r *CreateRequest){
		"no owner":     func(r *CreateRequest) { r.OwnerID = " " },
		"empty name":   func(r *CreateRequest) { r.Name = "" },
		"bad name":     func(r *CreateRequest) { r.Name = "web_1" },
		"leading dash": func(r *CreateRequest) { r.Name = "-web" },
		"cpu low":      func(r *CreateRequest) { r.CPUCores = 0 },
		"cpu high":     func(r *CreateRequest) { r.CPUCores = 5 },
		"memory low":   func(r *CreateRequest) { r.MemoryMB = 511 },
		"memory high":  func(r *CreateRequest) { r.MemoryMB = 8193 },
		"disk low":     func(r *CreateRequest) { r.DiskGB = 9 },
		"disk high":    func(r *CreateRequest) { r.DiskGB = 101 },
		"garbage key":  func(r *CreateRequest) { r.SSHPublicKey = "ssh-rsa not-base64!!" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			r := validRequest()
			mutate(r)
			err := r.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestSpecBoundsInclusive(t *testing.T) {
	assert.NoError(t, VMSpec{CPUCores: 1, MemoryMB: 512, DiskGB: 10}.Validate())
	assert.NoError(t, VMSpec{CPUCores: 4, MemoryMB: 8192, DiskGB: 100}.Validate())
}

func TestKind(t *testing.T) {
	assert.Equal(t, "", Kind(nil))
	assert.Equal(t, "not_found", Kind(fmt.Errorf("lookup vm 3: %w", ErrNotFound)))
	assert.Equal(t, "pool_exhausted", Kind(ErrPoolExhausted))
	assert.Equal(t, "remote_unavailable", Kind(errors.Join(errors.New("x"), ErrRemoteUnavailable)))
	assert.Equal(t, "internal", Kind(errors.New("boom")))
}

func TestResourceUsage(t *testing.T) {
	u := NewResourceUsage(1, 105, &RemoteStatus{Status: "running", CPU: 0.25, Mem: 512, MaxMem: 2048})
	assert.InDelta(t, 25.0, u.CPUPercent, 1e-9)
	assert.InDelta(t, 25.0, u.MemoryPercent, 1e-9)

	zero := NewResourceUsage(1, 105, &RemoteStatus{Status: "stopped"})
	assert.Zero(t, zero.MemoryPercent)
}
