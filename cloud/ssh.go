package cloud

import (
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/crypto/ssh"
)

// SSHKey is a parsed authorized_keys entry.
type SSHKey struct {
	// PublicKey is the key in authorized_keys format, without a trailing newline.
	PublicKey string
	Comment   string
	// Fingerprint is the colon separated MD5 of the wire format key.
	Fingerprint string
}

func ParseSSHKey(data []byte) (*SSHKey, error) {
	pub, comment, _, _, err := ssh.ParseAuthorizedKey(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse public key")
	}
	return &SSHKey{
		PublicKey:   strings.TrimSpace(string(ssh.MarshalAuthorizedKey(pub))),
		Comment:     comment,
		Fingerprint: ssh.FingerprintLegacyMD5(pub),
	}, nil
}

// Name derives a stable key name from the fingerprint, so the same key is
// registered with a provider only once.
func (k *SSHKey) Name() string {
	return "cloudcli-" + strings.ReplaceAll(k.Fingerprint, ":", "")[:12]
}
