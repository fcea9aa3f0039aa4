package cloud_test

import (
	"testing"

	"github.com/onsi/gomega"
	"github.com/pharmer/cloudcli/cloud"
	_ "github.com/pharmer/cloudcli/cloud/providers/fake"
)

func TestConnect(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		cred     cloud.Credentials
		wantErr  string
		invalid  bool
	}{
		{
			name:     "fake",
			provider: "fake",
			cred:     cloud.Credentials{User: "bob", Key: "xyz"},
		},
		{
			name:     "provider names are case insensitive",
			provider: "FAKE",
			cred:     cloud.Credentials{User: "bob", Key: "xyz"},
		},
		{
			name:     "unknown provider",
			provider: "acme",
			cred:     cloud.Credentials{User: "bob", Key: "xyz"},
			wantErr:  `unknown dns provider "acme"`,
		},
		{
			name:     "rejected key",
			provider: "fake",
			cred:     cloud.Credentials{User: "bob", Key: "invalid"},
			invalid:  true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := gomega.NewGomegaWithT(t)

			conn, err := cloud.Connect(tt.provider, tt.cred)
			switch {
			case tt.wantErr != "":
				g.Expect(err).To(gomega.MatchError(tt.wantErr))
				_, ok := err.(*cloud.UnknownProviderError)
				g.Expect(ok).To(gomega.BeTrue())
			case tt.invalid:
				g.Expect(cloud.IsInvalidCredentials(err)).To(gomega.BeTrue())
				g.Expect(conn).To(gomega.BeNil())
			default:
				g.Expect(err).NotTo(gomega.HaveOccurred())
				g.Expect(conn.Provider).To(gomega.Equal(tt.provider))
				g.Expect(conn.User).To(gomega.Equal("bob"))
				g.Expect(conn.DNS).NotTo(gomega.BeNil())
				g.Expect(conn.LoadBalancer).NotTo(gomega.BeNil())
				g.Expect(conn.Compute).NotTo(gomega.BeNil())
			}
		})
	}

	g := gomega.NewGomegaWithT(t)
	g.Expect(cloud.Providers()).To(gomega.ContainElement("fake"))
}
