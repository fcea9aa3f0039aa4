package providers

import (
	_ "github.com/pharmer/cloudcli/cloud/providers/aws"
	_ "github.com/pharmer/cloudcli/cloud/providers/digitalocean"
	_ "github.com/pharmer/cloudcli/cloud/providers/fake"
	_ "github.com/pharmer/cloudcli/cloud/providers/linode"
)
