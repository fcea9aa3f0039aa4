package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
	_ "github.com/pharmer/cloudcli/cloud/providers"
	"github.com/pharmer/cloudcli/cmds"
)

func main() {
	// stdout carries command output only
	_ = flag.Set("logtostderr", "true")
	defer glog.Flush()

	if err := cmds.NewRootCmd(cmds.NewRunner()).Execute(); err != nil {
		glog.Errorln(err)
		os.Exit(1)
	}
}
