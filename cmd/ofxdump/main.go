// Command ofxdump decodes an OFX 1.x document and prints it as JSON, YAML or an element tree.
package main

import (
	"flag"
	"os"

	"github.com/golang/glog"
)

func main() {
	// glog complains about logging before flag.Parse; its flags are parsed by cobra instead.
	_ = flag.CommandLine.Parse(nil)

	err := rootCmd.Execute()
	glog.Flush()
	if err != nil {
		os.Exit(1)
	}
}
