package commands

import (
	"github.com/spf13/cobra"
)

var (
	_config = NewDefaultCLIConfig()
)

//RootCmd is the root command for HyParView
var RootCmd = &cobra.Command{
	Use:              "hyparview",
	Short:            "HyParView membership service",
	TraverseChildren: true,
}
