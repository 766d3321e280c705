package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/bobmcallan/borsa/internal/common"
)

type versionCmd struct{}

func (*versionCmd) Name() string           { return "version" }
func (*versionCmd) Synopsis() string       { return "print version information" }
func (*versionCmd) Usage() string          { return "borsa version\n" }
func (*versionCmd) SetFlags(*flag.FlagSet) {}

func (*versionCmd) Execute(context.Context, *flag.FlagSet, ...interface{}) subcommands.ExitStatus {
	fmt.Fprintf(stdout, "borsa %s\n", common.GetBuildInfo())
	return subcommands.ExitSuccess
}
