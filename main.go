//	@title			Lendflow API
//	@version		1.0
//	@description	Loan origination back office: applicants, applications, documents, verification and billing.

//	@BasePath	/api/v1

//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization

package main

import (
	"fmt"
	"os"

	"github.com/lendflow/lendflow/cli"
)

func main() {
	cmd := cli.RootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
