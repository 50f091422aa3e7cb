package main

import (
	"fmt"
	"os"

	"github.com/BYEONGHWALEE-dev/cloud-service/cmd"
	"github.com/BYEONGHWALEE-dev/cloud-service/types"
)

var exitCodes = map[string]int{
	"validation":         2,
	"not_found":          3,
	"conflict":           4,
	"pool_exhausted":     5,
	"auth_failure":       6,
	"remote_unavailable": 7,
}

func main() {
	if err := cmd.Execute(); err != nil {
		kind := types.Kind(err)
		fmt.Fprintf(os.Stderr, "Error [%s]: %v\n", kind, err)
		code, ok := exitCodes[kind]
		if !ok {
			code = 1
		}
		os.Exit(code)
	}
}
