package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v3"

	"github.com/microbind/microbind/reactive"
)

const (
	stateKey  = "state"
	policyKey = "policy"
)

func main() {
	cmd := &cli.Command{
		Name:      "dslcheck",
		Usage:     "Evaluate reactive DSL expressions against a JSON state document",
		ArgsUsage: "expression [expression...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  stateKey,
				Usage: "JSON object holding the initial state",
				Value: "{}",
			},
			&cli.StringFlag{
				Name:  policyKey,
				Usage: "re-entrancy policy, skip or defer",
				Value: "skip",
			},
		},
		Action: check,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func check(ctx context.Context, cmd *cli.Command) error {
	var policy reactive.Policy
	switch cmd.String(policyKey) {
	case "skip":
		policy = reactive.PolicySkip
	case "defer":
		policy = reactive.PolicyDefer
	default:
		return fmt.Errorf("unknown policy %q", cmd.String(policyKey))
	}

	e := reactive.NewEngine(reactive.WithPolicy(policy))

	const scope = "dslcheck"
	e.InitScope(scope, cmd.String(stateKey))
	if !e.HasScope(scope) {
		return fmt.Errorf("--%s must be a JSON object", stateKey)
	}

	tbl := tablewriter.NewWriter(os.Stdout)
	tbl.SetHeader([]string{"expression", "value"})
	for _, source := range cmd.Args().Slice() {
		tbl.Append([]string{source, renderValue(e.Evaluate(source, scope, nil))})
	}
	tbl.Render()

	final, err := json.MarshalIndent(e.GetState(scope), "", "  ")
	if err != nil {
		return err
	}
	fmt.Printf("final state:\n%s\n", final)
	return nil
}

func renderValue(v any) string {
	rendered, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(rendered)
}
