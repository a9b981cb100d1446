package main

import (
	"context"
	"flag"
	"fmt"
	"time"

	"github.com/wheblabs/whopctl/pkg/config"
)

func commandBilling(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("billing", flag.ExitOnError)
	fs.Parse(args)

	cfg := config.LoadCLIConfig()
	sess, err := requireSession()
	if err != nil {
		return err
	}
	client, err := newClient(cfg, sess.APIBaseURL)
	if err != nil {
		return err
	}

	reqCtx, cancel := context.WithTimeout(ctx, cfg.RequestTimeout)
	defer cancel()
	summary, err := client.Billing(reqCtx, sess.Token)
	if err != nil {
		return err
	}

	fmt.Printf("plan:\t%s\n", summary.Plan)
	if summary.DeploymentsLimit > 0 {
		fmt.Printf("deployments:\t%d/%d this cycle\n", summary.DeploymentsUsed, summary.DeploymentsLimit)
	} else {
		fmt.Printf("deployments:\t%d this cycle\n", summary.DeploymentsUsed)
	}
	if summary.RenewsAt != nil {
		fmt.Printf("renews:\t%s\n", summary.RenewsAt.Format(time.RFC3339))
	}
	return nil
}
