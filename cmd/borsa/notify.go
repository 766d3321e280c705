package main

import (
	"context"
	"flag"
	"fmt"

	"github.com/google/subcommands"

	"github.com/bobmcallan/borsa/internal/models"
)

// notifyCmd records which push-notification categories the user wants
type notifyCmd struct {
	prefs  models.NotificationPreferences
	status bool
}

func (*notifyCmd) Name() string     { return "notify" }
func (*notifyCmd) Synopsis() string { return "set push-notification preferences" }
func (*notifyCmd) Usage() string {
	return `borsa notify [-signals] [-alerts] [-news] | -status

  Saves the chosen categories for the user in the API token. Categories not
  given are turned off. With -status, reports whether push is enabled.
`
}

func (c *notifyCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.prefs.TradingSignals, "signals", false, "trading signal notifications")
	f.BoolVar(&c.prefs.PriceAlerts, "alerts", false, "price alert notifications")
	f.BoolVar(&c.prefs.News, "news", false, "news notifications")
	f.BoolVar(&c.status, "status", false, "show whether push notifications are enabled")
}

func (c *notifyCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	a, err := openApp()
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer a.Close()

	if !a.PushClient.Enabled() {
		fmt.Fprintln(stdout, "Push notifications are not configured")
		return subcommands.ExitSuccess
	}

	if c.status {
		state := "disabled"
		if a.NotificationsEnabled(ctx) {
			state = "enabled"
		}
		fmt.Fprintf(stdout, "Push notifications %s\n", state)
		return subcommands.ExitSuccess
	}

	if err := a.SaveNotificationPreferences(ctx, c.prefs); err != nil {
		return fail(err, "Failed to save notification preferences")
	}
	fmt.Fprintf(stdout, "Notification preferences saved (signals=%t alerts=%t news=%t)\n",
		c.prefs.TradingSignals, c.prefs.PriceAlerts, c.prefs.News)
	return subcommands.ExitSuccess
}
