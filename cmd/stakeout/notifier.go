package main

import (
	"stakeout/internal/logging"
	"stakeout/internal/notify"
)

// buildSender turns the resolved notifier settings into a Sender.
// Errors here are startup errors: an explicitly requested backend that
// cannot work must fail loudly instead of degrading silently.
func buildSender(opts Options, logger *logging.Logger) (notify.Sender, error) {
	base, err := baseSender(opts, logger)
	if err != nil {
		return nil, err
	}
	// A webhook URL given alongside a desktop or log notifier fans out
	// to both. Mode "none" stays silent and mode "webhook" already
	// delivers there.
	if opts.WebhookURL != "" && opts.Notifier != "webhook" && opts.Notifier != "none" {
		webhook, err := notify.NewWebhookSender(opts.WebhookURL)
		if err != nil {
			return nil, startupErrf(exitCodeConfig, "%v", err)
		}
		return notify.MultiSender{Senders: []notify.Sender{base, webhook}}, nil
	}
	return base, nil
}

func baseSender(opts Options, logger *logging.Logger) (notify.Sender, error) {
	switch opts.Notifier {
	case "none":
		return notify.NoopSender{}, nil
	case "log":
		return notify.LogSender{Logger: logger}, nil
	case "command":
		sender, err := notify.NewCommandSender(opts.NotifyCmd)
		if err != nil {
			return nil, startupErrf(exitCodeConfig, "%v (install it or pick --notifier log)", err)
		}
		return sender, nil
	case "webhook":
		sender, err := notify.NewWebhookSender(opts.WebhookURL)
		if err != nil {
			return nil, startupErrf(exitCodeConfig, "%v", err)
		}
		return sender, nil
	default: // "auto", enforced by validation
		if sender, found := notify.DetectCommandSender(); found {
			logger.Debug("desktop notifier detected", map[string]string{"binary": sender.Binary()})
			return sender, nil
		}
		logger.Warn("no desktop notifier found, notifications disabled")
		return notify.NoopSender{}, nil
	}
}
