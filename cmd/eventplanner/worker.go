package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"eventplanner/config"
	"eventplanner/internal/notify"
)

func notifyWorkerCommand() *cli.Command {
	return &cli.Command{
		Name:  "notify-worker",
		Usage: "Consume invitation messages from RabbitMQ and send the emails.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "consumer-tag", Value: "eventplanner-notify", Usage: "AMQP consumer tag."},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := config.NewLogger(cfg)
			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			sender, err := newInvitationSender(cfg, logger)
			if err != nil {
				return err
			}
			top := topology(cfg)
			conn, ch, err := notify.Dial(cfg.RabbitURL, top)
			if err != nil {
				return err
			}
			defer conn.Close()
			defer ch.Close()

			deliveries, err := notify.Consume(ctx, ch, top.Queue, c.String("consumer-tag"), top.Prefetch)
			if err != nil {
				return err
			}
			logger.Info("notify worker consuming", "queue", top.Queue, "prefetch", top.Prefetch)
			if err := notify.NewConsumer(sender, logger).Run(ctx, deliveries); err != nil {
				return fmt.Errorf("notify worker on queue %s: %w", top.Queue, err)
			}
			logger.Info("notify worker stopped")
			return nil
		},
	}
}
