package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/EgorLis/Shieldbot/internal/config"
	"github.com/EgorLis/Shieldbot/internal/events"
	"github.com/EgorLis/Shieldbot/internal/logging"
	"github.com/EgorLis/Shieldbot/internal/opsserver"
	"github.com/EgorLis/Shieldbot/internal/stdbot"
	"github.com/EgorLis/Shieldbot/internal/store"
	"github.com/EgorLis/Shieldbot/internal/userbot"
)

func main() {
	root := &cobra.Command{
		Use:           "shieldbot",
		Short:         "Hybrid ShieldBot: два воркера вокруг MongoDB-моста",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return errors.New("укажи роль: shieldbot std|user")
		},
	}
	root.AddCommand(
		&cobra.Command{
			Use:   "std",
			Short: "админ/релей-бот (команды владельца, зеркалирование в группу)",
			RunE:  func(cmd *cobra.Command, args []string) error { return run("std") },
		},
		&cobra.Command{
			Use:   "user",
			Short: "бот-отправитель (приём личек, защищённые отправки)",
			RunE:  func(cmd *cobra.Command, args []string) error { return run("user") },
		},
	)
	if err := root.Execute(); err != nil {
		// логгер к этому моменту может быть не инициализирован
		os.Stderr.WriteString("shieldbot: " + err.Error() + "\n")
		os.Exit(1)
	}
}

func run(role string) error {
	logging.Initialize(false)
	defer logging.Logger.Sync()
	log := logging.Logger

	cfg, err := config.Configure()
	if err != nil {
		return err
	}
	if err := cfg.Validate(role); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	st, err := store.Open(openCtx, cfg.MongoURI, cfg.MongoDB, log)
	cancel()
	if err != nil {
		return err
	}
	defer func() {
		c, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = st.Close(c)
	}()

	hub := events.NewHub()
	ops := opsserver.New(cfg.OpsAddr, role, st, hub, log)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ops.Run(gctx) })

	switch role {
	case "std":
		sb, err := stdbot.New(cfg.BotToken, cfg.OwnerID, st, hub, log)
		if err != nil {
			return err
		}
		g.Go(func() error { return sb.Run(gctx) })
	case "user":
		ub := userbot.New(st, hub, log)
		g.Go(func() error { return ub.Run(gctx) })
	}

	log.Infow("работаем… Ctrl+C для остановки", "role", role)
	return g.Wait()
}
