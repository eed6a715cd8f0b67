package cmd

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/aiqa/internal/assistant"
	"github.com/ziadkadry99/aiqa/internal/bots"
	"github.com/ziadkadry99/aiqa/internal/config"
	"github.com/ziadkadry99/aiqa/internal/db"
	"github.com/ziadkadry99/aiqa/internal/history"
	"github.com/ziadkadry99/aiqa/internal/onebot"
	"github.com/ziadkadry99/aiqa/internal/render"
	"github.com/ziadkadry99/aiqa/internal/server"
	"github.com/ziadkadry99/aiqa/internal/theme"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to the OneBot host and start answering questions",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		path := configPath()
		cfg, loadErr := config.Load(path)
		if loadErr != nil {
			log.Printf("aiqa: failed to load config: %v", loadErr)
			cfg = config.DefaultConfig()
		} else if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := cfg.Save(path); err != nil {
				log.Printf("aiqa: writing default config: %v", err)
			} else {
				log.Printf("aiqa: wrote default config to %s", path)
			}
		}

		client, err := onebot.Dial(ctx, cfg.OneBotURL, cfg.AccessToken)
		if err != nil {
			return fmt.Errorf("connecting to OneBot: %w", err)
		}
		defer client.Close()

		if loadErr != nil {
			notifyAdmin(ctx, client, cfg, "aiqa: Failed to load config")
			return loadErr
		}
		if err := cfg.Validate(); err != nil {
			log.Printf("aiqa: %v", err)
			if errors.Is(err, config.ErrNotConfigured) {
				notifyAdmin(ctx, client, cfg, fmt.Sprintf("aiqa 还没有配置，请在 %s 中配置 apikey、base_url 和 model_name 后重启", path))
			} else {
				notifyAdmin(ctx, client, cfg, "aiqa: invalid config: "+err.Error())
			}
			return err
		}

		var store *history.Store
		if cfg.History {
			database, err := db.Open(filepath.Join(cfg.DataDir, db.FileName))
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer database.Close()
			store = history.NewStore(database)
		}

		provider, err := createLLMProviderFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating LLM provider: %w", err)
		}
		asst := assistant.New(provider, cfg.ModelName)

		session, err := newSession(cfg)
		if err != nil {
			log.Printf("aiqa: %v", err)
			notifyAdmin(ctx, client, cfg, "aiqa: "+err.Error())
			return err
		}
		defer session.Close()

		clock := theme.New(time.Now())
		pipeline := render.NewPipeline(newAssembler(cfg), clock, session, cfg.DataDir)

		var slot bots.ServerSlot
		bots.ProbeServerType(ctx, client, &slot)

		sched := cron.New()
		if err := clock.Schedule(sched); err != nil {
			return fmt.Errorf("scheduling theme switch: %w", err)
		}
		sched.Start()
		defer sched.Stop()

		opts := []bots.ProcessorOption{bots.WithVerbose(verbose)}
		if store != nil {
			opts = append(opts, bots.WithRecorder(store))
		}
		proc := bots.NewProcessor(cfg.CmdRune(), bots.NewOneBotHost(client), asst, pipeline, &slot, opts...)
		gateway := bots.NewGateway(proc)

		if cfg.StatusAddr != "" {
			srv := server.New(server.Config{Addr: cfg.StatusAddr, AllowAll: cfg.StatusAllowAll}, server.Deps{
				Themes:  clock,
				Bot:     proc,
				Browser: session,
				History: store,
			})
			go func() {
				if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Printf("aiqa: status server: %v", err)
				}
			}()
			defer func() {
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				srv.Shutdown(shutdownCtx)
			}()
		}

		log.Printf("aiqa: ready (model %s, cmd %q, theme %s, server %s)",
			cfg.ModelName, cfg.Cmd, clock.Current(), slot.Get())

		err = client.Run(ctx, gateway.HandleEvent)
		if errors.Is(err, context.Canceled) {
			log.Printf("aiqa: shutting down")
			return nil
		}
		return err
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
