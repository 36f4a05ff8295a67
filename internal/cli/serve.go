package cli

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/genoeg/kotori/internal/agent"
	"github.com/genoeg/kotori/internal/calendar"
	"github.com/genoeg/kotori/internal/config"
	"github.com/genoeg/kotori/internal/gateway"
	"github.com/genoeg/kotori/internal/line"
	"github.com/genoeg/kotori/internal/llm"
	"github.com/genoeg/kotori/internal/logging"
	"github.com/genoeg/kotori/internal/store"
)

func newServeCmd() *cobra.Command {
	var (
		port int
		bind string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the webhook server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(paths.Config)
			if err != nil {
				return err
			}

			if port != 0 {
				cfg.Server.Port = port
			}
			if bind != "" {
				cfg.Server.Bind = bind
			}

			issues := config.Validate(&cfg)
			if len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			log = logging.NewStyled(cfg.Logging.Level, cfg.Logging.ConsoleStyle)

			if err := paths.EnsureDirs(); err != nil {
				return fmt.Errorf("creating data directories: %w", err)
			}

			db, err := store.Open(paths.DB, log)
			if err != nil {
				return fmt.Errorf("opening database: %w", err)
			}
			defer db.Close()

			turns := store.NewTurnStore(db)
			logs := store.NewLogStore(db)
			creds := store.NewCredentialStore(db)

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			llmClient := llm.NewOpenAIClient(
				cfg.OpenAI.APIKey,
				cfg.OpenAI.Model,
				time.Duration(cfg.OpenAI.TimeoutSeconds)*time.Second,
			)

			oauthConf := calendar.OAuthConfig(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL)

			// The calendar backend depends on a linked account. Without one,
			// tools stay registered but report the missing link.
			var cal calendar.Service = calendar.Unavailable{}
			if cfg.Google.ClientID != "" {
				token, err := creds.RefreshToken("google")
				switch {
				case err == nil:
					cal, err = calendar.NewGoogleService(ctx, oauthConf, token, cfg.Google.CalendarID)
					if err != nil {
						return fmt.Errorf("connecting calendar: %w", err)
					}
					log.Info().Msg("google calendar connected")
				case errors.Is(err, store.ErrNoCredential):
					log.Warn().Msg("google calendar not linked yet, visit /auth/google/start")
				default:
					return fmt.Errorf("loading calendar credential: %w", err)
				}
			} else {
				log.Warn().Msg("google oauth not configured, calendar tools disabled")
			}

			tools := agent.NewRegistry()
			tools.Register(&agent.AddToCalendarTool{Calendar: cal})
			tools.Register(&agent.ListUpcomingEventsTool{Calendar: cal})
			tools.Register(&agent.SearchCalendarEventTool{Calendar: cal})
			tools.Register(&agent.DeleteCalendarEventTool{Calendar: cal})
			tools.Register(&agent.UpdateCalendarEventTool{Calendar: cal})
			tools.Register(&agent.SearchLogsTool{Logs: logs})

			runner := agent.NewRunner(
				agent.RunnerConfig{
					Model:         cfg.OpenAI.Model,
					MaxTokens:     cfg.OpenAI.MaxTokens,
					HistoryWindow: cfg.Conversation.HistoryWindow,
					ToolTimeout:   time.Duration(cfg.Conversation.ToolTimeoutSeconds) * time.Second,
				},
				llmClient,
				turns,
				tools,
				log,
			)

			srv := gateway.New(cfg, log,
				gateway.WithRunner(runner),
				gateway.WithReplier(line.NewClient(cfg.Line.ChannelAccessToken)),
				gateway.WithLogStore(logs),
				gateway.WithCredentialSaver(creds),
				gateway.WithLLMClient(llmClient),
				gateway.WithTools(tools),
				gateway.WithOAuthConfig(oauthConf),
			)

			return srv.Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override server port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback)")

	return cmd
}
