package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"

	"github.com/Jacobbrewer1/discordgo"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/dataaccess"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/logging"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/permsync"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/request"
	"github.com/nusenusewhen-bot/Roblox-trading-core/pkg/ticketing"
)

const (
	// PathMetrics is the path for metrics.
	PathMetrics = "/metrics"

	// PathHealth is the path for the health check.
	PathHealth = "/health"
)

// IApp is the interface for the application.
type IApp interface {
	// Log returns the application logger.
	Log() *slog.Logger

	// Session returns the discord session.
	Session() *discordgo.Session

	// Engine returns the ticket lifecycle engine.
	Engine() *ticketing.Engine

	// SettingsDal returns the settings data access layer.
	SettingsDal() dataaccess.SettingsDal
}

type App struct {
	// l is the logger.
	l *slog.Logger

	// r is the router for the application.
	r *mux.Router

	// svr is the server for the application.
	svr *http.Server

	// s is the discord session.
	s *discordgo.Session

	// engine is the ticket lifecycle engine.
	engine *ticketing.Engine

	// settingsDal is the settings data access layer.
	settingsDal dataaccess.SettingsDal

	// eventNotifier is the channel for notifying of events.
	eventNotifier chan any

	// registeredCommands is the commands created per guild, kept for
	// unregistering on shutdown.
	registeredCommands map[string][]*discordgo.ApplicationCommand
}

// NewApp creates a new instance of App.
func NewApp(l *slog.Logger, r *mux.Router) *App {
	return &App{
		l: l,
		r: r,
	}
}

func (a *App) Run() error {
	// Register bot.
	if err := a.RegisterBot(); err != nil {
		return fmt.Errorf("error registering bot: %w", err)
	}

	a.s.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		a.l.Info(fmt.Sprintf("Logged in as %s#%s", r.User.Username, r.User.Discriminator))
	})

	a.buildEngine()

	// Register slash commands.
	if err := a.registerSlashCommands(); err != nil {
		return fmt.Errorf("error registering slash commands: %w", err)
	}

	if err := a.RegisterDiscordHandlers(); err != nil {
		return fmt.Errorf("error registering discord handlers: %w", err)
	}

	// Start event listener.
	go a.eventListener()

	// Open websocket.
	if err := a.s.Open(); err != nil {
		return fmt.Errorf("error opening connection to Discord: %w", err)
	}

	a.l.Info("Bot is now running.")

	a.generateServer()
	a.setupRoutes()
	a.runServer()

	// Register listener for shutdown signal.
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt)

	// Process shutdown signal.
	for sig := range c {
		a.l.Info("Received shutdown signal", slog.String("signal", sig.String()))
		if err := a.ShutdownHook(); err != nil {
			a.l.Error("Error shutting down application", slog.String(logging.KeyError, err.Error()))
		}
		os.Exit(0)
	}
	return nil
}

func (a *App) ShutdownHook() error {
	// Reset the total number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	// Unregister slash commands.
	if err := a.unregisterSlashCommands(); err != nil {
		return fmt.Errorf("error unregistering slash commands: %w", err)
	}

	// Close the connection to Discord.
	if err := a.s.Close(); err != nil {
		return fmt.Errorf("error closing connection to Discord: %w", err)
	}
	return nil
}

func (a *App) RegisterBot() error {
	// Default the number of guilds to 0.
	TotalDiscordGuilds.Set(0)

	dg, err := discordgo.New("Bot " + BotToken)
	if err != nil {
		return fmt.Errorf("error creating Discord session: %w", err)
	}

	dg.Identify.Intents = discordgo.MakeIntent(discordgo.IntentsAll)

	if a.eventNotifier == nil {
		// Create event notifier. This is used to runServer events. It is buffered to prevent blocking.
		a.eventNotifier = make(chan any, 100)
	}

	dg.SetEventNotifier(a.eventNotifier)

	a.s = dg
	return nil
}

// buildEngine wires the lifecycle engine to the session and the data access
// layers. Requires the session and the Mongo connection to exist.
func (a *App) buildEngine() {
	a.settingsDal = dataaccess.NewSettingsDal()

	a.engine = ticketing.New(ticketing.Config{
		Log:          a.l,
		Settings:     a.settingsDal,
		Tickets:      dataaccess.NewTicketDal(),
		Participants: dataaccess.NewParticipantDal(),
		Channels:     &sessionChannels{a: a},
		Perms:        permsync.New(&sessionEditor{a: a}, a.l),
		Capabilities: &capabilityChecker{a: a},
		Directory:    &sessionDirectory{a: a},
		Notifier:     &notifier{a: a},
	})
}

func (a *App) runServer() {
	go func() {
		slog.Info("Starting monitoring server")
		if err := a.svr.ListenAndServe(); err != nil {
			a.l.Error("Error starting monitoring server", slog.String(logging.KeyError, err.Error()))
			a.l.Warn("Monitoring server will not be available")
		}
	}()
}

func (a *App) setupRoutes() {
	// PathMetrics is the path for metrics.
	a.r.HandleFunc(PathMetrics, promhttp.Handler().ServeHTTP).Methods(http.MethodGet)

	// PathHealth is the path for health check.
	a.r.HandleFunc(PathHealth, middlewareHttp(a.healthCheck(), a)).Methods(http.MethodGet)

	// NotFoundHandler is the handler for 404.
	a.r.NotFoundHandler = request.NotFoundHandler(a.l)

	// MethodNotAllowedHandler is the handler for 405.
	a.r.MethodNotAllowedHandler = request.MethodNotAllowedHandler(a.l)
}

func (a *App) generateServer() {
	a.svr = &http.Server{
		Addr:    ":" + MonitoringPort,
		Handler: a.r,
	}
}

func (a *App) GetJoinedGuilds() ([]*discordgo.UserGuild, error) {
	guilds, err := a.s.UserGuilds(0, "", "")
	if err != nil {
		return nil, fmt.Errorf("error getting guilds: %w", err)
	}
	return guilds, nil
}

func (a *App) RegisterDiscordHandlers() error {
	// Bot joined guild.
	a.s.AddHandler(guildJoinedHandler(a))

	// Bot left guild.
	a.s.AddHandler(guildLeaveHandler(a))

	// Interaction create handler.
	a.s.AddHandler(interactionHandler(a,
		// Slash Controllers
		map[string]commandProcessor{
			MiddlemanCmdName:       middlemanCmdHandler,
			StaffRoleCmdName:       staffRoleCmdHandler,
			LogChannelCmdName:      logChannelCmdHandler,
			MainCategoryCmdName:    mainCategoryCmdHandler,
			SupportCategoryCmdName: supportCategoryCmdHandler,
			MainPanelCmdName:       mainPanelCmdHandler,
			SupportPanelCmdName:    supportPanelCmdHandler,
			TosCmdName:             tosCmdHandler,
			FaqCmdName:             faqCmdHandler,
		},
		// Button Controllers
		map[string]commandProcessor{
			RequestMiddlemanButtonID: requestMiddlemanHandler,
			RequestSupportButtonID:   requestSupportHandler,
			RequestReportButtonID:    requestReportHandler,
			ClaimTicketButtonID:      claimTicketHandler,
			UnclaimTicketButtonID:    unclaimTicketHandler,
			CloseTicketButtonID:      closeTicketHandler,
			AddUserButtonID:          addUserButtonHandler,
		},
		// Modal Controllers
		map[string]commandProcessor{
			MiddlemanModalID: middlemanModalHandler,
			SupportModalID:   supportModalHandler,
			ReportModalID:    reportModalHandler,
			AddUserModalID:   addUserModalHandler,
		}))

	// Dot-prefixed text commands.
	a.s.AddHandler(messageCommandHandler(a))

	return nil
}

func (a *App) eventListener() {
	for e := range a.eventNotifier {
		switch t := e.(type) {
		case *discordgo.Event:
			if t.Type != "" {
				TotalDiscordEvents.WithLabelValues(t.Type).Inc()
			} else {
				// If there is no type, then use the operation name.
				TotalDiscordEvents.WithLabelValues(strings.ToUpper(t.Operation.String())).Inc()
			}
		default:
			a.l.Error("Unknown event type", slog.String("type", fmt.Sprintf("%T", e)))
			TotalDiscordEvents.WithLabelValues("UNKNOWN").Inc()
		}
	}
}

func (a *App) registerSlashCommands() error {
	// Get all guilds the bot is in.
	guilds, err := a.GetJoinedGuilds()
	if err != nil {
		return fmt.Errorf("error getting guilds: %w", err)
	}

	a.registeredCommands = make(map[string][]*discordgo.ApplicationCommand)

	// Register slash commands for each guild.
	for _, g := range guilds {
		for _, cmd := range slashCommands {
			created, err := a.Session().ApplicationCommandCreate(ApplicationId, g.ID, cmd)
			if err != nil {
				return fmt.Errorf("error creating %s command for guild %s: %w", cmd.Name, g.ID, err)
			}
			a.registeredCommands[g.ID] = append(a.registeredCommands[g.ID], created)
		}
	}
	return nil
}

func (a *App) unregisterSlashCommands() error {
	for guildID, cmds := range a.registeredCommands {
		for _, cmd := range cmds {
			if err := a.s.ApplicationCommandDelete(ApplicationId, guildID, cmd.ID); err != nil {
				return fmt.Errorf("error deleting %s command for guild %s: %w", cmd.Name, guildID, err)
			}
		}
	}
	return nil
}

func (a *App) Log() *slog.Logger {
	return a.l
}

func (a *App) Session() *discordgo.Session {
	return a.s
}

func (a *App) Engine() *ticketing.Engine {
	return a.engine
}

func (a *App) SettingsDal() dataaccess.SettingsDal {
	return a.settingsDal
}
