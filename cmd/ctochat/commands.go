package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/S4DIB/startup-world-cup/internal/blob"
	"github.com/S4DIB/startup-world-cup/internal/chatstore"
	"github.com/S4DIB/startup-world-cup/internal/client"
	"github.com/S4DIB/startup-world-cup/internal/config"
	"github.com/S4DIB/startup-world-cup/internal/logging"
)

type app struct {
	serverURL  string
	configPath string
	dataDir    string

	store   *chatstore.Store
	api     *client.Client
	closeFn func() error
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:          "ctochat",
		Short:        "Chat with the AI CTO from the terminal",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.closeFn != nil {
				return a.closeFn()
			}
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.serverURL, "server", envOr("AICTO_SERVER", "http://localhost:8090"), "base URL of the AI CTO server")
	flags.StringVar(&a.configPath, "config", os.Getenv(config.EnvConfigPath), "config file selecting the local session store")
	flags.StringVar(&a.dataDir, "data-dir", "", "override the data directory of the file store")

	root.AddCommand(
		a.newCmd(),
		a.listCmd(),
		a.showCmd(),
		a.sendCmd(),
		a.deleteCmd(),
		a.clearCmd(),
		a.exportCmd(),
		a.importCmd(),
		a.joinCmd(),
	)
	return root
}

func (a *app) open(cmd *cobra.Command) error {
	logging.SetupBaseLogger()
	log.SetOutput(cmd.ErrOrStderr())
	log.SetLevel(log.WarnLevel)

	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.dataDir != "" {
		cfg.BasicConfig.DataDir = a.dataDir
	}
	blobs, closeFn, err := blob.Open(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("open session store: %w", err)
	}
	a.store = chatstore.NewStore(blobs)
	a.api = client.New(a.serverURL, nil)
	a.closeFn = closeFn
	return nil
}

func (a *app) newCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Start a new chat session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			session, err := client.NewConversation(a.store, a.api).Start(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, session.ID)
			fmt.Fprintf(out, "agent: %s\n", client.Greeting)
			return nil
		},
	}
}

func (a *app) listCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored sessions, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, s := range a.store.ListSessions(cmd.Context()) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\t%s\n", s.ID, s.Title, s.UpdatedAt.Local().Format(time.DateTime))
			}
			return nil
		},
	}
}

func (a *app) showCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print a session transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			session, ok := a.store.GetSession(cmd.Context(), args[0])
			if !ok {
				return client.ErrSessionNotFound
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "# %s\n", session.Title)
			for _, msg := range session.Messages {
				fmt.Fprintf(out, "%s: %s\n", msg.Sender, msg.Content)
			}
			return nil
		},
	}
}

func (a *app) sendCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "send <session-id> <message...>",
		Short: "Send a message and print the reply",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			reply, err := client.NewConversation(a.store, a.api).Send(cmd.Context(), args[0], strings.Join(args[1:], " "))
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "agent: %s\n", reply.Content)
			return nil
		},
	}
}

func (a *app) deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.DeleteSession(cmd.Context(), args[0])
		},
	}
}

func (a *app) clearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Delete every session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.store.ClearSessions(cmd.Context())
		},
	}
}

func (a *app) exportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "export <session-id>",
		Short: "Print a session as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, ok := a.store.ExportSession(cmd.Context(), args[0])
			if !ok {
				return client.ErrSessionNotFound
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func (a *app) importCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Import a session exported with `export`",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				raw []byte
				err error
			)
			if args[0] == "-" {
				raw, err = io.ReadAll(cmd.InOrStdin())
			} else {
				raw, err = os.ReadFile(args[0])
			}
			if err != nil {
				return fmt.Errorf("read session: %w", err)
			}
			session, err := a.store.ImportSession(cmd.Context(), string(raw))
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), session.ID)
			return nil
		},
	}
}

func (a *app) joinCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "join <email>",
		Short: "Join the launch waitlist",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := a.api.JoinWaitlist(cmd.Context(), args[0])
			if err != nil {
				var apiErr *client.APIError
				if errors.As(err, &apiErr) && apiErr.Message != "" {
					return errors.New(apiErr.Message)
				}
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func envOr(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}
