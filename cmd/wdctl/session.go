package main

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	webdriver "github.com/SeleniumHQ/selenium-sub047"
	"github.com/SeleniumHQ/selenium-sub047/internal/sessionstore"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the remote end's build and OS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			ex, err := a.executor("")
			if err != nil {
				return err
			}
			defer ex.Close()
			status, err := webdriver.ServerStatus(ctx, ex)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "build %s (%s) on %s %s %s\n",
				status.Build.Version, status.Build.Revision,
				status.OS.Name, status.OS.Version, status.OS.Arch)
			return nil
		},
	}
}

func newSessionCmd(a *app) *cobra.Command {
	session := &cobra.Command{
		Use:   "session",
		Short: "Start, list and quit remote sessions",
	}
	session.AddCommand(newSessionStartCmd(a), newSessionListCmd(a), newSessionQuitCmd(a))
	return session
}

// browserCapabilities picks the preset for a browser name.
func browserCapabilities(name string) webdriver.Capabilities {
	switch strings.ToLower(name) {
	case "firefox":
		return webdriver.Firefox()
	case "chrome":
		return webdriver.Chrome()
	case "ie", "internet explorer":
		return webdriver.InternetExplorer()
	case "htmlunit":
		return webdriver.HTMLUnit()
	}
	return webdriver.Capabilities{BrowserName: name, Platform: webdriver.PlatformAny, JavascriptEnabled: true}
}

func capabilitiesMap(c webdriver.Capabilities) map[string]interface{} {
	m := make(map[string]interface{}, len(c.Extra)+4)
	for k, v := range c.Extra {
		m[k] = v
	}
	m["browserName"] = c.BrowserName
	m["version"] = c.Version
	m["platform"] = string(c.Platform)
	m["javascriptEnabled"] = c.JavascriptEnabled
	return m
}

func newSessionStartCmd(a *app) *cobra.Command {
	var browser string
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a session and print its id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			if browser == "" {
				browser = a.cfg.Browser
			}
			ex, err := a.executor("")
			if err != nil {
				return err
			}
			defer ex.Close()
			wd, err := webdriver.NewRemoteWebDriver(ctx, ex, browserCapabilities(browser))
			if err != nil {
				return err
			}
			rec := sessionstore.Record{
				ID:           string(wd.SessionID()),
				HubURL:       ex.URL(),
				Capabilities: capabilitiesMap(wd.Capabilities()),
			}
			if err := a.store.Save(ctx, rec); err != nil {
				// an unrecorded session could never be addressed again
				if qerr := wd.Quit(ctx); qerr != nil {
					a.logger.Warn("quitting unrecorded session", zap.String("session", rec.ID), zap.Error(qerr))
				}
				return err
			}
			a.logger.Debug("session started", zap.String("session", rec.ID), zap.String("browser", browser))
			fmt.Fprintln(cmd.OutOrStdout(), rec.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&browser, "browser", "", "browser name (default from config)")
	return cmd
}

func newSessionListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List recorded sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			ids, err := a.store.List(ctx)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, id := range ids {
				rec, err := a.store.Load(ctx, id)
				if errors.Is(err, sessionstore.ErrNotFound) {
					continue
				}
				if err != nil {
					return err
				}
				browser, _ := rec.Capabilities["browserName"].(string)
				fmt.Fprintf(out, "%s\t%s\t%s\t%s\n", rec.ID, browser, rec.HubURL, rec.CreatedAt.Format(time.RFC3339))
			}
			return nil
		},
	}
}

// attach returns a driver for a recorded session.
func (a *app) attach(ctx context.Context, id string) (*webdriver.RemoteWebDriver, func(), error) {
	rec, err := a.store.Load(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ex, err := a.executor(rec.HubURL)
	if err != nil {
		return nil, nil, err
	}
	v, err := webdriver.ValueOf(rec.Capabilities)
	if err != nil {
		ex.Close()
		return nil, nil, err
	}
	caps, err := webdriver.ParseCapabilities(v)
	if err != nil {
		ex.Close()
		return nil, nil, err
	}
	return webdriver.Attach(ex, webdriver.SessionID(rec.ID), caps), ex.Close, nil
}

// quit ends a recorded session and forgets it. The record goes even when the
// remote end fails, since the session is unusable either way.
func (a *app) quit(ctx context.Context, id string) error {
	wd, done, err := a.attach(ctx, id)
	if err != nil {
		return err
	}
	defer done()
	qerr := wd.Quit(ctx)
	if err := a.store.Delete(ctx, id); err != nil {
		return err
	}
	if qerr != nil {
		return fmt.Errorf("session %s: %w", id, qerr)
	}
	return nil
}

func newSessionQuitCmd(a *app) *cobra.Command {
	var all bool
	cmd := &cobra.Command{
		Use:   "quit [session-id]",
		Short: "Quit a session, or every recorded session with --all",
		Args: func(cmd *cobra.Command, args []string) error {
			if all {
				return cobra.NoArgs(cmd, args)
			}
			return cobra.ExactArgs(1)(cmd, args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			if !all {
				return a.quit(ctx, args[0])
			}
			ids, err := a.store.List(ctx)
			if err != nil {
				return err
			}
			eg, egCtx := errgroup.WithContext(ctx)
			eg.SetLimit(8)
			for _, id := range ids {
				eg.Go(func() error {
					if err := a.quit(egCtx, id); err != nil {
						a.logger.Warn("quit failed", zap.String("session", id), zap.Error(err))
						return err
					}
					return nil
				})
			}
			if err := eg.Wait(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "quit %d sessions\n", len(ids))
			return nil
		},
	}
	cmd.Flags().BoolVar(&all, "all", false, "quit every recorded session")
	return cmd
}
