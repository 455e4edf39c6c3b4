package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	webdriver "github.com/SeleniumHQ/selenium-sub047"
)

// locators maps --by values to locator constructors.
var locators = map[string]func(string) webdriver.By{
	"id":           webdriver.ByID,
	"name":         webdriver.ByName,
	"class":        webdriver.ByClassName,
	"css":          webdriver.ByCSSSelector,
	"link":         webdriver.ByLinkText,
	"partial-link": webdriver.ByPartialLinkText,
	"tag":          webdriver.ByTagName,
	"xpath":        webdriver.ByXPath,
}

// withSession runs fn against the recorded session id.
func (a *app) withSession(cmd *cobra.Command, id string, fn func(context.Context, *webdriver.RemoteWebDriver) error) error {
	ctx, cancel := a.commandContext(cmd)
	defer cancel()
	wd, done, err := a.attach(ctx, id)
	if err != nil {
		return err
	}
	defer done()
	return fn(ctx, wd)
}

// stringCmd builds a command printing one string property of the page.
func stringCmd(a *app, use, short string, get func(*webdriver.RemoteWebDriver, context.Context) (string, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <session-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(ctx context.Context, wd *webdriver.RemoteWebDriver) error {
				s, err := get(wd, ctx)
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), s)
				return nil
			})
		},
	}
}

func newPageCmds(a *app) []*cobra.Command {
	open := &cobra.Command{
		Use:   "open <session-id> <url>",
		Short: "Load a URL in the session's browser",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(ctx context.Context, wd *webdriver.RemoteWebDriver) error {
				return wd.Get(ctx, args[1])
			})
		},
	}
	return []*cobra.Command{
		open,
		stringCmd(a, "url", "Print the current URL", (*webdriver.RemoteWebDriver).CurrentURL),
		stringCmd(a, "title", "Print the page title", (*webdriver.RemoteWebDriver).Title),
		stringCmd(a, "source", "Print the page source", (*webdriver.RemoteWebDriver).PageSource),
		newFindCmd(a),
		newScreenshotCmd(a),
	}
}

func newFindCmd(a *app) *cobra.Command {
	var by, value string
	cmd := &cobra.Command{
		Use:   "find <session-id>",
		Short: "Print the ids of the elements matching a locator",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			locator, ok := locators[by]
			if !ok {
				return fmt.Errorf("unknown locator %q", by)
			}
			return a.withSession(cmd, args[0], func(ctx context.Context, wd *webdriver.RemoteWebDriver) error {
				els, err := wd.FindElements(ctx, locator(value))
				if err != nil {
					return err
				}
				for _, el := range els {
					fmt.Fprintln(cmd.OutOrStdout(), el.ID())
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&by, "by", "css", "locator strategy: id, name, class, css, link, partial-link, tag or xpath")
	cmd.Flags().StringVar(&value, "value", "", "locator value")
	_ = cmd.MarkFlagRequired("value")
	return cmd
}

func newScreenshotCmd(a *app) *cobra.Command {
	var out string
	cmd := &cobra.Command{
		Use:   "screenshot <session-id>",
		Short: "Save a PNG screenshot of the current page",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withSession(cmd, args[0], func(ctx context.Context, wd *webdriver.RemoteWebDriver) error {
				png, err := wd.Screenshot(ctx)
				if err != nil {
					return err
				}
				return os.WriteFile(out, png, 0o644)
			})
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "screenshot.png", "output file")
	return cmd
}
