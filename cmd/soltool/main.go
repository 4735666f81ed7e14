package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/maloquacious/soltool/internal/config"
	"github.com/maloquacious/soltool/internal/itemtype"
	"github.com/maloquacious/soltool/internal/logger"
	"github.com/maloquacious/soltool/internal/session"
	"github.com/maloquacious/soltool/internal/store"
	"github.com/maloquacious/soltool/internal/store/sqlite"
	"github.com/maloquacious/soltool/internal/viewmodel"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string
	rootName string
	rootType string
	findName string

	cfg *config.Config
	log *logger.GologLogger
)

func main() {
	rootCmd := &cobra.Command{
		Use:               "soltool",
		Short:             "Save, load and inspect solution files",
		SilenceUsage:      true,
		PersistentPreRunE: setup,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.config/soltool/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn, error or disable")

	typesCmd := &cobra.Command{
		Use:   "types",
		Short: "List the registered item types",
		Args:  cobra.NoArgs,
		RunE:  runTypes,
	}

	newCmd := &cobra.Command{
		Use:   "new <path>",
		Short: "Create a solution holding a single root item",
		Args:  cobra.ExactArgs(1),
		RunE:  runNew,
	}
	newCmd.Flags().StringVar(&rootName, "name", "", "name of the root item (default from config)")
	newCmd.Flags().StringVar(&rootType, "type", itemtype.SolutionRoot.String(), "item type of the root item")

	showCmd := &cobra.Command{
		Use:   "show <path>",
		Short: "Load a solution and print its tree",
		Args:  cobra.ExactArgs(1),
		RunE:  runShow,
	}
	showCmd.Flags().StringVar(&findName, "find", "", "print only the subtree of the first item with this name")

	verifyCmd := &cobra.Command{
		Use:   "verify <path>",
		Short: "Check a solution file against the item type registry",
		Args:  cobra.ExactArgs(1),
		RunE:  runVerify,
	}

	convertCmd := &cobra.Command{
		Use:   "convert <src> <dst>",
		Short: "Load a solution and save it under another path or format",
		Args:  cobra.ExactArgs(2),
		RunE:  runConvert,
	}

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(store.Version.String())
		},
	}

	rootCmd.AddCommand(typesCmd, newCmd, showCmd, verifyCmd, convertCmd, versionCmd)

	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(cfgFile); err != nil {
		return err
	}
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if log, err = logger.New(os.Stderr, cfg.LogLevel); err != nil {
		return err
	}
	return nil
}

func newSession(sol *viewmodel.Solution, path string) *session.Session {
	sol.SetFileFilter(cfg.FileFilter)
	return session.New(sol, session.FixedPath(path), nil, session.Options{
		DocDir:      cfg.DocDir,
		DefaultName: cfg.DefaultName,
		Logger:      log,
	})
}

// check turns a failed result into a command error. The reporter has
// already logged the details.
func check(res session.Result) error {
	if res.Outcome == session.Failure {
		return errors.New(session.Message(res.Err))
	}
	return nil
}

func runTypes(cmd *cobra.Command, args []string) error {
	for _, e := range itemtype.Default.Entries() {
		fmt.Printf("%3d  %s\n", e.Code, e.Name)
	}
	return nil
}

func runNew(cmd *cobra.Command, args []string) error {
	name := rootName
	if name == "" {
		name = cfg.RootName
	}
	t, err := parseType(itemtype.Default, rootType)
	if err != nil {
		return err
	}
	sol := viewmodel.NewSolution()
	sol.AddRootItem(t, name)
	return check(<-newSession(sol, args[0]).Save(cmd.Context()))
}

func runShow(cmd *cobra.Command, args []string) error {
	sol := viewmodel.NewSolution()
	if err := check(<-newSession(sol, args[0]).Load(cmd.Context())); err != nil {
		return err
	}
	item := sol.GetRootItem()
	if findName != "" {
		if item = findByName(sol, findName); item == nil {
			return fmt.Errorf("%s: no item named %q", args[0], findName)
		}
	}
	printItem(os.Stdout, item, 0)
	return nil
}

func parseType(reg *itemtype.Registry, name string) (itemtype.Type, error) {
	t, ok := reg.Lookup(name)
	if !ok {
		return 0, fmt.Errorf("unknown item type %q (want one of %s)", name, strings.Join(reg.Names(), ", "))
	}
	return t, nil
}

// findByName returns the first item in pre-order named name.
func findByName(sol *viewmodel.Solution, name string) *viewmodel.Item {
	return sol.Find(func(i *viewmodel.Item) bool { return i.Name == name })
}

func printItem(w io.Writer, item *viewmodel.Item, depth int) {
	mark := "-"
	if len(item.Children()) > 0 {
		mark = "+"
		if item.IsItemExpanded {
			mark = "v"
		}
	}
	fmt.Fprintf(w, "%s%s %s [%s]\n", strings.Repeat("  ", depth), mark, item.Name, item.Type)
	for _, child := range item.Children() {
		printItem(w, child, depth+1)
	}
}

func runVerify(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx := cmd.Context()

	if store.FormatForPath(path) == store.FormatRelational {
		state, version, err := sqlite.NewStore(itemtype.Default, log).Inspect(ctx, path)
		if err != nil {
			return err
		}
		fmt.Printf("state:   %s\n", state)
		if version != "" {
			fmt.Printf("written: %s\n", version)
		}
		if state != store.StateReady {
			return fmt.Errorf("%s: not a usable solution file (%s)", path, state)
		}
	}

	res := newSession(viewmodel.NewSolution(), path).LoadFrom(ctx, path)
	if err := check(res); err != nil {
		return err
	}
	fmt.Printf("types:   %d\n", res.Counts.ItemTypes)
	fmt.Printf("items:   %d\n", res.Counts.Items)
	return nil
}

func runConvert(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	src, dst := args[0], args[1]
	if src == dst {
		return errors.New("source and destination are the same file")
	}

	s := newSession(viewmodel.NewSolution(), src)
	if err := check(s.LoadFrom(ctx, src)); err != nil {
		return err
	}
	log.Info("converting %s %q to %s %q", store.FormatForPath(src), src, store.FormatForPath(dst), dst)
	return check(s.SaveTo(ctx, dst))
}
