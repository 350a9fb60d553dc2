package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/marmos91/depot/internal/logger"
	"github.com/marmos91/depot/pkg/config"
	"github.com/marmos91/depot/pkg/engine"
	"github.com/marmos91/depot/pkg/term"
)

const usage = `depot - content-addressed build engine

Usage:
  depot init [-force]                 write the starter config file
  depot add <path>                    import a file or tree into the store
  depot normalise <id>                rewrite a term to its slice
  depot realise <id>                  normalise and materialise a term
  depot show <id>                     print a stored term

Common flags (after the subcommand):
  -config <file>    configuration file to use
  -log-level <lvl>  DEBUG, INFO, WARN or ERROR
  -ephemeral        use an in-memory database
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	switch cmd {
	case "init":
		runInit(args)
	case "add", "normalise", "realise", "show":
		runEngineCommand(cmd, args)
	case "help", "-h", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
}

func runInit(args []string) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	force := fs.Bool("force", false, "Overwrite an existing config file")
	_ = fs.Parse(args)

	path, err := config.InitConfig(*force)
	if err != nil {
		log.Fatalf("Failed to write config: %v", err)
	}
	fmt.Println(path)
}

func runEngineCommand(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	configPath := fs.String("config", "", "Configuration file")
	logLevel := fs.String("log-level", "", "Log level (DEBUG, INFO, WARN, ERROR)")
	ephemeral := fs.Bool("ephemeral", false, "Use an in-memory database")
	_ = fs.Parse(args)

	if fs.NArg() != 1 {
		fmt.Fprintf(os.Stderr, "%s: exactly one argument expected\n", cmd)
		os.Exit(2)
	}
	arg := fs.Arg(0)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *logLevel != "" {
		cfg.Logging.Level = *logLevel
	}
	if *ephemeral {
		cfg.Database.Type = "memory"
	}
	logger.SetLevel(cfg.Logging.Level)
	switch cfg.Logging.Output {
	case "", "stderr":
		// default destination
	case "stdout":
		logger.SetOutput(os.Stdout)
	default:
		out, err := os.OpenFile(cfg.Logging.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			log.Fatalf("Failed to open log output: %v", err)
		}
		defer func() { _ = out.Close() }()
		logger.SetOutput(out)
	}

	ctx := context.Background()
	eng, err := config.CreateEngine(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to initialize engine: %v", err)
	}
	defer func() { _ = eng.DB.Close() }()

	if err := dispatch(ctx, eng, cmd, arg); err != nil {
		log.Fatalf("%s failed: %v", cmd, err)
	}
}

func dispatch(ctx context.Context, eng *engine.Engine, cmd, arg string) error {
	switch cmd {
	case "add":
		_, sliceID, err := eng.ImportPath(ctx, arg)
		if err != nil {
			return err
		}
		fmt.Println(sliceID)
		return nil

	case "normalise":
		id, err := term.ParseID(arg)
		if err != nil {
			return err
		}
		slice, err := eng.Normalise(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(slice.Term())
		return nil

	case "realise":
		id, err := term.ParseID(arg)
		if err != nil {
			return err
		}
		slice, err := eng.NormalisePath(ctx, id)
		if err != nil {
			return err
		}
		for _, root := range slice.Roots {
			if elem, ok := slice.FindElem(root); ok {
				fmt.Println(elem.Path)
			}
		}
		return nil

	case "show":
		id, err := term.ParseID(arg)
		if err != nil {
			return err
		}
		node, _, err := eng.TermFromID(ctx, id)
		if err != nil {
			return err
		}
		fmt.Println(node)
		return nil
	}
	return fmt.Errorf("unknown command %q", cmd)
}
