package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/palmrunner/palmrunner/internal/eventqueue"
	"github.com/palmrunner/palmrunner/internal/executor"
	"github.com/palmrunner/palmrunner/internal/jvmbridge"
	glog "github.com/palmrunner/palmrunner/internal/log"
	"github.com/palmrunner/palmrunner/internal/manifest"
	"github.com/palmrunner/palmrunner/internal/platform"
	"github.com/palmrunner/palmrunner/internal/stubs"
	"github.com/palmrunner/palmrunner/internal/ui/colorize"
)

var (
	verbose bool
	tui     bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "palmrunner",
		Short: "Run a packaged feature-phone application under emulation",
		Long: `palmrunner runs a WIPI/MSP application packaged as a manifest plus
resources and an optional native library, the same way a KTF-era handset's
runtime would: a cooperative task executor drives the guest's Java classes,
an ARM core backs any native calls those classes make, and an lcdui
implementation paints what the guest draws.

Examples:
  palmrunner run app.yaml              # run headless, print guest stdout and exit code
  palmrunner run app.yaml --tui        # run in a terminal framebuffer view
  palmrunner info app.yaml             # show manifest and registered stubs`,
		DisableFlagsInUseLine: true,
	}

	runCmd := &cobra.Command{
		Use:   "run <manifest.yaml>",
		Short: "Boot a manifest and run its entry class to completion",
		Args:  cobra.ExactArgs(1),
		RunE:  runApp,
	}
	runCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "verbose debug output")
	runCmd.Flags().BoolVar(&tui, "tui", false, "render the guest framebuffer in a terminal UI")
	rootCmd.AddCommand(runCmd)

	infoCmd := &cobra.Command{
		Use:   "info <manifest.yaml>",
		Short: "Show manifest contents and registered stub/class counts",
		Args:  cobra.ExactArgs(1),
		RunE:  showInfo,
	}
	rootCmd.AddCommand(infoCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func printHeader(path string, m *manifest.Manifest) {
	fmt.Printf("%s palmrunner ─ feature-phone application runner\n", colorize.Header("▶"))
	fmt.Printf("  %s %s\n", colorize.Detail("Manifest:"), path)
	fmt.Printf("  %s %s  %s %dx%d\n",
		colorize.Detail("Entry class:"), colorize.FuncName(m.EntryClass),
		colorize.Detail("Screen:"), m.ScreenWidth, m.ScreenHeight)
	if m.Native != nil {
		fmt.Printf("  %s %s %s %s\n",
			colorize.Detail("Native library:"), m.Native.File,
			colorize.Detail("base"), colorize.Address(uint64(m.Native.Base)))
	}
}

func printStats(exitCode int, err error) {
	fmt.Print(colorize.Border("───────────────────────────────────────── "))
	fmt.Printf("%s %s\n", colorize.Detail("exit code:"), colorize.FuncName(fmt.Sprintf("%d", exitCode)))
	if err != nil {
		fmt.Printf("  %s\n", colorize.Error(err.Error()))
	}
}

// runGuest spawns the entry class's startApp lifecycle method as the
// session's one root task. It does not tick the Executor; the caller decides
// how that happens (straight through for headless,
// one tick per terminal frame for --tui).
func runGuest(s *session) {
	s.Exec.Spawn(func(task *executor.TaskContext) (uint32, error) {
		ctx := s.Context(task)
		handle, err := ctx.NewClass(s.Manifest.EntryClass, "()V", nil)
		if err != nil {
			return 1, err
		}
		if _, err := ctx.InvokeVirtual(handle, "startApp", "()V", nil); err != nil {
			return 1, err
		}
		return 0, nil
	})
}

func runApp(cmd *cobra.Command, args []string) error {
	glog.Init(verbose)

	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}
	printHeader(args[0], m)

	events := eventqueue.New()

	if tui {
		return runTUI(m, events)
	}
	return runHeadless(m, events)
}

func runHeadless(m *manifest.Manifest, events *eventqueue.Queue) error {
	plat := platform.NewHeadlessPlatform(os.Stdout, m.ScreenWidth, m.ScreenHeight)
	s, err := newSession(m, plat, events)
	if err != nil {
		return err
	}
	defer s.Close()

	runGuest(s)

	var runErr error
	for s.Exec.Pending() > 0 {
		if err := s.Exec.Tick(); err != nil {
			runErr = err
			break
		}
		if code, ok := plat.ExitCode(); ok {
			printStats(code, runErr)
			return runErr
		}
	}
	if runErr == nil {
		runErr = s.Exec.Poisoned()
	}

	code, _ := plat.ExitCode()
	printStats(code, runErr)
	return runErr
}

func runTUI(m *manifest.Manifest, events *eventqueue.Queue) error {
	plat := platform.NewTUIPlatform(events, m.ScreenWidth, m.ScreenHeight)
	s, err := newSession(m, plat, events)
	if err != nil {
		return err
	}
	defer s.Close()

	runGuest(s)

	var runErr error
	var exitCode int
	plat.OnExit(func(code int) { exitCode = code })
	plat.OnTick(func() {
		if s.Exec.Pending() == 0 {
			plat.Exit(0)
			return
		}
		if err := s.Exec.Tick(); err != nil {
			runErr = err
			plat.Exit(1)
		}
	})

	if err := plat.Run(); err != nil {
		return err
	}

	printStats(exitCode, runErr)
	return runErr
}

func showInfo(cmd *cobra.Command, args []string) error {
	glog.Init(false)

	m, err := manifest.Load(args[0])
	if err != nil {
		return err
	}
	printHeader(args[0], m)

	events := eventqueue.New()
	plat := platform.NewHeadlessPlatform(os.Stdout, m.ScreenWidth, m.ScreenHeight)
	s, err := newSession(m, plat, events)
	if err != nil {
		return err
	}
	defer s.Close()

	fmt.Printf("  %s %s\n", colorize.Detail("Resources:"), colorize.FuncName(fmt.Sprintf("%d", len(m.Resources))))
	fmt.Printf("  %s %s\n", colorize.Detail("Registered stubs:"), colorize.FuncName(fmt.Sprintf("%d", stubs.DefaultRegistry.Count())))
	fmt.Printf("  %s %s\n", colorize.Detail("Installed stubs:"), colorize.FuncName(fmt.Sprintf("%d", s.StubsInstalled)))
	fmt.Printf("  %s %s runtime / %s device classes\n", colorize.Detail("Classes registered:"),
		colorize.FuncName(fmt.Sprintf("%d", s.Registry.Count(jvmbridge.RtRustjar))),
		colorize.FuncName(fmt.Sprintf("%d", s.Registry.Count(jvmbridge.WieRustjar))))
	return nil
}
