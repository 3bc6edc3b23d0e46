// render.go implements the "resume-ssh render" command that prints a résumé
// section locally, the same way an SSH client would see it.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/gupta-akshay/portfolio-v2-sub000/internal/render"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/resume"
	"github.com/gupta-akshay/portfolio-v2-sub000/internal/shell"
)

var renderCmd = &cobra.Command{
	Use:   "render [command]",
	Short: "Print a résumé section without starting the server",
	Long: `Run one shell command (default "resume") against the configured
résumé and print the result. Useful for checking a résumé file before
serving it.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRender,
}

var (
	widthFlag        int
	plainFlag        bool
	renderResumeFlag string
)

func init() {
	renderCmd.Flags().IntVarP(&widthFlag, "width", "w", 0, "Terminal width to render for (default: current terminal or 80)")
	renderCmd.Flags().StringVar(&renderResumeFlag, "resume", "", "Path to a résumé YAML file (default: built-in)")
	renderCmd.Flags().BoolVar(&plainFlag, "plain", false, "Disable colour")
}

func runRender(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	path := cfg.Resume.Path
	if cmd.Flags().Changed("resume") {
		path = renderResumeFlag
	}
	res, err := resume.Load(path)
	if err != nil {
		return err
	}

	name := "resume"
	if len(args) > 0 {
		name = args[0]
	}

	out := cmd.OutOrStdout()
	tty := isTerminal(out)
	width := widthFlag
	if width <= 0 && tty {
		width, _, _ = term.GetSize(int(out.(*os.File).Fd()))
	}
	profile := termenv.Ascii
	if tty && !plainFlag {
		profile = render.ProfileForTerm(os.Getenv("TERM"), os.Getenv("COLORTERM"))
	}
	return renderCommand(out, res, name, width, profile)
}

// renderCommand runs name the way an exec request would and reports an
// unknown or failing command as an error.
func renderCommand(w io.Writer, res *resume.Resume, name string, width int, profile termenv.Profile) error {
	sess := shell.New(w, nil, res, shell.DefaultRegistry(), shell.Options{
		Width:    width,
		Renderer: render.New(profile),
	})
	if code := sess.Exec(name); code != 0 {
		return fmt.Errorf("render %q: exit status %d", name, code)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
