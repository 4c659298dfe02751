package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/consol-monitoring/check_file/pkg/checkfile"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// Execute parses the arguments, runs the check for the given mode and returns the exit code.
func Execute(ctx context.Context, mode checkfile.Mode, args []string, stdout io.Writer) int {
	flags := &checkfile.Flags{Changed: map[string]bool{}}
	exitCode := checkfile.ExitCodeUnknown

	rootCmd := newRootCmd(mode, flags, &exitCode)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stdout)
	rootCmd.SetArgs(sanitizeArgs(rootCmd, args))

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stdout, "UNKNOWN - %s\n", err.Error())
		fmt.Fprint(stdout, rootCmd.UsageString())

		return checkfile.ExitCodeUnknown
	}

	return exitCode
}

func newRootCmd(mode checkfile.Mode, flags *checkfile.Flags, exitCode *int) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   fmt.Sprintf("%s_%s [flags]", checkfile.NAME, mode),
		Short: short(mode),
		Long:  long(mode),
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if flags.Version {
				fmt.Fprintf(cmd.OutOrStdout(), "%s_%s v%s\n", checkfile.NAME, mode, checkfile.VERSION)

				return nil
			}

			cmd.Flags().Visit(func(f *pflag.Flag) {
				flags.Changed[f.Name] = true
			})

			closer := checkfile.CreateLogger(flags)
			defer closer()

			conf, err := checkfile.Resolve(mode, flags)
			switch {
			case errors.Is(err, checkfile.ErrArgumentSyntax):
				return err
			case err != nil:
				fmt.Fprintf(cmd.OutOrStdout(), "UNKNOWN - %s\n", err.Error())

				return nil
			}

			*exitCode = checkfile.NewCheck(conf, cmd.OutOrStdout()).Run(cmd.Context())

			return nil
		},
	}

	rootCmd.SilenceErrors = true
	rootCmd.SilenceUsage = true
	rootCmd.DisableAutoGenTag = true
	rootCmd.DisableSuggestions = true
	rootCmd.Flags().SortFlags = false

	addCommonFlags(rootCmd.Flags(), flags)
	switch mode {
	case checkfile.ModeNetwork:
		addNetworkFlags(rootCmd.Flags(), flags)
	case checkfile.ModePassive:
		addPassiveFlags(rootCmd.Flags(), flags)
	}

	return rootCmd
}

func addCommonFlags(fs *pflag.FlagSet, flags *checkfile.Flags) {
	fs.CountVarP(&flags.Verbose, "verbose", "v", "print diagnostics, -v means debug, -vv means trace")
	fs.IntVarP(&flags.Delay, "delay", "d", 0, "sleep given number of seconds before reading the file")
	fs.IntVarP(&flags.Timeout, "timeout", "t", checkfile.DefaultTimeout, "timeout in seconds for reading the file")
	fs.StringVarP(&flags.Warning, "warning", "w", "", "warning threshold range, ex.: 10, 10:, ~:10, 10:20, @10:20")
	fs.StringVarP(&flags.Critical, "critical", "c", "", "critical threshold range, same syntax as warning")
	fs.StringVarP(&flags.FilePath, "filepath", "f", "", "path to the file containing the value")
	fs.BoolVarP(&flags.Lenient, "lenient", "", false, "parse malformed ranges and values as 0 instead of failing")
	fs.StringVarP(&flags.ConfigFile, "config", "", "", "path to yaml file with default options")
	fs.StringVarP(&flags.EnvFile, "env-file", "", "", "path to env file with credentials (default is ./"+checkfile.DefaultEnvFile+" if present)")
	fs.StringVarP(&flags.LogFile, "logfile", "", "", "write diagnostics into rotated log file")
	fs.BoolVarP(&flags.Version, "version", "V", false, "print version and exit")
}

func addNetworkFlags(fs *pflag.FlagSet, flags *checkfile.Flags) {
	fs.StringVarP(&flags.Host, "uri", "u", "", "remote host (env "+checkfile.EnvHost+")")
	fs.StringVarP(&flags.Username, "logname", "l", "", "remote user (env "+checkfile.EnvLogname+")")
	fs.StringVarP(&flags.Password, "authentication", "a", "", "password or key passphrase (env "+checkfile.EnvAuthentication+")")
	fs.StringVarP(&flags.Identity, "identity", "i", "", "ssh private key file (env "+checkfile.EnvIdentity+")")
	fs.IntVarP(&flags.Port, "port", "p", 0, fmt.Sprintf("remote port (default %d, winrm %d or %d with https)",
		checkfile.DefaultSSHPort, checkfile.DefaultWinRMPort, checkfile.DefaultWinRMHTTPSPort))
	fs.StringVarP(&flags.Protocol, "protocol", "", "ssh", "remote protocol, one of: ssh, winrm")
	fs.StringVarP(&flags.KnownHosts, "known-hosts", "", "", "verify ssh host keys against this known_hosts file")
	fs.BoolVarP(&flags.HTTPS, "https", "", false, "use https for winrm")
	fs.BoolVarP(&flags.NoSSL, "no-ssl", "", false, "disable ssl certificate verification for winrm over https")
}

func addPassiveFlags(fs *pflag.FlagSet, flags *checkfile.Flags) {
	fs.StringVarP(&flags.Host, "url", "u", checkfile.DefaultURL, "monitoring api url, https is used without scheme (env "+checkfile.EnvHost+")")
	fs.StringVarP(&flags.Username, "logname", "l", "", "api account (env "+checkfile.EnvLogname+")")
	fs.StringVarP(&flags.Password, "authentication", "a", "", "api password (env "+checkfile.EnvAuthentication+")")
	fs.BoolVarP(&flags.NoSSL, "no-ssl", "", false, "disable ssl certificate verification")
	fs.StringVarP(&flags.HostName, "host-name", "n", "", "host name as known by the monitoring")
	fs.StringVarP(&flags.ServiceName, "service-name", "s", "", "service name, submits a host result if empty")
}

func short(mode checkfile.Mode) string {
	if mode == checkfile.ModePassive {
		return "Check a value from a local file and submit the result to the monitoring api."
	}

	return "Check a value from a file on a remote host."
}

func long(mode checkfile.Mode) string {
	text := short(mode) + `

The file must contain a single number which is compared against the
warning and critical threshold ranges. At least one range is required.

Ranges:
  10      alert if value is outside of 0 and 10
  10:     alert if value is below 10
  ~:10    alert if value is above 10
  10:20   alert if value is outside of 10 and 20
  @10:20  alert if value is inside of 10 and 20
`
	if mode == checkfile.ModePassive {
		text += `
The result is posted as host check result, or as service check result
if --service-name is set. The api response is printed before the status line.
`
	}

	return text
}

// sanitizeArgs replaces long flags with a single dash, ex.: -filepath, by their double dash version.
func sanitizeArgs(rootCmd *cobra.Command, args []string) []string {
	replace := map[string]string{}
	rootCmd.Flags().VisitAll(func(f *pflag.Flag) {
		if len(f.Name) > 1 {
			replace["-"+f.Name] = "--" + f.Name
		}
	})

	sanitized := make([]string, 0, len(args))
	for _, arg := range args {
		if r, ok := replace[arg]; ok {
			arg = r
		} else if name, val, ok := strings.Cut(arg, "="); ok {
			if r, ok := replace[name]; ok {
				arg = r + "=" + val
			}
		}
		sanitized = append(sanitized, arg)
	}

	return sanitized
}
