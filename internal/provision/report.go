package provision

import (
	"bufio"
	"fmt"
	"io"
	"strings"
)

// Report prints a human-readable summary of the installed configuration and
// the operational commands an operator will want next.
func Report(w io.Writer, p InstallParams) {
	fmt.Fprintf(w, "authrelay installed and running\n\n")
	fmt.Fprintf(w, "  service:        %s\n", p.ServiceName)
	fmt.Fprintf(w, "  account:        %s:%s\n", p.User, p.Group)
	fmt.Fprintf(w, "  install root:   %s\n", p.Root)
	fmt.Fprintf(w, "  configuration:  %s\n", p.ConfigPath())
	fmt.Fprintf(w, "  listen port:    %d\n", p.ListenPort)
	fmt.Fprintf(w, "  upstream proxy: %s:%d\n", p.UpstreamHost, p.UpstreamPort)
	fmt.Fprintf(w, "  auth domain:    %s\n\n", p.AuthDomain)
	fmt.Fprintf(w, "Set USER and PASSWORD in the [NTLM_AUTH] section of %s,\n", p.ConfigPath())
	fmt.Fprintf(w, "then restart the service.\n\n")
	fmt.Fprintf(w, "  systemctl status %s\n", p.ServiceName)
	fmt.Fprintf(w, "  systemctl restart %s\n", p.ServiceName)
	fmt.Fprintf(w, "  journalctl -u %s\n", p.ServiceName)
	fmt.Fprintf(w, "  ls %s\n", p.LogDir())
}

// TerminalConfirm returns a ConfirmFunc that prompts on out and reads a
// yes/no answer from in. Anything but "y" or "yes" declines.
func TerminalConfirm(in io.Reader, out io.Writer) ConfirmFunc {
	reader := bufio.NewReader(in)
	return func(prompt string) bool {
		fmt.Fprint(out, prompt)
		line, err := reader.ReadString('\n')
		if err != nil {
			return false
		}
		answer := strings.ToLower(strings.TrimSpace(line))
		return answer == "y" || answer == "yes"
	}
}
