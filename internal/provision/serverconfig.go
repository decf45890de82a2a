package provision

import "fmt"

// GenerateServerConfig renders the authrelay server configuration document.
// The USER and PASSWORD keys are deliberate placeholders: the operator fills
// in the credential after installation, which is why the rendered file is
// written with owner-only permissions.
func GenerateServerConfig(p InstallParams) string {
	return fmt.Sprintf(`[GENERAL]
LISTEN_PORT:%d
PARENT_PROXY:%s
PARENT_PROXY_PORT:%d
PARENT_PROXY_TIMEOUT:15
MAX_CONNECTION_BACKLOG:5
ALLOW_EXTERNAL_CLIENTS:0
FRIENDLY_IPS:
URL_LOG:0

[CLIENT_HEADER]
Accept: */*
User-Agent: authrelay/1.0

[NTLM_AUTH]
NT_DOMAIN:%s
USER:
PASSWORD:
LM_PART:1
NT_PART:0
NTLM_FLAGS: 06820000

[DEBUG]
DEBUG:0
BIN_DEBUG:0
SCR_DEBUG:0
AUTH_DEBUG:0
`, p.ListenPort, p.UpstreamHost, p.UpstreamPort, p.AuthDomain)
}
