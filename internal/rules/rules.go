// Package rules holds the static detection catalog used by the risk engine.
// The registry is built once at process start and never mutated; the matcher
// receives it by reference so matching stays a pure function of
// (line, context, registry).
package rules

import (
	"regexp"
)

// Severity is a finding level.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
)

// Rule is one detection rule. Immutable after registry construction.
type Rule struct {
	// ID is a short stable identifier (e.g. "curl_pipe_shell").
	ID string
	// Pattern is matched case-insensitively against single lines.
	Pattern *regexp.Regexp
	// Severity of findings this rule produces.
	Severity Severity
	// Description is the human explanation attached to findings.
	Description string
	// SkipInDocs suppresses the rule in documentation files, where install
	// instructions legitimately mention privileged commands.
	SkipInDocs bool
}

// Registry is the immutable rule catalog plus the always-safe whitelist.
// Rules keep registration order; finding order depends on it.
type Registry struct {
	rules     []Rule
	whitelist []*regexp.Regexp
	disabled  map[string]struct{}
}

// Rules returns the catalog in registration order.
func (r *Registry) Rules() []Rule { return r.rules }

// Whitelisted reports whether a line matches an always-safe pattern.
// A whitelisted line is skipped before any rule evaluation.
func (r *Registry) Whitelisted(line string) bool {
	for _, re := range r.whitelist {
		if re.MatchString(line) {
			return true
		}
	}
	return false
}

// Enabled reports whether a rule survived override-pack filtering.
func (r *Registry) Enabled(id string) bool {
	_, off := r.disabled[id]
	return !off
}

func ci(expr string) *regexp.Regexp { return regexp.MustCompile(`(?i)` + expr) }

func crit(id, expr, desc string) Rule {
	return Rule{ID: id, Pattern: ci(expr), Severity: SeverityCritical, Description: desc}
}

func critDocSafe(id, expr, desc string) Rule {
	r := crit(id, expr, desc)
	r.SkipInDocs = true
	return r
}

func warn(id, expr, desc string) Rule {
	return Rule{ID: id, Pattern: ci(expr), Severity: SeverityWarning, Description: desc}
}

func info(id, expr, desc string) Rule {
	return Rule{ID: id, Pattern: ci(expr), Severity: SeverityInfo, Description: desc}
}

// NewRegistry builds the default catalog. Patterns are compiled with
// MustCompile: a malformed pattern is a build-time error, not a runtime
// condition to recover from.
func NewRegistry() *Registry {
	return &Registry{
		rules:     defaultRules(),
		whitelist: defaultWhitelist(),
		disabled:  map[string]struct{}{},
	}
}

func defaultWhitelist() []*regexp.Regexp {
	return []*regexp.Regexp{
		// Comments and docstrings.
		ci(`# `),
		ci(`"""`),
		ci(`'''`),
		// Standard API hosts and local-only addresses.
		ci(`https://api\.`),
		ci(`localhost|127\.0\.0\.1`),
	}
}

func defaultRules() []Rule {
	return []Rule{
		// Credential access
		crit("ssh_dir_access", `\.ssh[/\\]`, "SSH key access"),
		crit("aws_creds_access", `\.aws[/\\]`, "AWS credentials access"),
		crit("agent_creds_access", `\.openclaw[/\\]credentials`, "Agent credentials access"),
		crit("agent_config_access", `(open|read|load|write).*\.clawdbot`, "Agent config file access"),
		crit("agent_env_access", `\.clawdbot.*\.env`, "Agent .env access"),
		crit("env_file_read", `(open|read|load).*\.env`, "Environment file read"),
		crit("dotenv_load", `dotenv\.load|load_dotenv`, "Dotenv loading"),
		crit("private_key_ref", `private[_-]?key|privatekey`, "Private key reference"),

		// Reverse shells
		crit("netcat_exec", `nc\s+.*-e`, "Netcat reverse shell"),
		crit("bash_dev_tcp", `bash\s+-i\s+.*\/dev\/tcp`, "Bash reverse shell"),
		crit("shell_pipe_nc", `\/bin\/sh\s*\|\s*nc`, "Shell pipe to netcat"),
		crit("python_revshell", `python.*socket.*subprocess`, "Python reverse shell pattern"),
		crit("socket_shell", `socket\..*connect.*shell`, "Socket-based shell"),
		crit("pty_spawn", `pty\.spawn`, "PTY spawn (shell escape)"),

		// Curl/wget pipe to shell
		crit("curl_pipe_shell", `curl\s+.*\|\s*(ba)?sh`, "Curl pipe to shell"),
		crit("wget_pipe_shell", `wget\s+.*\|\s*(ba)?sh`, "Wget pipe to shell"),
		crit("download_exec", `curl\s+.*>\s*.*\.sh\s*&&`, "Download and execute script"),
		crit("download_chmod", `wget\s+.*&&\s*chmod\s*\+x`, "Download and make executable"),

		// Webhook exfiltration
		crit("discord_webhook", `discord\.com\/api\/webhooks`, "Discord webhook exfiltration"),
		crit("slack_webhook", `hooks\.slack\.com`, "Slack webhook exfiltration"),

		// Known malicious hosts
		crit("glot_io", `glot\.io`, "glot.io (known malware host)"),
		crit("pastebin_raw", `pastebin\.com\/raw`, "Pastebin raw (code hosting)"),
		crit("paste_service", `paste\.ee|ghostbin|hastebin`, "Paste service (code hosting)"),
		crit("github_raw_sh", `raw\.githubusercontent\.com.*\.sh`, "GitHub raw shell script"),

		// Persistence mechanisms
		crit("crontab_mod", `crontab\s+-`, "Crontab modification"),
		crit("etc_cron", `\/etc\/cron`, "System cron access"),
		crit("systemd_enable", `systemctl\s+(enable|start)`, "Systemd service manipulation"),
		crit("launch_agents", `LaunchAgents|LaunchDaemons`, "macOS persistence"),
		crit("shell_profile", `\.bashrc|\.zshrc|\.profile`, "Shell profile modification"),

		// Data exfiltration
		crit("cred_post", `requests\.(post|put|patch)\s*\([^)]*\b(key|secret|token|password|cred)`, "Credential exfiltration attempt"),
		crit("urlopen_post", `urllib.*urlopen.*POST`, "URL POST request"),
		crit("curl_post", `curl\s+.*-[dX]\s*(POST|PUT)`, "Curl POST/PUT command"),
		crit("wget_post", `wget\s+.*--post`, "Wget POST command"),
		crit("tunnel_service", `ngrok|localtunnel|serveo`, "Tunnel service usage"),

		// Command injection
		crit("eval_call", `eval\s*\(`, "eval() usage"),
		crit("exec_call", `exec\s*\(`, "exec() usage"),
		crit("subprocess_shell", `subprocess.*shell\s*=\s*True`, "Shell injection risk"),
		crit("os_system", `os\.system\s*\(`, "os.system() command execution"),
		crit("os_popen", `os\.popen\s*\(`, "os.popen() command execution"),

		// Filesystem attacks
		crit("etc_open", `open\s*\([^)]*["']\/etc\/`, "/etc/ file access"),
		crit("usr_open", `open\s*\([^)]*["']\/usr\/`, "/usr/ file access"),
		crit("root_open", `open\s*\([^)]*["']\/root\/`, "/root/ file access"),
		crit("symlink_create", `os\.symlink`, "Symlink creation"),
		crit("rmtree_root", `shutil\.rmtree\s*\([^)]*["']\/`, "Root directory deletion"),
		crit("rm_rf_root", `rm\s+-rf?\s+\/`, "Dangerous rm command"),

		// Privilege escalation (suppressed in documentation files)
		critDocSafe("chmod_777", `chmod\s+777`, "World-writable permissions"),
		critDocSafe("chmod_dangerous", `chmod\s+[0-7]*[67][0-7]{2}`, "Dangerous permission change"),
		critDocSafe("setuid_setgid", `setuid|setgid`, "Setuid/setgid usage"),
		critDocSafe("chown_root", `chown\s+root`, "Chown to root"),

		// Crypto/wallet material
		crit("wallet_dat", `wallet.*\.dat`, "Wallet file access"),
		crit("seed_phrase", `seed\s*phrase|mnemonic`, "Seed phrase reference"),
		crit("keystore_access", `keystore`, "Keystore access"),
		crit("wallet_software", `metamask|phantom|ledger`, "Wallet software reference"),

		// Obfuscation / serialized payloads
		crit("b64_exec", `base64\.(b64)?decode.*exec`, "Base64 decoded execution"),
		crit("b64_pipe", `base64\s+-d\s*\|`, "Base64 decode pipe (obfuscation)"),
		crit("hex_blob", `(\\x[0-9a-fA-F]{2}){10,}`, "Hex-encoded string (long)"),
		crit("zlib_exec", `zlib\.decompress.*exec`, "Compressed code execution"),
		crit("marshal_loads", `marshal\.loads`, "Marshal deserialization"),
		crit("pickle_loads", `pickle\.loads?\s*\(`, "Pickle deserialization (RCE risk)"),

		// Password-protected archives
		crit("zip_password", `unzip\s+.*-P`, "Password-protected ZIP extraction"),
		crit("7z_password", `7z\s+.*-p`, "7zip with password"),

		// Warnings: genuinely suspicious regardless of skill type
		warn("raw_socket", `socket\.socket`, "Raw socket usage (unusual)"),
		warn("dynamic_compile", `compile\s*\(.*exec`, "Dynamic code compilation"),
		warn("globals_mutation", `globals\s*\(\)\s*\[`, "Globals manipulation"),
		warn("var_log_access", `\/var\/log`, "/var/log access"),
		warn("var_run_access", `\/var\/run`, "/var/run access"),
		warn("rmtree_call", `shutil\.rmtree`, "Directory tree deletion"),
		warn("file_delete", `os\.remove|os\.unlink`, "File deletion"),
		warn("email_send", `smtplib|send_mail|sendmail`, "Email sending capability"),
		warn("capture_lib", `pyscreenshot|pyautogui|pynput`, "Screen/keyboard capture library"),
		warn("keyboard_lib", `\bkeyboard\b`, "Keyboard capture library"),
		warn("screenshot_call", `ImageGrab|take_screenshot|capture_screen`, "Screenshot capability"),
		warn("lowlevel_syscall", `ctypes.*kernel|ctypes.*user32`, "Low-level system calls"),
		warn("win32_api", `win32api|win32con`, "Windows API access"),

		// Info: low-signal awareness only, capped per scan
		info("hash_computation", `\bhashlib\b|\bhmac\b`, "Hash computation"),
		info("dir_enumeration", `\bos\.walk\b|\bos\.listdir\b`, "Directory enumeration"),
	}
}
