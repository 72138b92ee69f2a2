package scheduler

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aprscheduler/apr-scheduler/internal/model"
)

// shellQuote wraps s in single quotes, escaping embedded single quotes the
// standard POSIX way: close the quote, emit an escaped quote, reopen it.
func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// mergeEnv overlays job-specific environment variables onto the
// supervisor's own environment.
func mergeEnv(base []string, overlay map[string]string) []string {
	merged := append([]string(nil), base...)
	for k, v := range overlay {
		merged = append(merged, fmt.Sprintf("%s=%s", k, v))
	}
	return merged
}

// composedCommand is what the supervisor hands to exec.Command: a shell
// line, a working directory, and the environment the subprocess itself
// receives.
type composedCommand struct {
	ShellLine string
	Dir       string
	Env       []string
}

// composeCommand builds the subprocess invocation for a job:
//
//   - Local host (no executor_prefix): run job.Command via the shell,
//     cwd=job.Workdir, env = supervisor env overlaid with job env.
//   - Remote host (executor_prefix set): build a remote shell line that
//     exports the job's env, mkdir -p's and cd's into the workdir, then
//     runs the command; shell-quote that whole line and invoke it as
//     "<executor_prefix> <quoted-remote-cmd>". The local subprocess's own
//     cwd is the scheduler's own, and its env is the supervisor's
//     environment only — the job env is inlined into the remote line, not
//     passed to the local ssh/rsh process.
func composeCommand(job *model.Job, host *model.Host, supervisorEnv []string) composedCommand {
	if !host.IsRemote() {
		return composedCommand{
			ShellLine: job.Command,
			Dir:       job.Workdir,
			Env:       mergeEnv(supervisorEnv, job.Env),
		}
	}

	keys := make([]string, 0, len(job.Env))
	for k := range job.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		fmt.Fprintf(&b, "export %s=%s; ", k, shellQuote(job.Env[k]))
	}
	fmt.Fprintf(&b, "mkdir -p %s; cd %s; %s", shellQuote(job.Workdir), shellQuote(job.Workdir), job.Command)

	remoteLine := shellQuote(b.String())
	return composedCommand{
		ShellLine: host.ExecutorPrefix + " " + remoteLine,
		Dir:       "",
		Env:       append([]string(nil), supervisorEnv...),
	}
}
