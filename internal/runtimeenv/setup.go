// Package runtimeenv holds process-level setup concerns that don't fit
// any single SPEC_FULL.md component: privilege drop after binding a
// (possibly privileged) listen address, and systemd readiness
// notification once the reactor is actually serving.
package runtimeenv

import (
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"syscall"

	cclog "github.com/ClusterCockpit/cc-lib/v2/ccLogger"
	"github.com/cc-backend/cached/internal/config"
)

// DropPrivileges drops the process to cfg.User/cfg.Group once the
// reactor's listener is already bound — useful when cfg.Addr names a
// privileged port. It is a no-op when neither is configured, so callers
// don't need to guard the call themselves. The Go runtime applies the
// underlying syscalls to every OS thread, not just the calling one.
func DropPrivileges(cfg config.Configuration) error {
	if cfg.User == "" && cfg.Group == "" {
		return nil
	}

	cclog.Infof("runtimeenv: dropping privileges for %s (user=%q group=%q)", cfg.Addr, cfg.User, cfg.Group)

	if cfg.Group != "" {
		if err := setCredential("group", cfg.Group, lookupGroupID, syscall.Setgid); err != nil {
			return err
		}
	}

	if cfg.User != "" {
		if err := setCredential("user", cfg.User, lookupUserID, syscall.Setuid); err != nil {
			return err
		}
	}

	return nil
}

func lookupGroupID(name string) (string, error) {
	g, err := user.LookupGroup(name)
	if err != nil {
		return "", err
	}
	return g.Gid, nil
}

func lookupUserID(name string) (string, error) {
	u, err := user.Lookup(name)
	if err != nil {
		return "", err
	}
	return u.Uid, nil
}

// setCredential resolves name to a numeric id via resolve and applies it
// via set, logging and returning whichever of the two steps fails. It is
// the shared shape behind both the group and the user half of
// DropPrivileges — they differ only in which os/user lookup and which
// syscall they use.
func setCredential(kind, name string, resolve func(string) (string, error), set func(int) error) error {
	id, err := resolve(name)
	if err != nil {
		cclog.Warnf("runtimeenv: looking up %s %q: %s", kind, name, err)
		return err
	}

	n, err := strconv.Atoi(id)
	if err != nil {
		return fmt.Errorf("runtimeenv: %s %q resolved to non-numeric id %q", kind, name, id)
	}

	if err := set(n); err != nil {
		cclog.Warnf("runtimeenv: setting %s id: %s", kind, err)
		return err
	}
	return nil
}

// Ready notifies systemd (if NOTIFY_SOCKET is set, i.e. the process was
// started under it) that the cache server is bound and serving on addr:
// https://www.freedesktop.org/software/systemd/man/sd_notify.html
func Ready(addr string) {
	notify(true, fmt.Sprintf("serving on %s", addr))
}

func notify(ready bool, status string) {
	if os.Getenv("NOTIFY_SOCKET") == "" {
		return
	}

	args := []string{fmt.Sprintf("--pid=%d", os.Getpid())}
	if ready {
		args = append(args, "--ready")
	}
	if status != "" {
		args = append(args, fmt.Sprintf("--status=%s", status))
	}

	cmd := exec.Command("systemd-notify", args...)
	_ = cmd.Run() // best-effort: nothing useful to do if systemd-notify is missing.
}
